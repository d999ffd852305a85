package cli

import (
	"errors"
	"io"
	"strings"

	"todolists/internal/format"
	"todolists/internal/session"

	"github.com/spf13/cobra"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect session cookies",
	}
	cmd.AddCommand(newSessionDecodeCmd(app))
	return cmd
}

func newSessionDecodeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <cookie-value|->",
		Short: "Verify a cookie-backend session and print its lists",
		Long: strings.TrimSpace(`
Verify a session cookie with the configured secret and print the state it carries.

The value may be the bare cookie value or "name=value" as copied from a Cookie
header. Use "-" to read it from stdin. Only the cookie backend keeps state in the
cookie; sqlite cookies carry a session id only.

Formats: json (default), edn, toml, text.
`),
		Example: strings.TrimSpace(`
todolists session decode "$COOKIE"
todolists session decode - --format text < cookie.txt
`),
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{textFormatAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app, cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			secret, err := resolveSecret(cfg.Session, false)
			if err != nil {
				return writeErr(cmd, err)
			}

			raw := args[0]
			if raw == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return writeErr(cmd, err)
				}
				raw = string(b)
			}
			value := cookieValue(raw, cfg.Session.CookieName)
			if value == "" {
				return writeErr(cmd, errors.New("session decode: empty cookie value"))
			}

			s, err := session.DecodeCookie(secret, value)
			if err != nil {
				return writeErr(cmd, err)
			}

			if app.Format == "text" {
				return format.WriteListsText(cmd.OutOrStdout(), s.Lists)
			}
			return writeOut(cmd, app, map[string]any{"data": s})
		},
	}
}

// cookieValue strips an optional "name=" prefix and any trailing attributes.
func cookieValue(raw, name string) string {
	v := strings.TrimSpace(raw)
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	if name != "" {
		v = strings.TrimPrefix(v, name+"=")
	}
	return strings.TrimSpace(v)
}
