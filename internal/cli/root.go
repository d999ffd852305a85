package cli

import (
	"fmt"
	"os"
	"strings"

	"todolists/internal/config"
	"todolists/internal/format"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type App struct {
	ConfigPath string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "todolists",
		Short:        "Session-backed to-do lists served as plain HTML",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Serve the app on localhost:4567
  todolists serve

  # Keep sessions server-side in SQLite instead of the cookie
  todolists serve --session-backend sqlite

  # Inspect a session cookie copied from the browser
  todolists session decode "$COOKIE" --format text
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return checkFormat(cmd, app.Format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("TODOLISTS_CONFIG", ""), "Path to a TOML config file (default: <config dir>/todolists/config.toml)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().String("log-format", "", "Log format (text|json|logfmt)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("TODOLISTS_FORMAT", "json"), "Output format (json|edn|toml; session decode also takes text)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newSessionCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// loadConfig resolves configuration for cmd. bindings maps viper keys to flag
// names on cmd; only flags the user set override file and env values.
func loadConfig(app *App, cmd *cobra.Command, bindings map[string]string) (config.Config, error) {
	all := map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
	}
	for k, v := range bindings {
		all[k] = v
	}
	flags := map[string]*pflag.Flag{}
	for key, name := range all {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			flags[key] = f
		}
	}
	return config.Load(app.ConfigPath, flags)
}

// textFormatAnnotation marks commands that render --format text themselves.
const textFormatAnnotation = "todolists/text-format"

func checkFormat(cmd *cobra.Command, f string) error {
	switch f {
	case "", "json", "edn", "toml":
		return nil
	case "text":
		if cmd.Annotations[textFormatAnnotation] == "true" {
			return nil
		}
		return writeErr(cmd, fmt.Errorf("--format text is only supported by `todolists session decode`"))
	}
	return writeErr(cmd, fmt.Errorf("unknown format: %s (expected json|edn|toml)", f))
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
