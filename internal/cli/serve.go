package cli

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"todolists/internal/config"
	"todolists/internal/session"
	"todolists/internal/web"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the to-do lists web server",
		Long: strings.TrimSpace(`
Run the to-do lists web server.

Pages are plain server-rendered HTML forms (no JavaScript). All state lives in
the visitor's session: a signed cookie by default, or a SQLite row keyed by a
signed id with --session-backend sqlite.
`),
		Example: strings.TrimSpace(`
# Serve on the default address (127.0.0.1:4567)
todolists serve

# Listen on all interfaces, keep sessions server-side
todolists serve --addr :4567 --session-backend sqlite
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app, cmd, map[string]string{
				"addr":            "addr",
				"session.backend": "session-backend",
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
			if err != nil {
				return writeErr(cmd, err)
			}

			secret, err := resolveSecret(cfg.Session, true)
			if err != nil {
				return writeErr(cmd, err)
			}
			key, err := csrfKey(cfg.CSRF, secret)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sessions, err := openSessions(ctx, cfg.Session, secret)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sessions.Close()

			if sq, ok := sessions.(*session.SQLiteBackend); ok {
				go sq.RunPruner(ctx, cfg.Session.PruneInterval, func(err error) {
					logger.Warn("session prune failed", "err", err)
				})
			}

			srv, err := web.NewServer(web.ServerConfig{
				Sessions: sessions,
				Logger:   logger,
				CSRF:     cfg.CSRF.Enabled,
				CSRFKey:  key,
				Secure:   cfg.Session.Secure,
				Compress: cfg.Compress,
				Markdown: cfg.Markdown,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":           actualAddr,
					"url":            url,
					"sessionBackend": cfg.Session.Backend,
					"csrf":           cfg.CSRF.Enabled,
					"startedAt":      time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"open " + url},
			})
			logger.Info("listening", "url", url, "backend", cfg.Session.Backend)

			httpSrv := &http.Server{
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := httpSrv.Shutdown(shutdownCtx); err != nil {
					logger.Error("shutdown", "err", err)
				}
			}()

			if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			logger.Info("stopped")
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Bind address (host:port or :port; default 127.0.0.1:4567)")
	cmd.Flags().String("session-backend", "", "Where session state lives (cookie|sqlite)")
	return cmd
}

func newLogger(w io.Writer, c config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(c.Level)))
	if err != nil {
		return nil, fmt.Errorf("config: invalid log.level %q", c.Level)
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	switch strings.ToLower(c.Format) {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	default:
		logger.SetFormatter(log.TextFormatter)
	}
	return logger, nil
}

// resolveSecret returns the configured signing key, falling back to the secret
// file. create generates the file when it does not exist yet.
func resolveSecret(c config.SessionConfig, create bool) ([]byte, error) {
	if s := strings.TrimSpace(c.Secret); s != "" {
		return []byte(s), nil
	}
	if create {
		return session.LoadOrInitSecret(c.SecretFile)
	}
	b, err := os.ReadFile(c.SecretFile)
	if err != nil {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return nil, fmt.Errorf("read secret: %s is empty", c.SecretFile)
	}
	return []byte(s), nil
}

// csrfKey decodes csrf.key, or derives a stable key from the session secret.
func csrfKey(c config.CSRFConfig, secret []byte) ([]byte, error) {
	if k := strings.TrimSpace(c.Key); k != "" {
		b, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("config: csrf.key: %w", err)
		}
		if len(b) != 32 {
			return nil, fmt.Errorf("config: csrf.key must decode to 32 bytes, got %d", len(b))
		}
		return b, nil
	}
	sum := sha256.Sum256(append(append([]byte{}, secret...), "csrf"...))
	return sum[:], nil
}

func openSessions(ctx context.Context, c config.SessionConfig, secret []byte) (session.Backend, error) {
	opts := session.CookieOptions{
		Name:   c.CookieName,
		MaxAge: c.MaxAge,
		Secure: c.Secure,
	}
	switch c.Backend {
	case config.BackendSQLite:
		return session.OpenSQLite(ctx, c.SQLitePath, secret, opts)
	default:
		return session.NewCookieBackend(secret, opts)
	}
}
