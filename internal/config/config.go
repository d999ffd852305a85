// Package config loads settings from defaults, an optional TOML file,
// TODOLISTS_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Addr     string        `mapstructure:"addr" json:"addr" toml:"addr"`
	Compress bool          `mapstructure:"compress" json:"compress" toml:"compress"`
	Markdown bool          `mapstructure:"markdown" json:"markdown" toml:"markdown"`
	Session  SessionConfig `mapstructure:"session" json:"session" toml:"session"`
	CSRF     CSRFConfig    `mapstructure:"csrf" json:"csrf" toml:"csrf"`
	Log      LogConfig     `mapstructure:"log" json:"log" toml:"log"`
}

type SessionConfig struct {
	Backend       string        `mapstructure:"backend" json:"backend" toml:"backend"` // cookie|sqlite
	CookieName    string        `mapstructure:"cookie_name" json:"cookieName" toml:"cookie_name"`
	Secret        string        `mapstructure:"secret" json:"-" toml:"-"`
	SecretFile    string        `mapstructure:"secret_file" json:"secretFile" toml:"secret_file"`
	MaxAge        time.Duration `mapstructure:"max_age" json:"maxAge" toml:"max_age"`
	Secure        bool          `mapstructure:"secure" json:"secure" toml:"secure"`
	SQLitePath    string        `mapstructure:"sqlite_path" json:"sqlitePath" toml:"sqlite_path"`
	PruneInterval time.Duration `mapstructure:"prune_interval" json:"pruneInterval" toml:"prune_interval"`
}

type CSRFConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" toml:"enabled"`
	// Key is base64 (32 bytes). Empty derives one from the session secret.
	Key string `mapstructure:"key" json:"-" toml:"-"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" toml:"level"`
	Format string `mapstructure:"format" json:"format" toml:"format"` // text|json|logfmt
}

const (
	BackendCookie = "cookie"
	BackendSQLite = "sqlite"
)

// Dir is where generated state (secret key, sqlite sessions) lives by default.
func Dir() string {
	if d := strings.TrimSpace(os.Getenv("TODOLISTS_HOME")); d != "" {
		return d
	}
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "todolists")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "todolists")
}

func setDefaults(v *viper.Viper) {
	dir := Dir()
	v.SetDefault("addr", "127.0.0.1:4567")
	v.SetDefault("compress", true)
	v.SetDefault("markdown", true)
	v.SetDefault("session.backend", BackendCookie)
	v.SetDefault("session.cookie_name", "todolists_session")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.secret_file", filepath.Join(dir, "secret.key"))
	v.SetDefault("session.max_age", 365*24*time.Hour)
	v.SetDefault("session.secure", false)
	v.SetDefault("session.sqlite_path", filepath.Join(dir, "sessions.sqlite"))
	v.SetDefault("session.prune_interval", time.Hour)
	v.SetDefault("csrf.enabled", true)
	v.SetDefault("csrf.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load resolves the configuration. path may be empty; flags may be nil. Flags
// are bound by their viper key (e.g. "addr", "log.level").
func Load(path string, flags map[string]*pflag.Flag) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if path == "" {
		path = strings.TrimSpace(os.Getenv("TODOLISTS_CONFIG"))
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TODOLISTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, f := range flags {
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.Session.Backend {
	case BackendCookie, BackendSQLite:
	default:
		return fmt.Errorf("config: invalid session.backend %q (expected cookie|sqlite)", c.Session.Backend)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("config: invalid log.format %q (expected text|json|logfmt)", c.Log.Format)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("config: addr is empty")
	}
	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("config: session.max_age must be positive")
	}
	return nil
}
