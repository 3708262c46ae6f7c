// Package config loads fidelidade settings from config.yaml, the environment
// and command-line flags.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/log"
)

const (
	// EnvPrefix is prepended to every environment override (FIDELIDADE_API_BASE).
	EnvPrefix = "FIDELIDADE"
	// HomeEnv overrides the configuration directory.
	HomeEnv = "FIDELIDADE_HOME"
	// FileName is the config file inside the home directory.
	FileName = "config.yaml"

	DefaultAPIBase  = "http://127.0.0.1:5000"
	DefaultTimeout  = 30 * time.Second
	DefaultPerPage  = 10
	DefaultGiftName = "Brinde"
)

// Config is the effective configuration after defaults, file, env and flags
// have been merged.
type Config struct {
	APIBase  string         `mapstructure:"api_base" yaml:"api_base" json:"api_base"`
	Timeout  time.Duration  `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session" json:"session"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis" json:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging" json:"logging"`
	Defaults DefaultsConfig `mapstructure:"defaults" yaml:"defaults" json:"defaults"`

	home string
	file string
}

type SessionConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`
	Dir     string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr" json:"addr"`
	Username string `mapstructure:"username" yaml:"username,omitempty" json:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty" json:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db" json:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file,omitempty" json:"file,omitempty"`
}

// DefaultsConfig holds per-command defaults.
type DefaultsConfig struct {
	PerPage  int    `mapstructure:"per_page" yaml:"per_page" json:"per_page"`
	GiftName string `mapstructure:"gift_name" yaml:"gift_name" json:"gift_name"`
	Format   string `mapstructure:"format" yaml:"format" json:"format"`
}

// Home returns the configuration directory: $FIDELIDADE_HOME or ~/.fidelidade.
func Home() (string, error) {
	if h := strings.TrimSpace(os.Getenv(HomeEnv)); h != "" {
		return h, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDirectoryFailed, "cannot resolve home directory", err).
			WithSuggestion("Set " + HomeEnv + " to a writable directory")
	}
	return filepath.Join(userHome, ".fidelidade"), nil
}

// Path returns the config file location inside home.
func Path(home string) string {
	return filepath.Join(home, FileName)
}

// Loader wraps a private viper instance so flags can be bound before Load.
type Loader struct {
	v    *viper.Viper
	home string
}

// NewLoader prepares a loader rooted at home. An empty home resolves with Home.
func NewLoader(home string) (*Loader, error) {
	if home == "" {
		h, err := Home()
		if err != nil {
			return nil, err
		}
		home = h
	}

	v := viper.New()
	setDefaults(v, home)

	v.SetConfigFile(Path(home))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The web build read VITE_API_BASE; honour it when the prefixed name is absent.
	if err := v.BindEnv("api_base", EnvPrefix+"_API_BASE", "VITE_API_BASE"); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "bind api_base env", err)
	}

	return &Loader{v: v, home: home}, nil
}

// Viper exposes the underlying instance, mainly for BindPFlag.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Home returns the directory the loader reads from.
func (l *Loader) Home() string {
	return l.home
}

// Load merges .env files, config.yaml and the environment into a Config.
// A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	if err := loadDotEnv(".env", filepath.Join(l.home, ".env")); err != nil {
		return nil, err
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewFileUnmarshalError(Path(l.home), "YAML", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to decode configuration", err)
	}
	cfg.APIBase = strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	cfg.home = l.home
	cfg.file = Path(l.home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is a shortcut for NewLoader(home) followed by Load.
func Load(home string) (*Config, error) {
	l, err := NewLoader(home)
	if err != nil {
		return nil, err
	}
	return l.Load()
}

// Default returns the built-in configuration rooted at home.
func Default(home string) *Config {
	v := viper.New()
	setDefaults(v, home)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.home = home
	cfg.file = Path(home)
	return &cfg
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("api_base", DefaultAPIBase)
	v.SetDefault("timeout", DefaultTimeout)

	v.SetDefault("session.backend", auth.BackendFile)
	v.SetDefault("session.dir", filepath.Join(home, "session"))

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", auth.DefaultRedisPrefix)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")

	v.SetDefault("defaults.per_page", DefaultPerPage)
	v.SetDefault("defaults.gift_name", DefaultGiftName)
	v.SetDefault("defaults.format", "text")
}

func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("failed to read %s", p), err)
		}
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("api_base %q is not an http(s) URL", c.APIBase)).
			WithSuggestion("Example: fidelidade config set api_base http://127.0.0.1:5000")
	}
	if c.Timeout <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "timeout must be positive")
	}
	switch c.Session.Backend {
	case auth.BackendFile, auth.BackendRedis, auth.BackendMemory:
	default:
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown session.backend %q", c.Session.Backend)).
			WithSuggestion("Use one of: file, redis, memory")
	}
	if c.Session.Backend == auth.BackendRedis && c.Redis.Addr == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "redis.addr is required when session.backend is redis")
	}
	if _, ok := log.LookupLevel(c.Logging.Level); !ok {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown logging.level %q", c.Logging.Level)).
			WithSuggestion("Use one of: debug, info, warn, error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown logging.format %q", c.Logging.Format))
	}
	if c.Defaults.PerPage <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "defaults.per_page must be positive")
	}
	switch c.Defaults.Format {
	case "text", "json", "yaml":
	default:
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown defaults.format %q", c.Defaults.Format)).
			WithSuggestion("Use one of: text, json, yaml")
	}
	return nil
}

// HomeDir is the directory this config was loaded from.
func (c *Config) HomeDir() string {
	return c.home
}

// File is the config file path, whether or not it exists.
func (c *Config) File() string {
	return c.file
}

// SessionOptions converts the session and redis sections for auth.NewStore.
func (c *Config) SessionOptions() auth.Options {
	return auth.Options{
		Backend: c.Session.Backend,
		Dir:     c.Session.Dir,
		Redis: auth.RedisOptions{
			Addr:     c.Redis.Addr,
			Username: c.Redis.Username,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		},
	}
}

// LogConfig builds the logger configuration. Interactive sessions never log
// to the terminal: without logging.file their records are discarded.
func (c *Config) LogConfig(interactive bool) log.Config {
	lc := log.CLIConfig()
	lc.Level = log.ParseLevel(c.Logging.Level)
	lc.Format = log.ParseFormat(c.Logging.Format)

	switch {
	case c.Logging.File != "":
		lc.Output = log.OutputFile(c.Logging.File, log.DefaultFileRotation())
	case interactive:
		lc.Output = log.OutputDiscard()
	}
	return lc
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.Redis.Password != "" {
		out.Redis.Password = "********"
	}
	return out
}
