package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kirsle/configdir"
	"gopkg.in/yaml.v3"

	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/apperr"
)

// Config holds everything the CLI needs to reach the remote API and render
// its output. It is built once at startup and passed down explicitly.
type Config struct {
	APIKey         string        `yaml:"api_key"`
	BaseModel      string        `yaml:"base_model"`
	BaseURL        string        `yaml:"base_url"`
	Organization   string        `yaml:"organization"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	NoColor        bool          `yaml:"no_color"`
	Log            LogConfig     `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Overrides carries command-line values; empty fields leave the loaded value
// untouched.
type Overrides struct {
	APIKey       string
	BaseModel    string
	BaseURL      string
	Organization string
	LogLevel     string
	LogFormat    string
	NoColor      bool
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		BaseModel:      DefaultBaseModel,
		BaseURL:        DefaultBaseURL,
		RequestTimeout: DefaultRequestTimeout,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// DefaultConfigPath is config.yaml inside the per-user config directory.
func DefaultConfigPath() string {
	return filepath.Join(configdir.LocalConfig(AppName), "config.yaml")
}

// Loader resolves a Config with precedence defaults -> YAML file -> .env ->
// environment. Flags are applied afterwards with ApplyOverrides.
type Loader struct {
	configPath string
	explicit   bool
	dotEnvPath string
}

func NewLoader() *Loader {
	return &Loader{
		configPath: DefaultConfigPath(),
		dotEnvPath: DefaultDotEnvFile,
	}
}

// WithConfigPath selects a config file. Unlike the default location, an
// explicitly chosen file must exist.
func (l *Loader) WithConfigPath(path string) *Loader {
	if path != "" {
		l.configPath = path
		l.explicit = true
	}
	return l
}

// WithDotEnv selects the .env file; an empty path disables it.
func (l *Loader) WithDotEnv(path string) *Loader {
	l.dotEnvPath = path
	return l
}

func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if err := l.loadFile(cfg); err != nil {
		return nil, err
	}

	if l.dotEnvPath != "" {
		// godotenv never overwrites variables that are already set
		if err := godotenv.Load(l.dotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, &apperr.ConfigurationError{Setting: l.dotEnvPath, Reason: err.Error()}
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) loadFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !l.explicit {
			return nil
		}
		return &apperr.FileAccessError{Path: l.configPath, Err: err}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &apperr.ConfigurationError{Setting: l.configPath, Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	return nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.APIKey, EnvAPIKey)
	setFromEnv(&c.BaseModel, EnvBaseModel)
	setFromEnv(&c.BaseURL, EnvBaseURL)
	setFromEnv(&c.Organization, EnvOrgID)
	setFromEnv(&c.Log.Level, EnvLogLevel)
	setFromEnv(&c.Log.Format, EnvLogFormat)
	if os.Getenv(EnvNoColor) != "" {
		c.NoColor = true
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ApplyOverrides layers command-line values on top of the loaded config.
func (c *Config) ApplyOverrides(o Overrides) error {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.APIKey, o.APIKey)
	set(&c.BaseModel, o.BaseModel)
	set(&c.BaseURL, o.BaseURL)
	set(&c.Organization, o.Organization)
	set(&c.Log.Level, o.LogLevel)
	set(&c.Log.Format, o.LogFormat)
	if o.NoColor {
		c.NoColor = true
	}
	return c.validate()
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return &apperr.ConfigurationError{Setting: "log level", Reason: fmt.Sprintf("unknown level %q (want debug, info, warn or error)", c.Log.Level)}
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return &apperr.ConfigurationError{Setting: "log format", Reason: fmt.Sprintf("unknown format %q (want console or json)", c.Log.Format)}
	}
	if c.RequestTimeout <= 0 {
		return &apperr.ConfigurationError{Setting: "request_timeout", Reason: "must be positive"}
	}
	if c.BaseModel == "" {
		c.BaseModel = DefaultBaseModel
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	return nil
}

// RequireAPIKey fails with a ConfigurationError when no credential was found
// in any source.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return &apperr.ConfigurationError{
			Setting: "API key",
			Reason:  fmt.Sprintf("not provided via --api-key flag, %s environment variable, %s or %s", EnvAPIKey, DefaultDotEnvFile, DefaultConfigPath()),
		}
	}
	return nil
}
