// Package config provides server configuration with multi-source priority:
// environment variables (PROMPTFILE_*) over an optional config file over
// defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultHTTPAddr        = "127.0.0.1:8080"
	defaultShutdownTimeout = 5 * time.Second
	defaultLogFormat       = LogFormatText
	defaultLogLevel        = "info"
	defaultProviderMode    = ProviderModeMock
	defaultProviderBaseURL = "https://api.openai.com/v1"
	defaultModel           = "openai/gpt-4o-mini"
	defaultProviderTimeout = 120 * time.Second
	defaultMaxAttempts     = 3
	defaultPromptDir       = "./prompts"
	defaultStateBackend    = StateBackendMemory
	defaultMaxBodyBytes    = 1 << 20
)

type ProviderMode string

const (
	// ProviderModeMock answers from a canned script, useful without credentials.
	ProviderModeMock ProviderMode = "mock"
	// ProviderModeOpenAI talks to the OpenAI Responses API.
	ProviderModeOpenAI ProviderMode = "openai"
)

type StateBackend string

const (
	StateBackendMemory StateBackend = "memory"
	StateBackendDisk   StateBackend = "disk"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config controls server boot, the provider boundary, and storage layout.
type Config struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LogFormat       LogFormat     `mapstructure:"log_format"`
	LogLevel        string        `mapstructure:"log_level"`

	ProviderMode        ProviderMode  `mapstructure:"provider_mode"`
	ProviderAPIKey      string        `mapstructure:"provider_api_key"`
	ProviderBaseURL     string        `mapstructure:"provider_base_url"`
	ProviderTimeout     time.Duration `mapstructure:"provider_timeout"`
	ProviderMaxAttempts int           `mapstructure:"provider_max_attempts"`
	ProviderRateLimit   float64       `mapstructure:"provider_rate_limit"`

	// DefaultModel applies to prompts without a Model section, in
	// provider/model form.
	DefaultModel  string `mapstructure:"default_model"`
	MaxToolRounds int    `mapstructure:"max_tool_rounds"`

	PromptDir    string       `mapstructure:"prompt_dir"`
	StateBackend StateBackend `mapstructure:"state_backend"`
	// DataDir holds thread state and uploaded files for the disk backend.
	DataDir string `mapstructure:"data_dir"`

	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes"`
}

// Load reads configuration from the environment and an optional config file.
// An explicit configFile path must exist; an empty path searches the working
// directory and skips the file when absent.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PROMPTFILE")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("promptfile")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", defaultHTTPAddr)
	v.SetDefault("shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("log_format", string(defaultLogFormat))
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("provider_mode", string(defaultProviderMode))
	v.SetDefault("provider_base_url", defaultProviderBaseURL)
	v.SetDefault("provider_timeout", defaultProviderTimeout)
	v.SetDefault("provider_max_attempts", defaultMaxAttempts)
	v.SetDefault("provider_rate_limit", 0.0)
	v.SetDefault("default_model", defaultModel)
	v.SetDefault("max_tool_rounds", 0)
	v.SetDefault("prompt_dir", defaultPromptDir)
	v.SetDefault("state_backend", string(defaultStateBackend))
	v.SetDefault("data_dir", "./data")
	v.SetDefault("max_request_body_bytes", defaultMaxBodyBytes)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("validate config: http_addr is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("validate config: shutdown_timeout must be > 0")
	}
	if strings.TrimSpace(c.PromptDir) == "" {
		return errors.New("validate config: prompt_dir is required")
	}
	if strings.TrimSpace(c.DefaultModel) == "" {
		return errors.New("validate config: default_model is required")
	}

	switch c.ProviderMode {
	case ProviderModeMock:
	case ProviderModeOpenAI:
		if strings.TrimSpace(c.ProviderAPIKey) == "" {
			return errors.New("validate config: openai mode requires PROMPTFILE_PROVIDER_API_KEY")
		}
		if strings.TrimSpace(c.ProviderBaseURL) == "" {
			return errors.New("validate config: openai mode requires provider_base_url")
		}
		if c.ProviderTimeout <= 0 {
			return errors.New("validate config: openai mode requires provider_timeout > 0")
		}
	default:
		return fmt.Errorf(
			"validate config: unsupported provider_mode %q (allowed: %q, %q)",
			c.ProviderMode, ProviderModeMock, ProviderModeOpenAI,
		)
	}

	switch c.StateBackend {
	case StateBackendMemory:
	case StateBackendDisk:
		if strings.TrimSpace(c.DataDir) == "" {
			return errors.New("validate config: disk backend requires data_dir")
		}
	default:
		return fmt.Errorf(
			"validate config: unsupported state_backend %q (allowed: %q, %q)",
			c.StateBackend, StateBackendMemory, StateBackendDisk,
		)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf(
			"validate config: unsupported log_format %q (allowed: %q, %q)",
			c.LogFormat, LogFormatText, LogFormatJSON,
		)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	if c.MaxRequestBodyBytes <= 0 {
		return errors.New("validate config: max_request_body_bytes must be > 0")
	}
	if c.ProviderMaxAttempts < 1 {
		return errors.New("validate config: provider_max_attempts must be >= 1")
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf(
			"validate config: unsupported log_level %q (allowed: debug, info, warn, error)",
			c.LogLevel,
		)
	}
}
