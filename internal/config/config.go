// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/gramscope/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Instagram InstagramConfig `yaml:"instagram" mapstructure:"instagram"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Proxy     ProxyConfig     `yaml:"proxy" mapstructure:"proxy"`
	Store     store.Config    `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// InstagramConfig holds the web API endpoint and credential settings.
type InstagramConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	AppID          string `yaml:"app_id" mapstructure:"app_id"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	SessionCookie  string `yaml:"session_cookie" mapstructure:"session_cookie"`
	AllowAnonymous bool   `yaml:"allow_anonymous" mapstructure:"allow_anonymous"`
}

// FetchConfig configures batch dispatch and retry behavior.
type FetchConfig struct {
	Concurrency     int     `yaml:"concurrency" mapstructure:"concurrency"`
	MaxAttempts     int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffBaseSecs float64 `yaml:"backoff_base_secs" mapstructure:"backoff_base_secs"`
	BackoffMaxSecs  float64 `yaml:"backoff_max_secs" mapstructure:"backoff_max_secs"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec  float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// ProxyConfig configures outbound proxy rotation.
type ProxyConfig struct {
	URLs []string `yaml:"urls" mapstructure:"urls"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GRAMSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("instagram.base_url", "https://www.instagram.com")
	v.SetDefault("instagram.app_id", "936619743392459")
	v.SetDefault("fetch.concurrency", 10)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.backoff_base_secs", 2.0)
	v.SetDefault("fetch.backoff_max_secs", 60.0)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.requests_per_sec", 0.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "gramscope.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate rejects configurations that would fail every item in a batch.
// A missing session credential is fatal before dispatch unless anonymous
// access is explicitly allowed.
func (c *Config) Validate() error {
	if c.Instagram.SessionCookie == "" && !c.Instagram.AllowAnonymous {
		return eris.New("config: instagram.session_cookie is required (set GRAMSCOPE_INSTAGRAM_SESSION_COOKIE or pass --allow-anonymous)")
	}
	if c.Fetch.Concurrency < 1 {
		return eris.Errorf("config: fetch.concurrency must be at least 1, got %d", c.Fetch.Concurrency)
	}
	if c.Fetch.MaxAttempts < 1 {
		return eris.Errorf("config: fetch.max_attempts must be at least 1, got %d", c.Fetch.MaxAttempts)
	}
	if c.Fetch.BackoffBaseSecs <= 0 {
		return eris.Errorf("config: fetch.backoff_base_secs must be positive, got %v", c.Fetch.BackoffBaseSecs)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
