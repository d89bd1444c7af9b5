package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sevigo/dollar-ci/internal/logger"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the application's configuration values.
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	GitHub   GitHubConfig  `mapstructure:"github"`
	Checks   ChecksConfig  `mapstructure:"checks"`
	Database DBConfig      `mapstructure:"database"`
	Notify   NotifyConfig  `mapstructure:"notify"`
	Logging  logger.Config `mapstructure:"logging"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// GitHubConfig is the App identity and API settings shared by the assertion
// issuer, the token broker and the check-run client.
type GitHubConfig struct {
	AppID          int64         `mapstructure:"app_id"`
	AppName        string        `mapstructure:"app_name"`
	Company        string        `mapstructure:"company"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	PrivateKey     string        `mapstructure:"private_key"`
	WebhookSecret  string        `mapstructure:"webhook_secret"`
	APIBaseURL     string        `mapstructure:"api_base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	CacheTokens    bool          `mapstructure:"cache_tokens"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ChecksConfig controls what happens after a check run has been started.
type ChecksConfig struct {
	AutoComplete bool `mapstructure:"auto_complete"`
	MaxWorkers   int  `mapstructure:"max_workers"`
	QueueSize    int  `mapstructure:"queue_size"`
}

// DBConfig describes the optional Postgres database used to record outcomes.
// An empty Host disables it.
type DBConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

func (c DBConfig) Enabled() bool { return c.Host != "" }

// NotifyConfig describes the optional AMQP queue outcomes are published to.
type NotifyConfig struct {
	AMQPURL string `mapstructure:"amqp_url"`
	Queue   string `mapstructure:"queue"`
}

func (c NotifyConfig) Enabled() bool { return c.AMQPURL != "" }

var keys = []string{
	"server.port",
	"github.app_id", "github.app_name", "github.company", "github.private_key_path",
	"github.private_key", "github.webhook_secret", "github.api_base_url", "github.user_agent",
	"github.cache_tokens", "github.request_timeout",
	"checks.auto_complete", "checks.max_workers", "checks.queue_size",
	"database.host", "database.port", "database.username", "database.password",
	"database.database", "database.sslmode", "database.conn_max_lifetime", "database.conn_max_idle_time",
	"notify.amqp_url", "notify.queue",
	"logging.level", "logging.format", "logging.output",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")

	v.SetDefault("github.app_name", "dollar-ci")
	v.SetDefault("github.company", "dollar-ci")
	v.SetDefault("github.private_key_path", "keys/dollar-ci.private-key.pem")
	v.SetDefault("github.api_base_url", "https://api.github.com/")
	v.SetDefault("github.user_agent", "dollar-ci")
	v.SetDefault("github.cache_tokens", false)
	v.SetDefault("github.request_timeout", 30*time.Second)

	v.SetDefault("checks.auto_complete", true)
	v.SetDefault("checks.max_workers", 5)
	v.SetDefault("checks.queue_size", 100)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)

	v.SetDefault("notify.queue", "check_run_outcomes")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// LoadConfig reads configuration from a .env file, an optional config.yaml and
// environment variables, in increasing order of precedence. Environment
// variables use the upper-cased key with dots replaced by underscores, so
// github.app_id is read from GITHUB_APP_ID.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about, which
	// excludes keys with neither a default nor a config file entry.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	if c.GitHub.AppID <= 0 {
		return fmt.Errorf("%w: GITHUB_APP_ID must be set", ErrInvalidConfig)
	}
	if c.GitHub.AppName == "" {
		return fmt.Errorf("%w: GITHUB_APP_NAME must not be empty", ErrInvalidConfig)
	}
	if c.GitHub.PrivateKey == "" && c.GitHub.PrivateKeyPath == "" {
		return fmt.Errorf("%w: one of GITHUB_PRIVATE_KEY or GITHUB_PRIVATE_KEY_PATH must be set", ErrInvalidConfig)
	}
	u, err := url.Parse(c.GitHub.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: GITHUB_API_BASE_URL %q is not an absolute URL", ErrInvalidConfig, c.GitHub.APIBaseURL)
	}
	if c.GitHub.RequestTimeout <= 0 {
		return fmt.Errorf("%w: GITHUB_REQUEST_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.Checks.MaxWorkers <= 0 {
		return fmt.Errorf("%w: CHECKS_MAX_WORKERS must be positive", ErrInvalidConfig)
	}
	if c.Checks.QueueSize <= 0 {
		return fmt.Errorf("%w: CHECKS_QUEUE_SIZE must be positive", ErrInvalidConfig)
	}
	return nil
}
