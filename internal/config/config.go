package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Feed      FeedConfig      `mapstructure:"feed"`
	Bookmarks BookmarksConfig `mapstructure:"bookmarks"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Network   NetworkConfig   `mapstructure:"network"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Templates TemplatesConfig `mapstructure:"templates"`
}

// defaultNetworkFirstHost publishes the spreadsheet when no feed URL is configured.
const defaultNetworkFirstHost = "docs.google.com"

// FeedConfig configures the spreadsheet feed. An empty URL disables syncing.
// NetworkFirstHost defaults to the host of URL.
type FeedConfig struct {
	URL              string        `mapstructure:"url" validate:"omitempty,url"`
	NetworkFirstHost string        `mapstructure:"network_first_host" validate:"required,hostname_rfc1123|hostname_port"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxRetryAttempts uint          `mapstructure:"max_retry_attempts"`
	RetryDelay       time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
}

type BookmarksConfig struct {
	Driver    string `mapstructure:"driver" validate:"oneof=file mysql"`
	Directory string `mapstructure:"directory" validate:"required_if=Driver file"`
	Key       string `mapstructure:"key" validate:"required"`
}

type CacheConfig struct {
	Name           string   `mapstructure:"name" validate:"required,cache_segment"`
	Version        string   `mapstructure:"version" validate:"required,cache_segment"`
	Directory      string   `mapstructure:"directory"`
	ManifestFile   string   `mapstructure:"manifest_file" validate:"omitempty,file"`
	Assets         []string `mapstructure:"assets" validate:"dive,url"`
	PopulateOnMiss bool     `mapstructure:"populate_on_miss"`
}

// Generation is the cache store name of the current deploy.
func (c CacheConfig) Generation() string {
	return c.Name + "-" + c.Version
}

type NetworkConfig struct {
	ProbeURL string        `mapstructure:"probe_url" validate:"omitempty,url"`
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

type ServerConfig struct {
	Address        string   `mapstructure:"address" validate:"required"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	Database        string            `mapstructure:"database"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime"`
}

type TemplatesConfig struct {
	BookmarksMarkdown string `mapstructure:"bookmarks_markdown"`
}

func Load(configFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/offlinedict")
	}

	v.SetDefault("feed.url", "")
	v.SetDefault("feed.network_first_host", "")
	v.SetDefault("feed.timeout", 10*time.Second)
	v.SetDefault("feed.max_retry_attempts", 3)
	v.SetDefault("feed.retry_delay", time.Second)
	v.SetDefault("bookmarks.driver", "file")
	v.SetDefault("bookmarks.directory", filepath.Join("data", "bookmarks"))
	v.SetDefault("bookmarks.key", "offlinedict_bookmarks")
	v.SetDefault("cache.name", "offlinedict")
	v.SetDefault("cache.version", "v1")
	v.SetDefault("cache.directory", filepath.Join("data", "cache"))
	v.SetDefault("cache.manifest_file", "")
	v.SetDefault("cache.populate_on_miss", false)
	v.SetDefault("network.probe_url", "")
	v.SetDefault("network.interval", 30*time.Second)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "offlinedict")
	v.SetDefault("templates.bookmarks_markdown", filepath.Join("assets", "templates", "bookmarks.md.go.tmpl"))

	if err := v.BindEnv("feed.url", "OFFLINEDICT_FEED_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind OFFLINEDICT_FEED_URL environment variable: %w", err)
	}
	if err := v.BindEnv("database.username", "OFFLINEDICT_DATABASE_USERNAME"); err != nil {
		return nil, fmt.Errorf("failed to bind OFFLINEDICT_DATABASE_USERNAME environment variable: %w", err)
	}
	if err := v.BindEnv("database.password", "OFFLINEDICT_DATABASE_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind OFFLINEDICT_DATABASE_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	cfg.Feed.resolveNetworkFirstHost()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *FeedConfig) resolveNetworkFirstHost() {
	if c.NetworkFirstHost != "" {
		return
	}
	c.NetworkFirstHost = defaultNetworkFirstHost
	if c.URL == "" {
		return
	}
	if u, err := url.Parse(c.URL); err == nil && u.Host != "" {
		c.NetworkFirstHost = u.Host
	}
}

// Validate checks the configuration and returns a readable message for every invalid field.
func (cfg *Config) Validate() error {
	validate, trans, err := newValidator()
	if err != nil {
		return fmt.Errorf("newValidator() > %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return fmt.Errorf("validate.Struct() > %w", err)
		}
		messages := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			messages = append(messages, fieldErr.Translate(trans))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
	}
	return nil
}
