package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			URL:              "",
			NetworkFirstHost: "docs.google.com",
			Timeout:          10 * time.Second,
			MaxRetryAttempts: 3,
			RetryDelay:       time.Second,
		},
		Bookmarks: BookmarksConfig{
			Driver:    "file",
			Directory: filepath.Join("data", "bookmarks"),
			Key:       "offlinedict_bookmarks",
		},
		Cache: CacheConfig{
			Name:      "offlinedict",
			Version:   "v1",
			Directory: filepath.Join("data", "cache"),
		},
		Network: NetworkConfig{
			Interval: 30 * time.Second,
		},
		Server: ServerConfig{
			Address:        ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     3306,
			Database: "offlinedict",
		},
		Templates: TemplatesConfig{
			BookmarksMarkdown: filepath.Join("assets", "templates", "bookmarks.md.go.tmpl"),
		},
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name              string
		configContent     string
		useExplicitPath   bool
		env               map[string]string
		wantErr           bool
		want              func() *Config
		wantErrorContains []string
	}{
		{
			name: "valid config file with custom values",
			configContent: `feed:
  url: https://docs.google.com/spreadsheets/d/abc/export?format=csv
  timeout: 5s
  max_retry_attempts: 5
bookmarks:
  directory: custom/bookmarks
  key: akha_bookmarks
cache:
  name: akha-heritage
  version: v2
  assets:
    - https://cdn.example.com/app.css
  populate_on_miss: true
`,
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Feed.URL = "https://docs.google.com/spreadsheets/d/abc/export?format=csv"
				cfg.Feed.Timeout = 5 * time.Second
				cfg.Feed.MaxRetryAttempts = 5
				cfg.Bookmarks.Directory = "custom/bookmarks"
				cfg.Bookmarks.Key = "akha_bookmarks"
				cfg.Cache.Name = "akha-heritage"
				cfg.Cache.Version = "v2"
				cfg.Cache.Assets = []string{"https://cdn.example.com/app.css"}
				cfg.Cache.PopulateOnMiss = true
				return cfg
			},
		},
		{
			name: "network-first host follows the feed host",
			configContent: `feed:
  url: http://127.0.0.1:8081/feed.csv
`,
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Feed.URL = "http://127.0.0.1:8081/feed.csv"
				cfg.Feed.NetworkFirstHost = "127.0.0.1:8081"
				return cfg
			},
		},
		{
			name: "explicit network-first host",
			configContent: `feed:
  url: https://sheets.example.com/feed.csv
  network_first_host: mirror.example.com
`,
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Feed.URL = "https://sheets.example.com/feed.csv"
				cfg.Feed.NetworkFirstHost = "mirror.example.com"
				return cfg
			},
		},
		{
			name: "invalid YAML format",
			configContent: `feed:
  url: https://example.com
  invalid yaml format here [[[
`,
			wantErr: true,
			wantErrorContains: []string{
				"configuration file found but could not be read",
				"Please check the file format and permissions",
			},
		},
		{
			name: "unknown keys use defaults",
			configContent: `wrong_key:
  some_value: test
`,
			want: defaultConfig,
		},
		{
			name: "explicit config file path",
			configContent: `cache:
  version: v9
`,
			useExplicitPath: true,
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Cache.Version = "v9"
				return cfg
			},
		},
		{
			name:          "feed url from the environment",
			configContent: "",
			env: map[string]string{
				"OFFLINEDICT_FEED_URL": "https://docs.google.com/feed.csv",
			},
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Feed.URL = "https://docs.google.com/feed.csv"
				return cfg
			},
		},
		{
			name: "invalid values are reported",
			configContent: `feed:
  url: not a url
bookmarks:
  driver: redis
cache:
  version: ""
`,
			wantErr: true,
			wantErrorContains: []string{
				"invalid configuration",
				"url must be a valid URL",
				"driver must be one of [file mysql]",
				"version is a required field",
			},
		},
		{
			name: "missing manifest file",
			configContent: `cache:
  manifest_file: /non/existent/manifest.yml
`,
			wantErr: true,
			wantErrorContains: []string{
				"cache.manifest_file must be an existing and readable file",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			var configPath string
			if tt.useExplicitPath {
				configPath = filepath.Join(tempDir, "config.yml")
				err := os.WriteFile(configPath, []byte(tt.configContent), 0644)
				require.NoError(t, err)
			} else {
				if tt.configContent != "" {
					err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(tt.configContent), 0644)
					require.NoError(t, err)
				}
				t.Chdir(tempDir)
			}

			got, err := Load(configPath)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				for _, wantMsg := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), wantMsg)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want(), got)
		})
	}
}

func TestConfig_Validate_CacheSegment(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		{name: "plain", version: "v2"},
		{name: "dotted", version: "2024.10.1"},
		{name: "slash", version: "v1/../bookmarks", wantErr: true},
		{name: "backslash", version: `v1\x`, wantErr: true},
		{name: "parent", version: "..", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Cache.Version = tt.version
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "cache.version must not be empty, '.', '..', or contain a path separator")
		})
	}
}

func TestCacheConfig_Generation(t *testing.T) {
	cfg := CacheConfig{Name: "akha-heritage", Version: "v2"}
	assert.Equal(t, "akha-heritage-v2", cfg.Generation())
}

func TestConfig_Validate_ManifestFile(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "manifest.yml")
	require.NoError(t, os.WriteFile(manifest, []byte("- https://example.com/\n"), 0644))

	cfg := defaultConfig()
	cfg.Cache.ManifestFile = manifest
	assert.NoError(t, cfg.Validate())

	cfg.Cache.ManifestFile = filepath.Dir(manifest)
	assert.Error(t, cfg.Validate())
}
