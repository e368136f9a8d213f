package testutil

import (
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/offlinedict/internal/config"
)

func TestSetupTestConfig(t *testing.T) {
	tests := []struct {
		name                 string
		feedURL              string
		wantNetworkFirstHost string
	}{
		{
			name:                 "with feed",
			feedURL:              "http://127.0.0.1:8081/pub?output=csv",
			wantNetworkFirstHost: "127.0.0.1:8081",
		},
		{
			name:                 "without feed",
			wantNetworkFirstHost: "docs.google.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			got := SetupTestConfig(t, tmpDir, tt.feedURL)
			assert.Equal(t, filepath.Join(tmpDir, "config.yml"), got)

			cfg, err := config.Load(got)
			require.NoError(t, err)
			assert.Equal(t, tt.feedURL, cfg.Feed.URL)
			assert.Equal(t, tt.wantNetworkFirstHost, cfg.Feed.NetworkFirstHost)
			assert.Equal(t, filepath.Join(tmpDir, "bookmarks"), cfg.Bookmarks.Directory)
			assert.Equal(t, filepath.Join(tmpDir, "cache"), cfg.Cache.Directory)
		})
	}
}

func TestFeedServer(t *testing.T) {
	feed := NewFeedServer(t, SampleFeed)

	get := func() (int, string) {
		response, err := http.Get(feed.FeedURL())
		require.NoError(t, err)
		defer func() {
			_ = response.Body.Close()
		}()
		body, err := io.ReadAll(response.Body)
		require.NoError(t, err)
		return response.StatusCode, string(body)
	}

	status, body := get()
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, SampleFeed, body)

	feed.SetResponse(http.StatusInternalServerError, "")
	status, _ = get()
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, 2, feed.Requests())
	assert.NotEmpty(t, feed.Host())
}
