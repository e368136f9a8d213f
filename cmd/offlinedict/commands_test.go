package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/offlinedict/internal/assetcache"
	"github.com/at-ishikawa/offlinedict/internal/testutil"
)

func TestSearchCommand(t *testing.T) {
	feed := testutil.NewFeedServer(t, testutil.SampleFeed)
	cfgPath := testutil.SetupTestConfig(t, t.TempDir(), feed.FeedURL())

	tests := []struct {
		name        string
		args        []string
		wantTerms   []string
		unwantTerms []string
	}{
		{
			name:        "query",
			args:        []string{"search", "cat"},
			wantTerms:   []string{"haq"},
			unwantTerms: []string{"aqrm"},
		},
		{
			name:      "no query lists everything",
			args:      []string{"search"},
			wantTerms: []string{"aqrm", "haq", "ba"},
		},
		{
			name:        "category",
			args:        []string{"search", "--category", "Food"},
			wantTerms:   []string{"Rice"},
			unwantTerms: []string{"haq"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runCommand(t, append([]string{"--config", cfgPath}, tt.args...)...)
			require.NoError(t, err)
			for _, term := range tt.wantTerms {
				assert.Contains(t, got, term)
			}
			for _, term := range tt.unwantTerms {
				assert.NotContains(t, got, term)
			}
		})
	}
}

func TestSearchCommand_Offline(t *testing.T) {
	feed := testutil.NewFeedServer(t, testutil.SampleFeed)
	cfgPath := testutil.SetupTestConfig(t, t.TempDir(), feed.FeedURL())

	_, err := runCommand(t, "--config", cfgPath, "sync")
	require.NoError(t, err)

	feed.Close()

	got, err := runCommand(t, "--config", cfgPath, "search", "cat")
	require.NoError(t, err)
	assert.Contains(t, got, "haq")
}

func TestSyncCommand(t *testing.T) {
	t.Run("synced", func(t *testing.T) {
		feed := testutil.NewFeedServer(t, testutil.SampleFeed)
		cfgPath := testutil.SetupTestConfig(t, t.TempDir(), feed.FeedURL())

		got, err := runCommand(t, "--config", cfgPath, "sync")
		require.NoError(t, err)
		assert.Contains(t, got, "Synced 3 entries")
	})

	t.Run("malformed feed", func(t *testing.T) {
		feed := testutil.NewFeedServer(t, "id,term\n")
		cfgPath := testutil.SetupTestConfig(t, t.TempDir(), feed.FeedURL())

		_, err := runCommand(t, "--config", cfgPath, "sync")
		assert.Error(t, err)
	})

	t.Run("no feed", func(t *testing.T) {
		cfgPath := testutil.SetupTestConfig(t, t.TempDir(), "")

		_, err := runCommand(t, "--config", cfgPath, "sync")
		assert.Error(t, err)
	})
}

func TestDailyAndCategoriesCommands(t *testing.T) {
	feed := testutil.NewFeedServer(t, testutil.SampleFeed)
	cfgPath := testutil.SetupTestConfig(t, t.TempDir(), feed.FeedURL())

	got, err := runCommand(t, "--config", cfgPath, "daily")
	require.NoError(t, err)
	assert.Regexp(t, `aqrm|haq|ba`, got)

	got, err = runCommand(t, "--config", cfgPath, "categories")
	require.NoError(t, err)
	assert.Contains(t, got, "Home\nAnimal\nFood\n")
}

func TestBookmarkCommand(t *testing.T) {
	feed := testutil.NewFeedServer(t, testutil.SampleFeed)
	tmpDir := t.TempDir()
	cfgPath := testutil.SetupTestConfig(t, tmpDir, feed.FeedURL())

	got, err := runCommand(t, "--config", cfgPath, "bookmark", "toggle", "a")
	require.NoError(t, err)
	assert.Contains(t, got, "Bookmarked a (1 bookmarks)")

	got, err = runCommand(t, "--config", cfgPath, "bookmark", "toggle", "c")
	require.NoError(t, err)
	assert.Contains(t, got, "Bookmarked c (2 bookmarks)")

	got, err = runCommand(t, "--config", cfgPath, "bookmark", "list")
	require.NoError(t, err)
	assert.Contains(t, got, "aqrm")
	assert.Contains(t, got, "Rice")
	assert.NotContains(t, got, "haq")

	output := filepath.Join(tmpDir, "export", "bookmarks.md")
	got, err = runCommand(t, "--config", cfgPath, "bookmark", "export", "--output", output)
	require.NoError(t, err)
	assert.Contains(t, got, "Exported 2 bookmarks")
	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "## aqrm")
	assert.Contains(t, string(content), "## ba")

	got, err = runCommand(t, "--config", cfgPath, "bookmark", "toggle", "a")
	require.NoError(t, err)
	assert.Contains(t, got, "Removed a (1 bookmarks)")

	_, err = runCommand(t, "--config", cfgPath, "bookmark", "toggle", "a", "--driver", "sqlite")
	assert.Error(t, err)
}

func TestCacheCommand(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := testutil.SetupTestConfig(t, tmpDir, "")
	_, err := assetcache.NewDirStorage(filepath.Join(tmpDir, "cache")).Open(context.Background(), "offlinedict-v0")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "cache", "notes"), 0755))

	got, err := runCommand(t, "--config", cfgPath, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, got, "Current generation: offlinedict-v1")
	assert.Contains(t, got, "offlinedict-v0 (evicted on activate)")

	got, err = runCommand(t, "--config", cfgPath, "cache", "install")
	require.NoError(t, err)
	assert.Contains(t, got, "Installed offlinedict-v1")

	got, err = runCommand(t, "--config", cfgPath, "cache", "activate")
	require.NoError(t, err)
	assert.Contains(t, got, "Activated offlinedict-v1")

	got, err = runCommand(t, "--config", cfgPath, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, got, "* offlinedict-v1")
	assert.NotContains(t, got, "offlinedict-v0")
	assert.NotContains(t, got, "notes")
	assert.DirExists(t, filepath.Join(tmpDir, "cache", "notes"))
}

func TestInstallCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		unwant  []string
		wantErr bool
	}{
		{
			name: "both platforms",
			args: []string{"install"},
			want: []string{"iPhone", "Add to Home Screen", "Android", "Install app"},
		},
		{
			name:   "android",
			args:   []string{"install", "--platform", "android"},
			want:   []string{"Android"},
			unwant: []string{"Safari"},
		},
		{
			name:    "invalid platform",
			args:    []string{"install", "--platform", "windows"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runCommand(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
			for _, unwant := range tt.unwant {
				assert.NotContains(t, got, unwant)
			}
		})
	}
}
