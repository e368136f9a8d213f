package assetcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name: "asset list",
			content: `assets:
  - https://example.com/
  - https://example.com/index.html
`,
			want: []string{"https://example.com/", "https://example.com/index.html"},
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
		{
			name:    "invalid yaml",
			content: "assets: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "manifest.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			got, err := LoadManifest(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yml"))
		assert.Error(t, err)
	})
}

func TestMergeManifest(t *testing.T) {
	tests := []struct {
		name    string
		lists   [][]string
		want    []string
		wantErr bool
	}{
		{
			name: "keeps order and drops duplicates",
			lists: [][]string{
				{"https://example.com/", "https://example.com/app.js"},
				{"https://example.com/app.js#main", "https://cdn.example.com/style.css"},
			},
			want: []string{"https://example.com/", "https://example.com/app.js", "https://cdn.example.com/style.css"},
		},
		{
			name:  "nothing",
			lists: nil,
			want:  []string{},
		},
		{
			name:    "relative url",
			lists:   [][]string{{"/index.html"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MergeManifest(tt.lists...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
