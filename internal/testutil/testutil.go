// Package testutil provides shared test helpers for config files and a fake spreadsheet feed.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// FeedHeader is the header row of the feed.
const FeedHeader = "id,term,pronunciation,translation_a,translation_b,category\n"

// SampleFeed has the entries a, b, and c. Only b matches "cat".
const SampleFeed = FeedHeader +
	"a,aqrm,a-qrm,บ้าน,House,Home\n" +
	"b,haq,haq,แมว,Cat,Animal\n" +
	"c,ba,ba,ข้าว,Rice,Food\n"

// FeedServer serves a CSV feed whose body and status can be changed during a test.
type FeedServer struct {
	*httptest.Server

	mu       sync.Mutex
	body     string
	status   int
	requests int
}

// NewFeedServer starts a feed server that is closed when the test ends.
func NewFeedServer(t *testing.T, body string) *FeedServer {
	t.Helper()

	feed := &FeedServer{
		body:   body,
		status: http.StatusOK,
	}
	feed.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		feed.mu.Lock()
		feed.requests++
		body, status := feed.body, feed.status
		feed.mu.Unlock()

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(feed.Close)
	return feed
}

// FeedURL is the URL of the published CSV.
func (f *FeedServer) FeedURL() string {
	return f.URL + "/spreadsheets/d/e/test/pub?output=csv"
}

// Host is the host:port of the server, used as the network-first host.
func (f *FeedServer) Host() string {
	u, err := url.Parse(f.URL)
	if err != nil {
		panic(err)
	}
	return u.Host
}

func (f *FeedServer) SetResponse(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.body = body
}

func (f *FeedServer) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

// SetupTestConfig creates a config file whose data directories live under tmpDir.
// An empty feedURL disables syncing. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string, feedURL string) string {
	t.Helper()

	dirs := []string{"bookmarks", "cache"}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, d), 0755))
	}

	configContent := fmt.Sprintf(`feed:
  url: %q
  timeout: 5s
  max_retry_attempts: 1
  retry_delay: 10ms
bookmarks:
  driver: file
  directory: %s
  key: offlinedict_bookmarks
cache:
  name: offlinedict
  version: v1
  directory: %s
network:
  interval: 1m
templates:
  bookmarks_markdown: %s
`,
		feedURL,
		filepath.Join(tmpDir, "bookmarks"),
		filepath.Join(tmpDir, "cache"),
		filepath.Join(tmpDir, "bookmarks.md.go.tmpl"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}
