package assetcache

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidTransition is returned when a lifecycle step is called in the wrong state.
var ErrInvalidTransition = errors.New("invalid worker state transition")

// ErrNoCachedResponse is returned when the network failed and nothing was cached for the URL.
var ErrNoCachedResponse = errors.New("no cached response")

// CacheInstallError lists the manifest assets that could not be cached.
// The worker stays uninstalled and Install can be called again.
type CacheInstallError struct {
	Generation string
	Failed     map[string]error
}

func (e *CacheInstallError) Error() string {
	urls := make([]string, 0, len(e.Failed))
	for url := range e.Failed {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	reasons := make([]string, 0, len(urls))
	for _, url := range urls {
		reasons = append(reasons, fmt.Sprintf("%s: %v", url, e.Failed[url]))
	}
	return fmt.Sprintf("install %s: %d asset(s) failed: %s", e.Generation, len(urls), strings.Join(reasons, "; "))
}
