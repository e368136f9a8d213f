package assetcache

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

type manifestFile struct {
	Assets []string `yaml:"assets"`
}

// LoadManifest reads the list of asset URLs to precache from a YAML file:
//
//	assets:
//	  - https://example.com/index.html
func LoadManifest(path string) ([]string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}

	var manifest manifestFile
	if err := yaml.Unmarshal(contents, &manifest); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal(%s) > %w", path, err)
	}
	return manifest.Assets, nil
}

// MergeManifest joins lists of asset URLs in order and drops duplicates.
// Every URL must be absolute.
func MergeManifest(lists ...[]string) ([]string, error) {
	seen := make(map[string]bool)
	result := make([]string, 0)
	for _, list := range lists {
		for _, rawURL := range list {
			key, err := canonicalURL(rawURL)
			if err != nil {
				return nil, err
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			result = append(result, key)
		}
	}
	return result, nil
}

// canonicalURL is the cache key of rawURL. Fragments never reach the network, so they are dropped.
func canonicalURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("url.Parse(%s) > %w", rawURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", rawURL)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}
