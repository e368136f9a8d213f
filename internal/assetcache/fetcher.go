package assetcache

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"
)

//go:generate mockgen -source=fetcher.go -destination=../mocks/assetcache/mock_fetcher.go -package=mock_assetcache

// Fetcher performs a single GET against the network. Non-2xx statuses are returned as responses, not errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// HTTPFetcher fetches with its own client, never through a Worker.
type HTTPFetcher struct {
	httpClient *resty.Client
	now        func() time.Time
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	client := resty.New()
	client.SetRetryCount(0)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPFetcher{
		httpClient: client,
		now:        time.Now,
	}
}

func (f *HTTPFetcher) Close() error {
	return f.httpClient.Close()
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	response, err := f.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("httpClient.Get(%s) > %w", url, err)
	}

	// The body is already decoded.
	header := response.Header().Clone()
	header.Del("Content-Encoding")
	header.Del("Content-Length")

	return &Response{
		URL:        url,
		StatusCode: response.StatusCode(),
		Header:     header,
		Body:       response.Bytes(),
		StoredAt:   f.now(),
	}, nil
}
