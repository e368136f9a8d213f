// Package sheet reads the dictionary feed exported from a spreadsheet as CSV.
package sheet

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"resty.dev/v3"

	"github.com/at-ishikawa/offlinedict/internal/dictionary"
)

//go:generate mockgen -source=reader.go -destination=../../mocks/sheet/mock_source.go -package=mock_sheet

// Source fetches the whole word list. Implementations make exactly one attempt per call.
type Source interface {
	FetchEntries(ctx context.Context) (dictionary.Collection, error)
}

type Reader struct {
	httpClient *resty.Client
	url        string
}

var _ Source = (*Reader)(nil)

// ReaderOption customizes the HTTP client of a Reader.
type ReaderOption func(*resty.Client)

// WithTransport routes feed requests through transport, e.g. the asset cache worker.
func WithTransport(transport http.RoundTripper) ReaderOption {
	return func(client *resty.Client) {
		client.SetTransport(transport)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ReaderOption {
	return func(client *resty.Client) {
		client.SetTimeout(timeout)
	}
}

func NewReader(url string, opts ...ReaderOption) *Reader {
	client := resty.New()
	client.SetHeader("Accept", "text/csv")
	// Retries are the caller's decision.
	client.SetRetryCount(0)
	for _, opt := range opts {
		opt(client)
	}

	return &Reader{
		httpClient: client,
		url:        url,
	}
}

func (r *Reader) Close() error {
	return r.httpClient.Close()
}

// URL returns the feed URL.
func (r *Reader) URL() string {
	return r.url
}

// FetchEntries downloads and parses the feed.
// It returns *dictionary.FetchError on transport failures or a non-2xx status, and *dictionary.ParseError on a malformed table.
func (r *Reader) FetchEntries(ctx context.Context) (dictionary.Collection, error) {
	response, err := r.httpClient.R().
		SetContext(ctx).
		Get(r.url)
	if err != nil {
		return nil, &dictionary.FetchError{URL: r.url, Err: err}
	}
	if response.StatusCode() < http.StatusOK || response.StatusCode() >= http.StatusMultipleChoices {
		return nil, &dictionary.FetchError{URL: r.url, StatusCode: response.StatusCode()}
	}

	return Parse(bytes.NewReader(response.Bytes()))
}
