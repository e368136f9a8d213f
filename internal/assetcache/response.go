// Package assetcache keeps a generational cache of static assets and the last feed response,
// and serves intercepted requests with a network-first or cache-first strategy.
package assetcache

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Response is a cached response keyed by its request URL.
type Response struct {
	URL        string      `json:"url"`
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	StoredAt   time.Time   `json:"stored_at"`
}

// OK reports whether the status is 2xx. Only OK responses are cached.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Clone returns a deep copy so cached bytes are never shared with callers.
func (r *Response) Clone() *Response {
	return &Response{
		URL:        r.URL,
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
		Body:       bytes.Clone(r.Body),
		StoredAt:   r.StoredAt,
	}
}

// HTTPResponse converts r into a response for req.
func (r *Response) HTTPResponse(req *http.Request) *http.Response {
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Length", strconv.Itoa(len(r.Body)))
	return &http.Response{
		Status:        strconv.Itoa(r.StatusCode) + " " + http.StatusText(r.StatusCode),
		StatusCode:    r.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}
