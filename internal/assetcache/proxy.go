package assetcache

import (
	"errors"
	"log/slog"
	"net/http"
)

var skippedHeaders = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
}

// ProxyHandler serves GET /proxy?url=<absolute url> through the worker.
// Only URLs on hosts the worker serves are proxied; any other host is forbidden.
func ProxyHandler(worker *Worker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		target := r.URL.Query().Get("url")
		if target == "" {
			http.Error(w, "url is required", http.StatusBadRequest)
			return
		}
		if _, err := canonicalURL(target); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !worker.Serves(target) {
			slog.Warn("rejected proxy request", "url", target)
			http.Error(w, "host is not allowed", http.StatusForbidden)
			return
		}

		response, err := worker.Intercept(r.Context(), target)
		if err != nil {
			slog.Warn("proxy request failed", "url", target, "error", err)
			status := http.StatusBadGateway
			if errors.Is(err, ErrNoCachedResponse) {
				status = http.StatusGatewayTimeout
			}
			http.Error(w, http.StatusText(status), status)
			return
		}

		for name, values := range response.Header {
			if skippedHeaders[http.CanonicalHeaderKey(name)] {
				continue
			}
			for _, value := range values {
				w.Header().Add(name, value)
			}
		}
		w.WriteHeader(response.StatusCode)
		if _, err := w.Write(response.Body); err != nil {
			slog.Warn("failed to write proxy response", "url", target, "error", err)
		}
	})
}
