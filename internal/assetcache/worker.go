package assetcache

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"

	"github.com/at-ishikawa/offlinedict/internal/metrics"
)

type State string

const (
	StateNew        State = "new"
	StateInstalling State = "installing"
	StateInstalled  State = "installed"
	StateActivating State = "activating"
	StateActive     State = "active"
)

var stateNames = []string{
	string(StateNew),
	string(StateInstalling),
	string(StateInstalled),
	string(StateActivating),
	string(StateActive),
}

// MissPolicy decides whether a cache-first miss stores the network response.
type MissPolicy string

const (
	MissPassthrough MissPolicy = "passthrough"
	MissPopulate    MissPolicy = "populate"
)

// DefaultNetworkFirstHost serves the published spreadsheet.
const DefaultNetworkFirstHost = "docs.google.com"

const (
	strategyNetworkFirst = "network_first"
	strategyCacheFirst   = "cache_first"
	strategyPassthrough  = "passthrough"
)

type WorkerOption func(*Worker)

// WithNetworkFirstHost sets the host whose requests go to the network before the cache.
func WithNetworkFirstHost(host string) WorkerOption {
	return func(w *Worker) {
		w.networkFirstHost = host
	}
}

func WithMissPolicy(policy MissPolicy) WorkerOption {
	return func(w *Worker) {
		w.missPolicy = policy
	}
}

func WithRecorder(recorder *metrics.Recorder) WorkerOption {
	return func(w *Worker) {
		w.recorder = recorder
	}
}

// WithBaseTransport sets the transport for requests RoundTrip does not intercept.
func WithBaseTransport(transport http.RoundTripper) WorkerOption {
	return func(w *Worker) {
		w.base = transport
	}
}

// Worker owns one cache generation. It moves new -> installing -> installed -> activating -> active,
// and intercepts requests only once active.
type Worker struct {
	generation       string
	manifest         []string
	storage          Storage
	fetcher          Fetcher
	networkFirstHost string
	missPolicy       MissPolicy
	recorder         *metrics.Recorder
	base             http.RoundTripper

	mu    sync.RWMutex
	state State
	cache Cache
}

var _ http.RoundTripper = (*Worker)(nil)

// NewWorker creates a worker for generation. Every manifest URL must be absolute.
func NewWorker(generation string, manifest []string, storage Storage, fetcher Fetcher, opts ...WorkerOption) (*Worker, error) {
	if err := validateCacheName(generation); err != nil {
		return nil, err
	}
	assets, err := MergeManifest(manifest)
	if err != nil {
		return nil, fmt.Errorf("MergeManifest() > %w", err)
	}

	w := &Worker{
		generation:       generation,
		manifest:         assets,
		storage:          storage,
		fetcher:          fetcher,
		networkFirstHost: DefaultNetworkFirstHost,
		missPolicy:       MissPassthrough,
		base:             http.DefaultTransport,
		state:            StateNew,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.recorder.SetWorkerState(string(w.state), stateNames)
	return w, nil
}

func (w *Worker) Generation() string {
	return w.generation
}

func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) transition(from, to State) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.state, to)
	}
	w.setStateLocked(to)
	return nil
}

func (w *Worker) setState(state State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setStateLocked(state)
}

func (w *Worker) setStateLocked(state State) {
	slog.Debug("cache worker state", "generation", w.generation, "from", w.state, "to", state)
	w.state = state
	w.recorder.SetWorkerState(string(state), stateNames)
}

// Install caches every manifest asset into the current generation.
// Nothing is stored unless every asset is fetched with a 2xx status; on failure it returns *CacheInstallError
// and the worker goes back to new. A generation that already holds the whole manifest is reused without fetching.
func (w *Worker) Install(ctx context.Context) error {
	if err := w.transition(StateNew, StateInstalling); err != nil {
		return err
	}

	cache, err := w.storage.Open(ctx, w.generation)
	if err != nil {
		w.setState(StateNew)
		return fmt.Errorf("storage.Open(%s) > %w", w.generation, err)
	}

	if w.isComplete(ctx, cache) {
		slog.Info("reuse installed cache", "generation", w.generation, "assets", len(w.manifest))
		w.finishInstall(cache)
		return nil
	}

	responses, failed := w.fetchManifest(ctx)
	if len(failed) == 0 {
		for _, response := range responses {
			if err := cache.Put(ctx, response); err != nil {
				failed[response.URL] = fmt.Errorf("cache.Put() > %w", err)
			}
		}
	}
	if len(failed) > 0 {
		w.setState(StateNew)
		return &CacheInstallError{Generation: w.generation, Failed: failed}
	}

	slog.Info("installed cache", "generation", w.generation, "assets", len(responses))
	w.finishInstall(cache)
	return nil
}

func (w *Worker) finishInstall(cache Cache) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache = cache
	w.setStateLocked(StateInstalled)
}

func (w *Worker) isComplete(ctx context.Context, cache Cache) bool {
	if len(w.manifest) == 0 {
		return false
	}
	for _, asset := range w.manifest {
		if _, ok, err := cache.Match(ctx, asset); err != nil || !ok {
			return false
		}
	}
	return true
}

func (w *Worker) fetchManifest(ctx context.Context) ([]*Response, map[string]error) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		responses = make([]*Response, len(w.manifest))
		failed    = make(map[string]error)
	)
	for i, asset := range w.manifest {
		wg.Add(1)
		go func() {
			defer wg.Done()

			response, err := w.fetcher.Fetch(ctx, asset)
			if err == nil && !response.OK() {
				err = fmt.Errorf("status code %d", response.StatusCode)
			}
			if err != nil {
				mu.Lock()
				failed[asset] = err
				mu.Unlock()
				return
			}
			responses[i] = response
		}()
	}
	wg.Wait()
	return responses, failed
}

// Activate deletes every cache generation except the current one and starts intercepting.
func (w *Worker) Activate(ctx context.Context) error {
	if err := w.transition(StateInstalled, StateActivating); err != nil {
		return err
	}

	keys, err := w.storage.Keys(ctx)
	if err != nil {
		w.setState(StateInstalled)
		return fmt.Errorf("storage.Keys() > %w", err)
	}

	evicted := 0
	for _, key := range keys {
		if key == w.generation {
			continue
		}
		deleted, err := w.storage.Delete(ctx, key)
		if err != nil {
			w.recorder.ObserveEviction(evicted)
			w.setState(StateInstalled)
			return fmt.Errorf("storage.Delete(%s) > %w", key, err)
		}
		if deleted {
			slog.Info("evicted cache generation", "generation", key)
			evicted++
		}
	}
	w.recorder.ObserveEviction(evicted)

	w.setState(StateActive)
	return nil
}

// Start installs and activates the worker.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.Install(ctx); err != nil {
		return fmt.Errorf("Install() > %w", err)
	}
	if err := w.Activate(ctx); err != nil {
		return fmt.Errorf("Activate() > %w", err)
	}
	return nil
}

// Intercept serves a GET for rawURL. Requests to the network-first host try the network and fall back
// to the current generation; every other request is served from the cache when present.
// Before activation every request goes straight to the network.
func (w *Worker) Intercept(ctx context.Context, rawURL string) (*Response, error) {
	key, err := canonicalURL(rawURL)
	if err != nil {
		return nil, err
	}

	w.mu.RLock()
	state, cache := w.state, w.cache
	w.mu.RUnlock()

	if state != StateActive {
		response, err := w.fetcher.Fetch(ctx, key)
		if err != nil {
			w.recorder.ObserveCacheLookup(strategyPassthrough, "error")
			return nil, fmt.Errorf("fetcher.Fetch(%s) > %w", key, err)
		}
		w.recorder.ObserveCacheLookup(strategyPassthrough, "network")
		return response, nil
	}

	u, err := url.Parse(key)
	if err != nil {
		return nil, fmt.Errorf("url.Parse(%s) > %w", key, err)
	}
	if u.Host == w.networkFirstHost {
		return w.networkFirst(ctx, cache, key)
	}
	return w.cacheFirst(ctx, cache, key)
}

func (w *Worker) networkFirst(ctx context.Context, cache Cache, key string) (*Response, error) {
	response, fetchErr := w.fetcher.Fetch(ctx, key)
	if fetchErr == nil {
		if response.OK() {
			if err := cache.Put(ctx, response); err != nil {
				slog.Warn("failed to cache response", "url", key, "error", err)
			}
		}
		w.recorder.ObserveCacheLookup(strategyNetworkFirst, "network")
		return response, nil
	}

	cached, ok, err := cache.Match(ctx, key)
	if err != nil {
		slog.Warn("failed to read cached response", "url", key, "error", err)
	}
	if ok {
		slog.Debug("network failed, serving cached response", "url", key, "error", fetchErr)
		w.recorder.ObserveCacheLookup(strategyNetworkFirst, "cache")
		return cached, nil
	}
	w.recorder.ObserveCacheLookup(strategyNetworkFirst, "error")
	return nil, fmt.Errorf("%w for %s > %w", ErrNoCachedResponse, key, fetchErr)
}

func (w *Worker) cacheFirst(ctx context.Context, cache Cache, key string) (*Response, error) {
	cached, ok, err := cache.Match(ctx, key)
	if err != nil {
		slog.Warn("failed to read cached response", "url", key, "error", err)
	}
	if ok {
		w.recorder.ObserveCacheLookup(strategyCacheFirst, "cache")
		return cached, nil
	}

	response, err := w.fetcher.Fetch(ctx, key)
	if err != nil {
		w.recorder.ObserveCacheLookup(strategyCacheFirst, "error")
		return nil, fmt.Errorf("fetcher.Fetch(%s) > %w", key, err)
	}
	if w.missPolicy == MissPopulate && response.OK() {
		if err := cache.Put(ctx, response); err != nil {
			slog.Warn("failed to cache response", "url", key, "error", err)
		}
	}
	w.recorder.ObserveCacheLookup(strategyCacheFirst, "network")
	return response, nil
}

// Serves reports whether rawURL is on the network-first host or on a host of a manifest asset.
func (w *Worker) Serves(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Host == w.networkFirstHost {
		return true
	}
	for _, asset := range w.manifest {
		if assetURL, err := url.Parse(asset); err == nil && assetURL.Host == u.Host {
			return true
		}
	}
	return false
}

// RoundTrip intercepts GET requests. Other methods use the base transport.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return w.base.RoundTrip(req)
	}
	response, err := w.Intercept(req.Context(), req.URL.String())
	if err != nil {
		return nil, err
	}
	return response.HTTPResponse(req), nil
}

type Status struct {
	Generation string   `json:"generation"`
	State      State    `json:"state"`
	Caches     []string `json:"caches"`
	Assets     []string `json:"assets"`
}

// Status reports the lifecycle state and the cache generations currently in storage.
func (w *Worker) Status(ctx context.Context) (Status, error) {
	keys, err := w.storage.Keys(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("storage.Keys() > %w", err)
	}
	return Status{
		Generation: w.generation,
		State:      w.State(),
		Caches:     keys,
		Assets:     slices.Clone(w.manifest),
	}, nil
}
