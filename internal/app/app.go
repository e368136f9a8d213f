// Package app wires the configured components together for the CLI and the server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/offlinedict/internal/assetcache"
	"github.com/at-ishikawa/offlinedict/internal/bookmark"
	"github.com/at-ishikawa/offlinedict/internal/catalog"
	"github.com/at-ishikawa/offlinedict/internal/config"
	"github.com/at-ishikawa/offlinedict/internal/database"
	"github.com/at-ishikawa/offlinedict/internal/dictionary/sheet"
	"github.com/at-ishikawa/offlinedict/internal/metrics"
	"github.com/at-ishikawa/offlinedict/internal/network"
	"github.com/at-ishikawa/offlinedict/internal/server"
	"github.com/at-ishikawa/offlinedict/internal/storage"
)

type Options struct {
	// MissPolicy overrides cache.populate_on_miss when set.
	MissPolicy assetcache.MissPolicy
	// Registerer receives the metrics collectors. Nil disables metrics.
	Registerer prometheus.Registerer
}

type App struct {
	Config    *config.Config
	Worker    *assetcache.Worker
	Store     *catalog.Store
	Bookmarks *bookmark.Persistence
	// Monitor is nil when network.probe_url is empty.
	Monitor  *network.Monitor
	Recorder *metrics.Recorder

	closers []func() error
}

// New builds every component from cfg. Nothing touches the network until Start.
func New(cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	if opts.Registerer != nil {
		recorder, err := metrics.NewRecorder(opts.Registerer)
		if err != nil {
			return nil, fmt.Errorf("metrics.NewRecorder() > %w", err)
		}
		a.Recorder = recorder
	}

	kv, err := a.newKeyValueStore()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Bookmarks = bookmark.NewPersistence(kv, cfg.Bookmarks.Key)

	worker, err := a.newWorker(opts.MissPolicy)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Worker = worker

	var source sheet.Source
	if cfg.Feed.URL != "" {
		reader := sheet.NewReader(cfg.Feed.URL,
			sheet.WithTransport(worker),
			sheet.WithTimeout(cfg.Feed.Timeout),
		)
		a.closers = append(a.closers, reader.Close)
		source = reader
	}
	a.Store = catalog.NewStore(source, catalog.WithRecorder(a.Recorder))

	if cfg.Network.ProbeURL != "" {
		monitor := network.NewMonitor(cfg.Network.ProbeURL, cfg.Network.Interval,
			network.WithTimeout(cfg.Feed.Timeout),
		)
		a.closers = append(a.closers, monitor.Close)
		a.Monitor = monitor
	}
	return a, nil
}

func (a *App) newKeyValueStore() (storage.KeyValueStore, error) {
	switch a.Config.Bookmarks.Driver {
	case "mysql":
		db, err := database.Open(a.Config.Database)
		if err != nil {
			return nil, fmt.Errorf("database.Open() > %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := database.Migrate(context.Background(), db); err != nil {
			return nil, fmt.Errorf("database.Migrate() > %w", err)
		}
		return storage.NewDBStorage(db), nil
	default:
		return storage.NewFileStorage(a.Config.Bookmarks.Directory), nil
	}
}

func (a *App) newWorker(missPolicy assetcache.MissPolicy) (*assetcache.Worker, error) {
	cfg := a.Config.Cache

	manifest := cfg.Assets
	if cfg.ManifestFile != "" {
		assets, err := assetcache.LoadManifest(cfg.ManifestFile)
		if err != nil {
			return nil, fmt.Errorf("assetcache.LoadManifest() > %w", err)
		}
		manifest, err = assetcache.MergeManifest(cfg.Assets, assets)
		if err != nil {
			return nil, fmt.Errorf("assetcache.MergeManifest() > %w", err)
		}
	}

	var cacheStorage assetcache.Storage = assetcache.NewMemoryStorage()
	if cfg.Directory != "" {
		cacheStorage = assetcache.NewDirStorage(cfg.Directory)
	}

	if missPolicy == "" {
		missPolicy = assetcache.MissPassthrough
		if cfg.PopulateOnMiss {
			missPolicy = assetcache.MissPopulate
		}
	}

	fetcher := assetcache.NewHTTPFetcher(a.Config.Feed.Timeout)
	a.closers = append(a.closers, fetcher.Close)

	worker, err := assetcache.NewWorker(cfg.Generation(), manifest, cacheStorage, fetcher,
		assetcache.WithNetworkFirstHost(a.Config.Feed.NetworkFirstHost),
		assetcache.WithMissPolicy(missPolicy),
		assetcache.WithRecorder(a.Recorder),
	)
	if err != nil {
		return nil, fmt.Errorf("assetcache.NewWorker() > %w", err)
	}
	return worker, nil
}

// Start installs and activates the cache worker, retrying a failed install.
// If it still fails, requests go straight to the network and the error is returned for the caller to report.
func (a *App) Start(ctx context.Context) error {
	attempts := a.Config.Feed.MaxRetryAttempts
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			err := a.Worker.Install(ctx)
			var installErr *assetcache.CacheInstallError
			if err != nil && !errors.As(err, &installErr) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(a.Config.Feed.RetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= attempts {
				return
			}
			slog.Default().Info("retrying cache install",
				"attempt", n+1,
				"error", err,
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("worker.Install() > %w", err)
	}
	if err := a.Worker.Activate(ctx); err != nil {
		return fmt.Errorf("worker.Activate() > %w", err)
	}
	return nil
}

// Sync refreshes the store with the configured retries.
func (a *App) Sync(ctx context.Context) error {
	return catalog.SyncWithRetry(ctx, a.Store, a.Config.Feed.MaxRetryAttempts, a.Config.Feed.RetryDelay)
}

// SyncOnReconnect syncs the store every time the monitor reports the network is back.
// It returns nil when no monitor is configured.
func (a *App) SyncOnReconnect(ctx context.Context) *network.Subscription {
	if a.Monitor == nil {
		return nil
	}
	return a.Monitor.Subscribe(func(online bool) {
		if !online {
			return
		}
		go func() {
			if err := a.Sync(ctx); err != nil {
				slog.Default().Warn("failed to sync after reconnecting", "error", err)
			}
		}()
	})
}

// Handler returns the HTTP API with the caching proxy and, when gatherer is set, /metrics.
func (a *App) Handler(gatherer prometheus.Gatherer) http.Handler {
	opts := []server.Option{
		server.WithWorker(a.Worker),
		server.WithAllowedOrigins(a.Config.Server.AllowedOrigins),
		server.WithSyncTimeout(a.Config.Feed.Timeout * time.Duration(max(a.Config.Feed.MaxRetryAttempts, 1))),
	}
	if a.Monitor != nil {
		opts = append(opts, server.WithConnectivity(a.Monitor))
	}
	if gatherer != nil {
		opts = append(opts, server.WithGatherer(gatherer))
	}
	return h2c.NewHandler(server.New(a.Store, a.Bookmarks, opts...).Handler(), &http2.Server{})
}

// Serve starts the worker, syncs once, and serves the API until ctx is done.
func (a *App) Serve(ctx context.Context, gatherer prometheus.Gatherer) error {
	if err := a.Start(ctx); err != nil {
		slog.Default().Warn("cache worker is not active, requests go to the network", "error", err)
	}

	if a.Monitor != nil {
		subscription := a.SyncOnReconnect(ctx)
		defer subscription.Unsubscribe()
		go func() {
			_ = a.Monitor.Run(ctx)
		}()
	}

	go func() {
		if err := a.Sync(ctx); err != nil {
			slog.Default().Warn("initial sync failed", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              a.Config.Server.Address,
		Handler:           a.Handler(gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Default().Info("starting server", "address", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("httpServer.ListenAndServe() > %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("httpServer.Shutdown() > %w", err)
		}
		return nil
	}
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
