// Package network tracks whether the feed is reachable and notifies subscribers on transitions.
package network

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"resty.dev/v3"
)

type MonitorOption func(*Monitor)

// WithTransport sets the transport used to probe.
func WithTransport(transport http.RoundTripper) MonitorOption {
	return func(m *Monitor) {
		m.httpClient.SetTransport(transport)
	}
}

// WithTimeout sets the timeout of a single probe.
func WithTimeout(timeout time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.httpClient.SetTimeout(timeout)
	}
}

// Monitor probes a URL on an interval. Any HTTP response counts as online;
// only a transport failure counts as offline. The monitor starts online.
type Monitor struct {
	httpClient *resty.Client
	probeURL   string
	interval   time.Duration

	mu          sync.Mutex
	online      bool
	nextID      int
	subscribers map[int]func(online bool)
}

func NewMonitor(probeURL string, interval time.Duration, opts ...MonitorOption) *Monitor {
	client := resty.New()
	client.SetRetryCount(0)

	m := &Monitor{
		httpClient:  client,
		probeURL:    probeURL,
		interval:    interval,
		online:      true,
		subscribers: make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) Close() error {
	return m.httpClient.Close()
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscription is released with Unsubscribe, which is safe to call more than once.
type Subscription struct {
	once        sync.Once
	unsubscribe func()
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(s.unsubscribe)
}

// Subscribe registers fn for online/offline transitions.
// fn is called synchronously from the goroutine that observed the transition.
func (m *Monitor) Subscribe(fn func(online bool)) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn

	return &Subscription{
		unsubscribe: func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subscribers, id)
		},
	}
}

// SetOnline records the status and notifies subscribers if it changed.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subscribers := make([]func(bool), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subscribers = append(subscribers, fn)
	}
	m.mu.Unlock()

	slog.Info("network status changed", "online", online)
	for _, fn := range subscribers {
		fn(online)
	}
}

// Probe sends one HEAD request and updates the status.
func (m *Monitor) Probe(ctx context.Context) bool {
	_, err := m.httpClient.R().
		SetContext(ctx).
		Head(m.probeURL)
	if err != nil && ctx.Err() != nil {
		return m.Online()
	}
	if err != nil {
		slog.Debug("probe failed", "url", m.probeURL, "error", err)
	}
	online := err == nil
	m.SetOnline(online)
	return online
}

// Run probes immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}
