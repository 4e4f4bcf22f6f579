// Package connectivity observes whether the remote service is reachable.
// The monitor is a pure signal source: a stale "online" reading is fine,
// because any resulting remote-call failure is surfaced by the remote
// adapter, not here.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Monitor exposes the current reachability signal. Listeners fire on
// transition edges only (online->offline, offline->online), never on
// steady state.
type Monitor interface {
	Online() bool
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// Prober answers a single reachability question. Probes must not block
// longer than their context allows.
type Prober interface {
	Probe(ctx context.Context) bool
}

// HTTPProber considers the remote reachable when a HEAD request to its
// health endpoint completes with any HTTP status.
type HTTPProber struct {
	URL  string
	HTTP *http.Client
}

func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		URL:  url,
		HTTP: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// PollingMonitor polls a Prober at a fixed interval and notifies
// subscribers on edges.
type PollingMonitor struct {
	prober   Prober
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	online    bool
	listeners map[int]func(bool)
	nextID    int

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPollingMonitor(prober Prober, interval time.Duration, logger *zap.Logger) *PollingMonitor {
	return &PollingMonitor{
		prober:    prober,
		interval:  interval,
		logger:    logger,
		listeners: make(map[int]func(bool)),
	}
}

func (m *PollingMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *PollingMonitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Start begins polling. The initial probe establishes the baseline state
// without firing listeners.
func (m *PollingMonitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	m.mu.Lock()
	m.online = m.prober.Probe(ctx)
	m.mu.Unlock()

	go m.loop(ctx)
}

func (m *PollingMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}

func (m *PollingMonitor) loop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.observe(m.prober.Probe(ctx))
		}
	}
}

func (m *PollingMonitor) observe(online bool) {
	m.mu.Lock()
	if online == m.online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	m.logger.Info("connectivity changed", zap.Bool("online", online))
	for _, fn := range fns {
		fn(online)
	}
}

// ManualMonitor is a settable monitor for composition in tests and for
// environments where reachability is driven externally.
type ManualMonitor struct {
	mu        sync.Mutex
	online    bool
	listeners map[int]func(bool)
	nextID    int
}

func NewManualMonitor(online bool) *ManualMonitor {
	return &ManualMonitor{
		online:    online,
		listeners: make(map[int]func(bool)),
	}
}

func (m *ManualMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *ManualMonitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Set flips the state, firing listeners only on an actual edge.
func (m *ManualMonitor) Set(online bool) {
	m.mu.Lock()
	if online == m.online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}
