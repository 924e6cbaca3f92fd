package payments

import (
	"sync"
	"time"

	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// Registry keeps one DetailLoader per browser so switching appointments in
// one browser never cancels another browser's load.
type Registry struct {
	fetcher DetailFetcher
	logger  *logging.Logger

	mu      sync.Mutex
	loaders map[string]*DetailLoader
	touched map[string]time.Time
	now     func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry(fetcher DetailFetcher, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		fetcher: fetcher,
		logger:  logger,
		loaders: make(map[string]*DetailLoader),
		touched: make(map[string]time.Time),
		now:     time.Now,
	}
}

// For returns the loader for browserID, creating it on first use.
func (r *Registry) For(browserID string) *DetailLoader {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loaders[browserID]
	if !ok {
		l = NewDetailLoader(r.fetcher, r.logger.With("browser_id", browserID))
		r.loaders[browserID] = l
	}
	r.touched[browserID] = r.now()
	return l
}

// Evict closes and forgets loaders unused for longer than idle and returns
// how many went.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	var stale []*DetailLoader
	r.mu.Lock()
	for id, at := range r.touched {
		if at.Before(cutoff) {
			stale = append(stale, r.loaders[id])
			delete(r.loaders, id)
			delete(r.touched, id)
		}
	}
	r.mu.Unlock()
	for _, l := range stale {
		l.Close()
	}
	return len(stale)
}

// Release closes and forgets the loader for browserID.
func (r *Registry) Release(browserID string) {
	r.mu.Lock()
	l, ok := r.loaders[browserID]
	delete(r.loaders, browserID)
	delete(r.touched, browserID)
	r.mu.Unlock()
	if ok {
		l.Close()
	}
}

// Close cancels every in-flight load.
func (r *Registry) Close() {
	r.mu.Lock()
	loaders := r.loaders
	r.loaders = make(map[string]*DetailLoader)
	r.touched = make(map[string]time.Time)
	r.mu.Unlock()
	for _, l := range loaders {
		l.Close()
	}
}
