// Package tour tracks the guided product tour for a browser session.
package tour

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrTourActive is returned by Start while another tour is running.
	ErrTourActive = errors.New("tour: already active")
	// ErrNameRequired is returned by Start for a blank tour name.
	ErrNameRequired = errors.New("tour: name required")
)

// Status is a snapshot of the controller.
type Status struct {
	Active    bool      `json:"active"`
	Name      string    `json:"name,omitempty"`
	StartedAt time.Time `json:"startedAt,omitempty"`
}

// Controller owns the single "tour active" flag for one page.
type Controller struct {
	mu        sync.Mutex
	now       func() time.Time
	name      string
	startedAt time.Time
	hooks     []func()
}

// NewController returns an idle controller.
func NewController() *Controller {
	return &Controller{now: time.Now}
}

// Start marks the tour name as running.
func (c *Controller) Start(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.name != "" {
		return ErrTourActive
	}
	c.name = name
	c.startedAt = c.now()
	return nil
}

// OnDestroy registers fn to run when the current tour is destroyed. Hooks
// registered while idle are dropped.
func (c *Controller) OnDestroy(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.name == "" {
		return
	}
	c.hooks = append(c.hooks, fn)
}

// Destroy ends the running tour and runs its hooks. It is a no-op when idle.
func (c *Controller) Destroy() {
	c.mu.Lock()
	hooks := c.hooks
	c.hooks = nil
	c.name = ""
	c.startedAt = time.Time{}
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Active reports whether a tour is running.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name != ""
}

// Status returns the current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{Active: c.name != "", Name: c.name, StartedAt: c.startedAt}
}

type ctxKey struct{}

// WithController stores c in context.
func WithController(ctx context.Context, c *Controller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the controller attached by WithController.
func FromContext(ctx context.Context) (*Controller, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Controller)
	return c, ok && c != nil
}

// Registry holds one controller per browser id.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*registryEntry
	now         func() time.Time
}

type registryEntry struct {
	controller *Controller
	touched    time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*registryEntry), now: time.Now}
}

// Get returns the controller for browserID, creating it on first use.
func (r *Registry) Get(browserID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.controllers[browserID]
	if !ok {
		e = &registryEntry{controller: NewController()}
		r.controllers[browserID] = e
	}
	e.touched = r.now()
	return e.controller
}

// Evict destroys and removes controllers untouched for longer than idle and
// returns how many went.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	var stale []*Controller
	r.mu.Lock()
	for id, e := range r.controllers {
		if e.touched.Before(cutoff) {
			stale = append(stale, e.controller)
			delete(r.controllers, id)
		}
	}
	r.mu.Unlock()
	for _, c := range stale {
		c.Destroy()
	}
	return len(stale)
}
