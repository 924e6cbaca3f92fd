// Package countdown drives the payment-hold timer shown while a slot is
// reserved pending payment.
package countdown

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ExpiredLabel is shown once the hold has run out.
const ExpiredLabel = "Đã hết hạn"

// Tick is one countdown update.
type Tick struct {
	Remaining time.Duration `json:"-"`
	Seconds   int64         `json:"remainingSeconds"`
	Label     string        `json:"label"`
	Expired   bool          `json:"expired"`
}

// Countdown counts down to a server-supplied expiry. The server/local clock
// skew is measured once at construction.
type Countdown struct {
	expiresAt time.Time
	skew      time.Duration
	now       func() time.Time
	after     func(time.Duration) <-chan time.Time
	onExpire  func()

	mu    sync.Mutex
	fired bool
}

// Option configures a Countdown.
type Option func(*Countdown)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Countdown) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTimer replaces time.After.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(c *Countdown) {
		if after != nil {
			c.after = after
		}
	}
}

// WithServerNow records the server's current time so the countdown follows
// the server clock. A zero value leaves the skew at zero.
func WithServerNow(serverNow time.Time) Option {
	return func(c *Countdown) {
		if !serverNow.IsZero() {
			c.skew = serverNow.Sub(c.now())
		}
	}
}

// OnExpire registers fn to run the first time the countdown reaches zero.
func OnExpire(fn func()) Option {
	return func(c *Countdown) {
		c.onExpire = fn
	}
}

// New creates a countdown to expiresAt. WithClock must precede WithServerNow
// for the skew to be measured against the injected clock.
func New(expiresAt time.Time, opts ...Option) *Countdown {
	c := &Countdown{
		expiresAt: expiresAt,
		now:       time.Now,
		after:     time.After,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Skew is serverNow minus local now at construction.
func (c *Countdown) Skew() time.Duration {
	return c.skew
}

func (c *Countdown) adjustedNow() time.Time {
	return c.now().Add(c.skew)
}

// Remaining is the time left on the hold, never negative.
func (c *Countdown) Remaining() time.Duration {
	d := c.expiresAt.Sub(c.adjustedNow())
	if d < 0 {
		return 0
	}
	return d
}

// NextDelay is the wait until the next whole second of the adjusted clock.
func (c *Countdown) NextDelay() time.Duration {
	ms := c.adjustedNow().UnixMilli() % 1000
	if ms < 0 {
		ms += 1000
	}
	return time.Duration(1000-ms) * time.Millisecond
}

// Tick samples the countdown. The expiry callback runs on the first tick
// that observes zero and never again.
func (c *Countdown) Tick() Tick {
	remaining := c.Remaining()
	t := Tick{
		Remaining: remaining,
		Seconds:   int64(remaining / time.Second),
		Label:     Format(remaining),
	}
	if remaining > 0 {
		return t
	}
	t.Expired = true
	t.Label = ExpiredLabel

	c.mu.Lock()
	first := !c.fired
	c.fired = true
	c.mu.Unlock()
	if first && c.onExpire != nil {
		c.onExpire()
	}
	return t
}

// Run emits a tick immediately and then once per second boundary until ctx
// is done. Ticks keep coming after expiry and keep reporting zero.
func (c *Countdown) Run(ctx context.Context, emit func(Tick)) error {
	for {
		emit(c.Tick())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.after(c.NextDelay()):
		}
	}
}

// Format renders d as HH:MM:SS. Hours are not wrapped at 24.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
