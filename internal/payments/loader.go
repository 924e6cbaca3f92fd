// Package payments loads payment and invoice details for appointments.
package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// ErrClosed is returned by Load after Close.
var ErrClosed = errors.New("payments: loader closed")

// DetailFetcher retrieves payment details from the backend.
type DetailFetcher interface {
	GetPaymentDetails(ctx context.Context, appointmentID string) (*portalapi.PaymentDetails, error)
}

type flight struct {
	key    string
	ctx    context.Context
	cancel context.CancelFunc
}

// DetailLoader shares concurrent loads of the same appointment and cancels
// the in-flight load when a different appointment is requested.
type DetailLoader struct {
	fetcher DetailFetcher
	logger  *logging.Logger
	group   singleflight.Group

	mu     sync.Mutex
	active *flight
	latest string
	closed bool
}

// NewDetailLoader wraps fetcher.
func NewDetailLoader(fetcher DetailFetcher, logger *logging.Logger) *DetailLoader {
	if logger == nil {
		logger = logging.Default()
	}
	return &DetailLoader{fetcher: fetcher, logger: logger}
}

// Load returns the payment details for appointmentID. A cancelled caller
// stops waiting but the shared request keeps running; only a load for a
// different appointment or Close cancels it.
func (l *DetailLoader) Load(ctx context.Context, appointmentID string) (*portalapi.PaymentDetails, error) {
	if appointmentID == "" {
		return nil, errors.New("payments: appointment id required")
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	l.latest = appointmentID
	if f := l.active; f != nil && f.key != appointmentID {
		l.logger.Debug("payments: cancelling superseded load", "appointment_id", f.key, "next", appointmentID)
		f.cancel()
		l.group.Forget(f.key)
		l.active = nil
	}
	l.mu.Unlock()

	ch := l.group.DoChan(appointmentID, func() (any, error) {
		f, err := l.start(ctx, appointmentID)
		if err != nil {
			return nil, err
		}
		defer l.finish(f)
		return l.fetcher.GetPaymentDetails(f.ctx, appointmentID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("payments: load %s: %w", appointmentID, res.Err)
		}
		details, _ := res.Val.(*portalapi.PaymentDetails)
		if details == nil {
			return nil, fmt.Errorf("payments: load %s: empty response", appointmentID)
		}
		return details, nil
	}
}

// Invalidate drops any shared result for appointmentID so the next Load
// goes to the backend, e.g. after a refund.
func (l *DetailLoader) Invalidate(appointmentID string) {
	l.group.Forget(appointmentID)
}

// Close cancels the in-flight load. Later loads fail with ErrClosed.
func (l *DetailLoader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.active != nil {
		l.active.cancel()
		l.group.Forget(l.active.key)
		l.active = nil
	}
}

// start installs the flight for a call that is about to fetch. A call
// overtaken by a load for another appointment never reaches the backend.
func (l *DetailLoader) start(ctx context.Context, appointmentID string) (*flight, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	if l.latest != appointmentID {
		return nil, context.Canceled
	}
	if old := l.active; old != nil && old.key != appointmentID {
		old.cancel()
	}
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f := &flight{key: appointmentID, ctx: fctx, cancel: cancel}
	l.active = f
	return f, nil
}

func (l *DetailLoader) finish(f *flight) {
	f.cancel()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == f {
		l.active = nil
	}
}
