package tour

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRejectsSecondTour(t *testing.T) {
	c := NewController()
	require.NoError(t, c.Start("booking"))
	assert.ErrorIs(t, c.Start("payment"), ErrTourActive)
	assert.Equal(t, "booking", c.Status().Name)
	assert.ErrorIs(t, NewController().Start("  "), ErrNameRequired)
}

func TestDestroyRunsHooksOnceAndIsIdempotent(t *testing.T) {
	c := NewController()
	calls := 0
	c.OnDestroy(func() { calls++ })
	require.NoError(t, c.Start("booking"))
	c.OnDestroy(func() { calls++ })
	c.OnDestroy(func() { calls++ })

	c.Destroy()
	c.Destroy()
	assert.Equal(t, 2, calls)
	assert.False(t, c.Active())

	require.NoError(t, c.Start("booking"))
	assert.True(t, c.Active())
	assert.False(t, c.Status().StartedAt.IsZero())
}

func TestContextCarriesController(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	c := NewController()
	got, ok := FromContext(WithController(context.Background(), c))
	require.True(t, ok)
	assert.Same(t, c, got)
}

func TestRegistryPerBrowser(t *testing.T) {
	r := NewRegistry()
	a := r.Get("a")
	assert.Same(t, a, r.Get("a"))
	assert.NotSame(t, a, r.Get("b"))
}

func TestRegistryEvictsIdleControllers(t *testing.T) {
	r := NewRegistry()
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	idle := r.Get("browser-a")
	require.NoError(t, idle.Start("booking"))
	ended := 0
	idle.OnDestroy(func() { ended++ })

	now = now.Add(90 * time.Minute)
	busy := r.Get("browser-b")

	assert.Equal(t, 1, r.Evict(time.Hour))
	assert.Equal(t, 1, ended)
	assert.False(t, idle.Active())
	assert.Same(t, busy, r.Get("browser-b"))
	assert.NotSame(t, idle, r.Get("browser-a"))
}
