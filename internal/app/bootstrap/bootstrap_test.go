package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/medbook-portal/internal/chat"
	appconfig "github.com/wolfman30/medbook-portal/internal/config"
	"github.com/wolfman30/medbook-portal/internal/session"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		Env:              "test",
		APIBaseURL:       "http://127.0.0.1:1",
		APITimeout:       time.Second,
		SessionBackend:   "memory",
		SessionTTL:       time.Hour,
		ChatPollInterval: time.Second,
		RateLimitRPS:     100,
		RateLimitBurst:   100,
		Timezone:         "Asia/Ho_Chi_Minh",
	}
}

func TestBuildRedisClientDisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logging.New("error"), true))
	assert.Nil(t, BuildRedisClient(context.Background(), nil, nil, false))
}

func TestBuildSessionStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.SessionBackend = "redis"
	cfg.RedisAddr = mr.Addr()

	store, client, err := BuildSessionStore(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })
	assert.IsType(t, &session.RedisStore{}, store)

	require.NoError(t, store.Save(context.Background(), "browser-1", session.Session{Portal: session.PortalPatient, AccessToken: "tok"}))
	assert.True(t, mr.Exists("medbook:session:browser-1:patient"))
}

func TestBuildSessionStoreFallsBackOutsideProduction(t *testing.T) {
	cfg := testConfig()
	cfg.SessionBackend = "redis"
	cfg.RedisAddr = "127.0.0.1:1"

	store, client, err := BuildSessionStore(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.IsType(t, &session.MemoryStore{}, store)

	cfg.Env = "production"
	_, _, err = BuildSessionStore(context.Background(), cfg, logging.New("error"))
	assert.Error(t, err)

	cfg.SessionBackend = "etcd"
	_, _, err = BuildSessionStore(context.Background(), cfg, logging.New("error"))
	assert.Error(t, err)
}

func TestBuildChatSubscriber(t *testing.T) {
	cfg := testConfig()
	assert.IsType(t, &chat.PollingSubscriber{}, BuildChatSubscriber(cfg, nil, nil, nil))

	cfg.ChatStreamURL = "ws://backend/ws/chat"
	assert.IsType(t, &chat.FailoverSubscriber{}, BuildChatSubscriber(cfg, nil, nil, nil))
}

func TestNewPortalServesHealthAndMetrics(t *testing.T) {
	p, err := NewPortal(context.Background(), testConfig(), logging.New("error"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	rec := httptest.NewRecorder()
	p.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	p.Metrics.ObserveValidationFailure("auth_required")
	rec = httptest.NewRecorder()
	p.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "medbook_booking_validation_failures_total")
}

func TestNewPortalRequiresConfig(t *testing.T) {
	_, err := NewPortal(context.Background(), nil, nil, nil)
	assert.Error(t, err)
}

func TestPortalSweepDropsIdleBrowserState(t *testing.T) {
	p, err := NewPortal(context.Background(), testConfig(), logging.New("error"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	state := p.states.Get("browser-1")
	loader := p.payments.For("browser-1")
	controller := p.tours.Get("browser-1")

	p.sweep(time.Hour)
	assert.Same(t, state, p.states.Get("browser-1"))
	assert.Same(t, loader, p.payments.For("browser-1"))
	assert.Same(t, controller, p.tours.Get("browser-1"))

	p.sweep(-time.Second)
	assert.NotSame(t, state, p.states.Get("browser-1"))
	assert.NotSame(t, loader, p.payments.For("browser-1"))
	assert.NotSame(t, controller, p.tours.Get("browser-1"))
}
