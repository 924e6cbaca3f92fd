package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/medbook-portal/internal/app/bootstrap"
	appconfig "github.com/wolfman30/medbook-portal/internal/config"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

func TestPortalMetricsExposedWithRuntimeCollectors(t *testing.T) {
	cfg := &appconfig.Config{
		Env:              "test",
		APIBaseURL:       "http://127.0.0.1:1",
		APITimeout:       time.Second,
		SessionBackend:   "memory",
		SessionTTL:       time.Hour,
		ChatPollInterval: time.Second,
		RateLimitRPS:     10,
		RateLimitBurst:   10,
	}
	portal, err := bootstrap.NewPortal(context.Background(), cfg, logging.New("error"), newMetricsRegistry())
	if err != nil {
		t.Fatalf("build portal: %v", err)
	}
	defer portal.Close()

	portal.Metrics.ObserveBackendCall("doctors.list", http.StatusOK, 0.05)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	portal.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "medbook_backend_requests_total") {
		t.Fatalf("expected backend counter to be exported")
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected go runtime collector to be exported")
	}
}

func TestNewServerUsesConfiguredPort(t *testing.T) {
	srv := newServer(&appconfig.Config{Port: "9090"}, http.NotFoundHandler())
	if srv.Addr != ":9090" {
		t.Fatalf("expected :9090, got %s", srv.Addr)
	}
	if srv.ReadHeaderTimeout == 0 || srv.IdleTimeout == 0 {
		t.Fatalf("expected server timeouts to be set")
	}
}
