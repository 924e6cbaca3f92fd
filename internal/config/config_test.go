package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "MEDBOOK_API_BASE_URL", "SESSION_BACKEND", "SUGGESTION_LIMIT", "CORS_ALLOWED_ORIGINS", "TIMEZONE"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Fatalf("expected default api base url, got %s", cfg.APIBaseURL)
	}
	if cfg.SessionBackend != "redis" {
		t.Fatalf("expected redis session backend, got %s", cfg.SessionBackend)
	}
	if cfg.SuggestionPerDoctor != 3 || cfg.SuggestionLimit != 12 {
		t.Fatalf("unexpected suggestion caps %d/%d", cfg.SuggestionPerDoctor, cfg.SuggestionLimit)
	}
	if cfg.ChatPollInterval != 5*time.Second {
		t.Fatalf("expected default poll interval, got %s", cfg.ChatPollInterval)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.Location().String() != "Asia/Ho_Chi_Minh" {
		t.Fatalf("expected Asia/Ho_Chi_Minh, got %s", cfg.Location())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MEDBOOK_API_BASE_URL", "https://api.example.vn/api/")
	t.Setenv("SESSION_BACKEND", " Memory ")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("CHAT_POLL_INTERVAL", "750ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.vn, ,https://b.vn")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SUGGESTION_LIMIT", "20")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.APIBaseURL != "https://api.example.vn/api" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.SessionBackend != "memory" {
		t.Fatalf("expected memory backend, got %q", cfg.SessionBackend)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected 2h ttl, got %s", cfg.SessionTTL)
	}
	if cfg.ChatPollInterval != 750*time.Millisecond {
		t.Fatalf("expected 750ms poll, got %s", cfg.ChatPollInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.vn" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected 2.5 rps, got %v", cfg.RateLimitRPS)
	}
	if cfg.SuggestionLimit != 20 {
		t.Fatalf("expected limit override, got %d", cfg.SuggestionLimit)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("SUGGESTION_PER_DOCTOR", "three")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	cfg := Load()
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Fatalf("expected default ttl, got %s", cfg.SessionTTL)
	}
	if cfg.SuggestionPerDoctor != 3 {
		t.Fatalf("expected default per-doctor cap, got %d", cfg.SuggestionPerDoctor)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback, got %s", cfg.Location())
	}
}
