package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/medbook-portal/internal/chat"
	appconfig "github.com/wolfman30/medbook-portal/internal/config"
	"github.com/wolfman30/medbook-portal/internal/session"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks the session backend. The Redis backend falls back
// to memory outside production when Redis is unreachable.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (session.Store, *redis.Client, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.SessionBackend {
	case "memory":
		logger.Info("session store: memory")
		return session.NewMemoryStore(cfg.SessionTTL), nil, nil
	case "", "redis":
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client != nil {
			logger.Info("session store: redis", "addr", cfg.RedisAddr)
			return session.NewRedisStore(client, cfg.SessionTTL), client, nil
		}
		if cfg.Env == "production" {
			return nil, nil, fmt.Errorf("bootstrap: redis session store unavailable at %q", cfg.RedisAddr)
		}
		logger.Warn("redis unavailable; using in-memory sessions", "addr", cfg.RedisAddr)
		return session.NewMemoryStore(cfg.SessionTTL), nil, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown session backend %q", cfg.SessionBackend)
	}
}

// BuildChatSubscriber prefers the backend's chat stream and falls back to
// polling; without a stream URL it polls only.
func BuildChatSubscriber(cfg *appconfig.Config, lister chat.MessageLister, observer chat.FallbackObserver, logger *logging.Logger) chat.Subscriber {
	polling := chat.NewPollingSubscriber(lister, cfg.ChatPollInterval, logger)
	if strings.TrimSpace(cfg.ChatStreamURL) == "" {
		return polling
	}
	stream := chat.NewStreamSubscriber(cfg.ChatStreamURL, logger)
	return chat.NewFailoverSubscriber(stream, "stream", polling, "polling", observer, logger)
}
