package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/medbook-portal/internal/api/router"
	"github.com/wolfman30/medbook-portal/internal/booking"
	appconfig "github.com/wolfman30/medbook-portal/internal/config"
	"github.com/wolfman30/medbook-portal/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/medbook-portal/internal/http/middleware"
	"github.com/wolfman30/medbook-portal/internal/observability/metrics"
	"github.com/wolfman30/medbook-portal/internal/payments"
	"github.com/wolfman30/medbook-portal/internal/portalapi"
	"github.com/wolfman30/medbook-portal/internal/session"
	"github.com/wolfman30/medbook-portal/internal/suggest"
	"github.com/wolfman30/medbook-portal/internal/tour"
	"github.com/wolfman30/medbook-portal/pkg/logging"
)

const (
	idleStateTTL  = 2 * time.Hour
	sweepInterval = 5 * time.Minute
)

// Portal is the assembled HTTP application.
type Portal struct {
	Handler http.Handler
	Metrics *metrics.PortalMetrics

	limiter  *httpmiddleware.RateLimiter
	states   *booking.Registry
	payments *payments.Registry
	tours    *tour.Registry
	redis    *redis.Client
	logger   *logging.Logger
}

// NewPortal wires every component from cfg. reg receives the portal's
// metrics; nil uses a fresh registry.
func NewPortal(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg *prometheus.Registry) (*Portal, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	portalMetrics := metrics.NewPortalMetrics(reg)
	client := portalapi.NewClient(cfg.APIBaseURL, logger,
		portalapi.WithTimeout(cfg.APITimeout),
		portalapi.WithObserver(portalMetrics),
	)

	store, redisClient, err := BuildSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	ranker := suggest.NewRanker(client, logger,
		suggest.WithCaps(cfg.SuggestionPerDoctor, cfg.SuggestionLimit),
		suggest.WithClock(now),
		suggest.WithObserver(portalMetrics),
	)
	states := booking.NewRegistry()
	loader := booking.NewLoader(client, client, ranker, logger, now)
	submitter := booking.NewSubmitter(client, portalMetrics, logger, now)
	paymentLoaders := payments.NewRegistry(client, logger)
	upgrader := handlers.NewUpgrader(cfg.CORSAllowedOrigins)
	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	tours := tour.NewRegistry()

	onLogout := func(browserID string, portal session.Portal) {
		if portal == session.PortalPatient {
			states.Drop(browserID)
			paymentLoaders.Release(browserID)
		}
	}

	var ping func(context.Context) error
	if redisClient != nil {
		ping = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	handler := router.New(&router.Config{
		Logger:    logger,
		Health:    handlers.NewHealthHandler(ping),
		Sessions:  handlers.NewSessionHandler(store, onLogout, logger),
		Catalog:   handlers.NewCatalogHandler(client, logger),
		Booking:   handlers.NewBookingHandler(loader, submitter, states, logger),
		Payments:  handlers.NewPaymentsHandler(paymentLoaders, client, logger),
		Countdown: handlers.NewCountdownHandler(upgrader, logger),
		Chat: handlers.NewChatHandler(client,
			BuildChatSubscriber(cfg, client, portalMetrics, logger),
			upgrader, logger),
		Tour: handlers.NewTourHandler(logger),

		SessionStore: store,
		Tours:        tours,
		RateLimiter:  limiter,

		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SecureCookies:      cfg.Env == "production",
		Now:                now,
	})

	return &Portal{
		Handler:  handler,
		Metrics:  portalMetrics,
		limiter:  limiter,
		states:   states,
		payments: paymentLoaders,
		tours:    tours,
		redis:    redisClient,
		logger:   logger,
	}, nil
}

// RunSweeper evicts idle per-browser state until ctx is done.
func (p *Portal) RunSweeper(ctx context.Context) {
	go p.limiter.Run(ctx, sweepInterval, idleStateTTL)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(idleStateTTL)
		}
	}
}

// sweep drops per-browser state idle for longer than idle.
func (p *Portal) sweep(idle time.Duration) {
	states := p.states.Evict(idle)
	loaders := p.payments.Evict(idle)
	tours := p.tours.Evict(idle)
	if states+loaders+tours > 0 {
		p.logger.Debug("evicted idle browser state",
			"booking", states,
			"payments", loaders,
			"tours", tours,
		)
	}
}

// Close cancels in-flight loads and releases the Redis connection.
func (p *Portal) Close() error {
	p.payments.Close()
	if p.redis != nil {
		return p.redis.Close()
	}
	return nil
}
