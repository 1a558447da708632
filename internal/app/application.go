// Package app wires the relay: registry, router, hub, backplane and HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"roomsync/internal/api"
	"roomsync/internal/backplane"
	"roomsync/internal/config"
	"roomsync/internal/hub"
	"roomsync/internal/identity"
	"roomsync/internal/logging"
	"roomsync/internal/metrics"
	"roomsync/internal/router"
	"roomsync/internal/websocket"
)

const (
	limiterSweepInterval = time.Minute
	limiterMaxIdle       = 5 * time.Minute
	redisPingTimeout     = 5 * time.Second
)

// Application owns every relay component.
type Application struct {
	config     *config.Config
	logger     *zap.Logger
	instanceID string

	metrics    *metrics.Metrics
	registry   *websocket.Registry
	limiter    *router.RateLimiter
	router     *router.Router
	backplane  backplane.Backplane
	redis      *redis.Client
	hub        *hub.Hub
	apiServer  *api.Server
	httpServer *http.Server

	stopSweep context.CancelFunc
}

// Option customises NewApplication.
type Option func(*options)

type options struct {
	bus *backplane.Bus
}

// WithBus joins an in-process backplane bus instead of Redis, so several
// relays in one process share rooms.
func WithBus(bus *backplane.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// NewApplication builds the relay in dependency order:
// metrics, registry, router, backplane, hub, websocket handler, API, HTTP.
func NewApplication(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger = logging.OrNop(logger)

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	instanceID := cfg.Relay.InstanceID
	if instanceID == "" {
		instanceID = "relay-" + identity.NewContributionID()
	}
	logger = logger.With(zap.String("instance", instanceID))

	m := metrics.New()
	registry := websocket.NewRegistry(logger)
	limiter := router.NewRateLimiter(cfg.Room.RateLimit, cfg.Room.RateBurst)
	eventRouter := router.NewRouter(registry, limiter, m, logger)

	var (
		bp          backplane.Backplane
		redisClient *redis.Client
	)
	switch {
	case o.bus != nil:
		bp = backplane.NewLocal(o.bus, instanceID)
	case cfg.Redis.Enabled:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		bp = backplane.NewRedis(redisClient, instanceID, logger)
	default:
		bp = backplane.NewLocal(nil, instanceID)
	}

	messageHub := hub.NewHub(eventRouter, bp, m, logger)
	wsHandler := websocket.NewHandler(registry, messageHub, cfg.WebSocket, cfg.Relay.Passcode, m, logger)
	apiServer := api.NewServer(registry, http.HandlerFunc(wsHandler.HandleWebSocket), m.Handler(), instanceID, logger)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Relay.Host, fmt.Sprint(cfg.Relay.Port)),
		Handler:      apiServer,
		ReadTimeout:  cfg.Relay.ReadTimeout,
		WriteTimeout: cfg.Relay.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		logger:     logger,
		instanceID: instanceID,
		metrics:    m,
		registry:   registry,
		limiter:    limiter,
		router:     eventRouter,
		backplane:  bp,
		redis:      redisClient,
		hub:        messageHub,
		apiServer:  apiServer,
		httpServer: httpServer,
	}, nil
}

// StartBackground starts everything except the listener. Start calls it;
// tests serve Handler() themselves.
func (app *Application) StartBackground(ctx context.Context) error {
	if app.redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := app.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("failed to reach redis at %s: %w", app.config.Redis.Addr, err)
		}
	}

	if err := app.hub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start hub: %w", err)
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	app.stopSweep = cancel
	go app.sweepLimiter(sweepCtx)
	return nil
}

// Start runs the hub then the HTTP listener.
func (app *Application) Start(ctx context.Context) error {
	app.logger.Info("starting relay", zap.String("addr", app.httpServer.Addr))

	if err := app.StartBackground(ctx); err != nil {
		return err
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		app.stopBackground()
		return err
	case <-time.After(100 * time.Millisecond):
		app.logger.Info("relay started")
		return nil
	case <-ctx.Done():
		app.stopBackground()
		return ctx.Err()
	}
}

// Stop shuts down in reverse order: HTTP, hub, backplane, redis.
func (app *Application) Stop(ctx context.Context) error {
	app.logger.Info("shutting down relay")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		app.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}
	// Shutdown does not touch hijacked websocket connections.
	app.closeConnections()
	app.stopBackground()

	app.logger.Info("relay shutdown complete")
	return nil
}

func (app *Application) stopBackground() {
	if app.stopSweep != nil {
		app.stopSweep()
	}
	if err := app.hub.Stop(); err != nil && !errors.Is(err, hub.ErrHubNotRunning) {
		app.logger.Warn("hub shutdown error", zap.Error(err))
	}
	if err := app.backplane.Close(); err != nil {
		app.logger.Warn("backplane shutdown error", zap.Error(err))
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn("redis shutdown error", zap.Error(err))
		}
	}
}

func (app *Application) closeConnections() {
	for _, topic := range app.registry.Topics() {
		for _, conn := range app.registry.TopicConnections(topic) {
			_ = conn.Close()
		}
	}
}

func (app *Application) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := app.limiter.Cleanup(limiterMaxIdle); n > 0 {
				app.logger.Debug("removed idle rate limiters", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Handler is the full HTTP surface, including /ws.
func (app *Application) Handler() http.Handler {
	return app.apiServer
}

func (app *Application) GetAddr() string {
	return app.httpServer.Addr
}

func (app *Application) InstanceID() string {
	return app.instanceID
}

func (app *Application) Registry() *websocket.Registry {
	return app.registry
}

func (app *Application) Metrics() *metrics.Metrics {
	return app.metrics
}
