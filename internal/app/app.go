package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"NewsDesk/internal/auth"
	"NewsDesk/internal/config"
	"NewsDesk/internal/infrastructure/content"
	"NewsDesk/internal/infrastructure/ml"
	"NewsDesk/internal/infrastructure/notify"
	"NewsDesk/internal/infrastructure/sinks"
	"NewsDesk/internal/infrastructure/storage"
	"NewsDesk/internal/logging"
	"NewsDesk/internal/ports"
	"NewsDesk/internal/transport/httpapi"
	"NewsDesk/internal/usecase"
)

const relayRetryDelay = 5 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	relay      *notify.RedisRelay
	dispatcher *sinks.Dispatcher
	server     *httpapi.Server
}

// New opens the database, builds every adapter and registers the HTTP routes.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	pool, err := storage.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.pool = pool

	if cfg.Database.EnsureSchema {
		if err := storage.EnsureSchema(ctx, pool); err != nil {
			a.close()
			return nil, err
		}
		baseLogger.Info("database schema ensured")
	}
	repo := storage.NewPostgresRepository(pool)

	hub := notify.NewHub(cfg.Notifications.BufferSize, baseLogger.With("component", "notify.hub"))
	var broadcaster ports.Broadcaster = hub
	if cfg.Notifications.RedisURL != "" {
		client, err := notify.NewRedisClient(cfg.Notifications.RedisURL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = client
		a.relay = notify.NewRedisRelay(client, cfg.Notifications.RedisChannel, hub, baseLogger.With("component", "notify.redis"))
		broadcaster = a.relay
	}

	var sinkCfgs []sinks.Config
	if cfg.Sinks.File != "" {
		sinkCfgs, err = sinks.LoadConfigs(cfg.Sinks.File)
		if err != nil {
			a.close()
			return nil, err
		}
	}
	built, err := sinks.DefaultRegistry().BuildAll(ctx, sinkCfgs, baseLogger.With("component", "sinks"))
	if err != nil {
		a.close()
		return nil, err
	}
	a.dispatcher = sinks.NewDispatcher(built, cfg.Sinks.Timeout, baseLogger.With("component", "sinks.dispatcher"))

	tokens := auth.NewTokenService(cfg.Auth)
	classifier := ml.NewClient(cfg.ML, baseLogger.With("component", "ml"))

	publisher := usecase.NewPublisher(usecase.PublisherDeps{
		Topics:        repo,
		Subscriptions: repo,
		Articles:      repo,
		FakeDetector:  classifier,
		Categorizer:   classifier,
		Broadcaster:   broadcaster,
		Mirror:        a.dispatcher,
		Content:       content.NewFilter(),
		Mode:          usecase.FanoutMode(cfg.Notifications.Mode),
		Logger:        baseLogger.With("component", "publisher"),
	})

	a.server = httpapi.NewServer(httpapi.Deps{
		Publisher:     publisher,
		Articles:      usecase.NewArticles(repo),
		Subscriptions: usecase.NewSubscriptions(repo),
		Accounts:      usecase.NewAccounts(repo, auth.NewBcryptHasher(bcrypt.DefaultCost), tokens),
		Tokens:        tokens,
		Hub:           hub,
		Heartbeat:     cfg.Notifications.Heartbeat,
		Logger:        baseLogger.With("component", "http"),
	})

	baseLogger.Info("application ready",
		"mode", cfg.Notifications.Mode,
		"redis_relay", a.relay != nil,
		"sinks", len(built),
	)
	return a, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Start(a.cfg.HTTP.Addr)
	})

	if a.relay != nil {
		g.Go(func() error {
			a.runRelay(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// runRelay keeps the Redis subscription alive. While it is down emits reach local sessions only.
func (a *Application) runRelay(ctx context.Context) {
	for {
		err := a.relay.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		a.logger.Error("redis relay stopped, resubscribing", "error", err, "retry_in", relayRetryDelay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(relayRetryDelay):
		}
	}
}

func (a *Application) close() {
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(); err != nil {
			a.logger.Warn("close sinks", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
