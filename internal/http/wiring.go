package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/example/railsahayak/internal/ai"
	"github.com/example/railsahayak/internal/assistant"
	"github.com/example/railsahayak/internal/catalog"
	"github.com/example/railsahayak/internal/community"
	"github.com/example/railsahayak/internal/config"
	"github.com/example/railsahayak/internal/dispatch"
	"github.com/example/railsahayak/internal/food"
	"github.com/example/railsahayak/internal/ingest"
	"github.com/example/railsahayak/internal/payments"
	"github.com/example/railsahayak/internal/services"
	"github.com/example/railsahayak/internal/session"
	"github.com/example/railsahayak/internal/storage"
	"github.com/example/railsahayak/internal/trainstatus"
)

// NewServerFromConfig wires every backend named in cfg, falling back to
// in-process implementations for anything left unset. Close releases them.
func NewServerFromConfig(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (*Server, error) {
	var (
		closers []io.Closer
		checks  []func(context.Context) error
	)
	fail := func(err error) (*Server, error) {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		c, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return fail(err)
		}
		cat = c
	}

	sim := trainstatus.NewSimulator(cat, trainstatus.DefaultRand)
	var live trainstatus.LiveSource
	if cfg.TrainStatusLive {
		live = trainstatus.NewRailRadarClient(cfg.TrainStatusURL, cfg.TrainStatusKey, cfg.TrainStatusTimeout)
	}
	resolver := trainstatus.NewResolver(live, sim, logger)

	sink, err := newOrderSink(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, sink)
	if p, ok := sink.(interface{ Ping(context.Context) error }); ok {
		checks = append(checks, p.Ping)
	}

	var payer food.Payer
	if cfg.StripeAPIKey != "" {
		payer = payments.NewStripeGateway(cfg.StripeAPIKey)
	}
	foodSvc := food.NewService(cat, food.Config{
		TimeToArrival: cfg.FoodTimeToArrival,
		HaltDuration:  cfg.FoodHaltDuration,
		CheckoutDelay: cfg.CheckoutDelay,
		Station:       cfg.DeliveryStation,
		Coach:         cfg.DeliveryCoach,
	}, sink, payer, logger)

	provider, err := ai.New(ai.Options{
		Provider:    cfg.AIProvider,
		GeminiKey:   cfg.GeminiKey,
		GeminiModel: cfg.GeminiModel,
		OllamaURL:   cfg.OllamaURL,
		OllamaModel: cfg.OllamaModel,
		Timeout:     cfg.AITimeout,
	})
	if err != nil {
		return fail(err)
	}

	hub := dispatch.NewHub(logger)
	feed := community.NewFeed(cat, provider, hub, logger)
	bot := assistant.New(provider, logger)
	svc := services.NewService(cfg.DoctorScanDelay, logger)

	var auth session.Authenticator = session.DemoAuthenticator{}
	if cfg.FirebaseAPIKey != "" {
		auth = session.NewFirebaseAuthenticator(cfg.FirebaseAPIKey, cfg.AITimeout)
	}
	var profiles session.ProfileStore = session.NewMemoryProfileStore()
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		closers = append(closers, rc)
		checks = append(checks, func(ctx context.Context) error { return rc.Ping(ctx).Err() })
		profiles = session.NewRedisProfileStore(session.NewRedisKV(rc))
	}
	sessions := session.NewManager(auth, profiles, cfg.SessionTTL, logger)
	sessions.OnLogout(foodSvc, svc, bot)

	logger.Info("backends wired",
		"live_status", cfg.TrainStatusLive,
		"payments", payer != nil,
		"ai_provider", cfg.AIProvider,
		"firebase", cfg.FirebaseAPIKey != "",
		"redis", cfg.RedisAddr != "",
	)

	s := NewServer(Deps{
		Resolver:    resolver,
		Tracker:     &trainstatus.Tracker{Interval: cfg.TrainStatusTick, Rand: trainstatus.DefaultRand},
		Food:        foodSvc,
		Services:    svc,
		Feed:        feed,
		Hub:         hub,
		Assistant:   bot,
		Sessions:    sessions,
		CORSOrigins: cfg.CORSOrigins,
		Ready: func(ctx context.Context) error {
			var errs []error
			for _, c := range checks {
				errs = append(errs, c(ctx))
			}
			return errors.Join(errs...)
		},
	}, logger)
	s.closers = closers
	return s, nil
}

type orderSink interface {
	food.OrderSink
	io.Closer
}

// newOrderSink prefers Kafka, then Postgres, then SQLite, then memory.
func newOrderSink(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (orderSink, error) {
	switch {
	case len(cfg.KafkaBrokers) > 0:
		logger.Info("order sink: kafka", "topic", cfg.KafkaOrdersTopic)
		return ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaOrdersTopic), nil
	case cfg.PGDSN != "":
		ps, err := storage.NewPostgresStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("order store: %w", err)
		}
		if cfg.RunMigrations {
			if err := ps.Migrate(ctx); err != nil {
				ps.Close()
				return nil, fmt.Errorf("migrate order store: %w", err)
			}
			logger.Info("migration applied: orders")
		}
		logger.Info("order sink: postgres")
		return ps, nil
	case cfg.SQLitePath != "":
		ss, err := storage.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("order store: %w", err)
		}
		logger.Info("order sink: sqlite", "path", cfg.SQLitePath)
		return ss, nil
	default:
		logger.Info("order sink: memory")
		return storage.NewMemoryStore(), nil
	}
}

// Close waits for pending order writes and releases backends.
func (s *Server) Close() error {
	if s.Food != nil {
		s.Food.Wait()
	}
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
