package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"salonbook/internal/api"
	"salonbook/internal/backend"
	"salonbook/internal/booking"
	"salonbook/internal/capacity"
	"salonbook/internal/config"
	"salonbook/internal/events"
	"salonbook/internal/metrics"
	"salonbook/internal/slots"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load(os.Getenv("SALONBOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}

	holder := &config.CatalogHolder{}
	generator := slots.NewGenerator(slots.Options{
		TickMinutes:   cfg.Booking.TickMinutes,
		BufferMinutes: int(cfg.BookingMinAdvance() / time.Minute),
	})
	aggregator := capacity.NewAggregator(capacity.Mode(cfg.Booking.CapacityWeighting))

	var (
		svc    backend.Service
		memory *backend.Memory
		client *backend.Client
	)
	switch cfg.Backend.Mode {
	case config.BackendHTTP:
		client = backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.BackendTimeout())
		if rdb != nil && cfg.Backend.CacheTTLSeconds > 0 {
			client.UseRedisCache(rdb, cfg.CacheTTL())
		}
		if cfg.Backend.RateLimit > 0 {
			client.UseRateLimit(cfg.Backend.RateLimit, cfg.Backend.RateBurst)
		}
		svc = client
	default:
		memory = backend.NewMemory(nil, generator, aggregator)
		svc = memory
	}

	seeded := false
	err = config.WatchCatalog(ctx, cfg.Catalog.Path, cfg.CatalogReloadInterval(), logger, func(c *config.Catalog) {
		holder.Store(&c.Catalog)
		if memory != nil {
			memory.SetCatalog(&c.Catalog)
			if !seeded {
				memory.Seed(c.Seed(c.Location(loc))...)
				seeded = true
			}
		}
		logger.Info().Str("catalog", c.String()).Msg("salon catalog loaded")
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load salon catalog")
	}

	submitter, err := booking.NewSubmitter(booking.Strategy(cfg.Booking.SubmissionStrategy), svc)
	if err != nil {
		logger.Fatal().Err(err).Msg("create submitter")
	}

	bus := events.NewEventBus(logger)
	bus.Subscribe(events.TypeAll, func(e events.Event) error {
		if e.Type == events.TypeStepChanged {
			logger.Debug().Str("session", e.SessionID).RawJSON("payload", e.Payload).Msg("wizard step changed")
			return nil
		}
		logger.Info().Str("event", e.Type).Str("session", e.SessionID).RawJSON("payload", e.Payload).Msg("booking event")
		return nil
	})

	deps := booking.Deps{
		Catalog:   holder,
		Backend:   svc,
		Submitter: submitter,
		Events:    bus,
		Settings: booking.Settings{
			MaxAdvanceDays: cfg.BookingMaxAdvanceDays(),
			Location:       loc,
			ProbeBatchSize: cfg.Booking.ProbeBatchSize,
		},
		Logger: logger,
	}
	sessions := booking.NewSessionStore(cfg.SessionTimeout(), func(id string, entry booking.Entry, clientID string) *booking.Wizard {
		return booking.NewWizard(id, entry, clientID, deps)
	})
	go sessions.Run(ctx, time.Minute)

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, holder, client, rdb, &logger)

	handler := api.NewHandler(sessions, svc, holder, loc, logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handler, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().
		Int("port", cfg.Server.Port).
		Str("backend", cfg.Backend.Mode).
		Str("strategy", string(submitter.Strategy())).
		Msg("salonbook started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("api server error")
	}
	logger.Info().Msg("salonbook stopped")
}

func startHealthServer(ctx context.Context, port int, holder *config.CatalogHolder, client *backend.Client, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if holder.Catalog() == nil {
			http.Error(w, "catalog not loaded", http.StatusServiceUnavailable)
			return
		}
		if client != nil {
			if err := client.HealthCheck(ctxPing); err != nil {
				http.Error(w, "booking service not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
