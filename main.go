package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/config"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	paymentControllers "github.com/junaidrashid-git/storefront-api/controllers/payment"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/events"
	"github.com/junaidrashid-git/storefront-api/pkg/idempotency"
	"github.com/junaidrashid-git/storefront-api/pkg/logging"
	"github.com/junaidrashid-git/storefront-api/pkg/metrics"
	"github.com/junaidrashid-git/storefront-api/pkg/outbox"
	"github.com/junaidrashid-git/storefront-api/pkg/shutdown"
	"github.com/junaidrashid-git/storefront-api/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const serviceName = "storefront-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("✅ starting application", "port", cfg.Port, "broker", cfg.EventsBroker)

	if err := run(cfg, logger); err != nil {
		logger.Error("❌ server stopped", "err", err)
		log.Fatal(err)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, tracing.Config{
		Service:  serviceName,
		Exporter: cfg.TraceExporter,
		Endpoint: cfg.OTLPEndpoint,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelFlush()
		if err := tp.Shutdown(flushCtx); err != nil {
			logger.Warn("tracer shutdown", "err", err)
		}
	}()

	gin.SetMode(cfg.GinMode)

	// Init DB
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return err
	}
	if err := models.Migrate(db); err != nil {
		return err
	}

	// Idempotency keys live in redis; without REDIS_ADDR the guard is off.
	var idem *idempotency.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, idempotency requests will fail until it recovers", "addr", cfg.RedisAddr, "err", err)
		}
		idem = idempotency.NewStore(rdb, cfg.IdempotencyTTL)
	}

	hub := events.NewHub(logger)
	defer hub.Close()

	broker, closeBroker, err := newBroker(cfg, logger)
	if err != nil {
		return err
	}
	defer closeBroker()

	// The relay outlives the signal context: it stops only after the server has drained,
	// and it is joined before the broker and hub are closed.
	stopRelay := startRelay(logger, outbox.NewRelay(logger, outbox.NewGormStore(logger, db), events.Fanout{broker, hub}, cfg.RelayID))
	defer stopRelay()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics(reg, serviceName)

	payments := paymentControllers.NewStripeClient(cfg.Payment.SecretKey, cfg.Payment.BaseURL, cfg.Payment.Timeout, cfg.Payment.MaxRetries)
	orders := orderControllers.NewService(db, logger, payments, cfg.Payment.VerifyIntents, cfg.Payment.Currency).WithMetrics(m)

	r := newRouter(cfg, logger, db, m, reg, appDeps{
		tokens:   auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		orders:   orders,
		payments: payments,
		idem:     idem,
		hub:      hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🚀 server listening", "addr", srv.Addr, "prefix", cfg.APIPrefix)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

// startRelay runs relay in the background. stop cancels it and waits for the batch in
// flight, so publishers can be closed safely afterwards.
func startRelay(logger *slog.Logger, relay *outbox.Relay) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox relay stopped", "err", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// newBroker picks the outbox destination from EVENTS_BROKER.
func newBroker(cfg config.Config, logger *slog.Logger) (outbox.Publisher, func(), error) {
	switch cfg.EventsBroker {
	case "kafka":
		w := events.NewKafkaWriter(cfg.KafkaBrokers)
		return events.NewKafkaPublisher(w, cfg.KafkaTopic), func() { _ = w.Close() }, nil
	case "rabbitmq":
		conn, ch, err := events.SetupRabbit(logger, cfg.RabbitURL)
		if err != nil {
			return nil, nil, err
		}
		return events.NewRabbitPublisher(ch), func() {
			_ = ch.Close()
			_ = conn.Close()
		}, nil
	default:
		return events.NewLogPublisher(logger), func() {}, nil
	}
}
