package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/example/railsahayak/internal/config"
	"github.com/example/railsahayak/internal/logging"
	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/storage"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "Total order messages consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_invalid_total",
		Help: "Total invalid messages received",
	})
	ordersSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_orders_saved_total",
		Help: "Total order records written to the store",
	})
	storeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_store_errors_total",
		Help: "Total order store write failures after retries",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, ordersSaved, storeErrors)
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	cfg, err := config.LoadConsumerConfig()
	logger := logging.NewLogger(cfg.LogLevel, "consumer")
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("order store unavailable", "error", err)
		os.Exit(1)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if p, ok := store.(interface{ Ping(context.Context) error }); ok {
				if err := p.Ping(r.Context()); err != nil {
					http.Error(w, "store not ready", 503)
					return
				}
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		logger.Info("metrics/health listening", "addr", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaOrdersTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer func() {
		_ = r.Close()
		_ = store.Close()
	}()

	logger.Info("consumer listening", "topic", cfg.KafkaOrdersTopic, "brokers", cfg.KafkaBrokers, "group", cfg.KafkaGroupID)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down consumer")
				return
			}
			logger.Warn("kafka read error", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		msgsConsumed.Inc()

		var o models.OrderRecord
		if err := json.Unmarshal(m.Value, &o); err != nil || o.RecordID == "" {
			msgsInvalid.Inc()
			logger.Warn("invalid order message", "offset", m.Offset, "error", err)
			continue
		}

		if err := saveOrderWithRetry(ctx, store, o, 3, 200*time.Millisecond); err != nil {
			storeErrors.Inc()
			logger.Error("order write failed", "order_id", o.OrderID, "record_id", o.RecordID, "error", err)
			continue
		}
		ordersSaved.Inc()
	}
}

func openStore(ctx context.Context, cfg config.ConsumerConfig) (storage.OrderStore, error) {
	switch {
	case cfg.PGDSN != "":
		ps, err := storage.NewPostgresStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := ps.Migrate(ctx); err != nil {
				ps.Close()
				return nil, err
			}
		}
		return ps, nil
	case cfg.SQLitePath != "":
		ss, err := storage.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return ss, nil
	default:
		return storage.NewMemoryStore(), nil
	}
}

// OrderSaver is the store operation the consumer needs, for tests and
// production.
type OrderSaver interface {
	SaveOrder(ctx context.Context, o models.OrderRecord) error
}

// saveOrderWithRetry writes the record, doubling the delay between attempts.
func saveOrderWithRetry(ctx context.Context, s OrderSaver, o models.OrderRecord, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = s.SaveOrder(ctx, o); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
