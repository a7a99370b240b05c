package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig captures all tunable parameters for the HTTP API process.
// Values are loaded from environment variables (after an optional .env file)
// with defaults that let the binary run locally with no external services.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	CatalogPath string

	TrainStatusLive    bool
	TrainStatusURL     string
	TrainStatusKey     string
	TrainStatusTimeout time.Duration
	TrainStatusTick    time.Duration

	FoodTimeToArrival int
	FoodHaltDuration  int
	CheckoutDelay     time.Duration
	DeliveryStation   string
	DeliveryCoach     string
	DoctorScanDelay   time.Duration

	KafkaBrokers     []string
	KafkaOrdersTopic string
	KafkaGroupID     string

	PGDSN      string
	SQLitePath string

	StripeAPIKey string

	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	FirebaseAPIKey string

	AIProvider  string
	GeminiKey   string
	GeminiModel string
	OllamaURL   string
	OllamaModel string
	AITimeout   time.Duration

	LogLevel      string
	RunMigrations bool
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:           ":8080",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        120 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		CORSOrigins:        []string{"*"},
		TrainStatusURL:     "https://railradar.in/api/v1",
		TrainStatusTimeout: 5 * time.Second,
		TrainStatusTick:    2 * time.Second,
		FoodTimeToArrival:  10,
		FoodHaltDuration:   5,
		CheckoutDelay:      2 * time.Second,
		DeliveryStation:    "Kota Jn (KOTA)",
		DeliveryCoach:      "B5 / Seat 32",
		DoctorScanDelay:    3 * time.Second,
		KafkaOrdersTopic:   "orders",
		KafkaGroupID:       "order-writer",
		SessionTTL:         7 * 24 * time.Hour,
		AIProvider:         "gemini",
		GeminiModel:        "gemini-2.5-flash",
		OllamaURL:          "http://localhost:11434",
		OllamaModel:        "llama3.2",
		AITimeout:          20 * time.Second,
		LogLevel:           "info",
	}
}

// LoadServerConfig reads .env (when present) and the process environment.
// Every invalid value is reported, not just the first.
func LoadServerConfig() (ServerConfig, error) {
	_ = godotenv.Load()

	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitAndTrim(origins)
	}

	setStringFromEnv(&cfg.CatalogPath, "CATALOG_PATH")

	setBoolFromEnv(&cfg.TrainStatusLive, "TRAIN_STATUS_LIVE", &errs)
	setStringFromEnv(&cfg.TrainStatusURL, "TRAIN_STATUS_API_URL")
	cfg.TrainStatusKey = os.Getenv("TRAIN_STATUS_API_KEY")
	setDurationFromEnv(&cfg.TrainStatusTimeout, "TRAIN_STATUS_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.TrainStatusTick, "TRAIN_STATUS_TICK", &errs)

	setIntFromEnv(&cfg.FoodTimeToArrival, "FOOD_TIME_TO_ARRIVAL", &errs)
	setIntFromEnv(&cfg.FoodHaltDuration, "FOOD_HALT_DURATION", &errs)
	setDurationFromEnv(&cfg.CheckoutDelay, "CHECKOUT_DELAY", &errs)
	setStringFromEnv(&cfg.DeliveryStation, "DELIVERY_STATION")
	setStringFromEnv(&cfg.DeliveryCoach, "DELIVERY_COACH")
	setDurationFromEnv(&cfg.DoctorScanDelay, "DOCTOR_SCAN_DELAY", &errs)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaOrdersTopic, "KAFKA_ORDERS_TOPIC")
	setStringFromEnv(&cfg.KafkaGroupID, "KAFKA_GROUP_ID")

	cfg.PGDSN = os.Getenv("PG_DSN")
	cfg.SQLitePath = strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setDurationFromEnv(&cfg.SessionTTL, "SESSION_TTL", &errs)

	cfg.FirebaseAPIKey = os.Getenv("FIREBASE_API_KEY")

	if v := os.Getenv("AI_PROVIDER"); v != "" {
		cfg.AIProvider = strings.ToLower(strings.TrimSpace(v))
	}
	cfg.GeminiKey = os.Getenv("GEMINI_API_KEY")
	setStringFromEnv(&cfg.GeminiModel, "GEMINI_MODEL")
	setStringFromEnv(&cfg.OllamaURL, "OLLAMA_URL")
	setStringFromEnv(&cfg.OllamaModel, "OLLAMA_MODEL")
	setDurationFromEnv(&cfg.AITimeout, "AI_TIMEOUT", &errs)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	if cfg.FoodTimeToArrival < 0 || cfg.FoodHaltDuration < 0 {
		errs = append(errs, fmt.Errorf("FOOD_TIME_TO_ARRIVAL and FOOD_HALT_DURATION must be >= 0"))
	}
	if cfg.TrainStatusTick <= 0 {
		errs = append(errs, fmt.Errorf("TRAIN_STATUS_TICK must be > 0"))
	}
	if cfg.AIProvider != "gemini" && cfg.AIProvider != "ollama" {
		errs = append(errs, fmt.Errorf("AI_PROVIDER must be gemini or ollama, got %q", cfg.AIProvider))
	}

	return cfg, errors.Join(errs...)
}

// ConsumerConfig is the subset the order consumer needs.
type ConsumerConfig struct {
	KafkaBrokers     []string
	KafkaOrdersTopic string
	KafkaGroupID     string
	PGDSN            string
	SQLitePath       string
	LogLevel         string
	RunMigrations    bool
}

func LoadConsumerConfig() (ConsumerConfig, error) {
	cfg, err := LoadServerConfig()
	if err != nil {
		return ConsumerConfig{}, err
	}
	if len(cfg.KafkaBrokers) == 0 {
		return ConsumerConfig{}, errors.New("KAFKA_BROKERS is required")
	}
	return ConsumerConfig{
		KafkaBrokers:     cfg.KafkaBrokers,
		KafkaOrdersTopic: cfg.KafkaOrdersTopic,
		KafkaGroupID:     cfg.KafkaGroupID,
		PGDSN:            cfg.PGDSN,
		SQLitePath:       cfg.SQLitePath,
		LogLevel:         cfg.LogLevel,
		RunMigrations:    cfg.RunMigrations,
	}, nil
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setBoolFromEnv(target *bool, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = b
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
