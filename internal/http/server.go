package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/railsahayak/internal/assistant"
	"github.com/example/railsahayak/internal/community"
	"github.com/example/railsahayak/internal/dispatch"
	"github.com/example/railsahayak/internal/food"
	"github.com/example/railsahayak/internal/services"
	"github.com/example/railsahayak/internal/session"
	"github.com/example/railsahayak/internal/trainstatus"
)

// Deps are the domain services the API fronts.
type Deps struct {
	Resolver  *trainstatus.Resolver
	Tracker   *trainstatus.Tracker
	Food      *food.Service
	Services  *services.Service
	Feed      *community.Feed
	Hub       *dispatch.Hub
	Assistant *assistant.Assistant
	Sessions  *session.Manager

	// Ready reports whether backing stores are reachable. Nil means always
	// ready.
	Ready func(ctx context.Context) error

	CORSOrigins []string
}

type Server struct {
	Deps
	logger   *slog.Logger
	mux      *mux.Router
	handler  http.Handler
	validate *validator.Validate
	upgrader websocket.Upgrader
	closers  []io.Closer
}

func NewServer(d Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Deps:     d,
		logger:   logger,
		mux:      mux.NewRouter(),
		validate: newValidator(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.registerMiddleware()
	s.routes()

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})(s.mux)
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.HandleFunc("/ready", s.handleReady).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())

	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/trains/{query}/status", s.handleTrainStatus).Methods("GET")
	api.HandleFunc("/food/menu", s.handleMenu).Methods("GET")
	api.HandleFunc("/community/updates", s.handleListUpdates).Methods("GET")
	api.HandleFunc("/community/updates", s.handlePostUpdate).Methods("POST")
	api.HandleFunc("/community/leaderboard", s.handleLeaderboard).Methods("GET")

	authed := api.NewRoute().Subrouter()
	authed.Use(s.sessionMiddleware)
	authed.HandleFunc("/auth/me", s.handleMe).Methods("GET")
	authed.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")
	authed.HandleFunc("/food/cart", s.handleCart).Methods("GET")
	authed.HandleFunc("/food/cart", s.handleAddToCart).Methods("POST")
	authed.HandleFunc("/food/cart/{index:[0-9]+}", s.handleRemoveFromCart).Methods("DELETE")
	authed.HandleFunc("/food/checkout", s.handleCheckout).Methods("POST")
	authed.HandleFunc("/services/bookings", s.handleBookings).Methods("GET")
	authed.HandleFunc("/services/bookings", s.handleBook).Methods("POST")
	authed.HandleFunc("/services/doctor", s.handleFindDoctor).Methods("POST")
	authed.HandleFunc("/assistant/chat", s.handleChat).Methods("POST")
	authed.HandleFunc("/assistant/transcript", s.handleTranscript).Methods("GET")

	s.mux.HandleFunc("/ws/trains/{query}", s.handleTrainStream).Methods("GET")
	s.mux.HandleFunc("/ws/community", s.handleFeedStream).Methods("GET")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Ready(ctx); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	w.WriteHeader(200)
	w.Write([]byte("ready"))
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
