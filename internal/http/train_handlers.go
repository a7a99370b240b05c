package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/observability"
)

const invalidQueryMessage = "Please enter a valid PNR (10 digits) or Train No (5 digits)"

func trainQuery(r *http.Request) (string, bool) {
	q := strings.TrimSpace(mux.Vars(r)["query"])
	return q, utf8.RuneCountInString(q) >= 5
}

func (s *Server) handleTrainStatus(w http.ResponseWriter, r *http.Request) {
	q, ok := trainQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, invalidQueryMessage)
		return
	}
	writeJSON(w, http.StatusOK, s.Resolver.Resolve(r.Context(), q))
}

// handleTrainStream sends the resolved status and then a drifted update on
// every tick until the client disconnects.
func (s *Server) handleTrainStream(w http.ResponseWriter, r *http.Request) {
	q, ok := trainQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, invalidQueryMessage)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	observability.StatusStreams.Inc()
	defer observability.StatusStreams.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go drainUntilClosed(conn, cancel)

	initial := s.Resolver.Resolve(ctx, q)
	err = s.Tracker.Run(ctx, initial, func(st models.TrainStatus) error {
		return conn.WriteJSON(st)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Debug("train stream ended", "query", q, "error", err)
	}
}

// drainUntilClosed reads and discards client frames so close frames are
// processed, and cancels once the connection is gone.
func drainUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
