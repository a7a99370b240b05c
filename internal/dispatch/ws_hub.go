// Package dispatch fans community feed updates out to connected websocket
// clients.
package dispatch

import (
	"log/slog"
	"sync"

	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/observability"
)

// Conn is the part of *websocket.Conn the hub writes through.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// WSSession serializes writes to one connection; websocket connections allow
// a single concurrent writer.
type WSSession struct {
	conn Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Hub holds feed subscribers.
type Hub struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[*WSSession]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, sessions: make(map[*WSSession]struct{})}
}

// Add subscribes conn and returns its session. Remove it when the client goes
// away.
func (h *Hub) Add(conn Conn) *WSSession {
	s := &WSSession{conn: conn}
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	n := len(h.sessions)
	h.mu.Unlock()
	observability.FeedSubscribers.Set(float64(n))
	return s
}

func (h *Hub) Remove(s *WSSession) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	n := len(h.sessions)
	h.mu.Unlock()
	if ok {
		_ = s.conn.Close()
		observability.FeedSubscribers.Set(float64(n))
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast sends the update to every subscriber. Subscribers that fail a
// write are dropped.
func (h *Hub) Broadcast(u models.StationUpdate) {
	h.mu.RLock()
	targets := make([]*WSSession, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.Send(u); err != nil {
			h.logger.Warn("ws send failed, dropping subscriber", "error", err)
			h.Remove(s)
		}
	}
}
