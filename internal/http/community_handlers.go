package httpapi

import (
	"errors"
	"net/http"

	"github.com/example/railsahayak/internal/community"
)

type postUpdateRequest struct {
	Text     string `json:"text" validate:"required,max=500"`
	Location string `json:"location" validate:"max=80"`
}

func (s *Server) handleListUpdates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Feed.List())
}

func (s *Server) handlePostUpdate(w http.ResponseWriter, r *http.Request) {
	var req postUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.Feed.Post(r.Context(), req.Text, req.Location, s.optionalProfile(r))
	if errors.Is(err, community.ErrEmptyReport) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Feed.Leaderboard())
}

// handleFeedStream subscribes the client to new community updates.
func (s *Server) handleFeedStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	sess := s.Hub.Add(conn)
	defer s.Hub.Remove(sess)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
