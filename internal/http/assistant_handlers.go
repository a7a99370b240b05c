package httpapi

import (
	"errors"
	"net/http"

	"github.com/example/railsahayak/internal/assistant"
)

type chatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}
	reply, err := s.Assistant.Send(r.Context(), sessionToken(r.Context()), req.Message)
	if errors.Is(err, assistant.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Assistant.Transcript(sessionToken(r.Context())))
}
