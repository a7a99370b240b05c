package httpapi

import (
	"errors"
	"net/http"

	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/services"
)

type bookRequest struct {
	Type      string `json:"type" validate:"required,oneof=COOLIE WHEELCHAIR CLOAKROOM MEDICAL"`
	LuggageKg int    `json:"luggage_kg" validate:"gte=0"`
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Services.Bookings(sessionToken(r.Context())))
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !s.decode(w, r, &req) {
		return
	}
	b, err := s.Services.Book(sessionToken(r.Context()), models.ServiceType(req.Type), req.LuggageKg)
	if errors.Is(err, services.ErrUnknownService) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleFindDoctor(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Services.FindDoctor(r.Context())
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"doctor": doc})
}
