package httpapi

import (
	"errors"
	"net/http"

	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/session"
)

type loginRequest struct {
	Provider string `json:"provider" validate:"omitempty,oneof=GOOGLE EMAIL"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
	Name     string `json:"name" validate:"max=80"`
	IDToken  string `json:"id_token"`
	SignUp   bool   `json:"sign_up"`
}

type loginResponse struct {
	Token string             `json:"token"`
	User  models.UserProfile `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	token, p, err := s.Sessions.Login(r.Context(), session.Credentials{
		Provider: models.AuthProvider(req.Provider),
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		IDToken:  req.IDToken,
		SignUp:   req.SignUp,
	})
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, session.ErrUnsupportedLogin):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("sign in failed", "error", err)
		writeError(w, http.StatusBadGateway, "sign in is unavailable right now")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: p})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profileFromContext(r.Context()))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Logout(r.Context(), sessionToken(r.Context())); err != nil {
		// local state is already gone; the stale fallback copy expires on its own
		s.logger.Warn("profile fallback delete failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
