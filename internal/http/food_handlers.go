package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/example/railsahayak/internal/food"
	"github.com/example/railsahayak/internal/models"
)

type menuItem struct {
	models.FoodItem
	Orderable bool `json:"orderable"`
}

type cartResponse struct {
	Items    []models.FoodItem `json:"items"`
	Subtotal int               `json:"total"`
	GST      int               `json:"gst"`
	Final    int               `json:"final_total"`
}

type addToCartRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

func newCartResponse(items []models.FoodItem) cartResponse {
	sub, gst, total := food.Totals(items)
	return cartResponse{Items: items, Subtotal: sub, GST: gst, Final: total}
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	menu := s.Food.Menu()
	out := make([]menuItem, 0, len(menu))
	for _, it := range menu {
		out = append(out, menuItem{FoodItem: it, Orderable: s.Food.Orderable(it)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newCartResponse(s.Food.Cart(sessionToken(r.Context()))))
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !s.decode(w, r, &req) {
		return
	}
	items, err := s.Food.Add(sessionToken(r.Context()), req.ItemID)
	switch {
	case errors.Is(err, food.ErrUnknownItem):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, food.ErrOutsideHaltWindow):
		writeError(w, http.StatusUnprocessableEntity, food.HaltWindowWarning)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(items))
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		// route pattern admits only digits; this is an overflow
		idx = -1
	}
	writeJSON(w, http.StatusOK, newCartResponse(s.Food.Remove(sessionToken(r.Context()), idx)))
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	p := profileFromContext(r.Context())
	receipt, err := s.Food.Checkout(r.Context(), sessionToken(r.Context()), p.ID)
	switch {
	case errors.Is(err, food.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, food.ErrCheckoutInFlight):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		// the client went away mid checkout
		s.logger.Info("checkout abandoned", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
