package currencies

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Handler handles currency HTTP requests.
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new currency handler.
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "currencies").Logger(),
	}
}

// HandleList handles GET / - list supported currencies.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list currencies")
		http.Error(w, "Failed to retrieve currencies", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}
