package backup

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Handler handles backup HTTP requests.
type Handler struct {
	service  *Service
	location *time.Location
	log      zerolog.Logger
}

// NewHandler creates a new backup handler.
func NewHandler(service *Service, location *time.Location, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		location: location,
		log:      log.With().Str("handler", "backup").Logger(),
	}
}

// HandleRun handles POST /run - trigger a backup of the current day.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Run(r.Context(), time.Now().In(h.location))
	if err != nil {
		h.log.Error().Err(err).Msg("Backup run failed")
		http.Error(w, "Backup run failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
