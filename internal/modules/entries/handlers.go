package entries

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles cash entry HTTP requests.
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new cash entry handler.
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "entries").Logger(),
	}
}

// HandleCreate handles POST / - create a cash entry.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in NewEntry
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	entry, err := h.service.Create(in)
	if err != nil {
		if errors.Is(err, ErrInvalid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to create entry")
		http.Error(w, "Failed to create entry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}

// HandleList handles GET / - list entries with filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var f Filter
	if startDate := query.Get("start_date"); startDate != "" {
		day, err := h.service.ParseDay(startDate)
		if err != nil {
			http.Error(w, "Invalid start_date. Use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		f.From = &day
	}
	if endDate := query.Get("end_date"); endDate != "" {
		day, err := h.service.ParseDay(endDate)
		if err != nil {
			http.Error(w, "Invalid end_date. Use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		// Inclusive end date, exclusive upper bound.
		end := day.AddDate(0, 0, 1)
		f.To = &end
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		http.Error(w, "start_date must be <= end_date", http.StatusBadRequest)
		return
	}

	f.ClientName = query.Get("client")
	f.CurrencyCode = query.Get("currency")

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > maxPageSize {
			http.Error(w, "Invalid limit. Must be 1-500", http.StatusBadRequest)
			return
		}
		f.Limit = limit
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			http.Error(w, "Invalid offset", http.StatusBadRequest)
			return
		}
		f.Offset = offset
	}

	page, err := h.service.List(f)
	if err != nil {
		if errors.Is(err, ErrInvalid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to list entries")
		http.Error(w, "Failed to retrieve entries", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

// HandleDelete handles DELETE /{id} - hard delete an entry.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid entry ID", http.StatusBadRequest)
		return
	}

	deleted, err := h.service.Delete(id)
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Failed to delete entry")
		http.Error(w, "Failed to delete entry", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Entry not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Entry deleted",
		"id":      id,
	})
}

// HandleBalances handles GET /balances - all-time balances per currency.
func (h *Handler) HandleBalances(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.CashTotal()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute balances")
		http.Error(w, "Failed to retrieve balances", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(total)
}

// HandleDebts handles GET /debts - per-client outstanding positions.
func (h *Handler) HandleDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.service.ClientDebts()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute client debts")
		http.Error(w, "Failed to retrieve debts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(debts)
}
