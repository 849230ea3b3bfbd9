package reports

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Handler handles report HTTP requests.
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new report handler.
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "reports").Logger(),
	}
}

// HandleProfit handles GET /profit - realized profit for an optional window.
func (h *Handler) HandleProfit(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var startAt, endAt *time.Time
	if start := query.Get("start"); start != "" {
		day, err := h.service.ParseDay(start)
		if err != nil {
			http.Error(w, "Invalid start. Use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		startAt = &day
	}
	if end := query.Get("end"); end != "" {
		day, err := h.service.ParseDay(end)
		if err != nil {
			http.Error(w, "Invalid end. Use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		// Inclusive end date.
		bound := day.AddDate(0, 0, 1).Add(-time.Second)
		endAt = &bound
	}
	if startAt != nil && endAt != nil && startAt.After(*endAt) {
		http.Error(w, "start must be <= end", http.StatusBadRequest)
		return
	}

	report, err := h.service.ProfitReport(startAt, endAt)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute profit report")
		http.Error(w, "Failed to compute profit report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// HandleDaily handles GET /daily - report for one day, default today.
func (h *Handler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if value := r.URL.Query().Get("date"); value != "" {
		day, err := h.service.ParseDay(value)
		if err != nil {
			http.Error(w, "Invalid date. Use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = day
	}

	report, err := h.service.Daily(date)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build daily report")
		http.Error(w, "Failed to build daily report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// HandleMonthly handles GET /monthly - report for one calendar month.
func (h *Handler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	year, err := strconv.Atoi(query.Get("year"))
	if err != nil {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}
	monthNum, err := strconv.Atoi(query.Get("month"))
	if err != nil {
		http.Error(w, "Invalid month", http.StatusBadRequest)
		return
	}

	report, err := h.service.Monthly(year, time.Month(monthNum))
	if err != nil {
		if errors.Is(err, ErrInvalid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to build monthly report")
		http.Error(w, "Failed to build monthly report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
