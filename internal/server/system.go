package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// handleHealth answers liveness probes with a database ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	if err := s.db.HealthCheck(ctx); err != nil {
		s.log.Error().Err(err).Msg("Health check failed")
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]interface{}{
		"status":  status,
		"service": "kassa",
	})
}

// handleSystemStatus returns process and database figures for the
// operations dashboard.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuAvg, memUsed := s.systemStats()

	var jobs []string
	if s.jobNames != nil {
		jobs = s.jobNames()
	}

	response := map[string]interface{}{
		"status":         "ok",
		"uptime_hours":   time.Since(s.startup).Hours(),
		"cpu_percent":    cpuAvg,
		"memory_percent": memUsed,
		"timezone":       s.cfg.Timezone,
		"jobs":           jobs,
	}

	if stats, err := s.db.GetStats(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to collect database stats")
	} else {
		response["database"] = map[string]interface{}{
			"name":  s.db.Name(),
			"stats": stats,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// systemStats samples CPU and RAM usage percentages. The CPU reading
// uses a 100ms window so the endpoint stays fast for pollers.
func (s *Server) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
