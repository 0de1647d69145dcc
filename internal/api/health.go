package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"
)

type HealthHandler struct {
	startTime time.Time
	version   string
	deps      *Dependencies
}

func NewHealthHandler(version string, deps *Dependencies) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		version:   version,
		deps:      deps,
	}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	GoVersion string `json:"go_version"`
	Timestamp string `json:"timestamp"`
}

// Health returns a basic health check response
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		GoVersion: runtime.Version(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Ready reports whether the service can take calls: the database must
// answer and the telephony client must be healthy.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"database":  "ok",
		"telephony": "ok",
	}
	ready := true

	if h.deps == nil || h.deps.DB == nil {
		checks["database"] = "unavailable"
		ready = false
	} else if err := h.deps.DB.Conn().PingContext(r.Context()); err != nil {
		checks["database"] = "unavailable"
		ready = false
	}

	if h.deps == nil || h.deps.Twilio == nil || !h.deps.Twilio.IsHealthy() {
		checks["telephony"] = "unavailable"
		ready = false
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": state,
		"checks": checks,
	})
}

// Status reports the telephony account state for the settings screen:
// client health and the current account balance.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	healthy := h.deps != nil && h.deps.Twilio != nil && h.deps.Twilio.IsHealthy()

	status := map[string]interface{}{
		"telephony_healthy": healthy,
	}
	if healthy {
		balance, err := h.deps.Twilio.GetAccountBalance(r.Context())
		if err != nil {
			slog.Warn("Balance lookup failed", "error", err)
		} else {
			status["account_balance"] = balance
		}
	}

	WriteJSON(w, http.StatusOK, status)
}

// Live returns whether the application is alive
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}
