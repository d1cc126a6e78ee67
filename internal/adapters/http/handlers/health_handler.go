package handlers

import (
	"net/http"
	"time"

	"github.com/jsamuelsen11/healthgate/internal/domain"
	"github.com/jsamuelsen11/healthgate/internal/ports"
)

const (
	statusOK       = "ok"
	statusReady    = "ready"
	statusNotReady = "not_ready"
)

// HealthHandler renders the orchestrator-facing liveness and readiness
// endpoints plus a detailed snapshot endpoint from registry state. It never
// triggers evaluations; the background scheduler owns those.
type HealthHandler struct {
	state ports.StateReader
}

// NewHealthHandler creates a HealthHandler over the given state reader.
func NewHealthHandler(state ports.StateReader) *HealthHandler {
	return &HealthHandler{state: state}
}

// checkSummary is the per-check entry in the readiness response.
type checkSummary struct {
	Name    string        `json:"name"`
	Status  domain.Status `json:"status"`
	Passing bool          `json:"passing"`
	Error   string        `json:"error,omitempty"`
}

// Liveness handles GET /health/live. Always returns 200 OK: the process is up
// and able to serve this response, which is all liveness means here.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": statusOK})
}

// Readiness handles GET /health/ready. Returns 200 when every
// readiness-affecting check is passing its debounced verdict, 503 otherwise.
// The response lists every check with its latest status so a failing probe is
// attributable from the probe output alone.
func (h *HealthHandler) Readiness(w http.ResponseWriter, _ *http.Request) {
	snaps := h.state.Snapshots()

	checks := make([]checkSummary, 0, len(snaps))
	for _, s := range snaps {
		checks = append(checks, checkSummary{
			Name:    s.Name,
			Status:  s.Status,
			Passing: s.Passing,
			Error:   s.Error,
		})
	}

	status := statusReady
	code := http.StatusOK
	if !domain.Ready(snaps) {
		status = statusNotReady
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// checkDetail is the per-check entry in the detail response.
type checkDetail struct {
	domain.Snapshot
	DurationMS float64 `json:"duration_ms"`
}

// Checks handles GET /health/checks: the full snapshot detail including
// hysteresis counters and thresholds, for humans debugging a readiness flap.
func (h *HealthHandler) Checks(w http.ResponseWriter, _ *http.Request) {
	snaps := h.state.Snapshots()

	details := make([]checkDetail, 0, len(snaps))
	for _, s := range snaps {
		details = append(details, checkDetail{
			Snapshot:   s,
			DurationMS: float64(s.Duration) / float64(time.Millisecond),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ready":  domain.Ready(snaps),
		"checks": details,
	})
}
