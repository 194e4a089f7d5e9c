package system

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrymomot/release-agent/core"
)

// Probe reports whether one dependency is reachable.
type Probe func(ctx context.Context) error

// HealthHandler answers liveness checks by running each registered probe.
// Any failed probe degrades the response to 503.
type HealthHandler struct {
	probes  map[string]Probe
	timeout time.Duration
}

func NewHealthHandler(probes map[string]Probe) *HealthHandler {
	return &HealthHandler{probes: probes, timeout: 5 * time.Second}
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report := healthReport{Status: "ok", Checks: make(map[string]string, len(h.probes))}
	healthy := true
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			report.Checks[name] = err.Error()
			healthy = false
			continue
		}
		report.Checks[name] = "ok"
	}

	if !healthy {
		report.Status = "degraded"
		core.Render(w, r, core.JSONWithStatus(http.StatusServiceUnavailable, report))
		return
	}
	core.Render(w, r, core.JSON(report))
}
