package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/baechuer/admin-console/internal/logger"
	"github.com/baechuer/admin-console/internal/transport/http/response"
)

// Checker reports whether one dependency can serve traffic.
type Checker func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]Checker
	timeout time.Duration
}

// NewHealthHandler takes named readiness checks; nil checks are skipped.
func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	cs := make(map[string]Checker, len(checks))
	for name, c := range checks {
		if c != nil {
			cs[name] = c
		}
	}
	return &HealthHandler{checks: cs, timeout: 2 * time.Second}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	ready := true
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			ready = false
			results[name] = "unavailable"
			logger.WithCtx(r.Context()).Warn().Err(err).Str("check", name).Msg("readiness_check_failed")
			continue
		}
		results[name] = "ok"
	}

	if !ready {
		response.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"checks": results,
		})
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": results})
}
