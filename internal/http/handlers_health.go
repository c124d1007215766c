package httpx

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// healthChecker reports whether the cache is reachable.
type healthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler reports readiness: the process is up, and so are its stores.
type HealthHandler struct {
	db    Pinger
	cache healthChecker
}

// NewHealthHandler constructs a HealthHandler. Either dependency may be nil,
// in which case that probe is skipped.
func NewHealthHandler(db Pinger, cache healthChecker) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// ServeHTTP probes the stores with a short deadline and reports per-check
// status. Any failing check turns the whole response into a 503.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		checks["database"] = "ok"
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
	}
	if h.cache != nil {
		checks["redis"] = "ok"
		if err := h.cache.Health(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	WriteJSON(w, status, map[string]any{"status": overall, "checks": checks})
}
