package handlers

import (
	"net/http"
	"time"

	"github.com/bengobox/time-service/internal/clock"
	"github.com/bengobox/time-service/internal/httpapi"
	"github.com/google/uuid"
)

// HealthResponse reports liveness for load balancers and probes.
type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Instance      string `json:"instance"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// HealthHandler responds with basic service status.
type HealthHandler struct {
	service  string
	instance uuid.UUID
	started  time.Time
	now      clock.Func
}

// NewHealthHandler records the start time and assigns a random instance id so
// replicas behind a balancer can be told apart.
func NewHealthHandler(service string, now clock.Func) *HealthHandler {
	if now == nil {
		now = clock.System
	}
	return &HealthHandler{
		service:  service,
		instance: uuid.New(),
		started:  now(),
		now:      now,
	}
}

// Health responds with basic service status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	httpapi.JSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Service:       h.service,
		Instance:      h.instance.String(),
		UptimeSeconds: int64(h.now().Sub(h.started) / time.Second),
	})
}
