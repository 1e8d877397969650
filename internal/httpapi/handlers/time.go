package handlers

import (
	"net/http"

	"github.com/bengobox/time-service/internal/clock"
	"github.com/bengobox/time-service/internal/httpapi"
)

// TimestampLayout is an ISO-8601 local date-time: microsecond fraction with
// trailing zeros trimmed and no zone offset.
const TimestampLayout = "2006-01-02T15:04:05.999999"

// TimeResponse is the body returned by GET /time.
type TimeResponse struct {
	Timestamp string `json:"timestamp"`
}

// TimeHandler serves the current server time.
type TimeHandler struct {
	now clock.Func
}

// NewTimeHandler constructs a TimeHandler reading from now. A nil clock falls
// back to the system clock.
func NewTimeHandler(now clock.Func) *TimeHandler {
	if now == nil {
		now = clock.System
	}
	return &TimeHandler{now: now}
}

// Time responds with {"timestamp": "<ISO-8601 local date-time>"}, rendered
// in the process-local zone whatever zone the clock reports.
func (h *TimeHandler) Time(w http.ResponseWriter, r *http.Request) {
	httpapi.JSON(w, http.StatusOK, TimeResponse{
		Timestamp: h.now().Local().Format(TimestampLayout),
	})
}
