package httpapi

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"
)

// JSON writes payload with the given status. Responses carry the current
// time or live status, so caches are told not to keep them.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// ErrorResponse is the body of every error this service writes itself.
type ErrorResponse struct {
	Error             string `json:"error"`
	Code              string `json:"code,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// RateLimited writes a 429 with Retry-After rounded up to whole seconds,
// never less than one.
func RateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	JSON(w, http.StatusTooManyRequests, ErrorResponse{
		Error:             "too many requests",
		Code:              "rate_limited",
		RetryAfterSeconds: seconds,
	})
}
