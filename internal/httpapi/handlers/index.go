package handlers

import (
	"net/http"

	"github.com/bengobox/time-service/internal/httpapi"
)

// Index greets callers hitting the service root.
func Index(w http.ResponseWriter, r *http.Request) {
	httpapi.JSON(w, http.StatusOK, map[string]string{
		"message": "Hello, world!",
	})
}
