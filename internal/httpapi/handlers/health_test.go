package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	now := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
	h := NewHealthHandler("time-service", func() time.Time { return now })
	now = now.Add(90 * time.Second)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "time-service", body.Service)
	assert.EqualValues(t, 90, body.UptimeSeconds)
	_, err := uuid.Parse(body.Instance)
	assert.NoError(t, err)
}

func TestHealthInstancesDiffer(t *testing.T) {
	a := NewHealthHandler("time-service", nil)
	b := NewHealthHandler("time-service", nil)
	assert.NotEqual(t, a.instance, b.instance)
}

func TestIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Hello, world!"}`, rec.Body.String())
}

func TestOpenAPIJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	OpenAPIJSON(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	require.Contains(t, doc.Paths, "/time")
	assert.Contains(t, doc.Paths["/time"], "get")
}

func TestSwaggerUI(t *testing.T) {
	rec := httptest.NewRecorder()
	SwaggerUI(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/openapi.json")
}
