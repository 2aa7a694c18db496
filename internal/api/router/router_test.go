package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/medibook-platform/internal/http/handlers"
	"github.com/medibook/medibook-platform/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ms := store.NewMemoryStore()
	ms.SeedDemoData()
	return New(&Config{
		DirectoryHandler: handlers.NewDirectoryHandler(ms, nil, nil),
		SymptomsHandler:  handlers.NewSymptomsHandler(ms, nil),
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestDoctorsRouteWired(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var doctors []store.DoctorWithUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doctors))
	assert.Len(t, doctors, 2)
}

func TestSymptomsRouteWired(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/symptoms", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var labels []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &labels))
	assert.Len(t, labels, 30)
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
