package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/medibook-platform/internal/store"
)

type recordingBookingNotifier struct {
	calls []struct {
		UserID     int64
		DoctorName string
		Appt       store.Appointment
	}
}

func (r *recordingBookingNotifier) NotifyAppointmentBooked(_ context.Context, userID int64, doctorName string, appt store.Appointment) error {
	r.calls = append(r.calls, struct {
		UserID     int64
		DoctorName string
		Appt       store.Appointment
	}{userID, doctorName, appt})
	return nil
}

func newDirectoryFixture(t *testing.T) (*DirectoryHandler, *store.MemoryStore, *recordingBookingNotifier) {
	t.Helper()
	ms := store.NewMemoryStore()
	ms.SeedDemoData()
	n := &recordingBookingNotifier{}
	return NewDirectoryHandler(ms, n, nil), ms, n
}

func directoryRouter(h *DirectoryHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/doctors", h.ListDoctors)
	r.Get("/api/doctors/{id}", h.GetDoctor)
	r.Get("/api/appointments", h.ListAppointments)
	r.Post("/api/appointments", h.CreateAppointment)
	r.Get("/api/notifications", h.ListNotifications)
	r.Patch("/api/notifications/{id}/read", h.MarkNotificationRead)
	return r
}

func TestListDoctors(t *testing.T) {
	h, _, _ := newDirectoryFixture(t)
	router := directoryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var doctors []store.DoctorWithUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doctors))
	assert.Len(t, doctors, 2)
}

func TestListDoctorsBySpecialization(t *testing.T) {
	h, _, _ := newDirectoryFixture(t)
	router := directoryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors?specialization=Cardiologist", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var doctors []store.DoctorWithUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doctors))
	require.Len(t, doctors, 1)
	assert.Equal(t, "Dr. Emily Chen", doctors[0].User.FullName)
}

func TestGetDoctorNotFound(t *testing.T) {
	h, _, _ := newDirectoryFixture(t)
	router := directoryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/99", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAppointment(t *testing.T) {
	h, ms, notifier := newDirectoryFixture(t)
	router := directoryRouter(h)

	body := `{"patientId":1,"doctorId":1,"date":"2026-09-01","time":"10:30 AM"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var appt store.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.NotZero(t, appt.ID)
	assert.Equal(t, "pending", appt.Status)

	stored, err := ms.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01", stored.Date)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, int64(1), notifier.calls[0].UserID)
	assert.Equal(t, "Dr. Emily Chen", notifier.calls[0].DoctorName)
}

func TestCreateAppointmentUnknownDoctor(t *testing.T) {
	h, _, notifier := newDirectoryFixture(t)
	router := directoryRouter(h)

	body := `{"patientId":1,"doctorId":99,"date":"2026-09-01","time":"10:30 AM"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, notifier.calls)
}

func TestCreateAppointmentMissingFields(t *testing.T) {
	h, _, _ := newDirectoryFixture(t)
	router := directoryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(`{"patientId":1}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAppointmentsByRole(t *testing.T) {
	h, _, _ := newDirectoryFixture(t)
	router := directoryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments?userId=1&role=patient", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var appts []store.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appts))
	require.Len(t, appts, 1)
	assert.Equal(t, int64(1), appts[0].PatientID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments?userId=1&role=other", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationsFlow(t *testing.T) {
	h, ms, _ := newDirectoryFixture(t)
	router := directoryRouter(h)

	created, err := ms.CreateNotification(context.Background(), &store.Notification{
		UserID: 1, Type: "chat_message", Title: "New Message", Message: "You have a new chat message.",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications?userId=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []store.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.False(t, list[0].IsRead)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/notifications/1/read", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated store.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.IsRead)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/notifications/99/read", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
