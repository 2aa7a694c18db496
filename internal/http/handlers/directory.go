package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/medibook-platform/internal/store"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// DirectoryStore is the slice of the data layer the directory API reads and
// writes.
type DirectoryStore interface {
	GetDoctorWithUser(ctx context.Context, id int64) (*store.DoctorWithUser, error)
	ListDoctorsWithUsers(ctx context.Context) ([]store.DoctorWithUser, error)
	ListDoctorsBySpecialization(ctx context.Context, specialization string) ([]store.DoctorWithUser, error)

	CreateAppointment(ctx context.Context, appt *store.Appointment) (*store.Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID int64) ([]store.Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID int64) ([]store.Appointment, error)

	ListNotificationsByUser(ctx context.Context, userID int64) ([]store.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) (*store.Notification, error)
}

// BookingNotifier records the confirmation notification after a booking.
type BookingNotifier interface {
	NotifyAppointmentBooked(ctx context.Context, userID int64, doctorName string, appt store.Appointment) error
}

// DirectoryHandler serves the doctor directory, appointment booking and
// notification endpoints.
type DirectoryHandler struct {
	store    DirectoryStore
	notifier BookingNotifier
	logger   *logging.Logger
}

func NewDirectoryHandler(directoryStore DirectoryStore, notifier BookingNotifier, logger *logging.Logger) *DirectoryHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DirectoryHandler{store: directoryStore, notifier: notifier, logger: logger}
}

// ListDoctors returns every doctor, optionally filtered by specialization.
// GET /api/doctors?specialization=Cardiologist
func (h *DirectoryHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	specialization := r.URL.Query().Get("specialization")

	var (
		doctors []store.DoctorWithUser
		err     error
	)
	if specialization != "" {
		doctors, err = h.store.ListDoctorsBySpecialization(r.Context(), specialization)
	} else {
		doctors, err = h.store.ListDoctorsWithUsers(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		jsonError(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}
	if doctors == nil {
		doctors = []store.DoctorWithUser{}
	}
	writeJSON(w, http.StatusOK, doctors)
}

// GetDoctor returns one doctor profile with its user account.
// GET /api/doctors/{id}
func (h *DirectoryHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid doctor id", http.StatusBadRequest)
		return
	}

	doctor, err := h.store.GetDoctorWithUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "Doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get doctor", "doctor_id", id, "error", err)
		jsonError(w, "failed to get doctor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// ListAppointments returns appointments for a user, patient or doctor side.
// GET /api/appointments?userId=5&role=patient
func (h *DirectoryHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		jsonError(w, "userId is required", http.StatusBadRequest)
		return
	}

	var appointments []store.Appointment
	switch r.URL.Query().Get("role") {
	case "patient":
		appointments, err = h.store.ListAppointmentsByPatient(r.Context(), userID)
	case "doctor":
		appointments, err = h.store.ListAppointmentsByDoctor(r.Context(), userID)
	default:
		jsonError(w, "role must be patient or doctor", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to list appointments", "user_id", userID, "error", err)
		jsonError(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appointments == nil {
		appointments = []store.Appointment{}
	}
	writeJSON(w, http.StatusOK, appointments)
}

// CreateAppointmentRequest is the booking payload.
type CreateAppointmentRequest struct {
	PatientID int64  `json:"patientId"`
	DoctorID  int64  `json:"doctorId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// CreateAppointment books an appointment and notifies the patient.
// POST /api/appointments
func (h *DirectoryHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.PatientID == 0 || req.DoctorID == 0 || req.Date == "" || req.Time == "" {
		jsonError(w, "patientId, doctorId, date and time are required", http.StatusBadRequest)
		return
	}

	doctor, err := h.store.GetDoctorWithUser(r.Context(), req.DoctorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "Doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get doctor for booking", "doctor_id", req.DoctorID, "error", err)
		jsonError(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	appt, err := h.store.CreateAppointment(r.Context(), &store.Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Status:    "pending",
	})
	if err != nil {
		h.logger.Error("failed to create appointment", "error", err)
		jsonError(w, "Failed to create appointment", http.StatusBadRequest)
		return
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyAppointmentBooked(r.Context(), appt.PatientID, doctor.User.FullName, *appt); err != nil {
			// Booking already succeeded; the notification is best effort.
			h.logger.Warn("booking notification failed", "appointment_id", appt.ID, "error", err)
		}
	}

	h.logger.Info("appointment created",
		"appointment_id", appt.ID, "patient_id", appt.PatientID, "doctor_id", appt.DoctorID)
	writeJSON(w, http.StatusCreated, appt)
}

// ListNotifications returns a user's notifications, newest first.
// GET /api/notifications?userId=5
func (h *DirectoryHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		jsonError(w, "User ID is required", http.StatusBadRequest)
		return
	}

	notifications, err := h.store.ListNotificationsByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list notifications", "user_id", userID, "error", err)
		jsonError(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []store.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

// MarkNotificationRead flags one notification as read.
// PATCH /api/notifications/{id}/read
func (h *DirectoryHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid notification id", http.StatusBadRequest)
		return
	}

	notification, err := h.store.MarkNotificationRead(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "Notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to mark notification read", "notification_id", id, "error", err)
		jsonError(w, "failed to update notification", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, notification)
}
