package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreChatMessages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.CreateChatMessage(ctx, &ChatMessage{
		AppointmentID: 42, SenderID: 5, SenderType: "patient", Content: "hello",
	})
	require.NoError(t, err)
	second, err := s.CreateChatMessage(ctx, &ChatMessage{
		AppointmentID: 42, SenderID: 7, SenderType: "doctor", Content: "hi there",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	msgs, err := s.ListChatMessagesByAppointment(ctx, 42)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "hi there", msgs[1].Content)

	other, err := s.ListChatMessagesByAppointment(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryStoreAppointments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	appt, err := s.CreateAppointment(ctx, &Appointment{PatientID: 5, DoctorID: 2, Date: "2026-09-01", Time: "10:00 AM"})
	require.NoError(t, err)
	assert.Equal(t, "pending", appt.Status)

	got, err := s.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.PatientID)
	assert.Equal(t, int64(2), got.DoctorID)

	_, err = s.GetAppointment(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	byPatient, err := s.ListAppointmentsByPatient(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, byPatient, 1)

	byDoctor, err := s.ListAppointmentsByDoctor(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, byDoctor, 1)
}

func TestMemoryStoreDoctorJoin(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := s.AddUser(&User{Username: "emily", FullName: "Dr. Emily Chen", Role: "doctor"})
	d := s.AddDoctor(&Doctor{UserID: u.ID, Specialization: "Cardiologist", Hospital: "City Medical"})

	all, err := s.ListDoctorsWithUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, d.ID, all[0].ID)
	assert.Equal(t, "Dr. Emily Chen", all[0].User.FullName)

	cardio, err := s.ListDoctorsBySpecialization(ctx, "cardiologist")
	require.NoError(t, err)
	assert.Len(t, cardio, 1)

	none, err := s.ListDoctorsBySpecialization(ctx, "Dermatologist")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStoreNotifications(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	n, err := s.CreateNotification(ctx, &Notification{
		UserID: 7, Type: "chat_message", Title: "New Message",
		Metadata: map[string]any{"appointmentId": int64(42)},
	})
	require.NoError(t, err)
	assert.False(t, n.IsRead)

	read, err := s.MarkNotificationRead(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	list, err := s.ListNotificationsByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsRead)

	_, err = s.MarkNotificationRead(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedDemoData(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.SeedDemoData()

	doctors, err := s.ListDoctorsWithUsers(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, doctors)

	appt, err := s.GetAppointment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", appt.Status)
}
