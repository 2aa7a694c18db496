package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/medibook-platform/internal/store"
)

type captureStore struct {
	created []*store.Notification
	err     error
}

func (c *captureStore) CreateNotification(_ context.Context, n *store.Notification) (*store.Notification, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := *n
	out.ID = int64(len(c.created) + 1)
	c.created = append(c.created, &out)
	return &out, nil
}

func TestNotifyNewChatMessage(t *testing.T) {
	cs := &captureStore{}
	svc := NewService(nil, cs)

	err := svc.NotifyNewChatMessage(context.Background(), 7, store.ChatMessage{
		ID: 12, AppointmentID: 42, SenderID: 5, SenderType: "patient", Content: "hello",
	})
	require.NoError(t, err)

	require.Len(t, cs.created, 1)
	n := cs.created[0]
	assert.Equal(t, int64(7), n.UserID)
	assert.Equal(t, "chat_message", n.Type)
	assert.Equal(t, "New Message", n.Title)
	assert.Equal(t, int64(42), n.Metadata["appointmentId"])
	assert.Equal(t, int64(12), n.Metadata["messageId"])
}

func TestNotifyNewChatMessageStoreError(t *testing.T) {
	cs := &captureStore{err: errors.New("down")}
	svc := NewService(nil, cs)

	err := svc.NotifyNewChatMessage(context.Background(), 7, store.ChatMessage{ID: 1, AppointmentID: 42})
	assert.Error(t, err)
}

func TestNotifyAppointmentBooked(t *testing.T) {
	cs := &captureStore{}
	svc := NewService(nil, cs)

	err := svc.NotifyAppointmentBooked(context.Background(), 5, "Dr. Emily Chen", store.Appointment{
		ID: 42, PatientID: 5, DoctorID: 2, Date: "2026-09-01", Time: "10:30",
	})
	require.NoError(t, err)

	require.Len(t, cs.created, 1)
	n := cs.created[0]
	assert.Equal(t, "appointment", n.Type)
	assert.Contains(t, n.Message, "Dr. Emily Chen")
	assert.Contains(t, n.Message, "2026-09-01")
	assert.Equal(t, int64(42), n.Metadata["appointmentId"])
}
