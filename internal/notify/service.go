package notify

import (
	"context"
	"fmt"

	"github.com/medibook/medibook-platform/internal/store"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// NotificationStore is the slice of the data layer this service writes to.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *store.Notification) (*store.Notification, error)
}

// Service records in-app notifications. It is the fallback path for events
// a user has no live session for.
type Service struct {
	logger *logging.Logger
	store  NotificationStore
}

func NewService(logger *logging.Logger, notificationStore NotificationStore) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{logger: logger, store: notificationStore}
}

// NotifyNewChatMessage records an unread-message notification. Metadata
// carries enough for a client to deep-link back into the conversation.
func (s *Service) NotifyNewChatMessage(ctx context.Context, userID int64, msg store.ChatMessage) error {
	n, err := s.store.CreateNotification(ctx, &store.Notification{
		UserID:  userID,
		Type:    "chat_message",
		Title:   "New Message",
		Message: "You have a new chat message.",
		Metadata: map[string]any{
			"appointmentId": msg.AppointmentID,
			"messageId":     msg.ID,
		},
	})
	if err != nil {
		return fmt.Errorf("notify: chat message notification: %w", err)
	}
	s.logger.Info("notification created",
		"notification_id", n.ID, "user_id", userID, "type", "chat_message")
	return nil
}

// NotifyAppointmentBooked records a booking confirmation for the patient.
func (s *Service) NotifyAppointmentBooked(ctx context.Context, userID int64, doctorName string, appt store.Appointment) error {
	n, err := s.store.CreateNotification(ctx, &store.Notification{
		UserID:  userID,
		Type:    "appointment",
		Title:   "Appointment Scheduled",
		Message: fmt.Sprintf("Your appointment with %s on %s at %s has been scheduled.", doctorName, appt.Date, appt.Time),
		Metadata: map[string]any{
			"appointmentId": appt.ID,
		},
	})
	if err != nil {
		return fmt.Errorf("notify: appointment notification: %w", err)
	}
	s.logger.Info("notification created",
		"notification_id", n.ID, "user_id", userID, "type", "appointment")
	return nil
}
