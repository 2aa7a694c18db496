package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/medibook/medibook-platform/internal/store"
)

// deliver persists a chat message, resolves the conversation's participants,
// fans the stored message out to every live session in the conversation, and
// records a notification for the other participant when they have no live
// view of it. Persistence failures abort delivery. A conversation that
// vanished since the join leaves the persisted message orphaned in history:
// no fan-out, no notification, and the wrapped ErrNotFound tells the caller
// to answer the sender. Everything after the broadcast is best effort.
func (h *Handler) deliver(ctx context.Context, msg *store.ChatMessage) error {
	persisted, err := h.store.CreateChatMessage(ctx, msg)
	if err != nil {
		return fmt.Errorf("chat: persist message: %w", err)
	}

	appt, err := h.store.GetAppointment(ctx, persisted.AppointmentID)
	if err != nil {
		return fmt.Errorf("chat: conversation lookup: %w", err)
	}

	live := h.registry.SessionsIn(persisted.AppointmentID)
	h.registry.BroadcastMessage(persisted.AppointmentID, *persisted)
	h.metrics.ObserveDelivery(len(live))

	h.notifyRecipient(ctx, appt, *persisted)
	return nil
}

// notifyRecipient resolves the other participant of the conversation and
// stores a notification unless they are watching it live, here or on
// another process.
func (h *Handler) notifyRecipient(ctx context.Context, appt *store.Appointment, msg store.ChatMessage) {
	if h.notifier == nil {
		return
	}

	recipient, err := h.resolveRecipient(ctx, appt, msg)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.logger.Warn("chat message has no resolvable recipient",
				"appointment_id", msg.AppointmentID, "message_id", msg.ID)
			return
		}
		h.logger.Error("chat recipient lookup failed",
			"appointment_id", msg.AppointmentID, "message_id", msg.ID, "error", err)
		return
	}

	if h.registry.ConversationHasUser(msg.AppointmentID, recipient) {
		return
	}
	online, err := h.presence.IsOnline(ctx, msg.AppointmentID, recipient)
	if err != nil {
		h.logger.Warn("presence check failed, assuming offline",
			"appointment_id", msg.AppointmentID, "user_id", recipient, "error", err)
	}
	if online {
		return
	}

	if err := h.notifier.NotifyNewChatMessage(ctx, recipient, msg); err != nil {
		h.metrics.ObserveNotification("error")
		h.logger.Error("chat notification failed",
			"appointment_id", msg.AppointmentID, "user_id", recipient, "error", err)
		return
	}
	h.metrics.ObserveNotification("created")
}

// resolveRecipient maps a message to the participant who did not send it: a
// patient's message goes to the appointment's doctor (by the doctor's user
// account), a doctor's message goes to the booked patient.
func (h *Handler) resolveRecipient(ctx context.Context, appt *store.Appointment, msg store.ChatMessage) (int64, error) {
	if msg.SenderType == "patient" {
		doctor, err := h.store.GetDoctor(ctx, appt.DoctorID)
		if err != nil {
			return 0, err
		}
		return doctor.UserID, nil
	}
	return appt.PatientID, nil
}
