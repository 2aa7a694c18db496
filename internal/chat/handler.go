package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/medibook/medibook-platform/internal/observability/metrics"
	"github.com/medibook/medibook-platform/internal/store"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// RecordStore is the slice of the data layer the chat handler needs.
type RecordStore interface {
	GetDoctor(ctx context.Context, id int64) (*store.Doctor, error)
	GetAppointment(ctx context.Context, id int64) (*store.Appointment, error)
	CreateChatMessage(ctx context.Context, msg *store.ChatMessage) (*store.ChatMessage, error)
	ListChatMessagesByAppointment(ctx context.Context, appointmentID int64) ([]store.ChatMessage, error)
}

// Notifier records an offline-recipient notification for a chat message.
type Notifier interface {
	NotifyNewChatMessage(ctx context.Context, userID int64, msg store.ChatMessage) error
}

// Handler upgrades HTTP requests to chat websocket sessions and runs the
// per-connection read loop.
type Handler struct {
	logger   *logging.Logger
	registry *Registry
	store    RecordStore
	notifier Notifier
	presence Presence
	metrics  *metrics.ChatMetrics
	upgrader websocket.Upgrader
}

// NewHandler wires a chat handler. notifier, presence and chatMetrics may be
// nil; the handler degrades to live-only delivery without them.
func NewHandler(logger *logging.Logger, registry *Registry, recordStore RecordStore, notifier Notifier, presence Presence, chatMetrics *metrics.ChatMetrics) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if presence == nil {
		presence = (*RedisPresence)(nil)
	}
	return &Handler{
		logger:   logger,
		registry: registry,
		store:    recordStore,
		notifier: notifier,
		presence: presence,
		metrics:  chatMetrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the SPA origin; auth happens at
			// the protocol level, not the HTTP layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and services frames until the client
// disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("chat websocket upgrade failed", "error", err)
		return
	}

	session := h.registry.Open(conn)
	h.metrics.ConnOpened()
	h.logger.Info("chat session opened", "session_id", session.ID(), "remote_addr", r.RemoteAddr)

	defer func() {
		h.teardown(r.Context(), session)
		h.metrics.ConnClosed()
		_ = conn.Close()
		h.logger.Info("chat session closed", "session_id", session.ID())
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("chat read failed", "session_id", session.ID(), "error", err)
			}
			return
		}
		h.handleRaw(r.Context(), session, data)
	}
}

// teardown removes the session from the registry and clears shared presence
// for whatever conversation it was bound to.
func (h *Handler) teardown(ctx context.Context, session *Session) {
	view, ok := h.registry.View(session.ID())
	h.registry.Close(session.ID())
	if !ok || !view.Joined() {
		return
	}
	if err := h.presence.MarkOffline(ctx, view.AppointmentID, view.Identity.UserID); err != nil {
		h.logger.Warn("presence mark offline failed", "session_id", session.ID(), "error", err)
	}
}

// handleRaw decodes and dispatches one frame. A panic in a frame handler
// answers with an error frame and leaves the connection up; one bad frame
// must not take down the session.
func (h *Handler) handleRaw(ctx context.Context, session *Session, data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("chat frame handler panicked", "session_id", session.ID(), "panic", rec)
			h.metrics.ObserveFrame("unknown", "panic")
			_ = session.send(newErrorFrame("internal error"))
		}
	}()

	frame, err := DecodeInbound(data)
	if err != nil {
		h.logger.Warn("chat frame rejected", "session_id", session.ID(), "error", err)
		h.metrics.ObserveFrame("unknown", "error")
		_ = session.send(newErrorFrame("invalid message format"))
		return
	}

	switch f := frame.(type) {
	case *AuthFrame:
		h.observe(FrameAuth, h.handleAuth(ctx, session, f))
	case *JoinFrame:
		h.observe(FrameJoin, h.handleJoin(ctx, session, f))
	case *MessageFrame:
		h.observe(FrameMessage, h.handleMessage(ctx, session, f))
	case *TypingFrame:
		h.observe(FrameTyping, h.handleTyping(session, f))
	}
}

func (h *Handler) observe(frameType string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.metrics.ObserveFrame(frameType, status)
}

// errProtocol marks frames rejected by protocol rules, already answered with
// an error frame. It only affects the frame outcome metric.
var errProtocol = errors.New("chat: protocol violation")

func (h *Handler) handleAuth(ctx context.Context, session *Session, f *AuthFrame) error {
	if f.UserType != "doctor" && f.UserType != "patient" {
		_ = session.send(newErrorFrame("invalid user type"))
		return errProtocol
	}
	if f.UserID == 0 {
		_ = session.send(newErrorFrame("userId required"))
		return errProtocol
	}

	ident := Identity{UserID: f.UserID, Role: f.UserType, DoctorID: f.DoctorID}
	view, ok := h.registry.View(session.ID())
	if !ok {
		return errProtocol
	}
	// A new identity cannot inherit the old one's conversation binding; the
	// join was authorized for the previous participant. SetIdentity drops
	// the binding, so shared presence is cleared here first.
	if view.Joined() && *view.Identity != ident {
		if err := h.presence.MarkOffline(ctx, view.AppointmentID, view.Identity.UserID); err != nil {
			h.logger.Warn("presence mark offline failed", "session_id", session.ID(), "error", err)
		}
	}
	if !h.registry.SetIdentity(session.ID(), ident) {
		return errProtocol
	}
	h.logger.Info("chat session authenticated",
		"session_id", session.ID(), "user_id", f.UserID, "user_type", f.UserType)
	return session.send(newAuthSuccessFrame(session.ID(), f.UserID, f.UserType))
}

func (h *Handler) handleJoin(ctx context.Context, session *Session, f *JoinFrame) error {
	view, ok := h.registry.View(session.ID())
	if !ok {
		return errProtocol
	}
	if !view.Authenticated() {
		_ = session.send(newErrorFrame("authentication required"))
		return errProtocol
	}

	appt, err := h.store.GetAppointment(ctx, f.AppointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = session.send(newErrorFrame("conversation not found"))
			return errProtocol
		}
		h.logger.Error("appointment lookup failed", "appointment_id", f.AppointmentID, "error", err)
		_ = session.send(newErrorFrame("failed to join chat"))
		return err
	}
	if !participates(view.Identity, appt) {
		_ = session.send(newErrorFrame("not authorized for this conversation"))
		return errProtocol
	}

	// Rebinding to another conversation drops shared presence in the old one.
	if view.Joined() && view.AppointmentID != f.AppointmentID {
		if err := h.presence.MarkOffline(ctx, view.AppointmentID, view.Identity.UserID); err != nil {
			h.logger.Warn("presence mark offline failed", "session_id", session.ID(), "error", err)
		}
	}

	if !h.registry.BeginJoin(session.ID(), f.AppointmentID) {
		return errProtocol
	}
	history, err := h.store.ListChatMessagesByAppointment(ctx, f.AppointmentID)
	if err != nil {
		h.registry.AbortJoin(session.ID())
		h.logger.Error("chat history load failed", "appointment_id", f.AppointmentID, "error", err)
		_ = session.send(newErrorFrame("failed to load chat history"))
		return err
	}
	if err := h.registry.CompleteJoin(session.ID(), f.AppointmentID, history); err != nil {
		return err
	}
	h.metrics.ObserveHistoryReplay(len(history))

	if err := h.presence.MarkOnline(ctx, f.AppointmentID, view.Identity.UserID); err != nil {
		h.logger.Warn("presence mark online failed", "session_id", session.ID(), "error", err)
	}
	h.logger.Info("chat session joined conversation",
		"session_id", session.ID(), "appointment_id", f.AppointmentID, "user_id", view.Identity.UserID)
	return nil
}

// participates reports whether the authenticated identity belongs to the
// appointment: the booked patient, or the doctor the appointment is with.
func participates(ident *Identity, appt *store.Appointment) bool {
	if ident == nil {
		return false
	}
	switch ident.Role {
	case "patient":
		return appt.PatientID == ident.UserID
	case "doctor":
		return appt.DoctorID == ident.DoctorID
	}
	return false
}

func (h *Handler) handleMessage(ctx context.Context, session *Session, f *MessageFrame) error {
	view, ok := h.registry.View(session.ID())
	if !ok {
		return errProtocol
	}
	if !view.Joined() {
		_ = session.send(newErrorFrame("join required"))
		return errProtocol
	}
	if f.Content == "" && f.AttachmentURL == "" {
		_ = session.send(newErrorFrame("message content required"))
		return errProtocol
	}

	msg := &store.ChatMessage{
		AppointmentID:  view.AppointmentID,
		SenderID:       view.Identity.UserID,
		SenderType:     view.Identity.Role,
		Content:        f.Content,
		AttachmentURL:  f.AttachmentURL,
		AttachmentType: f.AttachmentType,
	}
	if err := h.deliver(ctx, msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.logger.Warn("chat message sent to missing conversation",
				"session_id", session.ID(), "appointment_id", view.AppointmentID)
			_ = session.send(newErrorFrame("conversation not found"))
			return errProtocol
		}
		h.logger.Error("chat message delivery failed",
			"session_id", session.ID(), "appointment_id", view.AppointmentID, "error", err)
		_ = session.send(newErrorFrame("failed to send message"))
		return err
	}
	return nil
}

func (h *Handler) handleTyping(session *Session, f *TypingFrame) error {
	view, ok := h.registry.View(session.ID())
	if !ok || !view.Joined() {
		// Typing indicators are advisory; before a join there is nobody to
		// tell, so the frame is dropped without an error.
		return nil
	}
	h.registry.BroadcastFrame(view.AppointmentID, session.ID(),
		newTypingStatusFrame(view.Identity.UserID, view.Identity.Role, f.IsTyping))
	return nil
}
