package chat

import (
	"encoding/json"
	"fmt"

	"github.com/medibook/medibook-platform/internal/store"
)

// Inbound frame types accepted over the chat socket.
const (
	FrameAuth    = "auth"
	FrameJoin    = "join_appointment_chat"
	FrameMessage = "chat_message"
	FrameTyping  = "typing_status"
)

// Outbound frame types pushed to clients.
const (
	FrameAuthSuccess = "auth_success"
	FrameJoinSuccess = "join_success"
	FrameHistory     = "chat_history"
	FrameError       = "error"
)

// InboundFrame is the closed set of frames a client may send. Each variant
// carries its own typed payload so dispatch is exhaustive at compile time.
type InboundFrame interface {
	isInbound()
}

// AuthFrame binds a verified identity to the session.
type AuthFrame struct {
	UserID   int64  `json:"userId"`
	UserType string `json:"userType"` // "doctor" or "patient"
	DoctorID int64  `json:"doctorId,omitempty"`
}

// JoinFrame binds the session to an appointment conversation.
type JoinFrame struct {
	AppointmentID int64 `json:"appointmentId"`
}

// MessageFrame carries one chat message from the sender.
type MessageFrame struct {
	Content        string `json:"content"`
	AttachmentURL  string `json:"attachmentUrl,omitempty"`
	AttachmentType string `json:"attachmentType,omitempty"`
}

// TypingFrame signals whether the sender is currently typing.
type TypingFrame struct {
	IsTyping bool `json:"isTyping"`
}

func (*AuthFrame) isInbound()    {}
func (*JoinFrame) isInbound()    {}
func (*MessageFrame) isInbound() {}
func (*TypingFrame) isInbound()  {}

// DecodeInbound parses a raw frame into its typed variant. Unknown types
// and malformed payloads are errors; the caller answers with an error frame
// and leaves session state untouched.
func DecodeInbound(data []byte) (InboundFrame, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("chat: malformed frame: %w", err)
	}

	var frame InboundFrame
	switch env.Type {
	case FrameAuth:
		frame = &AuthFrame{}
	case FrameJoin:
		frame = &JoinFrame{}
	case FrameMessage:
		frame = &MessageFrame{}
	case FrameTyping:
		frame = &TypingFrame{}
	default:
		return nil, fmt.Errorf("chat: unknown frame type %q", env.Type)
	}
	if err := json.Unmarshal(data, frame); err != nil {
		return nil, fmt.Errorf("chat: malformed %s frame: %w", env.Type, err)
	}
	return frame, nil
}

// Outbound frames. The Type field is fixed by the constructor so handlers
// cannot send a mislabeled frame.

type authSuccessFrame struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
	UserID   int64  `json:"userId"`
	UserType string `json:"userType"`
}

func newAuthSuccessFrame(clientID string, userID int64, userType string) authSuccessFrame {
	return authSuccessFrame{Type: FrameAuthSuccess, ClientID: clientID, UserID: userID, UserType: userType}
}

type joinSuccessFrame struct {
	Type          string `json:"type"`
	AppointmentID int64  `json:"appointmentId"`
}

func newJoinSuccessFrame(appointmentID int64) joinSuccessFrame {
	return joinSuccessFrame{Type: FrameJoinSuccess, AppointmentID: appointmentID}
}

type historyFrame struct {
	Type     string              `json:"type"`
	Messages []store.ChatMessage `json:"messages"`
}

func newHistoryFrame(messages []store.ChatMessage) historyFrame {
	if messages == nil {
		messages = []store.ChatMessage{}
	}
	return historyFrame{Type: FrameHistory, Messages: messages}
}

type messageFrame struct {
	Type    string            `json:"type"`
	Message store.ChatMessage `json:"message"`
}

func newMessageFrame(msg store.ChatMessage) messageFrame {
	return messageFrame{Type: FrameMessage, Message: msg}
}

type typingStatusFrame struct {
	Type     string `json:"type"`
	UserID   int64  `json:"userId"`
	UserType string `json:"userType"`
	IsTyping bool   `json:"isTyping"`
}

func newTypingStatusFrame(userID int64, userType string, isTyping bool) typingStatusFrame {
	return typingStatusFrame{Type: FrameTyping, UserID: userID, UserType: userType, IsTyping: isTyping}
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newErrorFrame(message string) errorFrame {
	return errorFrame{Type: FrameError, Message: message}
}
