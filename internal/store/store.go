package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// User is an account holder, either a patient or the person behind a doctor
// profile.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         string    `json:"role"` // "patient" or "doctor"
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Doctor is the professional profile bound to a user account.
type Doctor struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"userId"`
	Specialization string `json:"specialization"`
	Hospital       string `json:"hospital"`
	Description    string `json:"description,omitempty"`
	Experience     string `json:"experience,omitempty"`
}

// DoctorWithUser joins a doctor profile with its user account.
type DoctorWithUser struct {
	Doctor
	User User `json:"user"`
}

// Appointment links exactly one patient (a user id) with one doctor
// (a doctor profile id). It doubles as the chat conversation identity.
type Appointment struct {
	ID        int64     `json:"id"`
	PatientID int64     `json:"patientId"`
	DoctorID  int64     `json:"doctorId"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatMessage is one persisted message in an appointment conversation.
// Immutable once created; ID and CreatedAt are server-assigned.
type ChatMessage struct {
	ID             int64     `json:"id"`
	AppointmentID  int64     `json:"appointmentId"`
	SenderID       int64     `json:"senderId"`
	SenderType     string    `json:"senderType"` // "doctor" or "patient"
	Content        string    `json:"content"`
	AttachmentURL  string    `json:"attachmentUrl,omitempty"`
	AttachmentType string    `json:"attachmentType,omitempty"` // "image" or "document"
	CreatedAt      time.Time `json:"createdAt"`
}

// Notification is an asynchronous in-app notification for a user.
type Notification struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"userId"`
	Type      string         `json:"type"` // appointment, chat_message, ...
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	IsRead    bool           `json:"isRead"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Store is the record store the platform persists through. Two
// implementations exist: MemoryStore for development and tests, and
// PostgresStore for deployments.
type Store interface {
	GetUser(ctx context.Context, id int64) (*User, error)

	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	GetDoctorWithUser(ctx context.Context, id int64) (*DoctorWithUser, error)
	ListDoctorsWithUsers(ctx context.Context) ([]DoctorWithUser, error)
	ListDoctorsBySpecialization(ctx context.Context, specialization string) ([]DoctorWithUser, error)

	GetAppointment(ctx context.Context, id int64) (*Appointment, error)
	CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID int64) ([]Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID int64) ([]Appointment, error)

	CreateChatMessage(ctx context.Context, msg *ChatMessage) (*ChatMessage, error)
	ListChatMessagesByAppointment(ctx context.Context, appointmentID int64) ([]ChatMessage, error)

	CreateNotification(ctx context.Context, n *Notification) (*Notification, error)
	ListNotificationsByUser(ctx context.Context, userID int64) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) (*Notification, error)
}
