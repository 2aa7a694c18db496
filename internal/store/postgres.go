package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// PgxPool is the subset of pgxpool.Pool used by PostgresStore. Narrowed so
// tests can substitute a pgxmock pool.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists records to PostgreSQL. Schema is installed by
// cmd/migrate.
type PostgresStore struct {
	db PgxPool
}

// NewPostgresStore builds a Postgres-backed Store.
func NewPostgresStore(db PgxPool) *PostgresStore {
	if db == nil {
		panic("store: pgx pool cannot be nil")
	}
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*User, error) {
	var (
		u            User
		profileImage pgtype.Text
	)
	row := s.db.QueryRow(ctx, `
		SELECT id, username, full_name, email, role, profile_image, created_at
		FROM users WHERE id = $1
	`, id)
	if err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.Role, &profileImage, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: fetch user: %w", err)
	}
	if profileImage.Valid {
		u.ProfileImage = profileImage.String
	}
	return &u, nil
}

func (s *PostgresStore) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	var d Doctor
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, specialization, hospital, description, experience
		FROM doctors WHERE id = $1
	`, id)
	if err := row.Scan(&d.ID, &d.UserID, &d.Specialization, &d.Hospital, &d.Description, &d.Experience); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: fetch doctor: %w", err)
	}
	return &d, nil
}

const doctorWithUserQuery = `
	SELECT d.id, d.user_id, d.specialization, d.hospital, d.description, d.experience,
	       u.id, u.username, u.full_name, u.email, u.role, u.created_at
	FROM doctors d
	JOIN users u ON u.id = d.user_id
`

func (s *PostgresStore) GetDoctorWithUser(ctx context.Context, id int64) (*DoctorWithUser, error) {
	var dw DoctorWithUser
	row := s.db.QueryRow(ctx, doctorWithUserQuery+` WHERE d.id = $1`, id)
	if err := row.Scan(
		&dw.ID, &dw.UserID, &dw.Specialization, &dw.Hospital, &dw.Description, &dw.Experience,
		&dw.User.ID, &dw.User.Username, &dw.User.FullName, &dw.User.Email, &dw.User.Role, &dw.User.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: fetch doctor with user: %w", err)
	}
	return &dw, nil
}

func (s *PostgresStore) ListDoctorsWithUsers(ctx context.Context) ([]DoctorWithUser, error) {
	rows, err := s.db.Query(ctx, doctorWithUserQuery+` ORDER BY d.id`)
	if err != nil {
		return nil, fmt.Errorf("store: list doctors: %w", err)
	}
	return scanDoctorsWithUsers(rows)
}

func (s *PostgresStore) ListDoctorsBySpecialization(ctx context.Context, specialization string) ([]DoctorWithUser, error) {
	rows, err := s.db.Query(ctx, doctorWithUserQuery+` WHERE LOWER(d.specialization) = LOWER($1) ORDER BY d.id`, specialization)
	if err != nil {
		return nil, fmt.Errorf("store: list doctors by specialization: %w", err)
	}
	return scanDoctorsWithUsers(rows)
}

func scanDoctorsWithUsers(rows pgx.Rows) ([]DoctorWithUser, error) {
	defer rows.Close()
	out := make([]DoctorWithUser, 0)
	for rows.Next() {
		var dw DoctorWithUser
		if err := rows.Scan(
			&dw.ID, &dw.UserID, &dw.Specialization, &dw.Hospital, &dw.Description, &dw.Experience,
			&dw.User.ID, &dw.User.Username, &dw.User.FullName, &dw.User.Email, &dw.User.Role, &dw.User.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan doctor row: %w", err)
		}
		out = append(out, dw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate doctor rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	var a Appointment
	row := s.db.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, date, time, status, created_at
		FROM appointments WHERE id = $1
	`, id)
	if err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Status, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: fetch appointment: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error) {
	if appt == nil {
		return nil, errors.New("store: appointment cannot be nil")
	}
	status := appt.Status
	if status == "" {
		status = "pending"
	}
	out := *appt
	out.Status = status
	row := s.db.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, date, time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, appt.PatientID, appt.DoctorID, appt.Date, appt.Time, status)
	if err := row.Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("store: insert appointment: %w", err)
	}
	return &out, nil
}

func (s *PostgresStore) ListAppointmentsByPatient(ctx context.Context, patientID int64) ([]Appointment, error) {
	return s.listAppointments(ctx, `patient_id`, patientID)
}

func (s *PostgresStore) ListAppointmentsByDoctor(ctx context.Context, doctorID int64) ([]Appointment, error) {
	return s.listAppointments(ctx, `doctor_id`, doctorID)
}

func (s *PostgresStore) listAppointments(ctx context.Context, column string, id int64) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT id, patient_id, doctor_id, date, time, status, created_at
		FROM appointments WHERE %s = $1 ORDER BY id
	`, column), id)
	if err != nil {
		return nil, fmt.Errorf("store: list appointments: %w", err)
	}
	defer rows.Close()
	out := make([]Appointment, 0)
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan appointment row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate appointment rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CreateChatMessage(ctx context.Context, msg *ChatMessage) (*ChatMessage, error) {
	if msg == nil {
		return nil, errors.New("store: chat message cannot be nil")
	}
	out := *msg
	row := s.db.QueryRow(ctx, `
		INSERT INTO chat_messages (appointment_id, sender_id, sender_type, content, attachment_url, attachment_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, msg.AppointmentID, msg.SenderID, msg.SenderType, msg.Content, nullString(msg.AttachmentURL), nullString(msg.AttachmentType))
	if err := row.Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("store: insert chat message: %w", err)
	}
	return &out, nil
}

func (s *PostgresStore) ListChatMessagesByAppointment(ctx context.Context, appointmentID int64) ([]ChatMessage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, appointment_id, sender_id, sender_type, content, attachment_url, attachment_type, created_at
		FROM chat_messages WHERE appointment_id = $1 ORDER BY id
	`, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("store: list chat messages: %w", err)
	}
	defer rows.Close()
	out := make([]ChatMessage, 0)
	for rows.Next() {
		var (
			m              ChatMessage
			attachmentURL  pgtype.Text
			attachmentType pgtype.Text
		)
		if err := rows.Scan(&m.ID, &m.AppointmentID, &m.SenderID, &m.SenderType, &m.Content, &attachmentURL, &attachmentType, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan chat message row: %w", err)
		}
		if attachmentURL.Valid {
			m.AttachmentURL = attachmentURL.String
		}
		if attachmentType.Valid {
			m.AttachmentType = attachmentType.String
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate chat message rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CreateNotification(ctx context.Context, n *Notification) (*Notification, error) {
	if n == nil {
		return nil, errors.New("store: notification cannot be nil")
	}
	metadata, err := json.Marshal(orEmptyMetadata(n.Metadata))
	if err != nil {
		return nil, fmt.Errorf("store: encode notification metadata: %w", err)
	}
	out := *n
	row := s.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, message, is_read, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, n.UserID, n.Type, n.Title, n.Message, n.IsRead, metadata)
	if err := row.Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("store: insert notification: %w", err)
	}
	return &out, nil
}

func (s *PostgresStore) ListNotificationsByUser(ctx context.Context, userID int64) ([]Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, type, title, message, is_read, metadata, created_at
		FROM notifications WHERE user_id = $1 ORDER BY id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list notifications: %w", err)
	}
	defer rows.Close()
	out := make([]Notification, 0)
	for rows.Next() {
		var (
			n        Notification
			metadata []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &metadata, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan notification row: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, fmt.Errorf("store: decode notification metadata: %w", err)
			}
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate notification rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, id int64) (*Notification, error) {
	var (
		n        Notification
		metadata []byte
	)
	row := s.db.QueryRow(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1
		RETURNING id, user_id, type, title, message, is_read, metadata, created_at
	`, id)
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &metadata, &n.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: mark notification read: %w", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, fmt.Errorf("store: decode notification metadata: %w", err)
		}
	}
	return &n, nil
}

func orEmptyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
