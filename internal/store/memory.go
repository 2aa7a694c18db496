package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[int64]*User
	doctors       map[int64]*Doctor
	appointments  map[int64]*Appointment
	chatMessages  map[int64]*ChatMessage
	notifications map[int64]*Notification

	nextUserID         int64
	nextDoctorID       int64
	nextAppointmentID  int64
	nextChatMessageID  int64
	nextNotificationID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:              make(map[int64]*User),
		doctors:            make(map[int64]*Doctor),
		appointments:       make(map[int64]*Appointment),
		chatMessages:       make(map[int64]*ChatMessage),
		notifications:      make(map[int64]*Notification),
		nextUserID:         1,
		nextDoctorID:       1,
		nextAppointmentID:  1,
		nextChatMessageID:  1,
		nextNotificationID: 1,
	}
}

var _ Store = (*MemoryStore)(nil)

// SeedDemoData loads a small data set so the API is usable out of the box.
func (s *MemoryStore) SeedDemoData() {
	john := s.AddUser(&User{Username: "john", FullName: "John Smith", Email: "john@example.com", Role: "patient"})
	emily := s.AddUser(&User{Username: "emily.chen", FullName: "Dr. Emily Chen", Email: "emily.chen@example.com", Role: "doctor"})
	james := s.AddUser(&User{Username: "james.wilson", FullName: "Dr. James Wilson", Email: "james.wilson@example.com", Role: "doctor"})

	chen := s.AddDoctor(&Doctor{UserID: emily.ID, Specialization: "Cardiologist", Hospital: "City Medical Center", Experience: "12 years"})
	s.AddDoctor(&Doctor{UserID: james.ID, Specialization: "General Practitioner", Hospital: "Riverside Clinic", Experience: "8 years"})

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextAppointmentID
	s.nextAppointmentID++
	s.appointments[id] = &Appointment{
		ID:        id,
		PatientID: john.ID,
		DoctorID:  chen.ID,
		Date:      time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
		Time:      "10:00 AM",
		Status:    "confirmed",
		CreatedAt: time.Now().UTC(),
	}
}

// AddUser inserts a user, assigning its id. Exported for seeding and tests.
func (s *MemoryStore) AddUser(u *User) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	cp.ID = s.nextUserID
	s.nextUserID++
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.users[cp.ID] = &cp
	out := cp
	return &out
}

// AddDoctor inserts a doctor profile, assigning its id.
func (s *MemoryStore) AddDoctor(d *Doctor) *Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	cp.ID = s.nextDoctorID
	s.nextDoctorID++
	s.doctors[cp.ID] = &cp
	out := cp
	return &out
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetDoctor(_ context.Context, id int64) (*Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) GetDoctorWithUser(_ context.Context, id int64) (*DoctorWithUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	u, ok := s.users[d.UserID]
	if !ok {
		return nil, ErrNotFound
	}
	return &DoctorWithUser{Doctor: *d, User: *u}, nil
}

func (s *MemoryStore) ListDoctorsWithUsers(_ context.Context) ([]DoctorWithUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joinDoctorsLocked(func(*Doctor) bool { return true }), nil
}

func (s *MemoryStore) ListDoctorsBySpecialization(_ context.Context, specialization string) ([]DoctorWithUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joinDoctorsLocked(func(d *Doctor) bool {
		return strings.EqualFold(d.Specialization, specialization)
	}), nil
}

func (s *MemoryStore) joinDoctorsLocked(keep func(*Doctor) bool) []DoctorWithUser {
	out := make([]DoctorWithUser, 0, len(s.doctors))
	for _, d := range s.doctors {
		if !keep(d) {
			continue
		}
		u, ok := s.users[d.UserID]
		if !ok {
			continue
		}
		out = append(out, DoctorWithUser{Doctor: *d, User: *u})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) GetAppointment(_ context.Context, id int64) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) CreateAppointment(_ context.Context, appt *Appointment) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *appt
	cp.ID = s.nextAppointmentID
	s.nextAppointmentID++
	cp.CreatedAt = time.Now().UTC()
	if cp.Status == "" {
		cp.Status = "pending"
	}
	s.appointments[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) ListAppointmentsByPatient(_ context.Context, patientID int64) ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterAppointmentsLocked(func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

func (s *MemoryStore) ListAppointmentsByDoctor(_ context.Context, doctorID int64) ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterAppointmentsLocked(func(a *Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (s *MemoryStore) filterAppointmentsLocked(keep func(*Appointment) bool) []Appointment {
	out := make([]Appointment, 0)
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) CreateChatMessage(_ context.Context, msg *ChatMessage) (*ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	cp.ID = s.nextChatMessageID
	s.nextChatMessageID++
	cp.CreatedAt = time.Now().UTC()
	s.chatMessages[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) ListChatMessagesByAppointment(_ context.Context, appointmentID int64) ([]ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatMessage, 0)
	for _, m := range s.chatMessages {
		if m.AppointmentID == appointmentID {
			out = append(out, *m)
		}
	}
	// IDs are assigned in creation order, so this is oldest-first.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateNotification(_ context.Context, n *Notification) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	cp.ID = s.nextNotificationID
	s.nextNotificationID++
	cp.CreatedAt = time.Now().UTC()
	s.notifications[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) ListNotificationsByUser(_ context.Context, userID int64) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *MemoryStore) MarkNotificationRead(_ context.Context, id int64) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	n.IsRead = true
	cp := *n
	return &cp, nil
}
