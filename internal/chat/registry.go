package chat

import (
	"sync"

	"github.com/google/uuid"
	"github.com/medibook/medibook-platform/internal/store"
)

// Conn is the write side of a chat transport connection. *websocket.Conn
// satisfies it; tests substitute an in-memory fake.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Identity is the verified participant bound to a session by an auth frame.
type Identity struct {
	UserID   int64
	Role     string // "doctor" or "patient"
	DoctorID int64  // doctor profile id; zero for patients
}

// Session is the server-side state for one live connection. Fields are
// never mutated by protocol handlers directly: identity and conversation
// binding change only through Registry methods, which makes the
// snapshot-then-subscribe join guarantee enforceable in one place.
type Session struct {
	id   string
	conn Conn

	// Guarded by Registry.mu.
	identity      *Identity
	appointmentID int64

	// writeMu serializes writes to conn (gorilla connections permit only
	// one concurrent writer) and guards the join replay state below.
	writeMu sync.Mutex
	// While buffering, live chat_message frames queue in pending until the
	// history snapshot has been sent; replayed then holds the snapshot's
	// message ids so the one live broadcast of each is dropped.
	buffering bool
	pending   []store.ChatMessage
	replayed  map[int64]struct{}
}

// ID returns the opaque session identifier.
func (s *Session) ID() string { return s.id }

// send writes a frame, serialized per session. Write errors are returned
// for logging; a failed write means the transport is going away and the
// read loop will tear the session down.
func (s *Session) send(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// deliverMessage pushes a persisted chat message to this session. Frames
// are buffered while a history snapshot is in flight, and a message the
// snapshot already covered is dropped the one time its broadcast arrives.
// Everything else is written through: persistence order and broadcast order
// may differ across concurrent senders, so id order is no delivery filter.
func (s *Session) deliverMessage(msg store.ChatMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.buffering {
		s.pending = append(s.pending, msg)
		return nil
	}
	if _, covered := s.replayed[msg.ID]; covered {
		delete(s.replayed, msg.ID)
		return nil
	}
	return s.conn.WriteJSON(newMessageFrame(msg))
}

// SessionView is an immutable snapshot of a session's protocol state.
type SessionView struct {
	ID            string
	Identity      *Identity
	AppointmentID int64
}

// Authenticated reports whether an auth frame has been accepted.
func (v SessionView) Authenticated() bool { return v.Identity != nil }

// Joined reports whether the session is bound to a conversation.
func (v SessionView) Joined() bool { return v.Identity != nil && v.AppointmentID != 0 }

// Registry tracks every live session. It is the single shared mutable
// structure of the chat layer; all mutation happens under one lock so
// fan-out never observes a partially updated session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Open allocates a session for a new connection and returns it.
func (r *Registry) Open(conn Conn) *Session {
	s := &Session{id: uuid.NewString(), conn: conn}
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

// Close removes a session; idempotent. After Close the session is invisible
// to fan-out, even if a store call triggered by its own prior frame is
// still pending.
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// View snapshots a session's protocol state. The second return is false if
// the session has been closed.
func (r *Registry) View(sessionID string) (SessionView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return SessionView{}, false
	}
	return viewLocked(s), true
}

func viewLocked(s *Session) SessionView {
	v := SessionView{ID: s.id, AppointmentID: s.appointmentID}
	if s.identity != nil {
		ident := *s.identity
		v.Identity = &ident
	}
	return v
}

// SetIdentity records the authenticated participant. Re-auth with the same
// identity is idempotent; a different identity drops any conversation
// binding, since the join was authorized for the previous participant.
// No-op (returning false) if the session was closed concurrently.
func (r *Registry) SetIdentity(sessionID string, ident Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	if s.identity != nil && *s.identity != ident {
		s.writeMu.Lock()
		s.buffering = false
		s.pending = nil
		s.replayed = nil
		s.writeMu.Unlock()
		s.appointmentID = 0
	}
	s.identity = &ident
	return true
}

// BeginJoin binds the session to a conversation and arms the replay
// buffer in the same critical section, so a message fanned out after this
// call is queued rather than lost, and one persisted before the caller's
// history snapshot is never duplicated. Last join wins.
func (r *Registry) BeginJoin(sessionID string, appointmentID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	s.writeMu.Lock()
	s.buffering = true
	s.pending = nil
	s.replayed = nil
	s.writeMu.Unlock()
	s.appointmentID = appointmentID
	return true
}

// AbortJoin unwinds BeginJoin after a failed history load: the conversation
// binding is dropped and any buffered frames are discarded.
func (r *Registry) AbortJoin(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	s.writeMu.Lock()
	s.buffering = false
	s.pending = nil
	s.replayed = nil
	s.writeMu.Unlock()
	s.appointmentID = 0
}

// CompleteJoin sends join_success and the history snapshot, then flushes
// any frames buffered since BeginJoin, skipping messages the snapshot
// already covers. No-op if the session was closed while history loaded.
func (r *Registry) CompleteJoin(sessionID string, appointmentID int64, history []store.ChatMessage) error {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.WriteJSON(newJoinSuccessFrame(appointmentID)); err != nil {
		return err
	}
	if err := s.conn.WriteJSON(newHistoryFrame(history)); err != nil {
		return err
	}
	s.replayed = make(map[int64]struct{}, len(history))
	for _, m := range history {
		s.replayed[m.ID] = struct{}{}
	}
	pending := s.pending
	s.pending = nil
	s.buffering = false
	for _, m := range pending {
		if _, covered := s.replayed[m.ID]; covered {
			delete(s.replayed, m.ID)
			continue
		}
		if err := s.conn.WriteJSON(newMessageFrame(m)); err != nil {
			return err
		}
	}
	return nil
}

// SessionsIn returns every live session bound to a conversation.
func (r *Registry) SessionsIn(appointmentID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.sessions {
		if s.appointmentID == appointmentID {
			out = append(out, s)
		}
	}
	return out
}

// SessionsFor returns every live session authenticated as the given user.
func (r *Registry) SessionsFor(userID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.sessions {
		if s.identity != nil && s.identity.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// ConversationHasUser reports whether the user has at least one live
// session bound to the conversation. Used to decide between live delivery
// and a stored notification.
func (r *Registry) ConversationHasUser(appointmentID, userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.appointmentID == appointmentID && s.identity != nil && s.identity.UserID == userID {
			return true
		}
	}
	return false
}

// BroadcastMessage fans a persisted message out to every live session in
// the conversation, the sender included. Write failures are ignored here;
// the owning read loop notices the dead transport and closes the session.
func (r *Registry) BroadcastMessage(appointmentID int64, msg store.ChatMessage) {
	for _, s := range r.SessionsIn(appointmentID) {
		_ = s.deliverMessage(msg)
	}
}

// BroadcastFrame fans an arbitrary frame out to every live session in the
// conversation except the one identified by exceptID.
func (r *Registry) BroadcastFrame(appointmentID int64, exceptID string, frame any) {
	for _, s := range r.SessionsIn(appointmentID) {
		if s.id == exceptID {
			continue
		}
		_ = s.send(frame)
	}
}
