package wizard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Submission status values.
const (
	StatusIdle       = "idle"
	StatusValidating = "validating"
	StatusSubmitting = "submitting"
	StatusError      = "error"
)

// Session is one user's in-progress wizard run: the shared flat form state
// plus the step cursor and submission status. Sessions are owned; a session
// is only visible to the user who started it.
type Session struct {
	ID           uuid.UUID         `json:"id"`
	OwnerID      string            `json:"-"`
	StepIndex    int               `json:"stepIndex"`
	Step         string            `json:"step"`
	Form         FormData          `json:"form"`
	Status       string            `json:"status"`
	Announcement string            `json:"announcement"`
	Errors       map[string]string `json:"errors"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// sessionStore holds live sessions in memory. Sessions are transient by
// nature: abandoning the wizard discards the draft, and a successful submit
// removes the session.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[uuid.UUID]*Session)}
}

func (st *sessionStore) create(ownerID string) *Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		StepIndex: 0,
		Step:      StepAt(0),
		Form:      FormData{},
		Status:    StatusIdle,
		Errors:    map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

// withSession runs fn with the session held under the store lock. The
// callback must not block on I/O; submission releases the lock around the
// downstream create call.
func (st *sessionStore) withSession(id uuid.UUID, ownerID string, fn func(*Session) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	if !ok || sess.OwnerID != ownerID {
		return ErrSessionNotFound
	}
	return fn(sess)
}

// snapshot returns a copy of the session safe to hand outside the lock.
func (st *sessionStore) snapshot(id uuid.UUID, ownerID string) (*Session, error) {
	var copied Session
	err := st.withSession(id, ownerID, func(sess *Session) error {
		copied = cloneSession(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &copied, nil
}

func (st *sessionStore) delete(id uuid.UUID) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func cloneSession(sess *Session) Session {
	copied := *sess
	copied.Errors = make(map[string]string, len(sess.Errors))
	for k, v := range sess.Errors {
		copied.Errors[k] = v
	}
	return copied
}
