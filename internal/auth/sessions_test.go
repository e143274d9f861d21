package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/BrewReview/BR-Backend/internal/store"
)

// memSessions is an in-memory SessionPersistence mirroring the gorm
// backend's soft-end behavior.
type memSessions struct {
	rows    map[string]Session
	failOps bool
}

func newMemSessions() *memSessions {
	return &memSessions{rows: make(map[string]Session)}
}

func (m *memSessions) Insert(s Session) error {
	if m.failOps {
		return store.ErrPersistenceFailure
	}
	m.rows[s.SessionID] = s
	return nil
}

func (m *memSessions) Get(id string) (Session, error) {
	s, ok := m.rows[id]
	if !ok {
		return Session{}, store.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) GetByUser(userID string) (Session, error) {
	for _, s := range m.rows {
		if s.UserID == userID {
			return s, nil
		}
	}
	return Session{}, store.ErrNotFound
}

func (m *memSessions) End(id string) error {
	if m.failOps {
		return store.ErrPersistenceFailure
	}
	s, ok := m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	s.UserID = ""
	m.rows[id] = s
	return nil
}

func newTestSessionStore(p SessionPersistence) *SessionStore {
	s := NewSessionStore(p)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSessionCreateRequiresUserID(t *testing.T) {
	sessions := newTestSessionStore(newMemSessions())

	_, err := sessions.Create("")
	if !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestSessionCreateAndGet(t *testing.T) {
	sessions := newTestSessionStore(newMemSessions())

	created, err := sessions.Create("user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if !created.Active() {
		t.Error("expected new session to be active")
	}
	if want := created.ExpiresAt.Sub(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)); want != DefaultSessionTTL {
		t.Errorf("ttl = %v, want %v", want, DefaultSessionTTL)
	}

	got, err := sessions.Get(created.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", got.UserID)
	}
}

func TestSessionEndIsIdempotent(t *testing.T) {
	persistence := newMemSessions()
	sessions := newTestSessionStore(persistence)

	created, err := sessions.Create("user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 2; i++ {
		ok, err := sessions.End(created.SessionID)
		if err != nil {
			t.Fatalf("End #%d: %v", i+1, err)
		}
		if !ok {
			t.Errorf("End #%d = false, want true", i+1)
		}
	}

	// Ending a session that never existed still counts as ended.
	ok, err := sessions.End("no-such-session")
	if err != nil || !ok {
		t.Errorf("End(absent) = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestSessionEndStoreFailure(t *testing.T) {
	persistence := newMemSessions()
	persistence.failOps = true
	sessions := newTestSessionStore(persistence)

	ok, err := sessions.End("any")
	if ok || !errors.Is(err, store.ErrPersistenceFailure) {
		t.Fatalf("End = (%v, %v), want (false, persistence failure)", ok, err)
	}
}

func TestSessionGetAfterEndReportsNotFound(t *testing.T) {
	sessions := newTestSessionStore(newMemSessions())

	created, _ := sessions.Create("user-1")
	if _, err := sessions.End(created.SessionID); err != nil {
		t.Fatalf("End: %v", err)
	}

	if _, err := sessions.Get(created.SessionID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after end, got %v", err)
	}
	if _, err := sessions.GetByUser("user-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found by user after end, got %v", err)
	}
}

func TestSessionActivePredicate(t *testing.T) {
	active := Session{SessionID: "s1", UserID: "u1"}
	ended := Session{SessionID: "s1"}

	if !active.Active() {
		t.Error("session with user id should be active")
	}
	if ended.Active() {
		t.Error("session without user id should be inactive")
	}
}
