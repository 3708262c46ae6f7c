package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
)

// Store is the single-slot durable holder of the current Session.
//
// Implementations must be safe for concurrent use. Bubble Tea runs
// commands on goroutines, so a response interceptor may call Clear
// while a view reads the session.
type Store interface {
	// Save persists the session, replacing any previous one entirely.
	Save(ctx context.Context, session Session) error

	// Load returns the stored session, or nil when there is none.
	// A missing token, a missing profile, or a profile that is not valid
	// JSON all yield (nil, nil). Errors are reserved for backend failures.
	Load(ctx context.Context) (*Session, error)

	// Clear removes all stored session data. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session in process memory.
//
// It backs tests and the --ephemeral flag. Values are kept in their
// serialized form so Load behaves exactly like the durable stores.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	user  []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores the session.
func (m *MemoryStore) Save(_ context.Context, session Session) error {
	data, err := encodeUser(session.User)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = session.Token
	m.user = data
	return nil
}

// Load returns the stored session or nil.
func (m *MemoryStore) Load(_ context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return decodeSession(m.token, m.user), nil
}

// Clear forgets the session.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	return nil
}

// SetRaw stores raw values without validation. Tests use it to plant corrupt profiles.
func (m *MemoryStore) SetRaw(token string, user []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = user
}

func encodeUser(u User) ([]byte, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, wrapSaveError("encode user profile", err)
	}
	return data, nil
}

// decodeSession rebuilds a Session from its two stored parts.
// Anything short of a token plus a well-formed profile object is "no session".
func decodeSession(token string, user []byte) *Session {
	if token == "" || len(bytes.TrimSpace(user)) == 0 || bytes.Equal(bytes.TrimSpace(user), []byte("null")) {
		return nil
	}

	var u User
	if err := json.Unmarshal(user, &u); err != nil {
		return nil
	}
	return &Session{Token: token, User: u}
}
