// Package session holds the client-local Session: the bearer token and the
// identity it was issued for. Token and identity are always stored and
// cleared together.
package session

import (
	"errors"
	"sync"

	"github.com/expenseflow/reimbursement/pkg/model"
)

// ErrIncompleteSession is returned by Set for a session missing its token or
// its identity.
var ErrIncompleteSession = errors.New("session: token and identity must both be set")

// Store is the only shared mutable state of a client. Get returns nil, nil
// when no session is held.
type Store interface {
	Get() (*model.Session, error)
	Set(s model.Session) error
	Clear() error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	current *model.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get() (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySession(m.current), nil
}

func (m *MemoryStore) Set(s model.Session) error {
	if !s.Valid() {
		return ErrIncompleteSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = copySession(&s)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}

// copySession detaches the identity so callers cannot mutate stored state.
func copySession(s *model.Session) *model.Session {
	if s == nil {
		return nil
	}
	id := *s.Identity
	return &model.Session{Token: s.Token, Identity: &id}
}
