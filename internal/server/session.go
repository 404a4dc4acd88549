package server

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formschema/pkg/form"
)

// session is one browser's live form.
type session struct {
	id      string
	token   string
	form    *form.Form
	expires time.Time
}

func (s *session) checkToken(token string) bool {
	return subtle.ConstantTimeCompare([]byte(s.token), []byte(token)) == 1
}

// sessionStore keeps forms in memory keyed by a random id. Idle sessions
// expire after ttl; expired entries are swept on writes.
type sessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*session
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func (s *sessionStore) create(f *form.Form) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	entry := &session{
		id:    uuid.NewString(),
		token: uuid.NewString(),
		form:  f,
	}
	s.touch(entry)
	s.sessions[entry.id] = entry
	return entry
}

func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().After(entry.expires) {
		delete(s.sessions, id)
		return nil, false
	}
	s.touch(entry)
	return entry, true
}

func (s *sessionStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *sessionStore) touch(entry *session) {
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}
}

func (s *sessionStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	for id, entry := range s.sessions {
		if now.After(entry.expires) {
			delete(s.sessions, id)
		}
	}
}
