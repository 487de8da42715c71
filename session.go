package goAuthClient

import (
	"sync"
	"time"
)

// Session is a read-only copy of the client's view of the signed-in user.
type Session struct {
	UserID        string
	Authenticated bool
	ExpiresAt     time.Time
	Profile       *Profile
}

// sessionState is the single owner of Session. Only login, refresh, the
// startup check and clear mutate it; everything else reads copies.
//
// gen advances on every establish and clear, so work that started under
// one session can tell that it no longer applies.
type sessionState struct {
	mu      sync.RWMutex
	current Session
	gen     uint64
}

func (s *sessionState) establish(userID string, expiresAt time.Time, profile *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.current = Session{
		UserID:        userID,
		Authenticated: true,
		ExpiresAt:     expiresAt,
		Profile:       profile.clone(),
	}
}

func (s *sessionState) extend(expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Authenticated {
		s.current.ExpiresAt = expiresAt
	}
}

func (s *sessionState) setProfile(profile *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Authenticated {
		s.current.Profile = profile.clone()
	}
}

// clear drops the session and reports whether one was live.
func (s *sessionState) clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.current.Authenticated
	s.gen++
	s.current = Session{}
	return was
}

func (s *sessionState) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *sessionState) snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.current
	out.Profile = s.current.Profile.clone()
	return out
}

func (s *sessionState) authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Authenticated
}

func (s *sessionState) userID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.UserID
}
