package app

import (
	"sync"

	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/rs/zerolog/log"
)

// Session is the single owned state of a running client.
// Only AuthBridge and RoomController mutate it; fields go back to nil
// exclusively through Clear (sign-out) and ClearRoom (leave).
type Session struct {
	mu        sync.RWMutex
	user      *domain.User
	room      *domain.Room
	connected bool
}

type SessionSnapshot struct {
	User      *domain.User `json:"user"`
	Room      *domain.Room `json:"room"`
	Connected bool         `json:"connected"`
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Room() *domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Session) SetUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	if u == nil {
		log.Info().Str("module", "app.session").Msg("user cleared")
		return
	}
	log.Info().Str("module", "app.session").Str("user", string(u.ID)).Msg("user set")
}

func (s *Session) SetRoom(r *domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = r
	if r == nil {
		log.Info().Str("module", "app.session").Msg("room cleared")
		return
	}
	log.Info().Str("module", "app.session").Str("room", string(r.ID)).Str("code", string(r.Code)).Msg("room set")
}

func (s *Session) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

func (s *Session) ClearRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = nil
	log.Info().Str("module", "app.session").Msg("room cleared")
}

// Clear drops user and room. The connected flag belongs to the transport.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.room = nil
	log.Info().Str("module", "app.session").Msg("session cleared")
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := SessionSnapshot{Connected: s.connected}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.room != nil {
		r := *s.room
		snap.Room = &r
	}
	return snap
}
