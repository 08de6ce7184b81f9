package local

import (
	"context"
	"slices"
	"sync"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UserLookup resolves participant users, like the join in the hosted store.
type UserLookup interface {
	Lookup(id domain.UserID) (*domain.User, bool)
}

type memberKey struct {
	room domain.RoomID
	user domain.UserID
}

// Store is an in-memory core.RecordStore. Room codes and (room, user) pairs
// are unique, mirroring the hosted schema.
type Store struct {
	users UserLookup

	mu       sync.RWMutex
	rooms    map[domain.RoomID]*domain.Room
	byCode   map[domain.RoomCode]domain.RoomID
	members  map[memberKey]domain.Participant
	order    map[domain.RoomID][]domain.UserID
	onChange []func(domain.RoomID)
}

var _ core.RecordStore = (*Store)(nil)

// NewStore builds an empty store. users may be nil.
func NewStore(users UserLookup) *Store {
	return &Store{
		users:   users,
		rooms:   make(map[domain.RoomID]*domain.Room),
		byCode:  make(map[domain.RoomCode]domain.RoomID),
		members: make(map[memberKey]domain.Participant),
		order:   make(map[domain.RoomID][]domain.UserID),
	}
}

// OnChange registers fn to run after any participant change in a room.
// Callbacks run on the mutating goroutine, after the lock is released.
func (s *Store) OnChange(fn func(domain.RoomID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Store) notify(roomID domain.RoomID) {
	s.mu.RLock()
	fns := slices.Clone(s.onChange)
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(roomID)
	}
}

func (s *Store) CreateRoom(_ context.Context, room domain.Room) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCode[room.Code]; ok {
		return nil, core.ErrDuplicate
	}
	room.ID = domain.RoomID(uuid.NewString())
	stored := room
	s.rooms[room.ID] = &stored
	s.byCode[room.Code] = room.ID
	log.Info().Str("module", "local.store").Str("room", string(room.ID)).Str("code", string(room.Code)).Msg("room stored")
	return &room, nil
}

func (s *Store) FindRoomByCode(_ context.Context, code domain.RoomCode, status domain.RoomStatus) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, core.ErrNotFound
	}
	room := s.rooms[id]
	if room.Status != status {
		return nil, core.ErrNotFound
	}
	out := *room
	return &out, nil
}

func (s *Store) AddParticipant(_ context.Context, p domain.Participant) error {
	s.mu.Lock()
	if _, ok := s.rooms[p.RoomID]; !ok {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	key := memberKey{room: p.RoomID, user: p.UserID}
	if _, ok := s.members[key]; ok {
		s.mu.Unlock()
		return core.ErrDuplicate
	}
	p.User = nil
	s.members[key] = p
	s.order[p.RoomID] = append(s.order[p.RoomID], p.UserID)
	s.mu.Unlock()

	s.notify(p.RoomID)
	return nil
}

// RemoveParticipant deletes nothing silently when the row does not exist.
func (s *Store) RemoveParticipant(_ context.Context, roomID domain.RoomID, userID domain.UserID) error {
	s.mu.Lock()
	key := memberKey{room: roomID, user: userID}
	if _, ok := s.members[key]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.members, key)
	ids := s.order[roomID]
	for i, id := range ids {
		if id == userID {
			s.order[roomID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.order[roomID]) == 0 {
		delete(s.order, roomID)
	}
	s.mu.Unlock()

	s.notify(roomID)
	return nil
}

func (s *Store) ListParticipants(_ context.Context, roomID domain.RoomID) ([]domain.Participant, error) {
	s.mu.RLock()
	ids := s.order[roomID]
	out := make([]domain.Participant, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.members[memberKey{room: roomID, user: id}])
	}
	s.mu.RUnlock()

	if s.users != nil {
		for i := range out {
			if u, ok := s.users.Lookup(out[i].UserID); ok {
				out[i].User = u
			}
		}
	}
	return out, nil
}
