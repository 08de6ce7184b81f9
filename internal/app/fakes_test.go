package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
)

// fakeStore is a shared in-memory record store that counts calls.
type fakeStore struct {
	mu           sync.Mutex
	rooms        []domain.Room
	participants []domain.Participant
	nextID       int

	createErr error
	addErr    error
	removeErr error
	listErr   error

	creates, finds, adds, removes, lists int
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (s *fakeStore) CreateRoom(_ context.Context, room domain.Room) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	room.ID = domain.RoomID(fmt.Sprintf("room-%d", s.nextID))
	s.rooms = append(s.rooms, room)
	out := room
	return &out, nil
}

func (s *fakeStore) FindRoomByCode(_ context.Context, code domain.RoomCode, status domain.RoomStatus) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	for _, r := range s.rooms {
		if r.Code == code && r.Status == status {
			out := r
			return &out, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *fakeStore) AddParticipant(_ context.Context, p domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adds++
	if s.addErr != nil {
		return s.addErr
	}
	for _, e := range s.participants {
		if e.RoomID == p.RoomID && e.UserID == p.UserID {
			return core.ErrDuplicate
		}
	}
	s.participants = append(s.participants, p)
	return nil
}

func (s *fakeStore) RemoveParticipant(_ context.Context, roomID domain.RoomID, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	if s.removeErr != nil {
		return s.removeErr
	}
	kept := s.participants[:0]
	for _, e := range s.participants {
		if e.RoomID == roomID && e.UserID == userID {
			continue
		}
		kept = append(kept, e)
	}
	s.participants = kept
	return nil
}

func (s *fakeStore) ListParticipants(_ context.Context, roomID domain.RoomID) ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Participant
	for _, e := range s.participants {
		if e.RoomID == roomID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates + s.finds + s.adds + s.removes + s.lists
}

func (s *fakeStore) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

// fakeIdentity publishes changes synchronously to subscribers.
type fakeIdentity struct {
	mu       sync.Mutex
	current  *domain.User
	sessErr  error
	accounts map[string]*domain.User
	subs     map[int]func(*domain.User)
	nextSub  int
	signUps  int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		accounts: make(map[string]*domain.User),
		subs:     make(map[int]func(*domain.User)),
	}
}

func (f *fakeIdentity) SignUp(_ context.Context, email, _ string, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUps++
	if _, ok := f.accounts[email]; ok {
		return errors.New("User already registered")
	}
	f.accounts[email] = &domain.User{ID: domain.UserID("id-" + email), Email: email, Username: username}
	return nil
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*domain.User, error) {
	f.mu.Lock()
	u, ok := f.accounts[email]
	if !ok || password != "secret" {
		f.mu.Unlock()
		return nil, errors.New("Invalid login credentials")
	}
	f.current = u
	f.mu.Unlock()
	f.publish(u)
	return u, nil
}

func (f *fakeIdentity) SignOut(context.Context) error {
	f.mu.Lock()
	f.current = nil
	f.mu.Unlock()
	f.publish(nil)
	return nil
}

func (f *fakeIdentity) CurrentSession(context.Context) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessErr != nil {
		return nil, f.sessErr
	}
	return f.current, nil
}

func (f *fakeIdentity) Subscribe(fn func(*domain.User)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeIdentity) publish(u *domain.User) {
	f.mu.Lock()
	fns := make([]func(*domain.User), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}

func (f *fakeIdentity) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// fakeView records the last rendered state.
type fakeView struct {
	mu           sync.Mutex
	visible      map[core.Screen]bool
	transitions  int
	user         string
	roomName     string
	roomCode     domain.RoomCode
	hostControls *bool
	count        int
	list         []core.ParticipantDTO
	connected    bool
	notes        []string
}

func newFakeView() *fakeView {
	return &fakeView{visible: make(map[core.Screen]bool)}
}

func (v *fakeView) SetVisible(s core.Screen, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible[s] = visible
	if visible {
		v.transitions++
	}
}

func (v *fakeView) ShowUser(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.user = name
}

func (v *fakeView) ShowRoom(name string, code domain.RoomCode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.roomName, v.roomCode = name, code
}

func (v *fakeView) ShowHostControls(isHost bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hostControls = &isHost
}

func (v *fakeView) SetParticipantCount(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.count = n
}

func (v *fakeView) RenderParticipants(list []core.ParticipantDTO) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.list = append([]core.ParticipantDTO(nil), list...)
}

func (v *fakeView) SetConnected(c bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = c
}

func (v *fakeView) Notify(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notes = append(v.notes, msg)
}

// screen returns the only visible screen, or -1 when zero or several are visible.
func (v *fakeView) screen() core.Screen {
	v.mu.Lock()
	defer v.mu.Unlock()
	found := core.Screen(-1)
	for s, on := range v.visible {
		if !on {
			continue
		}
		if found != -1 {
			return -1
		}
		found = s
	}
	return found
}

func (v *fakeView) lastNote() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.notes) == 0 {
		return ""
	}
	return v.notes[len(v.notes)-1]
}

func (v *fakeView) transitionCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.transitions
}

// fakeRealtime records emitted messages.
type fakeRealtime struct {
	mu   sync.Mutex
	sent []core.Outbound
	err  error
}

func (r *fakeRealtime) Emit(msg core.Outbound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func (r *fakeRealtime) emitted() []core.Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Outbound(nil), r.sent...)
}
