package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/SyncSound/internal/app"
	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
)

type harness struct {
	client   *app.Client
	view     *fakeView
	realtime *fakeRealtime
	store    *fakeStore
	identity *fakeIdentity
}

func newHarness(t *testing.T, store *fakeStore, identity *fakeIdentity) *harness {
	t.Helper()
	view := newFakeView()
	rt := &fakeRealtime{}
	c := app.NewClient(identity, store, rt, view)
	return &harness{client: c, view: view, realtime: rt, store: store, identity: identity}
}

// signedIn returns a harness whose session already holds a user.
func signedIn(t *testing.T, store *fakeStore, email, username string) *harness {
	t.Helper()
	id := newFakeIdentity()
	if err := id.SignUp(context.Background(), email, "secret", username); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	h := newHarness(t, store, id)
	h.client.Start(context.Background())
	if err := h.client.Auth.SignIn(context.Background(), email, "secret"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	return h
}

func fixedCode(code domain.RoomCode) func() domain.RoomCode {
	return func() domain.RoomCode { return code }
}

func TestCreate_JoinsCreatedRoom(t *testing.T) {
	h := signedIn(t, newFakeStore(), "host@example.com", "host")
	h.client.Rooms.NewCode = fixedCode("AB12CD")

	if err := h.client.Rooms.Create(context.Background()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	room := h.client.Session.Room()
	if room == nil {
		t.Fatal("expected current room")
	}
	if room.Code != "AB12CD" {
		t.Errorf("expected code AB12CD, got %q", room.Code)
	}
	if room.Name != "Room-AB12CD" {
		t.Errorf("expected name Room-AB12CD, got %q", room.Name)
	}
	if room.Status != domain.StatusWaiting {
		t.Errorf("expected waiting status, got %q", room.Status)
	}
	if h.view.screen() != core.ScreenRoom {
		t.Errorf("expected room screen, got %v", h.view.screen())
	}
	if h.view.hostControls == nil || !*h.view.hostControls {
		t.Error("expected host controls visible")
	}
	if h.view.roomCode != "AB12CD" || h.view.roomName != "Room-AB12CD" {
		t.Errorf("unexpected room header %q / %q", h.view.roomName, h.view.roomCode)
	}
	if h.view.count != 1 || len(h.view.list) != 1 || !h.view.list[0].IsHost {
		t.Errorf("expected one host participant, got count=%d list=%+v", h.view.count, h.view.list)
	}

	sent := h.realtime.emitted()
	if len(sent) != 1 {
		t.Fatalf("expected one emit, got %d", len(sent))
	}
	join, ok := sent[0].(core.JoinRoom)
	if !ok {
		t.Fatalf("expected JoinRoom, got %T", sent[0])
	}
	if join.RoomID != room.ID || !join.IsHost || join.Username != "host" {
		t.Errorf("unexpected join payload %+v", join)
	}
}

func TestCreate_StoreFailureIsTerminal(t *testing.T) {
	store := newFakeStore()
	h := signedIn(t, store, "host@example.com", "host")
	store.createErr = errors.New("insert failed")

	err := h.client.Rooms.Create(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if h.view.lastNote() != "insert failed" {
		t.Errorf("expected error message surfaced, got %q", h.view.lastNote())
	}
	if store.creates != 1 {
		t.Errorf("expected a single attempt, got %d", store.creates)
	}
	if store.adds != 0 {
		t.Error("no participant should be inserted after a failed create")
	}
	if h.client.Session.Room() != nil {
		t.Error("no room should be current")
	}
	if h.view.screen() != core.ScreenDashboard {
		t.Errorf("expected dashboard to stay, got %v", h.view.screen())
	}
	if len(h.realtime.emitted()) != 0 {
		t.Error("no emit expected")
	}
}

func TestCreate_RequiresUser(t *testing.T) {
	h := newHarness(t, newFakeStore(), newFakeIdentity())
	h.client.Start(context.Background())

	if err := h.client.Rooms.Create(context.Background()); !errors.Is(err, app.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
	if h.store.calls() != 0 {
		t.Error("store should not be called")
	}
}

func TestJoinByCode_EmptyInputIsLocal(t *testing.T) {
	store := newFakeStore()
	h := signedIn(t, store, "guest@example.com", "guest")

	for _, in := range []string{"", "   ", "\t\n"} {
		err := h.client.Rooms.JoinByCode(context.Background(), in)
		if !errors.Is(err, app.ErrEmptyCode) {
			t.Errorf("JoinByCode(%q): expected ErrEmptyCode, got %v", in, err)
		}
		if h.view.lastNote() != "Enter room code" {
			t.Errorf("JoinByCode(%q): expected validation message, got %q", in, h.view.lastNote())
		}
	}
	if store.calls() != 0 {
		t.Errorf("expected no store calls, got %d", store.calls())
	}
	if len(h.realtime.emitted()) != 0 {
		t.Error("expected no emits")
	}
}

func TestJoinByCode_NotFound(t *testing.T) {
	h := signedIn(t, newFakeStore(), "guest@example.com", "guest")

	err := h.client.Rooms.JoinByCode(context.Background(), "nope00")
	if !errors.Is(err, app.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if h.view.lastNote() != "Room not found" {
		t.Errorf("expected not-found message, got %q", h.view.lastNote())
	}
	if h.client.Session.Room() != nil {
		t.Error("no room should be current")
	}
}

func TestJoinByCode_OnlyWaitingRooms(t *testing.T) {
	store := newFakeStore()
	store.rooms = append(store.rooms, domain.Room{ID: "r1", Code: "PLAYIN", HostID: "x", Status: "playing"})
	h := signedIn(t, store, "guest@example.com", "guest")

	if err := h.client.Rooms.JoinByCode(context.Background(), "playin"); !errors.Is(err, app.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound for non-waiting room, got %v", err)
	}
}

func TestJoin_ParticipantInsertFailureStopsFlow(t *testing.T) {
	store := newFakeStore()
	store.rooms = append(store.rooms, domain.Room{ID: "r1", Code: "ABCDEF", HostID: "x", Status: domain.StatusWaiting})
	h := signedIn(t, store, "guest@example.com", "guest")
	store.addErr = errors.New("permission denied")

	if err := h.client.Rooms.JoinByCode(context.Background(), "abcdef"); err == nil {
		t.Fatal("expected error")
	}
	if h.client.Session.Room() != nil {
		t.Error("room must not become current")
	}
	if h.view.screen() != core.ScreenDashboard {
		t.Errorf("expected dashboard, got %v", h.view.screen())
	}
	if len(h.realtime.emitted()) != 0 {
		t.Error("no emit expected")
	}
}

func TestJoin_EmitFailureDoesNotBlock(t *testing.T) {
	store := newFakeStore()
	store.rooms = append(store.rooms, domain.Room{ID: "r1", Code: "ABCDEF", HostID: "x", Status: domain.StatusWaiting})
	h := signedIn(t, store, "guest@example.com", "guest")
	h.realtime.err = errors.New("backpressure")

	if err := h.client.Rooms.JoinByCode(context.Background(), "ABCDEF"); err != nil {
		t.Fatalf("join should not depend on emit: %v", err)
	}
	if h.view.screen() != core.ScreenRoom {
		t.Errorf("expected room screen, got %v", h.view.screen())
	}
}

func TestLeave_NoRoomIsNoop(t *testing.T) {
	store := newFakeStore()
	h := signedIn(t, store, "guest@example.com", "guest")
	before := h.view.transitionCount()

	if err := h.client.Rooms.Leave(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.removes != 0 {
		t.Error("no delete expected")
	}
	if len(h.realtime.emitted()) != 0 {
		t.Error("no emit expected")
	}
	if h.view.transitionCount() != before {
		t.Error("no view change expected")
	}
}

func TestLeave_DeletesEmitsClearsAndReturnsToDashboard(t *testing.T) {
	store := newFakeStore()
	h := signedIn(t, store, "host@example.com", "host")
	h.client.Rooms.NewCode = fixedCode("LEAVE1")
	if err := h.client.Rooms.Create(context.Background()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	roomID := h.client.Session.Room().ID

	if err := h.client.Rooms.Leave(context.Background()); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if store.removes != 1 {
		t.Errorf("expected one delete, got %d", store.removes)
	}
	if len(store.participants) != 0 {
		t.Errorf("expected participant removed, got %+v", store.participants)
	}
	sent := h.realtime.emitted()
	leave, ok := sent[len(sent)-1].(core.LeaveRoom)
	if !ok || leave.RoomID != roomID {
		t.Errorf("expected LeaveRoom for %s, got %+v", roomID, sent[len(sent)-1])
	}
	if h.client.Session.Room() != nil {
		t.Error("room should be cleared")
	}
	if h.client.Session.User() == nil {
		t.Error("user must survive leave")
	}
	if h.view.screen() != core.ScreenDashboard {
		t.Errorf("expected dashboard, got %v", h.view.screen())
	}
}

func TestLeave_DeleteFailureStillLeaves(t *testing.T) {
	store := newFakeStore()
	h := signedIn(t, store, "host@example.com", "host")
	if err := h.client.Rooms.Create(context.Background()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store.removeErr = errors.New("network down")

	if err := h.client.Rooms.Leave(context.Background()); err == nil {
		t.Error("expected the delete error to be reported")
	}
	if h.client.Session.Room() != nil {
		t.Error("room should be cleared even when the delete fails")
	}
	if h.view.screen() != core.ScreenDashboard {
		t.Errorf("expected dashboard, got %v", h.view.screen())
	}
}

func TestRefreshParticipants_RendersSnapshotWithoutDedup(t *testing.T) {
	store := newFakeStore()
	// Duplicates reaching the client are rendered as-is.
	store.participants = []domain.Participant{
		{RoomID: "r1", UserID: "a", IsHost: true, User: &domain.User{Username: "alice"}},
		{RoomID: "r1", UserID: "b", User: &domain.User{Email: "bob@example.com"}},
		{RoomID: "r1", UserID: "b", User: &domain.User{Email: "bob@example.com"}},
		{RoomID: "r2", UserID: "c"},
	}
	h := newHarness(t, store, newFakeIdentity())

	if err := h.client.Rooms.RefreshParticipants(context.Background(), "r1"); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if h.view.count != 3 || len(h.view.list) != 3 {
		t.Fatalf("expected 3 entries, got count=%d list=%+v", h.view.count, h.view.list)
	}
	if h.view.list[0].Name != "alice" || !h.view.list[0].IsHost {
		t.Errorf("unexpected first entry %+v", h.view.list[0])
	}
	if h.view.list[1].Name != "bob@example.com" {
		t.Errorf("expected email fallback, got %+v", h.view.list[1])
	}

	// A second refresh replaces, not appends.
	store.participants = store.participants[:1]
	if err := h.client.Rooms.RefreshParticipants(context.Background(), "r1"); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(h.view.list) != 1 {
		t.Errorf("expected previous list discarded, got %+v", h.view.list)
	}
}

func TestRefreshParticipants_EmptyRoomIDIsNoop(t *testing.T) {
	store := newFakeStore()
	h := newHarness(t, store, newFakeIdentity())
	if err := h.client.Rooms.RefreshParticipants(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.listCalls() != 0 {
		t.Error("no query expected")
	}
}

func TestResume_RefreshesCurrentRoomOnly(t *testing.T) {
	store := newFakeStore()
	h := signedIn(t, store, "host@example.com", "host")

	if err := h.client.Rooms.Resume(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.listCalls() != 0 {
		t.Error("resume outside a room should not query")
	}

	if err := h.client.Rooms.Create(context.Background()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	before := store.listCalls()
	if err := h.client.Rooms.Resume(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.listCalls() != before+1 {
		t.Errorf("expected one refresh, got %d", store.listCalls()-before)
	}
}

func TestRoomController_NilRealtime(t *testing.T) {
	store := newFakeStore()
	id := newFakeIdentity()
	_ = id.SignUp(context.Background(), "solo@example.com", "secret", "solo")
	view := newFakeView()
	c := app.NewClient(id, store, nil, view)
	c.Start(context.Background())
	if err := c.Auth.SignIn(context.Background(), "solo@example.com", "secret"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if err := c.Rooms.Create(context.Background()); err != nil {
		t.Fatalf("Create without realtime failed: %v", err)
	}
	if err := c.Rooms.Leave(context.Background()); err != nil {
		t.Fatalf("Leave without realtime failed: %v", err)
	}
}
