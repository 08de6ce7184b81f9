package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
)

type unknownEvent struct{ core.Connected }

func TestDispatch_ConnectionState(t *testing.T) {
	h := newHarness(t, newFakeStore(), newFakeIdentity())
	ctx := context.Background()

	h.client.Router.Dispatch(ctx, core.Connected{})
	if !h.client.Session.Connected() || !h.view.connected {
		t.Fatal("expected connected")
	}
	h.client.Router.Dispatch(ctx, core.Disconnected{Reason: "io timeout"})
	if h.client.Session.Connected() || h.view.connected {
		t.Fatal("expected disconnected")
	}
}

func TestDispatch_RoomUpdatedOnlySetsCount(t *testing.T) {
	store := newFakeStore()
	h := newHarness(t, store, newFakeIdentity())

	h.client.Router.Dispatch(context.Background(), core.RoomUpdated{Participants: 4})
	if h.view.count != 4 {
		t.Errorf("expected count 4, got %d", h.view.count)
	}
	if store.listCalls() != 0 {
		t.Error("room-updated must not refetch")
	}
}

func TestDispatch_ParticipantEventsRefreshOnce(t *testing.T) {
	store := newFakeStore()
	h := signedIn(t, store, "host@example.com", "host")
	if err := h.client.Rooms.Create(context.Background()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	room := h.client.Session.Room()

	tests := []struct {
		name string
		ev   core.Event
		note string
	}{
		{"joined", core.ParticipantJoined{RoomID: room.ID, UserID: "u2", Username: "bob"}, "bob joined the room"},
		{"left", core.ParticipantLeft{RoomID: room.ID, UserID: "u2", Username: "bob"}, "bob left the room"},
		{"anonymous", core.ParticipantLeft{RoomID: room.ID}, "Someone left the room"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := store.listCalls()
			h.client.Router.Dispatch(context.Background(), tt.ev)
			if got := store.listCalls() - before; got != 1 {
				t.Errorf("expected exactly one refresh, got %d", got)
			}
			if h.view.lastNote() != tt.note {
				t.Errorf("expected %q, got %q", tt.note, h.view.lastNote())
			}
		})
	}
}

func TestDispatch_ParticipantEventOutsideRoomDoesNotQuery(t *testing.T) {
	store := newFakeStore()
	h := signedIn(t, store, "guest@example.com", "guest")

	h.client.Router.Dispatch(context.Background(), core.ParticipantJoined{Username: "bob"})
	if store.listCalls() != 0 {
		t.Error("no refresh expected outside a room")
	}
	if h.view.lastNote() != "bob joined the room" {
		t.Errorf("unexpected note %q", h.view.lastNote())
	}
}

func TestDispatch_RefreshFailureKeepsRoom(t *testing.T) {
	store := newFakeStore()
	h := signedIn(t, store, "host@example.com", "host")
	if err := h.client.Rooms.Create(context.Background()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store.listErr = errors.New("timeout")

	h.client.Router.Dispatch(context.Background(), core.ParticipantJoined{Username: "bob"})
	if h.client.Session.Room() == nil {
		t.Error("room must survive a failed refresh")
	}
	if h.view.screen() != core.ScreenRoom {
		t.Errorf("expected room screen, got %v", h.view.screen())
	}
}

func TestDispatch_TransportErrorNotifies(t *testing.T) {
	h := newHarness(t, newFakeStore(), newFakeIdentity())
	h.client.Router.Dispatch(context.Background(), core.TransportError{Err: errors.New("boom")})
	if h.view.lastNote() != "Connection error occurred" {
		t.Errorf("unexpected note %q", h.view.lastNote())
	}
}

func TestDispatch_RecordsChangedMatchesCurrentRoom(t *testing.T) {
	store := newFakeStore()
	h := signedIn(t, store, "host@example.com", "host")
	if err := h.client.Rooms.Create(context.Background()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	room := h.client.Session.Room()

	before := store.listCalls()
	h.client.Router.Dispatch(context.Background(), core.RecordsChanged{RoomID: domain.RoomID("other")})
	if store.listCalls() != before {
		t.Error("changes for another room must be ignored")
	}
	h.client.Router.Dispatch(context.Background(), core.RecordsChanged{RoomID: room.ID})
	if store.listCalls() != before+1 {
		t.Error("expected one refresh for the current room")
	}
}

func TestDispatch_UnknownEventIsIgnored(t *testing.T) {
	h := newHarness(t, newFakeStore(), newFakeIdentity())
	h.client.Router.Dispatch(context.Background(), unknownEvent{})
	if h.client.Session.Connected() {
		t.Error("unknown events must not change state")
	}
}
