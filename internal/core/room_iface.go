package core

import (
	"context"
	"errors"

	"github.com/dkeye/SyncSound/internal/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// RoomStore covers the rooms collection.
type RoomStore interface {
	// CreateRoom stores the room and returns it as persisted (ID assigned).
	CreateRoom(ctx context.Context, room domain.Room) (*domain.Room, error)
	// FindRoomByCode matches code and status exactly; anything but a single
	// match is ErrNotFound.
	FindRoomByCode(ctx context.Context, code domain.RoomCode, status domain.RoomStatus) (*domain.Room, error)
}

// ParticipantStore covers the participants collection. The store, not the
// client, enforces one record per (room, user).
type ParticipantStore interface {
	AddParticipant(ctx context.Context, p domain.Participant) error
	RemoveParticipant(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error
	// ListParticipants returns every participant of the room joined with its user.
	ListParticipants(ctx context.Context, roomID domain.RoomID) ([]domain.Participant, error)
}

type RecordStore interface {
	RoomStore
	ParticipantStore
}
