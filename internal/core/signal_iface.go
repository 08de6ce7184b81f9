package core

import (
	"context"

	"github.com/dkeye/SyncSound/internal/domain"
)

// Wire names of the push channel events.
const (
	EventRoomUpdated       = "room-updated"
	EventParticipantJoined = "participant-joined"
	EventParticipantLeft   = "participant-left"
	EventError             = "error"
	EventJoinRoom          = "join-room"
	EventLeaveRoom         = "leave-room"
)

// Event is the closed set of inbound notifications. Only types in this
// package implement it.
type Event interface {
	isEvent()
}

// Connected and Disconnected are produced locally by the transport.
type Connected struct{}

type Disconnected struct {
	Reason string
}

type RoomUpdated struct {
	Participants int `json:"participants"`
}

type ParticipantJoined struct {
	RoomID   domain.RoomID `json:"roomId"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

type ParticipantLeft struct {
	RoomID   domain.RoomID `json:"roomId"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

type TransportError struct {
	Err error
}

// RecordsChanged comes from the store change feed, not the push channel.
type RecordsChanged struct {
	RoomID domain.RoomID
}

func (Connected) isEvent()         {}
func (Disconnected) isEvent()      {}
func (RoomUpdated) isEvent()       {}
func (ParticipantJoined) isEvent() {}
func (ParticipantLeft) isEvent()   {}
func (TransportError) isEvent()    {}
func (RecordsChanged) isEvent()    {}

// EventHandler consumes inbound events.
type EventHandler interface {
	Dispatch(ctx context.Context, ev Event)
}

// Outbound is a client-to-backend notification.
type Outbound interface {
	EventName() string
}

type JoinRoom struct {
	RoomID   domain.RoomID `json:"roomId"`
	UserID   domain.UserID `json:"userId"`
	IsHost   bool          `json:"isHost"`
	Username string        `json:"username"`
}

type LeaveRoom struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (JoinRoom) EventName() string  { return EventJoinRoom }
func (LeaveRoom) EventName() string { return EventLeaveRoom }

// RealtimeChannel abstracts the push channel for outbound traffic.
// Emit is best-effort and non-blocking: no acknowledgement is awaited.
type RealtimeChannel interface {
	Emit(msg Outbound) error
}
