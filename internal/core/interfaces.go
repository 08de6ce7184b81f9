package core

import "github.com/dkeye/SyncSound/internal/domain"

type Screen int

const (
	ScreenLoading Screen = iota
	ScreenAuth
	ScreenDashboard
	ScreenRoom
)

// Screens lists every screen in display order.
var Screens = []Screen{ScreenLoading, ScreenAuth, ScreenDashboard, ScreenRoom}

func (s Screen) String() string {
	switch s {
	case ScreenLoading:
		return "loading"
	case ScreenAuth:
		return "auth"
	case ScreenDashboard:
		return "dashboard"
	case ScreenRoom:
		return "room"
	default:
		return "unknown"
	}
}

// ParticipantDTO is a read-only view for rendering (no store fields).
type ParticipantDTO struct {
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
}

// View is the presentation surface. Implementations must be safe for use
// from several goroutines.
type View interface {
	SetVisible(screen Screen, visible bool)
	ShowUser(name string)
	ShowRoom(name string, code domain.RoomCode)
	ShowHostControls(isHost bool)
	SetParticipantCount(n int)
	RenderParticipants(list []ParticipantDTO)
	SetConnected(connected bool)
	Notify(message string)
}
