package app

import (
	"context"
	"fmt"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/rs/zerolog/log"
)

const msgConnectionError = "Connection error occurred"

// EventRouter reacts to push notifications. It never reconnects; that is
// the transport's job.
type EventRouter struct {
	Session *Session
	View    core.View
	Rooms   *RoomController
}

func (r *EventRouter) Dispatch(ctx context.Context, ev core.Event) {
	switch e := ev.(type) {
	case core.Connected:
		log.Info().Str("module", "app.router").Msg("connected to server")
		r.Session.SetConnected(true)
		r.View.SetConnected(true)
	case core.Disconnected:
		log.Info().Str("module", "app.router").Str("reason", e.Reason).Msg("disconnected from server")
		r.Session.SetConnected(false)
		r.View.SetConnected(false)
	case core.RoomUpdated:
		r.View.SetParticipantCount(e.Participants)
	case core.ParticipantJoined:
		r.View.Notify(fmt.Sprintf("%s joined the room", nameOrSomeone(e.Username)))
		r.refreshCurrent(ctx)
	case core.ParticipantLeft:
		r.View.Notify(fmt.Sprintf("%s left the room", nameOrSomeone(e.Username)))
		r.refreshCurrent(ctx)
	case core.TransportError:
		log.Error().Err(e.Err).Str("module", "app.router").Msg("socket error")
		r.View.Notify(msgConnectionError)
	case core.RecordsChanged:
		if room := r.Session.Room(); room != nil && room.ID == e.RoomID {
			r.refreshCurrent(ctx)
		}
	default:
		log.Warn().Str("module", "app.router").Str("event", fmt.Sprintf("%T", ev)).Msg("unknown event")
	}
}

func (r *EventRouter) refreshCurrent(ctx context.Context) {
	room := r.Session.Room()
	if room == nil {
		return
	}
	_ = r.Rooms.RefreshParticipants(ctx, room.ID)
}

func nameOrSomeone(name string) string {
	if name == "" {
		return "Someone"
	}
	return name
}
