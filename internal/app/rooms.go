package app

import (
	"context"
	"errors"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyCode    = errors.New("empty room code")
	ErrRoomNotFound = errors.New("room not found")
	ErrNotSignedIn  = errors.New("not signed in")
)

const (
	msgEnterCode    = "Enter room code"
	msgRoomNotFound = "Room not found"
	msgSignInFirst  = "Sign in first"
)

// RoomController creates, joins and leaves rooms. Every store call is a
// single attempt: a failure ends the user action.
type RoomController struct {
	Store   core.RecordStore
	Session *Session
	Screens *Screens
	View    core.View
	// Realtime may be nil when no backend is configured.
	Realtime core.RealtimeChannel
	// NewCode defaults to domain.NewRoomCode.
	NewCode func() domain.RoomCode
}

func (c *RoomController) Create(ctx context.Context) error {
	user := c.Session.User()
	if user == nil {
		c.View.Notify(msgSignInFirst)
		return ErrNotSignedIn
	}

	newCode := c.NewCode
	if newCode == nil {
		newCode = domain.NewRoomCode
	}
	code := newCode()
	room, err := c.Store.CreateRoom(ctx, domain.Room{
		Code:   code,
		Name:   domain.DefaultRoomName(code),
		HostID: user.ID,
		Status: domain.StatusWaiting,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("code", string(code)).Msg("create room")
		c.View.Notify(err.Error())
		return err
	}
	log.Info().Str("module", "app.rooms").Str("room", string(room.ID)).Str("code", string(room.Code)).Msg("room created")
	return c.join(ctx, user, room)
}

func (c *RoomController) JoinByCode(ctx context.Context, raw string) error {
	code := domain.NormalizeCode(raw)
	if code == "" {
		c.View.Notify(msgEnterCode)
		return ErrEmptyCode
	}
	user := c.Session.User()
	if user == nil {
		c.View.Notify(msgSignInFirst)
		return ErrNotSignedIn
	}

	room, err := c.Store.FindRoomByCode(ctx, code, domain.StatusWaiting)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.rooms").Str("code", string(code)).Msg("room lookup")
		c.View.Notify(msgRoomNotFound)
		return ErrRoomNotFound
	}
	return c.join(ctx, user, room)
}

func (c *RoomController) join(ctx context.Context, user *domain.User, room *domain.Room) error {
	isHost := room.IsHost(user.ID)

	if err := c.Store.AddParticipant(ctx, domain.Participant{
		RoomID: room.ID,
		UserID: user.ID,
		IsHost: isHost,
		User:   user,
	}); err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("room", string(room.ID)).Msg("add participant")
		c.View.Notify(err.Error())
		return err
	}
	c.Session.SetRoom(room)

	c.emit(core.JoinRoom{
		RoomID:   room.ID,
		UserID:   user.ID,
		IsHost:   isHost,
		Username: user.DisplayName(),
	})

	c.View.ShowRoom(room.Name, room.Code)
	c.View.ShowHostControls(isHost)
	c.Screens.Show(core.ScreenRoom)

	log.Info().Str("module", "app.rooms").Str("room", string(room.ID)).Bool("host", isHost).Msg("joined room")
	return c.RefreshParticipants(ctx, room.ID)
}

// Leave is a no-op outside a room. The delete is issued before local state
// is cleared, but its failure does not keep the user in the room.
func (c *RoomController) Leave(ctx context.Context) error {
	room := c.Session.Room()
	if room == nil {
		return nil
	}
	var userID domain.UserID
	if u := c.Session.User(); u != nil {
		userID = u.ID
	}

	err := c.Store.RemoveParticipant(ctx, room.ID, userID)
	if err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("room", string(room.ID)).Msg("remove participant")
		c.View.Notify(err.Error())
	}

	c.emit(core.LeaveRoom{RoomID: room.ID})
	c.Session.ClearRoom()
	c.Screens.Show(core.ScreenDashboard)
	log.Info().Str("module", "app.rooms").Str("room", string(room.ID)).Msg("left room")
	return err
}

// RefreshParticipants renders exactly the snapshot the store returns.
func (c *RoomController) RefreshParticipants(ctx context.Context, roomID domain.RoomID) error {
	if roomID == "" {
		return nil
	}
	list, err := c.Store.ListParticipants(ctx, roomID)
	if err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("room", string(roomID)).Msg("load participants")
		return err
	}

	out := make([]core.ParticipantDTO, 0, len(list))
	for _, p := range list {
		out = append(out, core.ParticipantDTO{Name: p.DisplayName(), IsHost: p.IsHost})
	}
	c.View.SetParticipantCount(len(out))
	c.View.RenderParticipants(out)
	return nil
}

// Resume refreshes the current room after the client was idle or hidden.
func (c *RoomController) Resume(ctx context.Context) error {
	room := c.Session.Room()
	if room == nil {
		return nil
	}
	return c.RefreshParticipants(ctx, room.ID)
}

func (c *RoomController) emit(msg core.Outbound) {
	if c.Realtime == nil {
		return
	}
	if err := c.Realtime.Emit(msg); err != nil {
		log.Warn().Err(err).Str("module", "app.rooms").Str("event", msg.EventName()).Msg("emit dropped")
	}
}
