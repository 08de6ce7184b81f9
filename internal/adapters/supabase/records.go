package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	tableRooms        = "audio_rooms"
	tableParticipants = "room_participants"
	tableProfiles     = "profiles"

	participantSelect = "room_id,user_id,is_host,profile:profiles(id,email,username)"
)

type roomRow struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	HostID string `json:"host_id"`
	Status string `json:"status"`
}

func (r roomRow) toDomain() *domain.Room {
	return &domain.Room{
		ID:     domain.RoomID(r.ID),
		Code:   domain.RoomCode(r.Code),
		Name:   r.Name,
		HostID: domain.UserID(r.HostID),
		Status: domain.RoomStatus(r.Status),
	}
}

type profileRow struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type participantRow struct {
	RoomID  string      `json:"room_id"`
	UserID  string      `json:"user_id"`
	IsHost  bool        `json:"is_host"`
	Profile *profileRow `json:"profile,omitempty"`
}

func eq(v string) string { return "eq." + v }

var (
	_ core.IdentityProvider = (*Client)(nil)
	_ core.RecordStore      = (*Client)(nil)
)

var preferRepresentation = http.Header{"Prefer": {"return=representation"}}

func (c *Client) CreateRoom(ctx context.Context, room domain.Room) (*domain.Room, error) {
	var rows []roomRow
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/" + tableRooms,
		body: roomRow{
			Name:   room.Name,
			Code:   string(room.Code),
			HostID: string(room.HostID),
			Status: string(room.Status),
		},
		header: preferRepresentation,
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("supabase: insert returned %d rows", len(rows))
	}
	return rows[0].toDomain(), nil
}

// FindRoomByCode treats anything other than exactly one match as not found.
func (c *Client) FindRoomByCode(ctx context.Context, code domain.RoomCode, status domain.RoomStatus) (*domain.Room, error) {
	var rows []roomRow
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/" + tableRooms,
		query: url.Values{
			"select": {"*"},
			"code":   {eq(string(code))},
			"status": {eq(string(status))},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, core.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

// AddParticipant upserts the user's profile first so the participant list can
// show a name. A failed profile write only costs the name, not the join.
func (c *Client) AddParticipant(ctx context.Context, p domain.Participant) error {
	if p.User != nil {
		if err := c.upsertProfile(ctx, p.User); err != nil {
			log.Warn().Err(err).Str("module", "supabase").Str("user", string(p.User.ID)).Msg("profile upsert failed")
		}
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/" + tableParticipants,
		body: participantRow{
			RoomID: string(p.RoomID),
			UserID: string(p.UserID),
			IsHost: p.IsHost,
		},
		header: http.Header{"Prefer": {"return=minimal"}},
	}, nil)
}

func (c *Client) upsertProfile(ctx context.Context, u *domain.User) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/" + tableProfiles,
		query:  url.Values{"on_conflict": {"id"}},
		body:   profileRow{ID: string(u.ID), Email: u.Email, Username: u.Username},
		header: http.Header{"Prefer": {"resolution=merge-duplicates,return=minimal"}},
	}, nil)
}

func (c *Client) RemoveParticipant(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/rest/v1/" + tableParticipants,
		query: url.Values{
			"room_id": {eq(string(roomID))},
			"user_id": {eq(string(userID))},
		},
	}, nil)
}

func (c *Client) ListParticipants(ctx context.Context, roomID domain.RoomID) ([]domain.Participant, error) {
	var rows []participantRow
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/" + tableParticipants,
		query: url.Values{
			"select":  {participantSelect},
			"room_id": {eq(string(roomID))},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Participant, 0, len(rows))
	for _, r := range rows {
		p := domain.Participant{
			RoomID: domain.RoomID(r.RoomID),
			UserID: domain.UserID(r.UserID),
			IsHost: r.IsHost,
		}
		if r.Profile != nil {
			p.User = &domain.User{ID: domain.UserID(r.Profile.ID), Email: r.Profile.Email, Username: r.Profile.Username}
		}
		out = append(out, p)
	}
	return out, nil
}
