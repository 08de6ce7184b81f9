package app

import (
	"context"

	"github.com/dkeye/SyncSound/internal/core"
)

// Client wires the reconciliation components around one Session.
type Client struct {
	Session *Session
	Screens *Screens
	Auth    *AuthBridge
	Rooms   *RoomController
	Router  *EventRouter
}

// NewClient builds a client. realtime may be nil to run without a push channel.
func NewClient(identity core.IdentityProvider, store core.RecordStore, realtime core.RealtimeChannel, view core.View) *Client {
	session := NewSession()
	screens := NewScreens(view)

	rooms := &RoomController{
		Store:    store,
		Session:  session,
		Screens:  screens,
		View:     view,
		Realtime: realtime,
	}
	return &Client{
		Session: session,
		Screens: screens,
		Auth: &AuthBridge{
			Identity: identity,
			Session:  session,
			Screens:  screens,
			View:     view,
		},
		Rooms: rooms,
		Router: &EventRouter{
			Session: session,
			View:    view,
			Rooms:   rooms,
		},
	}
}

// Start shows the loading screen and hands over to the auth bridge, which
// always leaves it for auth or dashboard.
func (c *Client) Start(ctx context.Context) {
	c.Screens.Show(core.ScreenLoading)
	c.Auth.Start(ctx)
}

func (c *Client) Stop() {
	c.Auth.Stop()
}
