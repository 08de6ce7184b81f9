package app

import (
	"context"
	"strings"
	"sync"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/rs/zerolog/log"
)

const msgSignupDone = "Signup successful, confirmation email sent"

// AuthBridge turns identity-provider session changes into session state and
// screen transitions.
type AuthBridge struct {
	Identity core.IdentityProvider
	Session  *Session
	Screens  *Screens
	View     core.View

	mu    sync.Mutex
	unsub func()
}

// Start resolves the initial session and subscribes to changes for the life
// of the process. A failing session check counts as "signed out".
func (b *AuthBridge) Start(ctx context.Context) {
	user, err := b.Identity.CurrentSession(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "app.auth").Msg("initial session check failed")
		user = nil
	}
	b.OnAuthChange(user)

	unsub := b.Identity.Subscribe(b.OnAuthChange)
	b.mu.Lock()
	b.unsub = unsub
	b.mu.Unlock()
}

func (b *AuthBridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
}

func (b *AuthBridge) OnAuthChange(user *domain.User) {
	if user == nil {
		if b.Session.User() != nil || b.Session.Room() != nil {
			b.Session.Clear()
		}
		b.Screens.Show(core.ScreenAuth)
		return
	}
	b.Session.SetUser(user)
	b.View.ShowUser(user.DisplayName())
	b.Screens.Show(core.ScreenDashboard)
}

func (b *AuthBridge) SignUp(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if err := domain.ValidateUsername(username); err != nil {
		b.View.Notify(err.Error())
		return err
	}
	if err := b.Identity.SignUp(ctx, email, password, username); err != nil {
		log.Warn().Err(err).Str("module", "app.auth").Str("email", email).Msg("sign up failed")
		b.View.Notify(err.Error())
		return err
	}
	b.View.Notify(msgSignupDone)
	return nil
}

func (b *AuthBridge) SignIn(ctx context.Context, email, password string) error {
	user, err := b.Identity.SignIn(ctx, strings.TrimSpace(email), strings.TrimSpace(password))
	if err != nil {
		log.Warn().Err(err).Str("module", "app.auth").Str("email", email).Msg("sign in failed")
		b.View.Notify(err.Error())
		return err
	}
	b.OnAuthChange(user)
	return nil
}

// SignOut relies on the provider publishing the nil change.
func (b *AuthBridge) SignOut(ctx context.Context) error {
	if err := b.Identity.SignOut(ctx); err != nil {
		log.Warn().Err(err).Str("module", "app.auth").Msg("sign out failed")
		b.View.Notify(err.Error())
		return err
	}
	return nil
}
