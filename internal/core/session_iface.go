package core

import (
	"context"

	"github.com/dkeye/SyncSound/internal/domain"
)

// IdentityProvider is the hosted auth service as seen by the client.
// Subscribe delivers every session change (nil user on sign-out) until the
// returned func is called.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, username string) error
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*domain.User, error)
	Subscribe(fn func(*domain.User)) (unsubscribe func())
}
