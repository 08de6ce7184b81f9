package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// Tokens are refreshed this long before they expire.
const refreshMargin = 30 * time.Second

type authUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Username string `json:"username"`
	} `json:"user_metadata"`
}

func (u *authUser) toDomain() *domain.User {
	if u == nil || u.ID == "" {
		return nil
	}
	return &domain.User{
		ID:       domain.UserID(u.ID),
		Email:    u.Email,
		Username: u.UserMetadata.Username,
	}
}

type authSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         *authUser `json:"user"`

	expiresAt time.Time
}

// tokenExpiry reads exp from the access token. The signature is the server's
// business; the client only needs to know when to refresh.
func tokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("supabase: parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("supabase: access token has no exp")
	}
	return claims.ExpiresAt.Time, nil
}

func (s *authSession) prepare(now time.Time) {
	if exp, err := tokenExpiry(s.AccessToken); err == nil {
		s.expiresAt = exp
		return
	}
	if s.ExpiresIn > 0 {
		s.expiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second)
	}
}

func (s *authSession) expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && now.Add(refreshMargin).After(s.expiresAt)
}

func (c *Client) SignUp(ctx context.Context, email, password, username string) error {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"username": username},
	}
	// Without email confirmation the response already carries a session.
	var resp authSession
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/v1/signup", body: body}, &resp); err != nil {
		return err
	}
	log.Info().Str("module", "supabase").Str("email", email).Msg("signed up")
	if resp.AccessToken != "" && resp.User != nil {
		c.setSession(&resp)
	}
	return nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	var s authSession
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &s)
	if err != nil {
		return nil, err
	}
	if s.AccessToken == "" || s.User == nil {
		return nil, errors.New("supabase: sign-in response without session")
	}
	c.setSession(&s)
	log.Info().Str("module", "supabase").Str("user", s.User.ID).Msg("signed in")
	return s.User.toDomain(), nil
}

// SignOut always drops the local session; the remote error is still returned.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.RLock()
	had := c.session != nil
	c.mu.RUnlock()
	if !had {
		return nil
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/v1/logout"}, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "supabase").Msg("remote sign-out failed")
	}
	c.setSession(nil)
	return err
}

// CurrentSession returns the signed-in user, refreshing an expiring token first.
func (c *Client) CurrentSession(ctx context.Context) (*domain.User, error) {
	s, err := c.freshSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	return s.User.toDomain(), nil
}

// freshSession swaps an expiring session for a refreshed one. refreshMu keeps
// it to one refresh at a time; callers waiting on it reuse the new token.
// A refresh keeps the same user, so subscribers are not notified unless it
// fails and the session is dropped.
func (c *Client) freshSession(ctx context.Context) (*authSession, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.RLock()
	s := c.session
	c.mu.RUnlock()
	if s == nil || !s.expired(time.Now()) {
		return s, nil
	}

	fresh := &authSession{}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": s.RefreshToken},
	}, fresh)
	if err != nil {
		c.setSession(nil)
		return nil, fmt.Errorf("supabase: refresh session: %w", err)
	}
	if fresh.User == nil {
		fresh.User = s.User
	}
	fresh.prepare(time.Now())
	c.mu.Lock()
	// A sign-out during the refresh wins.
	if c.session != s {
		c.mu.Unlock()
		return nil, nil
	}
	c.session = fresh
	c.mu.Unlock()
	log.Debug().Str("module", "supabase").Msg("session refreshed")
	return fresh, nil
}

func (c *Client) Subscribe(fn func(*domain.User)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// setSession stores s (nil signs out) and notifies subscribers outside the lock.
func (c *Client) setSession(s *authSession) {
	if s != nil {
		s.prepare(time.Now())
	}
	c.mu.Lock()
	c.session = s
	fns := make([]func(*domain.User), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	var user *domain.User
	if s != nil {
		user = s.User.toDomain()
	}
	for _, fn := range fns {
		fn(user)
	}
}
