package local

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen = 6

	// Sign-in attempts allowed per email within signInWindow.
	maxFailedSignIns = 5
	signInWindow     = time.Minute
)

var (
	ErrAlreadyRegistered  = errors.New("User already registered")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrWeakPassword       = errors.New("Password should be at least 6 characters")
	ErrInvalidEmail       = errors.New("Unable to validate email address: invalid format")
	ErrRateLimited        = errors.New("Request rate limit reached")
)

type account struct {
	user *domain.User
	hash []byte
}

// Identity is an in-process identity provider for offline use and tests.
// Accounts live only as long as the process.
type Identity struct {
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int

	failures *attemptLimiter

	mu      sync.RWMutex
	byEmail map[string]*account
	byID    map[domain.UserID]*account
	current *domain.User
	subs    map[int]func(*domain.User)
	nextSub int
}

var _ core.IdentityProvider = (*Identity)(nil)

func NewIdentity() *Identity {
	return &Identity{
		failures: newAttemptLimiter(maxFailedSignIns, signInWindow),
		byEmail:  make(map[string]*account),
		byID:     make(map[domain.UserID]*account),
		subs:     make(map[int]func(*domain.User)),
	}
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Identity) SignUp(_ context.Context, email, password, username string) error {
	email = normEmail(email)
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < MinPasswordLen {
		return ErrWeakPassword
	}
	cost := p.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[email]; ok {
		return ErrAlreadyRegistered
	}
	acc := &account{
		user: &domain.User{ID: domain.UserID(uuid.NewString()), Email: email, Username: username},
		hash: hash,
	}
	p.byEmail[email] = acc
	p.byID[acc.user.ID] = acc
	log.Info().Str("module", "local.identity").Str("user", string(acc.user.ID)).Msg("registered account")
	return nil
}

// SignIn refuses every attempt for an email, right password or not, once it
// has used up its attempts within the window. A success clears the count.
func (p *Identity) SignIn(_ context.Context, email, password string) (*domain.User, error) {
	email = normEmail(email)
	if !p.failures.Allow(email) {
		log.Warn().Str("module", "local.identity").Str("email", email).Msg("sign-in rate limited")
		return nil, ErrRateLimited
	}

	p.mu.RLock()
	acc, ok := p.byEmail[email]
	p.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	p.failures.Reset(email)
	u := *acc.user
	p.publish(&u)
	return &u, nil
}

func (p *Identity) SignOut(context.Context) error {
	p.publish(nil)
	return nil
}

func (p *Identity) CurrentSession(context.Context) (*domain.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil, nil
	}
	u := *p.current
	return &u, nil
}

func (p *Identity) Subscribe(fn func(*domain.User)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Lookup resolves a user by id; Store uses it to join participants with users.
func (p *Identity) Lookup(id domain.UserID) (*domain.User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	acc, ok := p.byID[id]
	if !ok {
		return nil, false
	}
	u := *acc.user
	return &u, true
}

func (p *Identity) publish(u *domain.User) {
	p.mu.Lock()
	p.current = u
	fns := make([]func(*domain.User), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}
