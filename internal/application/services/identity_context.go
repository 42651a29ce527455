package services

import (
	"context"
	"sync"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// InviteClaimer binds pending invitations to a freshly authenticated principal.
type InviteClaimer interface {
	ClaimInvites(ctx context.Context, principal *entities.Principal) (int, error)
}

// IdentityContext holds the acting principal of a client process. It is
// resolved once on Start and afterwards changes only through Login, Signup
// and Logout.
type IdentityContext struct {
	provider ports.IdentityProvider
	claimer  InviteClaimer
	logger   *logger.Logger

	mu      sync.RWMutex
	session string
	user    *entities.Principal
	loading bool

	ready     chan struct{}
	readyOnce sync.Once
}

// NewIdentityContext creates an identity context for an existing session
// token, which may be empty. claimer may be nil.
func NewIdentityContext(provider ports.IdentityProvider, claimer InviteClaimer, session string, logger *logger.Logger) *IdentityContext {
	return &IdentityContext{
		provider: provider,
		claimer:  claimer,
		logger:   logger.WithComponent("identity_context"),
		session:  session,
		ready:    make(chan struct{}),
	}
}

// Start resolves the current user in the background. A failed resolution
// leaves the context anonymous.
func (c *IdentityContext) Start(ctx context.Context) {
	c.mu.Lock()
	c.loading = true
	session := c.session
	c.mu.Unlock()

	go func() {
		user, err := c.provider.CurrentUser(ctx, session)
		if err != nil {
			c.logger.Warnw("Initial identity resolution failed", "error", err)
			user = nil
		}

		c.mu.Lock()
		if c.loading {
			c.user = user
			if user == nil {
				c.session = ""
			}
			c.loading = false
		}
		c.mu.Unlock()
		c.markReady()
	}()
}

func (c *IdentityContext) markReady() {
	c.readyOnce.Do(func() { close(c.ready) })
}

// Ready is closed once the first resolution has finished.
func (c *IdentityContext) Ready() <-chan struct{} {
	return c.ready
}

// Loading reports whether the initial resolution is still pending.
func (c *IdentityContext) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *IdentityContext) User() *entities.Principal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *IdentityContext) IsAuthenticated() bool {
	return c.User() != nil
}

func (c *IdentityContext) Session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Login authenticates and replaces the current principal. Provider errors are
// returned unchanged and leave the state untouched.
func (c *IdentityContext) Login(ctx context.Context, email, password string) (*entities.Principal, error) {
	session, err := c.provider.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c.adopt(ctx, session)
}

// Signup creates an account and signs it in.
func (c *IdentityContext) Signup(ctx context.Context, email, password, name string) (*entities.Principal, error) {
	session, err := c.provider.Signup(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return c.adopt(ctx, session)
}

func (c *IdentityContext) adopt(ctx context.Context, session *entities.Session) (*entities.Principal, error) {
	user, err := c.provider.CurrentUser(ctx, session.Token)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session = session.Token
	c.user = user
	c.loading = false
	c.mu.Unlock()
	c.markReady()

	if c.claimer != nil {
		if _, err := c.claimer.ClaimInvites(ctx, user); err != nil {
			c.logger.Warnw("Claiming pending invites failed", "user_id", user.ID(), "error", err)
		}
	}
	return user, nil
}

// Logout ends the session. The principal is cleared even when the provider
// fails; the provider error is still returned.
func (c *IdentityContext) Logout(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.session = ""
	c.user = nil
	c.loading = false
	c.mu.Unlock()
	c.markReady()

	if session == "" {
		return nil
	}
	return c.provider.Logout(ctx, session)
}
