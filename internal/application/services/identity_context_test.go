package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
)

type fakeProvider struct {
	users     map[string]*entities.Principal
	block     chan struct{}
	logoutErr error
	loginErr  error
}

func (p *fakeProvider) CurrentUser(_ context.Context, session string) (*entities.Principal, error) {
	if p.block != nil {
		<-p.block
	}
	if session == "" {
		return nil, nil
	}
	user, ok := p.users[session]
	if !ok {
		return nil, entities.ErrInvalidSession
	}
	return user, nil
}

func (p *fakeProvider) Login(_ context.Context, email, password string) (*entities.Session, error) {
	if p.loginErr != nil {
		return nil, p.loginErr
	}
	return &entities.Session{Token: "token-" + email, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (p *fakeProvider) Signup(ctx context.Context, email, password, name string) (*entities.Session, error) {
	p.users["token-"+email] = &entities.Principal{UserID: "new", DisplayName: name, Email: email}
	return p.Login(ctx, email, password)
}

func (p *fakeProvider) Logout(context.Context, string) error {
	return p.logoutErr
}

type countingClaimer struct {
	claimed []string
}

func (c *countingClaimer) ClaimInvites(_ context.Context, principal *entities.Principal) (int, error) {
	c.claimed = append(c.claimed, principal.UserID)
	return 1, nil
}

func waitReady(t *testing.T, ic *IdentityContext) {
	t.Helper()
	select {
	case <-ic.Ready():
	case <-time.After(time.Second):
		t.Fatalf("identity context never became ready")
	}
}

func TestIdentityContextResolvesExistingSession(t *testing.T) {
	provider := &fakeProvider{
		users: map[string]*entities.Principal{"s1": alice},
		block: make(chan struct{}),
	}
	ic := NewIdentityContext(provider, nil, "s1", logger.NewNop())
	ic.Start(context.Background())

	if !ic.Loading() {
		t.Fatalf("expected loading while resolution is pending")
	}
	close(provider.block)
	waitReady(t, ic)

	if ic.Loading() || !ic.IsAuthenticated() || ic.User().UserID != alice.UserID {
		t.Fatalf("expected alice resolved, got %+v", ic.User())
	}
}

func TestIdentityContextFallsBackToAnonymous(t *testing.T) {
	provider := &fakeProvider{users: map[string]*entities.Principal{}}
	ic := NewIdentityContext(provider, nil, "stale", logger.NewNop())
	ic.Start(context.Background())
	waitReady(t, ic)

	if ic.IsAuthenticated() || ic.Session() != "" {
		t.Fatalf("expected anonymous after failed resolution, got %+v", ic.User())
	}
}

func TestIdentityContextLoginClaimsInvites(t *testing.T) {
	provider := &fakeProvider{users: map[string]*entities.Principal{"token-bob@example.com": bob}}
	claimer := &countingClaimer{}
	ic := NewIdentityContext(provider, claimer, "", logger.NewNop())

	user, err := ic.Login(context.Background(), bob.Email, "secret")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.UserID != bob.UserID || ic.Session() != "token-bob@example.com" {
		t.Fatalf("expected bob signed in, got %+v", user)
	}
	if len(claimer.claimed) != 1 || claimer.claimed[0] != bob.UserID {
		t.Fatalf("expected invites claimed for bob, got %v", claimer.claimed)
	}

	if _, err := ic.Signup(context.Background(), "erin@example.com", "secret", "Erin"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ic.User().DisplayName != "Erin" {
		t.Fatalf("expected erin signed in, got %+v", ic.User())
	}
}

func TestIdentityContextLoginPropagatesErrors(t *testing.T) {
	provider := &fakeProvider{users: map[string]*entities.Principal{}, loginErr: entities.ErrInvalidCredentials}
	ic := NewIdentityContext(provider, nil, "", logger.NewNop())

	if _, err := ic.Login(context.Background(), "x@example.com", "bad"); !errors.Is(err, entities.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if ic.IsAuthenticated() {
		t.Fatalf("expected anonymous after failed login")
	}
}

func TestIdentityContextLogoutAlwaysClears(t *testing.T) {
	boom := errors.New("provider unreachable")
	provider := &fakeProvider{users: map[string]*entities.Principal{"s1": alice}, logoutErr: boom}
	ic := NewIdentityContext(provider, nil, "s1", logger.NewNop())
	ic.Start(context.Background())
	waitReady(t, ic)

	if err := ic.Logout(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected provider error returned, got %v", err)
	}
	if ic.IsAuthenticated() || ic.Session() != "" {
		t.Fatalf("expected user cleared despite provider failure")
	}
}
