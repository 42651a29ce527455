package services

import (
	"context"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// AuthService handles authentication operations for request-scoped callers
type AuthService struct {
	provider ports.IdentityProvider
	claimer  InviteClaimer
	logger   *logger.Logger
}

// NewAuthService creates a new auth service. claimer may be nil.
func NewAuthService(provider ports.IdentityProvider, claimer InviteClaimer, logger *logger.Logger) *AuthService {
	return &AuthService{
		provider: provider,
		claimer:  claimer,
		logger:   logger,
	}
}

// Signup creates a new account and signs it in
func (s *AuthService) Signup(ctx context.Context, req ports.SignupRequest) (*ports.AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	session, err := s.provider.Signup(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, session)
}

// Login authenticates a user and returns a session
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	session, err := s.provider.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, session)
}

// Logout revokes a session
func (s *AuthService) Logout(ctx context.Context, session string) error {
	return s.provider.Logout(ctx, session)
}

// Authenticate resolves the principal behind a session token. An empty token
// is the anonymous principal.
func (s *AuthService) Authenticate(ctx context.Context, session string) (*entities.Principal, error) {
	return s.provider.CurrentUser(ctx, session)
}

func (s *AuthService) respond(ctx context.Context, session *entities.Session) (*ports.AuthResponse, error) {
	user, err := s.provider.CurrentUser(ctx, session.Token)
	if err != nil {
		return nil, err
	}

	if s.claimer != nil {
		if _, err := s.claimer.ClaimInvites(ctx, user); err != nil {
			s.logger.Warnw("Claiming pending invites failed", "user_id", user.ID(), "error", err)
		}
	}
	return &ports.AuthResponse{Session: session, User: user}, nil
}
