// Package identity provides the identity provider backing sessions: accounts
// in the document store, bcrypt password hashes and signed JWT sessions.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/config"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// Claims represents the JWT claims of a session
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// LocalProvider implements ports.IdentityProvider
type LocalProvider struct {
	users      ports.UserRepository
	blacklist  ports.TokenBlacklist
	jwtConfig  config.JWTConfig
	bcryptCost int
	logger     *logger.Logger
	now        func() time.Time
}

// NewLocalProvider creates a new identity provider
func NewLocalProvider(users ports.UserRepository, blacklist ports.TokenBlacklist, jwtConfig config.JWTConfig, bcryptCost int, logger *logger.Logger) *LocalProvider {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &LocalProvider{
		users:      users,
		blacklist:  blacklist,
		jwtConfig:  jwtConfig,
		bcryptCost: bcryptCost,
		logger:     logger.WithComponent("identity"),
		now:        time.Now,
	}
}

// CurrentUser resolves the principal behind session. An empty session is the
// anonymous caller and resolves to nil without error.
func (p *LocalProvider) CurrentUser(ctx context.Context, session string) (*entities.Principal, error) {
	if session == "" {
		return nil, nil
	}

	claims, err := p.parse(session)
	if err != nil {
		return nil, err
	}

	revoked, err := p.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check session revocation: %w", err)
	}
	if revoked {
		return nil, entities.ErrInvalidSession
	}

	user, err := p.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, entities.ErrInvalidSession
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}

	return user.Principal(), nil
}

// Login verifies the credentials and issues a session.
func (p *LocalProvider) Login(ctx context.Context, email, password string) (*entities.Session, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			p.logger.Warnw("Login attempt with unknown email", "email", email)
			return nil, entities.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		p.logger.LogSecurityEvent("invalid_password", user.ID, "", nil)
		return nil, entities.ErrInvalidCredentials
	}

	p.logger.Infow("User logged in", "user_id", user.ID)
	return p.issue(user)
}

// Signup creates the account and issues a session.
func (p *LocalProvider) Signup(ctx context.Context, email, password, name string) (*entities.Session, error) {
	existing, err := p.users.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, entities.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, entities.ErrUserNotFound) {
		return nil, fmt.Errorf("signup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Email:        strings.TrimSpace(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	p.logger.Infow("User signed up", "user_id", user.ID)
	return p.issue(user)
}

// Logout revokes session until it would have expired.
func (p *LocalProvider) Logout(ctx context.Context, session string) error {
	claims, err := p.parse(session)
	if err != nil {
		return err
	}

	until := p.now().Add(p.jwtConfig.ExpiresIn)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := p.blacklist.Revoke(ctx, claims.ID, until); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	p.logger.Infow("User logged out", "user_id", claims.Subject)
	return nil
}

func (p *LocalProvider) parse(session string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(session, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.jwtConfig.Secret), nil
	}, jwt.WithIssuer(p.jwtConfig.Issuer), jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, entities.ErrInvalidSession
	}
	return claims, nil
}

func (p *LocalProvider) issue(user *entities.User) (*entities.Session, error) {
	now := p.now()
	expires := now.Add(p.jwtConfig.ExpiresIn)
	claims := &Claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    p.jwtConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(p.jwtConfig.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &entities.Session{Token: signed, UserID: user.ID, ExpiresAt: expires}, nil
}
