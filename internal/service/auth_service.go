package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/campusmatch/internal/auth"
	"github.com/spec-kit/campusmatch/internal/config"
	"github.com/spec-kit/campusmatch/internal/domain"
	"github.com/spec-kit/campusmatch/internal/events"
	"github.com/spec-kit/campusmatch/internal/repository"
	apperrors "github.com/spec-kit/campusmatch/pkg/util"
)

// Revoker denylists a token until it would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// Disconnector closes a member's live chat connection.
type Disconnector interface {
	Disconnect(userID string) bool
}

// IssuedToken is a freshly minted bearer token.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration, login and logout flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	revoker    Revoker
	sessions   Disconnector
	dispatcher events.Dispatcher
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	// Revoker may be nil, in which case logout only discards the token client side.
	Revoker Revoker
	// Sessions may be nil. When set, logout also closes the caller's socket on this instance.
	Sessions   Disconnector
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL())
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   tokens,
		revoker:    deps.Revoker,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	College  string
}

// RegisterUser creates an account pending approval and returns its token.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (*domain.User, *IssuedToken, error) {
	email := domain.NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if name == "" || email == "" || input.Password == "" {
		return nil, nil, apperrors.NewValidationError("name, email, password required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", nil)
	} else if !repository.IsNotFound(err) {
		return nil, nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, nil, apperrors.NewValidationError(err.Error(), nil)
		}
		return nil, nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		College:      strings.TrimSpace(input.College),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserRegistered,
		ActorID: user.ID,
		Payload: events.UserRegisteredPayload{UserID: user.ID, College: user.College},
	})

	token, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// LoginUser authenticates a member by email and password.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, *IssuedToken, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	token, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// Logout revokes the caller's bearer token when revocation is configured and
// closes the caller's live chat connection.
func (s *AuthService) Logout(ctx context.Context, caller *auth.Caller) error {
	if caller == nil {
		return nil
	}
	if s.revoker != nil && caller.TokenID != "" {
		if err := s.revoker.Revoke(ctx, caller.TokenID, caller.ExpiresAt); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	if s.sessions != nil {
		s.sessions.Disconnect(caller.UserID)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*IssuedToken, error) {
	token, claims, err := s.tokenMgr.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &IssuedToken{Token: token, ExpiresAt: claims.ExpiresAtTime()}, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
