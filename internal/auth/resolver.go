package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/spec-kit/campusmatch/internal/domain"
	apperrors "github.com/spec-kit/campusmatch/pkg/util"
)

// Credentials are the raw identity inputs of a request.
type Credentials struct {
	Authorization string
	// QueryToken is a bearer token passed as a query parameter by browser sockets.
	QueryToken  string
	HeaderID    string
	HeaderEmail string
}

func (c Credentials) hasBearer() bool {
	return strings.TrimSpace(c.Authorization) != "" || strings.TrimSpace(c.QueryToken) != ""
}

func (c Credentials) hasHeaderIdentity() bool {
	return strings.TrimSpace(c.HeaderID) != "" || strings.TrimSpace(c.HeaderEmail) != ""
}

// Resolution is the outcome of identity resolution before account policy runs.
type Resolution struct {
	User     *domain.User
	Strategy domain.AuthStrategy
	Claims   *Claims
}

// IdentityResolver turns credentials into a stored user record.
type IdentityResolver interface {
	Resolve(ctx context.Context, creds Credentials) (*Resolution, error)
}

// CredentialStore is the read-only user lookup consumed by resolvers.
// A missing user is reported as pgx.ErrNoRows.
type CredentialStore interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// RevocationChecker reports whether a token ID was revoked before expiry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// BearerResolver authenticates signed bearer tokens.
type BearerResolver struct {
	tokens  *TokenManager
	users   CredentialStore
	revoked RevocationChecker
}

// NewBearerResolver builds a resolver. revoked may be nil.
func NewBearerResolver(tokens *TokenManager, users CredentialStore, revoked RevocationChecker) *BearerResolver {
	return &BearerResolver{tokens: tokens, users: users, revoked: revoked}
}

func (r *BearerResolver) Resolve(ctx context.Context, creds Credentials) (*Resolution, error) {
	raw, err := bearerToken(creds)
	if err != nil {
		return nil, err
	}

	claims, err := r.tokens.Verify(raw)
	switch {
	case errors.Is(err, ErrExpired):
		return nil, apperrors.NewIdentityInvalid("expired token")
	case err != nil:
		return nil, apperrors.NewIdentityInvalid("invalid token")
	}

	if r.revoked != nil && claims.ID != "" {
		revoked, err := r.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if revoked {
			return nil, apperrors.NewIdentityInvalid("token revoked")
		}
	}

	user, err := lookupUser(ctx, r.users, claims.Subject)
	if err != nil {
		return nil, err
	}
	return &Resolution{User: user, Strategy: domain.AuthStrategyBearer, Claims: claims}, nil
}

func bearerToken(creds Credentials) (string, error) {
	header := strings.TrimSpace(creds.Authorization)
	if header == "" {
		if token := strings.TrimSpace(creds.QueryToken); token != "" {
			return token, nil
		}
		return "", apperrors.NewIdentityMissing("missing token")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewIdentityInvalid("invalid token")
	}
	return strings.TrimSpace(parts[1]), nil
}

// HeaderResolver authenticates the legacy identifier+email header pair.
// It carries no cryptographic proof.
type HeaderResolver struct {
	users CredentialStore
}

// NewHeaderResolver builds a resolver.
func NewHeaderResolver(users CredentialStore) *HeaderResolver {
	return &HeaderResolver{users: users}
}

func (r *HeaderResolver) Resolve(ctx context.Context, creds Credentials) (*Resolution, error) {
	id := strings.TrimSpace(creds.HeaderID)
	email := domain.NormalizeEmail(creds.HeaderEmail)
	if id == "" || email == "" {
		return nil, apperrors.NewIdentityMissing("missing identity headers")
	}

	user, err := lookupUser(ctx, r.users, id)
	if err != nil {
		return nil, err
	}

	stored := domain.NormalizeEmail(user.Email)
	if subtle.ConstantTimeCompare([]byte(stored), []byte(email)) != 1 {
		return nil, apperrors.NewIdentityInvalid("invalid credentials")
	}
	return &Resolution{User: user, Strategy: domain.AuthStrategyHeader}, nil
}

// ChainResolver prefers bearer credentials and falls back to identity headers
// only when no bearer credential was supplied.
type ChainResolver struct {
	bearer IdentityResolver
	header IdentityResolver
}

// NewChainResolver builds a resolver. header may be nil to disable the legacy path.
func NewChainResolver(bearer, header IdentityResolver) *ChainResolver {
	return &ChainResolver{bearer: bearer, header: header}
}

func (r *ChainResolver) Resolve(ctx context.Context, creds Credentials) (*Resolution, error) {
	if creds.hasBearer() || r.header == nil || !creds.hasHeaderIdentity() {
		return r.bearer.Resolve(ctx, creds)
	}
	return r.header.Resolve(ctx, creds)
}

func lookupUser(ctx context.Context, users CredentialStore, id string) (*domain.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewIdentityInvalid("user not found")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if user == nil {
		return nil, apperrors.NewIdentityInvalid("user not found")
	}
	return user, nil
}
