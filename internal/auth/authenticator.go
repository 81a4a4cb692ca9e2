package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campusmatch/internal/domain"
	apperrors "github.com/spec-kit/campusmatch/pkg/util"
)

// Authenticator resolves credentials and applies account-state policy.
// Both HTTP requests and socket upgrades go through it.
type Authenticator struct {
	resolver IdentityResolver
}

// NewAuthenticator wraps a resolver.
func NewAuthenticator(resolver IdentityResolver) *Authenticator {
	return &Authenticator{resolver: resolver}
}

// Authenticate returns a Caller or a DomainError describing the rejection.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*Caller, error) {
	res, err := a.resolver.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := CheckAccountState(res.User); err != nil {
		return nil, err
	}
	return newCaller(res.User, res), nil
}

// CheckAccountState enforces approval and suspension for every strategy.
func CheckAccountState(user *domain.User) error {
	switch {
	case user == nil:
		return apperrors.NewIdentityInvalid("user not found")
	case !user.IsApproved:
		return apperrors.NewAccountNotApproved()
	case user.IsSuspended:
		return apperrors.NewAccountSuspended()
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
