package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/campusmatch/pkg/util"
)

// RequireCaller rejects requests that reached the handler without a caller,
// typically routes mounted behind Optional.
func RequireCaller() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CallerFromFiber(c); !ok {
			return apperrors.NewIdentityMissing("missing token")
		}
		return c.Next()
	}
}

// RequirePremium ensures the caller holds an active premium subscription.
func RequirePremium() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := CallerFromFiber(c)
		if !ok {
			return apperrors.NewIdentityMissing("missing token")
		}
		if !caller.IsPremium {
			return apperrors.NewForbidden("premium membership required")
		}
		return c.Next()
	}
}
