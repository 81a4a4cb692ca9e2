package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campusmatch/internal/domain"
)

// CallerLocalsKey is the fiber locals key holding the *Caller. Websocket
// connections inherit it from the upgrade request.
const CallerLocalsKey = "auth_caller"

type callerCtxKey struct{}

// Caller is the resolved, policy-checked identity of a request or connection.
type Caller struct {
	UserID      string
	Email       string
	IsApproved  bool
	IsSuspended bool
	IsPremium   bool
	Strategy    domain.AuthStrategy
	// TokenID and ExpiresAt are only set for bearer callers.
	TokenID   string
	ExpiresAt time.Time
}

func newCaller(user *domain.User, res *Resolution) *Caller {
	c := &Caller{
		UserID:      user.ID,
		Email:       user.Email,
		IsApproved:  user.IsApproved,
		IsSuspended: user.IsSuspended,
		IsPremium:   user.IsPremium,
		Strategy:    res.Strategy,
	}
	if res.Claims != nil {
		c.TokenID = res.Claims.ID
		c.ExpiresAt = res.Claims.ExpiresAtTime()
	}
	return c
}

// WithCaller returns a context carrying caller.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey{}, caller)
}

// CallerFromContext retrieves the caller attached by WithCaller.
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	caller, ok := ctx.Value(callerCtxKey{}).(*Caller)
	return caller, ok && caller != nil
}

// CallerFromFiber retrieves the caller attached by AuthMiddleware.
func CallerFromFiber(c *fiber.Ctx) (*Caller, bool) {
	caller, ok := c.Locals(CallerLocalsKey).(*Caller)
	return caller, ok && caller != nil
}

func attachCaller(c *fiber.Ctx, caller *Caller) {
	c.Locals(CallerLocalsKey, caller)
	c.SetUserContext(WithCaller(c.UserContext(), caller))
}
