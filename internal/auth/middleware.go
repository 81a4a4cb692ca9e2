package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/campusmatch/internal/domain"
	apperrors "github.com/spec-kit/campusmatch/pkg/util"
)

// AuthMiddleware resolves callers for protected and personalized routes.
type AuthMiddleware struct {
	authenticator *Authenticator
	logger        *zap.Logger
	headerID      string
	headerEmail   string
	queryToken    string
}

// MiddlewareOption customizes an AuthMiddleware.
type MiddlewareOption func(*AuthMiddleware)

// WithIdentityHeaders sets the legacy header names.
func WithIdentityHeaders(idHeader, emailHeader string) MiddlewareOption {
	return func(m *AuthMiddleware) {
		if idHeader != "" {
			m.headerID = idHeader
		}
		if emailHeader != "" {
			m.headerEmail = emailHeader
		}
	}
}

// WithQueryToken accepts a bearer token from the named query parameter.
// Only socket upgrade routes should enable it.
func WithQueryToken(param string) MiddlewareOption {
	return func(m *AuthMiddleware) {
		m.queryToken = param
	}
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(authenticator *Authenticator, logger *zap.Logger, opts ...MiddlewareOption) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &AuthMiddleware{
		authenticator: authenticator,
		logger:        logger,
		headerID:      "X-User-Id",
		headerEmail:   "X-User-Email",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// With returns a copy of the middleware with extra options applied.
func (m *AuthMiddleware) With(opts ...MiddlewareOption) *AuthMiddleware {
	clone := *m
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Handle enforces authentication for protected routes. Rejections are
// returned to the error middleware, which renders and logs them.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	caller, err := m.authenticate(c)
	if err != nil {
		return err
	}
	attachCaller(c, caller)
	return c.Next()
}

// Optional attaches a caller when one resolves and otherwise proceeds anonymously.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	caller, err := m.authenticate(c)
	if err != nil {
		if de := apperrors.ToDomainError(err); de.HTTPStatus >= fiber.StatusInternalServerError {
			m.logger.Warn("optional identity resolution failed", zap.Error(err), zap.String("path", c.Path()))
		}
		return c.Next()
	}
	attachCaller(c, caller)
	return c.Next()
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*Caller, error) {
	caller, err := m.authenticator.Authenticate(c.UserContext(), m.credentials(c))
	if err != nil {
		return nil, err
	}
	if caller.Strategy == domain.AuthStrategyHeader {
		c.Set("Deprecation", "true")
		m.logger.Debug("legacy header identity used", zap.String("user_id", caller.UserID), zap.String("path", c.Path()))
	}
	return caller, nil
}

func (m *AuthMiddleware) credentials(c *fiber.Ctx) Credentials {
	creds := Credentials{
		Authorization: c.Get(fiber.HeaderAuthorization),
		HeaderID:      c.Get(m.headerID),
		HeaderEmail:   c.Get(m.headerEmail),
	}
	if m.queryToken != "" {
		creds.QueryToken = c.Query(m.queryToken)
	}
	return creds
}
