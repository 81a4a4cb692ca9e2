package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/campusmatch/internal/api/http/handlers"
	"github.com/spec-kit/campusmatch/internal/auth"
	"github.com/spec-kit/campusmatch/internal/config"
	"github.com/spec-kit/campusmatch/internal/domain"
	"github.com/spec-kit/campusmatch/internal/events"
	"github.com/spec-kit/campusmatch/internal/observability"
	"github.com/spec-kit/campusmatch/internal/relay"
	"github.com/spec-kit/campusmatch/internal/service"
)

type testServer struct {
	app     *fiber.App
	store   *memoryStore
	tokens  *auth.TokenManager
	relay   *relay.Relay
	metrics *observability.Metrics
}

func member(id, email string) *domain.User {
	return &domain.User{ID: id, Name: "Member " + id, Email: email, College: "Arts", IsApproved: true}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := newMemoryStore()
	store.addUser(member("u1", "u1@campus.edu"))
	store.addUser(member("u2", "u2@campus.edu"))
	store.addUser(member("u3", "u3@campus.edu"))
	pending := member("pending", "pending@campus.edu")
	pending.IsApproved = false
	store.addUser(pending)
	suspended := member("suspended", "suspended@campus.edu")
	suspended.IsSuspended = true
	store.addUser(suspended)
	premium := member("premium", "premium@campus.edu")
	premium.IsPremium = true
	store.addUser(premium)
	store.match("u1", "u2")

	users := userStore{store}
	matches := matchStore{store}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	resolver := auth.NewChainResolver(auth.NewBearerResolver(tokens, users, nil), auth.NewHeaderResolver(users))
	gate := auth.NewAuthMiddleware(auth.NewAuthenticator(resolver), logger)

	chatRelay := relay.New(relay.NewRegistry(), logger, relay.WithMetrics(metrics))
	authService := service.NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, service.AuthDependencies{
		UserRepo:     users,
		TokenManager: tokens,
		Sessions:     chatRelay,
		Dispatcher:   dispatcher,
	})
	profiles := service.NewProfileService(users, matches)
	chat := service.NewChatService(service.ChatDependencies{
		MatchRepo:   matches,
		MessageRepo: messageStore{store},
		Relay:       chatRelay,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler, DisableStartupMessage: true})
	RegisterMiddlewares(app, logger, metrics, 5*time.Second, nil)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("campusmatch", "test", nil),
		Users:          handlers.NewUsersHandler(authService, profiles),
		Profiles:       handlers.NewProfilesHandler(profiles),
		Messages:       handlers.NewMessagesHandler(chat),
		Chat:           handlers.NewChatHandler(chat, chatRelay, relay.ClientConfig{}, logger),
		AuthMiddleware: gate,
	})

	return &testServer{app: app, store: store, tokens: tokens, relay: chatRelay, metrics: metrics}
}

func (s *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := s.tokens.Issue(userID, userID+"@campus.edu")
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func errorCode(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}
