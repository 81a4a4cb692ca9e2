package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/campusmatch/internal/api/http"
	"github.com/spec-kit/campusmatch/internal/api/http/handlers"
	"github.com/spec-kit/campusmatch/internal/auth"
	"github.com/spec-kit/campusmatch/internal/config"
	"github.com/spec-kit/campusmatch/internal/events"
	"github.com/spec-kit/campusmatch/internal/observability"
	"github.com/spec-kit/campusmatch/internal/persistence"
	"github.com/spec-kit/campusmatch/internal/relay"
	"github.com/spec-kit/campusmatch/internal/repository"
	"github.com/spec-kit/campusmatch/internal/service"
	"github.com/spec-kit/campusmatch/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(dispatcher, nil, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	var (
		revocations auth.RevocationChecker
		revoker     service.Revoker
	)
	if cfg.Auth.RevocationEnabled {
		store := auth.NewRedisRevocationStore(redis.Handle(), "")
		revocations, revoker = store, store
	}

	var headerResolver auth.IdentityResolver
	if cfg.Auth.HeaderFallbackEnabled {
		headerResolver = auth.NewHeaderResolver(userRepo)
	}
	resolver := auth.NewChainResolver(auth.NewBearerResolver(tokens, userRepo, revocations), headerResolver)
	authMiddleware := auth.NewAuthMiddleware(auth.NewAuthenticator(resolver), logger,
		auth.WithIdentityHeaders(cfg.Auth.HeaderID, cfg.Auth.HeaderEmail),
	)

	relayOpts := []relay.Option{relay.WithMetrics(metrics)}
	if cfg.Relay.RedisFanout {
		relayOpts = append(relayOpts, relay.WithBus(relay.NewRedisBus(redis.Handle(), cfg.Relay.RedisChannel, logger)))
	}
	chatRelay := relay.New(relay.NewRegistry(), logger, relayOpts...)
	relayDone := worker.StartRelaySubscriber(ctx, chatRelay, logger)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:     userRepo,
		TokenManager: tokens,
		Sessions:     chatRelay,
		Revoker:      revoker,
		Dispatcher:   dispatcher,
	})
	profileService := service.NewProfileService(userRepo, matchRepo)
	chatService := service.NewChatService(service.ChatDependencies{
		MatchRepo:   matchRepo,
		MessageRepo: messageRepo,
		Relay:       chatRelay,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), callerID)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:    handlers.NewUsersHandler(authService, profileService),
		Profiles: handlers.NewProfilesHandler(profileService),
		Messages: handlers.NewMessagesHandler(chatService),
		Chat: handlers.NewChatHandler(chatService, chatRelay, relay.ClientConfig{
			SendBuffer:      cfg.Relay.SendBuffer,
			WriteTimeout:    cfg.Relay.WriteTimeout(),
			PongTimeout:     cfg.Relay.PongTimeout(),
			MaxMessageBytes: cfg.Relay.MaxMessageBytes,
		}, logger),
		AuthMiddleware: authMiddleware,
		SocketAuth:     authMiddleware.With(auth.WithQueryToken("token")),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	<-relayDone
}

func callerID(c *fiber.Ctx) (string, bool) {
	caller, ok := auth.CallerFromFiber(c)
	if !ok {
		return "", false
	}
	return caller.UserID, true
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
