package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/devpad-platform/devpad/internal/api"
	"github.com/devpad-platform/devpad/internal/assistant"
	"github.com/devpad-platform/devpad/internal/audit"
	"github.com/devpad-platform/devpad/internal/auth"
	"github.com/devpad-platform/devpad/internal/config"
	"github.com/devpad-platform/devpad/internal/database"
	"github.com/devpad-platform/devpad/internal/events"
	"github.com/devpad-platform/devpad/internal/interactions"
	"github.com/devpad-platform/devpad/internal/middleware"
	"github.com/devpad-platform/devpad/internal/projects"
	"github.com/devpad-platform/devpad/internal/quota"
	iredis "github.com/devpad-platform/devpad/internal/redis"
	"github.com/devpad-platform/devpad/internal/server"
	"github.com/devpad-platform/devpad/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Migrations
	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		if err := database.RunMigrations(cfg.DB.DSN(), path); err != nil {
			slog.Error("running migrations", "error", err)
			os.Exit(1)
		}
	}

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS JetStream; optional, the API degrades to no audit events
	var eventsClient *events.Client
	var auditSink assistant.AuditSink
	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	eventsClient, err = events.NewClient(connectCtx, cfg.NATS)
	cancelConnect()
	if err != nil {
		slog.Warn("NATS unavailable, audit events disabled", "error", err)
		eventsClient = nil
	} else {
		defer eventsClient.Close()
		auditSink = events.NewPublisher(eventsClient.JetStream())
	}

	// Auth
	jwtManager := auth.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	authSvc := auth.NewService(jwtManager, redisClient)
	userRepo := users.NewRepository(pool)
	userSvc := users.NewService(userRepo)
	authHandler := auth.NewHandler(authSvc, userSvc)

	// Projects and files
	projectRepo := projects.NewRepository(pool)
	projectSvc := projects.NewService(projectRepo)
	projectHandler := projects.NewHandler(projectSvc, auditSink)

	// Quota
	quotaSvc := quota.NewService(quota.NewPostgresStore(pool))

	// Interactions
	interactionRepo := interactions.NewRepository(pool)
	interactionSvc := interactions.NewService(interactionRepo)

	// Assistant gateway
	provider := assistant.NewHTTPProvider(cfg.Assistant)
	gateway := assistant.NewGateway(quotaSvc, projectSvc, interactionSvc, provider, auditSink, cfg.Assistant)
	assistantHandler := assistant.NewHandler(gateway, quotaSvc, interactionSvc)

	// Audit trail
	auditRepo := audit.NewRepository(pool)
	auditHandler := audit.NewHandler(auditRepo)

	// Durable audit consumer persists NATS events off the request path
	if eventsClient != nil {
		consumer := audit.NewConsumer(auditRepo, events.NewConsumerManager(eventsClient.JetStream()))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("audit consumer stopped", "error", err)
			}
		}()
	}

	// Auth endpoint rate limiting
	rateLimiter := middleware.NewRateLimiter(redisClient, cfg.RateLimit.AuthMaxPerMinute, time.Minute)

	// Router
	router := api.NewRouter(pool, eventsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AuthRateLimiter:    rateLimiter.Middleware,
	}, api.HandlerSet{
		Register: authHandler.Register,
		Login:    authHandler.Login,
		Refresh:  authHandler.Refresh,
		Logout:   authHandler.Logout,

		CreateProject:       projectHandler.Create,
		ListProjects:        projectHandler.List,
		GetProject:          projectHandler.Get,
		SaveFile:            projectHandler.SaveFile,
		ListFiles:           projectHandler.ListFiles,
		GetFile:             projectHandler.GetFile,
		DeleteFile:          projectHandler.DeleteFile,
		OwnershipMiddleware: projectHandler.OwnershipMiddleware,

		Ask:            assistantHandler.Ask,
		AskInProject:   assistantHandler.AskInProject,
		GetUsage:       assistantHandler.GetUsage,
		GetUserStats:   assistantHandler.GetUserStats,
		ProjectHistory: assistantHandler.ProjectHistory,

		ListAuditLogs: auditHandler.ListAuditLogs,

		AuthMiddleware: auth.Middleware(authSvc),
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
