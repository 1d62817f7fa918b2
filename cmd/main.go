package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sundale/projectcoach-backend/internal/clients/openai"
	"github.com/sundale/projectcoach-backend/internal/config"
	"github.com/sundale/projectcoach-backend/internal/conversation/orchestrator"
	"github.com/sundale/projectcoach-backend/internal/db"
	"github.com/sundale/projectcoach-backend/internal/handlers"
	"github.com/sundale/projectcoach-backend/internal/middleware"
	"github.com/sundale/projectcoach-backend/internal/observability"
	"github.com/sundale/projectcoach-backend/internal/platform/envutil"
	"github.com/sundale/projectcoach-backend/internal/platform/logger"
	"github.com/sundale/projectcoach-backend/internal/realtime/bus"
	"github.com/sundale/projectcoach-backend/internal/repos"
	"github.com/sundale/projectcoach-backend/internal/server"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracing := observability.Init(rootCtx, log, observability.Config{
		ServiceName: "projectcoach-backend",
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
	})

	// Engine config
	engineCfg, err := config.LoadEngine("")
	if err != nil {
		log.Fatal("Engine config invalid", "error", err)
	}

	// Database
	dbService, err := db.NewService(log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Fatal("Auto migration failed", "error", err)
	}
	gdb := dbService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	sessionRepo := repos.NewSessionRepo(gdb, log)
	turnRepo := repos.NewTurnRepo(gdb, log)

	// Event bus
	var eventBus bus.Bus
	if addr := envutil.String("REDIS_ADDR", ""); addr != "" {
		rb, err := bus.NewRedisBus(log, addr, envutil.String("REDIS_PASSWORD", ""), envutil.Int("REDIS_DB", 0))
		if err != nil {
			log.Fatal("Redis bus init failed", "error", err)
		}
		eventBus = rb
	} else {
		eventBus = bus.NewMemoryBus(256)
	}
	defer eventBus.Close()
	if err := eventBus.StartForwarder(rootCtx, func(ev bus.Event) {
		log.Debug("engine event", "type", ev.Type, "session_id", ev.SessionID, "stage", ev.Stage, "slot", ev.Slot)
	}); err != nil {
		log.Warn("Event forwarder failed to start", "error", err)
	}

	// AI client
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("OpenAI client init failed", "error", err)
	}

	// Orchestrator
	aiTimeout := envutil.Duration("AI_TURN_TIMEOUT", 45*time.Second)
	orchestratorService := orchestrator.NewService(log, engineCfg, sessionRepo, turnRepo, aiClient, eventBus, aiTimeout)

	// Handlers
	log.Info("Setting up handlers from main...")
	conversationHandler := handlers.NewConversationHandler(log, orchestratorService)

	// Middleware
	jwtSecret := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	authMiddleware := middleware.NewAuthMiddleware(log, jwtSecret)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ConversationHandler: conversationHandler,
		AuthMiddleware:      authMiddleware,
	})

	port := envutil.String("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Server shutdown error", "error", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("Tracing shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server exited with error", "error", err)
	}
	log.Info("Server stopped")
}
