package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/auth"
	"github.com/KakraGeek/churchsuitegh/internal/checkin"
	"github.com/KakraGeek/churchsuitegh/internal/config"
	"github.com/KakraGeek/churchsuitegh/internal/database"
	"github.com/KakraGeek/churchsuitegh/internal/display"
	"github.com/KakraGeek/churchsuitegh/internal/handlers"
	"github.com/KakraGeek/churchsuitegh/internal/logging"
	"github.com/KakraGeek/churchsuitegh/internal/middleware"
	"github.com/KakraGeek/churchsuitegh/internal/notifier"
	"github.com/KakraGeek/churchsuitegh/internal/store/gormstore"
	"github.com/KakraGeek/churchsuitegh/internal/websocket"
	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	st := gormstore.New(db)

	notifiers := notifier.Fanout{notifier.NewInbox(st)}
	var roles auth.RoleChecker
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			logger.Warn("discord session not initialized", "error", err)
		} else {
			roles = session
			if cfg.DiscordNotificationsChannelID != "" {
				notifiers = append(notifiers, notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID))
			}
		}
	}

	svc := checkin.NewService(st, checkin.Options{
		Notifier:        notifiers,
		Logger:          logger.With("component", "checkin"),
		ChildCodePrefix: cfg.ChildCodePrefix,
	})

	displayHub := websocket.NewHub(logger.With("component", "display_ws"))
	kioskHub := websocket.NewHub(logger.With("component", "kiosk_ws"))

	refresher := display.NewRefresher(svc, handlers.Publisher(displayHub), cfg.DisplayRefreshInterval, logger.With("component", "display"))
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	refresher.Start(ctx)

	limiter := middleware.NewRateLimiter()
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup()
			}
		}
	}()

	authHandler := auth.NewAuthHandler(cfg, db, roles)
	var origins []string
	if cfg.EnableCORS {
		origins = cfg.CORSOrigins
	}

	r := chi.NewRouter()
	handlers.RegisterRoutes(r, cfg, logger, handlers.Handlers{
		Auth:      authHandler,
		APIKeys:   handlers.NewAPIKeyHandler(db, authHandler),
		CheckIn:   handlers.NewCheckInHandler(svc, authHandler, kioskHub, refresher),
		Codes:     handlers.NewCodeHandler(svc, authHandler, refresher),
		Children:  handlers.NewChildrenHandler(svc, authHandler, kioskHub),
		Directory: handlers.NewDirectoryHandler(svc, authHandler),
		Display:   handlers.NewDisplayHandler(refresher, displayHub, kioskHub, svc, cfg.ValidationDebounce, origins),
		Limiter:   limiter,
	})

	// No WriteTimeout: display and kiosk sockets stay open.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	refresher.Stop()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
