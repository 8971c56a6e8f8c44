package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/n0ll22/HouseholdRPG/internal/config"
	"github.com/n0ll22/HouseholdRPG/internal/database"
	"github.com/n0ll22/HouseholdRPG/internal/handlers"
	"github.com/n0ll22/HouseholdRPG/internal/realtime"
	"github.com/n0ll22/HouseholdRPG/internal/repository"
	"github.com/n0ll22/HouseholdRPG/internal/scheduler"
	"github.com/n0ll22/HouseholdRPG/internal/services"
	"github.com/n0ll22/HouseholdRPG/pkg/logger"
	"github.com/n0ll22/HouseholdRPG/pkg/middleware"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("Config error: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		logger.Log.Fatalf("Database connection error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Log.Fatalf("Index setup error: %v", err)
	}
	cancel()

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// --- Services ---
	userService := services.NewUserService(userRepo)
	presenceService := services.NewPresenceService(userRepo)
	friendshipService := services.NewFriendshipService(friendshipRepo, userRepo)
	chatService := services.NewChatService(chatRepo, messageRepo, userRepo)

	// Nobody can be connected before the server starts.
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	reset, err := presenceService.ResetAll(ctx)
	cancel()
	if err != nil {
		logger.Log.WithError(err).Error("Failed to reset presence at startup")
	} else {
		logger.Log.WithField("count", len(reset)).Info("Presence reset at startup")
	}

	hub := realtime.NewHub(presenceService, chatService, friendshipService, realtime.Options{
		GracePeriod:  cfg.GracePeriod,
		StoreTimeout: cfg.StoreTimeout,
		SendQueue:    cfg.SendQueue,
	})

	sweeper, err := scheduler.StartPresenceCronJobs(hub, cfg.PresenceSweep, cfg.StoreTimeout*6)
	if err != nil {
		logger.Log.Fatalf("Scheduler error: %v", err)
	}

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, cfg)
	chatHandler := handlers.NewChatHandler(chatService, hub)
	friendshipHandler := handlers.NewFriendshipHandler(friendshipService)
	wsHandler := handlers.NewWSHandler(hub, cfg.ClientURL)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	lastActive := middleware.UpdateLastActiveMiddleware(userService)

	// Public user routes
	router.HandleFunc("/users/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")
	router.HandleFunc("/users/logout", userHandler.LogoutUserHandler).Methods("POST")

	// Protected user routes
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret), lastActive)
	protectedUserRoutes.HandleFunc("/me", userHandler.MeHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.GetUserHandler).Methods("GET")

	// Chat routes
	protectedChatRoutes := router.PathPrefix("/chats").Subrouter()
	protectedChatRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret), lastActive)
	protectedChatRoutes.HandleFunc("", chatHandler.CreateChatHandler).Methods("POST")
	protectedChatRoutes.HandleFunc("", chatHandler.ListChatsHandler).Methods("GET")
	protectedChatRoutes.HandleFunc("/messages", chatHandler.SendMessageHandler).Methods("POST")
	protectedChatRoutes.HandleFunc("/with/{userId}", chatHandler.DirectChatHandler).Methods("GET")
	protectedChatRoutes.HandleFunc("/{id}", chatHandler.GetChatHandler).Methods("GET")

	// Friendship routes
	protectedFriendshipRoutes := router.PathPrefix("/friendships").Subrouter()
	protectedFriendshipRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret), lastActive)
	protectedFriendshipRoutes.HandleFunc("", friendshipHandler.ListFriendshipsHandler).Methods("GET")
	protectedFriendshipRoutes.HandleFunc("/blocked", friendshipHandler.BlockedHandler).Methods("GET")
	protectedFriendshipRoutes.HandleFunc("/with/{userId}", friendshipHandler.WithUserHandler).Methods("GET")
	protectedFriendshipRoutes.HandleFunc("/{id}", friendshipHandler.GetFriendshipHandler).Methods("GET")

	// Realtime channel
	wsRoutes := router.PathPrefix("/ws").Subrouter()
	wsRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	wsRoutes.HandleFunc("", wsHandler.ServeWS).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.WithField("port", cfg.Port).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Log.Info("Shutting down")
	<-sweeper.Stop().Done()

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("HTTP shutdown failed")
	}
	hub.Shutdown()

	if err := db.Client().Disconnect(ctx); err != nil {
		logger.Log.WithError(err).Error("MongoDB disconnect failed")
	}
}
