package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jo-2640/firstmyapp/internal/config"
	"github.com/jo-2640/firstmyapp/internal/database"
	"github.com/jo-2640/firstmyapp/internal/handlers"
	"github.com/jo-2640/firstmyapp/internal/jobs"
	"github.com/jo-2640/firstmyapp/internal/repository"
	cronjobs "github.com/jo-2640/firstmyapp/internal/scheduler"
	"github.com/jo-2640/firstmyapp/internal/services"
	"github.com/jo-2640/firstmyapp/internal/storage"
	"github.com/jo-2640/firstmyapp/pkg/logger"
	"github.com/jo-2640/firstmyapp/pkg/middleware"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	// Connect to MongoDB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	signer, err := storage.NewSigner(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.AzureContainerName)
	if err != nil {
		log.Fatalf("Azure storage error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	relationshipRepo := repository.NewRelationshipRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// --- Services ---
	imageService := services.NewImageService(signer)
	accountService := services.NewAccountService(accountRepo)
	userService := services.NewUserService(userRepo, accountRepo, cfg.MinBirthYear)
	notificationService := services.NewNotificationService(notificationRepo)
	relationshipService := services.NewRelationshipService(relationshipRepo, userRepo, imageService, notificationService)
	directoryService := services.NewDirectoryService(userRepo, imageService)
	chatService := services.NewChatService(chatRepo, userRepo)
	watchService := services.NewWatchService(userRepo)
	adminService := services.NewAdminService(userRepo, accountRepo, chatRepo, notificationRepo)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(accountService, userService, cfg)
	storageHandler := handlers.NewStorageHandler(signer, imageService, userService)
	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(relationshipService)
	directoryHandler := handlers.NewDirectoryHandler(directoryService)
	chatHandler := handlers.NewChatHandler(chatService, userService, watchService, cfg.JWTSecret)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()

	// Public signup and login routes
	router.HandleFunc("/api/signup/create-user", authHandler.CreateUserHandler).Methods("POST")
	router.HandleFunc("/api/signup/get-profile-sas-token", storageHandler.ProfileSasTokenHandler).Methods("POST")
	router.HandleFunc("/api/signup/finalize", authHandler.FinalizeSignupHandler).Methods("POST")
	router.HandleFunc("/api/login", authHandler.LoginHandler).Methods("POST")
	router.HandleFunc("/api/birth-year-range", authHandler.BirthYearRangeHandler).Methods("GET")

	// WebSocket chat (token is passed as a query parameter)
	router.HandleFunc("/ws", chatHandler.ChatWebSocketHandler)

	// Authenticated API routes
	apiRoutes := router.PathPrefix("/api").Subrouter()
	apiRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	apiRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	apiRoutes.HandleFunc("/logout", authHandler.LogoutHandler).Methods("POST")
	apiRoutes.HandleFunc("/getBlobSasToken", storageHandler.BlobSasTokenHandler).Methods("POST")
	apiRoutes.HandleFunc("/getProfileImageUrl", storageHandler.ProfileImageURLHandler).Methods("POST")

	// User routes
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedUserRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	protectedUserRoutes.HandleFunc("/me", userHandler.GetMeHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.GetUserHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/{id}", userHandler.UpdateUserHandler).Methods("PATCH")

	// Directory browsing routes
	directoryRoutes := router.PathPrefix("/directory").Subrouter()
	directoryRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	directoryRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	directoryRoutes.HandleFunc("/sessions", directoryHandler.OpenSessionHandler).Methods("POST")
	directoryRoutes.HandleFunc("/sessions/{id}/next", directoryHandler.NextPageHandler).Methods("POST")
	directoryRoutes.HandleFunc("/sessions/{id}", directoryHandler.CloseSessionHandler).Methods("DELETE")

	// Friend routes
	protectedFriendRoutes := router.PathPrefix("/friends").Subrouter()
	protectedFriendRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedFriendRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	protectedFriendRoutes.HandleFunc("/requests/count", friendHandler.RequestCountHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/requests", friendHandler.ListRequestsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/requests/{id}/accept", friendHandler.AcceptRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("/requests/{id}/reject", friendHandler.RejectRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("/{id}/request", friendHandler.SendRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("/{id}/request", friendHandler.CancelRequestHandler).Methods("DELETE")
	protectedFriendRoutes.HandleFunc("", friendHandler.ListFriendsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/{id}", friendHandler.RemoveFriendHandler).Methods("DELETE")

	// Chat history
	chatRoutes := router.PathPrefix("/chat").Subrouter()
	chatRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	chatRoutes.HandleFunc("/{friendId}/history", chatHandler.GetChatHistoryHandler).Methods("GET")

	// Notification routes
	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationRoutes.HandleFunc("", notificationHandler.GetNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkNotificationReadHandler).Methods("POST")
	notificationRoutes.HandleFunc("/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")

	// Admin routes
	adminRoutes := router.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	adminRoutes.Use(middleware.RequireRole("admin"))
	adminRoutes.HandleFunc("/users", userHandler.AdminGetAllUsersHandler).Methods("GET")
	adminRoutes.HandleFunc("/delete-all-data", adminHandler.DeleteAllDataHandler).Methods("POST")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// Background maintenance
	sweeper := jobs.NewPresenceSweeper(userRepo)
	cronjobs.StartMaintenanceCronJobs(notificationService, sweeper, directoryService)

	// Start the HTTP server
	port := cfg.Port
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
