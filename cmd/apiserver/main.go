package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/handlers/apiserver"
	appkafka "social-go/internal/kafka"
	kafkahandlers "social-go/internal/kafka/handlers"
	"social-go/internal/middleware"
	appredis "social-go/internal/redis"
	"social-go/internal/services"
	"social-go/internal/storage"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisdriver "github.com/redis/go-redis/v9"
)

const avatarBaseURL = "/avatars"

func main() {
	// 1. Configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Database
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	store := storage.NewGormStore(db)

	// 3. Redis
	redisClient := redisdriver.NewClient(&redisdriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	tokenBlacklist := appredis.NewRedisTokenBlacklist(redisClient)
	pendingCounter := appredis.NewRedisPendingCounter(redisClient)

	// 4. Kafka producer
	kfkProducer, err := appkafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("failed to create Kafka producer: %v", err)
	}
	defer kfkProducer.Close()

	// 5. Avatar storage
	avatarStorage, err := storage.NewLocalAvatarStorage(cfg.Storage, avatarBaseURL)
	if err != nil {
		log.Fatalf("failed to initialize avatar storage: %v", err)
	}

	// 6. Services
	var identityVerifier auth.IdentityVerifier
	if cfg.Auth.GoogleClientID != "" {
		identityVerifier = auth.NewGoogleVerifier(cfg.Auth.GoogleClientID)
	}
	authService := services.NewAuthService(store.Users(), identityVerifier, cfg.Auth)
	userService := services.NewUserService(store.Users())
	friendService := services.NewFriendService(store, kfkProducer, cfg.Kafka, cfg.Suggestions, nil)

	// 7. Handlers
	authHandler := apiserver.NewAuthHandler(authService, tokenBlacklist)
	userHandler := apiserver.NewUserHandler(userService, avatarStorage, cfg.Storage)
	friendHandler := apiserver.NewFriendHandler(friendService, pendingCounter)

	// 8. Routes
	r := mux.NewRouter()

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	authRouter.HandleFunc("/google", authHandler.GoogleLogin).Methods(http.MethodPost)

	authMW := middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, tokenBlacklist)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMW)

	apiRouter.HandleFunc("/auth/logout", authHandler.LogoutHandler).Methods(http.MethodPost)

	apiRouter.HandleFunc("/users/me", userHandler.GetMyProfileHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/me", userHandler.UpdateMyProfileHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users/me/avatar", userHandler.UploadAvatarHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/users/search", userHandler.SearchUsersHandler).Methods(http.MethodGet)

	apiRouter.HandleFunc("/friends", friendHandler.ListFriendsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/friends/suggestions", friendHandler.SuggestionsHandler).Methods(http.MethodGet)

	friendRequestRouter := apiRouter.PathPrefix("/friend-requests").Subrouter()
	friendRequestRouter.HandleFunc("", friendHandler.SendFriendRequestHandler).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("", friendHandler.ListRequestsHandler).Methods(http.MethodGet)
	friendRequestRouter.HandleFunc("/pending-count", friendHandler.PendingCountHandler).Methods(http.MethodGet)
	friendRequestRouter.HandleFunc("/{requestID:[0-9]+}/accept", friendHandler.RespondToFriendRequestHandler(services.ActionAccept)).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/{requestID:[0-9]+}/reject", friendHandler.RespondToFriendRequestHandler(services.ActionReject)).Methods(http.MethodPost)

	// Public profile view
	r.HandleFunc("/users/{userID:[0-9]+}", userHandler.GetUserProfileHandler).Methods(http.MethodGet)

	// Static serving of stored avatars
	staticPath := strings.TrimSuffix(avatarBaseURL, "/") + "/"
	r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, http.FileServer(http.Dir(cfg.Storage.LocalPath))))

	// 9. Friend-event consumer maintaining the pending counters
	friendEventConsumer, err := appkafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("failed to create friend-event Kafka consumer: %v", err)
	}
	defer friendEventConsumer.Close()

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	consumerLogic := kafkahandlers.NewFriendEventConsumerLogic(pendingCounter)
	go func() {
		topics := []string{cfg.Kafka.FriendEventsTopic}
		err := friendEventConsumer.Consume(consumerCtx, topics, cfg.Kafka.ConsumerGroup, consumerLogic.HandleFriendEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("friend-event consumer error: %v", err)
		}
	}()

	// 10. HTTP server with graceful shutdown
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	corsHandler := handlers.CORS(corsOptions...)(r)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      corsHandler,
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API server listening on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutdown signal received, stopping API server...")

	cancelConsumers()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("API server forced to shut down: %v", err)
	}
	log.Println("API server stopped")
}
