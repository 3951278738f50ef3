package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"echosocial/internal/adapter/api"
	"echosocial/internal/adapter/api/handler"
	apimiddleware "echosocial/internal/adapter/api/middleware"
	"echosocial/internal/adapter/api/router"
	"echosocial/internal/adapter/repository"
	"echosocial/internal/domain/service"
	"echosocial/internal/infrastructure/firebase"
	"echosocial/internal/infrastructure/ratelimit"
	"echosocial/internal/infrastructure/storage"
	"echosocial/internal/infrastructure/websocket"
	"echosocial/internal/usecase"
	"echosocial/pkg/config"
	"echosocial/pkg/logger"
	"echosocial/pkg/metrics"
	"echosocial/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	response.SetDevelopment(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := credentials(cfg)

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject, StorageBucket: cfg.StorageBucket}, opts...)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		logger.Fatal("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	if err := probeFirestore(ctx, firestoreClient); err != nil {
		logger.Fatal("Firestore connectivity check failed: %v", err)
	}
	logger.Info("Connected to Firestore project %s", cfg.FirebaseProject)

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
	if err != nil {
		logger.Fatal("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	postRepo := repository.NewFirestorePostRepository(firestoreClient)
	commentRepo := repository.NewFirestoreCommentRepository(firestoreClient)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)
	pushService := service.NewExpoPushService(cfg.ExpoPushURL)

	rateLimiter := ratelimit.NewRateLimiter(ratelimit.Policy{
		Limit: rate.Limit(cfg.HTTPRateLimit),
		Burst: cfg.HTTPRateBurst,
	})
	rateLimiter.SetPolicy(usecase.ActionSendMessage, ratelimit.Policy{
		Limit: rate.Limit(cfg.MessageRateLimit),
		Burst: cfg.MessageRateBurst,
	})
	rateLimiter.StartCleanupRoutine(ctx)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	dispatcher := usecase.NewNotificationDispatcher(chatRepo, userRepo, pushService)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, dispatcher, rateLimiter, wsManager)
	userUseCase := usecase.NewUserUseCase(userRepo, notificationRepo, firebaseAuthClient)
	postUseCase := usecase.NewPostUseCase(postRepo, userRepo, notificationRepo, storageClient)
	commentUseCase := usecase.NewCommentUseCase(commentRepo, postRepo, userRepo, notificationRepo)
	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, userRepo)
	mediaUseCase := usecase.NewMediaUseCase(storageClient)

	handler.Setup(userUseCase, postUseCase, commentUseCase, notificationUseCase, chatUseCase, mediaUseCase)
	handler.SetupHealthHandler()
	handler.SetupWebSocketHandler(wsManager, chatUseCase, cfg.TypingIdle, cfg.CORSOrigins)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = response.ErrorHandler
	e.Validator = api.NewValidator()

	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit("10M"))
	e.Use(metrics.Middleware())

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	rateLimitMiddleware := apimiddleware.NewRateLimitMiddleware(rateLimiter)

	router.Setup(e, authMiddleware, rateLimitMiddleware)

	go func() {
		logger.Info("Starting server on port %s (%s)", cfg.ServerPort, cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

// credentials prefers inline service account JSON (production) over a key
// file (local development), and falls back to application default
// credentials.
func credentials(cfg *config.Config) []option.ClientOption {
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))}
	}

	if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			logger.Fatal("Service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		return []option.ClientOption{option.WithCredentialsFile(cfg.ServiceAccountPath)}
	}

	logger.Info("Using application default credentials")
	return nil
}

func probeFirestore(ctx context.Context, client *firestore.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := client.Collection("users").Limit(1).Documents(ctx).GetAll()
	return err
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				logger.L().Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.L().Info("request", fields...)
			return nil
		},
	})
}
