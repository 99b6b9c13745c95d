package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"marketsync/internal/adapter/api"
	"marketsync/internal/adapter/api/handler"
	apimiddleware "marketsync/internal/adapter/api/middleware"
	"marketsync/internal/adapter/api/router"
	"marketsync/internal/adapter/repository"
	"marketsync/internal/domain/service"
	"marketsync/internal/infrastructure/firebase"
	"marketsync/internal/infrastructure/ratelimit"
	"marketsync/internal/infrastructure/storage"
	"marketsync/internal/infrastructure/websocket"
	"marketsync/internal/usecase"
	"marketsync/pkg/config"
	"marketsync/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Logger().Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		logger.SetJSON()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opt option.ClientOption
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	} else {
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			logger.Logger().Fatalf("Service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		opt = option.WithCredentialsFile(cfg.ServiceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:     cfg.FirebaseProject,
		StorageBucket: cfg.StorageBucket,
	}, opt)
	if err != nil {
		logger.Logger().Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Logger().Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	var push service.PushDispatcher
	if cfg.PushEnabled {
		messagingClient, err := firebaseApp.Messaging(ctx)
		if err != nil {
			logger.Logger().Fatalf("Failed to initialize Firebase Messaging: %v", err)
		}
		push = firebase.NewPushClient(messagingClient)
	} else {
		logger.Warn("Push delivery disabled; notifications are stored only")
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		logger.Logger().Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
	if err != nil {
		logger.Logger().Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	productRepo := repository.NewFirestoreProductRepository(firestoreClient)
	reviewRepo := repository.NewFirestoreReviewRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)

	identity := usecase.NewIdentityStream(firebase.NewSessionTracker(authClient), userRepo)
	catalog := usecase.NewCatalogIndex(productRepo, reviewRepo, storageClient)
	chats := usecase.NewChatDirectory(chatRepo, userRepo, catalog)
	messages := usecase.NewMessageStream(chatRepo)
	notifications := usecase.NewNotificationCenter(notificationRepo, userRepo, push)

	wsManager := websocket.NewManager()

	writeLimiter := ratelimit.NewRateLimiter(cfg.WriteRatePerMinute)
	writeLimiter.StartCleanup(ctx, 10*time.Minute)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	router.Setup(e, router.Handlers{
		Health:       handler.NewHealthHandler(wsManager),
		User:         handler.NewUserHandler(identity),
		Product:      handler.NewProductHandler(catalog),
		Chat:         handler.NewChatHandler(chats, messages),
		Notification: handler.NewNotificationHandler(notifications),
		WebSocket:    handler.NewWebSocketHandler(wsManager, catalog, chats, messages, notifications, userRepo, authClient),
	}, authMiddleware, writeLimiter)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.Logger().Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	wsManager.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed: %v", err)
	}
}
