package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/creatorlink/collab-backend/internal/config"
	"github.com/creatorlink/collab-backend/internal/db"
	httpHandlers "github.com/creatorlink/collab-backend/internal/http/handlers"
	httpRouter "github.com/creatorlink/collab-backend/internal/http/router"
	"github.com/creatorlink/collab-backend/internal/logger"
	"github.com/creatorlink/collab-backend/internal/repository"
	"github.com/creatorlink/collab-backend/internal/service"
	"github.com/creatorlink/collab-backend/internal/storage"
	"github.com/creatorlink/collab-backend/internal/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: failed to load configuration: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: failed to connect to database: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: migrations failed: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	artifactStorage, err := storage.NewArtifactStorage(cfg.ArtifactStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: failed to prepare artifact storage: %v", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(dbConn)
	campaignRepo := repository.NewCampaignRepository(dbConn)
	bidRepo := repository.NewBidRepository(dbConn)
	deliverableRepo := repository.NewDeliverableRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	ledgerRepo := repository.NewLedgerRepository(dbConn)
	withdrawalRepo := repository.NewWithdrawalRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Notifications flow through the hub: live push plus persistence.
	notificationService := service.NewNotificationService(notificationRepo)
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	go hub.Run()

	// Services.
	authService := service.NewAuthService(userRepo, tokenManager)
	campaignService := service.NewCampaignService(campaignRepo, bidRepo, deliverableRepo, hub, cfg.MinCampaignBudget, cfg.PlatformFeeBps)
	bidService := service.NewBidService(bidRepo, campaignRepo, hub, cfg.MinBidAmount, cfg.MinProposalLength)
	reviewService := service.NewReviewService(deliverableRepo, bidRepo, campaignRepo, hub, cfg.PlatformFeeBps, cfg.MinFeedbackLength)
	disputeService := service.NewDisputeService(disputeRepo, bidRepo, campaignRepo, hub, cfg.PlatformFeeBps, cfg.MinReasonLength)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, ledgerRepo, service.NewSandboxGateway(), hub, cfg.MinWithdrawalAmount)

	// HTTP handlers.
	authHandler := httpHandlers.NewAuthHandler(authService)
	campaignHandler := httpHandlers.NewCampaignHandler(campaignService)
	bidHandler := httpHandlers.NewBidHandler(bidService)
	deliverableHandler := httpHandlers.NewDeliverableHandler(reviewService, artifactStorage)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService)
	walletHandler := httpHandlers.NewWalletHandler(withdrawalService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		campaignHandler,
		bidHandler,
		deliverableHandler,
		disputeHandler,
		walletHandler,
		notificationHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: http server shutdown error: %v", err)
		}
	}()

	log.Printf("main: HTTP server listening on port %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: server exited with error: %v", err)
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: failed to close database: %v", err)
	}
}
