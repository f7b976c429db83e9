package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/creatorlink/collab-backend/internal/config"
	"github.com/creatorlink/collab-backend/internal/http/handlers"
	"github.com/creatorlink/collab-backend/internal/http/middleware"
	"github.com/creatorlink/collab-backend/internal/models"
	"github.com/creatorlink/collab-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	campaignHandler *handlers.CampaignHandler,
	bidHandler *handlers.BidHandler,
	deliverableHandler *handlers.DeliverableHandler,
	disputeHandler *handlers.DisputeHandler,
	walletHandler *handlers.WalletHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/static/artifacts", http.Dir(cfg.ArtifactStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Open campaigns are browsable without a session.
	api.GET("/campaigns", campaignHandler.List)
	api.GET("/campaigns/:id", middleware.UUIDValidator("id"), campaignHandler.Get)
	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		brand := protected.Group("/")
		brand.Use(middleware.RequireRole(models.RoleBrand))
		{
			brand.POST("/campaigns", campaignHandler.Create)
			brand.POST("/campaigns/:id/close", middleware.UUIDValidator("id"), campaignHandler.Close)
			brand.POST("/campaigns/:id/complete", middleware.UUIDValidator("id"), campaignHandler.Complete)
			brand.POST("/bids/:id/accept", middleware.UUIDValidator("id"), bidHandler.Accept)
			brand.POST("/bids/:id/reject", middleware.UUIDValidator("id"), bidHandler.Reject)
			brand.POST("/deliverables/:id/approve", middleware.UUIDValidator("id"), deliverableHandler.Approve)
			brand.POST("/deliverables/:id/revise", middleware.UUIDValidator("id"), deliverableHandler.Revise)
		}

		influencer := protected.Group("/")
		influencer.Use(middleware.RequireRole(models.RoleInfluencer))
		{
			bidSubmitLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
			influencer.POST("/campaigns/:id/bids", bidSubmitLimit, middleware.UUIDValidator("id"), bidHandler.Submit)
			influencer.PATCH("/bids/:id", middleware.UUIDValidator("id"), bidHandler.Edit)
			influencer.POST("/bids/:id/withdraw", middleware.UUIDValidator("id"), bidHandler.Withdraw)
			influencer.POST("/bids/:id/deliverables", middleware.UUIDValidator("id"), deliverableHandler.Submit)
			influencer.POST("/artifacts", deliverableHandler.UploadArtifact)
		}

		admin := protected.Group("/")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), disputeHandler.Resolve)
			admin.POST("/withdrawals/:id/process", middleware.UUIDValidator("id"), walletHandler.Process)
			admin.POST("/withdrawals/:id/reject", middleware.UUIDValidator("id"), walletHandler.Reject)
		}

		protected.GET("/campaigns/:id/bids", middleware.UUIDValidator("id"), bidHandler.ListByCampaign)
		protected.GET("/bids", bidHandler.ListMine)
		protected.GET("/bids/:id", middleware.UUIDValidator("id"), bidHandler.Get)
		protected.GET("/bids/:id/deliverables", middleware.UUIDValidator("id"), deliverableHandler.List)
		protected.POST("/bids/:id/disputes", middleware.UUIDValidator("id"), disputeHandler.Open)
		protected.GET("/disputes", disputeHandler.List)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.Get)

		protected.GET("/wallet", walletHandler.GetWallet)
		protected.GET("/wallet/ledger", walletHandler.GetLedger)
		protected.GET("/payment-methods", walletHandler.ListPaymentMethods)
		protected.POST("/payment-methods", walletHandler.CreatePaymentMethod)
		protected.GET("/withdrawals", walletHandler.ListWithdrawals)
		protected.POST("/withdrawals", walletHandler.RequestWithdrawal)
		protected.GET("/withdrawals/:id", middleware.UUIDValidator("id"), walletHandler.GetWithdrawal)

		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	return r
}
