package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"

	"github.com/titipin/titip-backend/internal/config"
	"github.com/titipin/titip-backend/internal/http/handlers"
	"github.com/titipin/titip-backend/internal/http/middleware"
	"github.com/titipin/titip-backend/internal/models"
	"github.com/titipin/titip-backend/internal/service"
)

// Handlers набор обработчиков API.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Profile      *handlers.ProfileHandler
	Order        *handlers.OrderHandler
	Chat         *handlers.ChatHandler
	Review       *handlers.ReviewHandler
	Wallet       *handlers.WalletHandler
	Notification *handlers.NotificationHandler
	Admin        *handlers.AdminHandler
	Health       *handlers.HealthHandler
	WS           *handlers.WSHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokenManager *service.TokenManager,
	limiterStore limiter.Store,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/health", h.Health.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	// Вход и регистрация ограничены жёстче остальных маршрутов.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(limiterStore, "auth", 5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	api.GET("/ws", h.WS.Handle)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), h.Review.ListUserReviews)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", h.Profile.GetMe)
		protected.PUT("/profile", h.Profile.UpdateMe)
		protected.POST("/profile/avatar", h.Profile.UploadAvatar)

		protected.GET("/notifications", h.Notification.ListNotifications)
		protected.GET("/notifications/unread/count", h.Notification.CountUnread)
		protected.PUT("/notifications/read-all", h.Notification.MarkAllAsRead)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkAsRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), h.Notification.DeleteNotification)
		protected.DELETE("/notifications", h.Notification.DeleteAll)

		protected.GET("/orders/market", h.Order.ListMarket)
		protected.GET("/orders/market/locations", h.Order.MarketLocations)
		protected.GET("/orders/my/requests", h.Order.MyRequests)
		protected.GET("/orders/my/jobs", h.Order.MyJobs)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), h.Order.GetOrder)
		protected.POST("/orders/:id/advance", middleware.UUIDValidator("id"), h.Order.AdvanceDelivery)

		protected.GET("/orders/:id/messages", middleware.UUIDValidator("id"), h.Chat.ListMessages)
		protected.POST("/orders/:id/messages", middleware.UUIDValidator("id"), h.Chat.SendMessage)
		protected.POST("/orders/:id/messages/image", middleware.UUIDValidator("id"), h.Chat.UploadImage)

		protected.POST("/orders/:id/review", middleware.UUIDValidator("id"), h.Review.CreateReview)
		protected.GET("/orders/:id/can-review", middleware.UUIDValidator("id"), h.Review.CanReview)

		protected.GET("/wallet/balance", h.Wallet.Balance)
		protected.GET("/wallet/history", h.Wallet.History)
		protected.GET("/wallet/withdrawals", h.Wallet.ListWithdrawals)
	}

	// Маршруты, двигающие деньги.
	money := api.Group("/")
	money.Use(middleware.AuthMiddleware(tokenManager))
	money.Use(middleware.RateLimitMiddleware(limiterStore, "money", cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		money.POST("/orders", h.Order.CreateOrder)
		money.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), h.Order.CancelOrder)
		money.POST("/orders/:id/take", middleware.UUIDValidator("id"), h.Order.TakeOrder)
		money.POST("/orders/:id/complete", middleware.UUIDValidator("id"), h.Order.CompleteOrder)

		money.POST("/wallet/topup", h.Wallet.TopUp)
		money.POST("/wallet/withdrawals", h.Wallet.RequestWithdrawal)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/withdrawals/pending", h.Admin.ListPendingWithdrawals)
		admin.POST("/withdrawals/:id/approve", middleware.UUIDValidator("id"), h.Admin.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", middleware.UUIDValidator("id"), h.Admin.RejectWithdrawal)
		admin.GET("/users/unverified", h.Admin.ListUnverifiedUsers)
		admin.POST("/users/:id/verify", middleware.UUIDValidator("id"), h.Admin.VerifyUser)
	}

	return r
}
