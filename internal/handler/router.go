package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hospital-management-backend/internal/apperror"
	"hospital-management-backend/internal/config"
	"hospital-management-backend/internal/metrics"
	"hospital-management-backend/internal/middleware"
	"hospital-management-backend/internal/service"
	"hospital-management-backend/pkg/utils"
)

// RouterDeps is everything the HTTP layer is built from.
type RouterDeps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	DB      *gorm.DB
	Tokens  *utils.TokenManager
	Auth    *service.AuthService
	Users   *service.UserService
}

// NewRouter builds the gin engine with all middleware and routes.
func NewRouter(d RouterDeps) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(d.Config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("setting trusted proxies: %w", err)
	}

	r.Use(
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			d.Logger.Error("Panic recovered", zap.Any("panic", recovered), zap.String("request_id", middleware.RequestIDFrom(c)))
			utils.ErrorResponse(c, http.StatusInternalServerError, apperror.InternalMessage)
			c.Abort()
		}),
		middleware.RequestID(),
		middleware.RequestLogger(d.Logger),
		d.Metrics.Middleware(),
		middleware.CORS(d.Config),
	)

	authHandler := NewAuthHandler(d.Auth, d.Logger)
	userHandler := NewUserHandler(d.Users, d.Logger)

	r.GET("/health", healthCheck(d.DB))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register-hospital", authHandler.RegisterHospital)
	}

	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware(d.Tokens, d.Users, d.Logger))
	{
		users.GET("/me", userHandler.Me)

		users.GET("/", middleware.RequireAdmin(d.Logger), userHandler.List)
		users.POST("/", middleware.RequireAdmin(d.Logger), userHandler.Create)
		users.PATCH("/:id/toggle", middleware.RequireAdmin(d.Logger), userHandler.ToggleStatus)
	}

	return r, nil
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}

		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "hospital-management-backend",
		})
	}
}
