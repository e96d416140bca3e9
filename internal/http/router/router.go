package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/flytster-backend/internal/config"
	"github.com/ignatzorin/flytster-backend/internal/http/handlers"
	"github.com/ignatzorin/flytster-backend/internal/http/middleware"
	"github.com/ignatzorin/flytster-backend/internal/service"
)

// SetupRouter собирает маршруты API. Анонимны только регистрация, вход
// и сценарий сброса пароля; остальное живёт за сессионным токеном.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tripHandler *handlers.TripHandler,
	healthHandler *handlers.HealthHandler,
	tokenService *service.TokenService,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api/v1")

	// Анонимные маршруты аккаунта под rate limit: здесь перебирают
	// пароли и токены сброса.
	anonUser := api.Group("/user")
	anonUser.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		anonUser.POST("/register", authHandler.Register)
		anonUser.POST("/login", authHandler.Login)
		anonUser.POST("/request-password", userHandler.RequestPassword)
		anonUser.POST("/reset-password", userHandler.ResetPassword)
	}

	user := api.Group("/user")
	user.Use(middleware.AuthMiddleware(tokenService))
	{
		user.GET("", userHandler.GetProfile)
		user.PATCH("", userHandler.Update)
		user.DELETE("/logout", authHandler.Logout)
		user.POST("/verify-email", userHandler.VerifyEmail)
		user.POST("/verify-phone", userHandler.VerifyPhone)
		user.POST("/change-password", userHandler.ChangePassword)
	}

	trips := api.Group("/trips")
	trips.Use(middleware.AuthMiddleware(tokenService))
	{
		trips.POST("/search", tripHandler.Search)
		trips.GET("/search", tripHandler.ListSearches)
		trips.POST("", tripHandler.Book)
		trips.GET("", tripHandler.List)
		trips.GET("/:id", middleware.UUIDValidator("id"), tripHandler.Get)
		trips.POST("/:id/passengers", middleware.UUIDValidator("id"), tripHandler.AddPassenger)
		trips.GET("/:id/passengers", middleware.UUIDValidator("id"), tripHandler.ListPassengers)
	}

	passengers := api.Group("/passengers")
	passengers.Use(middleware.AuthMiddleware(tokenService))
	{
		passengers.PUT("/:id", middleware.UUIDValidator("id"), tripHandler.UpdatePassenger)
		passengers.DELETE("/:id", middleware.UUIDValidator("id"), tripHandler.DeletePassenger)
	}

	return r
}
