package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	adminHandler "nutrisnap-backend/internal/api/handlers/admin"
	foodHandler "nutrisnap-backend/internal/api/handlers/food"
	"nutrisnap-backend/internal/api/handlers/health"
	mealHandler "nutrisnap-backend/internal/api/handlers/meal"
	userHandler "nutrisnap-backend/internal/api/handlers/user"
	"nutrisnap-backend/internal/api/middleware"
	"nutrisnap-backend/internal/core/ai"
	"nutrisnap-backend/internal/core/catalog"
	mealService "nutrisnap-backend/internal/core/meal"
	"nutrisnap-backend/internal/core/providers"
	syncService "nutrisnap-backend/internal/core/sync"
	userService "nutrisnap-backend/internal/core/user"
	"nutrisnap-backend/internal/infrastructure/config"
	"nutrisnap-backend/internal/pkg/common"
)

// 請求超時上限，涵蓋 AI 分析的最壞情況
const timeoutDuration = 120 * time.Second

// Services 路由所需的全部服務，由 main 組裝後注入
type Services struct {
	DB        *gorm.DB
	Cache     *ai.Cache
	Repo      *catalog.Repository
	Queue     *catalog.Queue
	Extractor *ai.Extractor
	Resolver  *mealService.Resolver
	Finalizer *mealService.Finalizer
	Stats     *mealService.StatsService
	Users     *userService.Service
	Barcode   *providers.OpenFoodFactsClient
	Engine    *syncService.Engine
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc *Services) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Image.MaxSizeBytes))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Deduplication(cfg))

	// 請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeGatewayTimeout,
			})
		}
	})

	healthH := health.NewHandler(svc.DB, svc.Cache, svc.Queue, cfg.App.Version)
	userH := userHandler.NewHandler(svc.Users)
	foodH := foodHandler.NewHandler(svc.Repo, svc.Barcode)
	mealH := mealHandler.NewHandler(svc.Extractor, svc.Resolver, svc.Finalizer, svc.Stats, svc.Users, cfg.Image.MaxSizeBytes)
	adminH := adminHandler.NewHandler(svc.Engine)

	router.GET("/health", healthH.HandleHealth)
	router.GET("/ready", healthH.HandleReadiness)
	router.GET("/live", healthH.HandleLiveness)

	api := router.Group("/api")
	{
		auth := middleware.Auth(cfg.Auth.JWTSecret)

		userGroup := api.Group("/user")
		{
			userGroup.POST("/onboard", userH.HandleOnboard)
			userGroup.GET("/:id", auth, userH.HandleGet)
			userGroup.PUT("/:id/goals", auth, userH.HandleUpdateGoals)
		}

		foodGroup := api.Group("/foods")
		{
			foodGroup.GET("/search", foodH.HandleSearch)
			foodGroup.GET("/categories", foodH.HandleCategories)
			foodGroup.GET("/barcode/:code", foodH.HandleBarcode)
		}

		mealGroup := api.Group("/meals", auth)
		{
			mealGroup.POST("/log-photo", mealH.HandlePhotoLog)
			mealGroup.POST("/log-voice", mealH.HandleVoiceLog)
			mealGroup.POST("/log", mealH.HandleLog)
			mealGroup.POST("/:id/review", mealH.HandleReview)
			mealGroup.GET("/history/:user_id", mealH.HandleHistory)
			mealGroup.GET("/stats/:user_id", mealH.HandleStats)
		}

		adminGroup := api.Group("/admin", middleware.AdminKey(cfg.Auth.AdminKey))
		{
			adminGroup.POST("/foods/sync", adminH.HandleSync)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", cfg.Image.MaxSizeBytes),
	)
	return router
}
