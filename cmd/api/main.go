package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"nutrisnap-backend/internal/api"
	"nutrisnap-backend/internal/core/ai"
	"nutrisnap-backend/internal/core/catalog"
	"nutrisnap-backend/internal/core/meal"
	"nutrisnap-backend/internal/core/providers"
	syncService "nutrisnap-backend/internal/core/sync"
	"nutrisnap-backend/internal/core/user"
	"nutrisnap-backend/internal/infrastructure/config"
	"nutrisnap-backend/internal/infrastructure/database"
	"nutrisnap-backend/internal/pkg/common"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.String("openrouter_api_key", config.MaskAPIKey(cfg.OpenRouter.APIKey)),
		zap.String("usda_api_key", config.MaskAPIKey(cfg.USDA.APIKey)),
		zap.Bool("sync_enabled", cfg.Sync.Enabled),
	)

	// 資料庫連線與遷移
	db, err := database.Connect(cfg.Database)
	if err != nil {
		common.LogFatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		common.LogFatal("Failed to migrate database", zap.Error(err))
	}
	if err := catalog.SeedCatalog(context.Background(), db); err != nil {
		common.LogFatal("Failed to seed catalog", zap.Error(err))
	}

	// 初始化快取
	aiCache, err := ai.NewCache(&cfg.Cache)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	defer aiCache.Close()

	// 組裝服務
	repo := catalog.NewRepository(db)
	queue := catalog.NewQueue(db)
	aiClient := ai.NewClient(cfg)
	estimator := ai.NewEstimator(aiClient, aiCache)
	extractor := ai.NewExtractor(aiClient)
	matcher := catalog.NewMatcher(repo, queue, estimator)

	offClient := providers.NewOpenFoodFactsClient(&cfg.OpenFoodFacts)
	usdaClient := providers.NewUSDAClient(&cfg.USDA)
	limiter := syncService.NewProviderLimiter(cfg.USDA.HourlyLimit, time.Hour, cfg.USDA.MinCallInterval)
	engine := syncService.NewEngine(db, repo, queue, offClient, usdaClient, limiter, cfg.Sync)

	svc := &api.Services{
		DB:        db,
		Cache:     aiCache,
		Repo:      repo,
		Queue:     queue,
		Extractor: extractor,
		Resolver:  meal.NewResolver(db, matcher, repo, queue),
		Finalizer: meal.NewFinalizer(db),
		Stats:     meal.NewStatsService(db, repo),
		Users:     user.NewService(db),
		Barcode:   offClient,
		Engine:    engine,
	}

	router := api.SetupRouter(cfg, svc)

	// 排程同步：interval > 0 時在行程內定時跑批次
	syncCtx, stopSync := context.WithCancel(context.Background())
	defer stopSync()
	if cfg.Sync.Enabled && cfg.Sync.Interval > 0 {
		go runSyncScheduler(syncCtx, engine, cfg.Sync.Interval)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")
	stopSync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}

// runSyncScheduler 依設定間隔執行目錄補齊批次，收到取消即停止
func runSyncScheduler(ctx context.Context, engine *syncService.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := engine.Run(ctx, false)
			if err != nil {
				common.LogWarn("排程同步批次失敗", zap.Error(err))
				continue
			}
			common.LogInfo("排程同步批次完成",
				zap.Int("processed", report.Processed),
				zap.Int("synced", report.Synced),
				zap.Int("failed", report.Failed),
				zap.Int("skipped", report.Skipped),
			)
		}
	}
}
