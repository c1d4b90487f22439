package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"nutrisnap-backend/internal/core/catalog"
	"nutrisnap-backend/internal/core/providers"
	"nutrisnap-backend/internal/infrastructure/config"
	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

// BarcodeProvider 條碼查詢供應商
type BarcodeProvider interface {
	FetchByBarcode(ctx context.Context, barcode string) (*providers.FoodData, error)
}

// NutritionProvider 名稱 / ID 查詢供應商
type NutritionProvider interface {
	FetchByID(ctx context.Context, externalID string) (*providers.FoodData, error)
	SearchByName(ctx context.Context, name string) (*providers.FoodData, error)
}

// Engine 目錄補齊引擎。每次 Run 最多處理 BatchSize 筆：
// 先依建立順序消化佇列項目，餘量由過期掃描遞補。
type Engine struct {
	db        *gorm.DB
	repo      *catalog.Repository
	queue     *catalog.Queue
	barcode   BarcodeProvider
	nutrition NutritionProvider
	limiter   *ProviderLimiter
	cfg       config.SyncConfig
}

// NewEngine 創建補齊引擎
func NewEngine(db *gorm.DB, repo *catalog.Repository, queue *catalog.Queue,
	barcode BarcodeProvider, nutrition NutritionProvider,
	limiter *ProviderLimiter, cfg config.SyncConfig) *Engine {
	return &Engine{
		db:        db,
		repo:      repo,
		queue:     queue,
		barcode:   barcode,
		nutrition: nutrition,
		limiter:   limiter,
		cfg:       cfg,
	}
}

// Run 執行一次同步批次。fullSync 為 true 時過期掃描不受近期使用門檻限制。
func (e *Engine) Run(ctx context.Context, fullSync bool) (*common.SyncReport, error) {
	report := &common.SyncReport{}

	items, err := e.queue.NextBatch(ctx, e.cfg.BatchSize)
	if err != nil {
		return report, fmt.Errorf("failed to load queue batch: %w", err)
	}

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item.FoodID] = struct{}{}
		entry, err := e.repo.FindByID(ctx, item.FoodID)
		if err != nil {
			// 條目已不存在的孤兒佇列項目直接清掉
			if errors.Is(err, common.ErrRecordNotFound) {
				_ = e.queue.MarkSuccess(ctx, item.FoodID)
				report.Skipped++
				continue
			}
			return report, err
		}
		queued := item
		if err := e.processEntry(ctx, entry, &queued, report); err != nil {
			return report, err
		}
	}

	remaining := e.cfg.BatchSize - report.Processed
	if remaining > 0 {
		candidates, err := e.staleCandidates(ctx, remaining, fullSync)
		if err != nil {
			return report, err
		}
		for i := range candidates {
			if _, ok := seen[candidates[i].ID]; ok {
				continue
			}
			if err := e.processEntry(ctx, &candidates[i], nil, report); err != nil {
				return report, err
			}
		}
	}

	common.LogInfo("同步批次完成",
		zap.Int("processed", report.Processed),
		zap.Int("synced", report.Synced),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// staleCandidates 過期掃描：無佇列項目、退避閘已過、近期使用或從未同步，
// 且仍缺關鍵微量營養素或未驗證的條目。
// 耗盡（retry_count ≥ MaxRetry）只在退避期間排除條目，退避一過即重新納入。
// 排序：缺關鍵營養素優先 > 最近使用 > 最久未同步。
func (e *Engine) staleCandidates(ctx context.Context, limit int, fullSync bool) ([]models.FoodCatalogEntry, error) {
	now := time.Now().UTC()
	q := e.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM food_sync_queue WHERE food_sync_queue.food_id = foods.id)").
		Where("retry_after IS NULL OR retry_after <= ?", now).
		Where("verified = ? OR last_synced_at IS NULL OR fiber_g IS NULL OR sugar_g IS NULL OR sodium_mg IS NULL", false)

	if !fullSync {
		usedSince := now.AddDate(0, 0, -e.cfg.UsedWithinDays)
		q = q.Where("last_used_at >= ? OR last_synced_at IS NULL", usedSince)
	}

	var entries []models.FoodCatalogEntry
	err := q.
		Order("CASE WHEN fiber_g IS NULL OR sugar_g IS NULL OR sodium_mg IS NULL THEN 0 ELSE 1 END ASC").
		Order("last_used_at DESC NULLS LAST").
		Order("last_synced_at ASC NULLS FIRST").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// processEntry 處理單一條目並計入報表。只有 ctx 終止類錯誤會讓整個批次中斷。
func (e *Engine) processEntry(ctx context.Context, entry *models.FoodCatalogEntry, item *models.IngestionQueueItem, report *common.SyncReport) error {
	report.Processed++

	var (
		data *providers.FoodData
		err  error
	)
	switch {
	case entry.HasBarcode():
		data, err = e.barcode.FetchByBarcode(ctx, *entry.Barcode)
	case entry.Name == "" && !entry.HasExternalIdentity():
		report.Skipped++
		return nil
	default:
		if acqErr := e.limiter.Acquire(ctx); acqErr != nil {
			// 限流等待被取消，整批結束
			report.Processed--
			return acqErr
		}
		if entry.HasExternalIdentity() && entry.Source == models.SourceUSDA {
			data, err = e.nutrition.FetchByID(ctx, *entry.ExternalID)
		} else {
			query := entry.Name
			if item != nil && item.Query != "" {
				query = item.Query
			}
			data, err = e.nutrition.SearchByName(ctx, query)
		}
	}

	if err != nil {
		if ctx.Err() != nil {
			report.Processed--
			return ctx.Err()
		}
		e.markFailure(ctx, entry, item, err)
		report.Failed++
		return nil
	}

	if err := e.applySuccess(ctx, entry, item, data); err != nil {
		e.markFailure(ctx, entry, item, err)
		report.Failed++
		return nil
	}
	report.Synced++
	return nil
}

// applySuccess 合併供應商資料並落盤；(source, external_id) 撞唯一索引時
// 以不寫入 external_id 的方式重試一次，不讓整筆更新失敗。
func (e *Engine) applySuccess(ctx context.Context, entry *models.FoodCatalogEntry, item *models.IngestionQueueItem, data *providers.FoodData) error {
	// 在副本上合併與標記，落盤失敗時原條目的退避歷史不受影響
	updated := *entry
	MergeFoodData(&updated, data)

	now := time.Now().UTC()
	ok := models.SyncStatusOK
	updated.Verified = true
	updated.SyncStatus = &ok
	updated.SyncError = ""
	updated.RetryCount = 0
	updated.RetryAfter = nil
	updated.LastSyncedAt = &now

	if err := e.repo.Save(ctx, &updated); err != nil {
		if !isUniqueViolation(err) {
			return err
		}
		// 另一條目已持有該 (source, external_id)，改為不寫入 external_id 重試一次
		updated.ExternalID = entry.ExternalID
		if err := e.repo.Save(ctx, &updated); err != nil {
			return err
		}
	}
	*entry = updated

	if item != nil {
		if err := e.queue.MarkSuccess(ctx, entry.ID); err != nil {
			return err
		}
	}
	return nil
}

// markFailure 記錄失敗與退避，佇列項目鏡射同一份退避狀態
func (e *Engine) markFailure(ctx context.Context, entry *models.FoodCatalogEntry, item *models.IngestionQueueItem, cause error) {
	entry.RetryCount++
	backoff := catalog.Backoff(entry.RetryCount)
	next := time.Now().UTC().Add(backoff)
	errStatus := models.SyncStatusError

	entry.RetryAfter = &next
	entry.SyncStatus = &errStatus
	entry.SyncError = common.TruncateString(cause.Error(), 500)

	if err := e.repo.Save(ctx, entry); err != nil {
		common.LogError("同步失敗狀態寫入失敗",
			zap.String("food_id", entry.ID),
			zap.Error(err),
		)
	}
	if item != nil {
		if err := e.queue.MarkError(ctx, entry.ID, cause.Error(), entry.RetryCount, next); err != nil {
			common.LogError("佇列退避狀態寫入失敗",
				zap.String("food_id", entry.ID),
				zap.Error(err),
			)
		}
	}

	common.LogWarn("條目同步失敗",
		zap.String("food_id", entry.ID),
		zap.String("name", entry.Name),
		zap.Int("retry_count", entry.RetryCount),
		zap.Duration("backoff", backoff),
		zap.Error(cause),
	)
	if entry.RetryCount >= e.cfg.MaxRetry {
		common.LogError("條目同步重試次數達上限",
			zap.String("food_id", entry.ID),
			zap.String("name", entry.Name),
			zap.Int("retry_count", entry.RetryCount),
		)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
