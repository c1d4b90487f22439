package catalog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

const maxBackoff = 168 * time.Hour // 上限一週

// Backoff 依嘗試次數計算退避間隔：min(2^attempt 小時, 168 小時)
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 8 { // 2^8 = 256h 已超過上限
		return maxBackoff
	}
	d := time.Duration(1<<uint(attempt)) * time.Hour
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Queue 補齊工作佇列，任一食物項目至多一筆佇列紀錄
type Queue struct {
	db *gorm.DB
}

// NewQueue 建立補齊佇列
func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db}
}

// Enqueue 將食物項目排入佇列，對同一項目重複呼叫為 no-op
func (q *Queue) Enqueue(ctx context.Context, tx *gorm.DB, foodID, query, status string) error {
	if tx == nil {
		tx = q.db
	}
	item := models.IngestionQueueItem{
		ID:     common.GenerateUUID(),
		FoodID: foodID,
		Query:  query,
		Status: status,
	}
	// food_id 唯一索引擋掉重複排入
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "food_id"}},
			DoNothing: true,
		}).
		Create(&item).Error
}

// Promote 將 pending 項目轉為 ready，使其可被同步引擎選取
func (q *Queue) Promote(ctx context.Context, tx *gorm.DB, foodID string) error {
	if tx == nil {
		tx = q.db
	}
	return tx.WithContext(ctx).
		Model(&models.IngestionQueueItem{}).
		Where("food_id = ? AND status = ?", foodID, models.QueueStatusPending).
		Update("status", models.QueueStatusReady).Error
}

// MarkError 記錄失敗並設定下次嘗試時間
func (q *Queue) MarkError(ctx context.Context, foodID, message string, attempt int, nextAttempt time.Time) error {
	return q.db.WithContext(ctx).
		Model(&models.IngestionQueueItem{}).
		Where("food_id = ?", foodID).
		Updates(map[string]interface{}{
			"status":          models.QueueStatusError,
			"attempt_count":   attempt,
			"last_error":      common.TruncateString(message, 500),
			"next_attempt_at": nextAttempt,
		}).Error
}

// MarkSuccess 補齊成功後刪除佇列項目，項目自此進入穩定目錄
func (q *Queue) MarkSuccess(ctx context.Context, foodID string) error {
	return q.db.WithContext(ctx).
		Where("food_id = ?", foodID).
		Delete(&models.IngestionQueueItem{}).Error
}

// NextBatch 取出可處理的佇列項目：ready，或 error 且退避已過期，依建立時間排序
func (q *Queue) NextBatch(ctx context.Context, limit int) ([]models.IngestionQueueItem, error) {
	var items []models.IngestionQueueItem
	now := time.Now().UTC()
	err := q.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND next_attempt_at IS NOT NULL AND next_attempt_at <= ?)",
			models.QueueStatusReady, models.QueueStatusError, now).
		Order("created_at ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindByFoodID 依食物項目查詢佇列紀錄
func (q *Queue) FindByFoodID(ctx context.Context, foodID string) (*models.IngestionQueueItem, error) {
	var item models.IngestionQueueItem
	err := q.db.WithContext(ctx).Where("food_id = ?", foodID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Depth 回傳佇列目前的待處理深度，供健康檢查使用
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&models.IngestionQueueItem{}).
		Count(&count).Error
	return count, err
}
