package catalog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

// NutritionEstimator 營養估算介面，由 AI 層實作
type NutritionEstimator interface {
	Estimate(ctx context.Context, name string) (*common.NutritionEstimate, error)
}

// Matcher 將偵測到的食物名稱解析為目錄項目，
// 未命中時建立 pending_review 佔位項目並排入補齊佇列
type Matcher struct {
	repo      *Repository
	queue     *Queue
	estimator NutritionEstimator
}

// NewMatcher 建立食物匹配器
func NewMatcher(repo *Repository, queue *Queue, estimator NutritionEstimator) *Matcher {
	return &Matcher{repo: repo, queue: queue, estimator: estimator}
}

// Match 解析單一食物名稱，created 表示本次呼叫建立了新的佔位項目。
// 命中既有項目直接回傳；未命中時先經 AI 確認可食用並估算每 100g 營養，
// 再於同一交易內建立目錄項目與佇列項目。
func (m *Matcher) Match(ctx context.Context, rawName string) (entry *models.FoodCatalogEntry, created bool, err error) {
	normalized := NormalizeName(rawName)
	if normalized == "" {
		return nil, false, common.NewNotFoodError(rawName, "empty name")
	}

	entry, err = m.repo.Lookup(ctx, normalized)
	if err != nil {
		return nil, false, err
	}
	if entry != nil {
		common.LogCacheHit("catalog", normalized)
		return entry, false, nil
	}
	common.LogCacheMiss("catalog", normalized)

	estimate, err := m.estimator.Estimate(ctx, normalized)
	if err != nil {
		return nil, false, err
	}
	if !estimate.IsFood {
		// 非食物屬硬性失敗，不建立任何紀錄
		return nil, false, common.NewNotFoodError(normalized, estimate.Reason)
	}

	return m.createPlaceholder(ctx, normalized, estimate)
}

// createPlaceholder 建立估算佔位項目，目錄與佇列寫入必須同交易成立
func (m *Matcher) createPlaceholder(ctx context.Context, name string, est *common.NutritionEstimate) (*models.FoodCatalogEntry, bool, error) {
	entry := &models.FoodCatalogEntry{
		ID:              common.GenerateUUID(),
		Name:            name,
		Category:        "uncategorized",
		CaloriesPer100g: clampNonNegative(est.CaloriesPer100g),
		ProteinPer100g:  clampNonNegative(est.ProteinPer100g),
		CarbsPer100g:    clampNonNegative(est.CarbsPer100g),
		FatPer100g:      clampNonNegative(est.FatPer100g),
		Source:          models.SourceUser,
		ReviewStatus:    models.ReviewStatusPending,
	}

	err := m.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return m.queue.Enqueue(ctx, tx, entry.ID, name, models.QueueStatusPending)
	})
	if err != nil {
		// 併發建立同名項目時改走重查路徑，不視為錯誤
		if isDuplicateError(err) {
			existing, lookupErr := m.repo.Lookup(ctx, name)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	common.LogInfo("建立佔位食物項目",
		zap.String("food_id", entry.ID),
		zap.String("name", name),
	)
	return entry, true, nil
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func isDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
