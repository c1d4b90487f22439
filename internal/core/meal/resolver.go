package meal

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"nutrisnap-backend/internal/core/catalog"
	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

// FoodInput 一項待配對的食物與份量
type FoodInput struct {
	Name          string  `json:"name" binding:"required"`
	QuantityGrams float64 `json:"quantity" binding:"required,gt=0"`
	Confidence    string  `json:"confidence,omitempty"`
}

// MealInput 一筆待記錄的餐點
type MealInput struct {
	UserID        string
	MealType      string
	LoggingMethod string
	Notes         *string
	ImageBase64   *string
	Foods         []FoodInput
}

// Resolver 餐點解析器：逐項配對食物並組裝完整餐點
type Resolver struct {
	db      *gorm.DB
	matcher *catalog.Matcher
	repo    *catalog.Repository
	queue   *catalog.Queue
}

// NewResolver 創建餐點解析器
func NewResolver(db *gorm.DB, matcher *catalog.Matcher, repo *catalog.Repository, queue *catalog.Queue) *Resolver {
	return &Resolver{db: db, matcher: matcher, repo: repo, queue: queue}
}

// scaleLine 依份量換算單行營養值
func scaleLine(entry *models.FoodCatalogEntry, in FoodInput, created bool) common.FoodLine {
	multiplier := in.QuantityGrams / 100
	return common.FoodLine{
		FoodID:        entry.ID,
		Name:          entry.Name,
		QuantityGrams: in.QuantityGrams,
		Calories:      common.Round2(entry.CaloriesPer100g * multiplier),
		Protein:       common.Round2(entry.ProteinPer100g * multiplier),
		Carbs:         common.Round2(entry.CarbsPer100g * multiplier),
		Fat:           common.Round2(entry.FatPer100g * multiplier),
		Matched:       !created,
		NeedsReview:   entry.ReviewStatus == models.ReviewStatusPending,
		IsEstimated:   entry.Source == models.SourceUser && !entry.Verified,
		Confidence:    in.Confidence,
	}
}

// MatchFoods 配對一組食物但不落盤，照片 / 語音預覽端點使用。
// 任一名稱被判定為非食物時整組失敗。
func (r *Resolver) MatchFoods(ctx context.Context, foods []FoodInput) ([]common.FoodLine, error) {
	lines := make([]common.FoodLine, 0, len(foods))
	for _, in := range foods {
		entry, created, err := r.matcher.Match(ctx, in.Name)
		if err != nil {
			return nil, err
		}
		lines = append(lines, scaleLine(entry, in, created))
	}
	return lines, nil
}

// LogMeal 配對並保存一筆餐點。
// 餐點在任一行引用 pending_review 條目時標記為 pending_review；
// 保存同時將這些條目與其佇列項目自動升級（記錄即視為默認核可）。
func (r *Resolver) LogMeal(ctx context.Context, in MealInput) (*models.MealRecord, error) {
	lines, err := r.MatchFoods(ctx, in.Foods)
	if err != nil {
		return nil, err
	}

	record := &models.MealRecord{
		ID:            common.GenerateUUID(),
		UserID:        in.UserID,
		MealType:      in.MealType,
		ReviewStatus:  models.MealStatusFinalized,
		LoggingMethod: in.LoggingMethod,
		Notes:         in.Notes,
		ImageBase64:   in.ImageBase64,
		Timestamp:     time.Now().UTC(),
	}

	pendingIDs := make([]string, 0)
	for i, line := range lines {
		record.TotalCalories = common.Round2(record.TotalCalories + line.Calories)
		record.TotalProtein = common.Round2(record.TotalProtein + line.Protein)
		record.TotalCarbs = common.Round2(record.TotalCarbs + line.Carbs)
		record.TotalFat = common.Round2(record.TotalFat + line.Fat)
		if line.NeedsReview {
			record.ReviewStatus = models.MealStatusPendingReview
			pendingIDs = append(pendingIDs, line.FoodID)
		}
		record.Lines = append(record.Lines, models.MealFoodLine{
			ID:            common.GenerateUUID(),
			MealID:        record.ID,
			FoodID:        line.FoodID,
			Position:      i,
			Name:          line.Name,
			QuantityGrams: line.QuantityGrams,
			Calories:      line.Calories,
			Protein:       line.Protein,
			Carbs:         line.Carbs,
			Fat:           line.Fat,
			Matched:       line.Matched,
			NeedsReview:   line.NeedsReview,
			IsEstimated:   line.IsEstimated,
			Confidence:    line.Confidence,
		})
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		// 保存即默認核可：引用到的 pending 條目與佇列項目一併升級
		for _, foodID := range pendingIDs {
			if err := r.repo.Approve(ctx, tx, foodID); err != nil {
				return err
			}
			if err := r.queue.Promote(ctx, tx, foodID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.FoodID)
	}
	if err := r.repo.TouchLastUsed(ctx, ids); err != nil {
		common.LogWarn("last_used_at 更新失敗", zap.Error(err))
	}

	common.LogInfo("餐點已記錄",
		zap.String("meal_id", record.ID),
		zap.String("user_id", record.UserID),
		zap.String("status", record.ReviewStatus),
		zap.Int("lines", len(record.Lines)),
	)
	return record, nil
}
