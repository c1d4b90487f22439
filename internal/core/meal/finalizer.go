package meal

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"nutrisnap-backend/internal/core/catalog"
	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

// LineEdit 使用者對單行食物的修正
type LineEdit struct {
	FoodID        string  `json:"food_id" binding:"required"`
	Name          string  `json:"name"`
	QuantityGrams float64 `json:"quantity" binding:"omitempty,gt=0"`
}

// Finalizer 審核定稿：套用使用者修正、回寫目錄與佇列並重算餐點總計
type Finalizer struct {
	db *gorm.DB
}

// NewFinalizer 創建審核定稿器
func NewFinalizer(db *gorm.DB) *Finalizer {
	return &Finalizer{db: db}
}

// Finalize 定稿一筆 pending_review 餐點。
// 修正後的名稱會寫回仍在 pending 的目錄條目，成為之後配對的查詢鍵。
func (f *Finalizer) Finalize(ctx context.Context, mealID, userID string, edits []LineEdit) (*models.MealRecord, error) {
	var record models.MealRecord
	err := f.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", mealID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, common.ErrForbidden
	}
	if record.ReviewStatus != models.MealStatusPendingReview {
		return nil, common.ErrMealAlreadyFinalized
	}

	editByFood := make(map[string]LineEdit, len(edits))
	for _, e := range edits {
		editByFood[e.FoodID] = e
	}

	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 交易內的讀取必須看得到同交易的改名，走 tx 範圍的 repo
		txRepo := catalog.NewRepository(tx)

		// 套用修正：仍在 pending 的條目改名並升級，佇列查詢鍵一併更新
		for _, edit := range edits {
			entry, err := txRepo.FindByID(ctx, edit.FoodID)
			if err != nil {
				return err
			}
			if entry.ReviewStatus != models.ReviewStatusPending {
				continue
			}
			newName := entry.Name
			if edit.Name != "" {
				newName = catalog.NormalizeName(edit.Name)
			}
			if err := tx.Model(&models.FoodCatalogEntry{}).
				Where("id = ?", entry.ID).
				Updates(map[string]interface{}{
					"name":          newName,
					"review_status": models.ReviewStatusApproved,
				}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.IngestionQueueItem{}).
				Where("food_id = ? AND status = ?", entry.ID, models.QueueStatusPending).
				Updates(map[string]interface{}{
					"query":  newName,
					"status": models.QueueStatusReady,
				}).Error; err != nil {
				return err
			}
		}

		// 全部重算：以目錄目前的每 100g 數值與修正後的份量為準
		record.TotalCalories = 0
		record.TotalProtein = 0
		record.TotalCarbs = 0
		record.TotalFat = 0
		for i := range record.Lines {
			line := &record.Lines[i]
			entry, err := txRepo.FindByID(ctx, line.FoodID)
			if err != nil {
				return err
			}
			if edit, ok := editByFood[line.FoodID]; ok {
				if edit.QuantityGrams > 0 {
					line.QuantityGrams = edit.QuantityGrams
				}
				line.Name = entry.Name
			}
			multiplier := line.QuantityGrams / 100
			line.Calories = common.Round2(entry.CaloriesPer100g * multiplier)
			line.Protein = common.Round2(entry.ProteinPer100g * multiplier)
			line.Carbs = common.Round2(entry.CarbsPer100g * multiplier)
			line.Fat = common.Round2(entry.FatPer100g * multiplier)
			line.NeedsReview = false

			record.TotalCalories = common.Round2(record.TotalCalories + line.Calories)
			record.TotalProtein = common.Round2(record.TotalProtein + line.Protein)
			record.TotalCarbs = common.Round2(record.TotalCarbs + line.Carbs)
			record.TotalFat = common.Round2(record.TotalFat + line.Fat)

			if err := tx.Save(line).Error; err != nil {
				return err
			}
		}

		record.ReviewStatus = models.MealStatusFinalized
		return tx.Omit("Lines").Save(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}
