package meal

import (
	"context"
	"time"

	"gorm.io/gorm"

	"nutrisnap-backend/internal/core/catalog"
	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

// HistoryEntry 歷史查詢回傳的一筆餐點，微量營養素由目錄現值即時推導
type HistoryEntry struct {
	models.MealRecord
	Micronutrients map[string]float64 `json:"micronutrients,omitempty"`
}

// DailyStats 單日攝取與目標的對照
type DailyStats struct {
	Date          string               `json:"date"`
	TotalCalories float64              `json:"total_calories"`
	TotalProtein  float64              `json:"total_protein"`
	TotalCarbs    float64              `json:"total_carbs"`
	TotalFat      float64              `json:"total_fat"`
	MealCount     int                  `json:"meal_count"`
	Targets       *common.MacroTargets `json:"targets,omitempty"`

	CaloriesRemaining float64 `json:"calories_remaining"`
}

// StatsService 餐點歷史與統計查詢
type StatsService struct {
	db   *gorm.DB
	repo *catalog.Repository
}

// NewStatsService 創建統計服務
func NewStatsService(db *gorm.DB, repo *catalog.Repository) *StatsService {
	return &StatsService{db: db, repo: repo}
}

// History 依時間倒序回傳使用者餐點。
// 微量營養素不落盤在餐點上，而是每次查詢時由目錄現值重新推導，
// 目錄補齊後歷史餐點即可看到更完整的數據。
func (s *StatsService) History(ctx context.Context, userID string, days, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit)
	if days > 0 {
		q = q.Where("timestamp >= ?", time.Now().UTC().AddDate(0, 0, -days))
	}

	var records []models.MealRecord
	err := q.Find(&records).Error
	if err != nil {
		return nil, err
	}

	// 條目快取，同一條目在多餐中只查一次
	entryCache := make(map[string]*models.FoodCatalogEntry)
	history := make([]HistoryEntry, 0, len(records))
	for _, record := range records {
		micros := make(map[string]float64)
		for _, line := range record.Lines {
			entry, ok := entryCache[line.FoodID]
			if !ok {
				loaded, err := s.repo.FindByID(ctx, line.FoodID)
				if err != nil {
					// 條目被移除時跳過該行的推導，餐點本身照常回傳
					entryCache[line.FoodID] = nil
					continue
				}
				entry = loaded
				entryCache[line.FoodID] = entry
			}
			if entry == nil {
				continue
			}
			multiplier := line.QuantityGrams / 100
			for name, per100 := range entry.Micronutrients() {
				micros[name] = common.Round2(micros[name] + per100*multiplier)
			}
		}
		he := HistoryEntry{MealRecord: record}
		if len(micros) > 0 {
			he.Micronutrients = micros
		}
		history = append(history, he)
	}
	return history, nil
}

// DailyForDate 統計指定日期（UTC）的攝取總量，並附上使用者目標
func (s *StatsService) DailyForDate(ctx context.Context, userID string, date time.Time, targets *common.MacroTargets) (*DailyStats, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var records []models.MealRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, dayStart, dayEnd).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	stats := &DailyStats{
		Date:      dayStart.Format("2006-01-02"),
		MealCount: len(records),
		Targets:   targets,
	}
	for _, record := range records {
		stats.TotalCalories = common.Round2(stats.TotalCalories + record.TotalCalories)
		stats.TotalProtein = common.Round2(stats.TotalProtein + record.TotalProtein)
		stats.TotalCarbs = common.Round2(stats.TotalCarbs + record.TotalCarbs)
		stats.TotalFat = common.Round2(stats.TotalFat + record.TotalFat)
	}
	if targets != nil {
		stats.CaloriesRemaining = common.Round2(targets.DailyCalorieTarget - stats.TotalCalories)
	}
	return stats, nil
}
