package meal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nutrisnap-backend/internal/core/catalog"
	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

func TestMain(m *testing.M) {
	if err := common.InitLogger("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubEstimator struct {
	estimate common.NutritionEstimate
	calls    int
}

func (s *stubEstimator) Estimate(ctx context.Context, name string) (*common.NutritionEstimate, error) {
	s.calls++
	est := s.estimate
	return &est, nil
}

type fixture struct {
	db        *gorm.DB
	repo      *catalog.Repository
	queue     *catalog.Queue
	matcher   *catalog.Matcher
	resolver  *Resolver
	finalizer *Finalizer
	stats     *StatsService
	estimator *stubEstimator
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.UserProfile{},
		&models.FoodCatalogEntry{},
		&models.IngestionQueueItem{},
		&models.MealRecord{},
		&models.MealFoodLine{},
	))
	require.NoError(t, catalog.SeedCatalog(context.Background(), db))

	repo := catalog.NewRepository(db)
	queue := catalog.NewQueue(db)
	estimator := &stubEstimator{estimate: common.NutritionEstimate{
		IsFood:          true,
		CaloriesPer100g: 100,
		ProteinPer100g:  4,
		CarbsPer100g:    15,
		FatPer100g:      3,
	}}
	matcher := catalog.NewMatcher(repo, queue, estimator)
	return &fixture{
		db:        db,
		repo:      repo,
		queue:     queue,
		matcher:   matcher,
		resolver:  NewResolver(db, matcher, repo, queue),
		finalizer: NewFinalizer(db),
		stats:     NewStatsService(db, repo),
		estimator: estimator,
	}
}

func TestMatchFoodsScalesByQuantity(t *testing.T) {
	f := setup(t)

	// Idli 為 58 kcal/100g，120g 應為 69.6
	lines, err := f.resolver.MatchFoods(context.Background(), []FoodInput{
		{Name: "Idli", QuantityGrams: 120},
	})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.InDelta(t, 69.6, lines[0].Calories, 0.01)
	assert.True(t, lines[0].Matched)
	assert.False(t, lines[0].NeedsReview)
}

func TestLogMealKnownFoodsFinalized(t *testing.T) {
	f := setup(t)
	userID := common.GenerateUUID()

	record, err := f.resolver.LogMeal(context.Background(), MealInput{
		UserID:        userID,
		MealType:      "breakfast",
		LoggingMethod: models.LoggingMethodManual,
		Foods: []FoodInput{
			{Name: "Idli", QuantityGrams: 120},
			{Name: "Sambar", QuantityGrams: 150},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MealStatusFinalized, record.ReviewStatus)
	require.Len(t, record.Lines, 2)

	// 總計恆等於各行加總
	var sum float64
	for _, line := range record.Lines {
		sum += line.Calories
	}
	assert.InDelta(t, sum, record.TotalCalories, 0.01)
	assert.InDelta(t, 69.6+108.0, record.TotalCalories, 0.01)

	assert.Zero(t, f.estimator.calls)
}

func TestLogMealUnknownFoodCreatesPlaceholderAndPendingMeal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	userID := common.GenerateUUID()

	record, err := f.resolver.LogMeal(ctx, MealInput{
		UserID:        userID,
		MealType:      "lunch",
		LoggingMethod: models.LoggingMethodPhoto,
		Foods: []FoodInput{
			{Name: "Roti", QuantityGrams: 80},
			{Name: "a bowl of pesarattu", QuantityGrams: 150, Confidence: "medium"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MealStatusPendingReview, record.ReviewStatus)
	require.Len(t, record.Lines, 2)

	// Roti 260 kcal/100g × 0.8 = 208
	assert.InDelta(t, 208.0, record.Lines[0].Calories, 0.01)
	assert.True(t, record.Lines[0].Matched)

	// 佔位行：AI 估算 100 kcal/100g × 1.5 = 150
	assert.InDelta(t, 150.0, record.Lines[1].Calories, 0.01)
	assert.False(t, record.Lines[1].Matched)
	assert.True(t, record.Lines[1].NeedsReview)
	assert.True(t, record.Lines[1].IsEstimated)

	// 佔位條目已建立；保存即默認核可 → approved / ready
	entry, err := f.repo.Lookup(ctx, "Pesarattu")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.ReviewStatusApproved, entry.ReviewStatus)

	item, err := f.queue.FindByFoodID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusReady, item.Status)

	// last_used_at 已更新，供同步排程排序
	updated, err := f.repo.FindByID(ctx, record.Lines[0].FoodID)
	require.NoError(t, err)
	assert.NotNil(t, updated.LastUsedAt)
}

func TestLogMealNotFoodAbortsWholeMeal(t *testing.T) {
	f := setup(t)
	f.estimator.estimate = common.NutritionEstimate{IsFood: false, Reason: "not edible"}

	_, err := f.resolver.LogMeal(context.Background(), MealInput{
		UserID:        common.GenerateUUID(),
		MealType:      "dinner",
		LoggingMethod: models.LoggingMethodVoice,
		Foods: []FoodInput{
			{Name: "Roti", QuantityGrams: 80},
			{Name: "plastic spoon", QuantityGrams: 10},
		},
	})
	require.Error(t, err)

	// 部分餐點不落盤
	var count int64
	require.NoError(t, f.db.Model(&models.MealRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFinalizeRenamesPendingEntryAndRecomputes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	userID := common.GenerateUUID()

	// 直接建 pending 佔位與 pending 餐點，模擬尚未默認核可的舊資料
	entry := &models.FoodCatalogEntry{
		ID:              common.GenerateUUID(),
		Name:            "Mystery Curry",
		Category:        "uncategorized",
		CaloriesPer100g: 100,
		ProteinPer100g:  4,
		Source:          models.SourceUser,
		ReviewStatus:    models.ReviewStatusPending,
	}
	require.NoError(t, f.repo.Create(ctx, entry))
	require.NoError(t, f.queue.Enqueue(ctx, nil, entry.ID, entry.Name, models.QueueStatusPending))

	record := &models.MealRecord{
		ID:            common.GenerateUUID(),
		UserID:        userID,
		MealType:      "dinner",
		TotalCalories: 100,
		TotalProtein:  4,
		ReviewStatus:  models.MealStatusPendingReview,
		LoggingMethod: models.LoggingMethodPhoto,
		Lines: []models.MealFoodLine{{
			ID:            common.GenerateUUID(),
			FoodID:        entry.ID,
			Position:      0,
			Name:          entry.Name,
			QuantityGrams: 100,
			Calories:      100,
			Protein:       4,
			NeedsReview:   true,
			IsEstimated:   true,
		}},
	}
	record.Lines[0].MealID = record.ID
	require.NoError(t, f.db.Create(record).Error)

	finalized, err := f.finalizer.Finalize(ctx, record.ID, userID, []LineEdit{
		{FoodID: entry.ID, Name: "a bowl of chettinad curry", QuantityGrams: 150},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MealStatusFinalized, finalized.ReviewStatus)

	// 修正名稱成為新的查詢鍵
	renamed, err := f.repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chettinad Curry", renamed.Name)
	assert.Equal(t, models.ReviewStatusApproved, renamed.ReviewStatus)

	item, err := f.queue.FindByFoodID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusReady, item.Status)
	assert.Equal(t, "Chettinad Curry", item.Query)

	// 重算：100 kcal/100g × 1.5
	require.Len(t, finalized.Lines, 1)
	assert.InDelta(t, 150.0, finalized.Lines[0].Calories, 0.01)
	assert.InDelta(t, 150.0, finalized.TotalCalories, 0.01)
	assert.InDelta(t, 6.0, finalized.TotalProtein, 0.01)
}

func TestFinalizeRejectsWrongOwnerAndFinalizedMeal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	userID := common.GenerateUUID()

	record, err := f.resolver.LogMeal(ctx, MealInput{
		UserID:        userID,
		MealType:      "snack",
		LoggingMethod: models.LoggingMethodManual,
		Foods:         []FoodInput{{Name: "Samosa", QuantityGrams: 60}},
	})
	require.NoError(t, err)
	require.Equal(t, models.MealStatusFinalized, record.ReviewStatus)

	_, err = f.finalizer.Finalize(ctx, record.ID, "someone-else", nil)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.finalizer.Finalize(ctx, record.ID, userID, nil)
	assert.ErrorIs(t, err, common.ErrMealAlreadyFinalized)
}

func TestHistoryDerivesMicronutrientsFromCatalog(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	userID := common.GenerateUUID()

	record, err := f.resolver.LogMeal(ctx, MealInput{
		UserID:        userID,
		MealType:      "lunch",
		LoggingMethod: models.LoggingMethodManual,
		Foods:         []FoodInput{{Name: "Rajma", QuantityGrams: 200}},
	})
	require.NoError(t, err)

	// 記錄當下尚無微量營養素
	history, err := f.stats.History(ctx, userID, 7, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].Micronutrients)

	// 同步補齊後，同一筆歷史即帶出微量營養素
	fiber := 7.9
	sodium := 238.0
	require.NoError(t, f.db.Model(&models.FoodCatalogEntry{}).
		Where("id = ?", record.Lines[0].FoodID).
		Updates(map[string]interface{}{"fiber_g": fiber, "sodium_mg": sodium}).Error)

	history, err = f.stats.History(ctx, userID, 7, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.InDelta(t, 15.8, history[0].Micronutrients["fiber_g"], 0.01)
	assert.InDelta(t, 476.0, history[0].Micronutrients["sodium_mg"], 0.01)
}

func TestDailyStats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	userID := common.GenerateUUID()

	_, err := f.resolver.LogMeal(ctx, MealInput{
		UserID:        userID,
		MealType:      "breakfast",
		LoggingMethod: models.LoggingMethodManual,
		Foods:         []FoodInput{{Name: "Poha", QuantityGrams: 150}},
	})
	require.NoError(t, err)

	targets := &common.MacroTargets{DailyCalorieTarget: 2000}
	stats, err := f.stats.DailyForDate(ctx, userID, time.Now().UTC(), targets)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MealCount)
	assert.InDelta(t, 237.0, stats.TotalCalories, 0.01)
	assert.InDelta(t, 1763.0, stats.CaloriesRemaining, 0.01)
}
