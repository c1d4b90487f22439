package user

import (
	"context"
	"os"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

func TestMain(m *testing.M) {
	if err := common.InitLogger("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.UserProfile{}))
	return NewService(db)
}

func TestCalculateTargets(t *testing.T) {
	// 男性 30 歲 175cm 70kg moderate maintain：
	// BMR = 700 + 1093.75 - 150 + 5 = 1648.75，TDEE = 1648.75 × 1.55 = 2555.56
	targets := CalculateTargets(30, "male", 175, 70, "maintain", "moderate")
	assert.InDelta(t, 2555.56, targets.DailyCalorieTarget, 0.01)
	assert.InDelta(t, 191.67, targets.ProteinTarget, 0.01)
	assert.InDelta(t, 255.56, targets.CarbsTarget, 0.01)
	assert.InDelta(t, 85.19, targets.FatTarget, 0.01)

	// 減重 −500
	lose := CalculateTargets(30, "male", 175, 70, "lose_weight", "moderate")
	assert.InDelta(t, targets.DailyCalorieTarget-500, lose.DailyCalorieTarget, 0.01)

	// 增肌 +300
	gain := CalculateTargets(30, "male", 175, 70, "gain_muscle", "moderate")
	assert.InDelta(t, targets.DailyCalorieTarget+300, gain.DailyCalorieTarget, 0.01)

	// 女性 −161 而非 +5
	female := CalculateTargets(30, "female", 175, 70, "maintain", "moderate")
	assert.InDelta(t, targets.DailyCalorieTarget-166*1.55, female.DailyCalorieTarget, 0.01)
}

func TestOnboardAndGet(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	profile, err := s.Onboard(ctx, OnboardInput{
		Name:              "Priya",
		Age:               28,
		Gender:            "female",
		Height:            160,
		Weight:            55,
		Goal:              "lose_weight",
		ActivityLevel:     "light",
		DietaryPreference: "vegetarian",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.True(t, profile.OnboardingCompleted)
	assert.Positive(t, profile.DailyCalorieTarget)

	got, err := s.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.Name, got.Name)
	assert.Equal(t, profile.DailyCalorieTarget, got.DailyCalorieTarget)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestUpdateGoalsRecomputesTargets(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	profile, err := s.Onboard(ctx, OnboardInput{
		Name:              "Arjun",
		Age:               35,
		Gender:            "male",
		Height:            180,
		Weight:            82,
		Goal:              "maintain",
		ActivityLevel:     "sedentary",
		DietaryPreference: "non_vegetarian",
	})
	require.NoError(t, err)
	before := profile.DailyCalorieTarget

	goal := "gain_muscle"
	level := "active"
	updated, err := s.UpdateGoals(ctx, profile.ID, GoalsInput{Goal: &goal, ActivityLevel: &level})
	require.NoError(t, err)
	assert.Equal(t, "gain_muscle", updated.Goal)
	assert.Greater(t, updated.DailyCalorieTarget, before)

	expected := CalculateTargets(35, "male", 180, 82, "gain_muscle", "active")
	assert.InDelta(t, expected.DailyCalorieTarget, updated.DailyCalorieTarget, 0.01)
	assert.InDelta(t, expected.ProteinTarget, updated.ProteinTarget, 0.01)
}
