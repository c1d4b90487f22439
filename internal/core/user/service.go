package user

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

// OnboardInput 建立使用者資料所需欄位
type OnboardInput struct {
	Name              string  `json:"name" binding:"required"`
	Age               int     `json:"age" binding:"required,gt=0"`
	Gender            string  `json:"gender" binding:"required,oneof=male female other"`
	Height            float64 `json:"height" binding:"required,gt=0"`
	Weight            float64 `json:"weight" binding:"required,gt=0"`
	Goal              string  `json:"goal" binding:"required,oneof=lose_weight gain_muscle maintain general_health"`
	ActivityLevel     string  `json:"activity_level" binding:"required,oneof=sedentary light moderate active very_active"`
	DietaryPreference string  `json:"dietary_preference" binding:"required"`
}

// GoalsInput 可更新的目標相關欄位，未帶的欄位保留原值
type GoalsInput struct {
	Weight        *float64 `json:"weight,omitempty" binding:"omitempty,gt=0"`
	Goal          *string  `json:"goal,omitempty" binding:"omitempty,oneof=lose_weight gain_muscle maintain general_health"`
	ActivityLevel *string  `json:"activity_level,omitempty" binding:"omitempty,oneof=sedentary light moderate active very_active"`
}

var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// CalculateTargets 以 Mifflin-St Jeor 公式計算每日熱量與巨量營養素目標。
// 熱量分配固定 40/30/30（碳水/蛋白質/脂肪）。
func CalculateTargets(age int, gender string, height, weight float64, goal, activityLevel string) common.MacroTargets {
	bmr := 10*weight + 6.25*height - 5*float64(age)
	if gender == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	multiplier, ok := activityMultipliers[activityLevel]
	if !ok {
		multiplier = 1.2
	}
	calories := bmr * multiplier

	switch goal {
	case "lose_weight":
		calories -= 500
	case "gain_muscle":
		calories += 300
	}

	return common.MacroTargets{
		DailyCalorieTarget: common.Round2(calories),
		ProteinTarget:      common.Round2(calories * 0.30 / 4),
		CarbsTarget:        common.Round2(calories * 0.40 / 4),
		FatTarget:          common.Round2(calories * 0.30 / 9),
	}
}

// Service 使用者資料與目標管理
type Service struct {
	db *gorm.DB
}

// NewService 創建使用者服務
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Onboard 建立使用者並計算初始目標
func (s *Service) Onboard(ctx context.Context, in OnboardInput) (*models.UserProfile, error) {
	targets := CalculateTargets(in.Age, in.Gender, in.Height, in.Weight, in.Goal, in.ActivityLevel)

	profile := &models.UserProfile{
		ID:                  common.GenerateUUID(),
		Name:                in.Name,
		Age:                 in.Age,
		Gender:              in.Gender,
		Height:              in.Height,
		Weight:              in.Weight,
		Goal:                in.Goal,
		ActivityLevel:       in.ActivityLevel,
		DietaryPreference:   in.DietaryPreference,
		DailyCalorieTarget:  targets.DailyCalorieTarget,
		ProteinTarget:       targets.ProteinTarget,
		CarbsTarget:         targets.CarbsTarget,
		FatTarget:           targets.FatTarget,
		OnboardingCompleted: true,
	}
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}

	common.LogInfo("使用者完成初始設定",
		zap.String("user_id", profile.ID),
		zap.Float64("daily_calorie_target", profile.DailyCalorieTarget),
	)
	return profile, nil
}

// Get 依 ID 查詢使用者資料
func (s *Service) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateGoals 更新體重 / 目標 / 活動量並重新計算每日目標
func (s *Service) UpdateGoals(ctx context.Context, id string, in GoalsInput) (*models.UserProfile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Weight != nil {
		profile.Weight = *in.Weight
	}
	if in.Goal != nil {
		profile.Goal = *in.Goal
	}
	if in.ActivityLevel != nil {
		profile.ActivityLevel = *in.ActivityLevel
	}

	targets := CalculateTargets(profile.Age, profile.Gender, profile.Height, profile.Weight, profile.Goal, profile.ActivityLevel)
	profile.DailyCalorieTarget = targets.DailyCalorieTarget
	profile.ProteinTarget = targets.ProteinTarget
	profile.CarbsTarget = targets.CarbsTarget
	profile.FatTarget = targets.FatTarget

	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// Targets 將使用者資料轉為目標結構，供統計查詢使用
func Targets(profile *models.UserProfile) *common.MacroTargets {
	if profile == nil {
		return nil
	}
	return &common.MacroTargets{
		DailyCalorieTarget: profile.DailyCalorieTarget,
		ProteinTarget:      profile.ProteinTarget,
		CarbsTarget:        profile.CarbsTarget,
		FatTarget:          profile.FatTarget,
	}
}
