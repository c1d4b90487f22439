package models

import "time"

// UserProfile 使用者資料與每日目標
type UserProfile struct {
	ID                  string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name                string    `gorm:"not null" json:"name"`
	Age                 int       `gorm:"not null" json:"age"`
	Gender              string    `gorm:"not null" json:"gender"`
	Height              float64   `gorm:"not null" json:"height"` // cm
	Weight              float64   `gorm:"not null" json:"weight"` // kg
	Goal                string    `gorm:"not null" json:"goal"`   // lose_weight | gain_muscle | maintain | general_health
	ActivityLevel       string    `gorm:"not null" json:"activity_level"`
	DietaryPreference   string    `gorm:"not null" json:"dietary_preference"`
	DailyCalorieTarget  float64   `gorm:"not null" json:"daily_calorie_target"`
	ProteinTarget       float64   `gorm:"not null" json:"protein_target"`
	CarbsTarget         float64   `gorm:"not null" json:"carbs_target"`
	FatTarget           float64   `gorm:"not null" json:"fat_target"`
	OnboardingCompleted bool      `gorm:"default:true" json:"onboarding_completed"`
	CreatedAt           time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null" json:"updated_at"`
}

func (UserProfile) TableName() string { return "users" }
