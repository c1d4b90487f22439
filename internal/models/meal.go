package models

import "time"

// 餐點審核狀態
const (
	MealStatusPendingReview = "pending_review"
	MealStatusFinalized     = "finalized"
)

// 記錄方式
const (
	LoggingMethodPhoto   = "photo"
	LoggingMethodVoice   = "voice"
	LoggingMethodManual  = "manual"
	LoggingMethodBarcode = "barcode"
)

// MealRecord 一筆餐點記錄，總計欄位恆等於各食物行的加總
type MealRecord struct {
	ID            string  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string  `gorm:"type:uuid;not null;index" json:"user_id"`
	MealType      string  `gorm:"not null" json:"meal_type"` // breakfast | lunch | dinner | snack
	TotalCalories float64 `gorm:"not null" json:"total_calories"`
	TotalProtein  float64 `gorm:"not null" json:"total_protein"`
	TotalCarbs    float64 `gorm:"not null" json:"total_carbs"`
	TotalFat      float64 `gorm:"not null" json:"total_fat"`
	ReviewStatus  string  `gorm:"not null;index" json:"review_status"`
	LoggingMethod string  `gorm:"not null" json:"logging_method"`
	Notes         *string `json:"notes,omitempty"`
	ImageBase64   *string `json:"image_base64,omitempty"`

	Lines []MealFoodLine `gorm:"foreignKey:MealID" json:"foods"`

	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (MealRecord) TableName() string { return "meals" }

// MealFoodLine 餐點中的一行食物，保留對目錄條目的引用以便重新計算
type MealFoodLine struct {
	ID            string  `gorm:"type:uuid;primaryKey" json:"id"`
	MealID        string  `gorm:"type:uuid;not null;index" json:"meal_id"`
	FoodID        string  `gorm:"type:uuid;not null;index" json:"food_id"`
	Position      int     `gorm:"not null" json:"position"`
	Name          string  `gorm:"not null" json:"name"`
	QuantityGrams float64 `gorm:"not null" json:"quantity"`
	Calories      float64 `gorm:"not null" json:"calories"`
	Protein       float64 `gorm:"not null" json:"protein"`
	Carbs         float64 `gorm:"not null" json:"carbs"`
	Fat           float64 `gorm:"not null" json:"fat"`
	Matched       bool    `json:"matched"`      // 是否命中既有目錄條目
	NeedsReview   bool    `json:"needs_review"` // 來自佔位條目，等待確認
	IsEstimated   bool    `json:"is_estimated"` // 營養值為 AI 估算
	Confidence    string  `json:"confidence,omitempty"`
}

func (MealFoodLine) TableName() string { return "meal_food_lines" }
