package common

// DetectedFood AI 從照片或語音描述中抽取出的一項食物猜測
type DetectedFood struct {
	Name                   string  `json:"name"`
	EstimatedQuantityGrams float64 `json:"estimated_quantity_grams"`
	Confidence             string  `json:"confidence,omitempty"` // high | medium | low
}

// PhotoAnalysisResult 照片分析結果（含硬幣比例偵測，沿用行動端的份量估算輔助）
type PhotoAnalysisResult struct {
	CoinDetected bool           `json:"coin_detected"`
	CoinType     *string        `json:"coin_type"`
	Foods        []DetectedFood `json:"foods"`
	Notes        string         `json:"notes,omitempty"`
}

// VoiceParseResult 語音 / 文字描述解析結果
type VoiceParseResult struct {
	Foods []DetectedFood `json:"foods"`
}

// NutritionEstimate AI 營養估算結果（每 100g）
// IsFood=false 時其餘數值無意義；AI 失敗時降級為 IsFood=true 全零
type NutritionEstimate struct {
	IsFood          bool    `json:"is_food"`
	Reason          string  `json:"reason,omitempty"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
	ProteinPer100g  float64 `json:"protein_per_100g"`
	CarbsPer100g    float64 `json:"carbs_per_100g"`
	FatPer100g      float64 `json:"fat_per_100g"`
}

// FoodLine 配對完成的一行食物，數值已依份量換算
type FoodLine struct {
	FoodID        string  `json:"food_id"`
	Name          string  `json:"name"`
	QuantityGrams float64 `json:"quantity"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbs         float64 `json:"carbs"`
	Fat           float64 `json:"fat"`
	Matched       bool    `json:"matched"`
	NeedsReview   bool    `json:"needs_review"`
	IsEstimated   bool    `json:"is_estimated"`
	Confidence    string  `json:"confidence,omitempty"`
}

// SyncReport 一次同步批次的結果統計
type SyncReport struct {
	Processed int `json:"processed"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// MacroTargets 每日熱量與巨量營養素目標
type MacroTargets struct {
	DailyCalorieTarget float64 `json:"daily_calorie_target"`
	ProteinTarget      float64 `json:"protein_target"`
	CarbsTarget        float64 `json:"carbs_target"`
	FatTarget          float64 `json:"fat_target"`
}
