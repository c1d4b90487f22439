package providers

import "encoding/json"

// Nutrient 供應商回傳的單一營養素，名稱與單位保留供應商原始寫法
type Nutrient struct {
	Name   string
	Unit   string
	Amount float64
}

// FoodData 供應商查詢結果的統一中介格式。
// Raw 保留完整原始回應，寫入目錄時存為 raw_payload。
type FoodData struct {
	Source      string
	ExternalID  string
	Name        string
	Brand       string
	Category    string
	ImageURL    string
	Ingredients string
	DataType    string
	PublishedAt string
	Nutrients   []Nutrient
	Raw         json.RawMessage
}
