package models

import (
	"time"

	"gorm.io/datatypes"
)

// 食物目錄來源
const (
	SourceSeed          = "seed"          // 內建種子資料
	SourceUser          = "user"          // 使用者記錄時由 AI 估算建立
	SourceUSDA          = "usda"          // USDA FoodData Central
	SourceOpenFoodFacts = "openfoodfacts" // Open Food Facts（條碼）
)

// 審核狀態
const (
	ReviewStatusPending  = "pending_review"
	ReviewStatusApproved = "approved"
)

// 同步狀態
const (
	SyncStatusOK    = "ok"
	SyncStatusError = "error"
)

// FoodCatalogEntry 食物目錄條目，所有營養值皆以每 100g 為單位
// 微量營養素為選填欄位，單位固定：g / mg / µg（見各欄位註解）
type FoodCatalogEntry struct {
	ID        string  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string  `gorm:"not null;index" json:"name"`
	NameHindi *string `gorm:"column:name_hindi" json:"name_hindi,omitempty"`
	Brand     *string `json:"brand,omitempty"`
	Barcode   *string `gorm:"uniqueIndex" json:"barcode,omitempty"`
	Category  string  `gorm:"index" json:"category"`
	Locale    *string `json:"locale,omitempty"`

	// 巨量營養素（必填，配對或估算後即有值）
	CaloriesPer100g float64 `gorm:"not null" json:"calories_per_100g"`
	ProteinPer100g  float64 `gorm:"not null" json:"protein_per_100g"`
	CarbsPer100g    float64 `gorm:"not null" json:"carbs_per_100g"`
	FatPer100g      float64 `gorm:"not null" json:"fat_per_100g"`

	// 微量營養素（每 100g，未補齊前為 null）
	FiberG        *float64 `gorm:"column:fiber_g" json:"fiber_g,omitempty"`                 // g
	SugarG        *float64 `gorm:"column:sugar_g" json:"sugar_g,omitempty"`                 // g
	SaturatedFatG *float64 `gorm:"column:saturated_fat_g" json:"saturated_fat_g,omitempty"` // g
	TransFatG     *float64 `gorm:"column:trans_fat_g" json:"trans_fat_g,omitempty"`         // g
	CholesterolMg *float64 `gorm:"column:cholesterol_mg" json:"cholesterol_mg,omitempty"`   // mg
	SodiumMg      *float64 `gorm:"column:sodium_mg" json:"sodium_mg,omitempty"`             // mg
	PotassiumMg   *float64 `gorm:"column:potassium_mg" json:"potassium_mg,omitempty"`       // mg
	CalciumMg     *float64 `gorm:"column:calcium_mg" json:"calcium_mg,omitempty"`           // mg
	IronMg        *float64 `gorm:"column:iron_mg" json:"iron_mg,omitempty"`                 // mg
	MagnesiumMg   *float64 `gorm:"column:magnesium_mg" json:"magnesium_mg,omitempty"`       // mg
	ZincMg        *float64 `gorm:"column:zinc_mg" json:"zinc_mg,omitempty"`                 // mg
	PhosphorusMg  *float64 `gorm:"column:phosphorus_mg" json:"phosphorus_mg,omitempty"`     // mg
	SeleniumUg    *float64 `gorm:"column:selenium_ug" json:"selenium_ug,omitempty"`         // µg
	CopperMg      *float64 `gorm:"column:copper_mg" json:"copper_mg,omitempty"`             // mg
	VitaminAUg    *float64 `gorm:"column:vitamin_a_ug" json:"vitamin_a_ug,omitempty"`       // µg RAE
	VitaminCMg    *float64 `gorm:"column:vitamin_c_mg" json:"vitamin_c_mg,omitempty"`       // mg
	VitaminDUg    *float64 `gorm:"column:vitamin_d_ug" json:"vitamin_d_ug,omitempty"`       // µg
	VitaminEMg    *float64 `gorm:"column:vitamin_e_mg" json:"vitamin_e_mg,omitempty"`       // mg
	VitaminKUg    *float64 `gorm:"column:vitamin_k_ug" json:"vitamin_k_ug,omitempty"`       // µg
	ThiaminMg     *float64 `gorm:"column:thiamin_mg" json:"thiamin_mg,omitempty"`           // mg (B1)
	RiboflavinMg  *float64 `gorm:"column:riboflavin_mg" json:"riboflavin_mg,omitempty"`     // mg (B2)
	NiacinMg      *float64 `gorm:"column:niacin_mg" json:"niacin_mg,omitempty"`             // mg (B3)
	VitaminB6Mg   *float64 `gorm:"column:vitamin_b6_mg" json:"vitamin_b6_mg,omitempty"`     // mg
	FolateUg      *float64 `gorm:"column:folate_ug" json:"folate_ug,omitempty"`             // µg DFE
	VitaminB12Ug  *float64 `gorm:"column:vitamin_b12_ug" json:"vitamin_b12_ug,omitempty"`   // µg

	ServingSize  float64 `json:"serving_size"` // 標準一份的克數
	IsVegetarian bool    `gorm:"default:true" json:"is_vegetarian"`

	// 供應商附帶的描述性欄位
	ImageURL    *string `json:"image_url,omitempty"`
	Ingredients *string `json:"ingredients,omitempty"`
	DataType    *string `json:"data_type,omitempty"`    // USDA dataType
	PublishedAt *string `json:"published_at,omitempty"` // USDA publishedDate

	// 來源資訊：(source, external_id) 兩者皆非空時必須唯一
	Source     string         `gorm:"not null;index;uniqueIndex:idx_foods_source_external" json:"source"`
	ExternalID *string        `gorm:"uniqueIndex:idx_foods_source_external" json:"external_id,omitempty"`
	RawPayload datatypes.JSON `gorm:"type:jsonb" json:"-"` // 供應商原始回應，僅供稽核

	// 生命週期狀態
	ReviewStatus string     `gorm:"not null;default:approved;index" json:"review_status"`
	SyncStatus   *string    `gorm:"index" json:"sync_status,omitempty"` // null | ok | error
	SyncError    string     `json:"sync_error,omitempty"`
	Verified     bool       `gorm:"default:false" json:"verified"`
	RetryCount   int        `gorm:"default:0" json:"retry_count"`
	RetryAfter   *time.Time `json:"retry_after,omitempty"` // 下次重試前的時間閘
	LastUsedAt   *time.Time `gorm:"index" json:"last_used_at,omitempty"`
	LastSyncedAt *time.Time `gorm:"index" json:"last_synced_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (FoodCatalogEntry) TableName() string { return "foods" }

// HasExternalIdentity 是否已持有供應商識別碼
func (f *FoodCatalogEntry) HasExternalIdentity() bool {
	return f.ExternalID != nil && *f.ExternalID != ""
}

// HasBarcode 是否有條碼
func (f *FoodCatalogEntry) HasBarcode() bool {
	return f.Barcode != nil && *f.Barcode != ""
}

// MissingKeyMicronutrient 關鍵微量營養素是否缺漏（纖維 / 糖 / 鈉 任一為 null）
// 同步引擎的候補掃描以此判斷條目是否值得補齊
func (f *FoodCatalogEntry) MissingKeyMicronutrient() bool {
	return f.FiberG == nil || f.SugarG == nil || f.SodiumMg == nil
}

// Micronutrients 回傳已補齊的微量營養素（每 100g），鍵名同 JSON 欄位
func (f *FoodCatalogEntry) Micronutrients() map[string]float64 {
	fields := map[string]*float64{
		"fiber_g":         f.FiberG,
		"sugar_g":         f.SugarG,
		"saturated_fat_g": f.SaturatedFatG,
		"trans_fat_g":     f.TransFatG,
		"cholesterol_mg":  f.CholesterolMg,
		"sodium_mg":       f.SodiumMg,
		"potassium_mg":    f.PotassiumMg,
		"calcium_mg":      f.CalciumMg,
		"iron_mg":         f.IronMg,
		"magnesium_mg":    f.MagnesiumMg,
		"zinc_mg":         f.ZincMg,
		"phosphorus_mg":   f.PhosphorusMg,
		"selenium_ug":     f.SeleniumUg,
		"copper_mg":       f.CopperMg,
		"vitamin_a_ug":    f.VitaminAUg,
		"vitamin_c_mg":    f.VitaminCMg,
		"vitamin_d_ug":    f.VitaminDUg,
		"vitamin_e_mg":    f.VitaminEMg,
		"vitamin_k_ug":    f.VitaminKUg,
		"thiamin_mg":      f.ThiaminMg,
		"riboflavin_mg":   f.RiboflavinMg,
		"niacin_mg":       f.NiacinMg,
		"vitamin_b6_mg":   f.VitaminB6Mg,
		"folate_ug":       f.FolateUg,
		"vitamin_b12_ug":  f.VitaminB12Ug,
	}
	out := make(map[string]float64)
	for name, v := range fields {
		if v != nil {
			out[name] = *v
		}
	}
	return out
}
