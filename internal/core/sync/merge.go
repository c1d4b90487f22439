package sync

import (
	"strings"

	"gorm.io/datatypes"

	"nutrisnap-backend/internal/core/providers"
	"nutrisnap-backend/internal/models"
)

// nutrientTarget 營養素寫入目標：目的欄位與固定單位
type nutrientTarget struct {
	unit string // g | mg | ug | kcal
	set  func(*models.FoodCatalogEntry, float64)
}

// nutrientTable 供應商營養素名稱到目錄欄位的宣告式對照。
// 名稱採 USDA nutrientName 寫法，Open Food Facts 客戶端已先轉為同一套名稱。
var nutrientTable = map[string]nutrientTarget{
	"Energy":                         {"kcal", func(e *models.FoodCatalogEntry, v float64) { e.CaloriesPer100g = v }},
	"Protein":                        {"g", func(e *models.FoodCatalogEntry, v float64) { e.ProteinPer100g = v }},
	"Carbohydrate, by difference":    {"g", func(e *models.FoodCatalogEntry, v float64) { e.CarbsPer100g = v }},
	"Total lipid (fat)":              {"g", func(e *models.FoodCatalogEntry, v float64) { e.FatPer100g = v }},
	"Fiber, total dietary":           {"g", func(e *models.FoodCatalogEntry, v float64) { e.FiberG = &v }},
	"Sugars, total including NLEA":   {"g", func(e *models.FoodCatalogEntry, v float64) { e.SugarG = &v }},
	"Total Sugars":                   {"g", func(e *models.FoodCatalogEntry, v float64) { e.SugarG = &v }},
	"Fatty acids, total saturated":   {"g", func(e *models.FoodCatalogEntry, v float64) { e.SaturatedFatG = &v }},
	"Fatty acids, total trans":       {"g", func(e *models.FoodCatalogEntry, v float64) { e.TransFatG = &v }},
	"Cholesterol":                    {"mg", func(e *models.FoodCatalogEntry, v float64) { e.CholesterolMg = &v }},
	"Sodium, Na":                     {"mg", func(e *models.FoodCatalogEntry, v float64) { e.SodiumMg = &v }},
	"Potassium, K":                   {"mg", func(e *models.FoodCatalogEntry, v float64) { e.PotassiumMg = &v }},
	"Calcium, Ca":                    {"mg", func(e *models.FoodCatalogEntry, v float64) { e.CalciumMg = &v }},
	"Iron, Fe":                       {"mg", func(e *models.FoodCatalogEntry, v float64) { e.IronMg = &v }},
	"Magnesium, Mg":                  {"mg", func(e *models.FoodCatalogEntry, v float64) { e.MagnesiumMg = &v }},
	"Zinc, Zn":                       {"mg", func(e *models.FoodCatalogEntry, v float64) { e.ZincMg = &v }},
	"Phosphorus, P":                  {"mg", func(e *models.FoodCatalogEntry, v float64) { e.PhosphorusMg = &v }},
	"Selenium, Se":                   {"ug", func(e *models.FoodCatalogEntry, v float64) { e.SeleniumUg = &v }},
	"Copper, Cu":                     {"mg", func(e *models.FoodCatalogEntry, v float64) { e.CopperMg = &v }},
	"Vitamin A, RAE":                 {"ug", func(e *models.FoodCatalogEntry, v float64) { e.VitaminAUg = &v }},
	"Vitamin C, total ascorbic acid": {"mg", func(e *models.FoodCatalogEntry, v float64) { e.VitaminCMg = &v }},
	"Vitamin D (D2 + D3)":            {"ug", func(e *models.FoodCatalogEntry, v float64) { e.VitaminDUg = &v }},
	"Vitamin E (alpha-tocopherol)":   {"mg", func(e *models.FoodCatalogEntry, v float64) { e.VitaminEMg = &v }},
	"Vitamin K (phylloquinone)":      {"ug", func(e *models.FoodCatalogEntry, v float64) { e.VitaminKUg = &v }},
	"Thiamin":                        {"mg", func(e *models.FoodCatalogEntry, v float64) { e.ThiaminMg = &v }},
	"Riboflavin":                     {"mg", func(e *models.FoodCatalogEntry, v float64) { e.RiboflavinMg = &v }},
	"Niacin":                         {"mg", func(e *models.FoodCatalogEntry, v float64) { e.NiacinMg = &v }},
	"Vitamin B-6":                    {"mg", func(e *models.FoodCatalogEntry, v float64) { e.VitaminB6Mg = &v }},
	"Folate, total":                  {"ug", func(e *models.FoodCatalogEntry, v float64) { e.FolateUg = &v }},
	"Vitamin B-12":                   {"ug", func(e *models.FoodCatalogEntry, v float64) { e.VitaminB12Ug = &v }},
}

// unitScale 以公克為基準的換算係數
var unitScale = map[string]float64{
	"kcal": 1,
	"g":    1,
	"mg":   1e-3,
	"ug":   1e-6,
}

// canonicalUnit 統一供應商單位寫法
func canonicalUnit(unit string) string {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g":
		return "g"
	case "mg":
		return "mg"
	case "ug", "µg", "μg", "mcg":
		return "ug"
	case "kcal":
		return "kcal"
	default:
		return ""
	}
}

// ConvertUnit 在 g / mg / µg 之間換算，kcal 僅接受 kcal。
// 無法換算時回傳 false，呼叫端應跳過該營養素。
func ConvertUnit(amount float64, from, to string) (float64, bool) {
	f, t := canonicalUnit(from), canonicalUnit(to)
	if f == "" || t == "" {
		return 0, false
	}
	if f == "kcal" || t == "kcal" {
		if f != t {
			return 0, false
		}
		return amount, true
	}
	return amount * unitScale[f] / unitScale[t], true
}

// MergeFoodData 將供應商資料合併進目錄條目。
// 每個欄位採「新值存在才覆寫」語意，已知值不會被清空。
func MergeFoodData(entry *models.FoodCatalogEntry, data *providers.FoodData) {
	for _, n := range data.Nutrients {
		target, ok := nutrientTable[n.Name]
		if !ok {
			continue
		}
		converted, ok := ConvertUnit(n.Amount, n.Unit, target.unit)
		if !ok || converted < 0 {
			continue
		}
		target.set(entry, converted)
	}

	if data.Brand != "" {
		entry.Brand = &data.Brand
	}
	if data.Category != "" {
		entry.Category = data.Category
	}
	if data.ImageURL != "" {
		entry.ImageURL = &data.ImageURL
	}
	if data.Ingredients != "" {
		entry.Ingredients = &data.Ingredients
	}
	if data.DataType != "" {
		entry.DataType = &data.DataType
	}
	if data.PublishedAt != "" {
		entry.PublishedAt = &data.PublishedAt
	}
	if data.Source != "" {
		entry.Source = data.Source
	}
	if data.ExternalID != "" {
		entry.ExternalID = &data.ExternalID
	}
	if len(data.Raw) > 0 {
		entry.RawPayload = datatypes.JSON(data.Raw)
	}
}
