package catalog

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

type seedFood struct {
	Name         string
	NameHindi    string
	Category     string
	Calories     float64
	Protein      float64
	Carbs        float64
	Fat          float64
	ServingSize  float64
	IsVegetarian bool
}

// 常見印度食物基礎資料，作為目錄起始內容
var seedFoods = []seedFood{
	{"Dal Makhani", "दाल मखनी", "north_indian", 140, 7, 12, 8, 200, true},
	{"Butter Chicken", "बटर चिकन", "north_indian", 250, 15, 8, 18, 200, false},
	{"Roti", "रोटी", "north_indian", 260, 8, 50, 3, 40, true},
	{"Naan", "नान", "north_indian", 310, 9, 52, 7, 90, true},
	{"Paneer Tikka", "पनीर टिक्का", "north_indian", 220, 14, 6, 16, 150, true},
	{"Dosa", "डोसा", "south_indian", 168, 4, 28, 4, 120, true},
	{"Idli", "इडली", "south_indian", 58, 2, 11, 0.4, 40, true},
	{"Sambar", "सांभर", "south_indian", 72, 3, 12, 1.5, 200, true},
	{"Vada", "वड़ा", "south_indian", 230, 8, 28, 9, 50, true},
	{"Pani Puri", "पानी पूरी", "street_food", 80, 2, 15, 1.5, 10, true},
	{"Vada Pav", "वड़ा पाव", "street_food", 250, 6, 38, 8, 100, true},
	{"Samosa", "समोसा", "street_food", 260, 5, 30, 13, 60, true},
	{"Chaat", "चाट", "street_food", 150, 4, 22, 5, 100, true},
	{"Biryani", "बिरयानी", "north_indian", 200, 8, 28, 6, 300, false},
	{"Chole Bhature", "छोले भटूरे", "north_indian", 180, 6, 26, 6, 250, true},
	{"Palak Paneer", "पालक पनीर", "north_indian", 115, 7, 5, 8, 200, true},
	{"Aloo Gobi", "आलू गोभी", "north_indian", 90, 2, 14, 3, 150, true},
	{"Rajma", "राजमा", "north_indian", 127, 8, 22, 0.5, 200, true},
	{"Paratha", "पराठा", "north_indian", 320, 7, 44, 13, 80, true},
	{"Poha", "पोहा", "street_food", 158, 3, 32, 2, 150, true},
	{"Upma", "उपमा", "south_indian", 112, 3, 20, 2, 150, true},
	{"Masala Dosa", "मसाला डोसा", "south_indian", 180, 4, 30, 5, 150, true},
	{"Uttapam", "उत्तपम", "south_indian", 150, 4, 26, 3, 120, true},
	{"Khichdi", "खिचड़ी", "north_indian", 120, 4, 22, 2, 200, true},
	{"Tandoori Chicken", "तंदूरी चिकन", "north_indian", 150, 22, 2, 6, 150, false},
}

// SeedCatalog 寫入基礎食物資料，僅在空目錄時執行
func SeedCatalog(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.FoodCatalogEntry{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	entries := make([]models.FoodCatalogEntry, 0, len(seedFoods))
	for _, f := range seedFoods {
		hindi := f.NameHindi
		locale := "en-IN"
		entries = append(entries, models.FoodCatalogEntry{
			ID:              common.GenerateUUID(),
			Name:            f.Name,
			NameHindi:       &hindi,
			Category:        f.Category,
			Locale:          &locale,
			CaloriesPer100g: f.Calories,
			ProteinPer100g:  f.Protein,
			CarbsPer100g:    f.Carbs,
			FatPer100g:      f.Fat,
			ServingSize:     f.ServingSize,
			IsVegetarian:    f.IsVegetarian,
			Source:          models.SourceSeed,
			ReviewStatus:    models.ReviewStatusApproved,
			Verified:        true,
		})
	}

	if err := db.WithContext(ctx).Create(&entries).Error; err != nil {
		return err
	}

	common.LogInfo("目錄基礎資料就緒", zap.Int("count", len(entries)))
	return nil
}
