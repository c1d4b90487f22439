package catalog

import (
	"os"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
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

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.FoodCatalogEntry{},
		&models.IngestionQueueItem{},
		&models.MealRecord{},
		&models.MealFoodLine{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func makeEntry(name string, calories float64) *models.FoodCatalogEntry {
	return &models.FoodCatalogEntry{
		ID:              common.GenerateUUID(),
		Name:            name,
		Category:        "test",
		CaloriesPer100g: calories,
		Source:          models.SourceSeed,
		ReviewStatus:    models.ReviewStatusApproved,
		CreatedAt:       time.Now().UTC(),
	}
}
