package food

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nutrisnap-backend/internal/core/catalog"
	"nutrisnap-backend/internal/core/providers"
	"nutrisnap-backend/internal/infrastructure/config"
	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := common.InitLogger("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func setupHandler(t *testing.T, offBaseURL string) (*Handler, *catalog.Repository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.FoodCatalogEntry{}))

	repo := catalog.NewRepository(db)
	off := providers.NewOpenFoodFactsClient(&config.OpenFoodFactsConfig{
		BaseURL: offBaseURL,
		Timeout: 5 * time.Second,
	})
	return NewHandler(repo, off), repo
}

func TestHandleBarcodeCreatesVerifiedEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": 1,
			"code": "8901058000290",
			"product": {
				"product_name": "Maggi 2-Minute Noodles",
				"brands": "Maggi",
				"categories": "Instant noodles",
				"nutriments": {
					"energy-kcal_100g": 420,
					"proteins_100g": 9.5,
					"carbohydrates_100g": 60,
					"fat_100g": 15,
					"sodium_100g": 0.95
				}
			}
		}`))
	}))
	defer srv.Close()

	handler, repo := setupHandler(t, srv.URL)
	router := gin.New()
	router.GET("/api/foods/barcode/:code", handler.HandleBarcode)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/foods/barcode/8901058000290", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// 建檔後的條目視為已驗證且同步完成
	entry, err := repo.FindByBarcode(context.Background(), "8901058000290")
	require.NoError(t, err)
	assert.Equal(t, "Maggi 2-Minute Noodles", entry.Name)
	assert.True(t, entry.Verified)
	require.NotNil(t, entry.SyncStatus)
	assert.Equal(t, models.SyncStatusOK, *entry.SyncStatus)
	require.NotNil(t, entry.LastSyncedAt)
	assert.InDelta(t, 420.0, entry.CaloriesPer100g, 0.001)
	require.NotNil(t, entry.SodiumMg)
	assert.InDelta(t, 950.0, *entry.SodiumMg, 0.001)
}

func TestHandleBarcodeServesCachedEntryWithoutProviderCall(t *testing.T) {
	providerCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		providerCalls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": 0, "code": "0000000000000"}`))
	}))
	defer srv.Close()

	handler, repo := setupHandler(t, srv.URL)
	code := "7300400481588"
	existing := &models.FoodCatalogEntry{
		ID:              common.GenerateUUID(),
		Name:            "Wasa Crispbread",
		Barcode:         &code,
		Category:        "packaged",
		CaloriesPer100g: 340,
		Source:          models.SourceOpenFoodFacts,
		ReviewStatus:    models.ReviewStatusApproved,
	}
	require.NoError(t, repo.Create(context.Background(), existing))

	router := gin.New()
	router.GET("/api/foods/barcode/:code", handler.HandleBarcode)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/foods/barcode/"+code, nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, providerCalls)
	assert.Contains(t, rec.Body.String(), "Wasa Crispbread")
}
