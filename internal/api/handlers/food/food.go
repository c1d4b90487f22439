package food

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutrisnap-backend/internal/api/handlers"
	"nutrisnap-backend/internal/core/catalog"
	"nutrisnap-backend/internal/core/providers"
	"nutrisnap-backend/internal/core/sync"
	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

// Handler 食物目錄端點處理器
type Handler struct {
	repo    *catalog.Repository
	barcode *providers.OpenFoodFactsClient
}

// NewHandler 創建食物目錄處理器
func NewHandler(repo *catalog.Repository, barcode *providers.OpenFoodFactsClient) *Handler {
	return &Handler{repo: repo, barcode: barcode}
}

// HandleSearch 處理 GET /api/foods/search
func (h *Handler) HandleSearch(c *gin.Context) {
	query := c.Query("q")
	category := c.Query("category")
	vegetarianOnly, _ := strconv.ParseBool(c.DefaultQuery("vegetarian_only", "false"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	entries, err := h.repo.Search(c.Request.Context(), query, category, vegetarianOnly, limit)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"foods": entries,
		"count": len(entries),
	})
}

// HandleCategories 處理 GET /api/foods/categories
func (h *Handler) HandleCategories(c *gin.Context) {
	categories, err := h.repo.Categories(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// HandleBarcode 處理 GET /api/foods/barcode/:code。
// 目錄命中直接回傳；未命中時即時查詢 Open Food Facts，
// 成功則以 source=openfoodfacts 建立已驗證的目錄項目。
func (h *Handler) HandleBarcode(c *gin.Context) {
	code := c.Param("code")
	ctx := c.Request.Context()

	entry, err := h.repo.FindByBarcode(ctx, code)
	if err == nil {
		common.LogCacheHit("barcode", code)
		c.JSON(http.StatusOK, entry)
		return
	}
	if !errors.Is(err, common.ErrRecordNotFound) {
		handlers.RespondError(c, err)
		return
	}
	common.LogCacheMiss("barcode", code)

	data, err := h.barcode.FetchByBarcode(ctx, code)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	now := time.Now().UTC()
	okStatus := models.SyncStatusOK
	entry = &models.FoodCatalogEntry{
		ID:           common.GenerateUUID(),
		Name:         data.Name,
		Barcode:      &code,
		Category:     "packaged",
		Source:       models.SourceOpenFoodFacts,
		ReviewStatus: models.ReviewStatusApproved,
		Verified:     true,
		SyncStatus:   &okStatus,
		LastSyncedAt: &now,
	}
	if entry.Name == "" {
		entry.Name = "Unknown Product " + code
	}
	sync.MergeFoodData(entry, data)

	if err := h.repo.Create(ctx, entry); err != nil {
		// 併發建立同一條碼時回頭讀既有紀錄
		if existing, lookupErr := h.repo.FindByBarcode(ctx, code); lookupErr == nil {
			c.JSON(http.StatusOK, existing)
			return
		}
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("條碼即時建檔",
		zap.String("barcode", code),
		zap.String("food_id", entry.ID),
		zap.String("name", entry.Name),
	)
	c.JSON(http.StatusOK, entry)
}
