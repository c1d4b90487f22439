package meal

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutrisnap-backend/internal/api/handlers"
	"nutrisnap-backend/internal/api/middleware"
	"nutrisnap-backend/internal/core/ai"
	mealService "nutrisnap-backend/internal/core/meal"
	userService "nutrisnap-backend/internal/core/user"
	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

// Handler 餐點端點處理器
type Handler struct {
	extractor    *ai.Extractor
	resolver     *mealService.Resolver
	finalizer    *mealService.Finalizer
	stats        *mealService.StatsService
	users        *userService.Service
	maxImageSize int64
}

// NewHandler 創建餐點處理器
func NewHandler(
	extractor *ai.Extractor,
	resolver *mealService.Resolver,
	finalizer *mealService.Finalizer,
	stats *mealService.StatsService,
	users *userService.Service,
	maxImageSize int64,
) *Handler {
	return &Handler{
		extractor:    extractor,
		resolver:     resolver,
		finalizer:    finalizer,
		stats:        stats,
		users:        users,
		maxImageSize: maxImageSize,
	}
}

// PhotoLogRequest 照片分析請求
type PhotoLogRequest struct {
	Image string `json:"image" binding:"required"` // base64 或 data URI
}

// VoiceLogRequest 語音描述解析請求
type VoiceLogRequest struct {
	Text string `json:"text" binding:"required"`
}

// LogRequest 餐點記錄請求
type LogRequest struct {
	MealType    string                  `json:"meal_type" binding:"required,oneof=breakfast lunch dinner snack"`
	Method      string                  `json:"logging_method,omitempty"`
	Notes       *string                 `json:"notes,omitempty"`
	ImageBase64 *string                 `json:"image,omitempty"`
	Foods       []mealService.FoodInput `json:"foods" binding:"required,min=1,dive"`
}

// ReviewRequest 餐點審核請求
type ReviewRequest struct {
	Edits []mealService.LineEdit `json:"edits" binding:"dive"`
}

// HandlePhotoLog 處理 POST /api/meals/log-photo。
// 僅做 AI 分析與目錄配對的預覽，不落盤任何餐點。
func (h *Handler) HandlePhotoLog(c *gin.Context) {
	var req PhotoLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondInvalid(c, err)
		return
	}

	imageData, err := ai.NormalizeImageData(req.Image, h.maxImageSize)
	if err != nil {
		handlers.RespondInvalid(c, err)
		return
	}

	start := time.Now()
	analysis, err := h.extractor.AnalyzePhoto(c.Request.Context(), imageData)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	lines, err := h.resolver.MatchFoods(c.Request.Context(), detectedToInputs(analysis.Foods))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("照片分析完成",
		zap.Int("foods", len(lines)),
		zap.Bool("coin_detected", analysis.CoinDetected),
		zap.Duration("duration", time.Since(start)),
	)
	c.JSON(http.StatusOK, gin.H{
		"coin_detected": analysis.CoinDetected,
		"coin_type":     analysis.CoinType,
		"notes":         analysis.Notes,
		"foods":         lines,
	})
}

// HandleVoiceLog 處理 POST /api/meals/log-voice，同樣僅回傳配對預覽
func (h *Handler) HandleVoiceLog(c *gin.Context) {
	var req VoiceLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondInvalid(c, err)
		return
	}

	parsed, err := h.extractor.ParseVoice(c.Request.Context(), req.Text)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	lines, err := h.resolver.MatchFoods(c.Request.Context(), detectedToInputs(parsed.Foods))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"foods": lines})
}

// HandleLog 處理 POST /api/meals/log，配對並保存餐點
func (h *Handler) HandleLog(c *gin.Context) {
	var req LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondInvalid(c, err)
		return
	}

	method := req.Method
	if method == "" {
		method = models.LoggingMethodManual
	}

	record, err := h.resolver.LogMeal(c.Request.Context(), mealService.MealInput{
		UserID:        middleware.AuthUserID(c),
		MealType:      req.MealType,
		LoggingMethod: method,
		Notes:         req.Notes,
		ImageBase64:   req.ImageBase64,
		Foods:         req.Foods,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// HandleReview 處理 POST /api/meals/:id/review，審核並定稿餐點
func (h *Handler) HandleReview(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondInvalid(c, err)
		return
	}

	record, err := h.finalizer.Finalize(c.Request.Context(), c.Param("id"), middleware.AuthUserID(c), req.Edits)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// HandleHistory 處理 GET /api/meals/history/:user_id
func (h *Handler) HandleHistory(c *gin.Context) {
	userID := c.Param("user_id")
	if userID != middleware.AuthUserID(c) {
		handlers.RespondError(c, common.ErrForbidden)
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	history, err := h.stats.History(c.Request.Context(), userID, days, limit)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meals": history,
		"count": len(history),
	})
}

// HandleStats 處理 GET /api/meals/stats/:user_id，回傳當日攝取與目標差距
func (h *Handler) HandleStats(c *gin.Context) {
	userID := c.Param("user_id")
	if userID != middleware.AuthUserID(c) {
		handlers.RespondError(c, common.ErrForbidden)
		return
	}

	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			handlers.RespondInvalid(c, err)
			return
		}
		date = parsed
	}

	var targets *common.MacroTargets
	if profile, err := h.users.Get(c.Request.Context(), userID); err == nil {
		targets = userService.Targets(profile)
	}

	stats, err := h.stats.DailyForDate(c.Request.Context(), userID, date, targets)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func detectedToInputs(foods []common.DetectedFood) []mealService.FoodInput {
	inputs := make([]mealService.FoodInput, 0, len(foods))
	for _, f := range foods {
		qty := f.EstimatedQuantityGrams
		if qty <= 0 {
			qty = 100 // AI 未給份量時以 100g 計
		}
		inputs = append(inputs, mealService.FoodInput{
			Name:          f.Name,
			QuantityGrams: qty,
			Confidence:    f.Confidence,
		})
	}
	return inputs
}
