package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutrisnap-backend/internal/api/handlers"
	"nutrisnap-backend/internal/core/sync"
	"nutrisnap-backend/internal/pkg/common"
)

// Handler 管理端點處理器
type Handler struct {
	engine *sync.Engine
}

// NewHandler 創建管理處理器
func NewHandler(engine *sync.Engine) *Handler {
	return &Handler{engine: engine}
}

// SyncRequest 同步觸發請求
type SyncRequest struct {
	Full bool `json:"full"`
}

// HandleSync 處理 POST /api/admin/foods/sync，同步執行一個批次並回傳統計
func (h *Handler) HandleSync(c *gin.Context) {
	var req SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handlers.RespondInvalid(c, err)
			return
		}
	}

	start := time.Now()
	report, err := h.engine.Run(c.Request.Context(), req.Full)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("管理端觸發同步",
		zap.Bool("full", req.Full),
		zap.Int("processed", report.Processed),
		zap.Int("synced", report.Synced),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	c.JSON(http.StatusOK, report)
}
