package health

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nutrisnap-backend/internal/core/ai"
	"nutrisnap-backend/internal/core/catalog"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *QueueStatus           `json:"queue,omitempty"`
}

// QueueStatus 補齊佇列狀態
type QueueStatus struct {
	Depth int64 `json:"depth"`
}

// Handler 健康檢查處理器
type Handler struct {
	db      *gorm.DB
	cache   *ai.Cache
	queue   *catalog.Queue
	version string
}

// NewHandler 創建健康檢查處理器
func NewHandler(db *gorm.DB, cache *ai.Cache, queue *catalog.Queue, version string) *Handler {
	return &Handler{db: db, cache: cache, queue: queue, version: version}
}

// HandleHealth 健康檢查：回傳運行時資訊與佇列深度
func (h *Handler) HandleHealth(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if depth, err := h.queue.Depth(c.Request.Context()); err == nil {
		response.Queue = &QueueStatus{Depth: depth}
	}

	c.JSON(http.StatusOK, response)
}

// HandleReadiness 就緒檢查：資料庫必須可達，快取僅回報狀態不擋就緒
func (h *Handler) HandleReadiness(c *gin.Context) {
	checks := gin.H{}
	ready := true

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		checks["database"] = "unreachable"
		ready = false
	} else {
		checks["database"] = "ok"
	}

	if h.cache != nil && h.cache.Enabled() {
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			checks["cache"] = "unreachable"
		} else {
			checks["cache"] = "ok"
		}
	} else {
		checks["cache"] = "disabled"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}

// HandleLiveness 存活檢查
func (h *Handler) HandleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
