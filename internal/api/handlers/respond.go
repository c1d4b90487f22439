package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutrisnap-backend/internal/pkg/common"
)

// RespondError 將服務層錯誤轉為一致的 JSON 錯誤響應
func RespondError(c *gin.Context, err error) {
	var custom *common.CustomError
	if errors.As(err, &custom) {
		c.JSON(custom.Status, gin.H{
			"error": custom.Message,
			"code":  custom.Code,
		})
		return
	}

	switch {
	case errors.Is(err, common.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Record not found",
			"code":  common.ErrCodeNotFound,
		})
	case errors.Is(err, common.ErrNotFood):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeNotFood,
		})
	case errors.Is(err, common.ErrProviderUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Upstream provider unavailable",
			"code":  common.ErrCodeProviderUnavailable,
		})
	default:
		common.LogError("未分類的處理器錯誤",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  common.ErrCodeInternalError,
		})
	}
}

// RespondInvalid 綁定 / 驗證失敗的統一響應
func RespondInvalid(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "Invalid request format",
		"code":  common.ErrCodeInvalidRequest,
		"details": gin.H{
			"reason": err.Error(),
		},
	})
}
