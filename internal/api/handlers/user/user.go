package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutrisnap-backend/internal/api/handlers"
	"nutrisnap-backend/internal/api/middleware"
	userService "nutrisnap-backend/internal/core/user"
	"nutrisnap-backend/internal/pkg/common"
)

// Handler 使用者端點處理器
type Handler struct {
	users *userService.Service
}

// NewHandler 創建使用者處理器
func NewHandler(users *userService.Service) *Handler {
	return &Handler{users: users}
}

// HandleOnboard 處理 POST /api/user/onboard
func (h *Handler) HandleOnboard(c *gin.Context) {
	var req userService.OnboardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondInvalid(c, err)
		return
	}

	profile, err := h.users.Onboard(c.Request.Context(), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// HandleGet 處理 GET /api/user/:id，僅允許查詢自己的資料
func (h *Handler) HandleGet(c *gin.Context) {
	id := c.Param("id")
	if id != middleware.AuthUserID(c) {
		handlers.RespondError(c, common.ErrForbidden)
		return
	}

	profile, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// HandleUpdateGoals 處理 PUT /api/user/:id/goals，更新後重算每日目標
func (h *Handler) HandleUpdateGoals(c *gin.Context) {
	id := c.Param("id")
	if id != middleware.AuthUserID(c) {
		handlers.RespondError(c, common.ErrForbidden)
		return
	}

	var req userService.GoalsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondInvalid(c, err)
		return
	}

	profile, err := h.users.UpdateGoals(c.Request.Context(), id, req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("使用者目標已更新",
		zap.String("user_id", id),
		zap.Float64("daily_calorie_target", profile.DailyCalorieTarget),
	)
	c.JSON(http.StatusOK, profile)
}
