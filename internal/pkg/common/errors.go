package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"      // 401
	ErrCodeForbidden       = "FORBIDDEN"         // 403
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeConflict        = "CONFLICT"          // 409
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504

	// 業務錯誤代碼（配對 / 同步管線）
	ErrCodeNotFood             = "NOT_FOOD"             // AI 判定非食物
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE" // 外部營養供應商失敗
	ErrCodeConflictingIdentity = "CONFLICTING_IDENTITY" // (source, external_id) 唯一性衝突
	ErrCodeMealFinalized       = "MEAL_FINALIZED"       // 餐點已定稿，不可再審核
)

// 管線錯誤哨兵值，呼叫端以 errors.Is 分流（見 Meal Resolver / Sync Engine）
var (
	// ErrNotFood AI 判定名稱非可食用項目；唯一會同步讓記錄失敗的配對錯誤
	ErrNotFood = errors.New("not a food item")
	// ErrProviderUnavailable 供應商逾時 / 非 2xx / 配額用盡；記錄退避後重試，不回傳給記錄端
	ErrProviderUnavailable = errors.New("nutrition provider unavailable")
	// ErrConflictingIdentity 寫入供應商識別碼時違反唯一性；當場以不寫識別碼重試一次
	ErrConflictingIdentity = errors.New("conflicting external identity")
	// ErrRecordNotFound 引用的餐點 / 食物 / 使用者不存在
	ErrRecordNotFound = errors.New("record not found")
	// ErrCacheDisabled 快取未啟用或未命中
	ErrCacheDisabled = errors.New("cache disabled")
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "未授權的訪問", http.StatusUnauthorized, nil)
	ErrForbidden       = NewError(ErrCodeForbidden, "禁止訪問", http.StatusForbidden, nil)
	ErrNotFoundError   = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrConflict        = NewError(ErrCodeConflict, "資源衝突", http.StatusConflict, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrAIServiceError       = NewError("AI_SERVICE_ERROR", "AI 服務錯誤", http.StatusServiceUnavailable, nil)
	ErrMealAlreadyFinalized = NewError(ErrCodeMealFinalized, "餐點已定稿，不可再審核", http.StatusConflict, nil)
)

// NewNotFoodError 建立 NotFood 錯誤，帶上 AI 給的理由供呼叫端顯示
func NewNotFoodError(name, reason string) *CustomError {
	return &CustomError{
		Code:    ErrCodeNotFood,
		Message: "'" + name + "' 不是可食用的項目：" + reason,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrNotFood,
	}
}
