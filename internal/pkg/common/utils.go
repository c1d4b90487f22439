package common

import (
	"math"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// Round2 四捨五入到小數點後兩位，營養數值統一精度
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TruncateString 截斷字串（錯誤訊息入庫前使用）
func TruncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
