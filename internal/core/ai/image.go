package ai

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// NormalizeImageData 驗證 base64 圖片並去除 data URI 前綴。
// 回傳純 base64 內容，超過上限或格式不符時回傳錯誤。
func NormalizeImageData(data string, maxSizeBytes int64) (string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return "", fmt.Errorf("image data is empty")
	}

	if strings.HasPrefix(data, "data:") {
		idx := strings.Index(data, ";base64,")
		if idx < 0 || !strings.HasPrefix(data, "data:image/") {
			return "", fmt.Errorf("unsupported image data URI")
		}
		data = data[idx+len(";base64,"):]
	}

	// base64 長度換算原始大小，避免整段解碼
	estimated := int64(len(data)) * 3 / 4
	if maxSizeBytes > 0 && estimated > maxSizeBytes {
		return "", fmt.Errorf("image too large: %d bytes exceeds limit %d", estimated, maxSizeBytes)
	}

	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return "", fmt.Errorf("invalid base64 image data: %w", err)
	}
	return data, nil
}
