package catalog

import (
	"regexp"
	"strings"
)

// containerPattern 份量容器片語，例如 "a bowl of"、"two small plates of"
var containerPattern = regexp.MustCompile(
	`^(?:(?:a|an|the|one|two|three|half|small|medium|large|big)\s+)*` +
		`(?:bowl|plate|cup|glass|piece|slice|serving|portion|helping)s?\s+of\s+`)

// articlePattern 開頭冠詞
var articlePattern = regexp.MustCompile(`^(?:a|an|the)\s+`)

// NormalizeName 將原始食物名稱轉為標準查詢 key。
// 去除份量容器片語與冠詞並統一大小寫，為純函數且冪等。
func NormalizeName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return ""
	}

	// 反覆剝離，處理 "a bowl of a cup of tea" 這類疊加寫法
	for {
		stripped := containerPattern.ReplaceAllString(name, "")
		stripped = articlePattern.ReplaceAllString(stripped, "")
		if stripped == name {
			break
		}
		name = stripped
	}

	// 壓縮連續空白並逐字首字母大寫
	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
