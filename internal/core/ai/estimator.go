package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nutrisnap-backend/internal/pkg/common"
)

// ChatCompleter 單輪對話介面，方便測試替換
type ChatCompleter interface {
	Chat(ctx context.Context, prompt string, imageData string) (string, error)
}

const estimatePromptTemplate = `You are a nutrition expert. Determine whether "%s" is an edible food or drink.

Return a JSON response with this format:
{
    "is_food": true/false,
    "reason": "short reason when is_food is false",
    "calories_per_100g": 120,
    "protein_per_100g": 5,
    "carbs_per_100g": 20,
    "fat_per_100g": 3
}

If it is food, estimate typical per-100g values. Focus on Indian cuisine if applicable.`

// Estimator 營養估算器。對 AI 失敗採寬鬆策略：
// 無法取得估算時視為可食用並回傳零值，後續由補齊同步修正。
type Estimator struct {
	chat  ChatCompleter
	cache *Cache
}

// NewEstimator 創建營養估算器
func NewEstimator(chat ChatCompleter, cache *Cache) *Estimator {
	return &Estimator{chat: chat, cache: cache}
}

// Estimate 估算單一名稱的每 100g 營養成分
func (e *Estimator) Estimate(ctx context.Context, name string) (*common.NutritionEstimate, error) {
	if e.cache != nil {
		if cached, err := e.cache.GetEstimate(ctx, name); err == nil {
			common.LogCacheHit("estimate", name)
			return cached, nil
		}
	}

	content, err := e.chat.Chat(ctx, fmt.Sprintf(estimatePromptTemplate, name), "")
	if err != nil {
		common.LogWarn("AI 估算失敗，回退為零值佔位",
			zap.String("name", name),
			zap.Error(err),
		)
		return &common.NutritionEstimate{IsFood: true}, nil
	}

	var estimate common.NutritionEstimate
	if err := common.ParseJSON(common.ExtractJSONObject(content), &estimate); err != nil {
		common.LogWarn("AI 估算回應無法解析，回退為零值佔位",
			zap.String("name", name),
			zap.Error(err),
		)
		return &common.NutritionEstimate{IsFood: true}, nil
	}

	if e.cache != nil {
		_ = e.cache.SetEstimate(ctx, name, &estimate)
	}
	return &estimate, nil
}
