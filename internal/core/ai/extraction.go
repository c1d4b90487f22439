package ai

import (
	"context"
	"fmt"

	"nutrisnap-backend/internal/pkg/common"
)

const photoPrompt = `You are a nutrition expert analyzing food images.
Identify all food items in the image and estimate their quantities.
Look for a coin in the image for scale reference (Indian coins: ₹1=16mm, ₹2=25mm, ₹5=23mm, ₹10=27mm).

Return a JSON response with this format:
{
    "coin_detected": true/false,
    "coin_type": "₹10" or null,
    "foods": [
        {
            "name": "Food name",
            "estimated_quantity_grams": 150,
            "confidence": "high/medium/low"
        }
    ],
    "notes": "Any additional observations"
}

Focus on Indian cuisine if applicable.`

const voicePromptTemplate = `Parse this meal description into structured data:
"%s"

Return JSON with this format:
{
    "foods": [
        {
            "name": "Food name",
            "estimated_quantity_grams": 150
        }
    ]
}

Estimate quantities based on common serving sizes. Focus on Indian cuisine.`

// Extractor 將照片與語音描述轉為結構化食物清單
type Extractor struct {
	chat ChatCompleter
}

// NewExtractor 創建食物辨識器
func NewExtractor(chat ChatCompleter) *Extractor {
	return &Extractor{chat: chat}
}

// AnalyzePhoto 辨識餐點照片中的食物與份量
func (e *Extractor) AnalyzePhoto(ctx context.Context, imageBase64 string) (*common.PhotoAnalysisResult, error) {
	content, err := e.chat.Chat(ctx, photoPrompt, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("photo analysis failed: %w", err)
	}

	var result common.PhotoAnalysisResult
	if err := common.ParseJSON(common.ExtractJSONObject(content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse photo analysis response: %w", err)
	}
	return &result, nil
}

// ParseVoice 解析語音轉文字的餐點描述
func (e *Extractor) ParseVoice(ctx context.Context, text string) (*common.VoiceParseResult, error) {
	content, err := e.chat.Chat(ctx, fmt.Sprintf(voicePromptTemplate, text), "")
	if err != nil {
		return nil, fmt.Errorf("voice parsing failed: %w", err)
	}

	var result common.VoiceParseResult
	if err := common.ParseJSON(common.ExtractJSONObject(content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse voice response: %w", err)
	}
	return &result, nil
}
