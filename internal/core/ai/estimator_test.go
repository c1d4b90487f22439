package ai

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrisnap-backend/internal/pkg/common"
)

func TestMain(m *testing.M) {
	if err := common.InitLogger("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubChat struct {
	content string
	err     error
	prompts []string
}

func (s *stubChat) Chat(ctx context.Context, prompt string, imageData string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.content, s.err
}

func TestEstimateParsesResponse(t *testing.T) {
	chat := &stubChat{content: `Here you go:
` + "```json" + `
{"is_food": true, "calories_per_100g": 130, "protein_per_100g": 2.7, "carbs_per_100g": 28, "fat_per_100g": 0.3}
` + "```"}
	estimator := NewEstimator(chat, nil)

	est, err := estimator.Estimate(context.Background(), "Rice")
	require.NoError(t, err)
	assert.True(t, est.IsFood)
	assert.Equal(t, 130.0, est.CaloriesPer100g)
	assert.Equal(t, 2.7, est.ProteinPer100g)
}

func TestEstimateNotFood(t *testing.T) {
	chat := &stubChat{content: `{"is_food": false, "reason": "household object"}`}
	estimator := NewEstimator(chat, nil)

	est, err := estimator.Estimate(context.Background(), "Wooden Chair")
	require.NoError(t, err)
	assert.False(t, est.IsFood)
	assert.Equal(t, "household object", est.Reason)
}

func TestEstimateDegradesOnChatFailure(t *testing.T) {
	chat := &stubChat{err: errors.New("upstream 503")}
	estimator := NewEstimator(chat, nil)

	est, err := estimator.Estimate(context.Background(), "Rice")
	require.NoError(t, err)
	assert.True(t, est.IsFood)
	assert.Zero(t, est.CaloriesPer100g)
}

func TestEstimateDegradesOnGarbageResponse(t *testing.T) {
	chat := &stubChat{content: "sorry, I cannot help with that"}
	estimator := NewEstimator(chat, nil)

	est, err := estimator.Estimate(context.Background(), "Rice")
	require.NoError(t, err)
	assert.True(t, est.IsFood)
	assert.Zero(t, est.CaloriesPer100g)
}

func TestExtractorParsesPhotoAnalysis(t *testing.T) {
	chat := &stubChat{content: `{"coin_detected": true, "coin_type": "₹10", "foods": [{"name": "Roti", "estimated_quantity_grams": 80, "confidence": "high"}], "notes": "two rotis on a steel plate"}`}
	extractor := NewExtractor(chat)

	result, err := extractor.AnalyzePhoto(context.Background(), "aGVsbG8=")
	require.NoError(t, err)
	assert.True(t, result.CoinDetected)
	require.Len(t, result.Foods, 1)
	assert.Equal(t, "Roti", result.Foods[0].Name)
	assert.Equal(t, 80.0, result.Foods[0].EstimatedQuantityGrams)
}

func TestExtractorParsesVoice(t *testing.T) {
	chat := &stubChat{content: `{"foods": [{"name": "Idli", "estimated_quantity_grams": 120}, {"name": "Sambar", "estimated_quantity_grams": 150}]}`}
	extractor := NewExtractor(chat)

	result, err := extractor.ParseVoice(context.Background(), "I had three idlis with sambar")
	require.NoError(t, err)
	require.Len(t, result.Foods, 2)
	assert.Equal(t, "Idli", result.Foods[0].Name)
}

func TestNormalizeImageData(t *testing.T) {
	raw, err := NormalizeImageData("aGVsbG8=", 0)
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", raw)

	raw, err = NormalizeImageData("data:image/jpeg;base64,aGVsbG8=", 0)
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", raw)

	_, err = NormalizeImageData("data:text/plain;base64,aGVsbG8=", 0)
	assert.Error(t, err)

	_, err = NormalizeImageData("aGVsbG8=", 2)
	assert.Error(t, err)

	_, err = NormalizeImageData("not!!base64", 0)
	assert.Error(t, err)
}
