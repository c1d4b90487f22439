package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrisnap-backend/internal/infrastructure/config"
	"nutrisnap-backend/internal/pkg/common"
)

func TestMain(m *testing.M) {
	if err := common.InitLogger("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newOFFClient(baseURL string) *OpenFoodFactsClient {
	return NewOpenFoodFactsClient(&config.OpenFoodFactsConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

func newUSDAClient(baseURL string) *USDAClient {
	return NewUSDAClient(&config.USDAConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

func TestFetchByBarcode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/8901058000290.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": 1,
			"code": "8901058000290",
			"product": {
				"product_name": "Maggi 2-Minute Noodles",
				"brands": "Maggi",
				"categories": "Instant noodles",
				"nutriments": {
					"energy-kcal_100g": 420,
					"proteins_100g": 9.5,
					"carbohydrates_100g": 60,
					"fat_100g": 15,
					"sodium_100g": 0.95
				}
			}
		}`))
	}))
	defer srv.Close()

	data, err := newOFFClient(srv.URL).FetchByBarcode(context.Background(), "8901058000290")
	require.NoError(t, err)
	assert.Equal(t, "openfoodfacts", data.Source)
	assert.Equal(t, "8901058000290", data.ExternalID)
	assert.Equal(t, "Maggi 2-Minute Noodles", data.Name)
	assert.Equal(t, "Maggi", data.Brand)

	byName := make(map[string]Nutrient, len(data.Nutrients))
	for _, n := range data.Nutrients {
		byName[n.Name] = n
	}
	assert.InDelta(t, 420.0, byName["Energy"].Amount, 0.001)
	assert.InDelta(t, 9.5, byName["Protein"].Amount, 0.001)
	// OFF 的鈉以公克回報，轉換交給合併層
	assert.Equal(t, "g", byName["Sodium, Na"].Unit)
	assert.InDelta(t, 0.95, byName["Sodium, Na"].Amount, 0.001)
	assert.NotEmpty(t, data.Raw)
}

func TestFetchByBarcodeEnergyKJFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": 1, "product": {"product_name": "Biscuits", "nutriments": {"energy_100g": 2092}}}`))
	}))
	defer srv.Close()

	data, err := newOFFClient(srv.URL).FetchByBarcode(context.Background(), "123")
	require.NoError(t, err)
	require.Len(t, data.Nutrients, 1)
	assert.InDelta(t, 2092/4.184, data.Nutrients[0].Amount, 0.01)
}

func TestFetchByBarcodeNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": 0, "code": "000"}`))
	}))
	defer srv.Close()

	_, err := newOFFClient(srv.URL).FetchByBarcode(context.Background(), "000")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestUSDAFetchByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/food/172420", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"fdcId": 172420,
			"description": "Chickpeas, cooked",
			"dataType": "SR Legacy",
			"foodCategory": "Legumes",
			"foodNutrients": [
				{"nutrient": {"name": "Energy", "unitName": "kcal"}, "amount": 164},
				{"nutrient": {"name": "Fiber, total dietary", "unitName": "g"}, "amount": 7.6}
			]
		}`))
	}))
	defer srv.Close()

	data, err := newUSDAClient(srv.URL).FetchByID(context.Background(), "172420")
	require.NoError(t, err)
	assert.Equal(t, "usda", data.Source)
	assert.Equal(t, "172420", data.ExternalID)
	assert.Equal(t, "Chickpeas, cooked", data.Name)
	require.Len(t, data.Nutrients, 2)
	assert.Equal(t, "Energy", data.Nutrients[0].Name)
	assert.InDelta(t, 164.0, data.Nutrients[0].Amount, 0.001)
}

func TestUSDASearchSkipsCandidatesWithoutNutrients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/foods/search", r.URL.Path)
		assert.Equal(t, "paneer", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"foods": [
				{"fdcId": 111, "description": "Paneer, empty", "foodNutrients": []},
				{"fdcId": 222, "description": "Paneer", "foodNutrients": [
					{"nutrientName": "Protein", "unitName": "G", "value": 18.3}
				]}
			]
		}`))
	}))
	defer srv.Close()

	data, err := newUSDAClient(srv.URL).SearchByName(context.Background(), "paneer")
	require.NoError(t, err)
	assert.Equal(t, "222", data.ExternalID)
	assert.Equal(t, "Paneer", data.Name)
}

func TestUSDASearchNoUsableCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"foods": []}`))
	}))
	defer srv.Close()

	_, err := newUSDAClient(srv.URL).SearchByName(context.Background(), "nothing")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}
