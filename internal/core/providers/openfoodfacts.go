package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"nutrisnap-backend/internal/infrastructure/config"
	"nutrisnap-backend/internal/pkg/common"
)

// offProduct Open Food Facts 產品回應
type offProduct struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Product struct {
		ProductName     string `json:"product_name"`
		Brands          string `json:"brands"`
		Categories      string `json:"categories"`
		ImageURL        string `json:"image_url"`
		IngredientsText string `json:"ingredients_text"`
		Nutriments      struct {
			EnergyKcal100g   *float64 `json:"energy-kcal_100g"`
			EnergyKj100g     *float64 `json:"energy_100g"`
			Proteins100g     *float64 `json:"proteins_100g"`
			Carbs100g        *float64 `json:"carbohydrates_100g"`
			Fat100g          *float64 `json:"fat_100g"`
			Fiber100g        *float64 `json:"fiber_100g"`
			Sugars100g       *float64 `json:"sugars_100g"`
			SaturatedFat100g *float64 `json:"saturated-fat_100g"`
			TransFat100g     *float64 `json:"trans-fat_100g"`
			Sodium100g       *float64 `json:"sodium_100g"`
		} `json:"nutriments"`
	} `json:"product"`
}

// OpenFoodFactsClient 條碼查詢客戶端
type OpenFoodFactsClient struct {
	client *resty.Client
}

// NewOpenFoodFactsClient 創建 Open Food Facts 客戶端
func NewOpenFoodFactsClient(cfg *config.OpenFoodFactsConfig) *OpenFoodFactsClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "NutriSnap/1.0 (nutrisnap.app)").
		SetTimeout(cfg.Timeout)
	return &OpenFoodFactsClient{client: client}
}

// FetchByBarcode 依條碼查詢產品
func (c *OpenFoodFactsClient) FetchByBarcode(ctx context.Context, barcode string) (*FoodData, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("barcode", barcode).
		Get("/api/v2/product/{barcode}.json")
	common.LogProviderCall("openfoodfacts", barcode, time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("openfoodfacts request failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, common.ErrRecordNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("openfoodfacts returned status %d", resp.StatusCode())
	}

	var product offProduct
	if err := common.ParseJSONBytes(resp.Body(), &product); err != nil {
		return nil, fmt.Errorf("failed to parse openfoodfacts response: %w", err)
	}
	if product.Status != 1 {
		return nil, common.ErrRecordNotFound
	}

	data := &FoodData{
		Source:      "openfoodfacts",
		ExternalID:  barcode,
		Name:        product.Product.ProductName,
		Brand:       product.Product.Brands,
		Category:    product.Product.Categories,
		ImageURL:    product.Product.ImageURL,
		Ingredients: product.Product.IngredientsText,
		Raw:         append([]byte(nil), resp.Body()...),
	}

	n := product.Product.Nutriments
	// 能量以 kcal 為準，缺少時用 kJ 換算
	if n.EnergyKcal100g != nil {
		data.Nutrients = append(data.Nutrients, Nutrient{Name: "Energy", Unit: "kcal", Amount: *n.EnergyKcal100g})
	} else if n.EnergyKj100g != nil {
		data.Nutrients = append(data.Nutrients, Nutrient{Name: "Energy", Unit: "kcal", Amount: *n.EnergyKj100g / 4.184})
	}
	appendNutrient(&data.Nutrients, "Protein", "g", n.Proteins100g)
	appendNutrient(&data.Nutrients, "Carbohydrate, by difference", "g", n.Carbs100g)
	appendNutrient(&data.Nutrients, "Total lipid (fat)", "g", n.Fat100g)
	appendNutrient(&data.Nutrients, "Fiber, total dietary", "g", n.Fiber100g)
	appendNutrient(&data.Nutrients, "Sugars, total including NLEA", "g", n.Sugars100g)
	appendNutrient(&data.Nutrients, "Fatty acids, total saturated", "g", n.SaturatedFat100g)
	appendNutrient(&data.Nutrients, "Fatty acids, total trans", "g", n.TransFat100g)
	// OFF 的鈉以公克計，交由轉換表統一為毫克
	appendNutrient(&data.Nutrients, "Sodium, Na", "g", n.Sodium100g)

	return data, nil
}

func appendNutrient(list *[]Nutrient, name, unit string, value *float64) {
	if value == nil {
		return
	}
	*list = append(*list, Nutrient{Name: name, Unit: unit, Amount: *value})
}
