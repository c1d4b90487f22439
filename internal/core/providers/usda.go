package providers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"nutrisnap-backend/internal/infrastructure/config"
	"nutrisnap-backend/internal/pkg/common"
)

// usdaSearchResponse /foods/search 回應
type usdaSearchResponse struct {
	Foods []usdaSearchFood `json:"foods"`
}

type usdaSearchFood struct {
	FdcID         int64  `json:"fdcId"`
	Description   string `json:"description"`
	DataType      string `json:"dataType"`
	BrandOwner    string `json:"brandOwner"`
	FoodCategory  string `json:"foodCategory"`
	PublishedDate string `json:"publishedDate"`
	FoodNutrients []struct {
		NutrientName string  `json:"nutrientName"`
		UnitName     string  `json:"unitName"`
		Value        float64 `json:"value"`
	} `json:"foodNutrients"`
}

// usdaFoodDetail /food/{fdcId} 回應
type usdaFoodDetail struct {
	FdcID         int64  `json:"fdcId"`
	Description   string `json:"description"`
	DataType      string `json:"dataType"`
	BrandOwner    string `json:"brandOwner"`
	FoodCategory  string `json:"foodCategory"`
	PublishedDate string `json:"publicationDate"`
	FoodNutrients []struct {
		Nutrient struct {
			Name     string `json:"name"`
			UnitName string `json:"unitName"`
		} `json:"nutrient"`
		Amount float64 `json:"amount"`
	} `json:"foodNutrients"`
}

// USDAClient FoodData Central 客戶端
type USDAClient struct {
	client *resty.Client
	apiKey string
}

// NewUSDAClient 創建 USDA 客戶端
func NewUSDAClient(cfg *config.USDAConfig) *USDAClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	return &USDAClient{client: client, apiKey: cfg.APIKey}
}

// FetchByID 依 FDC ID 直接取回完整紀錄
func (c *USDAClient) FetchByID(ctx context.Context, fdcID string) (*FoodData, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("api_key", c.apiKey).
		SetPathParam("fdcId", fdcID).
		Get("/food/{fdcId}")
	common.LogProviderCall("usda", fdcID, time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("usda request failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, common.ErrRecordNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("usda returned status %d", resp.StatusCode())
	}

	var detail usdaFoodDetail
	if err := common.ParseJSONBytes(resp.Body(), &detail); err != nil {
		return nil, fmt.Errorf("failed to parse usda response: %w", err)
	}

	data := &FoodData{
		Source:      "usda",
		ExternalID:  strconv.FormatInt(detail.FdcID, 10),
		Name:        detail.Description,
		Brand:       detail.BrandOwner,
		Category:    detail.FoodCategory,
		DataType:    detail.DataType,
		PublishedAt: detail.PublishedDate,
		Raw:         append([]byte(nil), resp.Body()...),
	}
	for _, fn := range detail.FoodNutrients {
		data.Nutrients = append(data.Nutrients, Nutrient{
			Name:   fn.Nutrient.Name,
			Unit:   fn.Nutrient.UnitName,
			Amount: fn.Amount,
		})
	}
	return data, nil
}

// SearchByName 關鍵字搜尋，取第一個同時具備 ID 與營養資料的候選
func (c *USDAClient) SearchByName(ctx context.Context, name string) (*FoodData, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":  c.apiKey,
			"query":    name,
			"pageSize": "5",
		}).
		Get("/foods/search")
	common.LogProviderCall("usda", name, time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("usda search failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("usda returned status %d", resp.StatusCode())
	}

	var result usdaSearchResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse usda search response: %w", err)
	}

	for _, food := range result.Foods {
		// 沒有營養資料的候選直接跳過
		if food.FdcID == 0 || len(food.FoodNutrients) == 0 {
			continue
		}
		data := &FoodData{
			Source:      "usda",
			ExternalID:  strconv.FormatInt(food.FdcID, 10),
			Name:        food.Description,
			Brand:       food.BrandOwner,
			Category:    food.FoodCategory,
			DataType:    food.DataType,
			PublishedAt: food.PublishedDate,
			Raw:         append([]byte(nil), resp.Body()...),
		}
		for _, fn := range food.FoodNutrients {
			data.Nutrients = append(data.Nutrients, Nutrient{
				Name:   fn.NutrientName,
				Unit:   fn.UnitName,
				Amount: fn.Value,
			})
		}
		return data, nil
	}
	return nil, common.ErrRecordNotFound
}
