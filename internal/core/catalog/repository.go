package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"nutrisnap-backend/internal/models"
	"nutrisnap-backend/internal/pkg/common"
)

// Repository 食物目錄資料存取層
type Repository struct {
	db *gorm.DB
}

// NewRepository 建立食物目錄 Repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB 回傳底層連線，供交易組裝使用
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Lookup 依標準化名稱搜尋最佳匹配。
// 先做不分大小寫的精確比對，未命中再做雙向包含比對，
// 以最短名稱優先（視為最精確的猜測），最多回傳一筆。
// 無匹配回傳 (nil, nil)，miss 不是錯誤。
func (r *Repository) Lookup(ctx context.Context, normalized string) (*models.FoodCatalogEntry, error) {
	if normalized == "" {
		return nil, nil
	}
	lower := strings.ToLower(normalized)

	var entry models.FoodCatalogEntry
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", lower).
		First(&entry).Error
	if err == nil {
		return &entry, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR ? LIKE '%' || LOWER(name) || '%'", "%"+lower+"%", lower).
		Order("LENGTH(name) ASC, name ASC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Search 關鍵字搜尋，供搜尋端點使用，可依分類與素食條件過濾
func (r *Repository) Search(ctx context.Context, query, category string, vegetarianOnly bool, limit int) ([]models.FoodCatalogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	var entries []models.FoodCatalogEntry
	q := r.db.WithContext(ctx).Order("name ASC").Limit(limit)
	if query != "" {
		lower := strings.ToLower(query)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(name_hindi) LIKE ?", "%"+lower+"%", "%"+lower+"%")
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if vegetarianOnly {
		q = q.Where("is_vegetarian = ?", true)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Categories 回傳目錄中出現過的分類
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.FoodCatalogEntry{}).
		Distinct("category").
		Where("category <> ''").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// FindByID 依主鍵查詢
func (r *Repository) FindByID(ctx context.Context, id string) (*models.FoodCatalogEntry, error) {
	var entry models.FoodCatalogEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByBarcode 依條碼查詢
func (r *Repository) FindByBarcode(ctx context.Context, barcode string) (*models.FoodCatalogEntry, error) {
	var entry models.FoodCatalogEntry
	err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create 新增目錄項目
func (r *Repository) Create(ctx context.Context, entry *models.FoodCatalogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Save 以完整欄位更新目錄項目
func (r *Repository) Save(ctx context.Context, entry *models.FoodCatalogEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// TouchLastUsed 記錄項目最近被餐點引用的時間，影響同步排程優先序
func (r *Repository) TouchLastUsed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.FoodCatalogEntry{}).
		Where("id IN ?", ids).
		Update("last_used_at", time.Now().UTC()).Error
}

// Approve 將 pending_review 項目升級為 approved
func (r *Repository) Approve(ctx context.Context, tx *gorm.DB, id string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&models.FoodCatalogEntry{}).
		Where("id = ? AND review_status = ?", id, models.ReviewStatusPending).
		Update("review_status", models.ReviewStatusApproved).Error
}
