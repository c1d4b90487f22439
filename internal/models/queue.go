package models

import "time"

// 佇列狀態
const (
	QueueStatusPending = "pending" // 等待使用者確認
	QueueStatusReady   = "ready"   // 已確認，等待下一輪同步
	QueueStatusError   = "error"   // 同步失敗，等待退避時間過後重試
)

// IngestionQueueItem 待補齊營養資料的工作項
// 每個食物條目至多一筆（food_id 唯一）；成功補齊後即刪除
type IngestionQueueItem struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	FoodID        string     `gorm:"type:uuid;not null;uniqueIndex" json:"food_id"`
	Query         string     `gorm:"not null" json:"query"` // 查詢外部供應商用的字串
	Status        string     `gorm:"not null;index" json:"status"`
	AttemptCount  int        `gorm:"default:0" json:"attempt_count"`
	LastError     string     `json:"last_error,omitempty"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"` // 退避時間閘
	CreatedAt     time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

func (IngestionQueueItem) TableName() string { return "food_sync_queue" }
