package models

import (
	"time"
)

// GiftCardUsage 门店核销记录（卡面扣减流水，只追加）
type GiftCardUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                     // 主键
	GiftCardID     uint      `gorm:"index;not null" json:"gift_card_id"`       // 礼品卡ID
	Amount         Money     `gorm:"not null" json:"amount"`                   // 扣减金额（最小货币单位）
	RemainingAfter Money     `gorm:"not null" json:"remaining_after"`          // 扣减后剩余
	ServiceName    string    `gorm:"type:varchar(120)" json:"service_name"`    // 消费项目
	Notes          string    `gorm:"type:varchar(500)" json:"notes,omitempty"` // 备注
	RecordedBy     string    `gorm:"type:varchar(120)" json:"recorded_by"`     // 操作员工标识
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                  // 创建时间
}

// TableName 指定表名
func (GiftCardUsage) TableName() string {
	return "gift_card_usages"
}
