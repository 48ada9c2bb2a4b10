package models

import (
	"time"
)

// RedemptionRecord 兑换登记记录（gift_card_id 唯一，保证同一张卡至多兑换一次）
type RedemptionRecord struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                     // 主键
	GiftCardID       uint      `gorm:"uniqueIndex;not null" json:"gift_card_id"`                 // 礼品卡ID
	RedeemerIdentity string    `gorm:"type:varchar(120);index;not null" json:"redeemer_identity"` // 兑换身份标识
	RedeemerEmail    string    `gorm:"type:varchar(160);index" json:"redeemer_email"`            // 兑换邮箱
	Disposition      string    `gorm:"type:varchar(16);not null" json:"disposition"`             // 到账方式 wallet/direct
	Amount           Money     `gorm:"not null" json:"amount"`                                   // 兑换金额（最小货币单位）
	Currency         string    `gorm:"type:varchar(16);not null" json:"currency"`                // 币种
	WalletTxnID      *uint     `gorm:"index" json:"wallet_txn_id,omitempty"`                     // 入账流水ID（wallet 方式）
	RedeemedAt       time.Time `gorm:"index;not null" json:"redeemed_at"`                        // 兑换时间
	CreatedAt        time.Time `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt        time.Time `json:"updated_at"`                                               // 更新时间
}

// TableName 指定表名
func (RedemptionRecord) TableName() string {
	return "redemption_records"
}
