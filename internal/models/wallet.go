package models

import (
	"time"
)

const (
	WalletTxnTypeCredit = "credit"
	WalletTxnTypeDebit  = "debit"
)

// WalletAccount 钱包账户（缓存余额，权威余额由流水链推导）
type WalletAccount struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                    // 主键
	Identity  string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"identity"`  // 持有人身份标识
	Balance   Money     `gorm:"not null;default:0" json:"balance"`                       // 缓存余额（最小货币单位）
	Currency  string    `gorm:"type:varchar(16);not null;default:'USD'" json:"currency"` // 币种
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                              // 更新时间
}

// TableName 指定表名
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// WalletTransaction 钱包流水（只追加，不更新不删除）
type WalletTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                    // 主键
	WalletID      uint      `gorm:"index;not null" json:"wallet_id"`                         // 钱包账户ID
	Type          string    `gorm:"type:varchar(16);index;not null" json:"type"`             // 类型 credit/debit
	Amount        Money     `gorm:"not null" json:"amount"`                                  // 变动金额（最小货币单位，恒为正）
	BalanceBefore Money     `gorm:"not null" json:"balance_before"`                          // 变动前余额
	BalanceAfter  Money     `gorm:"not null" json:"balance_after"`                           // 变动后余额
	Currency      string    `gorm:"type:varchar(16);not null;default:'USD'" json:"currency"` // 币种
	Description   string    `gorm:"type:varchar(255)" json:"description"`                    // 摘要
	Reference     string    `gorm:"type:varchar(120);uniqueIndex" json:"reference"`          // 幂等引用（如 gift_card:<id>:redeem）
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
