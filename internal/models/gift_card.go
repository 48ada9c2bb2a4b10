package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	GiftCardStatusPending       = "pending"
	GiftCardStatusActive        = "active"
	GiftCardStatusPartiallyUsed = "partially_used"
	GiftCardStatusUsed          = "used"
	GiftCardStatusRedeemed      = "redeemed"
	GiftCardStatusExpired       = "expired"
	GiftCardStatusCancelled     = "cancelled"
)

// GiftCard 礼品卡
type GiftCard struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                            // 主键
	Code             string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`               // 可读卡号
	TokenHash        string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`                  // 兑换令牌摘要（明文不落库）
	TokenExpiresAt   *time.Time     `gorm:"index" json:"token_expires_at"`                                   // 兑换令牌过期时间
	FaceAmount       Money          `gorm:"not null" json:"face_amount"`                                     // 面额（最小货币单位）
	RemainingAmount  Money          `gorm:"not null" json:"remaining_amount"`                                // 剩余金额（最小货币单位）
	Currency         string         `gorm:"type:varchar(16);not null;default:'USD'" json:"currency"`         // 币种
	Status           string         `gorm:"type:varchar(24);index;not null;default:'pending'" json:"status"` // 状态
	PurchaserName    string         `gorm:"type:varchar(120)" json:"purchaser_name"`                         // 购买人姓名
	PurchaserEmail   string         `gorm:"type:varchar(160);index" json:"purchaser_email"`                  // 购买人邮箱
	RecipientName    string         `gorm:"type:varchar(120)" json:"recipient_name"`                         // 受赠人姓名
	RecipientEmail   string         `gorm:"type:varchar(160);index" json:"recipient_email"`                  // 受赠人邮箱
	IsGift           bool           `gorm:"not null;default:false" json:"is_gift"`                           // 是否赠送他人
	Message          string         `gorm:"type:varchar(500)" json:"message"`                                // 赠言
	PurchasedAt      *time.Time     `gorm:"index" json:"purchased_at"`                                       // 购买完成时间
	ExpiresAt        *time.Time     `gorm:"index" json:"expires_at"`                                         // 卡过期时间
	RedeemedAt       *time.Time     `gorm:"index" json:"redeemed_at"`                                        // 兑换时间
	RedeemedIdentity string         `gorm:"type:varchar(120);index" json:"redeemed_identity,omitempty"`      // 兑换身份标识
	WalletTxnID      *uint          `gorm:"index" json:"wallet_txn_id,omitempty"`                            // 入账流水ID
	CancelReason     string         `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`                // 作废原因
	CancelledAt      *time.Time     `json:"cancelled_at,omitempty"`                                          // 作废时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间
}

// TableName 指定表名
func (GiftCard) TableName() string {
	return "gift_cards"
}

// IsTerminal 是否处于终态（不可再发生状态迁移）
func (g *GiftCard) IsTerminal() bool {
	switch g.Status {
	case GiftCardStatusUsed, GiftCardStatusRedeemed, GiftCardStatusExpired, GiftCardStatusCancelled:
		return true
	}
	return false
}

// IsCardExpired 卡面是否已过有效期
func (g *GiftCard) IsCardExpired(now time.Time) bool {
	return g.ExpiresAt != nil && now.After(*g.ExpiresAt)
}

// IsTokenExpired 兑换令牌是否已过期
func (g *GiftCard) IsTokenExpired(now time.Time) bool {
	return g.TokenExpiresAt != nil && now.After(*g.TokenExpiresAt)
}
