package repository

import "time"

// GiftCardListFilter 查询礼品卡列表的过滤条件
type GiftCardListFilter struct {
	Page           int
	PageSize       int
	Code           string
	Status         string
	PurchaserEmail string
	RecipientEmail string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	ExpiresFrom    *time.Time
	ExpiresTo      *time.Time
}

// GiftCardUsageListFilter 查询核销记录列表的过滤条件
type GiftCardUsageListFilter struct {
	Page       int
	PageSize   int
	GiftCardID uint
}

// WalletAccountListFilter 查询钱包账户列表的过滤条件
type WalletAccountListFilter struct {
	Page     int
	PageSize int
	Identity string
}

// WalletTransactionListFilter 查询钱包流水列表的过滤条件
type WalletTransactionListFilter struct {
	Page        int
	PageSize    int
	WalletID    uint
	Type        string
	Reference   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
