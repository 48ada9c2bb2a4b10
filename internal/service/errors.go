package service

import "errors"

// 礼品卡与兑换相关错误
var (
	ErrGiftCardInvalid          = errors.New("gift card input invalid")
	ErrGiftCardNotFound         = errors.New("gift card not found")
	ErrGiftCardFetchFailed      = errors.New("gift card fetch failed")
	ErrGiftCardNotActive        = errors.New("gift card not active")
	ErrGiftCardExpired          = errors.New("gift card expired")
	ErrGiftCardRedeemed         = errors.New("gift card already redeemed")
	ErrGiftCardCancelled        = errors.New("gift card cancelled")
	ErrGiftCardCreateFailed     = errors.New("gift card create failed")
	ErrGiftCardUpdateFailed     = errors.New("gift card update failed")
	ErrGiftCardInvalidAmount    = errors.New("gift card amount invalid")
	ErrGiftCardUseExceedsRemain = errors.New("use amount exceeds remaining balance")
	ErrGiftCardNotCancellable   = errors.New("gift card not cancellable in current state")
)

// 兑换令牌与兑换协议相关错误
var (
	ErrRedeemTokenInvalid       = errors.New("redeem token invalid")
	ErrRedeemTokenExpired       = errors.New("redeem token expired")
	ErrRedeemEmailMismatch      = errors.New("email does not match recipient")
	ErrRedeemIdentityMismatch   = errors.New("identity does not match verified identity")
	ErrRedeemInvalidDisposition = errors.New("invalid redemption disposition")
	ErrRedemptionPartialFailure = errors.New("redemption recorded but wallet credit failed")
	ErrRedemptionRecordFailed   = errors.New("redemption record create failed")
)

// 钱包相关错误
var (
	ErrWalletAccountNotFound         = errors.New("wallet account not found")
	ErrWalletAccountCreateFailed     = errors.New("wallet account create failed")
	ErrWalletAccountUpdateFailed     = errors.New("wallet account update failed")
	ErrWalletTransactionCreateFailed = errors.New("wallet transaction create failed")
	ErrWalletInvalidAmount           = errors.New("wallet amount invalid")
	ErrWalletInsufficientBalance     = errors.New("wallet insufficient balance")
)
