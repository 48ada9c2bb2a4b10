package constants

// 兑换到账方式常量
const (
	DispositionWallet = "wallet"
	DispositionDirect = "direct"
)

// 身份核验流程分支常量
const (
	RedeemFlowDirect        = "direct"
	RedeemFlowRequireLogin  = "require_login"
	RedeemFlowRequireSignup = "require_signup"
)

// 异步任务名称常量
const (
	TaskGiftCardIssued      = "gift_card:issued"
	TaskRedemptionSucceeded = "redemption:succeeded"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 站点默认币种
const SiteCurrencyDefault = "USD"

// 礼品卡默认有效期与兑换令牌默认有效期
const (
	GiftCardDefaultValidityMonths = 24
	RedeemTokenDefaultTTLHours    = 48
)
