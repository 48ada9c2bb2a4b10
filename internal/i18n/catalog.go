package i18n

// 文案目录，按语言环境分组
var catalogs = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":                 "请求参数错误",
		"error.unauthorized":                "未登录或登录已过期",
		"error.forbidden":                   "没有权限执行该操作",
		"error.not_found":                   "资源不存在",
		"error.internal":                    "服务器内部错误",
		"error.auth_header_missing":         "缺少认证信息",
		"error.auth_header_invalid":         "认证信息格式错误",
		"error.token_invalid":               "凭证无效",
		"error.jwt_secret_missing":          "服务端会话密钥未配置",
		"error.rate_limited":                "操作过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable":      "限流服务暂不可用，请稍后再试",
		"error.redeem_token_invalid":        "兑换码无效或不存在",
		"error.redeem_token_expired":        "兑换链接已过期",
		"error.gift_card_expired":           "礼品卡已过期",
		"error.gift_card_redeemed":          "该礼品卡已被兑换",
		"error.gift_card_not_active":        "礼品卡当前状态不可用",
		"error.gift_card_cancelled":         "礼品卡已作废",
		"error.gift_card_not_found":         "礼品卡不存在",
		"error.email_mismatch":              "邮箱与受赠人不匹配",
		"error.identity_mismatch":           "当前登录身份与核验身份不一致",
		"error.identity_required":           "请先完成身份核验",
		"error.disposition_invalid":         "不支持的到账方式",
		"error.amount_invalid":              "金额必须为正整数（最小货币单位）",
		"error.use_exceeds_remaining":       "扣减金额超过剩余面额",
		"error.wallet_insufficient_balance": "钱包余额不足",
		"error.wallet_not_found":            "钱包账户不存在",
		"error.redemption_partial_failure":  "兑换已登记但入账未完成，请联系客服处理",
		"error.cancel_terminal_state":       "当前状态下礼品卡不可作废",
	},
	LocaleEnUS: {
		"error.bad_request":                 "Invalid request parameters",
		"error.unauthorized":                "Not signed in or session expired",
		"error.forbidden":                   "You are not allowed to perform this operation",
		"error.not_found":                   "Resource not found",
		"error.internal":                    "Internal server error",
		"error.auth_header_missing":         "Missing authorization header",
		"error.auth_header_invalid":         "Malformed authorization header",
		"error.token_invalid":               "Invalid credentials",
		"error.jwt_secret_missing":          "Server session secret is not configured",
		"error.rate_limited":                "Too many attempts, please retry in %d seconds",
		"error.rate_limit_unavailable":      "Rate limiter unavailable, please try again later",
		"error.redeem_token_invalid":        "Redemption code is invalid or does not exist",
		"error.redeem_token_expired":        "This redemption link has expired",
		"error.gift_card_expired":           "This gift card has expired",
		"error.gift_card_redeemed":          "This gift card has already been redeemed",
		"error.gift_card_not_active":        "This gift card is not currently usable",
		"error.gift_card_cancelled":         "This gift card has been cancelled",
		"error.gift_card_not_found":         "Gift card not found",
		"error.email_mismatch":              "Email does not match the recipient",
		"error.identity_mismatch":           "Signed-in identity does not match the verified identity",
		"error.identity_required":           "Identity verification required",
		"error.disposition_invalid":         "Unsupported disposition",
		"error.amount_invalid":              "Amount must be a positive integer in minor currency units",
		"error.use_exceeds_remaining":       "Amount exceeds the remaining balance of the card",
		"error.wallet_insufficient_balance": "Insufficient wallet balance",
		"error.wallet_not_found":            "Wallet account not found",
		"error.redemption_partial_failure":  "Redemption was recorded but the credit did not complete, please contact support",
		"error.cancel_terminal_state":       "Gift card cannot be cancelled in its current state",
	},
}
