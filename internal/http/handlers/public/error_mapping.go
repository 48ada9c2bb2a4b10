package public

import (
	"errors"

	handlershared "github.com/giftvault/internal/http/handlers/shared"
	"github.com/giftvault/internal/http/response"
	"github.com/giftvault/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var redeemTokenErrorRules = []mappedHandlerError{
	{target: service.ErrRedeemTokenInvalid, code: response.CodeNotFound, key: "error.redeem_token_invalid"},
	{target: service.ErrRedeemTokenExpired, code: response.CodeBadRequest, key: "error.redeem_token_expired"},
	{target: service.ErrGiftCardExpired, code: response.CodeBadRequest, key: "error.gift_card_expired"},
	{target: service.ErrGiftCardRedeemed, code: response.CodeConflict, key: "error.gift_card_redeemed"},
	{target: service.ErrGiftCardCancelled, code: response.CodeBadRequest, key: "error.gift_card_cancelled"},
	{target: service.ErrGiftCardNotActive, code: response.CodeBadRequest, key: "error.gift_card_not_active"},
}

var verifyIdentityExtraErrorRules = []mappedHandlerError{
	{target: service.ErrRedeemEmailMismatch, code: response.CodeForbidden, key: "error.email_mismatch"},
}

var executeRedemptionExtraErrorRules = []mappedHandlerError{
	{target: service.ErrRedeemEmailMismatch, code: response.CodeForbidden, key: "error.email_mismatch"},
	{target: service.ErrRedeemIdentityMismatch, code: response.CodeForbidden, key: "error.identity_mismatch"},
	{target: service.ErrRedeemInvalidDisposition, code: response.CodeBadRequest, key: "error.disposition_invalid"},
	{target: service.ErrRedemptionPartialFailure, code: response.CodeInternal, key: "error.redemption_partial_failure"},
}

func respondValidateTokenError(c *gin.Context, err error) {
	respondWithMappedError(c, err, redeemTokenErrorRules, response.CodeInternal, "error.internal")
}

func respondVerifyIdentityError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(redeemTokenErrorRules, verifyIdentityExtraErrorRules), response.CodeInternal, "error.internal")
}

func respondExecuteRedemptionError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(redeemTokenErrorRules, executeRedemptionExtraErrorRules), response.CodeInternal, "error.internal")
}
