package staff

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

var giftCardStaffErrorRules = []mappedHandlerError{
	{target: service.ErrGiftCardInvalid, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrGiftCardInvalidAmount, code: response.CodeBadRequest, key: "error.amount_invalid"},
	{target: service.ErrGiftCardNotFound, code: response.CodeNotFound, key: "error.gift_card_not_found"},
	{target: service.ErrGiftCardExpired, code: response.CodeBadRequest, key: "error.gift_card_expired"},
	{target: service.ErrGiftCardRedeemed, code: response.CodeConflict, key: "error.gift_card_redeemed"},
	{target: service.ErrGiftCardCancelled, code: response.CodeBadRequest, key: "error.gift_card_cancelled"},
	{target: service.ErrGiftCardNotActive, code: response.CodeBadRequest, key: "error.gift_card_not_active"},
	{target: service.ErrGiftCardUseExceedsRemain, code: response.CodeBadRequest, key: "error.use_exceeds_remaining"},
	{target: service.ErrGiftCardNotCancellable, code: response.CodeConflict, key: "error.cancel_terminal_state"},
}

func respondGiftCardStaffError(c *gin.Context, err error) {
	respondWithMappedError(c, err, giftCardStaffErrorRules, response.CodeInternal, "error.internal")
}
