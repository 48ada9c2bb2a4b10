package public

import (
	"strings"

	"github.com/giftvault/internal/http/response"
	"github.com/giftvault/internal/models"
	"github.com/giftvault/internal/service"

	"github.com/gin-gonic/gin"
)

type validateTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type verifyIdentityRequest struct {
	Token string `json:"token" binding:"required"`
	Email string `json:"email" binding:"required"`
}

type executeRedemptionRequest struct {
	Token       string `json:"token" binding:"required"`
	Disposition string `json:"disposition" binding:"required"`
}

// ValidateToken 校验兑换令牌并返回礼品卡摘要
func (h *Handler) ValidateToken(c *gin.Context) {
	var req validateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	card, err := h.RedemptionService.ValidateToken(req.Token)
	if err != nil {
		respondValidateTokenError(c, err)
		return
	}
	response.Success(c, giftCardSummary(card))
}

// VerifyIdentity 核验兑换人邮箱并返回流程分支
func (h *Handler) VerifyIdentity(c *gin.Context) {
	var req verifyIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.RedemptionService.VerifyIdentity(c.Request.Context(), service.VerifyIdentityInput{
		Token:          req.Token,
		Email:          req.Email,
		AuthedIdentity: getOptionalIdentity(c),
	})
	if err != nil {
		respondVerifyIdentityError(c, err)
		return
	}
	data := gin.H{"flow": result.Flow}
	if result.Identity != nil {
		data["email"] = result.Identity.Email
	}
	response.Success(c, data)
}

// ExecuteRedemption 执行兑换
func (h *Handler) ExecuteRedemption(c *gin.Context) {
	authed, ok := getIdentity(c)
	if !ok {
		return
	}
	var req executeRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.RedemptionService.ExecuteRedemption(service.ExecuteRedemptionInput{
		Token:       req.Token,
		Identity:    authed,
		Disposition: req.Disposition,
	})
	if err != nil {
		respondExecuteRedemptionError(c, err)
		return
	}

	data := gin.H{
		"code":        result.Card.Code,
		"amount":      result.Record.Amount,
		"currency":    result.Record.Currency,
		"disposition": result.Record.Disposition,
		"redeemed_at": result.Record.RedeemedAt,
	}
	if result.Account != nil {
		data["wallet_balance"] = result.Account.Balance
	}
	response.Success(c, data)
}

// giftCardSummary 兑换前摘要；不暴露令牌摘要与完整受赠邮箱
func giftCardSummary(card *models.GiftCard) gin.H {
	return gin.H{
		"code":             card.Code,
		"amount":           card.RemainingAmount,
		"face_amount":      card.FaceAmount,
		"currency":         card.Currency,
		"status":           card.Status,
		"is_gift":          card.IsGift,
		"message":          card.Message,
		"recipient_name":   card.RecipientName,
		"recipient_email":  maskEmail(card.RecipientEmail),
		"expires_at":       card.ExpiresAt,
		"token_expires_at": card.TokenExpiresAt,
	}
}

func maskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 {
		return ""
	}
	local := email[:at]
	domain := email[at:]
	if len(local) <= 2 {
		return local[:1] + "***" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + domain
}
