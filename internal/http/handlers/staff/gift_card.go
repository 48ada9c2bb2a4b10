package staff

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/giftvault/internal/http/handlers/shared"
	"github.com/giftvault/internal/http/response"
	"github.com/giftvault/internal/models"
	"github.com/giftvault/internal/repository"
	"github.com/giftvault/internal/service"

	"github.com/gin-gonic/gin"
)

type activateGiftCardRequest struct {
	Amount         int64      `json:"amount" binding:"required"` // 最小货币单位
	Currency       string     `json:"currency"`
	PurchaserName  string     `json:"purchaser_name"`
	PurchaserEmail string     `json:"purchaser_email"`
	RecipientName  string     `json:"recipient_name"`
	RecipientEmail string     `json:"recipient_email" binding:"omitempty,email"`
	IsGift         bool       `json:"is_gift"`
	Message        string     `json:"message"`
	PurchasedAt    *time.Time `json:"purchased_at"`
}

type recordUseRequest struct {
	Amount      int64  `json:"amount" binding:"required"` // 最小货币单位
	ServiceName string `json:"service_name"`
	Notes       string `json:"notes"`
}

type cancelGiftCardRequest struct {
	Reason string `json:"reason"`
}

// ActivateGiftCard 购买完成回调：签发礼品卡并返回一次性兑换令牌
func (h *Handler) ActivateGiftCard(c *gin.Context) {
	var req activateGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.GiftCardService.ActivateGiftCard(service.ActivateGiftCardInput{
		FaceAmount:     models.Money(req.Amount),
		Currency:       req.Currency,
		PurchaserName:  req.PurchaserName,
		PurchaserEmail: req.PurchaserEmail,
		RecipientName:  req.RecipientName,
		RecipientEmail: req.RecipientEmail,
		IsGift:         req.IsGift,
		Message:        req.Message,
		PurchasedAt:    req.PurchasedAt,
	})
	if err != nil {
		respondGiftCardStaffError(c, err)
		return
	}
	response.Success(c, gin.H{
		"card":  result.Card,
		"token": result.Token,
	})
}

// ListGiftCards 查询礼品卡列表
func (h *Handler) ListGiftCards(c *gin.Context) {
	page, pageSize := handlershared.Paginate(c)
	cards, total, err := h.GiftCardService.ListGiftCards(service.GiftCardListInput{
		Code:           c.Query("code"),
		Status:         c.Query("status"),
		PurchaserEmail: c.Query("purchaser_email"),
		RecipientEmail: c.Query("recipient_email"),
		Page:           page,
		PageSize:       pageSize,
	})
	if err != nil {
		respondGiftCardStaffError(c, err)
		return
	}
	response.SuccessWithPage(c, cards, handlershared.BuildPagination(page, pageSize, total))
}

// GetGiftCard 查询礼品卡详情
func (h *Handler) GetGiftCard(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	card, err := h.GiftCardService.GetGiftCard(id)
	if err != nil {
		respondGiftCardStaffError(c, err)
		return
	}
	response.Success(c, card)
}

// RecordUse 门店核销扣减
func (h *Handler) RecordUse(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	var req recordUseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	card, usage, err := h.GiftCardService.RecordUse(service.RecordUseInput{
		GiftCardID:  id,
		Amount:      models.Money(req.Amount),
		ServiceName: req.ServiceName,
		Notes:       req.Notes,
		RecordedBy:  staffIdentity(c),
	})
	if err != nil {
		respondGiftCardStaffError(c, err)
		return
	}
	response.Success(c, gin.H{
		"card":  card,
		"usage": usage,
	})
}

// CancelGiftCard 作废礼品卡
func (h *Handler) CancelGiftCard(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	var req cancelGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	card, err := h.GiftCardService.CancelGiftCard(service.CancelGiftCardInput{
		GiftCardID: id,
		Reason:     req.Reason,
		RecordedBy: staffIdentity(c),
	})
	if err != nil {
		respondGiftCardStaffError(c, err)
		return
	}
	response.Success(c, card)
}

// ListUsages 查询礼品卡核销记录
func (h *Handler) ListUsages(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.Paginate(c)
	usages, total, err := h.GiftCardService.ListUsages(repository.GiftCardUsageListFilter{
		GiftCardID: id,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondGiftCardStaffError(c, err)
		return
	}
	response.SuccessWithPage(c, usages, handlershared.BuildPagination(page, pageSize, total))
}

func parsePathID(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(value), true
}

func staffIdentity(c *gin.Context) string {
	if value, ok := c.Get("staff_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
