package public

import (
	handlershared "github.com/giftvault/internal/http/handlers/shared"
	"github.com/giftvault/internal/http/response"
	"github.com/giftvault/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetWallet 查询当前身份的钱包账户
func (h *Handler) GetWallet(c *gin.Context) {
	authed, ok := getIdentity(c)
	if !ok {
		return
	}
	account, err := h.WalletService.GetAccount(authed.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, account)
}

// ListWalletTransactions 查询当前身份的钱包流水
func (h *Handler) ListWalletTransactions(c *gin.Context) {
	authed, ok := getIdentity(c)
	if !ok {
		return
	}
	account, err := h.WalletService.GetAccount(authed.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	page, pageSize := handlershared.Paginate(c)
	txns, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		WalletID: account.ID,
		Type:     c.Query("type"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, txns, handlershared.BuildPagination(page, pageSize, total))
}
