package staff

import (
	handlershared "github.com/giftvault/internal/http/handlers/shared"
	"github.com/giftvault/internal/http/response"
	"github.com/giftvault/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListWallets 查询钱包账户列表
func (h *Handler) ListWallets(c *gin.Context) {
	page, pageSize := handlershared.Paginate(c)
	accounts, total, err := h.WalletService.ListAccounts(repository.WalletAccountListFilter{
		Identity: c.Query("identity"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, accounts, handlershared.BuildPagination(page, pageSize, total))
}

// ListWalletTransactions 查询指定钱包账户的流水
func (h *Handler) ListWalletTransactions(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	account, err := h.WalletService.GetAccountByID(id)
	if err != nil {
		respondError(c, response.CodeNotFound, "error.wallet_not_found", nil)
		return
	}
	page, pageSize := handlershared.Paginate(c)
	txns, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		WalletID:  account.ID,
		Type:      c.Query("type"),
		Reference: c.Query("reference"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, txns, handlershared.BuildPagination(page, pageSize, total))
}
