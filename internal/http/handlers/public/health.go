package public

import (
	"github.com/giftvault/internal/http/response"
	"github.com/giftvault/internal/models"

	"github.com/gin-gonic/gin"
)

// Healthz 健康检查
func (h *Handler) Healthz(c *gin.Context) {
	dbStatus := "ok"
	if models.DB == nil {
		dbStatus = "down"
	} else if sqlDB, err := models.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}
	response.Success(c, gin.H{
		"status":   "ok",
		"database": dbStatus,
	})
}
