package router

import (
	"fmt"
	"strings"

	"github.com/giftvault/internal/cache"
	"github.com/giftvault/internal/config"
	publichandlers "github.com/giftvault/internal/http/handlers/public"
	staffhandlers "github.com/giftvault/internal/http/handlers/staff"
	"github.com/giftvault/internal/logger"
	"github.com/giftvault/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	staffHandler := staffhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "gv"
	}
	redisClient := cache.Client()
	redeemRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:redeem", redisPrefix),
		WindowSeconds: cfg.Security.RedeemRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RedeemRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.RedeemRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 兑换接口（令牌即凭证，身份登录按流程可选）
		redeem := apiV1.Group("/redeem")
		{
			redeem.POST("/validate-token", publicHandler.ValidateToken)
			redeem.POST("/verify-identity",
				RateLimitMiddleware(redisClient, redeemRule, KeyByIPAndJSONFields("token", "email")),
				IdentityAuthMiddleware(cfg.Identity.SessionSecret, false),
				publicHandler.VerifyIdentity)
			redeem.POST("/execute",
				IdentityAuthMiddleware(cfg.Identity.SessionSecret, true),
				publicHandler.ExecuteRedemption)
		}

		// 会员钱包接口（需鉴权）
		wallet := apiV1.Group("/wallet")
		wallet.Use(IdentityAuthMiddleware(cfg.Identity.SessionSecret, true))
		{
			wallet.GET("", publicHandler.GetWallet)
			wallet.GET("/transactions", publicHandler.ListWalletTransactions)
		}

		// 员工接口（门店与运营侧）
		staff := apiV1.Group("/staff")
		staff.Use(StaffAuthMiddleware(cfg.Staff.SessionSecret))
		{
			staff.POST("/gift-cards", staffHandler.ActivateGiftCard)
			staff.GET("/gift-cards", staffHandler.ListGiftCards)
			staff.GET("/gift-cards/:id", staffHandler.GetGiftCard)
			staff.POST("/gift-cards/:id/use", staffHandler.RecordUse)
			staff.POST("/gift-cards/:id/cancel", staffHandler.CancelGiftCard)
			staff.GET("/gift-cards/:id/usages", staffHandler.ListUsages)
			staff.GET("/wallets", staffHandler.ListWallets)
			staff.GET("/wallets/:id/transactions", staffHandler.ListWalletTransactions)
		}
	}

	// 健康检查
	r.GET("/healthz", publicHandler.Healthz)

	return r
}
