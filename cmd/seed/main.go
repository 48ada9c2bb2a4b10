package main

import (
	"fmt"
	"time"

	"github.com/giftvault/internal/config"
	"github.com/giftvault/internal/logger"
	"github.com/giftvault/internal/models"
	"github.com/giftvault/internal/repository"
	"github.com/giftvault/internal/service"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	cardRepo := repository.NewGiftCardRepository(models.DB)
	giftCardService := service.NewGiftCardService(cardRepo, service.LogNotificationSender{}, service.GiftCardOptions{
		ValidityMonths: cfg.GiftCard.ValidityMonths,
		TokenTTLHours:  cfg.GiftCard.TokenTTLHours,
		Currency:       cfg.GiftCard.Currency,
		RedeemBaseURL:  cfg.Notify.RedeemBaseURL,
	})

	// 演示礼品卡
	demoCards := []service.ActivateGiftCardInput{
		{
			FaceAmount:     models.Money(5000),
			PurchaserName:  "Alice Zhang",
			PurchaserEmail: "alice@example.com",
			RecipientName:  "Bob Li",
			RecipientEmail: "bob@example.com",
			IsGift:         true,
			Message:        "生日快乐！",
		},
		{
			FaceAmount:     models.Money(10000),
			PurchaserName:  "Carol Wang",
			PurchaserEmail: "carol@example.com",
			RecipientName:  "Carol Wang",
			RecipientEmail: "carol@example.com",
		},
		{
			FaceAmount:     models.Money(2500),
			PurchaserName:  "Dave Chen",
			PurchaserEmail: "dave@example.com",
			RecipientName:  "Eve Liu",
			RecipientEmail: "eve@example.com",
			IsGift:         true,
			Message:        "谢谢你的帮助",
		},
	}

	for _, input := range demoCards {
		var count int64
		if err := models.DB.Model(&models.GiftCard{}).
			Where("recipient_email = ?", input.RecipientEmail).
			Count(&count).Error; err == nil && count > 0 {
			stdLog.Printf("Gift card already seeded for %s, skip", input.RecipientEmail)
			continue
		}
		result, err := giftCardService.ActivateGiftCard(input)
		if err != nil {
			stdLog.Printf("Failed to seed gift card for %s: %v", input.RecipientEmail, err)
			continue
		}
		stdLog.Printf("Created gift card %s for %s, redeem token: %s",
			result.Card.Code, input.RecipientEmail, result.Token)
	}

	// 本地联调用会话令牌
	if identityToken, err := service.SignIdentitySession(cfg.Identity.SessionSecret,
		"demo-identity-1", "bob@example.com", 24*time.Hour); err == nil {
		stdLog.Printf("Demo identity session token: %s", identityToken)
	}
	if staffToken, err := service.SignStaffSession(cfg.Staff.SessionSecret,
		"demo-staff-1", "Front Desk", 24*time.Hour); err == nil {
		stdLog.Printf("Demo staff session token: %s", staffToken)
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 demo gift cards (redeem tokens printed above)")
	fmt.Println("- Demo identity and staff session tokens")
}
