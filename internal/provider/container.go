package provider

import (
	"time"

	"github.com/giftvault/internal/cache"
	"github.com/giftvault/internal/config"
	"github.com/giftvault/internal/identity"
	"github.com/giftvault/internal/logger"
	"github.com/giftvault/internal/models"
	"github.com/giftvault/internal/queue"
	"github.com/giftvault/internal/repository"
	"github.com/giftvault/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	GiftCardRepo   repository.GiftCardRepository
	RedemptionRepo repository.RedemptionRepository
	WalletRepo     repository.WalletRepository

	// External collaborators
	IdentityDirectory identity.Directory

	// Services
	NotificationSender service.NotificationSender
	WalletService      *service.WalletService
	GiftCardService    *service.GiftCardService
	RedemptionService  *service.RedemptionService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.GiftCardRepo = repository.NewGiftCardRepository(db)
	c.RedemptionRepo = repository.NewRedemptionRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
}

func (c *Container) initServices() {
	if c.QueueClient != nil && c.QueueClient.Enabled() {
		c.NotificationSender = service.NewQueueNotificationSender(c.QueueClient)
	} else {
		c.NotificationSender = service.LogNotificationSender{}
	}

	c.IdentityDirectory = identity.NewHTTPDirectory(
		c.Config.Identity.DirectoryURL,
		time.Duration(c.Config.Identity.TimeoutMS)*time.Millisecond,
	)

	c.WalletService = service.NewWalletService(c.WalletRepo, c.Config.GiftCard.Currency)
	c.GiftCardService = service.NewGiftCardService(c.GiftCardRepo, c.NotificationSender, service.GiftCardOptions{
		ValidityMonths: c.Config.GiftCard.ValidityMonths,
		TokenTTLHours:  c.Config.GiftCard.TokenTTLHours,
		Currency:       c.Config.GiftCard.Currency,
		RedeemBaseURL:  c.Config.Notify.RedeemBaseURL,
	})
	c.RedemptionService = service.NewRedemptionService(
		c.GiftCardRepo,
		c.RedemptionRepo,
		c.WalletService,
		c.IdentityDirectory,
		c.NotificationSender,
	)
}
