package service

import (
	"github.com/giftvault/internal/logger"
	"github.com/giftvault/internal/queue"
)

// NotificationSender 通知事件出口；投递通道（邮件、站内信）由消费方决定
type NotificationSender interface {
	GiftCardIssued(payload queue.GiftCardIssuedPayload) error
	RedemptionSucceeded(payload queue.RedemptionSucceededPayload) error
}

// QueueNotificationSender 将通知事件投递到异步队列
type QueueNotificationSender struct {
	client *queue.Client
}

// NewQueueNotificationSender 创建队列通知出口
func NewQueueNotificationSender(client *queue.Client) *QueueNotificationSender {
	return &QueueNotificationSender{client: client}
}

// GiftCardIssued 投递礼品卡签发事件
func (s *QueueNotificationSender) GiftCardIssued(payload queue.GiftCardIssuedPayload) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.EnqueueGiftCardIssued(payload)
}

// RedemptionSucceeded 投递兑换完成事件
func (s *QueueNotificationSender) RedemptionSucceeded(payload queue.RedemptionSucceededPayload) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.EnqueueRedemptionSucceeded(payload)
}

// LogNotificationSender 仅记录日志的通知出口，用于开发与测试
type LogNotificationSender struct{}

// GiftCardIssued 记录礼品卡签发事件
func (LogNotificationSender) GiftCardIssued(payload queue.GiftCardIssuedPayload) error {
	logger.Infow("notify_gift_card_issued",
		"gift_card_id", payload.GiftCardID,
		"code", payload.Code,
		"recipient_email", payload.RecipientEmail,
	)
	return nil
}

// RedemptionSucceeded 记录兑换完成事件
func (LogNotificationSender) RedemptionSucceeded(payload queue.RedemptionSucceededPayload) error {
	logger.Infow("notify_redemption_succeeded",
		"gift_card_id", payload.GiftCardID,
		"code", payload.Code,
		"disposition", payload.Disposition,
	)
	return nil
}
