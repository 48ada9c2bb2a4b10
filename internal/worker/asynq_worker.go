package worker

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/giftvault/internal/logger"
	"github.com/giftvault/internal/provider"
	"github.com/giftvault/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskGiftCardIssued, c.handleGiftCardIssued)
	mux.HandleFunc(queue.TaskRedemptionSucceeded, c.handleRedemptionSucceeded)
}

// handleGiftCardIssued 投递签发通知。
// 当前投递通道为结构化日志，接入邮件网关时在此替换发送实现。
func (c *Consumer) handleGiftCardIssued(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_gift_card_issued_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GiftCardIssuedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_gift_card_issued_unmarshal_failed", "error", err)
		return err
	}
	if payload.GiftCardID == 0 {
		logger.Debugw("worker_gift_card_issued_skip_invalid_payload", "gift_card_id", payload.GiftCardID)
		return nil
	}
	if strings.TrimSpace(payload.RecipientEmail) == "" {
		logger.Debugw("worker_gift_card_issued_skip_empty_receiver", "gift_card_id", payload.GiftCardID)
		return nil
	}
	logger.Infow("worker_gift_card_issued_delivered",
		"gift_card_id", payload.GiftCardID,
		"code", payload.Code,
		"recipient_email", payload.RecipientEmail,
		"amount", payload.Amount,
		"currency", payload.Currency,
		"is_gift", payload.IsGift,
		"redeem_url", maskRedeemURL(payload.RedeemURL),
	)
	return nil
}

// handleRedemptionSucceeded 投递兑换成功通知
func (c *Consumer) handleRedemptionSucceeded(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_redemption_succeeded_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RedemptionSucceededPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_redemption_succeeded_unmarshal_failed", "error", err)
		return err
	}
	if payload.GiftCardID == 0 {
		logger.Debugw("worker_redemption_succeeded_skip_invalid_payload", "gift_card_id", payload.GiftCardID)
		return nil
	}
	logger.Infow("worker_redemption_succeeded_delivered",
		"gift_card_id", payload.GiftCardID,
		"code", payload.Code,
		"redeemer_identity", payload.RedeemerIdentity,
		"redeemer_email", payload.RedeemerEmail,
		"disposition", payload.Disposition,
		"amount", payload.Amount,
		"currency", payload.Currency,
	)
	return nil
}

// maskRedeemURL 日志中隐去兑换令牌明文
func maskRedeemURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	values := parsed.Query()
	if token := values.Get("token"); token != "" {
		if len(token) > 6 {
			values.Set("token", token[:6]+"***")
		} else {
			values.Set("token", "***")
		}
		parsed.RawQuery = values.Encode()
	}
	return parsed.String()
}
