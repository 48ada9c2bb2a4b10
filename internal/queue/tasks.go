package queue

import (
	"encoding/json"

	"github.com/giftvault/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskGiftCardIssued 礼品卡签发通知任务
	TaskGiftCardIssued = constants.TaskGiftCardIssued
	// TaskRedemptionSucceeded 兑换完成通知任务
	TaskRedemptionSucceeded = constants.TaskRedemptionSucceeded
)

// GiftCardIssuedPayload 礼品卡签发通知任务载荷
type GiftCardIssuedPayload struct {
	GiftCardID     uint   `json:"gift_card_id"`
	Code           string `json:"code"`
	RecipientEmail string `json:"recipient_email"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	RedeemURL      string `json:"redeem_url"`
	IsGift         bool   `json:"is_gift"`
}

// RedemptionSucceededPayload 兑换完成通知任务载荷
type RedemptionSucceededPayload struct {
	GiftCardID       uint   `json:"gift_card_id"`
	Code             string `json:"code"`
	RedeemerIdentity string `json:"redeemer_identity"`
	RedeemerEmail    string `json:"redeemer_email"`
	Disposition      string `json:"disposition"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
}

// NewGiftCardIssuedTask 创建礼品卡签发通知任务
func NewGiftCardIssuedTask(payload GiftCardIssuedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftCardIssued, body), nil
}

// NewRedemptionSucceededTask 创建兑换完成通知任务
func NewRedemptionSucceededTask(payload RedemptionSucceededPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRedemptionSucceeded, body), nil
}
