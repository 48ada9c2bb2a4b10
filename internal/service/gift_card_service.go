package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/giftvault/internal/constants"
	"github.com/giftvault/internal/logger"
	"github.com/giftvault/internal/models"
	"github.com/giftvault/internal/queue"
	"github.com/giftvault/internal/repository"

	"gorm.io/gorm"
)

const giftCardCodeMaxAttempts = 5

// GiftCardOptions 礼品卡服务配置
type GiftCardOptions struct {
	ValidityMonths int
	TokenTTLHours  int
	Currency       string
	RedeemBaseURL  string
}

// GiftCardService 礼品卡服务
type GiftCardService struct {
	repo     repository.GiftCardRepository
	notifier NotificationSender
	options  GiftCardOptions
}

// ActivateGiftCardInput 购买完成激活输入
type ActivateGiftCardInput struct {
	FaceAmount     models.Money
	Currency       string
	PurchaserName  string
	PurchaserEmail string
	RecipientName  string
	RecipientEmail string
	IsGift         bool
	Message        string
	PurchasedAt    *time.Time
}

// ActivateGiftCardResult 激活结果；Token 明文仅在此处返回一次
type ActivateGiftCardResult struct {
	Card  *models.GiftCard
	Token string
}

// GiftCardListInput 礼品卡列表输入
type GiftCardListInput struct {
	Code           string
	Status         string
	PurchaserEmail string
	RecipientEmail string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	ExpiresFrom    *time.Time
	ExpiresTo      *time.Time
	Page           int
	PageSize       int
}

// RecordUseInput 门店核销输入
type RecordUseInput struct {
	GiftCardID  uint
	Amount      models.Money
	ServiceName string
	Notes       string
	RecordedBy  string
}

// CancelGiftCardInput 作废输入
type CancelGiftCardInput struct {
	GiftCardID uint
	Reason     string
	RecordedBy string
}

// NewGiftCardService 创建礼品卡服务
func NewGiftCardService(repo repository.GiftCardRepository, notifier NotificationSender, options GiftCardOptions) *GiftCardService {
	if options.ValidityMonths <= 0 {
		options.ValidityMonths = constants.GiftCardDefaultValidityMonths
	}
	if options.TokenTTLHours <= 0 {
		options.TokenTTLHours = constants.RedeemTokenDefaultTTLHours
	}
	options.Currency = normalizeWalletCurrency(options.Currency)
	return &GiftCardService{
		repo:     repo,
		notifier: notifier,
		options:  options,
	}
}

// ActivateGiftCard 购买完成回调：签发卡号与兑换令牌，卡进入 active 状态
func (s *GiftCardService) ActivateGiftCard(input ActivateGiftCardInput) (*ActivateGiftCardResult, error) {
	if s == nil || s.repo == nil {
		return nil, ErrGiftCardCreateFailed
	}
	if !input.FaceAmount.IsPositive() {
		return nil, ErrGiftCardInvalidAmount
	}
	// 受赠邮箱可为空：自购卡不绑定兑换人
	recipientEmail := strings.TrimSpace(input.RecipientEmail)

	purchasedAt := time.Now()
	if input.PurchasedAt != nil && !input.PurchasedAt.IsZero() {
		purchasedAt = *input.PurchasedAt
	}
	expiresAt := purchasedAt.AddDate(0, s.options.ValidityMonths, 0)
	tokenExpiresAt := purchasedAt.Add(time.Duration(s.options.TokenTTLHours) * time.Hour)

	token, tokenHash, err := GenerateRedeemToken()
	if err != nil {
		return nil, ErrGiftCardCreateFailed
	}

	currency := input.Currency
	if strings.TrimSpace(currency) == "" {
		currency = s.options.Currency
	}
	currency = normalizeWalletCurrency(currency)

	now := time.Now()
	card := &models.GiftCard{
		TokenHash:       tokenHash,
		TokenExpiresAt:  &tokenExpiresAt,
		FaceAmount:      input.FaceAmount,
		RemainingAmount: input.FaceAmount,
		Currency:        currency,
		Status:          models.GiftCardStatusActive,
		PurchaserName:   strings.TrimSpace(input.PurchaserName),
		PurchaserEmail:  strings.TrimSpace(input.PurchaserEmail),
		RecipientName:   strings.TrimSpace(input.RecipientName),
		RecipientEmail:  recipientEmail,
		IsGift:          input.IsGift,
		Message:         strings.TrimSpace(input.Message),
		PurchasedAt:     &purchasedAt,
		ExpiresAt:       &expiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// 卡号随机生成，唯一键冲突时换号重试
	var created bool
	for attempt := 0; attempt < giftCardCodeMaxAttempts; attempt++ {
		code, codeErr := GenerateGiftCardCode()
		if codeErr != nil {
			return nil, ErrGiftCardCreateFailed
		}
		card.Code = code
		if err := s.repo.Create(card); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return nil, ErrGiftCardCreateFailed
		}
		created = true
		break
	}
	if !created {
		return nil, ErrGiftCardCreateFailed
	}

	s.notifyIssued(card, token)
	return &ActivateGiftCardResult{Card: card, Token: token}, nil
}

// GetGiftCard 查询礼品卡详情（读取时惰性落地过期状态）
func (s *GiftCardService) GetGiftCard(id uint) (*models.GiftCard, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrGiftCardInvalid
	}
	card, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrGiftCardFetchFailed
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	if err := s.expireIfNeeded(card, time.Now()); err != nil {
		return nil, err
	}
	return card, nil
}

// ListGiftCards 获取礼品卡列表
func (s *GiftCardService) ListGiftCards(input GiftCardListInput) ([]models.GiftCard, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrGiftCardFetchFailed
	}
	filter := repository.GiftCardListFilter{
		Code:           strings.TrimSpace(strings.ToUpper(input.Code)),
		Status:         strings.TrimSpace(strings.ToLower(input.Status)),
		PurchaserEmail: strings.TrimSpace(input.PurchaserEmail),
		RecipientEmail: strings.TrimSpace(input.RecipientEmail),
		CreatedFrom:    input.CreatedFrom,
		CreatedTo:      input.CreatedTo,
		ExpiresFrom:    input.ExpiresFrom,
		ExpiresTo:      input.ExpiresTo,
		Page:           input.Page,
		PageSize:       input.PageSize,
	}
	cards, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrGiftCardFetchFailed
	}
	return cards, total, nil
}

// ListUsages 查询核销记录
func (s *GiftCardService) ListUsages(filter repository.GiftCardUsageListFilter) ([]models.GiftCardUsage, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrGiftCardFetchFailed
	}
	return s.repo.ListUsages(filter)
}

// RecordUse 门店核销：按卡面扣减剩余金额，扣至零进入 used
func (s *GiftCardService) RecordUse(input RecordUseInput) (*models.GiftCard, *models.GiftCardUsage, error) {
	if s == nil || s.repo == nil || input.GiftCardID == 0 {
		return nil, nil, ErrGiftCardInvalid
	}
	if !input.Amount.IsPositive() {
		return nil, nil, ErrGiftCardInvalidAmount
	}

	var resultCard *models.GiftCard
	var resultUsage *models.GiftCardUsage
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		card, err := repo.GetByIDForUpdate(input.GiftCardID)
		if err != nil {
			return ErrGiftCardFetchFailed
		}
		if card == nil {
			return ErrGiftCardNotFound
		}
		now := time.Now()
		if err := s.expireIfNeededTx(repo, card, now); err != nil {
			return err
		}
		switch card.Status {
		case models.GiftCardStatusActive, models.GiftCardStatusPartiallyUsed:
		case models.GiftCardStatusExpired:
			return ErrGiftCardExpired
		case models.GiftCardStatusRedeemed, models.GiftCardStatusUsed:
			return ErrGiftCardRedeemed
		case models.GiftCardStatusCancelled:
			return ErrGiftCardCancelled
		default:
			return ErrGiftCardNotActive
		}
		if input.Amount > card.RemainingAmount {
			return ErrGiftCardUseExceedsRemain
		}

		remainingAfter := card.RemainingAmount - input.Amount
		card.RemainingAmount = remainingAfter
		if remainingAfter == 0 {
			card.Status = models.GiftCardStatusUsed
		} else {
			card.Status = models.GiftCardStatusPartiallyUsed
		}
		card.UpdatedAt = now
		if err := repo.Update(card); err != nil {
			return ErrGiftCardUpdateFailed
		}

		usage := &models.GiftCardUsage{
			GiftCardID:     card.ID,
			Amount:         input.Amount,
			RemainingAfter: remainingAfter,
			ServiceName:    strings.TrimSpace(input.ServiceName),
			Notes:          strings.TrimSpace(input.Notes),
			RecordedBy:     strings.TrimSpace(input.RecordedBy),
			CreatedAt:      now,
		}
		if err := repo.CreateUsage(usage); err != nil {
			return ErrGiftCardUpdateFailed
		}
		resultCard = card
		resultUsage = usage
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resultCard, resultUsage, nil
}

// CancelGiftCard 作废礼品卡（终态不可作废，作废后不可恢复）
func (s *GiftCardService) CancelGiftCard(input CancelGiftCardInput) (*models.GiftCard, error) {
	if s == nil || s.repo == nil || input.GiftCardID == 0 {
		return nil, ErrGiftCardInvalid
	}

	var resultCard *models.GiftCard
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		card, err := repo.GetByIDForUpdate(input.GiftCardID)
		if err != nil {
			return ErrGiftCardFetchFailed
		}
		if card == nil {
			return ErrGiftCardNotFound
		}
		now := time.Now()
		if err := s.expireIfNeededTx(repo, card, now); err != nil {
			return err
		}
		if card.IsTerminal() {
			return ErrGiftCardNotCancellable
		}

		card.Status = models.GiftCardStatusCancelled
		card.CancelReason = strings.TrimSpace(input.Reason)
		card.CancelledAt = &now
		card.UpdatedAt = now
		if err := repo.Update(card); err != nil {
			return ErrGiftCardUpdateFailed
		}
		logger.Infow("gift_card_cancelled",
			"gift_card_id", card.ID,
			"code", card.Code,
			"recorded_by", strings.TrimSpace(input.RecordedBy),
			"reason", card.CancelReason,
		)
		resultCard = card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resultCard, nil
}

// ExpireDueCards 批量过期到期的卡，供后台定时清理使用
func (s *GiftCardService) ExpireDueCards(now time.Time) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, ErrGiftCardInvalid
	}
	affected, err := s.repo.ExpireDue(now)
	if err != nil {
		return 0, ErrGiftCardUpdateFailed
	}
	if affected > 0 {
		logger.Infow("gift_cards_expired", "count", affected)
	}
	return affected, nil
}

// expireIfNeeded 惰性过期：读取路径发现卡过有效期时落地 expired 状态
func (s *GiftCardService) expireIfNeeded(card *models.GiftCard, now time.Time) error {
	if card == nil {
		return nil
	}
	switch card.Status {
	case models.GiftCardStatusActive, models.GiftCardStatusPartiallyUsed:
	default:
		return nil
	}
	if !card.IsCardExpired(now) {
		return nil
	}
	card.Status = models.GiftCardStatusExpired
	card.UpdatedAt = now
	if err := s.repo.Update(card); err != nil {
		return ErrGiftCardUpdateFailed
	}
	return nil
}

func (s *GiftCardService) expireIfNeededTx(repo *repository.GormGiftCardRepository, card *models.GiftCard, now time.Time) error {
	if card == nil {
		return nil
	}
	switch card.Status {
	case models.GiftCardStatusActive, models.GiftCardStatusPartiallyUsed:
	default:
		return nil
	}
	if !card.IsCardExpired(now) {
		return nil
	}
	card.Status = models.GiftCardStatusExpired
	card.UpdatedAt = now
	if err := repo.Update(card); err != nil {
		return ErrGiftCardUpdateFailed
	}
	return nil
}

// notifyIssued 投递签发事件；令牌明文只进入投递载荷，不落库
func (s *GiftCardService) notifyIssued(card *models.GiftCard, token string) {
	if s == nil || s.notifier == nil || card == nil {
		return
	}
	redeemURL := ""
	if base := strings.TrimRight(strings.TrimSpace(s.options.RedeemBaseURL), "/"); base != "" {
		redeemURL = fmt.Sprintf("%s/redeem?token=%s", base, token)
	}
	payload := queue.GiftCardIssuedPayload{
		GiftCardID:     card.ID,
		Code:           card.Code,
		RecipientEmail: card.RecipientEmail,
		Amount:         card.FaceAmount.Display(),
		Currency:       card.Currency,
		RedeemURL:      redeemURL,
		IsGift:         card.IsGift,
	}
	if err := s.notifier.GiftCardIssued(payload); err != nil {
		logger.Warnw("notify_gift_card_issued_failed",
			"gift_card_id", card.ID,
			"error", err,
		)
	}
}
