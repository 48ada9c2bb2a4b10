package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/giftvault/internal/constants"
	"github.com/giftvault/internal/identity"
	"github.com/giftvault/internal/logger"
	"github.com/giftvault/internal/models"
	"github.com/giftvault/internal/queue"
	"github.com/giftvault/internal/repository"

	"gorm.io/gorm"
)

// RedemptionService 兑换协议服务
type RedemptionService struct {
	cardRepo       repository.GiftCardRepository
	redemptionRepo repository.RedemptionRepository
	walletService  *WalletService
	directory      identity.Directory
	notifier       NotificationSender
}

// VerifyIdentityInput 身份核验输入
type VerifyIdentityInput struct {
	Token string
	Email string
	// AuthedIdentity 当前已登录身份，未登录时为 nil
	AuthedIdentity *identity.Identity
}

// VerifyIdentityResult 身份核验结果
type VerifyIdentityResult struct {
	Flow     string
	Card     *models.GiftCard
	Identity *identity.Identity
}

// ExecuteRedemptionInput 兑换执行输入
type ExecuteRedemptionInput struct {
	Token       string
	Identity    identity.Identity
	Disposition string
}

// RedemptionResult 兑换执行结果
type RedemptionResult struct {
	Card        *models.GiftCard
	Record      *models.RedemptionRecord
	Account     *models.WalletAccount
	Transaction *models.WalletTransaction
}

// NewRedemptionService 创建兑换协议服务
func NewRedemptionService(
	cardRepo repository.GiftCardRepository,
	redemptionRepo repository.RedemptionRepository,
	walletService *WalletService,
	directory identity.Directory,
	notifier NotificationSender,
) *RedemptionService {
	return &RedemptionService{
		cardRepo:       cardRepo,
		redemptionRepo: redemptionRepo,
		walletService:  walletService,
		directory:      directory,
		notifier:       notifier,
	}
}

// ValidateToken 校验兑换令牌并返回可兑换的礼品卡
func (s *RedemptionService) ValidateToken(token string) (*models.GiftCard, error) {
	if s == nil || s.cardRepo == nil {
		return nil, ErrGiftCardFetchFailed
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrRedeemTokenInvalid
	}
	card, err := s.cardRepo.GetByTokenHash(HashRedeemToken(token))
	if err != nil {
		return nil, ErrGiftCardFetchFailed
	}
	if card == nil {
		return nil, ErrRedeemTokenInvalid
	}

	now := time.Now()
	if err := s.lazyExpire(card, now); err != nil {
		return nil, err
	}
	// 兑换记录存在即视为已兑换，状态与记录不一致时以记录为准
	if s.redemptionRepo != nil {
		record, err := s.redemptionRepo.GetByGiftCardID(card.ID)
		if err != nil {
			return nil, ErrGiftCardFetchFailed
		}
		if record != nil {
			return nil, ErrGiftCardRedeemed
		}
	}
	if err := checkRedeemableStatus(card); err != nil {
		return nil, err
	}
	// 令牌过期不影响卡本身的有效期
	if card.IsTokenExpired(now) {
		return nil, ErrRedeemTokenExpired
	}
	return card, nil
}

// VerifyIdentity 核验兑换人邮箱并决定后续流程分支
func (s *RedemptionService) VerifyIdentity(ctx context.Context, input VerifyIdentityInput) (*VerifyIdentityResult, error) {
	card, err := s.ValidateToken(input.Token)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, ErrRedeemEmailMismatch
	}
	// 邮箱匹配不区分大小写；未绑定受赠邮箱的卡跳过匹配
	if card.RecipientEmail != "" && !strings.EqualFold(email, card.RecipientEmail) {
		return nil, ErrRedeemEmailMismatch
	}

	if input.AuthedIdentity != nil && strings.EqualFold(input.AuthedIdentity.Email, email) {
		return &VerifyIdentityResult{
			Flow:     constants.RedeemFlowDirect,
			Card:     card,
			Identity: input.AuthedIdentity,
		}, nil
	}

	if s.directory == nil {
		return &VerifyIdentityResult{Flow: constants.RedeemFlowRequireSignup, Card: card}, nil
	}
	existing, err := s.directory.LookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &VerifyIdentityResult{
			Flow:     constants.RedeemFlowRequireLogin,
			Card:     card,
			Identity: existing,
		}, nil
	}
	return &VerifyIdentityResult{Flow: constants.RedeemFlowRequireSignup, Card: card}, nil
}

// ExecuteRedemption 执行兑换：先落地兑换记录与卡状态，wallet 方式再入账。
// 记录已提交而入账失败时返回 ErrRedemptionPartialFailure，由人工按幂等引用补账。
func (s *RedemptionService) ExecuteRedemption(input ExecuteRedemptionInput) (*RedemptionResult, error) {
	if s == nil || s.cardRepo == nil || s.redemptionRepo == nil {
		return nil, ErrGiftCardFetchFailed
	}
	token := strings.TrimSpace(input.Token)
	if token == "" {
		return nil, ErrRedeemTokenInvalid
	}
	redeemerID := strings.TrimSpace(input.Identity.ID)
	if redeemerID == "" {
		return nil, ErrRedeemIdentityMismatch
	}
	disposition := strings.TrimSpace(strings.ToLower(input.Disposition))
	switch disposition {
	case constants.DispositionWallet, constants.DispositionDirect:
	default:
		return nil, ErrRedeemInvalidDisposition
	}

	var resultCard *models.GiftCard
	var resultRecord *models.RedemptionRecord
	err := s.cardRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.cardRepo.WithTx(tx)
		card, err := repo.GetByTokenHashForUpdate(HashRedeemToken(token))
		if err != nil {
			return ErrGiftCardFetchFailed
		}
		if card == nil {
			return ErrRedeemTokenInvalid
		}
		now := time.Now()
		if card.IsCardExpired(now) {
			card.Status = models.GiftCardStatusExpired
			card.UpdatedAt = now
			if err := repo.Update(card); err != nil {
				logger.Warnw("gift_card_expire_persist_failed", "gift_card_id", card.ID, "error", err)
			}
			return ErrGiftCardExpired
		}
		if err := checkRedeemableStatus(card); err != nil {
			return err
		}
		if card.IsTokenExpired(now) {
			return ErrRedeemTokenExpired
		}
		if card.RecipientEmail != "" && !strings.EqualFold(input.Identity.Email, card.RecipientEmail) {
			return ErrRedeemEmailMismatch
		}

		record := &models.RedemptionRecord{
			GiftCardID:       card.ID,
			RedeemerIdentity: redeemerID,
			RedeemerEmail:    strings.TrimSpace(input.Identity.Email),
			Disposition:      disposition,
			Amount:           card.FaceAmount,
			Currency:         card.Currency,
			RedeemedAt:       now,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		// gift_card_id 唯一键是兑换的串行化点：并发兑换只有一个插入成功
		if err := s.redemptionRepo.WithTx(tx).Create(record); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrGiftCardRedeemed
			}
			return ErrRedemptionRecordFailed
		}

		card.Status = models.GiftCardStatusRedeemed
		card.RemainingAmount = 0
		card.RedeemedAt = &now
		card.RedeemedIdentity = redeemerID
		card.UpdatedAt = now
		if err := repo.Update(card); err != nil {
			return ErrGiftCardUpdateFailed
		}
		resultCard = card
		resultRecord = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &RedemptionResult{Card: resultCard, Record: resultRecord}
	if disposition == constants.DispositionWallet {
		reference := fmt.Sprintf("gift_card:%d:redeem", resultCard.ID)
		account, txn, creditErr := s.walletService.Credit(WalletCreditInput{
			Identity:    redeemerID,
			Amount:      resultRecord.Amount,
			Currency:    resultCard.Currency,
			Reference:   reference,
			Description: fmt.Sprintf("礼品卡兑换入账：%s", resultCard.Code),
		})
		if creditErr != nil {
			logger.Errorw("redemption_partial_failure",
				"gift_card_id", resultCard.ID,
				"code", resultCard.Code,
				"redeemer_identity", redeemerID,
				"reference", reference,
				"amount", resultRecord.Amount.Display(),
				"error", creditErr,
			)
			return result, ErrRedemptionPartialFailure
		}
		result.Account = account
		result.Transaction = txn
		s.linkWalletTxn(resultCard, resultRecord, txn)
	}

	s.notifyRedeemed(resultCard, resultRecord)
	return result, nil
}

// lazyExpire 读取路径惰性落地过期状态，落地后返回过期错误。
// 状态写入失败不拦截过期结果，留待下次读取或后台清理补写。
func (s *RedemptionService) lazyExpire(card *models.GiftCard, now time.Time) error {
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
	if err := s.cardRepo.Update(card); err != nil {
		logger.Warnw("gift_card_expire_persist_failed", "gift_card_id", card.ID, "error", err)
	}
	return ErrGiftCardExpired
}

// linkWalletTxn 回填流水ID，失败仅记录日志，不影响兑换结果
func (s *RedemptionService) linkWalletTxn(card *models.GiftCard, record *models.RedemptionRecord, txn *models.WalletTransaction) {
	if txn == nil || txn.ID == 0 {
		return
	}
	card.WalletTxnID = &txn.ID
	if err := s.cardRepo.Update(card); err != nil {
		logger.Warnw("gift_card_wallet_txn_link_failed", "gift_card_id", card.ID, "error", err)
	}
	record.WalletTxnID = &txn.ID
	record.UpdatedAt = time.Now()
	if err := models.DB.Save(record).Error; err != nil {
		logger.Warnw("redemption_wallet_txn_link_failed", "gift_card_id", card.ID, "error", err)
	}
}

func (s *RedemptionService) notifyRedeemed(card *models.GiftCard, record *models.RedemptionRecord) {
	if s == nil || s.notifier == nil || card == nil || record == nil {
		return
	}
	payload := queue.RedemptionSucceededPayload{
		GiftCardID:       card.ID,
		Code:             card.Code,
		RedeemerIdentity: record.RedeemerIdentity,
		RedeemerEmail:    record.RedeemerEmail,
		Disposition:      record.Disposition,
		Amount:           record.Amount.Display(),
		Currency:         record.Currency,
	}
	if err := s.notifier.RedemptionSucceeded(payload); err != nil {
		logger.Warnw("notify_redemption_succeeded_failed",
			"gift_card_id", card.ID,
			"error", err,
		)
	}
}

// checkRedeemableStatus 兑换前的状态检查；仅 active 可兑换
func checkRedeemableStatus(card *models.GiftCard) error {
	switch card.Status {
	case models.GiftCardStatusActive:
		return nil
	case models.GiftCardStatusPartiallyUsed:
		// 已在门店核销过的卡只能继续线下使用
		return ErrGiftCardNotActive
	case models.GiftCardStatusRedeemed, models.GiftCardStatusUsed:
		return ErrGiftCardRedeemed
	case models.GiftCardStatusExpired:
		return ErrGiftCardExpired
	case models.GiftCardStatusCancelled:
		return ErrGiftCardCancelled
	default:
		return ErrGiftCardNotActive
	}
}
