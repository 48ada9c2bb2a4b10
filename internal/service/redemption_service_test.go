package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/giftvault/internal/constants"
	"github.com/giftvault/internal/identity"
	"github.com/giftvault/internal/models"
	"github.com/giftvault/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fakeDirectory struct {
	byEmail map[string]*identity.Identity
}

func (d fakeDirectory) LookupByEmail(_ context.Context, email string) (*identity.Identity, error) {
	if d.byEmail == nil {
		return nil, nil
	}
	return d.byEmail[strings.ToLower(strings.TrimSpace(email))], nil
}

type redemptionTestEnv struct {
	db            *gorm.DB
	giftCardSvc   *GiftCardService
	walletSvc     *WalletService
	redemptionSvc *RedemptionService
	directory     fakeDirectory
}

func setupRedemptionServiceTest(t *testing.T) *redemptionTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:redemption_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.GiftCard{},
		&models.GiftCardUsage{},
		&models.RedemptionRecord{},
		&models.WalletAccount{},
		&models.WalletTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cardRepo := repository.NewGiftCardRepository(db)
	walletSvc := NewWalletService(repository.NewWalletRepository(db), "USD")
	giftCardSvc := NewGiftCardService(cardRepo, LogNotificationSender{}, GiftCardOptions{
		ValidityMonths: 24,
		TokenTTLHours:  48,
		Currency:       "USD",
	})
	directory := fakeDirectory{byEmail: map[string]*identity.Identity{}}
	redemptionSvc := NewRedemptionService(
		cardRepo,
		repository.NewRedemptionRepository(db),
		walletSvc,
		directory,
		LogNotificationSender{},
	)
	return &redemptionTestEnv{
		db:            db,
		giftCardSvc:   giftCardSvc,
		walletSvc:     walletSvc,
		redemptionSvc: redemptionSvc,
		directory:     directory,
	}
}

func (env *redemptionTestEnv) activateCard(t *testing.T, amount models.Money, recipientEmail string) *ActivateGiftCardResult {
	t.Helper()
	result, err := env.giftCardSvc.ActivateGiftCard(ActivateGiftCardInput{
		FaceAmount:     amount,
		RecipientName:  "收卡人",
		RecipientEmail: recipientEmail,
	})
	if err != nil {
		t.Fatalf("activate gift card failed: %v", err)
	}
	return result
}

func TestRedemptionServiceValidateToken(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	result := env.activateCard(t, models.Money(5000), "holder@example.com")

	card, err := env.redemptionSvc.ValidateToken(result.Token)
	if err != nil {
		t.Fatalf("validate token failed: %v", err)
	}
	if card.ID != result.Card.ID {
		t.Fatalf("expected card %d, got: %d", result.Card.ID, card.ID)
	}

	_, err = env.redemptionSvc.ValidateToken("deadbeefdeadbeefdeadbeefdeadbeef")
	if !errors.Is(err, ErrRedeemTokenInvalid) {
		t.Fatalf("expected ErrRedeemTokenInvalid for unknown token, got: %v", err)
	}
	_, err = env.redemptionSvc.ValidateToken("")
	if !errors.Is(err, ErrRedeemTokenInvalid) {
		t.Fatalf("expected ErrRedeemTokenInvalid for empty token, got: %v", err)
	}
}

func TestRedemptionServiceValidateTokenExpiredToken(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	result := env.activateCard(t, models.Money(5000), "holder@example.com")

	staleAt := time.Now().Add(-1 * time.Hour)
	if err := env.db.Model(&models.GiftCard{}).
		Where("id = ?", result.Card.ID).
		Update("token_expires_at", staleAt).Error; err != nil {
		t.Fatalf("backdate token expiry failed: %v", err)
	}

	_, err := env.redemptionSvc.ValidateToken(result.Token)
	if !errors.Is(err, ErrRedeemTokenExpired) {
		t.Fatalf("expected ErrRedeemTokenExpired, got: %v", err)
	}

	// 令牌过期不影响卡本身的状态
	var stored models.GiftCard
	if err := env.db.First(&stored, result.Card.ID).Error; err != nil {
		t.Fatalf("query card failed: %v", err)
	}
	if stored.Status != models.GiftCardStatusActive {
		t.Fatalf("expected card still active, got: %s", stored.Status)
	}
}

func TestRedemptionServiceValidateTokenExpiredCard(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	result := env.activateCard(t, models.Money(5000), "holder@example.com")

	staleAt := time.Now().Add(-1 * time.Hour)
	if err := env.db.Model(&models.GiftCard{}).
		Where("id = ?", result.Card.ID).
		Update("expires_at", staleAt).Error; err != nil {
		t.Fatalf("backdate card expiry failed: %v", err)
	}

	_, err := env.redemptionSvc.ValidateToken(result.Token)
	if !errors.Is(err, ErrGiftCardExpired) {
		t.Fatalf("expected ErrGiftCardExpired, got: %v", err)
	}

	var stored models.GiftCard
	if err := env.db.First(&stored, result.Card.ID).Error; err != nil {
		t.Fatalf("query card failed: %v", err)
	}
	if stored.Status != models.GiftCardStatusExpired {
		t.Fatalf("expected expired status persisted, got: %s", stored.Status)
	}
}

func TestRedemptionServiceVerifyIdentityFlows(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	result := env.activateCard(t, models.Money(5000), "holder@example.com")
	ctx := context.Background()

	// 邮箱不匹配
	_, err := env.redemptionSvc.VerifyIdentity(ctx, VerifyIdentityInput{
		Token: result.Token,
		Email: "stranger@example.com",
	})
	if !errors.Is(err, ErrRedeemEmailMismatch) {
		t.Fatalf("expected ErrRedeemEmailMismatch, got: %v", err)
	}

	// 未登录且目录无此身份
	verify, err := env.redemptionSvc.VerifyIdentity(ctx, VerifyIdentityInput{
		Token: result.Token,
		Email: "holder@example.com",
	})
	if err != nil {
		t.Fatalf("verify identity failed: %v", err)
	}
	if verify.Flow != constants.RedeemFlowRequireSignup {
		t.Fatalf("expected require_signup flow, got: %s", verify.Flow)
	}

	// 目录中存在此身份
	env.directory.byEmail["holder@example.com"] = &identity.Identity{ID: "id-1", Email: "holder@example.com"}
	verify, err = env.redemptionSvc.VerifyIdentity(ctx, VerifyIdentityInput{
		Token: result.Token,
		Email: "holder@example.com",
	})
	if err != nil {
		t.Fatalf("verify identity failed: %v", err)
	}
	if verify.Flow != constants.RedeemFlowRequireLogin {
		t.Fatalf("expected require_login flow, got: %s", verify.Flow)
	}
	if verify.Identity == nil || verify.Identity.ID != "id-1" {
		t.Fatalf("expected directory identity in result, got: %+v", verify.Identity)
	}

	// 已登录且邮箱匹配，大小写不敏感
	verify, err = env.redemptionSvc.VerifyIdentity(ctx, VerifyIdentityInput{
		Token:          result.Token,
		Email:          "HOLDER@example.com",
		AuthedIdentity: &identity.Identity{ID: "id-1", Email: "holder@EXAMPLE.com"},
	})
	if err != nil {
		t.Fatalf("verify identity failed: %v", err)
	}
	if verify.Flow != constants.RedeemFlowDirect {
		t.Fatalf("expected direct flow, got: %s", verify.Flow)
	}
}

func TestRedemptionServiceExecuteWalletDisposition(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	result := env.activateCard(t, models.Money(5000), "holder@example.com")

	redemption, err := env.redemptionSvc.ExecuteRedemption(ExecuteRedemptionInput{
		Token:       result.Token,
		Identity:    identity.Identity{ID: "id-1", Email: "holder@example.com"},
		Disposition: constants.DispositionWallet,
	})
	if err != nil {
		t.Fatalf("execute redemption failed: %v", err)
	}
	if redemption.Card.Status != models.GiftCardStatusRedeemed {
		t.Fatalf("expected redeemed status, got: %s", redemption.Card.Status)
	}
	if redemption.Card.RemainingAmount != 0 {
		t.Fatalf("expected remaining 0, got: %d", redemption.Card.RemainingAmount)
	}
	if redemption.Record == nil || redemption.Record.Amount != models.Money(5000) {
		t.Fatalf("unexpected redemption record: %+v", redemption.Record)
	}
	if redemption.Account == nil || redemption.Account.Balance != models.Money(5000) {
		t.Fatalf("unexpected wallet account: %+v", redemption.Account)
	}
	if redemption.Transaction == nil || redemption.Transaction.Type != models.WalletTxnTypeCredit {
		t.Fatalf("unexpected wallet transaction: %+v", redemption.Transaction)
	}

	// 流水ID回填
	var storedCard models.GiftCard
	if err := env.db.First(&storedCard, result.Card.ID).Error; err != nil {
		t.Fatalf("query card failed: %v", err)
	}
	if storedCard.WalletTxnID == nil || *storedCard.WalletTxnID != redemption.Transaction.ID {
		t.Fatalf("expected wallet txn link on card, got: %+v", storedCard.WalletTxnID)
	}

	// 重复兑换被拒绝，余额不变
	_, err = env.redemptionSvc.ExecuteRedemption(ExecuteRedemptionInput{
		Token:       result.Token,
		Identity:    identity.Identity{ID: "id-1", Email: "holder@example.com"},
		Disposition: constants.DispositionWallet,
	})
	if !errors.Is(err, ErrGiftCardRedeemed) {
		t.Fatalf("expected ErrGiftCardRedeemed, got: %v", err)
	}
	account, err := env.walletSvc.GetAccount("id-1")
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.Balance != models.Money(5000) {
		t.Fatalf("expected balance unchanged at 5000, got: %d", account.Balance)
	}
}

func TestRedemptionServiceExecuteDirectDisposition(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	result := env.activateCard(t, models.Money(3000), "holder@example.com")

	redemption, err := env.redemptionSvc.ExecuteRedemption(ExecuteRedemptionInput{
		Token:       result.Token,
		Identity:    identity.Identity{ID: "id-2", Email: "holder@example.com"},
		Disposition: constants.DispositionDirect,
	})
	if err != nil {
		t.Fatalf("execute redemption failed: %v", err)
	}
	if redemption.Card.Status != models.GiftCardStatusRedeemed {
		t.Fatalf("expected redeemed status, got: %s", redemption.Card.Status)
	}
	if redemption.Account != nil || redemption.Transaction != nil {
		t.Fatalf("direct disposition should not touch wallet, got account=%+v txn=%+v",
			redemption.Account, redemption.Transaction)
	}

	var txnCount int64
	if err := env.db.Model(&models.WalletTransaction{}).Count(&txnCount).Error; err != nil {
		t.Fatalf("count transactions failed: %v", err)
	}
	if txnCount != 0 {
		t.Fatalf("expected no wallet transactions, got: %d", txnCount)
	}
}

func TestRedemptionServiceExecuteValidation(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	result := env.activateCard(t, models.Money(3000), "holder@example.com")

	_, err := env.redemptionSvc.ExecuteRedemption(ExecuteRedemptionInput{
		Token:       result.Token,
		Identity:    identity.Identity{ID: "id-3", Email: "holder@example.com"},
		Disposition: "paypal",
	})
	if !errors.Is(err, ErrRedeemInvalidDisposition) {
		t.Fatalf("expected ErrRedeemInvalidDisposition, got: %v", err)
	}

	_, err = env.redemptionSvc.ExecuteRedemption(ExecuteRedemptionInput{
		Token:       result.Token,
		Identity:    identity.Identity{ID: "id-3", Email: "someone-else@example.com"},
		Disposition: constants.DispositionWallet,
	})
	if !errors.Is(err, ErrRedeemEmailMismatch) {
		t.Fatalf("expected ErrRedeemEmailMismatch, got: %v", err)
	}

	_, err = env.redemptionSvc.ExecuteRedemption(ExecuteRedemptionInput{
		Token:       result.Token,
		Identity:    identity.Identity{Email: "holder@example.com"},
		Disposition: constants.DispositionWallet,
	})
	if !errors.Is(err, ErrRedeemIdentityMismatch) {
		t.Fatalf("expected ErrRedeemIdentityMismatch for missing identity, got: %v", err)
	}
}

func TestRedemptionServicePartiallyUsedCardNotRedeemable(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	result := env.activateCard(t, models.Money(10000), "holder@example.com")

	if _, _, err := env.giftCardSvc.RecordUse(RecordUseInput{
		GiftCardID: result.Card.ID,
		Amount:     models.Money(4000),
	}); err != nil {
		t.Fatalf("record use failed: %v", err)
	}

	// 门店核销过的卡不再接受线上兑换
	_, err := env.redemptionSvc.ValidateToken(result.Token)
	if !errors.Is(err, ErrGiftCardNotActive) {
		t.Fatalf("expected ErrGiftCardNotActive from validate, got: %v", err)
	}
	_, err = env.redemptionSvc.ExecuteRedemption(ExecuteRedemptionInput{
		Token:       result.Token,
		Identity:    identity.Identity{ID: "id-4", Email: "holder@example.com"},
		Disposition: constants.DispositionWallet,
	})
	if !errors.Is(err, ErrGiftCardNotActive) {
		t.Fatalf("expected ErrGiftCardNotActive from execute, got: %v", err)
	}

	// 卡与钱包均未变动
	var stored models.GiftCard
	if err := env.db.First(&stored, result.Card.ID).Error; err != nil {
		t.Fatalf("query card failed: %v", err)
	}
	if stored.Status != models.GiftCardStatusPartiallyUsed || stored.RemainingAmount != models.Money(6000) {
		t.Fatalf("expected partially_used card untouched, got status=%s remaining=%d",
			stored.Status, stored.RemainingAmount)
	}
	var txnCount int64
	if err := env.db.Model(&models.WalletTransaction{}).Count(&txnCount).Error; err != nil {
		t.Fatalf("count transactions failed: %v", err)
	}
	if txnCount != 0 {
		t.Fatalf("expected no wallet transactions, got: %d", txnCount)
	}
}

func TestRedemptionServiceUnboundCardSkipsEmailMatch(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	// 自购卡不绑定受赠邮箱，任意邮箱均可核验与兑换
	result := env.activateCard(t, models.Money(4000), "")
	ctx := context.Background()

	verify, err := env.redemptionSvc.VerifyIdentity(ctx, VerifyIdentityInput{
		Token: result.Token,
		Email: "anyone@example.com",
	})
	if err != nil {
		t.Fatalf("verify identity on unbound card failed: %v", err)
	}
	if verify.Flow != constants.RedeemFlowRequireSignup {
		t.Fatalf("expected require_signup flow, got: %s", verify.Flow)
	}

	redemption, err := env.redemptionSvc.ExecuteRedemption(ExecuteRedemptionInput{
		Token:       result.Token,
		Identity:    identity.Identity{ID: "id-7", Email: "anyone@example.com"},
		Disposition: constants.DispositionWallet,
	})
	if err != nil {
		t.Fatalf("execute redemption on unbound card failed: %v", err)
	}
	if redemption.Account == nil || redemption.Account.Balance != models.Money(4000) {
		t.Fatalf("unexpected wallet account: %+v", redemption.Account)
	}
}

type expireWriteFailRepo struct {
	repository.GiftCardRepository
}

func (r expireWriteFailRepo) Update(*models.GiftCard) error {
	return errors.New("update rejected")
}

func TestRedemptionServiceValidateTokenExpiryPersistFailure(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	result := env.activateCard(t, models.Money(5000), "holder@example.com")

	staleAt := time.Now().Add(-1 * time.Hour)
	if err := env.db.Model(&models.GiftCard{}).
		Where("id = ?", result.Card.ID).
		Update("expires_at", staleAt).Error; err != nil {
		t.Fatalf("backdate card expiry failed: %v", err)
	}

	svc := NewRedemptionService(
		expireWriteFailRepo{repository.NewGiftCardRepository(env.db)},
		repository.NewRedemptionRepository(env.db),
		env.walletSvc,
		env.directory,
		LogNotificationSender{},
	)

	// 状态落地失败仍然返回过期错误
	_, err := svc.ValidateToken(result.Token)
	if !errors.Is(err, ErrGiftCardExpired) {
		t.Fatalf("expected ErrGiftCardExpired despite persist failure, got: %v", err)
	}

	var stored models.GiftCard
	if err := env.db.First(&stored, result.Card.ID).Error; err != nil {
		t.Fatalf("query card failed: %v", err)
	}
	if stored.Status != models.GiftCardStatusActive {
		t.Fatalf("expected status untouched after failed persist, got: %s", stored.Status)
	}
}

func TestRedemptionServiceValidateTokenRecordTakesPrecedence(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	result := env.activateCard(t, models.Money(5000), "holder@example.com")

	if _, err := env.redemptionSvc.ExecuteRedemption(ExecuteRedemptionInput{
		Token:       result.Token,
		Identity:    identity.Identity{ID: "id-8", Email: "holder@example.com"},
		Disposition: constants.DispositionDirect,
	}); err != nil {
		t.Fatalf("execute redemption failed: %v", err)
	}

	// 状态被误改回 active，兑换记录仍然判定为已兑换
	if err := env.db.Model(&models.GiftCard{}).
		Where("id = ?", result.Card.ID).
		Updates(map[string]interface{}{
			"status":           models.GiftCardStatusActive,
			"remaining_amount": models.Money(5000),
		}).Error; err != nil {
		t.Fatalf("reset card status failed: %v", err)
	}

	_, err := env.redemptionSvc.ValidateToken(result.Token)
	if !errors.Is(err, ErrGiftCardRedeemed) {
		t.Fatalf("expected ErrGiftCardRedeemed from record check, got: %v", err)
	}
}

func TestRedemptionServiceExecuteConcurrentExactlyOnce(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	result := env.activateCard(t, models.Money(5000), "holder@example.com")

	const workers = 20
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.redemptionSvc.ExecuteRedemption(ExecuteRedemptionInput{
				Token:       result.Token,
				Identity:    identity.Identity{ID: "id-5", Email: "holder@example.com"},
				Disposition: constants.DispositionWallet,
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	succeeded := 0
	rejected := 0
	for err := range errCh {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrGiftCardRedeemed):
			rejected++
		default:
			t.Fatalf("unexpected concurrent error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful redemption, got: %d", succeeded)
	}
	if rejected != workers-1 {
		t.Fatalf("expected %d rejected redemptions, got: %d", workers-1, rejected)
	}

	var recordCount int64
	if err := env.db.Model(&models.RedemptionRecord{}).
		Where("gift_card_id = ?", result.Card.ID).
		Count(&recordCount).Error; err != nil {
		t.Fatalf("count records failed: %v", err)
	}
	if recordCount != 1 {
		t.Fatalf("expected one redemption record, got: %d", recordCount)
	}

	account, err := env.walletSvc.GetAccount("id-5")
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.Balance != models.Money(5000) {
		t.Fatalf("expected single credit of 5000, got balance: %d", account.Balance)
	}
}

func TestRedemptionServiceExecutePartialFailure(t *testing.T) {
	env := setupRedemptionServiceTest(t)
	result := env.activateCard(t, models.Money(5000), "holder@example.com")

	// 钱包仓储指向未建表的库，入账必然失败
	brokenDSN := fmt.Sprintf("file:redemption_broken_wallet_%d?mode=memory&cache=shared", time.Now().UnixNano())
	brokenDB, err := gorm.Open(sqlite.Open(brokenDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open broken sqlite failed: %v", err)
	}
	brokenWalletSvc := NewWalletService(repository.NewWalletRepository(brokenDB), "USD")
	svc := NewRedemptionService(
		repository.NewGiftCardRepository(env.db),
		repository.NewRedemptionRepository(env.db),
		brokenWalletSvc,
		env.directory,
		LogNotificationSender{},
	)

	redemption, err := svc.ExecuteRedemption(ExecuteRedemptionInput{
		Token:       result.Token,
		Identity:    identity.Identity{ID: "id-6", Email: "holder@example.com"},
		Disposition: constants.DispositionWallet,
	})
	if !errors.Is(err, ErrRedemptionPartialFailure) {
		t.Fatalf("expected ErrRedemptionPartialFailure, got: %v", err)
	}
	if redemption == nil || redemption.Card == nil {
		t.Fatal("partial failure should still return the committed card")
	}

	// 兑换记录与卡状态已提交，补账依赖幂等引用
	var stored models.GiftCard
	if err := env.db.First(&stored, result.Card.ID).Error; err != nil {
		t.Fatalf("query card failed: %v", err)
	}
	if stored.Status != models.GiftCardStatusRedeemed {
		t.Fatalf("expected redeemed status after partial failure, got: %s", stored.Status)
	}

	// 人工补账：同一幂等引用在正常钱包上重放
	reference := fmt.Sprintf("gift_card:%d:redeem", result.Card.ID)
	account, _, err := env.walletSvc.Credit(WalletCreditInput{
		Identity:  "id-6",
		Amount:    redemption.Record.Amount,
		Currency:  stored.Currency,
		Reference: reference,
	})
	if err != nil {
		t.Fatalf("replay credit failed: %v", err)
	}
	if account.Balance != models.Money(5000) {
		t.Fatalf("expected replayed balance 5000, got: %d", account.Balance)
	}
}
