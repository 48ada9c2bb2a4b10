package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/giftvault/internal/models"
	"github.com/giftvault/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupWalletServiceTest(t *testing.T) (*WalletService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.WalletAccount{},
		&models.WalletTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	svc := NewWalletService(repository.NewWalletRepository(db), "USD")
	return svc, db
}

func TestWalletServiceCreditCreatesAccountAndChain(t *testing.T) {
	svc, _ := setupWalletServiceTest(t)

	account, txn, err := svc.Credit(WalletCreditInput{
		Identity:  "identity-1",
		Amount:    models.Money(5000),
		Reference: "test:credit:1",
	})
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if account == nil || account.Balance != models.Money(5000) {
		t.Fatalf("unexpected account: %+v", account)
	}
	if txn == nil || txn.Type != models.WalletTxnTypeCredit {
		t.Fatalf("unexpected transaction: %+v", txn)
	}
	if txn.BalanceBefore != 0 || txn.BalanceAfter != models.Money(5000) {
		t.Fatalf("unexpected balance chain: before=%d after=%d", txn.BalanceBefore, txn.BalanceAfter)
	}
	if txn.Currency != "USD" {
		t.Fatalf("expected currency USD, got: %s", txn.Currency)
	}

	account2, txn2, err := svc.Credit(WalletCreditInput{
		Identity:  "identity-1",
		Amount:    models.Money(2500),
		Reference: "test:credit:2",
	})
	if err != nil {
		t.Fatalf("second credit failed: %v", err)
	}
	if account2.Balance != models.Money(7500) {
		t.Fatalf("expected balance 7500, got: %d", account2.Balance)
	}
	if txn2.BalanceBefore != models.Money(5000) || txn2.BalanceAfter != models.Money(7500) {
		t.Fatalf("unexpected balance chain: before=%d after=%d", txn2.BalanceBefore, txn2.BalanceAfter)
	}
}

func TestWalletServiceCreditIdempotentReference(t *testing.T) {
	svc, _ := setupWalletServiceTest(t)

	first, firstTxn, err := svc.Credit(WalletCreditInput{
		Identity:  "identity-2",
		Amount:    models.Money(1000),
		Reference: "gift_card:42:redeem",
	})
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}

	second, secondTxn, err := svc.Credit(WalletCreditInput{
		Identity:  "identity-2",
		Amount:    models.Money(1000),
		Reference: "gift_card:42:redeem",
	})
	if err != nil {
		t.Fatalf("repeat credit failed: %v", err)
	}
	if secondTxn.ID != firstTxn.ID {
		t.Fatalf("expected same transaction on repeat, got %d and %d", firstTxn.ID, secondTxn.ID)
	}
	if second.Balance != first.Balance {
		t.Fatalf("expected unchanged balance %d, got: %d", first.Balance, second.Balance)
	}
}

func TestWalletServiceDebit(t *testing.T) {
	svc, _ := setupWalletServiceTest(t)

	if _, _, err := svc.Credit(WalletCreditInput{
		Identity:  "identity-3",
		Amount:    models.Money(3000),
		Reference: "test:credit:3",
	}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}

	account, txn, err := svc.Debit(WalletDebitInput{
		Identity:  "identity-3",
		Amount:    models.Money(1200),
		Reference: "test:debit:1",
	})
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if account.Balance != models.Money(1800) {
		t.Fatalf("expected balance 1800, got: %d", account.Balance)
	}
	if txn.Type != models.WalletTxnTypeDebit || txn.BalanceBefore != models.Money(3000) || txn.BalanceAfter != models.Money(1800) {
		t.Fatalf("unexpected debit transaction: %+v", txn)
	}

	_, _, err = svc.Debit(WalletDebitInput{
		Identity:  "identity-3",
		Amount:    models.Money(99999),
		Reference: "test:debit:2",
	})
	if !errors.Is(err, ErrWalletInsufficientBalance) {
		t.Fatalf("expected ErrWalletInsufficientBalance, got: %v", err)
	}

	after, err := svc.GetAccount("identity-3")
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if after.Balance != models.Money(1800) {
		t.Fatalf("expected balance unchanged after failed debit, got: %d", after.Balance)
	}
}

func TestWalletServiceDebitRejectsInvalidAmount(t *testing.T) {
	svc, _ := setupWalletServiceTest(t)

	_, _, err := svc.Debit(WalletDebitInput{
		Identity:  "identity-4",
		Amount:    models.Money(0),
		Reference: "test:debit:zero",
	})
	if !errors.Is(err, ErrWalletInvalidAmount) {
		t.Fatalf("expected ErrWalletInvalidAmount, got: %v", err)
	}
	_, _, err = svc.Credit(WalletCreditInput{
		Identity:  "identity-4",
		Amount:    models.Money(-100),
		Reference: "test:credit:neg",
	})
	if !errors.Is(err, ErrWalletInvalidAmount) {
		t.Fatalf("expected ErrWalletInvalidAmount, got: %v", err)
	}
}

func TestWalletServiceDerivedBalanceMatchesAccount(t *testing.T) {
	svc, _ := setupWalletServiceTest(t)

	if _, _, err := svc.Credit(WalletCreditInput{
		Identity:  "identity-5",
		Amount:    models.Money(8000),
		Reference: "test:recon:credit:1",
	}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if _, _, err := svc.Credit(WalletCreditInput{
		Identity:  "identity-5",
		Amount:    models.Money(1500),
		Reference: "test:recon:credit:2",
	}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	account, txn, err := svc.Debit(WalletDebitInput{
		Identity:  "identity-5",
		Amount:    models.Money(2700),
		Reference: "test:recon:debit:1",
	})
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if txn.BalanceAfter != account.Balance {
		t.Fatalf("chain tail %d does not match balance %d", txn.BalanceAfter, account.Balance)
	}

	derived, err := svc.DerivedBalance(account.ID)
	if err != nil {
		t.Fatalf("derive balance failed: %v", err)
	}
	if derived != account.Balance {
		t.Fatalf("derived balance %d does not match stored balance %d", derived, account.Balance)
	}
}

func TestWalletServiceConcurrentCredits(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	const workers = 20
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _, err := svc.Credit(WalletCreditInput{
				Identity:  "identity-concurrent",
				Amount:    models.Money(100),
				Reference: fmt.Sprintf("test:concurrent:%d", n),
			})
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent credit failed: %v", err)
		}
	}

	account, err := svc.GetAccount("identity-concurrent")
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.Balance != models.Money(workers*100) {
		t.Fatalf("expected balance %d, got: %d", workers*100, account.Balance)
	}
	derived, err := svc.DerivedBalance(account.ID)
	if err != nil {
		t.Fatalf("derive balance failed: %v", err)
	}
	if derived != account.Balance {
		t.Fatalf("derived balance %d does not match stored balance %d", derived, account.Balance)
	}
}
