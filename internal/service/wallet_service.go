package service

import (
	"strings"
	"time"

	"github.com/giftvault/internal/constants"
	"github.com/giftvault/internal/models"
	"github.com/giftvault/internal/repository"

	"gorm.io/gorm"
)

// WalletService 钱包服务
type WalletService struct {
	walletRepo repository.WalletRepository
	currency   string
}

// WalletCreditInput 钱包入账输入
type WalletCreditInput struct {
	Identity    string
	Amount      models.Money
	Currency    string
	Reference   string
	Description string
}

// WalletDebitInput 钱包扣减输入
type WalletDebitInput struct {
	Identity    string
	Amount      models.Money
	Currency    string
	Reference   string
	Description string
}

// NewWalletService 创建钱包服务
func NewWalletService(walletRepo repository.WalletRepository, currency string) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		currency:   normalizeWalletCurrency(currency),
	}
}

// GetAccount 获取钱包账户（不存在时自动创建）
func (s *WalletService) GetAccount(identity string) (*models.WalletAccount, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, ErrWalletAccountNotFound
	}
	return s.getOrCreateAccount(identity)
}

// GetAccountByID 按账户ID查询钱包账户
func (s *WalletService) GetAccountByID(id uint) (*models.WalletAccount, error) {
	account, err := s.walletRepo.GetAccountByID(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrWalletAccountNotFound
	}
	return account, nil
}

// ListAccounts 分页查询钱包账户
func (s *WalletService) ListAccounts(filter repository.WalletAccountListFilter) ([]models.WalletAccount, int64, error) {
	return s.walletRepo.ListAccounts(filter)
}

// ListTransactions 分页查询钱包流水
func (s *WalletService) ListTransactions(filter repository.WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(filter)
}

// Credit 钱包入账（独立事务）
func (s *WalletService) Credit(input WalletCreditInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	var accountResult *models.WalletAccount
	var txnResult *models.WalletTransaction
	if err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		account, txn, err := s.CreditInTx(tx, input)
		if err != nil {
			return err
		}
		accountResult = account
		txnResult = txn
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return accountResult, txnResult, nil
}

// CreditInTx 在事务内执行钱包入账并写入唯一参考号流水；同一参考号重复调用幂等返回首次流水
func (s *WalletService) CreditInTx(tx *gorm.DB, input WalletCreditInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	if tx == nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	identity := strings.TrimSpace(input.Identity)
	if identity == "" {
		return nil, nil, ErrWalletAccountNotFound
	}
	if !input.Amount.IsPositive() {
		return nil, nil, ErrWalletInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	description := cleanWalletDescription(input.Description, "钱包入账")
	now := time.Now()
	repo := s.walletRepo.WithTx(tx)

	exists, err := repo.GetTransactionByReference(reference)
	if err != nil {
		return nil, nil, err
	}
	if exists != nil {
		account, accountErr := repo.GetAccountByIdentity(identity)
		if accountErr != nil {
			return nil, nil, accountErr
		}
		if account == nil {
			account, accountErr = s.ensureAccountForUpdate(repo, identity, now)
			if accountErr != nil {
				return nil, nil, accountErr
			}
		}
		return account, exists, nil
	}

	account, err := s.ensureAccountForUpdate(repo, identity, now)
	if err != nil {
		return nil, nil, err
	}
	before := account.Balance
	after := before + input.Amount
	account.Balance = after
	account.UpdatedAt = now
	if err := repo.UpdateAccount(account); err != nil {
		return nil, nil, ErrWalletAccountUpdateFailed
	}

	txn := &models.WalletTransaction{
		WalletID:      account.ID,
		Type:          models.WalletTxnTypeCredit,
		Amount:        input.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Currency:      s.resolveCurrency(input.Currency),
		Reference:     reference,
		Description:   description,
		CreatedAt:     now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	return account, txn, nil
}

// Debit 钱包扣减（独立事务，余额不足直接失败）
func (s *WalletService) Debit(input WalletDebitInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	identity := strings.TrimSpace(input.Identity)
	if identity == "" {
		return nil, nil, ErrWalletAccountNotFound
	}
	if !input.Amount.IsPositive() {
		return nil, nil, ErrWalletInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	description := cleanWalletDescription(input.Description, "钱包扣减")

	var accountResult *models.WalletAccount
	var txnResult *models.WalletTransaction
	if err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.walletRepo.WithTx(tx)
		now := time.Now()

		exists, err := repo.GetTransactionByReference(reference)
		if err != nil {
			return err
		}
		if exists != nil {
			account, accountErr := repo.GetAccountByIdentity(identity)
			if accountErr != nil {
				return accountErr
			}
			accountResult = account
			txnResult = exists
			return nil
		}

		account, err := s.ensureAccountForUpdate(repo, identity, now)
		if err != nil {
			return err
		}
		before := account.Balance
		after := before - input.Amount
		if after < 0 {
			return ErrWalletInsufficientBalance
		}
		account.Balance = after
		account.UpdatedAt = now
		if err := repo.UpdateAccount(account); err != nil {
			return ErrWalletAccountUpdateFailed
		}

		txn := &models.WalletTransaction{
			WalletID:      account.ID,
			Type:          models.WalletTxnTypeDebit,
			Amount:        input.Amount,
			BalanceBefore: before,
			BalanceAfter:  after,
			Currency:      s.resolveCurrency(input.Currency),
			Reference:     reference,
			Description:   description,
			CreatedAt:     now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return ErrWalletTransactionCreateFailed
		}
		accountResult = account
		txnResult = txn
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return accountResult, txnResult, nil
}

// DerivedBalance 按流水链汇总推导余额，用于对账
func (s *WalletService) DerivedBalance(walletID uint) (models.Money, error) {
	return s.walletRepo.SumTransactions(walletID)
}

func (s *WalletService) getOrCreateAccount(identity string) (*models.WalletAccount, error) {
	account, err := s.walletRepo.GetAccountByIdentity(identity)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	now := time.Now()
	account = &models.WalletAccount{
		Identity:  identity,
		Balance:   0,
		Currency:  s.currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.CreateAccount(account); err != nil {
		created, queryErr := s.walletRepo.GetAccountByIdentity(identity)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

func (s *WalletService) ensureAccountForUpdate(repo *repository.GormWalletRepository, identity string, now time.Time) (*models.WalletAccount, error) {
	account, err := repo.GetAccountByIdentityForUpdate(identity)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.WalletAccount{
		Identity:  identity,
		Balance:   0,
		Currency:  s.currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(account); err != nil {
		created, queryErr := repo.GetAccountByIdentityForUpdate(identity)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

func (s *WalletService) resolveCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		return s.currency
	}
	return normalized
}

func normalizeWalletCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		return constants.SiteCurrencyDefault
	}
	return normalized
}

func cleanWalletDescription(raw string, fallback string) string {
	description := strings.TrimSpace(raw)
	if description == "" {
		return fallback
	}
	return description
}
