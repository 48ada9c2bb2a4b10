package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/giftvault/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GiftCardRepository 礼品卡仓储接口
type GiftCardRepository interface {
	Create(card *models.GiftCard) error
	GetByID(id uint) (*models.GiftCard, error)
	GetByIDForUpdate(id uint) (*models.GiftCard, error)
	GetByCode(code string) (*models.GiftCard, error)
	GetByTokenHash(tokenHash string) (*models.GiftCard, error)
	GetByTokenHashForUpdate(tokenHash string) (*models.GiftCard, error)
	List(filter GiftCardListFilter) ([]models.GiftCard, int64, error)
	Update(card *models.GiftCard) error
	CreateUsage(usage *models.GiftCardUsage) error
	ListUsages(filter GiftCardUsageListFilter) ([]models.GiftCardUsage, int64, error)
	ExpireDue(now time.Time) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormGiftCardRepository
}

// GormGiftCardRepository GORM 礼品卡仓储实现
type GormGiftCardRepository struct {
	db *gorm.DB
}

// NewGiftCardRepository 创建礼品卡仓储
func NewGiftCardRepository(db *gorm.DB) *GormGiftCardRepository {
	return &GormGiftCardRepository{db: db}
}

// Transaction 在数据库事务内执行
func (r *GormGiftCardRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormGiftCardRepository) WithTx(tx *gorm.DB) *GormGiftCardRepository {
	if tx == nil {
		return r
	}
	return &GormGiftCardRepository{db: tx}
}

// Create 创建礼品卡
func (r *GormGiftCardRepository) Create(card *models.GiftCard) error {
	if card == nil {
		return errors.New("invalid gift card")
	}
	return r.db.Create(card).Error
}

// GetByID 根据 ID 查询礼品卡
func (r *GormGiftCardRepository) GetByID(id uint) (*models.GiftCard, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByIDForUpdate 根据 ID 加锁查询礼品卡
func (r *GormGiftCardRepository) GetByIDForUpdate(id uint) (*models.GiftCard, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByCode 根据卡号查询礼品卡
func (r *GormGiftCardRepository) GetByCode(code string) (*models.GiftCard, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Where("code = ?", code).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByTokenHash 根据令牌摘要查询礼品卡
func (r *GormGiftCardRepository) GetByTokenHash(tokenHash string) (*models.GiftCard, error) {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Where("token_hash = ?", tokenHash).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByTokenHashForUpdate 根据令牌摘要加锁查询礼品卡
func (r *GormGiftCardRepository) GetByTokenHashForUpdate(tokenHash string) (*models.GiftCard, error) {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return nil, nil
	}
	var card models.GiftCard
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token_hash = ?", tokenHash).
		First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// List 查询礼品卡列表
func (r *GormGiftCardRepository) List(filter GiftCardListFilter) ([]models.GiftCard, int64, error) {
	query := r.db.Model(&models.GiftCard{})
	if code := strings.TrimSpace(strings.ToUpper(filter.Code)); code != "" {
		query = query.Where("code LIKE ?", "%"+code+"%")
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		now := time.Now()
		switch status {
		case models.GiftCardStatusExpired:
			query = query.Where("status = ? OR (status IN ? AND expires_at IS NOT NULL AND expires_at < ?)",
				models.GiftCardStatusExpired,
				[]string{models.GiftCardStatusActive, models.GiftCardStatusPartiallyUsed},
				now)
		case models.GiftCardStatusActive:
			query = query.Where("status = ? AND (expires_at IS NULL OR expires_at >= ?)", models.GiftCardStatusActive, now)
		default:
			query = query.Where("status = ?", status)
		}
	}
	if email := strings.TrimSpace(filter.PurchaserEmail); email != "" {
		query = query.Where("purchaser_email LIKE ?", "%"+email+"%")
	}
	if email := strings.TrimSpace(filter.RecipientEmail); email != "" {
		query = query.Where("recipient_email LIKE ?", "%"+email+"%")
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	if filter.ExpiresFrom != nil {
		query = query.Where("expires_at >= ?", *filter.ExpiresFrom)
	}
	if filter.ExpiresTo != nil {
		query = query.Where("expires_at <= ?", *filter.ExpiresTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var cards []models.GiftCard
	if err := query.Order("id desc").Find(&cards).Error; err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// Update 更新礼品卡
func (r *GormGiftCardRepository) Update(card *models.GiftCard) error {
	if card == nil {
		return errors.New("invalid gift card")
	}
	return r.db.Save(card).Error
}

// CreateUsage 创建核销记录
func (r *GormGiftCardRepository) CreateUsage(usage *models.GiftCardUsage) error {
	if usage == nil {
		return errors.New("invalid gift card usage")
	}
	return r.db.Create(usage).Error
}

// ExpireDue 批量把超过有效期的卡置为过期，返回影响行数
func (r *GormGiftCardRepository) ExpireDue(now time.Time) (int64, error) {
	result := r.db.Model(&models.GiftCard{}).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at < ?",
			[]string{models.GiftCardStatusActive, models.GiftCardStatusPartiallyUsed},
			now).
		Updates(map[string]interface{}{
			"status":     models.GiftCardStatusExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListUsages 分页查询核销记录
func (r *GormGiftCardRepository) ListUsages(filter GiftCardUsageListFilter) ([]models.GiftCardUsage, int64, error) {
	query := r.db.Model(&models.GiftCardUsage{})
	if filter.GiftCardID != 0 {
		query = query.Where("gift_card_id = ?", filter.GiftCardID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var usages []models.GiftCardUsage
	if err := query.Order("id desc").Find(&usages).Error; err != nil {
		return nil, 0, err
	}
	return usages, total, nil
}
