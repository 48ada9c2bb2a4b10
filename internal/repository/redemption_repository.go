package repository

import (
	"errors"

	"github.com/giftvault/internal/models"

	"gorm.io/gorm"
)

// RedemptionRepository 兑换记录仓储接口
type RedemptionRepository interface {
	Create(record *models.RedemptionRecord) error
	GetByGiftCardID(giftCardID uint) (*models.RedemptionRecord, error)
	WithTx(tx *gorm.DB) *GormRedemptionRepository
}

// GormRedemptionRepository GORM 兑换记录仓储实现
type GormRedemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository 创建兑换记录仓储
func NewRedemptionRepository(db *gorm.DB) *GormRedemptionRepository {
	return &GormRedemptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRedemptionRepository) WithTx(tx *gorm.DB) *GormRedemptionRepository {
	if tx == nil {
		return r
	}
	return &GormRedemptionRepository{db: tx}
}

// Create 写入兑换记录（gift_card_id 唯一键冲突即表示已兑换）
func (r *GormRedemptionRepository) Create(record *models.RedemptionRecord) error {
	if record == nil {
		return errors.New("invalid redemption record")
	}
	return r.db.Create(record).Error
}

// GetByGiftCardID 按礼品卡ID查询兑换记录
func (r *GormRedemptionRepository) GetByGiftCardID(giftCardID uint) (*models.RedemptionRecord, error) {
	if giftCardID == 0 {
		return nil, nil
	}
	var record models.RedemptionRecord
	if err := r.db.Where("gift_card_id = ?", giftCardID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
