package models

import (
	"context"
	"time"

	"bitbucket.org/datafokus/bizplan_backend/config"
	"bitbucket.org/datafokus/bizplan_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Business struct {
	ID          uuid.UUID `gorm:"type:char(36);primary_key" json:"id"`
	OwnerUserId int       `gorm:"index;not null" json:"owner_user_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Sector      string    `gorm:"size:255" json:"sector"`
	Timezone    string    `gorm:"size:64" json:"timezone"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// GetBusinessById reads through the Redis cache; recompute paths hit this on
// every period, a business row almost never changes.
func GetBusinessById(ctx context.Context, businessId string) (*Business, error) {
	var business Business

	exists, err := config.GetRedisObject("Business:"+businessId, &business)
	if err != nil {
		return nil, err
	}
	if !exists {
		db := config.GetDB()
		if err := db.WithContext(ctx).Where("id = ?", businessId).First(&business).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, utils.ErrorRecordNotFound
			}
			return nil, err
		}
		if err := config.SetRedisObject("Business:"+businessId, &business, 0); err != nil {
			return nil, err
		}
	}
	return &business, nil
}

// GetBusinessById2 bypasses the cache and reads on the caller's transaction.
func GetBusinessById2(tx *gorm.DB, businessId string) (*Business, error) {
	var business Business
	if err := tx.Where("id = ?", businessId).First(&business).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &business, nil
}
