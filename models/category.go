package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/datafokus/bizplan_backend/config"
)

// MaintenanceCategoryName is the legacy display name the fixed-assets
// heuristic matched before roles existed. It is only consulted for
// categories that carry no role tag; renaming such a category still breaks
// the heuristic, which is exactly why new data should set Role instead.
const MaintenanceCategoryName = "Perawatan & Maintenance"

type Category struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Type      CategoryType    `gorm:"type:enum('income','expense');not null;index" json:"type"`
	Subtype   CategorySubtype `gorm:"type:enum('operating_revenue','non_operating_revenue','cogs','operating_expense','interest_expense','tax_expense');not null;index" json:"subtype"`
	Role      CategoryRole    `gorm:"size:32;default:''" json:"role"`
	IsActive  *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsMaintenance reports whether expense amounts of this category feed the
// fixed-assets heuristic. Role tag wins; name match is the compatibility
// fallback for untagged rows.
func (c *Category) IsMaintenance() bool {
	if c == nil {
		return false
	}
	if c.Role != CategoryRoleNone {
		return c.Role == CategoryRoleMaintenance
	}
	return c.Name == MaintenanceCategoryName
}

type NewCategory struct {
	Name    string          `json:"name" validate:"required,max=255"`
	Type    CategoryType    `json:"type" validate:"required,oneof=income expense"`
	Subtype CategorySubtype `json:"subtype" validate:"required,oneof=operating_revenue non_operating_revenue cogs operating_expense interest_expense tax_expense"`
	Role    CategoryRole    `json:"role" validate:"omitempty,oneof=maintenance"`
}

func CreateCategory(ctx context.Context, input NewCategory) (*Category, error) {
	if err := ValidateInput(input); err != nil {
		return nil, err
	}
	if input.Subtype.Type() != input.Type {
		return nil, errors.New("subtype does not belong to category type")
	}

	category := Category{
		Name:    input.Name,
		Type:    input.Type,
		Subtype: input.Subtype,
		Role:    input.Role,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	_ = config.RemoveRedisKey("Categories")
	return &category, nil
}

// GetCategories returns the full catalog through the Redis cache. Categories
// are read-only input for the rollup, so a flat cache is safe.
func GetCategories(ctx context.Context) ([]*Category, error) {
	var categories []*Category

	exists, err := config.GetRedisObject("Categories", &categories)
	if err != nil {
		return nil, err
	}
	if !exists {
		db := config.GetDB()
		if err := db.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
			return nil, err
		}
		if err := config.SetRedisObject("Categories", &categories, 0); err != nil {
			return nil, err
		}
	}
	return categories, nil
}
