package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/datafokus/bizplan_backend/config"
	"bitbucket.org/datafokus/bizplan_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Simulation is one planned financial transaction of a business plan.
// Only status=completed rows participate in summary aggregation; everything
// else is inert input the dashboard still lists.
type Simulation struct {
	ID             int              `gorm:"primary_key" json:"id"`
	UserId         int              `gorm:"not null;index:idx_sim_period,priority:1" json:"user_id"`
	BusinessId     string           `gorm:"size:64;not null;index:idx_sim_period,priority:2" json:"business_id"`
	CategoryId     int              `gorm:"index" json:"category_id"`
	Category       *Category        `gorm:"foreignKey:CategoryId" json:"category"`
	Type           CategoryType     `gorm:"type:enum('income','expense');not null" json:"type"`
	Name           string           `gorm:"size:255" json:"name"`
	Amount         decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"amount"`
	SimulationDate time.Time        `gorm:"not null;index:idx_sim_period,priority:3" json:"simulation_date"`
	Status         SimulationStatus `gorm:"type:enum('draft','completed','canceled');not null;default:'draft'" json:"status"`
	Notes          string           `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"deleted_at"`
}

type NewSimulation struct {
	UserId         int              `json:"user_id" validate:"required,gt=0"`
	BusinessId     string           `json:"business_id" validate:"required,uuid"`
	CategoryId     int              `json:"category_id" validate:"omitempty,gt=0"`
	Type           CategoryType     `json:"type" validate:"required,oneof=income expense"`
	Name           string           `json:"name" validate:"max=255"`
	Amount         decimal.Decimal  `json:"amount"`
	SimulationDate time.Time        `json:"simulation_date" validate:"required"`
	Status         SimulationStatus `json:"status" validate:"required,oneof=draft completed canceled"`
	Notes          string           `json:"notes"`
}

func (input NewSimulation) validateAmount() error {
	if input.Amount.IsNegative() {
		return errors.New("amount must not be negative")
	}
	return nil
}

func normalizeSimulationDate(ctx context.Context, businessId string, t time.Time) (time.Time, error) {
	timezone := utils.DefaultTimezone
	if business, err := GetBusinessById(ctx, businessId); err == nil && business.Timezone != "" {
		timezone = business.Timezone
	}
	return utils.ConvertToDate(t, timezone)
}

// CreateSimulation stores the record and enqueues the rollup event in the
// same transaction (transactional outbox). The caller never waits for, and
// never fails because of, the summary recompute.
func CreateSimulation(ctx context.Context, input NewSimulation) (*Simulation, error) {
	if err := ValidateInput(input); err != nil {
		return nil, err
	}
	if err := input.validateAmount(); err != nil {
		return nil, err
	}

	date, err := normalizeSimulationDate(ctx, input.BusinessId, input.SimulationDate)
	if err != nil {
		return nil, err
	}

	simulation := Simulation{
		UserId:         input.UserId,
		BusinessId:     input.BusinessId,
		CategoryId:     input.CategoryId,
		Type:           input.Type,
		Name:           input.Name,
		Amount:         input.Amount,
		SimulationDate: date,
		Status:         input.Status,
		Notes:          input.Notes,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&simulation).Error; err != nil {
			return err
		}
		return PublishToRollup(ctx, tx, &simulation, nil, PubSubMessageActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &simulation, nil
}

// UpdateSimulation replaces the mutable fields. The outbox event carries both
// snapshots so the worker can recompute the OLD period first when the date
// moved, then the new one.
func UpdateSimulation(ctx context.Context, id int, input NewSimulation) (*Simulation, error) {
	if err := ValidateInput(input); err != nil {
		return nil, err
	}
	if err := input.validateAmount(); err != nil {
		return nil, err
	}

	date, err := normalizeSimulationDate(ctx, input.BusinessId, input.SimulationDate)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var simulation Simulation
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ?", input.BusinessId).First(&simulation, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		oldSimulation := simulation

		simulation.CategoryId = input.CategoryId
		simulation.Type = input.Type
		simulation.Name = input.Name
		simulation.Amount = input.Amount
		simulation.SimulationDate = date
		simulation.Status = input.Status
		simulation.Notes = input.Notes
		if err := tx.Save(&simulation).Error; err != nil {
			return err
		}
		return PublishToRollup(ctx, tx, &simulation, &oldSimulation, PubSubMessageActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return &simulation, nil
}

// DeleteSimulation soft-deletes so the record can be restored from the trash.
func DeleteSimulation(ctx context.Context, businessId string, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var simulation Simulation
		if err := tx.Where("business_id = ?", businessId).First(&simulation, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if err := tx.Delete(&simulation).Error; err != nil {
			return err
		}
		return PublishToRollup(ctx, tx, nil, &simulation, PubSubMessageActionDelete)
	})
}

func RestoreSimulation(ctx context.Context, businessId string, id int) (*Simulation, error) {
	db := config.GetDB()
	var simulation Simulation
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("business_id = ? AND deleted_at IS NOT NULL", businessId).
			First(&simulation, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if err := tx.Unscoped().Model(&simulation).Update("deleted_at", nil).Error; err != nil {
			return err
		}
		simulation.DeletedAt = gorm.DeletedAt{}
		return PublishToRollup(ctx, tx, &simulation, nil, PubSubMessageActionRestore)
	})
	if err != nil {
		return nil, err
	}
	return &simulation, nil
}
