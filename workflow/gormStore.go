package workflow

import (
	"context"
	"errors"

	"bitbucket.org/datafokus/bizplan_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore backs both engine store interfaces with a gorm handle. The handle
// may be a live connection or an open transaction; the worker passes its
// message transaction so recomputes commit atomically with outbox bookkeeping.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Period bucketing happens in SQL on the stored date. simulation_date is
// already normalized to a plain date at write time, so MONTH()/YEAR() cannot
// disagree with the business timezone.

func (s *GormStore) CompletedSimulations(ctx context.Context, key PeriodKey) ([]*models.Simulation, error) {
	var simulations []*models.Simulation
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ? AND business_id = ? AND status = ?", key.UserId, key.BusinessId, models.SimulationStatusCompleted).
		Where("MONTH(simulation_date) = ? AND YEAR(simulation_date) = ?", key.Month, key.Year).
		Find(&simulations).Error
	if err != nil {
		return nil, err
	}
	return simulations, nil
}

func (s *GormStore) DistinctPeriods(ctx context.Context, filter RegenerateFilter) ([]PeriodKey, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Simulation{}).
		Select("user_id, business_id, MONTH(simulation_date) AS month, YEAR(simulation_date) AS year").
		Where("status = ?", models.SimulationStatusCompleted).
		Group("user_id, business_id, MONTH(simulation_date), YEAR(simulation_date)").
		Order("user_id, business_id, year, month")
	if filter.UserId > 0 {
		query = query.Where("user_id = ?", filter.UserId)
	}
	if filter.BusinessId != "" {
		query = query.Where("business_id = ?", filter.BusinessId)
	}
	if filter.Year > 0 {
		query = query.Where("YEAR(simulation_date) = ?", filter.Year)
	}

	var periods []PeriodKey
	if err := query.Scan(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

func (s *GormStore) GetSummary(ctx context.Context, key PeriodKey) (*models.FinancialSummary, error) {
	var summary models.FinancialSummary
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND business_id = ? AND month = ? AND year = ?", key.UserId, key.BusinessId, key.Month, key.Year).
		First(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// UpsertSummary races only with another recompute of the same period, which
// the advisory rollup lock already serializes; the ON CONFLICT clause covers
// the regenerate path where a row may or may not exist.
func (s *GormStore) UpsertSummary(ctx context.Context, summary *models.FinancialSummary) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "business_id"}, {Name: "month"}, {Name: "year"}},
			UpdateAll: true,
		}).
		Create(summary).Error
}

func (s *GormStore) DeleteSummary(ctx context.Context, key PeriodKey) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND business_id = ? AND month = ? AND year = ?", key.UserId, key.BusinessId, key.Month, key.Year).
		Delete(&models.FinancialSummary{}).Error
}

func (s *GormStore) DeleteSummaries(ctx context.Context, filter RegenerateFilter) error {
	query := applyRegenerateFilter(s.db.WithContext(ctx), filter)
	return query.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.FinancialSummary{}).Error
}

func (s *GormStore) SumNetProfit(ctx context.Context, userId int, businessId string, year int, monthBefore int) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := s.db.WithContext(ctx).
		Model(&models.FinancialSummary{}).
		Select("COALESCE(SUM(net_profit), 0)").
		Where("user_id = ? AND business_id = ? AND year = ? AND month < ?", userId, businessId, year, monthBefore).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func applyRegenerateFilter(query *gorm.DB, filter RegenerateFilter) *gorm.DB {
	if filter.UserId > 0 {
		query = query.Where("user_id = ?", filter.UserId)
	}
	if filter.BusinessId != "" {
		query = query.Where("business_id = ?", filter.BusinessId)
	}
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}
	return query
}
