package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/datafokus/bizplan_backend/config"
	"bitbucket.org/datafokus/bizplan_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultMaxCascadeMonths bounds forward cash propagation. Month/year always
// strictly advances and stored summaries are finite, so this only ever fires
// on corrupted data; 600 months is 50 years of summaries.
const DefaultMaxCascadeMonths = 600

// SimulationStore is the transaction-side collaborator of the engine.
type SimulationStore interface {
	// CompletedSimulations returns the period's completed simulations with
	// their category joined. An empty result means "no data", never "all
	// zeros".
	CompletedSimulations(ctx context.Context, key PeriodKey) ([]*models.Simulation, error)
	// DistinctPeriods enumerates every (user, business, month, year)
	// combination that has completed simulations matching the filter,
	// ordered chronologically within each (user, business) pair.
	DistinctPeriods(ctx context.Context, filter RegenerateFilter) ([]PeriodKey, error)
}

// SummaryStore is the derived-side collaborator of the engine.
type SummaryStore interface {
	// GetSummary returns nil (with nil error) when the period has no summary.
	GetSummary(ctx context.Context, key PeriodKey) (*models.FinancialSummary, error)
	UpsertSummary(ctx context.Context, summary *models.FinancialSummary) error
	DeleteSummary(ctx context.Context, key PeriodKey) error
	DeleteSummaries(ctx context.Context, filter RegenerateFilter) error
	// SumNetProfit totals net_profit over the same (user, business, year)
	// for months strictly before monthBefore.
	SumNetProfit(ctx context.Context, userId int, businessId string, year int, monthBefore int) (decimal.Decimal, error)
}

// RollupEngine maintains financial summaries as a materialized view over the
// simulation store. Both trigger paths (the lifecycle worker and the batch
// regenerator) run through the same recompute, so the algorithm exists
// exactly once.
//
// A recompute is always full: re-query the period, rebuild the summary from
// scratch, upsert or delete. That makes every recompute idempotent and safely
// re-triggerable under at-least-once delivery.
type RollupEngine struct {
	Simulations SimulationStore
	Summaries   SummaryStore
	Logger      *logrus.Logger

	// MaxCascadeMonths overrides DefaultMaxCascadeMonths when > 0.
	MaxCascadeMonths int
}

func NewRollupEngine(simulations SimulationStore, summaries SummaryStore, logger *logrus.Logger) *RollupEngine {
	return &RollupEngine{
		Simulations: simulations,
		Summaries:   summaries,
		Logger:      logger,
	}
}

func (e *RollupEngine) logger() *logrus.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return config.GetLogger()
}

func (e *RollupEngine) maxCascadeMonths() int {
	if e.MaxCascadeMonths > 0 {
		return e.MaxCascadeMonths
	}
	return DefaultMaxCascadeMonths
}

// RecomputePeriod rebuilds one period's summary and then walks forward,
// month by month, repairing every stored summary whose cash_beginning no
// longer matches its predecessor's cash_ending. The walk stops at the first
// month with no stored summary (nothing to correct) or whose cash_beginning
// already matches (fixpoint).
func (e *RollupEngine) RecomputePeriod(ctx context.Context, key PeriodKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	ending, exists, err := e.recomputeOne(ctx, key)
	if err != nil {
		return err
	}

	cur := key
	for depth := 0; ; depth++ {
		if depth >= e.maxCascadeMonths() {
			return fmt.Errorf("cash cascade exceeded %d months starting at %s", e.maxCascadeMonths(), key)
		}

		next := cur.Next()
		nextSummary, err := e.Summaries.GetSummary(ctx, next)
		if err != nil {
			return err
		}
		if nextSummary == nil {
			return nil
		}

		// A deleted predecessor contributes 0, same as "no preceding summary".
		expected := decimal.Zero
		if exists {
			expected = ending
		}
		if nextSummary.CashBeginning.Equal(expected) {
			return nil
		}

		ending, exists, err = e.recomputeOne(ctx, next)
		if err != nil {
			return err
		}
		cur = next
	}
}

// recomputeOne rebuilds exactly one period without cascading. It returns the
// period's new cash_ending and whether a summary exists afterwards.
func (e *RollupEngine) recomputeOne(ctx context.Context, key PeriodKey) (decimal.Decimal, bool, error) {
	simulations, err := e.Simulations.CompletedSimulations(ctx, key)
	if err != nil {
		return decimal.Zero, false, err
	}

	if len(simulations) == 0 {
		// No completed simulations: the summary must be absent, a zeroed row
		// would claim "data implying zeros" instead of "no data".
		if err := e.Summaries.DeleteSummary(ctx, key); err != nil {
			return decimal.Zero, false, err
		}
		return decimal.Zero, false, nil
	}

	totals := AggregatePeriod(simulations)

	cashBeginning := decimal.Zero
	previous, err := e.Summaries.GetSummary(ctx, key.Previous())
	if err != nil {
		return decimal.Zero, false, err
	}
	if previous != nil {
		cashBeginning = previous.CashEnding
	}

	priorNetProfit, err := e.Summaries.SumNetProfit(ctx, key.UserId, key.BusinessId, key.Year, key.Month)
	if err != nil {
		return decimal.Zero, false, err
	}

	summary := BuildSummary(key, totals, cashBeginning, priorNetProfit)
	if err := e.Summaries.UpsertSummary(ctx, summary); err != nil {
		return decimal.Zero, false, err
	}
	return summary.CashEnding, true, nil
}

// Lifecycle entry points. Summary maintenance is invisible to whoever edits
// the simulation: failures are logged with full period context and swallowed,
// a simulation write never fails because its summary recompute did.

func (e *RollupEngine) OnSimulationCreated(ctx context.Context, simulation *models.Simulation) {
	e.recomputeLogged(ctx, "OnSimulationCreated", PeriodOfDate(simulation.UserId, simulation.BusinessId, simulation.SimulationDate))
}

func (e *RollupEngine) OnSimulationDeleted(ctx context.Context, simulation *models.Simulation) {
	e.recomputeLogged(ctx, "OnSimulationDeleted", PeriodOfDate(simulation.UserId, simulation.BusinessId, simulation.SimulationDate))
}

func (e *RollupEngine) OnSimulationRestored(ctx context.Context, simulation *models.Simulation) {
	e.recomputeLogged(ctx, "OnSimulationRestored", PeriodOfDate(simulation.UserId, simulation.BusinessId, simulation.SimulationDate))
}

// OnSimulationUpdated recomputes the period the simulation left (when its
// date moved across a month boundary) and then the period it now belongs to.
// The two aggregations are independent: the moved simulation is excluded
// from the old period and included in the new one by the query filter alone.
func (e *RollupEngine) OnSimulationUpdated(ctx context.Context, simulation *models.Simulation, previousDate time.Time) {
	oldKey := PeriodOfDate(simulation.UserId, simulation.BusinessId, previousDate)
	newKey := PeriodOfDate(simulation.UserId, simulation.BusinessId, simulation.SimulationDate)
	if oldKey != newKey {
		e.recomputeLogged(ctx, "OnSimulationUpdated", oldKey)
	}
	e.recomputeLogged(ctx, "OnSimulationUpdated", newKey)
}

func (e *RollupEngine) recomputeLogged(ctx context.Context, funcName string, key PeriodKey) {
	if err := e.RecomputePeriod(ctx, key); err != nil {
		config.LogError(e.logger(), "Rollup.go", funcName, "RecomputePeriod", key.String(), err)
	}
}
