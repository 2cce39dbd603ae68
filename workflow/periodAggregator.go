package workflow

import (
	"bitbucket.org/datafokus/bizplan_backend/models"
	"github.com/shopspring/decimal"
)

// PeriodTotals are the subtotal scalars of one period. Each bucket sums the
// completed simulations whose (type, category subtype) pair matches; missing
// combinations stay zero.
type PeriodTotals struct {
	OperatingRevenue    decimal.Decimal
	NonOperatingRevenue decimal.Decimal
	Cogs                decimal.Decimal
	OperatingExpense    decimal.Decimal
	InterestExpense     decimal.Decimal
	TaxExpense          decimal.Decimal

	// MaintenanceExpense feeds the fixed-assets heuristic: expense amounts of
	// maintenance-tagged categories.
	MaintenanceExpense decimal.Decimal

	IncomeBreakdown  models.BreakdownMap
	ExpenseBreakdown models.BreakdownMap
}

// AggregatePeriod folds one period's simulations into subtotals and
// per-category-name breakdowns.
//
// Uncategorized simulations (no category reference) contribute to neither
// the subtotals nor the breakdowns: subtotals need a subtype and breakdowns
// need a name. They still count as "data present", so a period holding only
// uncategorized rows keeps an (all-zero-subtotal) summary rather than being
// deleted.
func AggregatePeriod(simulations []*models.Simulation) PeriodTotals {
	totals := PeriodTotals{
		IncomeBreakdown:  models.BreakdownMap{},
		ExpenseBreakdown: models.BreakdownMap{},
	}

	for _, simulation := range simulations {
		if simulation == nil || simulation.Status != models.SimulationStatusCompleted {
			continue
		}
		category := simulation.Category
		if category == nil {
			continue
		}

		switch simulation.Type {
		case models.CategoryTypeIncome:
			totals.IncomeBreakdown[category.Name] = totals.IncomeBreakdown[category.Name].Add(simulation.Amount)
		case models.CategoryTypeExpense:
			totals.ExpenseBreakdown[category.Name] = totals.ExpenseBreakdown[category.Name].Add(simulation.Amount)
			if category.IsMaintenance() {
				totals.MaintenanceExpense = totals.MaintenanceExpense.Add(simulation.Amount)
			}
		}

		// Subtotal buckets require the simulation type and the category
		// subtype to agree; a mismatch contributes nothing.
		if category.Subtype.Type() != simulation.Type {
			continue
		}
		switch category.Subtype {
		case models.CategorySubtypeOperatingRevenue:
			totals.OperatingRevenue = totals.OperatingRevenue.Add(simulation.Amount)
		case models.CategorySubtypeNonOperatingRevenue:
			totals.NonOperatingRevenue = totals.NonOperatingRevenue.Add(simulation.Amount)
		case models.CategorySubtypeCogs:
			totals.Cogs = totals.Cogs.Add(simulation.Amount)
		case models.CategorySubtypeOperatingExpense:
			totals.OperatingExpense = totals.OperatingExpense.Add(simulation.Amount)
		case models.CategorySubtypeInterestExpense:
			totals.InterestExpense = totals.InterestExpense.Add(simulation.Amount)
		case models.CategorySubtypeTaxExpense:
			totals.TaxExpense = totals.TaxExpense.Add(simulation.Amount)
		}
	}

	return totals
}
