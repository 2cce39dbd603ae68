package workflow

import (
	"testing"

	"bitbucket.org/datafokus/bizplan_backend/models"
	"github.com/shopspring/decimal"
)

func totalsFrom(simulations ...*models.Simulation) PeriodTotals {
	return AggregatePeriod(simulations)
}

func completedSim(category *models.Category, amount int64) *models.Simulation {
	return &models.Simulation{
		UserId:     testUserId,
		BusinessId: testBusinessId,
		Category:   category,
		Type:       category.Type,
		Amount:     decimal.NewFromInt(amount),
		Status:     models.SimulationStatusCompleted,
	}
}

func TestBuildSummary_StatementMath(t *testing.T) {
	totals := totalsFrom(
		completedSim(catOperatingRevenue, 1000),
		completedSim(catCogs, 400),
		completedSim(catOpex, 200),
	)
	summary := BuildSummary(period(2026, 1), totals, decimal.Zero, decimal.Zero)

	assertDecimal(t, "total_income", summary.TotalIncome, 1000)
	assertDecimal(t, "total_expense", summary.TotalExpense, 600)
	assertDecimal(t, "gross_profit", summary.GrossProfit, 600)
	assertDecimal(t, "operating_income", summary.OperatingIncome, 400)
	assertDecimal(t, "net_profit", summary.NetProfit, 400)
	assertDecimal(t, "cash_in", summary.CashIn, 1000)
	assertDecimal(t, "cash_out", summary.CashOut, 600)
	assertDecimal(t, "net_cash_flow", summary.NetCashFlow, 400)
	assertDecimal(t, "cash_ending", summary.CashEnding, 400)
	assertDecimal(t, "retained_earnings", summary.RetainedEarnings, 400)
}

func TestBuildSummary_InterestAndTax(t *testing.T) {
	totals := totalsFrom(
		completedSim(catOperatingRevenue, 1000),
		completedSim(catOtherRevenue, 100),
		completedSim(catCogs, 300),
		completedSim(catOpex, 200),
		completedSim(catInterest, 50),
		completedSim(catTax, 80),
	)
	summary := BuildSummary(period(2026, 1), totals, decimal.Zero, decimal.Zero)

	// gross 700, operating 500, before tax 500+100-50=550, net 470
	assertDecimal(t, "gross_profit", summary.GrossProfit, 700)
	assertDecimal(t, "operating_income", summary.OperatingIncome, 500)
	assertDecimal(t, "net_profit", summary.NetProfit, 470)
	// debt = interest * 10; other liabilities = tax
	assertDecimal(t, "debt", summary.Debt, 500)
	assertDecimal(t, "other_liabilities", summary.OtherLiabilities, 80)
	assertDecimal(t, "total_liabilities", summary.TotalLiabilities, 580)
}

func TestBuildSummary_FixedAssetsPrefersMaintenanceSpend(t *testing.T) {
	totals := totalsFrom(
		completedSim(catOpex, 500),
		completedSim(catMaintenance, 120),
	)
	summary := BuildSummary(period(2026, 1), totals, decimal.Zero, decimal.Zero)
	assertDecimal(t, "fixed_assets", summary.FixedAssets, 120)
}

func TestBuildSummary_FixedAssetsFallsBackToOpexShare(t *testing.T) {
	totals := totalsFrom(completedSim(catOpex, 500))
	summary := BuildSummary(period(2026, 1), totals, decimal.Zero, decimal.Zero)
	// No maintenance spend: 10% of operating expense.
	assertDecimal(t, "fixed_assets", summary.FixedAssets, 50)
}

func TestBuildSummary_BalanceSheetTiesOut(t *testing.T) {
	totals := totalsFrom(
		completedSim(catOperatingRevenue, 2000),
		completedSim(catCogs, 600),
		completedSim(catOpex, 400),
		completedSim(catInterest, 30),
		completedSim(catTax, 70),
	)
	summary := BuildSummary(period(2026, 5), totals, decimal.NewFromInt(150), decimal.NewFromInt(250))

	wantAssets := summary.CashEnding.Add(summary.FixedAssets).Add(summary.Receivables)
	if !summary.TotalAssets.Equal(wantAssets) {
		t.Fatalf("total_assets = %s, want %s", summary.TotalAssets, wantAssets)
	}
	wantEquity := summary.TotalAssets.Sub(summary.TotalLiabilities)
	if !summary.Equity.Equal(wantEquity) {
		t.Fatalf("equity = %s, want %s", summary.Equity, wantEquity)
	}
	// Retained earnings accumulate prior year-to-date months.
	if !summary.RetainedEarnings.Equal(summary.NetProfit.Add(decimal.NewFromInt(250))) {
		t.Fatalf("retained_earnings = %s", summary.RetainedEarnings)
	}
}

func TestAggregatePeriod_SkipsNonCompletedAndUncategorized(t *testing.T) {
	draft := completedSim(catOperatingRevenue, 999)
	draft.Status = models.SimulationStatusDraft
	uncategorized := &models.Simulation{
		UserId: testUserId, BusinessId: testBusinessId,
		Type: models.CategoryTypeIncome, Amount: decimal.NewFromInt(777),
		Status: models.SimulationStatusCompleted,
	}

	totals := totalsFrom(draft, uncategorized, completedSim(catOperatingRevenue, 100))

	assertDecimal(t, "operating_revenue", totals.OperatingRevenue, 100)
	if len(totals.IncomeBreakdown) != 1 {
		t.Fatalf("income breakdown entries = %d, want 1", len(totals.IncomeBreakdown))
	}
}

func TestAggregatePeriod_SubtypeMismatchExcludedFromSubtotals(t *testing.T) {
	// Income simulation pointing at an expense-subtype category: counts in the
	// breakdown by declared type, but no subtotal bucket matches.
	mismatched := &models.Simulation{
		UserId: testUserId, BusinessId: testBusinessId,
		Category: catCogs,
		Type:     models.CategoryTypeIncome,
		Amount:   decimal.NewFromInt(300),
		Status:   models.SimulationStatusCompleted,
	}
	totals := totalsFrom(mismatched)

	assertDecimal(t, "operating_revenue", totals.OperatingRevenue, 0)
	assertDecimal(t, "cogs", totals.Cogs, 0)
	if !totals.IncomeBreakdown[catCogs.Name].Equal(decimal.NewFromInt(300)) {
		t.Fatalf("income breakdown = %v", totals.IncomeBreakdown)
	}
}

func TestAggregatePeriod_BreakdownMergesSameCategory(t *testing.T) {
	totals := totalsFrom(
		completedSim(catOpex, 100),
		completedSim(catOpex, 150),
	)
	if !totals.ExpenseBreakdown[catOpex.Name].Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expense breakdown = %v", totals.ExpenseBreakdown)
	}
}
