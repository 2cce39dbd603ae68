package workflow

import (
	"bitbucket.org/datafokus/bizplan_backend/models"
	"github.com/shopspring/decimal"
)

// fixedAssetsFallbackRate approximates fixed assets as 10% of operating
// expense when no maintenance spend exists for the period.
var fixedAssetsFallbackRate = decimal.NewFromFloat(0.1)

// debtMultiplier approximates outstanding debt as 10x the period's interest
// expense.
var debtMultiplier = decimal.NewFromInt(10)

// BuildSummary derives the full financial summary from one period's
// subtotals plus two external inputs: the previous month's ending cash and
// the year-to-date net profit of earlier months.
//
// The fixed-assets and debt figures are deliberate placeholders, not
// accounting-correct derivations. Dashboards already display them, so they
// stay byte-compatible; anyone extending balance-sheet accuracy starts here.
func BuildSummary(key PeriodKey, totals PeriodTotals, cashBeginning decimal.Decimal, priorNetProfit decimal.Decimal) *models.FinancialSummary {
	totalIncome := totals.OperatingRevenue.Add(totals.NonOperatingRevenue)
	totalExpense := totals.Cogs.Add(totals.OperatingExpense).Add(totals.InterestExpense).Add(totals.TaxExpense)

	grossProfit := totals.OperatingRevenue.Sub(totals.Cogs)
	operatingIncome := grossProfit.Sub(totals.OperatingExpense)
	incomeBeforeTax := operatingIncome.Add(totals.NonOperatingRevenue).Sub(totals.InterestExpense)
	netProfit := incomeBeforeTax.Sub(totals.TaxExpense)

	cashIn := totalIncome
	cashOut := totalExpense
	netCashFlow := cashIn.Sub(cashOut)
	cashEnding := cashBeginning.Add(netCashFlow)

	fixedAssets := totals.MaintenanceExpense
	if !fixedAssets.IsPositive() {
		fixedAssets = totals.OperatingExpense.Mul(fixedAssetsFallbackRate)
	}
	receivables := decimal.Zero
	totalAssets := cashEnding.Add(fixedAssets).Add(receivables)

	debt := decimal.Zero
	if totals.InterestExpense.IsPositive() {
		debt = totals.InterestExpense.Mul(debtMultiplier)
	}
	otherLiabilities := totals.TaxExpense
	totalLiabilities := debt.Add(otherLiabilities)
	equity := totalAssets.Sub(totalLiabilities)

	// Retained earnings accumulate within the calendar year only; January
	// always starts over from the current month's net profit.
	retainedEarnings := priorNetProfit.Add(netProfit)

	incomeBreakdown := totals.IncomeBreakdown
	if incomeBreakdown == nil {
		incomeBreakdown = models.BreakdownMap{}
	}
	expenseBreakdown := totals.ExpenseBreakdown
	if expenseBreakdown == nil {
		expenseBreakdown = models.BreakdownMap{}
	}

	return &models.FinancialSummary{
		UserId:     key.UserId,
		BusinessId: key.BusinessId,
		Month:      key.Month,
		Year:       key.Year,

		TotalIncome:      totalIncome,
		TotalExpense:     totalExpense,
		GrossProfit:      grossProfit,
		NetProfit:        netProfit,
		IncomeBreakdown:  incomeBreakdown,
		ExpenseBreakdown: expenseBreakdown,

		CashBeginning: cashBeginning,
		CashIn:        cashIn,
		CashOut:       cashOut,
		NetCashFlow:   netCashFlow,
		CashEnding:    cashEnding,

		OperatingRevenue:    totals.OperatingRevenue,
		NonOperatingRevenue: totals.NonOperatingRevenue,
		Cogs:                totals.Cogs,
		OperatingExpense:    totals.OperatingExpense,
		InterestExpense:     totals.InterestExpense,
		TaxExpense:          totals.TaxExpense,
		OperatingIncome:     operatingIncome,

		FixedAssets:      fixedAssets,
		Receivables:      receivables,
		TotalAssets:      totalAssets,
		Debt:             debt,
		OtherLiabilities: otherLiabilities,
		TotalLiabilities: totalLiabilities,
		Equity:           equity,
		RetainedEarnings: retainedEarnings,
	}
}
