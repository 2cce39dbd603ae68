package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// BreakdownMap stores a category-name => summed-amount mapping as a JSON
// column. Uncategorized simulations never appear here.
type BreakdownMap map[string]decimal.Decimal

func (m BreakdownMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *BreakdownMap) Scan(value interface{}) error {
	if value == nil {
		*m = BreakdownMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for BreakdownMap")
	}
	if len(data) == 0 {
		*m = BreakdownMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// FinancialSummary is derived data: one row per (user, business, month, year),
// always recomputed from scratch out of that period's completed simulations.
// A period with no completed simulations has NO row, never a zeroed one.
//
// cash_beginning always equals the previous calendar month's cash_ending for
// the same (user, business), or 0 when that month has no summary.
type FinancialSummary struct {
	ID         int    `gorm:"primary_key" json:"id"`
	UserId     int    `gorm:"not null;uniqueIndex:uniq_fs_period,priority:1" json:"user_id"`
	BusinessId string `gorm:"size:64;not null;uniqueIndex:uniq_fs_period,priority:2;index:idx_fs_biz_year,priority:1" json:"business_id"`
	Month      int    `gorm:"not null;uniqueIndex:uniq_fs_period,priority:3" json:"month"`
	Year       int    `gorm:"not null;uniqueIndex:uniq_fs_period,priority:4;index:idx_fs_biz_year,priority:2" json:"year"`

	TotalIncome      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_income"`
	TotalExpense     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_expense"`
	GrossProfit      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gross_profit"`
	NetProfit        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"net_profit"`
	IncomeBreakdown  BreakdownMap    `gorm:"type:json" json:"income_breakdown"`
	ExpenseBreakdown BreakdownMap    `gorm:"type:json" json:"expense_breakdown"`

	CashBeginning decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cash_beginning"`
	CashIn        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cash_in"`
	CashOut       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cash_out"`
	NetCashFlow   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"net_cash_flow"`
	CashEnding    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cash_ending"`

	OperatingRevenue    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"operating_revenue"`
	NonOperatingRevenue decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"non_operating_revenue"`
	Cogs                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cogs"`
	OperatingExpense    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"operating_expense"`
	InterestExpense     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"interest_expense"`
	TaxExpense          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_expense"`
	OperatingIncome     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"operating_income"`

	FixedAssets      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"fixed_assets"`
	Receivables      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"receivables"`
	TotalAssets      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_assets"`
	Debt             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debt"`
	OtherLiabilities decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"other_liabilities"`
	TotalLiabilities decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_liabilities"`
	Equity           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"equity"`
	RetainedEarnings decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"retained_earnings"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
