package workflow

import (
	"context"
	"testing"

	"bitbucket.org/datafokus/bizplan_backend/models"
	"github.com/shopspring/decimal"
)

func TestRegenerateAll_RebuildsEverything(t *testing.T) {
	store := newMemStore()
	store.addSimulation(catOperatingRevenue, 2026, 1, 100)
	store.addSimulation(catOperatingRevenue, 2026, 2, 100)
	store.addSimulation(catOperatingRevenue, 2026, 3, 100)
	// Stale leftover summary for a period that has no data anymore.
	store.summaries[period(2025, 7)] = &models.FinancialSummary{
		UserId: testUserId, BusinessId: testBusinessId, Month: 7, Year: 2025,
		CashEnding: decimal.NewFromInt(50),
	}
	engine := newTestEngine(store)

	report, err := engine.RegenerateAll(context.Background(), RegenerateFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if report.PeriodsFound != 3 || report.Succeeded != 3 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}

	if store.summaries[period(2025, 7)] != nil {
		t.Fatal("stale summary must be wiped by regeneration")
	}
	assertDecimal(t, "mar.cash_beginning", mustSummary(t, store, period(2026, 3)).CashBeginning, 200)
	assertDecimal(t, "mar.cash_ending", mustSummary(t, store, period(2026, 3)).CashEnding, 300)
}

func TestRegenerateAll_YearFilterLeavesOtherYearsAlone(t *testing.T) {
	store := newMemStore()
	store.addSimulation(catOperatingRevenue, 2025, 6, 100)
	store.addSimulation(catOperatingRevenue, 2026, 6, 100)
	engine := newTestEngine(store)
	ctx := context.Background()

	if _, err := engine.RegenerateAll(ctx, RegenerateFilter{}); err != nil {
		t.Fatal(err)
	}
	before2025 := store.upserts[period(2025, 6)]

	report, err := engine.RegenerateAll(ctx, RegenerateFilter{Year: 2026})
	if err != nil {
		t.Fatal(err)
	}
	if report.PeriodsFound != 1 {
		t.Fatalf("periods found = %d, want 1", report.PeriodsFound)
	}
	if store.upserts[period(2025, 6)] != before2025 {
		t.Fatal("year-filtered regeneration must not rewrite other years")
	}
}

func TestRegenerateAll_ContinuesPastFailingPeriod(t *testing.T) {
	store := newMemStore()
	store.addSimulation(catOperatingRevenue, 2026, 1, 100)
	store.addSimulation(catOperatingRevenue, 2026, 2, 100)
	store.addSimulation(catOperatingRevenue, 2026, 3, 100)
	store.failQuery[period(2026, 2)] = true
	engine := newTestEngine(store)

	report, err := engine.RegenerateAll(context.Background(), RegenerateFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if report.PeriodsFound != 3 || report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	mustSummary(t, store, period(2026, 1))
	mustSummary(t, store, period(2026, 3))
}
