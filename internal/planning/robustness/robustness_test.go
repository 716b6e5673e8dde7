package robustness

import (
	"fmt"
	"testing"

	"github.com/sellerkit/replan/internal/domain"
	"github.com/sellerkit/replan/internal/planning/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

// robustState builds a state where every check passes for 2025-01..2025-02.
func robustState() *domain.PlanState {
	return &domain.PlanState{
		Products: []domain.Product{{
			SKU:               "A",
			Active:            true,
			IncludeInForecast: true,
			SellPriceGrossEUR: f(29.90),
		}},
		Snapshots: []domain.InventorySnapshot{{
			Month: "2024-12",
			Items: []domain.SnapshotItem{{SKU: "A", OnHandA: 500}},
		}},
		Forecast: domain.Forecast{
			Manual: map[string]map[string]float64{
				"A": {"2025-01": 30, "2025-02": 30},
			},
		},
		CashIn: domain.CashIn{
			Planned: map[string]float64{"2025-01": 1000, "2025-02": 1000},
		},
		FixedCosts: []domain.FixedCost{{Label: "rent", AmountEUR: 900}},
		Settings: domain.Settings{
			SafetyStockDays: 14,
			VAT:             domain.VATPreview{Defaults: map[string]float64{"rate": 19}},
		},
	}
}

func months() []string { return []string{"2025-01", "2025-02"} }

func TestEvaluateAllRobust(t *testing.T) {
	report := Evaluate(robustState(), Params{Months: months(), Mode: projection.ModeUnits})

	require.Len(t, report.Months, 2)
	for _, row := range report.Months {
		assert.True(t, row.Robust, "month %s", row.Month)
		require.Len(t, row.Checks, len(CheckKinds))
	}
	assert.Equal(t, "2025-02", report.RobustUntil)
	assert.Empty(t, report.TopActions)
}

func TestEvaluateSKUCoverageFailures(t *testing.T) {
	state := robustState()
	state.Snapshots[0].Items[0].OnHandA = 20 // stocks out in Jan

	report := Evaluate(state, Params{Months: months(), Mode: projection.ModeUnits})

	jan := report.Months[0]
	assert.False(t, jan.Robust)
	coverage := jan.Check(CheckSKUCoverage)
	require.NotNil(t, coverage)
	assert.False(t, coverage.Passed)
	require.Len(t, coverage.Blockers, 1)
	assert.Equal(t, "stockout", coverage.Blockers[0].Reason)
	assert.Equal(t, SeverityError, coverage.Blockers[0].Severity)
}

func TestEvaluateMissingForecastIsError(t *testing.T) {
	state := robustState()
	state.Forecast.Manual = nil

	report := Evaluate(state, Params{Months: months(), Mode: projection.ModeUnits})
	coverage := report.Months[0].Check(CheckSKUCoverage)
	require.NotNil(t, coverage)
	require.Len(t, coverage.Blockers, 1)
	assert.Equal(t, "missing_forecast", coverage.Blockers[0].Reason)
}

func TestEvaluateZeroActiveSKUsFails(t *testing.T) {
	state := robustState()
	state.Products[0].Active = false

	report := Evaluate(state, Params{Months: months(), Mode: projection.ModeUnits})
	coverage := report.Months[0].Check(CheckSKUCoverage)
	require.NotNil(t, coverage)
	assert.False(t, coverage.Passed)
	assert.Equal(t, "no_active_skus", coverage.Blockers[0].Reason)
}

func TestEvaluateCashInActualSuffices(t *testing.T) {
	state := robustState()
	state.CashIn.Planned = nil
	state.CashIn.Actuals = map[string]float64{"2025-01": 870}

	report := Evaluate(state, Params{Months: months(), Mode: projection.ModeUnits})
	assert.True(t, report.Months[0].Check(CheckCashIn).Passed)
	assert.False(t, report.Months[1].Check(CheckCashIn).Passed)
}

func TestEvaluateFixcostGlobal(t *testing.T) {
	state := robustState()
	state.FixedCosts = nil

	report := Evaluate(state, Params{Months: months(), Mode: projection.ModeUnits})
	for _, row := range report.Months {
		assert.False(t, row.Check(CheckFixcost).Passed)
	}
}

func TestEvaluateVAT(t *testing.T) {
	// Inactive preview: check passes.
	state := robustState()
	state.Settings.VAT = domain.VATPreview{}
	report := Evaluate(state, Params{Months: months(), Mode: projection.ModeUnits})
	assert.True(t, report.Months[0].Check(CheckVAT).Passed)

	// Active via overrides only: months without an override fail.
	state.Settings.VAT = domain.VATPreview{
		Overrides: map[string]map[string]float64{"2025-01": {"rate": 19}},
	}
	report = Evaluate(state, Params{Months: months(), Mode: projection.ModeUnits})
	assert.True(t, report.Months[0].Check(CheckVAT).Passed)
	assert.False(t, report.Months[1].Check(CheckVAT).Passed)
}

func TestEvaluateRevenueInputs(t *testing.T) {
	state := robustState()
	state.Products[0].SellPriceGrossEUR = nil

	report := Evaluate(state, Params{Months: months(), Mode: projection.ModeUnits})
	check := report.Months[0].Check(CheckRevenueInputs)
	require.NotNil(t, check)
	assert.False(t, check.Passed)
	assert.Equal(t, "missing_sell_price", check.Blockers[0].Reason)

	// External completeness evaluator failure is a warning.
	state.Products[0].SellPriceGrossEUR = f(10)
	report = Evaluate(state, Params{
		Months:       months(),
		Mode:         projection.ModeUnits,
		Completeness: func(domain.Product) bool { return false },
	})
	check = report.Months[0].Check(CheckRevenueInputs)
	assert.Equal(t, "incomplete_product", check.Blockers[0].Reason)
	assert.Equal(t, SeverityWarn, check.Blockers[0].Severity)
}

func TestRobustUntilLeadingRunOnly(t *testing.T) {
	state := robustState()
	// Fail only the middle month's cash-in; a later robust month must not
	// extend the cursor.
	state.CashIn.Planned = map[string]float64{"2025-01": 1, "2025-03": 1}
	state.Forecast.Manual["A"]["2025-03"] = 30

	report := Evaluate(state, Params{
		Months: []string{"2025-01", "2025-02", "2025-03"},
		Mode:   projection.ModeUnits,
	})
	assert.Equal(t, "2025-01", report.RobustUntil)

	// First month failing means no robust cursor at all.
	state.CashIn.Planned = map[string]float64{}
	report = Evaluate(state, Params{Months: months(), Mode: projection.ModeUnits})
	assert.Equal(t, "", report.RobustUntil)
}

func TestBlockerTruncation(t *testing.T) {
	state := robustState()
	state.Products = nil
	for i := 0; i < 30; i++ {
		state.Products = append(state.Products, domain.Product{
			SKU:               fmt.Sprintf("SKU-%02d", i),
			Active:            true,
			IncludeInForecast: true,
			// No sell price: every SKU is a revenue_inputs blocker.
		})
	}

	report := Evaluate(state, Params{Months: []string{"2025-01"}, Mode: projection.ModeUnits})
	check := report.Months[0].Check(CheckRevenueInputs)
	require.NotNil(t, check)
	assert.Len(t, check.Blockers, MaxBlockerItems)
	assert.Equal(t, 10, check.More)
}

func TestTopActionsRanking(t *testing.T) {
	state := robustState()
	state.FixedCosts = nil                   // 1 error per month
	state.CashIn.Planned = nil               // 1 error per month
	state.Products[0].SellPriceGrossEUR = nil // 1 error per month (coverage stays fine)

	report := Evaluate(state, Params{Months: months(), Mode: projection.ModeUnits})

	require.NotEmpty(t, report.TopActions)
	assert.LessOrEqual(t, len(report.TopActions), MaxTopActions)
	// Equal error counts fall back to the kind tie-break.
	assert.Equal(t, CheckCashIn, report.TopActions[0].Kind)
	for i := 1; i < len(report.TopActions); i++ {
		prev, cur := report.TopActions[i-1], report.TopActions[i]
		assert.True(t, prev.Errors > cur.Errors ||
			(prev.Errors == cur.Errors && prev.Total > cur.Total) ||
			(prev.Errors == cur.Errors && prev.Total == cur.Total && prev.Kind < cur.Kind))
	}
}
