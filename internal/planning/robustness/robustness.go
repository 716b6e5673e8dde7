// Package robustness composes the projection's coverage verdicts with the
// other per-month completeness checks into a pass/fail matrix and a ranked
// list of corrective actions.
package robustness

import (
	"fmt"
	"sort"

	"github.com/sellerkit/replan/internal/domain"
	"github.com/sellerkit/replan/internal/planning/projection"
)

// Output size bounds. Tests assert on these directly.
const (
	MaxBlockerItems = 20
	MaxTopActions   = 5
)

// CheckKind identifies one of the fixed robustness checks.
type CheckKind string

const (
	CheckSKUCoverage   CheckKind = "sku_coverage"
	CheckCashIn        CheckKind = "cash_in"
	CheckFixcost       CheckKind = "fixcost"
	CheckVAT           CheckKind = "vat"
	CheckRevenueInputs CheckKind = "revenue_inputs"
)

// CheckKinds is the fixed evaluation order.
var CheckKinds = []CheckKind{CheckSKUCoverage, CheckCashIn, CheckFixcost, CheckVAT, CheckRevenueInputs}

// Severity grades a blocker. Errors outrank warnings in the action ranking.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// Blocker is one itemized reason a check fails. Reason is a stable token;
// the calling layer translates it into UI text.
type Blocker struct {
	SKU      string   `json:"sku,omitempty"`
	Reason   string   `json:"reason"`
	Severity Severity `json:"severity"`
}

// Check is one check's verdict for one month. Blockers are truncated at
// MaxBlockerItems; More carries the overflow count.
type Check struct {
	Kind     CheckKind `json:"kind"`
	Passed   bool      `json:"passed"`
	Detail   string    `json:"detail"`
	Blockers []Blocker `json:"blockers,omitempty"`
	More     int       `json:"more,omitempty"`
}

// MonthReport is the check matrix row for one month.
type MonthReport struct {
	Month  string  `json:"month"`
	Robust bool    `json:"robust"`
	Checks []Check `json:"checks"`
}

// Check returns the month's verdict for a kind.
func (m MonthReport) Check(kind CheckKind) *Check {
	for i := range m.Checks {
		if m.Checks[i].Kind == kind {
			return &m.Checks[i]
		}
	}
	return nil
}

// Action is one ranked corrective action.
type Action struct {
	Kind     CheckKind `json:"kind"`
	Errors   int       `json:"errors"`
	Warnings int       `json:"warnings"`
	Total    int       `json:"total"`
}

// Report is one full robustness evaluation.
type Report struct {
	Months []MonthReport `json:"months"`
	// RobustUntil is the last month of the leading unbroken robust run,
	// empty when the first month already fails.
	RobustUntil string   `json:"robust_until"`
	TopActions  []Action `json:"top_actions"`

	Projection *projection.Result `json:"projection"`
}

// Params configure one evaluation.
type Params struct {
	Months      []string
	Mode        projection.Mode
	AnchorMonth string
	// Completeness is the external product-completeness evaluator used by
	// the revenue_inputs check. Nil means every product is complete.
	Completeness func(domain.Product) bool
}

// Evaluate runs all checks for every month of the horizon.
func Evaluate(state *domain.PlanState, params Params) *Report {
	proj := projection.Project(state, projection.Params{
		Months:      params.Months,
		AnchorMonth: params.AnchorMonth,
		Mode:        params.Mode,
	})
	return EvaluateWithProjection(state, params, proj)
}

// EvaluateWithProjection runs the checks against an existing projection run,
// so callers that already projected do not pay twice.
func EvaluateWithProjection(state *domain.PlanState, params Params, proj *projection.Result) *Report {
	report := &Report{Projection: proj}

	var planningSKUs []domain.Product
	var activeSKUs []domain.Product
	for _, p := range state.Products {
		if !p.Active {
			continue
		}
		activeSKUs = append(activeSKUs, p)
		if p.IncludeInForecast {
			planningSKUs = append(planningSKUs, p)
		}
	}

	counts := make(map[CheckKind]*Action)
	record := func(check Check) Check {
		action := counts[check.Kind]
		if action == nil {
			action = &Action{Kind: check.Kind}
			counts[check.Kind] = action
		}
		for _, blocker := range check.Blockers {
			if blocker.Severity == SeverityError {
				action.Errors++
			} else {
				action.Warnings++
			}
			action.Total++
		}
		if len(check.Blockers) > MaxBlockerItems {
			check.More = len(check.Blockers) - MaxBlockerItems
			check.Blockers = check.Blockers[:MaxBlockerItems]
		}
		return check
	}

	for _, month := range params.Months {
		row := MonthReport{Month: month, Robust: true}
		checks := []Check{
			checkSKUCoverage(proj, planningSKUs, month, params.Mode),
			checkCashIn(state, month),
			checkFixcost(state),
			checkVAT(state, month),
			checkRevenueInputs(activeSKUs, params.Completeness),
		}
		for _, check := range checks {
			check = record(check)
			if !check.Passed {
				row.Robust = false
			}
			row.Checks = append(row.Checks, check)
		}
		report.Months = append(report.Months, row)
	}

	for _, row := range report.Months {
		if !row.Robust {
			break
		}
		report.RobustUntil = row.Month
	}

	report.TopActions = rankActions(counts)

	return report
}

func checkSKUCoverage(proj *projection.Result, products []domain.Product, month string, mode projection.Mode) Check {
	check := Check{Kind: CheckSKUCoverage}

	if len(products) == 0 {
		check.Detail = "no active forecast-included skus"
		check.Blockers = append(check.Blockers, Blocker{Reason: "no_active_skus", Severity: SeverityError})
		return check
	}

	covered := 0
	for _, product := range products {
		sku := domain.NormalizeSKU(product.SKU)
		skuProj := proj.SKUs[sku]
		var cell *projection.Cell
		if skuProj != nil {
			cell = skuProj.Cell(month)
		}
		if cell == nil || cell.Forecast == nil || cell.EndAvailable == nil {
			check.Blockers = append(check.Blockers, Blocker{SKU: sku, Reason: "missing_forecast", Severity: SeverityError})
			continue
		}
		if cell.Stockout {
			check.Blockers = append(check.Blockers, Blocker{SKU: sku, Reason: "stockout", Severity: SeverityError})
			continue
		}
		if ok := cell.Covered(mode); ok == nil || !*ok {
			check.Blockers = append(check.Blockers, Blocker{SKU: sku, Reason: "below_safety", Severity: SeverityWarn})
			continue
		}
		covered++
	}

	check.Passed = len(check.Blockers) == 0
	check.Detail = fmt.Sprintf("%d/%d skus covered", covered, len(products))
	return check
}

func checkCashIn(state *domain.PlanState, month string) Check {
	check := Check{Kind: CheckCashIn}
	_, planned := state.CashIn.Planned[month]
	_, actual := state.CashIn.Actuals[month]
	check.Passed = planned || actual
	if check.Passed {
		check.Detail = "cash-in basis present"
	} else {
		check.Detail = "no planned or actual cash-in"
		check.Blockers = append(check.Blockers, Blocker{Reason: "no_cash_basis", Severity: SeverityError})
	}
	return check
}

func checkFixcost(state *domain.PlanState) Check {
	check := Check{Kind: CheckFixcost}
	check.Passed = len(state.FixedCosts) > 0
	if check.Passed {
		check.Detail = fmt.Sprintf("%d fixed cost definitions", len(state.FixedCosts))
	} else {
		check.Detail = "no fixed cost definitions"
		check.Blockers = append(check.Blockers, Blocker{Reason: "no_fixcost", Severity: SeverityError})
	}
	return check
}

func checkVAT(state *domain.PlanState, month string) Check {
	check := Check{Kind: CheckVAT}
	vat := state.Settings.VAT
	active := len(vat.Defaults) > 0 || len(vat.Overrides) > 0
	if !active {
		check.Passed = true
		check.Detail = "vat preview inactive"
		return check
	}

	check.Passed = len(vat.Defaults) > 0 || len(vat.Overrides[month]) > 0
	if check.Passed {
		check.Detail = "vat configuration present"
	} else {
		check.Detail = "no vat default or override"
		check.Blockers = append(check.Blockers, Blocker{Reason: "no_vat_config", Severity: SeverityError})
	}
	return check
}

func checkRevenueInputs(products []domain.Product, completeness func(domain.Product) bool) Check {
	check := Check{Kind: CheckRevenueInputs}

	complete := 0
	for _, product := range products {
		sku := domain.NormalizeSKU(product.SKU)
		if product.SellPriceGrossEUR == nil || *product.SellPriceGrossEUR <= 0 {
			check.Blockers = append(check.Blockers, Blocker{SKU: sku, Reason: "missing_sell_price", Severity: SeverityError})
			continue
		}
		if completeness != nil && !completeness(product) {
			check.Blockers = append(check.Blockers, Blocker{SKU: sku, Reason: "incomplete_product", Severity: SeverityWarn})
			continue
		}
		complete++
	}

	check.Passed = len(check.Blockers) == 0
	check.Detail = fmt.Sprintf("%d/%d skus complete", complete, len(products))
	return check
}

// rankActions orders failing check kinds by error count, then total blocker
// count, then kind, capped at MaxTopActions.
func rankActions(counts map[CheckKind]*Action) []Action {
	var out []Action
	for _, action := range counts {
		if action.Total == 0 {
			continue
		}
		out = append(out, *action)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Errors != out[j].Errors {
			return out[i].Errors > out[j].Errors
		}
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Kind < out[j].Kind
	})
	if len(out) > MaxTopActions {
		out = out[:MaxTopActions]
	}
	return out
}
