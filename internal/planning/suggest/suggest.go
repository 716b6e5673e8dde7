// Package suggest derives the synthetic future orders still needed to keep
// every SKU above its safety threshold, by repeatedly projecting a mutated
// working copy of the state until no new shortages appear.
package suggest

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellerkit/replan/internal/domain"
	"github.com/sellerkit/replan/internal/planning/monthkey"
	"github.com/sellerkit/replan/internal/planning/projection"
	"github.com/sellerkit/replan/internal/planning/resolve"
)

// Suggestion is one recommended phantom order. Its ID is deterministic in
// (SKU, order month, risk month), so repeated runs produce identical ids.
type Suggestion struct {
	ID                   string          `json:"id"`
	Number               string          `json:"number"`
	SKU                  string          `json:"sku"`
	ABCClass             string          `json:"abc_class"`
	OrderMonth           string          `json:"order_month"`
	RiskMonth            string          `json:"risk_month"`
	RequiredArrival      time.Time       `json:"required_arrival"`
	RecommendedOrderDate time.Time       `json:"recommended_order_date"`
	LeadTimeDays         int             `json:"lead_time_days"`
	Units                int             `json:"units"`
	Overdue              bool            `json:"overdue"`
	EstimatedValueEUR    decimal.Decimal `json:"estimated_value_eur"`

	// Order is the fully formed synthetic record, suitable for direct
	// persistence when the caller adopts the suggestion.
	Order domain.Order `json:"order"`
}

// Params configure one generator run.
type Params struct {
	Months      []string
	Mode        projection.Mode
	AnchorMonth string
	// TargetMonth limits suggestions to issues whose order month is at or
	// before it; empty means the last projected month.
	TargetMonth string
	// Now anchors overdue detection. Passed explicitly to keep the
	// generator pure.
	Now time.Time
	// MaxSuggestions truncates the final sorted list; zero means no cap.
	// Truncation never affects the iteration itself.
	MaxSuggestions int
}

// Result carries the ranked suggestions plus iteration diagnostics. CapHit
// means the hard iteration bound stopped the run and the list may be
// incomplete.
type Result struct {
	Suggestions []Suggestion `json:"suggestions"`
	Iterations  int          `json:"iterations"`
	CapHit      bool         `json:"cap_hit"`
}

// MaxIterations returns the hard bound for a horizon of monthCount months.
func MaxIterations(monthCount int) int {
	if n := 2 * monthCount; n > 1 {
		return n
	}
	return 1
}

// Generate runs the bounded fixed-point search. The caller's state is never
// mutated; every iteration folds its synthetic orders into a fresh clone.
func Generate(state *domain.PlanState, params Params) *Result {
	out := &Result{}
	if len(params.Months) == 0 {
		return out
	}

	targetMonth := params.TargetMonth
	if targetMonth == "" {
		targetMonth = params.Months[len(params.Months)-1]
	}

	working := state.Clone()
	seen := make(map[string]struct{})
	maxIter := MaxIterations(len(params.Months))

	for iter := 0; iter < maxIter; iter++ {
		out.Iterations = iter + 1

		proj := projection.Project(working, projection.Params{
			Months:      params.Months,
			AnchorMonth: params.AnchorMonth,
			Mode:        params.Mode,
		})

		fresh := collectSuggestions(working, proj, params, targetMonth, seen)
		if len(fresh) == 0 {
			break
		}

		out.Suggestions = append(out.Suggestions, fresh...)

		// Fold this iteration's phantom orders into a structurally
		// distinct working state, then look again: filling one gap can
		// expose later shortages the stockout was masking.
		next := working.Clone()
		for _, s := range fresh {
			next.PurchaseOrders = append(next.PurchaseOrders, s.Order)
		}
		working = next

		if iter == maxIter-1 {
			out.CapHit = true
		}
	}

	sortSuggestions(out.Suggestions)
	if params.MaxSuggestions > 0 && len(out.Suggestions) > params.MaxSuggestions {
		out.Suggestions = out.Suggestions[:params.MaxSuggestions]
	}

	return out
}

// collectSuggestions finds, per SKU, the first month at risk in the current
// projection and derives one phantom order for it.
func collectSuggestions(state *domain.PlanState, proj *projection.Result, params Params, targetMonth string, seen map[string]struct{}) []Suggestion {
	skus := make([]string, 0, len(proj.SKUs))
	for sku := range proj.SKUs {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	var out []Suggestion
	for _, sku := range skus {
		skuProj := proj.SKUs[sku]
		cell := firstRiskCell(skuProj, params.Mode)
		if cell == nil {
			continue
		}

		s, ok := buildSuggestion(state, sku, cell, params.Now)
		if !ok {
			continue
		}
		if monthkey.Compare(s.OrderMonth, targetMonth) > 0 {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// firstRiskCell returns the earliest month failing coverage. Months with
// unknown demand cannot be judged and are skipped; the robustness matrix
// surfaces those separately.
func firstRiskCell(skuProj *projection.SKUProjection, mode projection.Mode) *projection.Cell {
	for i := range skuProj.Cells {
		cell := &skuProj.Cells[i]
		if cell.EndAvailable == nil {
			continue
		}
		if cell.Stockout {
			return cell
		}
		if ok := cell.Covered(mode); ok != nil && !*ok {
			return cell
		}
	}
	return nil
}

func buildSuggestion(state *domain.PlanState, sku string, cell *projection.Cell, now time.Time) (Suggestion, bool) {
	product, _ := state.ProductBySKU(sku)
	supplierID := preferredSupplier(state, sku)
	fields := resolve.ForOrder(state, sku, supplierID, nil)

	riskMonth := cell.Month
	requiredArrival, err := monthkey.FirstDay(riskMonth)
	if err != nil {
		return Suggestion{}, false
	}

	leadDays := int(math.Round(fields.TotalLeadDays()))
	orderDate := requiredArrival.AddDate(0, 0, -leadDays)
	orderMonth := monthkey.FromTime(orderDate)

	units := recommendedUnits(state, product, fields, cell)
	if units <= 0 {
		return Suggestion{}, false
	}

	id := SuggestionID(sku, orderMonth, riskMonth)
	number := "PH-" + strings.ToUpper(id)

	order := domain.Order{
		ID:         "phantom-" + id,
		Number:     number,
		Type:       domain.OrderTypePO,
		SupplierID: supplierID,
		Status:     "placed",
		OrderDate:  &orderDate,
		ETADate:    &requiredArrival,
		Items:      []domain.OrderItem{{SKU: sku, Units: strconv.Itoa(units)}},
		Synthetic:  true,
	}

	return Suggestion{
		ID:                   id,
		Number:               number,
		SKU:                  sku,
		ABCClass:             strings.ToUpper(strings.TrimSpace(product.ABCClass)),
		OrderMonth:           orderMonth,
		RiskMonth:            riskMonth,
		RequiredArrival:      requiredArrival,
		RecommendedOrderDate: orderDate,
		LeadTimeDays:         leadDays,
		Units:                units,
		Overdue:              !now.IsZero() && orderDate.Before(now),
		EstimatedValueEUR:    estimatedValueEUR(fields, units),
		Order:                order,
	}, true
}

// recommendedUnits takes the greater of the coverage-driven recommendation
// and the raw shortage, then clamps up to the MOQ.
func recommendedUnits(state *domain.PlanState, product domain.Product, fields resolve.Fields, cell *projection.Cell) int {
	shortage := cell.SafetyUnits - *cell.EndAvailable

	coverageDays := state.Settings.CoverageDays
	if product.CoverageDays != nil && *product.CoverageDays > 0 {
		coverageDays = *product.CoverageDays
	}

	var demandBased float64
	if cell.Forecast != nil {
		if days := float64(monthkey.DaysIn(cell.Month)); days > 0 {
			demandBased = *cell.Forecast / days * coverageDays
		}
	}

	units := math.Ceil(math.Max(shortage, demandBased))
	if units <= 0 {
		return 0
	}
	if fields.MOQ.Value != nil && units < *fields.MOQ.Value {
		units = *fields.MOQ.Value
	}
	return int(units)
}

func estimatedValueEUR(fields resolve.Fields, units int) decimal.Decimal {
	if fields.UnitPriceUSD.Value == nil {
		return decimal.Zero
	}
	value := decimal.NewFromFloat(*fields.UnitPriceUSD.Value).Mul(decimal.NewFromInt(int64(units)))
	if fields.FXRate.Value != nil {
		value = value.Mul(decimal.NewFromFloat(*fields.FXRate.Value))
	}
	return value.Round(2)
}

// preferredSupplier picks the first linked supplier for a SKU, in state
// order, so repeated runs stay deterministic.
func preferredSupplier(state *domain.PlanState, sku string) string {
	want := domain.NormalizeSKU(sku)
	for _, link := range state.Links {
		if domain.NormalizeSKU(link.SKU) == want {
			return link.SupplierID
		}
	}
	return ""
}

var idSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// SuggestionID builds the deterministic identifier token for a
// (sku, order month, risk month) triple.
func SuggestionID(sku, orderMonth, riskMonth string) string {
	token := idSanitizer.ReplaceAllString(strings.ToLower(sku), "-")
	token = strings.Trim(token, "-")
	return fmt.Sprintf("%s-%s-%s", token, orderMonth, riskMonth)
}

// sortSuggestions orders the list most-urgent first: overdue, then ABC
// class, then order month, risk month and SKU.
func sortSuggestions(list []Suggestion) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Overdue != b.Overdue {
			return a.Overdue
		}
		if ca, cb := classRank(a.ABCClass), classRank(b.ABCClass); ca != cb {
			return ca < cb
		}
		if a.OrderMonth != b.OrderMonth {
			return a.OrderMonth < b.OrderMonth
		}
		if a.RiskMonth != b.RiskMonth {
			return a.RiskMonth < b.RiskMonth
		}
		return a.SKU < b.SKU
	})
}

func classRank(class string) int {
	switch class {
	case "A":
		return 0
	case "B":
		return 1
	case "C":
		return 2
	}
	return 3
}
