// Package projection reconstructs an inventory anchor per SKU and simulates
// it forward month by month against forecasted demand and inbound units.
package projection

import (
	"sort"

	"github.com/sellerkit/replan/internal/domain"
	"github.com/sellerkit/replan/internal/planning/inbound"
	"github.com/sellerkit/replan/internal/planning/monthkey"
)

// Project runs one projection over the given state. The state is read-only;
// calling twice with identical inputs yields structurally identical results.
func Project(state *domain.PlanState, params Params) *Result {
	out := &Result{
		Months:  params.Months,
		Mode:    params.Mode,
		SKUs:    make(map[string]*SKUProjection),
		Inbound: inbound.Aggregate(state),
	}
	if out.Mode == "" {
		out.Mode = ModeUnits
	}
	if len(params.Months) == 0 {
		out.AnchorMode = AnchorNoSnapshot
		return out
	}

	startMonth := params.Months[0]
	anchorTarget := monthkey.Prev(startMonth)
	if params.AnchorMonth != "" {
		if normalized, err := monthkey.Parse(params.AnchorMonth); err == nil && monthkey.Compare(normalized, anchorTarget) < 0 {
			anchorTarget = normalized
		}
	}

	snapshots := snapshotsUpTo(state, anchorTarget)
	switch {
	case len(snapshots) == 0:
		out.AnchorMode = AnchorNoSnapshot
		out.AnchorMonth = anchorTarget
	case snapshots[len(snapshots)-1].Month == monthkey.Prev(startMonth):
		out.AnchorMode = AnchorSnapshot
		out.AnchorMonth = snapshots[len(snapshots)-1].Month
	default:
		out.AnchorMode = AnchorRollforward
		out.AnchorMonth = snapshots[len(snapshots)-1].Month
	}

	fallback := make(map[string]struct{})
	missingHistory := make(map[string]struct{})
	forecastGap := make(map[string]struct{})
	missingForecast := make(map[string]struct{})

	for _, product := range selectProducts(state, params.SKUs) {
		sku := domain.NormalizeSKU(product.SKU)
		if sku == "" {
			continue
		}

		anchorQty, anchorMonth, anchorKind := resolveAnchor(snapshots, sku)
		switch anchorKind {
		case anchorFromFallback:
			fallback[sku] = struct{}{}
		case anchorMissing:
			missingHistory[sku] = struct{}{}
			anchorMonth = monthkey.Prev(startMonth)
		}

		// Roll the anchor forward through the gap so it represents the
		// available quantity just before the first projected month.
		for _, gapMonth := range monthkey.Between(monthkey.Next(anchorMonth), monthkey.Prev(startMonth)) {
			demand := 0.0
			if fc := state.ForecastUnits(sku, gapMonth); fc != nil {
				demand = *fc
			} else {
				forecastGap[sku] = struct{}{}
			}
			anchorQty += float64(out.Inbound.Units(sku, gapMonth)) - demand
		}

		proj := &SKUProjection{
			SKU:            sku,
			AnchorMonth:    anchorMonth,
			StartAvailable: anchorQty,
			Cells:          make([]Cell, 0, len(params.Months)),
		}

		safetyDays := state.Settings.SafetyStockDays
		if product.SafetyStockDays != nil && *product.SafetyStockDays > 0 {
			safetyDays = *product.SafetyStockDays
		}

		prev := anchorQty
		poisoned := false
		for _, month := range params.Months {
			cell := Cell{
				Month:        month,
				Forecast:     state.ForecastUnits(sku, month),
				InboundUnits: out.Inbound.Units(sku, month),
				Inbound:      out.Inbound.Bucket(sku, month),
				SafetyDays:   safetyDays,
			}

			if cell.Forecast == nil {
				poisoned = true
				missingForecast[sku] = struct{}{}
			}

			if !poisoned {
				end := prev + float64(cell.InboundUnits) - *cell.Forecast
				prev = end
				cell.EndAvailable = &end

				days := float64(monthkey.DaysIn(month))
				if *cell.Forecast > 0 && days > 0 {
					daily := *cell.Forecast / days
					doh := end / daily
					cell.DaysOfInventory = &doh
					cell.SafetyUnits = daily * safetyDays
				}

				cell.Stockout = end <= 0
				okUnits := !cell.Stockout && end >= cell.SafetyUnits
				cell.CoveredUnits = &okUnits
				if cell.DaysOfInventory != nil {
					okDays := !cell.Stockout && *cell.DaysOfInventory >= safetyDays
					cell.CoveredDays = &okDays
				} else {
					// No demand this month: days of inventory are
					// undefined, coverage follows the units verdict.
					cell.CoveredDays = &okUnits
				}
			}

			proj.Cells = append(proj.Cells, cell)
		}

		out.SKUs[sku] = proj
	}

	out.FallbackSKUs = sortedKeys(fallback)
	out.MissingHistorySKUs = sortedKeys(missingHistory)
	out.ForecastGapSKUs = sortedKeys(forecastGap)
	out.MissingForecastSKUs = sortedKeys(missingForecast)

	return out
}

type anchorKind int

const (
	anchorFromSnapshot anchorKind = iota
	anchorFromFallback
	anchorMissing
)

// resolveAnchor finds a SKU's anchor quantity: the latest snapshot first,
// then the SKU's own older history, then zero with a missing-history flag.
func resolveAnchor(snapshots []domain.InventorySnapshot, sku string) (float64, string, anchorKind) {
	if len(snapshots) == 0 {
		return 0, "", anchorMissing
	}

	latest := snapshots[len(snapshots)-1]
	if qty, ok := snapshotQty(latest, sku); ok {
		return qty, latest.Month, anchorFromSnapshot
	}

	for i := len(snapshots) - 2; i >= 0; i-- {
		if qty, ok := snapshotQty(snapshots[i], sku); ok {
			return qty, snapshots[i].Month, anchorFromFallback
		}
	}

	return 0, "", anchorMissing
}

func snapshotQty(snap domain.InventorySnapshot, sku string) (float64, bool) {
	for _, item := range snap.Items {
		if domain.NormalizeSKU(item.SKU) == sku {
			return item.OnHandA + item.OnHandB, true
		}
	}
	return 0, false
}

// snapshotsUpTo returns the state's snapshots at or before the target month,
// sorted chronologically with normalized month keys.
func snapshotsUpTo(state *domain.PlanState, target string) []domain.InventorySnapshot {
	var out []domain.InventorySnapshot
	for _, snap := range state.Snapshots {
		month, err := monthkey.Parse(snap.Month)
		if err != nil {
			continue
		}
		if monthkey.Compare(month, target) <= 0 {
			normalized := snap
			normalized.Month = month
			out = append(out, normalized)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func selectProducts(state *domain.PlanState, skus []string) []domain.Product {
	if len(skus) == 0 {
		return state.Products
	}
	want := make(map[string]struct{}, len(skus))
	for _, sku := range skus {
		want[domain.NormalizeSKU(sku)] = struct{}{}
	}
	var out []domain.Product
	for _, p := range state.Products {
		if _, ok := want[domain.NormalizeSKU(p.SKU)]; ok {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
