package projection

import (
	"github.com/sellerkit/replan/internal/planning/inbound"
)

// Mode selects how coverage is judged: end-of-month units against safety
// units, or days of inventory against safety days.
type Mode string

const (
	ModeUnits Mode = "units"
	ModeDays  Mode = "days"
)

// AnchorMode describes how the start-of-horizon state was obtained.
type AnchorMode string

const (
	AnchorNoSnapshot  AnchorMode = "no_snapshot"
	AnchorSnapshot    AnchorMode = "snapshot"
	AnchorRollforward AnchorMode = "rollforward"
)

// Cell is the projected state of one SKU in one month.
type Cell struct {
	Month        string          `json:"month"`
	Forecast     *float64        `json:"forecast"`
	InboundUnits int             `json:"inbound_units"`
	Inbound      *inbound.Bucket `json:"inbound"`

	// EndAvailable is nil once this or any earlier month of the run lacks
	// a forecast.
	EndAvailable    *float64 `json:"end_available"`
	DaysOfInventory *float64 `json:"days_of_inventory"`

	SafetyUnits float64 `json:"safety_units"`
	SafetyDays  float64 `json:"safety_days"`

	CoveredUnits *bool `json:"covered_units"`
	CoveredDays  *bool `json:"covered_days"`
	Stockout     bool  `json:"stockout"`
}

// Covered reports the coverage verdict for the given mode. Nil means the
// month could not be judged (unknown demand upstream).
func (c Cell) Covered(mode Mode) *bool {
	if mode == ModeDays {
		return c.CoveredDays
	}
	return c.CoveredUnits
}

// SKUProjection is the full horizon for one SKU.
type SKUProjection struct {
	SKU            string  `json:"sku"`
	AnchorMonth    string  `json:"anchor_month"`
	StartAvailable float64 `json:"start_available"`
	Cells          []Cell  `json:"cells"`
}

// Cell returns the cell for a month, nil when the month is outside the run.
func (p *SKUProjection) Cell(month string) *Cell {
	for i := range p.Cells {
		if p.Cells[i].Month == month {
			return &p.Cells[i]
		}
	}
	return nil
}

// Result is one projection run. The diagnostic SKU sets are first-class
// outputs: downstream robustness checks key off them.
type Result struct {
	Months      []string                  `json:"months"`
	Mode        Mode                      `json:"mode"`
	AnchorMode  AnchorMode                `json:"anchor_mode"`
	AnchorMonth string                    `json:"anchor_month"`
	SKUs        map[string]*SKUProjection `json:"skus"`

	FallbackSKUs        []string `json:"fallback_skus"`
	MissingHistorySKUs  []string `json:"missing_history_skus"`
	ForecastGapSKUs     []string `json:"forecast_gap_skus"`
	MissingForecastSKUs []string `json:"missing_forecast_skus"`

	Inbound inbound.Result `json:"inbound"`
}

// Params select what to project.
type Params struct {
	// Months is the ordered, contiguous horizon.
	Months []string
	// SKUs restricts the run; empty means every product in the state.
	SKUs []string
	// AnchorMonth pins the snapshot month; empty means the month before
	// the first projected month.
	AnchorMonth string
	Mode        Mode
}
