// Package resolve decides, for every planning field of a (SKU, supplier,
// order) triple, which source wins: an explicit order override, the product,
// the product-supplier link, the supplier defaults, or the global settings.
package resolve

import (
	"math"
	"strings"

	"github.com/sellerkit/replan/internal/domain"
)

// Source tags where a resolved value came from. The set is closed; consumers
// switch over it exhaustively.
type Source string

const (
	SourceOrderOverride Source = "order_override"
	SourceProduct       Source = "product"
	SourceSupplier      Source = "supplier"
	SourceSettings      Source = "settings"
	SourceMissing       Source = "missing"
)

// DefaultTransportMode is the settings fallback when a product has no
// transport mode configured.
const DefaultTransportMode = "sea"

// Field is the atomic output of the hierarchy. Blocking is true exactly when
// a required field could not be resolved from any source.
type Field[T any] struct {
	Value    *T     `json:"value"`
	Source   Source `json:"source"`
	Required bool   `json:"required"`
	Blocking bool   `json:"blocking"`
	// Adoptable marks an order override that diverges from the resolved
	// base value, so the caller can offer persisting it onto the product.
	Adoptable bool `json:"adoptable"`
}

// Fields carries all resolved planning fields for one order context.
type Fields struct {
	UnitPriceUSD       Field[float64] `json:"unit_price_usd"`
	SellPriceGrossEUR  Field[float64] `json:"sell_price_gross_eur"`
	MarginPct          Field[float64] `json:"margin_pct"`
	MOQ                Field[float64] `json:"moq"`
	ProductionLeadDays Field[float64] `json:"production_lead_days"`
	TransitDays        Field[float64] `json:"transit_days"`
	LogisticsCostEUR   Field[float64] `json:"logistics_cost_eur"`
	DutyPct            Field[float64] `json:"duty_pct"`
	EUStPct            Field[float64] `json:"eust_pct"`
	DDP                Field[bool]    `json:"ddp"`
	Incoterm           Field[string]  `json:"incoterm"`
	Currency           Field[string]  `json:"currency"`
	FXRate             Field[float64] `json:"fx_rate"`
}

// BlockingFields lists the names of required fields that resolved to missing.
// An order form must refuse creation while this is non-empty.
func (f Fields) BlockingFields() []string {
	var out []string
	if f.UnitPriceUSD.Blocking {
		out = append(out, "unit_price_usd")
	}
	if f.SellPriceGrossEUR.Blocking {
		out = append(out, "sell_price_gross_eur")
	}
	if f.MarginPct.Blocking {
		out = append(out, "margin_pct")
	}
	if f.MOQ.Blocking {
		out = append(out, "moq")
	}
	if f.ProductionLeadDays.Blocking {
		out = append(out, "production_lead_days")
	}
	return out
}

// TotalLeadDays sums production and transit lead times, treating a missing
// component as zero.
func (f Fields) TotalLeadDays() float64 {
	var total float64
	if f.ProductionLeadDays.Value != nil {
		total += *f.ProductionLeadDays.Value
	}
	if f.TransitDays.Value != nil {
		total += *f.TransitDays.Value
	}
	return total
}

var (
	allowedCurrencies = map[string]bool{"EUR": true, "USD": true, "CNY": true}
	allowedIncoterms  = map[string]bool{"EXW": true, "FOB": true, "DDP": true, "FCA": true, "DAP": true, "CIF": true}
)

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func validCurrency(v string) bool { return allowedCurrencies[v] }
func validIncoterm(v string) bool { return allowedIncoterms[v] }
func anyBool(bool) bool           { return true }

type candidate[T any] struct {
	value  *T
	source Source
}

// pick walks an ordered candidate list and takes the first value passing the
// validity predicate. No candidate passing means Source == missing, which is
// blocking for required fields.
func pick[T any](required bool, valid func(T) bool, cands ...candidate[T]) Field[T] {
	for _, c := range cands {
		if c.value == nil || !valid(*c.value) {
			continue
		}
		v := *c.value
		return Field[T]{Value: &v, Source: c.source, Required: required}
	}
	return Field[T]{Source: SourceMissing, Required: required, Blocking: required}
}

// withOverride applies an explicit order-level value on top of a resolved
// base. An override equal to the base is not reported as an override, so the
// caller sees no spurious divergence. Invalid override values are skipped
// rather than coerced.
func withOverride[T comparable](base Field[T], ov *T, valid func(T) bool) Field[T] {
	if ov == nil || !valid(*ov) {
		return base
	}
	if base.Value != nil && *base.Value == *ov {
		return base
	}
	v := *ov
	return Field[T]{
		Value:     &v,
		Source:    SourceOrderOverride,
		Required:  base.Required,
		Adoptable: true,
	}
}

// Input is one resolution context. Supplier, Link and Overrides are optional.
type Input struct {
	Product   *domain.Product
	Supplier  *domain.Supplier
	Link      *domain.ProductSupplierLink
	Settings  domain.Settings
	Overrides *domain.OrderOverrides
}

// ForOrder resolves all fields for a (sku, supplier) pair in the given state,
// with optional per-order overrides.
func ForOrder(state *domain.PlanState, sku, supplierID string, overrides *domain.OrderOverrides) Fields {
	in := Input{Settings: state.Settings, Overrides: overrides}
	if p, ok := state.ProductBySKU(sku); ok {
		in.Product = &p
	}
	if supplierID != "" {
		if sup, ok := state.SupplierByID(supplierID); ok {
			in.Supplier = &sup
		}
		if link, ok := state.LinkFor(sku, supplierID); ok {
			in.Link = &link
		}
	}
	return Resolve(in)
}

// Resolve evaluates the per-field candidate chains for one context.
func Resolve(in Input) Fields {
	prof := buildProfile(in.Product)
	sup := in.Supplier
	link := in.Link
	set := in.Settings

	var supProduction, supTransit, supMOQ *float64
	var supCurrency, supIncoterm *string
	if sup != nil {
		supProduction = sup.ProductionLeadDays
		supTransit = sup.TransitDays
		supMOQ = sup.MOQ
		supCurrency = strPtr(sup.Currency)
		supIncoterm = strPtr(sup.Incoterm)
	}

	var linkPrice, linkProduction, linkTransit, linkMOQ *float64
	var linkCurrency *string
	if link != nil {
		linkPrice = link.UnitPriceUSD
		linkProduction = link.ProductionLeadDays
		linkTransit = link.TransitDays
		linkMOQ = link.MOQ
		linkCurrency = strPtr(link.Currency)
	}

	modeTransit := transitFromSettings(set, prof.TransportMode)
	seaTransit := transitFromSettings(set, DefaultTransportMode)

	out := Fields{
		UnitPriceUSD: pick(true, positive,
			candidate[float64]{prof.UnitPriceUSD, SourceProduct},
			candidate[float64]{linkPrice, SourceSupplier},
		),
		SellPriceGrossEUR: pick(true, positive,
			candidate[float64]{prof.SellPriceGrossEUR, SourceProduct},
		),
		MarginPct: pick(true, positive,
			candidate[float64]{prof.MarginPct, SourceProduct},
		),
		MOQ: pick(true, positive,
			candidate[float64]{prof.MOQ, SourceProduct},
			candidate[float64]{linkMOQ, SourceSupplier},
			candidate[float64]{supMOQ, SourceSupplier},
		),
		ProductionLeadDays: pick(true, positive,
			candidate[float64]{prof.ProductionLeadDays, SourceProduct},
			candidate[float64]{linkProduction, SourceSupplier},
			candidate[float64]{supProduction, SourceSupplier},
		),
		TransitDays: pick(false, positive,
			candidate[float64]{prof.TransitDays, SourceProduct},
			candidate[float64]{linkTransit, SourceSupplier},
			candidate[float64]{supTransit, SourceSupplier},
			candidate[float64]{modeTransit, SourceSettings},
			candidate[float64]{seaTransit, SourceSettings},
		),
		LogisticsCostEUR: pick(false, positive,
			candidate[float64]{prof.LogisticsCostEUR, SourceProduct},
		),
		DutyPct: pick(false, nonNegative,
			candidate[float64]{prof.DutyPct, SourceProduct},
			candidate[float64]{set.DutyPct, SourceSettings},
		),
		EUStPct: pick(false, nonNegative,
			candidate[float64]{prof.EUStPct, SourceProduct},
			candidate[float64]{set.EUStPct, SourceSettings},
		),
		DDP: pick(false, anyBool,
			candidate[bool]{prof.DDP, SourceProduct},
		),
		Incoterm: pick(false, validIncoterm,
			candidate[string]{prof.Incoterm, SourceProduct},
			candidate[string]{supIncoterm, SourceSupplier},
			candidate[string]{strPtr(set.Incoterm), SourceSettings},
		),
		Currency: pick(false, validCurrency,
			candidate[string]{prof.Currency, SourceProduct},
			candidate[string]{linkCurrency, SourceSupplier},
			candidate[string]{supCurrency, SourceSupplier},
			candidate[string]{strPtr(set.Currency), SourceSettings},
		),
		FXRate: pick(false, positive,
			candidate[float64]{prof.FXRate, SourceProduct},
			candidate[float64]{set.FXRateUSDEUR, SourceSettings},
		),
	}

	if ov := in.Overrides; ov != nil {
		out.UnitPriceUSD = withOverride(out.UnitPriceUSD, ov.UnitPriceUSD, positive)
		out.SellPriceGrossEUR = withOverride(out.SellPriceGrossEUR, ov.SellPriceGrossEUR, positive)
		out.MarginPct = withOverride(out.MarginPct, ov.MarginPct, positive)
		out.MOQ = withOverride(out.MOQ, ov.MOQ, positive)
		out.ProductionLeadDays = withOverride(out.ProductionLeadDays, ov.ProductionLeadDays, positive)
		out.TransitDays = withOverride(out.TransitDays, ov.TransitDays, positive)
		out.LogisticsCostEUR = withOverride(out.LogisticsCostEUR, ov.LogisticsCostEUR, positive)
		out.DutyPct = withOverride(out.DutyPct, ov.DutyPct, nonNegative)
		out.EUStPct = withOverride(out.EUStPct, ov.EUStPct, nonNegative)
		out.DDP = withOverride(out.DDP, ov.DDP, anyBool)
		out.Incoterm = withOverride(out.Incoterm, strPtr(ov.Incoterm), validIncoterm)
		out.Currency = withOverride(out.Currency, strPtr(ov.Currency), validCurrency)
		out.FXRate = withOverride(out.FXRate, ov.FXRate, positive)
	}

	return out
}

func transitFromSettings(set domain.Settings, mode string) *float64 {
	if mode == "" {
		return nil
	}
	if lt, ok := set.TransportLeadTimes[strings.ToLower(mode)]; ok && lt.TransitDays > 0 {
		v := lt.TransitDays
		return &v
	}
	return nil
}

func strPtr(s string) *string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}
