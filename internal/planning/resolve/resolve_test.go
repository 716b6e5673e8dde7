package resolve

import (
	"testing"

	"github.com/sellerkit/replan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func b(v bool) *bool       { return &v }

func baseState() *domain.PlanState {
	return &domain.PlanState{
		Products: []domain.Product{{
			SKU:               "SKU-1",
			Active:            true,
			TransportMode:     "air",
			UnitPriceUSD:      f(4.20),
			SellPriceGrossEUR: f(19.99),
			MarginPct:         f(35),
			MOQ:               f(500),
		}},
		Suppliers: []domain.Supplier{{
			ID:                 "sup-1",
			Name:               "Shenzhen Widgets",
			ProductionLeadDays: f(45),
			TransitDays:        f(38),
			Currency:           "CNY",
			Incoterm:           "FOB",
		}},
		Links: []domain.ProductSupplierLink{{
			SKU:          "sku-1", // case-insensitive match
			SupplierID:   "sup-1",
			UnitPriceUSD: f(3.80),
			TransitDays:  f(30),
		}},
		Settings: domain.Settings{
			TransportLeadTimes: map[string]domain.TransportLeadTime{
				"sea": {TransitDays: 42},
				"air": {TransitDays: 9},
			},
			DutyPct:      f(6.5),
			EUStPct:      f(19),
			FXRateUSDEUR: f(0.92),
			Currency:     "EUR",
			Incoterm:     "EXW",
		},
	}
}

func TestResolvePriorityChain(t *testing.T) {
	state := baseState()
	fields := ForOrder(state, "SKU-1", "sup-1", nil)

	// Product wins over link for unit price.
	require.NotNil(t, fields.UnitPriceUSD.Value)
	assert.Equal(t, 4.20, *fields.UnitPriceUSD.Value)
	assert.Equal(t, SourceProduct, fields.UnitPriceUSD.Source)

	// Product has no lead time, link has none either, supplier default wins.
	require.NotNil(t, fields.ProductionLeadDays.Value)
	assert.Equal(t, 45.0, *fields.ProductionLeadDays.Value)
	assert.Equal(t, SourceSupplier, fields.ProductionLeadDays.Source)

	// Link transit beats supplier transit and the settings table.
	require.NotNil(t, fields.TransitDays.Value)
	assert.Equal(t, 30.0, *fields.TransitDays.Value)
	assert.Equal(t, SourceSupplier, fields.TransitDays.Source)

	// Duty falls through to settings.
	require.NotNil(t, fields.DutyPct.Value)
	assert.Equal(t, 6.5, *fields.DutyPct.Value)
	assert.Equal(t, SourceSettings, fields.DutyPct.Source)

	// Supplier currency is in the allow-set and beats settings.
	require.NotNil(t, fields.Currency.Value)
	assert.Equal(t, "CNY", *fields.Currency.Value)
	assert.Equal(t, SourceSupplier, fields.Currency.Source)
}

func TestResolveTransportModeFallback(t *testing.T) {
	state := baseState()
	state.Links = nil
	state.Suppliers[0].TransitDays = nil

	fields := ForOrder(state, "SKU-1", "sup-1", nil)
	require.NotNil(t, fields.TransitDays.Value)
	assert.Equal(t, 9.0, *fields.TransitDays.Value) // air row of the settings table
	assert.Equal(t, SourceSettings, fields.TransitDays.Source)

	// Unknown mode falls back to the sea default.
	state.Products[0].TransportMode = "teleport"
	fields = ForOrder(state, "SKU-1", "sup-1", nil)
	require.NotNil(t, fields.TransitDays.Value)
	assert.Equal(t, 42.0, *fields.TransitDays.Value)
}

func TestResolveBlockingRequiredFields(t *testing.T) {
	state := baseState()
	state.Products[0].SellPriceGrossEUR = nil
	state.Products[0].MarginPct = nil
	state.Suppliers[0].ProductionLeadDays = nil

	fields := ForOrder(state, "SKU-1", "sup-1", nil)

	assert.True(t, fields.SellPriceGrossEUR.Blocking)
	assert.Equal(t, SourceMissing, fields.SellPriceGrossEUR.Source)
	assert.True(t, fields.MarginPct.Blocking)
	assert.True(t, fields.ProductionLeadDays.Blocking)

	assert.ElementsMatch(t,
		[]string{"sell_price_gross_eur", "margin_pct", "production_lead_days"},
		fields.BlockingFields())

	// Non-required fields never block, even when missing.
	state.Settings.DutyPct = nil
	state.Products[0].DutyPct = nil
	fields = ForOrder(state, "SKU-1", "sup-1", nil)
	assert.Equal(t, SourceMissing, fields.DutyPct.Source)
	assert.False(t, fields.DutyPct.Blocking)
}

func TestResolveOrderOverride(t *testing.T) {
	state := baseState()

	// Differing override wins outright and is adoptable.
	fields := ForOrder(state, "SKU-1", "sup-1", &domain.OrderOverrides{UnitPriceUSD: f(3.95)})
	require.NotNil(t, fields.UnitPriceUSD.Value)
	assert.Equal(t, 3.95, *fields.UnitPriceUSD.Value)
	assert.Equal(t, SourceOrderOverride, fields.UnitPriceUSD.Source)
	assert.True(t, fields.UnitPriceUSD.Adoptable)

	// Override equal to the base is not reported as an override.
	fields = ForOrder(state, "SKU-1", "sup-1", &domain.OrderOverrides{UnitPriceUSD: f(4.20)})
	assert.Equal(t, SourceProduct, fields.UnitPriceUSD.Source)
	assert.False(t, fields.UnitPriceUSD.Adoptable)

	// An override can fill a field the chain could not resolve.
	state.Products[0].SellPriceGrossEUR = nil
	fields = ForOrder(state, "SKU-1", "sup-1", &domain.OrderOverrides{SellPriceGrossEUR: f(24.99)})
	require.NotNil(t, fields.SellPriceGrossEUR.Value)
	assert.Equal(t, SourceOrderOverride, fields.SellPriceGrossEUR.Source)
	assert.False(t, fields.SellPriceGrossEUR.Blocking)
}

func TestResolveEnumValidation(t *testing.T) {
	state := baseState()
	state.Suppliers[0].Currency = "GBP" // outside the allow-set, skipped

	fields := ForOrder(state, "SKU-1", "sup-1", nil)
	require.NotNil(t, fields.Currency.Value)
	assert.Equal(t, "EUR", *fields.Currency.Value)
	assert.Equal(t, SourceSettings, fields.Currency.Source)

	// Invalid incoterm override is skipped, never coerced.
	fields = ForOrder(state, "SKU-1", "sup-1", &domain.OrderOverrides{Incoterm: "XYZ"})
	require.NotNil(t, fields.Incoterm.Value)
	assert.Equal(t, "FOB", *fields.Incoterm.Value)
	assert.Equal(t, SourceSupplier, fields.Incoterm.Source)
}

func TestResolveInvalidNumbersSkipped(t *testing.T) {
	state := baseState()
	state.Products[0].UnitPriceUSD = f(0) // zero price is not usable
	fields := ForOrder(state, "SKU-1", "sup-1", nil)
	require.NotNil(t, fields.UnitPriceUSD.Value)
	assert.Equal(t, 3.80, *fields.UnitPriceUSD.Value) // falls to the link
	assert.Equal(t, SourceSupplier, fields.UnitPriceUSD.Source)

	// Duty of exactly zero is legal.
	state.Products[0].DutyPct = f(0)
	fields = ForOrder(state, "SKU-1", "sup-1", nil)
	require.NotNil(t, fields.DutyPct.Value)
	assert.Equal(t, 0.0, *fields.DutyPct.Value)
	assert.Equal(t, SourceProduct, fields.DutyPct.Source)
}

func TestResolveUnknownProductAndSupplier(t *testing.T) {
	state := baseState()
	fields := ForOrder(state, "NOPE", "ghost", nil)

	assert.True(t, fields.UnitPriceUSD.Blocking)
	assert.True(t, fields.MOQ.Blocking)
	require.NotNil(t, fields.Currency.Value)
	assert.Equal(t, "EUR", *fields.Currency.Value) // settings still apply

	assert.Equal(t, 0.0, fields.TotalLeadDays())
}

func TestResolveDDP(t *testing.T) {
	state := baseState()
	state.Products[0].DDP = b(true)
	fields := ForOrder(state, "SKU-1", "sup-1", nil)
	require.NotNil(t, fields.DDP.Value)
	assert.True(t, *fields.DDP.Value)
	assert.Equal(t, SourceProduct, fields.DDP.Source)

	fields = ForOrder(state, "SKU-1", "sup-1", &domain.OrderOverrides{DDP: b(false)})
	require.NotNil(t, fields.DDP.Value)
	assert.False(t, *fields.DDP.Value)
	assert.Equal(t, SourceOrderOverride, fields.DDP.Source)
}
