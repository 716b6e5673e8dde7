// internal/domain/models.go
package domain

import "time"

// PlanState is the immutable state snapshot handed to the planning engine by
// the surrounding application. The engine never mutates it; operations that
// need a mutated view work on a Clone.
type PlanState struct {
	// Revision identifies the snapshot for caching. Opaque to the engine.
	Revision string `json:"revision"`

	Products        []Product             `json:"products"`
	Suppliers       []Supplier            `json:"suppliers"`
	Links           []ProductSupplierLink `json:"product_supplier_links"`
	PurchaseOrders  []Order               `json:"purchase_orders"`
	ForwarderOrders []Order               `json:"forwarder_orders"`
	Snapshots       []InventorySnapshot   `json:"inventory_snapshots"`
	Forecast        Forecast              `json:"forecast"`
	CashIn          CashIn                `json:"cash_in"`
	FixedCosts      []FixedCost           `json:"fixed_costs"`
	Settings        Settings              `json:"settings"`
}

// Product is a catalog entry. Externally owned, read-only to the engine.
// SKUs are matched case-insensitively.
type Product struct {
	SKU               string `json:"sku"`
	Alias             string `json:"alias"`
	Active            bool   `json:"active"`
	IncludeInForecast bool   `json:"include_in_forecast"`
	CategoryID        string `json:"category_id"`
	ABCClass          string `json:"abc_class"`
	TransportMode     string `json:"transport_mode"`

	// Planning overrides. Nil means "not set here, fall through".
	SafetyStockDays    *float64 `json:"safety_stock_days"`
	CoverageDays       *float64 `json:"coverage_days"`
	UnitPriceUSD       *float64 `json:"unit_price_usd"`
	SellPriceGrossEUR  *float64 `json:"sell_price_gross_eur"`
	MarginPct          *float64 `json:"margin_pct"`
	MOQ                *float64 `json:"moq"`
	ProductionLeadDays *float64 `json:"production_lead_days"`
	TransitDays        *float64 `json:"transit_days"`
	LogisticsCostEUR   *float64 `json:"logistics_cost_eur"`
	DutyPct            *float64 `json:"duty_pct"`
	EUStPct            *float64 `json:"eust_pct"`
	DDP                *bool    `json:"ddp"`
	Incoterm           string   `json:"incoterm"`
	Currency           string   `json:"currency"`
	FXRate             *float64 `json:"fx_rate"`
}

// Supplier holds supplier-level defaults used by the resolution hierarchy.
type Supplier struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	ProductionLeadDays *float64 `json:"production_lead_days"`
	TransitDays        *float64 `json:"transit_days"`
	Currency           string   `json:"currency"`
	Incoterm           string   `json:"incoterm"`
	MOQ                *float64 `json:"moq"`
	PaymentTerms       string   `json:"payment_terms"`
}

// ProductSupplierLink carries SKU-specific overrides for one supplier.
type ProductSupplierLink struct {
	SKU                string   `json:"sku"`
	SupplierID         string   `json:"supplier_id"`
	UnitPriceUSD       *float64 `json:"unit_price_usd"`
	ProductionLeadDays *float64 `json:"production_lead_days"`
	TransitDays        *float64 `json:"transit_days"`
	MOQ                *float64 `json:"moq"`
	Currency           string   `json:"currency"`
}

// OrderType distinguishes purchase orders from forwarder orders.
type OrderType string

const (
	OrderTypePO OrderType = "po"
	OrderTypeFO OrderType = "fo"
)

// Order is a purchase or forwarder order as supplied by the caller.
type Order struct {
	ID           string          `json:"id"`
	Number       string          `json:"number"`
	Type         OrderType       `json:"type"`
	SupplierID   string          `json:"supplier_id"`
	Status       string          `json:"status"`
	OrderDate    *time.Time      `json:"order_date"`
	ETADate      *time.Time      `json:"eta_date"`
	DeliveryDate *time.Time      `json:"delivery_date"`
	Items        []OrderItem     `json:"items"`
	Overrides    *OrderOverrides `json:"overrides"`
	Synthetic    bool            `json:"synthetic"`
}

// OrderItem is one order line. Units arrive as raw text and are normalized
// by the inbound aggregator ("1.234,5" and "1,234.5" both mean 1234.5).
type OrderItem struct {
	SKU   string `json:"sku"`
	Units string `json:"units"`
}

// OrderOverrides carries explicit per-order values entered on the order form.
// A set field beats every other source in the resolution hierarchy.
type OrderOverrides struct {
	UnitPriceUSD       *float64 `json:"unit_price_usd"`
	SellPriceGrossEUR  *float64 `json:"sell_price_gross_eur"`
	MarginPct          *float64 `json:"margin_pct"`
	MOQ                *float64 `json:"moq"`
	ProductionLeadDays *float64 `json:"production_lead_days"`
	TransitDays        *float64 `json:"transit_days"`
	LogisticsCostEUR   *float64 `json:"logistics_cost_eur"`
	DutyPct            *float64 `json:"duty_pct"`
	EUStPct            *float64 `json:"eust_pct"`
	DDP                *bool    `json:"ddp"`
	Incoterm           string   `json:"incoterm"`
	Currency           string   `json:"currency"`
	FXRate             *float64 `json:"fx_rate"`
}

// InventorySnapshot is a month-stamped stock count across the two physical
// locations.
type InventorySnapshot struct {
	Month string         `json:"month"`
	Items []SnapshotItem `json:"items"`
}

type SnapshotItem struct {
	SKU     string  `json:"sku"`
	OnHandA float64 `json:"on_hand_a"`
	OnHandB float64 `json:"on_hand_b"`
	Note    string  `json:"note"`
}

// Forecast holds the two demand layers. Manual entries are authoritative;
// imported entries are the fallback. A (sku, month) with neither has no
// forecast.
type Forecast struct {
	Manual   map[string]map[string]float64        `json:"manual"`
	Imported map[string]map[string]ImportedDemand `json:"imported"`
}

type ImportedDemand struct {
	Units      float64 `json:"units"`
	RevenueEUR float64 `json:"revenue_eur"`
	ProfitEUR  float64 `json:"profit_eur"`
}

// CashIn carries the per-month revenue basis used by the cash_in robustness
// check: planned payout entries and recorded actuals.
type CashIn struct {
	Planned map[string]float64 `json:"planned"`
	Actuals map[string]float64 `json:"actuals"`
}

// FixedCost is one recurring cost definition. Existence of any definition
// satisfies the fixcost robustness check.
type FixedCost struct {
	Label     string  `json:"label"`
	AmountEUR float64 `json:"amount_eur"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
}

// TransportLeadTime is one row of the settings transport table.
type TransportLeadTime struct {
	TransitDays float64 `json:"transit_days"`
}

// VATPreview holds the global VAT defaults and per-month overrides. The
// preview is considered active once any default is configured.
type VATPreview struct {
	Defaults  map[string]float64            `json:"defaults"`
	Overrides map[string]map[string]float64 `json:"overrides"`
}

// Settings is the global fallback tier of the resolution hierarchy plus the
// planning defaults.
type Settings struct {
	SafetyStockDays    float64                      `json:"safety_stock_days"`
	CoverageDays       float64                      `json:"coverage_days"`
	TransportLeadTimes map[string]TransportLeadTime `json:"transport_lead_times"`
	DutyPct            *float64                     `json:"duty_pct"`
	EUStPct            *float64                     `json:"eust_pct"`
	FXRateUSDEUR       *float64                     `json:"fx_rate_usd_eur"`
	Currency           string                       `json:"currency"`
	Incoterm           string                       `json:"incoterm"`
	VAT                VATPreview                   `json:"vat"`
}
