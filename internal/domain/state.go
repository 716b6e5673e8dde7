package domain

import "strings"

// NormalizeSKU canonicalizes a SKU for matching. SKUs are case-insensitive
// keys throughout the engine.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// ProductBySKU returns the product matching the given SKU, if any.
func (s *PlanState) ProductBySKU(sku string) (Product, bool) {
	want := NormalizeSKU(sku)
	for _, p := range s.Products {
		if NormalizeSKU(p.SKU) == want {
			return p, true
		}
	}
	return Product{}, false
}

// SupplierByID returns the supplier with the given id, if any.
func (s *PlanState) SupplierByID(id string) (Supplier, bool) {
	for _, sup := range s.Suppliers {
		if sup.ID == id {
			return sup, true
		}
	}
	return Supplier{}, false
}

// LinkFor returns the product-supplier link for a (sku, supplier) pair.
func (s *PlanState) LinkFor(sku, supplierID string) (ProductSupplierLink, bool) {
	want := NormalizeSKU(sku)
	for _, l := range s.Links {
		if l.SupplierID == supplierID && NormalizeSKU(l.SKU) == want {
			return l, true
		}
	}
	return ProductSupplierLink{}, false
}

// ForecastUnits resolves demand for a (sku, month) pair. The manual layer is
// authoritative; the imported layer is the fallback. Nil means no forecast.
func (s *PlanState) ForecastUnits(sku, month string) *float64 {
	key := NormalizeSKU(sku)
	if byMonth, ok := s.Forecast.Manual[key]; ok {
		if units, ok := byMonth[month]; ok {
			v := units
			return &v
		}
	}
	if byMonth, ok := s.Forecast.Imported[key]; ok {
		if entry, ok := byMonth[month]; ok {
			v := entry.Units
			return &v
		}
	}
	return nil
}

// AllOrders returns purchase and forwarder orders in one slice, POs first.
func (s *PlanState) AllOrders() []Order {
	out := make([]Order, 0, len(s.PurchaseOrders)+len(s.ForwarderOrders))
	out = append(out, s.PurchaseOrders...)
	out = append(out, s.ForwarderOrders...)
	return out
}

// Clone returns a deep copy of the state. The suggestion generator folds
// synthetic orders into clones so that no iteration shares structure with
// the caller's snapshot or with a previous iteration.
func (s *PlanState) Clone() *PlanState {
	if s == nil {
		return nil
	}

	out := &PlanState{
		Revision:   s.Revision,
		Products:   append([]Product(nil), s.Products...),
		Suppliers:  append([]Supplier(nil), s.Suppliers...),
		Links:      append([]ProductSupplierLink(nil), s.Links...),
		FixedCosts: append([]FixedCost(nil), s.FixedCosts...),
		Settings:   s.Settings.clone(),
		CashIn: CashIn{
			Planned: cloneFloatMap(s.CashIn.Planned),
			Actuals: cloneFloatMap(s.CashIn.Actuals),
		},
		Forecast: Forecast{
			Manual:   cloneNestedFloatMap(s.Forecast.Manual),
			Imported: cloneImportedMap(s.Forecast.Imported),
		},
	}

	out.PurchaseOrders = cloneOrders(s.PurchaseOrders)
	out.ForwarderOrders = cloneOrders(s.ForwarderOrders)

	out.Snapshots = make([]InventorySnapshot, len(s.Snapshots))
	for i, snap := range s.Snapshots {
		out.Snapshots[i] = InventorySnapshot{
			Month: snap.Month,
			Items: append([]SnapshotItem(nil), snap.Items...),
		}
	}

	return out
}

func cloneOrders(orders []Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		c := o
		c.Items = append([]OrderItem(nil), o.Items...)
		if o.Overrides != nil {
			ov := *o.Overrides
			c.Overrides = &ov
		}
		out[i] = c
	}
	return out
}

func (st Settings) clone() Settings {
	out := st
	if st.TransportLeadTimes != nil {
		out.TransportLeadTimes = make(map[string]TransportLeadTime, len(st.TransportLeadTimes))
		for k, v := range st.TransportLeadTimes {
			out.TransportLeadTimes[k] = v
		}
	}
	out.VAT = VATPreview{
		Defaults:  cloneFloatMap(st.VAT.Defaults),
		Overrides: cloneNestedFloatMap(st.VAT.Overrides),
	}
	return out
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneNestedFloatMap(m map[string]map[string]float64) map[string]map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]map[string]float64, len(m))
	for k, inner := range m {
		out[k] = cloneFloatMap(inner)
	}
	return out
}

func cloneImportedMap(m map[string]map[string]ImportedDemand) map[string]map[string]ImportedDemand {
	if m == nil {
		return nil
	}
	out := make(map[string]map[string]ImportedDemand, len(m))
	for k, inner := range m {
		cp := make(map[string]ImportedDemand, len(inner))
		for mk, v := range inner {
			cp[mk] = v
		}
		out[k] = cp
	}
	return out
}
