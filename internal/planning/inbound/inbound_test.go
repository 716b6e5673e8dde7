package inbound

import (
	"testing"
	"time"

	"github.com/sellerkit/replan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64   { return &v }
func d(t time.Time) *time.Time { return &t }

func testState() *domain.PlanState {
	return &domain.PlanState{
		Products: []domain.Product{{
			SKU:                "SKU-1",
			Active:             true,
			ProductionLeadDays: f(30),
			TransitDays:        f(40),
		}},
		Suppliers: []domain.Supplier{{ID: "sup-1"}},
	}
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"100", 100, true},
		{"1.234,5", 1235, true},
		{"1,234.5", 1235, true},
		{"1.234", 1234, true},
		{"1,234", 1234, true},
		{"12.5", 13, true},
		{"12,5", 13, true},
		{"0.234", 0, true},
		{"0", 0, true},
		{" 42 ", 42, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-5", 0, false},
	}

	for _, tc := range tests {
		got, ok := ParseUnits(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestAggregateManualETAWins(t *testing.T) {
	state := testState()
	state.PurchaseOrders = []domain.Order{{
		ID:         "po-1",
		Number:     "PO-2025-001",
		Type:       domain.OrderTypePO,
		SupplierID: "sup-1",
		Status:     "placed",
		OrderDate:  d(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)),
		ETADate:    d(time.Date(2025, 4, 18, 0, 0, 0, 0, time.UTC)),
		Items:      []domain.OrderItem{{SKU: "sku-1", Units: "750"}},
	}}

	result := Aggregate(state)
	assert.Equal(t, 0, result.MissingDateCount)
	assert.Equal(t, 750, result.Units("SKU-1", "2025-04"))

	bucket := result.Bucket("SKU-1", "2025-04")
	require.NotNil(t, bucket)
	require.Len(t, bucket.POItems, 1)
	assert.Equal(t, DateSourceETA, bucket.POItems[0].DateSource)
	assert.Equal(t, "PO-2025-001", bucket.POItems[0].OrderNumber)
}

func TestAggregateComputedArrival(t *testing.T) {
	state := testState()
	// 2025-01-10 + 30 production + 40 transit = 2025-03-21.
	state.PurchaseOrders = []domain.Order{{
		ID:         "po-1",
		Type:       domain.OrderTypePO,
		SupplierID: "sup-1",
		Status:     "in_production",
		OrderDate:  d(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)),
		Items:      []domain.OrderItem{{SKU: "SKU-1", Units: "200"}},
	}}

	result := Aggregate(state)
	assert.Equal(t, 200, result.Units("SKU-1", "2025-03"))

	bucket := result.Bucket("SKU-1", "2025-03")
	require.NotNil(t, bucket)
	assert.Equal(t, DateSourceComputed, bucket.POItems[0].DateSource)
}

func TestAggregateMissingDateCounted(t *testing.T) {
	state := testState()
	state.PurchaseOrders = []domain.Order{{
		ID:     "po-missing",
		Type:   domain.OrderTypePO,
		Status: "placed",
		Items:  []domain.OrderItem{{SKU: "SKU-1", Units: "100"}},
	}}

	result := Aggregate(state)
	assert.Equal(t, 1, result.MissingDateCount)
	assert.Equal(t, []string{"po-missing"}, result.MissingDateOrderIDs)
	assert.Empty(t, result.Buckets)
}

func TestAggregateExcludesNonCountableStatuses(t *testing.T) {
	eta := d(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	state := testState()
	state.PurchaseOrders = []domain.Order{
		{ID: "a", Type: domain.OrderTypePO, Status: "cancelled", ETADate: eta,
			Items: []domain.OrderItem{{SKU: "SKU-1", Units: "10"}}},
		{ID: "b", Type: domain.OrderTypePO, Status: "archived", ETADate: eta,
			Items: []domain.OrderItem{{SKU: "SKU-1", Units: "20"}}},
		{ID: "c", Type: domain.OrderTypePO, Status: "placed", ETADate: eta,
			Items: []domain.OrderItem{{SKU: "SKU-1", Units: "30"}}},
	}

	result := Aggregate(state)
	assert.Equal(t, 30, result.Units("SKU-1", "2025-04"))
	assert.Equal(t, 0, result.MissingDateCount)
}

func TestAggregateSplitsPOAndFO(t *testing.T) {
	eta := d(time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC))
	state := testState()
	state.PurchaseOrders = []domain.Order{{
		ID: "po-1", Type: domain.OrderTypePO, Status: "placed", ETADate: eta,
		Items: []domain.OrderItem{{SKU: "SKU-1", Units: "100"}},
	}}
	state.ForwarderOrders = []domain.Order{{
		ID: "fo-1", Type: domain.OrderTypeFO, Status: "placed", ETADate: eta,
		Items: []domain.OrderItem{{SKU: "SKU-1", Units: "40"}},
	}}

	result := Aggregate(state)
	bucket := result.Bucket("SKU-1", "2025-05")
	require.NotNil(t, bucket)
	assert.Equal(t, 140, bucket.TotalUnits)
	assert.Equal(t, 100, bucket.POUnits)
	assert.Equal(t, 40, bucket.FOUnits)
	assert.Len(t, bucket.POItems, 1)
	assert.Len(t, bucket.FOItems, 1)
}

func TestAggregateDropsZeroAndInvalidUnits(t *testing.T) {
	eta := d(time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC))
	state := testState()
	state.PurchaseOrders = []domain.Order{{
		ID: "po-1", Type: domain.OrderTypePO, Status: "placed", ETADate: eta,
		Items: []domain.OrderItem{
			{SKU: "SKU-1", Units: "0"},
			{SKU: "SKU-1", Units: "n/a"},
			{SKU: "SKU-1", Units: "15"},
		},
	}}

	result := Aggregate(state)
	bucket := result.Bucket("SKU-1", "2025-05")
	require.NotNil(t, bucket)
	assert.Equal(t, 15, bucket.TotalUnits)
	assert.Len(t, bucket.POItems, 1)
}
