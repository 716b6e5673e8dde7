// Package inbound attributes purchase and forwarder order lines to arrival
// months, keeping full provenance for every contributed unit.
package inbound

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sellerkit/replan/internal/domain"
	"github.com/sellerkit/replan/internal/planning/monthkey"
	"github.com/sellerkit/replan/internal/planning/resolve"
)

// DateSource records how an order's arrival date was derived.
type DateSource string

const (
	DateSourceETA      DateSource = "eta"
	DateSourceDelivery DateSource = "delivery"
	DateSourceComputed DateSource = "computed"
)

// Item is one order line's contribution to a month bucket.
type Item struct {
	OrderID     string           `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	OrderType   domain.OrderType `json:"order_type"`
	Units       int              `json:"units"`
	ArrivalDate time.Time        `json:"arrival_date"`
	DateSource  DateSource       `json:"date_source"`
}

// Bucket aggregates inbound units for one (sku, month).
type Bucket struct {
	TotalUnits int    `json:"total_units"`
	POUnits    int    `json:"po_units"`
	FOUnits    int    `json:"fo_units"`
	POItems    []Item `json:"po_items"`
	FOItems    []Item `json:"fo_items"`
}

// Result maps sku -> month -> bucket. Orders whose arrival date cannot be
// derived are counted, never silently dropped.
type Result struct {
	Buckets             map[string]map[string]*Bucket `json:"buckets"`
	MissingDateCount    int                           `json:"missing_date_count"`
	MissingDateOrderIDs []string                      `json:"missing_date_order_ids"`
}

// Units returns the aggregated inbound units for a (sku, month), 0 when the
// bucket does not exist.
func (r Result) Units(sku, month string) int {
	if b := r.Bucket(sku, month); b != nil {
		return b.TotalUnits
	}
	return 0
}

// Bucket returns the bucket for a (sku, month), nil when empty.
func (r Result) Bucket(sku, month string) *Bucket {
	if byMonth, ok := r.Buckets[domain.NormalizeSKU(sku)]; ok {
		return byMonth[month]
	}
	return nil
}

// Aggregate scans all countable orders in the state and buckets their lines
// by SKU and arrival month.
func Aggregate(state *domain.PlanState) Result {
	out := Result{Buckets: make(map[string]map[string]*Bucket)}

	for _, order := range state.AllOrders() {
		if !domain.CountsTowardInbound(order.Status) {
			continue
		}

		arrival, source, ok := arrivalDate(state, order)
		if !ok {
			out.MissingDateCount++
			out.MissingDateOrderIDs = append(out.MissingDateOrderIDs, order.ID)
			continue
		}
		month := monthkey.FromTime(arrival)

		for _, line := range order.Items {
			units, ok := ParseUnits(line.Units)
			if !ok || units == 0 {
				continue
			}

			sku := domain.NormalizeSKU(line.SKU)
			if sku == "" {
				continue
			}

			byMonth := out.Buckets[sku]
			if byMonth == nil {
				byMonth = make(map[string]*Bucket)
				out.Buckets[sku] = byMonth
			}
			bucket := byMonth[month]
			if bucket == nil {
				bucket = &Bucket{}
				byMonth[month] = bucket
			}

			item := Item{
				OrderID:     order.ID,
				OrderNumber: order.Number,
				OrderType:   order.Type,
				Units:       units,
				ArrivalDate: arrival,
				DateSource:  source,
			}

			bucket.TotalUnits += units
			if order.Type == domain.OrderTypeFO {
				bucket.FOUnits += units
				bucket.FOItems = append(bucket.FOItems, item)
			} else {
				bucket.POUnits += units
				bucket.POItems = append(bucket.POItems, item)
			}
		}
	}

	return out
}

// arrivalDate resolves an order's arrival with priority manual ETA >
// delivery date > order date plus resolved lead times.
func arrivalDate(state *domain.PlanState, order domain.Order) (time.Time, DateSource, bool) {
	if order.ETADate != nil {
		return *order.ETADate, DateSourceETA, true
	}
	if order.DeliveryDate != nil {
		return *order.DeliveryDate, DateSourceDelivery, true
	}
	if order.OrderDate == nil {
		return time.Time{}, "", false
	}

	// Computed ETA uses the lead times of the order's first line SKU, since
	// the order ships as one consignment.
	leadDays := 0.0
	for _, line := range order.Items {
		fields := resolve.ForOrder(state, line.SKU, order.SupplierID, order.Overrides)
		leadDays = fields.TotalLeadDays()
		break
	}

	return order.OrderDate.AddDate(0, 0, int(math.Round(leadDays))), DateSourceComputed, true
}

// ParseUnits normalizes a raw quantity with locale-aware separators and
// rounds to whole units. Both "1.234,5" and "1,234.5" parse as 1235.
func ParseUnits(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		// The rightmost separator is the decimal mark.
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") == 1 && (len(s)-comma-1 != 3 || s[:comma] == "0") {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case dot >= 0:
		// A lone dot with exactly three trailing digits reads as a
		// thousands separator ("1.234"), except after a leading zero.
		if strings.Count(s, ".") > 1 || (len(s)-dot-1 == 3 && dot > 0 && s[:dot] != "0") {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}

	return int(math.Round(v)), true
}
