package domain

import "strings"

var orderStatusLabels = map[int]string{
	0: "Draft",
	1: "Placed",
	2: "In Production",
	3: "In Transit",
	4: "Arrived",
	5: "Cancelled",
	6: "Archived",
}

var orderStatusCodes = map[string]int{
	"draft":         0,
	"placed":        1,
	"in_production": 2,
	"in_transit":    3,
	"arrived":       4,
	"cancelled":     5,
	"archived":      6,
}

// OrderStatusLabel returns a human-readable label for an order status code.
func OrderStatusLabel(status int) string {
	if label, ok := orderStatusLabels[status]; ok {
		return label
	}

	return "Draft"
}

// ParseOrderStatus returns the status code for a given label (case-insensitive).
func ParseOrderStatus(label string) (int, bool) {
	code, ok := orderStatusCodes[strings.ToLower(label)]

	return code, ok
}

// CountsTowardInbound reports whether an order in the given status should
// contribute units to inbound aggregation. Cancelled and archived orders are
// out; drafts have not been committed to a supplier yet.
func CountsTowardInbound(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "cancelled", "archived", "draft":
		return false
	}
	return true
}
