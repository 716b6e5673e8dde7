package resolve

import (
	"strings"

	"github.com/sellerkit/replan/internal/domain"
)

// profile is the normalized per-product view the resolver reads from.
// Building it once at the entry point keeps the candidate chains free of
// repeated nil-field plumbing.
type profile struct {
	TransportMode      string
	UnitPriceUSD       *float64
	SellPriceGrossEUR  *float64
	MarginPct          *float64
	MOQ                *float64
	ProductionLeadDays *float64
	TransitDays        *float64
	LogisticsCostEUR   *float64
	DutyPct            *float64
	EUStPct            *float64
	DDP                *bool
	Incoterm           *string
	Currency           *string
	FXRate             *float64
}

func buildProfile(p *domain.Product) profile {
	if p == nil {
		return profile{}
	}
	return profile{
		TransportMode:      strings.ToLower(strings.TrimSpace(p.TransportMode)),
		UnitPriceUSD:       p.UnitPriceUSD,
		SellPriceGrossEUR:  p.SellPriceGrossEUR,
		MarginPct:          p.MarginPct,
		MOQ:                p.MOQ,
		ProductionLeadDays: p.ProductionLeadDays,
		TransitDays:        p.TransitDays,
		LogisticsCostEUR:   p.LogisticsCostEUR,
		DutyPct:            p.DutyPct,
		EUStPct:            p.EUStPct,
		DDP:                p.DDP,
		Incoterm:           strPtr(p.Incoterm),
		Currency:           strPtr(p.Currency),
		FXRate:             p.FXRate,
	}
}
