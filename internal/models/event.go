package models

import "time"

// EventInfo describes the single event sold by the storefront
type EventInfo struct {
	Slug        string     `json:"slug"`
	Badge       string     `json:"badge"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Venue       string     `json:"venue"`
	City        string     `json:"city"`
	Country     string     `json:"country"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
	Timezone    string     `json:"timezone"`
	Tiers       []TierInfo `json:"tiers"`
}

// TierInfo is a ticket tier offered for the event.
// ListPrices are the pre-discount prices by currency code, shown struck through.
type TierInfo struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	ListPrices  map[string]float64 `json:"listPrices,omitempty"`
}

// Tier returns the tier with id.
func (e EventInfo) Tier(id string) (TierInfo, bool) {
	for _, t := range e.Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return TierInfo{}, false
}

// ListPrices returns the list prices of every tier keyed by tier id.
func (e EventInfo) ListPrices() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(e.Tiers))
	for _, t := range e.Tiers {
		if len(t.ListPrices) > 0 {
			out[t.ID] = t.ListPrices
		}
	}
	return out
}

// LineFor builds a cart line for tier priced from prices.
// The list price is only attached when it is known in the same currency and above the price.
func (t TierInfo) LineFor(prices PriceData, quantity int) (TicketLine, bool) {
	price, ok := prices.TierPrice(t.ID)
	if !ok {
		return TicketLine{}, false
	}
	line := TicketLine{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Price:       price,
		Currency:    prices.Currency,
		Quantity:    quantity,
	}
	if list, ok := t.ListPrices[prices.Currency]; ok && list > price {
		line.OriginalPrice = &list
	}
	return line, true
}

// DefaultEvent is the event sold when no override is configured.
func DefaultEvent(slug string) EventInfo {
	loc := time.FixedZone("CAT", 2*60*60)
	return EventInfo{
		Slug:        slug,
		Badge:       "ABF COLLABORATION",
		Title:       "Africa Blockchain Festival 2025",
		Description: "Join 3,000+ leaders, innovators, and policymakers in Kigali, Rwanda, for Africa's premier tech event focused on blockchain, AI, policy, and investment. Shift the narrative, build the future.",
		Venue:       "Kigali Convention Centre",
		City:        "Kigali",
		Country:     "Rwanda",
		StartDate:   time.Date(2025, time.November, 12, 9, 0, 0, 0, loc),
		EndDate:     time.Date(2025, time.November, 14, 18, 0, 0, 0, loc),
		Timezone:    "Africa/Kigali",
		Tiers: []TierInfo{
			{
				ID:          TierPremium,
				Name:        "Premium",
				Description: "Ideal For: Senior professionals, investors, entrepreneurs seeking high-level access and exclusive networking",
				ListPrices:  map[string]float64{"NGN": 539257.98},
			},
			{
				ID:          TierStandard,
				Name:        "Standard",
				Description: "Ideal For: Professionals, innovators, developers, and enthusiasts keen on comprehensive learning and networking.",
				ListPrices:  map[string]float64{"NGN": 287604.26},
			},
		},
	}
}
