package models

// TicketLine represents one ticket tier in the cart
type TicketLine struct {
	ID            string   `json:"id"` // tier key, e.g. "premium"
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	Quantity      int      `json:"quantity"`
}

// Subtotal is price times quantity.
func (l TicketLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// OriginalSubtotal is the undiscounted price times quantity, falling back to Price.
func (l TicketLine) OriginalSubtotal() float64 {
	if l.OriginalPrice != nil {
		return *l.OriginalPrice * float64(l.Quantity)
	}
	return l.Subtotal()
}

func (l TicketLine) clone() TicketLine {
	if l.OriginalPrice != nil {
		op := *l.OriginalPrice
		l.OriginalPrice = &op
	}
	return l
}

// CartState represents the shopping cart with its derived totals.
//
// Lines with quantity zero are never stored: adds of zero are ignored and
// updating a line to zero removes it. Totals are only ever produced by
// ReduceCart, never updated on their own.
type CartState struct {
	Tickets            []TicketLine `json:"tickets"`
	TotalItems         int          `json:"totalItems"`
	TotalPrice         float64      `json:"totalPrice"`
	TotalOriginalPrice float64      `json:"totalOriginalPrice"`
}

// Selected returns the lines with quantity greater than zero.
func (c CartState) Selected() []TicketLine {
	out := make([]TicketLine, 0, len(c.Tickets))
	for _, t := range c.Tickets {
		if t.Quantity > 0 {
			out = append(out, t.clone())
		}
	}
	return out
}

// HasTickets reports whether anything is selected.
func (c CartState) HasTickets() bool {
	return c.TotalItems > 0
}

// Find returns the line with id.
func (c CartState) Find(id string) (TicketLine, bool) {
	for _, t := range c.Tickets {
		if t.ID == id {
			return t.clone(), true
		}
	}
	return TicketLine{}, false
}

// Currency returns the currency the lines are priced in, or "" when the cart
// is empty or its lines carry no currency.
func (c CartState) Currency() string {
	for _, t := range c.Tickets {
		if t.Currency != "" {
			return t.Currency
		}
	}
	return ""
}

// PricedIn reports whether every line is priced in currency. Lines without a
// currency are accepted.
func (c CartState) PricedIn(currency string) bool {
	for _, t := range c.Tickets {
		if t.Currency != "" && t.Currency != currency {
			return false
		}
	}
	return true
}

// Clone returns a deep copy safe to hand out of a store.
func (c CartState) Clone() CartState {
	out := c
	out.Tickets = make([]TicketLine, len(c.Tickets))
	for i, t := range c.Tickets {
		out.Tickets[i] = t.clone()
	}
	return out
}

// CartAction is a cart state transition. The set of actions is closed.
type CartAction interface {
	cartAction()
}

// AddTicket merges Line into the cart, incrementing the quantity of an existing tier.
// When the existing line is priced in a different currency it is repriced from Line.
type AddTicket struct{ Line TicketLine }

// RemoveTicket deletes the line regardless of quantity.
type RemoveTicket struct{ ID string }

// UpdateQuantity sets a line's quantity, clamped at zero; zero removes the line.
type UpdateQuantity struct {
	ID       string
	Quantity int
}

// ClearCart empties the cart.
type ClearCart struct{}

// SetTickets replaces all lines.
type SetTickets struct{ Tickets []TicketLine }

// RepriceTickets moves every priced tier to the prices of a newly selected currency.
// ListPrices holds the pre-discount price per tier and currency; a line keeps a
// list price only when one is known in the new currency and above its price.
type RepriceTickets struct {
	Prices     PriceData
	ListPrices map[string]map[string]float64
}

func (AddTicket) cartAction()      {}
func (RemoveTicket) cartAction()   {}
func (UpdateQuantity) cartAction() {}
func (ClearCart) cartAction()      {}
func (SetTickets) cartAction()     {}
func (RepriceTickets) cartAction() {}

// ReduceCart applies action to state and returns the new state with recomputed totals.
// state is not modified.
func ReduceCart(state CartState, action CartAction) CartState {
	tickets := state.Clone().Tickets

	switch a := action.(type) {
	case AddTicket:
		if a.Line.Quantity <= 0 {
			return state.Clone()
		}
		found := false
		for i := range tickets {
			if tickets[i].ID == a.Line.ID {
				quantity := tickets[i].Quantity + a.Line.Quantity
				// A line priced in another currency takes the incoming price.
				if a.Line.Currency != "" && a.Line.Currency != tickets[i].Currency {
					tickets[i] = a.Line.clone()
				}
				tickets[i].Quantity = quantity
				found = true
				break
			}
		}
		if !found {
			tickets = append(tickets, a.Line.clone())
		}

	case RemoveTicket:
		tickets = filterLines(tickets, func(t TicketLine) bool { return t.ID != a.ID })

	case UpdateQuantity:
		q := max(0, a.Quantity)
		for i := range tickets {
			if tickets[i].ID == a.ID {
				tickets[i].Quantity = q
			}
		}
		tickets = filterLines(tickets, func(t TicketLine) bool { return t.Quantity > 0 })

	case ClearCart:
		tickets = nil

	case SetTickets:
		tickets = make([]TicketLine, 0, len(a.Tickets))
		for _, t := range a.Tickets {
			if t.Quantity > 0 {
				tickets = append(tickets, t.clone())
			}
		}

	case RepriceTickets:
		for i := range tickets {
			price, ok := a.Prices.TierPrice(tickets[i].ID)
			if !ok {
				continue
			}
			tickets[i].Price = price
			tickets[i].Currency = a.Prices.Currency
			tickets[i].OriginalPrice = nil
			if list, ok := a.ListPrices[tickets[i].ID][a.Prices.Currency]; ok && list > price {
				tickets[i].OriginalPrice = &list
			}
		}

	default:
		return state.Clone()
	}

	return computeTotals(tickets)
}

func computeTotals(tickets []TicketLine) CartState {
	state := CartState{Tickets: tickets}
	if state.Tickets == nil {
		state.Tickets = []TicketLine{}
	}
	for _, t := range state.Tickets {
		state.TotalItems += t.Quantity
		state.TotalPrice += t.Subtotal()
		state.TotalOriginalPrice += t.OriginalSubtotal()
	}
	return state
}

func filterLines(tickets []TicketLine, keep func(TicketLine) bool) []TicketLine {
	out := tickets[:0]
	for _, t := range tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
