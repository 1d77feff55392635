package models

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func premium(q int) TicketLine {
	return TicketLine{ID: TierPremium, Name: "Premium", Price: 100, OriginalPrice: float(120), Quantity: q}
}

func standard(q int) TicketLine {
	return TicketLine{ID: TierStandard, Name: "Standard", Price: 50, Quantity: q}
}

func assertTotalsConsistent(t *testing.T, state CartState) {
	t.Helper()
	var items int
	var price, original float64
	for _, l := range state.Tickets {
		items += l.Quantity
		price += l.Price * float64(l.Quantity)
		if l.OriginalPrice != nil {
			original += *l.OriginalPrice * float64(l.Quantity)
		} else {
			original += l.Price * float64(l.Quantity)
		}
	}
	assert.Equal(t, items, state.TotalItems)
	assert.InDelta(t, price, state.TotalPrice, 1e-9)
	assert.InDelta(t, original, state.TotalOriginalPrice, 1e-9)
}

func TestReduceCart_AddTicketMergesSameTier(t *testing.T) {
	state := ReduceCart(CartState{}, AddTicket{Line: premium(2)})
	state = ReduceCart(state, AddTicket{Line: premium(3)})

	require.Len(t, state.Tickets, 1)
	assert.Equal(t, 5, state.Tickets[0].Quantity)
	assert.Equal(t, 5, state.TotalItems)
	assert.InDelta(t, 500, state.TotalPrice, 1e-9)
	assert.InDelta(t, 600, state.TotalOriginalPrice, 1e-9)
}

func TestReduceCart_AddTicketAppendsNewTier(t *testing.T) {
	state := ReduceCart(CartState{}, AddTicket{Line: premium(1)})
	state = ReduceCart(state, AddTicket{Line: standard(2)})

	require.Len(t, state.Tickets, 2)
	assert.Equal(t, TierPremium, state.Tickets[0].ID)
	assert.Equal(t, TierStandard, state.Tickets[1].ID)
	assert.Equal(t, 3, state.TotalItems)
	assert.InDelta(t, 200, state.TotalPrice, 1e-9)
	assert.InDelta(t, 220, state.TotalOriginalPrice, 1e-9)
}

func TestReduceCart_AddZeroQuantityIsIgnored(t *testing.T) {
	state := ReduceCart(CartState{}, AddTicket{Line: standard(0)})
	assert.Empty(t, state.Tickets)
	assert.False(t, state.HasTickets())
}

func TestReduceCart_UpdateQuantityToZeroRemovesLine(t *testing.T) {
	state := ReduceCart(CartState{}, AddTicket{Line: premium(1)})
	state = ReduceCart(state, AddTicket{Line: standard(2)})

	state = ReduceCart(state, UpdateQuantity{ID: TierStandard, Quantity: 0})

	_, found := state.Find(TierStandard)
	assert.False(t, found)
	assert.Len(t, state.Tickets, 1)
	assertTotalsConsistent(t, state)
}

func TestReduceCart_UpdateQuantityClampsNegative(t *testing.T) {
	state := ReduceCart(CartState{}, AddTicket{Line: standard(2)})
	state = ReduceCart(state, UpdateQuantity{ID: TierStandard, Quantity: -4})

	assert.Empty(t, state.Tickets)
	assert.Equal(t, 0, state.TotalItems)
}

func TestReduceCart_UpdateQuantityReplaces(t *testing.T) {
	state := ReduceCart(CartState{}, AddTicket{Line: standard(2)})
	state = ReduceCart(state, UpdateQuantity{ID: TierStandard, Quantity: 7})

	line, found := state.Find(TierStandard)
	require.True(t, found)
	assert.Equal(t, 7, line.Quantity)
	assert.InDelta(t, 350, state.TotalPrice, 1e-9)
}

func TestReduceCart_RemoveTicketIgnoresQuantity(t *testing.T) {
	state := ReduceCart(CartState{}, AddTicket{Line: premium(9)})
	state = ReduceCart(state, RemoveTicket{ID: TierPremium})

	assert.Empty(t, state.Tickets)
	assert.Equal(t, 0, state.TotalItems)
	assert.Zero(t, state.TotalPrice)
}

func TestReduceCart_ClearCart(t *testing.T) {
	state := ReduceCart(CartState{}, AddTicket{Line: premium(1)})
	state = ReduceCart(state, ClearCart{})

	assert.NotNil(t, state.Tickets)
	assert.Empty(t, state.Tickets)
	assert.Zero(t, state.TotalOriginalPrice)
}

func TestReduceCart_SetTicketsDropsZeroQuantities(t *testing.T) {
	state := ReduceCart(CartState{}, SetTickets{Tickets: []TicketLine{premium(0), standard(3)}})

	require.Len(t, state.Tickets, 1)
	assert.Equal(t, TierStandard, state.Tickets[0].ID)
	assert.Len(t, state.Selected(), 1)
	assertTotalsConsistent(t, state)
}

func TestReduceCart_RepriceUsesNewCurrencyPrices(t *testing.T) {
	state := ReduceCart(CartState{}, AddTicket{Line: premium(2)})
	state = ReduceCart(state, AddTicket{Line: TicketLine{ID: "vip", Price: 999, Quantity: 1}})

	state = ReduceCart(state, RepriceTickets{Prices: PriceData{Currency: "USD", Premium: 10, Standard: 5}})

	p, _ := state.Find(TierPremium)
	assert.InDelta(t, 10, p.Price, 1e-9)
	assert.Nil(t, p.OriginalPrice)
	vip, _ := state.Find("vip")
	assert.InDelta(t, 999, vip.Price, 1e-9)
	assert.InDelta(t, 1019, state.TotalPrice, 1e-9)
	assertTotalsConsistent(t, state)
}

func TestReduceCart_RepriceRestoresListPrices(t *testing.T) {
	list := map[string]map[string]float64{TierPremium: {"NGN": 539257.98}}
	ngn := PriceData{Currency: "NGN", Premium: 431406.39, Standard: 215703.19}
	usd := PriceData{Currency: "USD", Premium: 300, Standard: 150}

	fresh := TicketLine{ID: TierPremium, Price: 431406.39, OriginalPrice: float(539257.98), Currency: "NGN", Quantity: 2}
	before := ReduceCart(CartState{}, AddTicket{Line: fresh})

	state := ReduceCart(before, RepriceTickets{Prices: usd, ListPrices: list})
	p, _ := state.Find(TierPremium)
	assert.Equal(t, "USD", p.Currency)
	assert.Nil(t, p.OriginalPrice)
	assert.InDelta(t, 600, state.TotalOriginalPrice, 1e-9)

	state = ReduceCart(state, RepriceTickets{Prices: ngn, ListPrices: list})
	p, _ = state.Find(TierPremium)
	assert.Equal(t, "NGN", p.Currency)
	require.NotNil(t, p.OriginalPrice)
	assert.InDelta(t, 539257.98, *p.OriginalPrice, 1e-9)
	assert.InDelta(t, before.TotalPrice, state.TotalPrice, 1e-6)
	assert.InDelta(t, before.TotalOriginalPrice, state.TotalOriginalPrice, 1e-6)
	assertTotalsConsistent(t, state)
}

func TestReduceCart_RepriceDropsListPriceBelowPrice(t *testing.T) {
	list := map[string]map[string]float64{TierPremium: {"USD": 250}}
	state := ReduceCart(CartState{}, AddTicket{Line: premium(1)})

	state = ReduceCart(state, RepriceTickets{Prices: PriceData{Currency: "USD", Premium: 300}, ListPrices: list})
	p, _ := state.Find(TierPremium)
	assert.Nil(t, p.OriginalPrice)
}

func TestReduceCart_AddTicketInOtherCurrencyTakesNewPrice(t *testing.T) {
	state := ReduceCart(CartState{}, AddTicket{Line: TicketLine{ID: TierPremium, Price: 500000, Currency: "NGN", Quantity: 1}})
	state = ReduceCart(state, AddTicket{Line: TicketLine{ID: TierPremium, Price: 300, Currency: "USD", Quantity: 2}})

	require.Len(t, state.Tickets, 1)
	assert.Equal(t, 3, state.Tickets[0].Quantity)
	assert.Equal(t, "USD", state.Tickets[0].Currency)
	assert.InDelta(t, 900, state.TotalPrice, 1e-9)
	assertTotalsConsistent(t, state)
}

func TestCartStateCurrency(t *testing.T) {
	empty := ReduceCart(CartState{}, ClearCart{})
	assert.Empty(t, empty.Currency())
	assert.True(t, empty.PricedIn("USD"))

	untagged := ReduceCart(CartState{}, AddTicket{Line: premium(1)})
	assert.Empty(t, untagged.Currency())
	assert.True(t, untagged.PricedIn("NGN"))

	ngn := ReduceCart(untagged, AddTicket{Line: TicketLine{ID: TierStandard, Price: 250000, Currency: "NGN", Quantity: 1}})
	assert.Equal(t, "NGN", ngn.Currency())
	assert.True(t, ngn.PricedIn("NGN"))
	assert.False(t, ngn.PricedIn("GHS"))
}

func TestReduceCart_DoesNotMutateInput(t *testing.T) {
	before := ReduceCart(CartState{}, AddTicket{Line: premium(2)})
	_ = ReduceCart(before, AddTicket{Line: premium(3)})
	_ = ReduceCart(before, UpdateQuantity{ID: TierPremium, Quantity: 0})

	require.Len(t, before.Tickets, 1)
	assert.Equal(t, 2, before.Tickets[0].Quantity)
	assert.Equal(t, 2, before.TotalItems)
}

func TestReduceCart_TotalsMatchRecomputation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{TierPremium, TierStandard, "vip"}
	state := CartState{}

	for i := 0; i < 500; i++ {
		id := ids[rng.Intn(len(ids))]
		var action CartAction
		switch rng.Intn(4) {
		case 0, 1:
			line := TicketLine{ID: id, Price: float64(rng.Intn(1000)) / 7, Quantity: rng.Intn(4)}
			if rng.Intn(2) == 0 {
				line.OriginalPrice = float(line.Price * 1.25)
			}
			action = AddTicket{Line: line}
		case 2:
			action = UpdateQuantity{ID: id, Quantity: rng.Intn(6) - 1}
		default:
			action = RemoveTicket{ID: id}
		}
		state = ReduceCart(state, action)

		assertTotalsConsistent(t, state)
		seen := map[string]bool{}
		for _, l := range state.Tickets {
			assert.False(t, seen[l.ID], "duplicate line %s", l.ID)
			assert.Greater(t, l.Quantity, 0)
			seen[l.ID] = true
		}
	}
}
