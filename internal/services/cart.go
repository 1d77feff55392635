package services

import (
	"sync"

	"ticket-storefront/internal/models"
)

// CartStore owns one session's cart. Every mutation is a single reducer step
// under the store lock and every read is a copy.
type CartStore struct {
	listPrices map[string]map[string]float64

	mu    sync.Mutex
	state models.CartState
}

// NewCartStore creates an empty cart
func NewCartStore() *CartStore {
	return NewCartStoreWithListPrices(nil)
}

// NewCartStoreWithListPrices creates an empty cart that restores tier list
// prices, keyed by tier and currency, whenever it is repriced.
func NewCartStoreWithListPrices(listPrices map[string]map[string]float64) *CartStore {
	return &CartStore{
		listPrices: listPrices,
		state:      models.ReduceCart(models.CartState{}, models.ClearCart{}),
	}
}

// Dispatch applies action and returns the resulting snapshot.
func (c *CartStore) Dispatch(action models.CartAction) models.CartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = models.ReduceCart(c.state, action)
	return c.state.Clone()
}

// State returns a snapshot of the cart
func (c *CartStore) State() models.CartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *CartStore) AddTicket(line models.TicketLine) models.CartState {
	return c.Dispatch(models.AddTicket{Line: line})
}

func (c *CartStore) RemoveTicket(id string) models.CartState {
	return c.Dispatch(models.RemoveTicket{ID: id})
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes it.
func (c *CartStore) UpdateQuantity(id string, quantity int) (models.CartState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.state.Find(id); !ok {
		return c.state.Clone(), models.ErrTicketNotFound
	}
	c.state = models.ReduceCart(c.state, models.UpdateQuantity{ID: id, Quantity: quantity})
	return c.state.Clone(), nil
}

func (c *CartStore) Clear() models.CartState {
	return c.Dispatch(models.ClearCart{})
}

func (c *CartStore) SetTickets(tickets []models.TicketLine) models.CartState {
	return c.Dispatch(models.SetTickets{Tickets: tickets})
}

// Reprice moves every tier line to prices, recomputing list prices in the new currency.
func (c *CartStore) Reprice(prices models.PriceData) models.CartState {
	return c.Dispatch(models.RepriceTickets{Prices: prices, ListPrices: c.listPrices})
}

// GetByID returns the line with id
func (c *CartStore) GetByID(id string) (models.TicketLine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Find(id)
}

// Selected returns the lines with a positive quantity
func (c *CartStore) Selected() []models.TicketLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Selected()
}

func (c *CartStore) HasTickets() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.HasTickets()
}
