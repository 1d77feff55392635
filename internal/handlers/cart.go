package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ticket-storefront/internal/models"
)

// CartHandler handles shopping cart requests
type CartHandler struct {
	event models.EventInfo
}

// NewCartHandler creates a new cart handler
func NewCartHandler(event models.EventInfo) *CartHandler {
	return &CartHandler{event: event}
}

// cartResponse is the cart with its display totals. PricesStale is set when
// the cart is still priced in a currency other than the selected one.
type cartResponse struct {
	models.CartState
	Currency               string              `json:"currency"`
	PricesStale            bool                `json:"pricesStale,omitempty"`
	Selected               []models.TicketLine `json:"selected"`
	FormattedTotal         string              `json:"formattedTotal"`
	FormattedOriginalTotal string              `json:"formattedOriginalTotal,omitempty"`
	Savings                float64             `json:"savings"`
	FormattedSavings       string              `json:"formattedSavings,omitempty"`
}

// cartView formats the cart in the currency its lines are priced in, falling
// back to the selected currency for an empty cart.
func cartView(cart models.CartState, selected string) cartResponse {
	currency := selected
	if priced := cart.Currency(); priced != "" {
		currency = priced
	}
	resp := cartResponse{
		CartState:   cart,
		Currency:    currency,
		PricesStale: !cart.PricedIn(selected),
		Selected:    cart.Selected(),
	}
	resp.FormattedTotal = models.FormatAmount(cart.TotalPrice, currency, models.FormatOptions{})
	if cart.TotalOriginalPrice > cart.TotalPrice {
		resp.FormattedOriginalTotal = models.FormatAmount(cart.TotalOriginalPrice, currency, models.FormatOptions{})
		resp.Savings = cart.TotalOriginalPrice - cart.TotalPrice
		resp.FormattedSavings = models.FormatAmount(resp.Savings, currency, models.FormatOptions{})
	}
	return resp
}

// GetCart returns the session cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cartView(state.Cart.State(), state.Pricing.Snapshot().SelectedCurrency))
}

type addTicketRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// AddTicket adds a tier to the cart priced in the selected currency
func (h *CartHandler) AddTicket(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}

	var req addTicketRequest
	if isJSONRequest(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		if err := parseForm(w, r); err != nil {
			writeError(w, r, err)
			return
		}
		req.ID = r.FormValue("id")
		qty, err := strconv.Atoi(r.FormValue("quantity"))
		if err != nil {
			writeError(w, r, models.ErrInvalidInput)
			return
		}
		req.Quantity = qty
	}

	if req.Quantity <= 0 {
		writeError(w, r, models.ErrInvalidInput)
		return
	}
	tier, ok := h.event.Tier(strings.ToLower(strings.TrimSpace(req.ID)))
	if !ok {
		writeError(w, r, models.ErrTicketNotFound)
		return
	}

	selection, err := state.EnsurePricing(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if selection.Prices == nil {
		writeError(w, r, models.ErrPricingUnavailable)
		return
	}
	line, ok := tier.LineFor(*selection.Prices, req.Quantity)
	if !ok {
		writeError(w, r, models.ErrPricingUnavailable)
		return
	}

	cart := state.Cart.AddTicket(line)
	writeJSON(w, http.StatusOK, cartView(cart, selection.SelectedCurrency))
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// UpdateTicket sets the quantity of a cart line; zero removes it
func (h *CartHandler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}

	var quantity int
	if isJSONRequest(r) {
		var req updateQuantityRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.Quantity == nil {
			writeError(w, r, models.ErrInvalidInput)
			return
		}
		quantity = *req.Quantity
	} else {
		if err := parseForm(w, r); err != nil {
			writeError(w, r, err)
			return
		}
		qty, err := strconv.Atoi(r.FormValue("quantity"))
		if err != nil {
			writeError(w, r, models.ErrInvalidInput)
			return
		}
		quantity = qty
	}

	cart, err := state.Cart.UpdateQuantity(chi.URLParam(r, "id"), quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartView(cart, state.Pricing.Snapshot().SelectedCurrency))
}

// RemoveTicket deletes a cart line regardless of its quantity
func (h *CartHandler) RemoveTicket(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}
	cart := state.Cart.RemoveTicket(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, cartView(cart, state.Pricing.Snapshot().SelectedCurrency))
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}
	cart := state.Cart.Clear()
	writeJSON(w, http.StatusOK, cartView(cart, state.Pricing.Snapshot().SelectedCurrency))
}
