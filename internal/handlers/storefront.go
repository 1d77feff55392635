package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"ticket-storefront/internal/models"
	"ticket-storefront/internal/services"
)

// StorefrontHandler serves the event, currency and pricing endpoints
type StorefrontHandler struct {
	event   models.EventInfo
	pricing services.PricingServiceInterface
}

// NewStorefrontHandler creates a new storefront handler
func NewStorefrontHandler(event models.EventInfo, pricing services.PricingServiceInterface) *StorefrontHandler {
	return &StorefrontHandler{event: event, pricing: pricing}
}

// tierPrice is one ticket tier priced in the selected currency
type tierPrice struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Price             float64  `json:"price"`
	OriginalPrice     *float64 `json:"originalPrice,omitempty"`
	Formatted         string   `json:"formatted"`
	FormattedOriginal string   `json:"formattedOriginal,omitempty"`
}

// pricingResponse is the session's selection with its priced tiers
type pricingResponse struct {
	models.PricingSelection
	CurrencyName   string      `json:"currencyName"`
	CurrencySymbol string      `json:"currencySymbol"`
	Tiers          []tierPrice `json:"tiers"`
	Applied        *bool       `json:"applied,omitempty"`
}

func (h *StorefrontHandler) pricingView(selection models.PricingSelection) pricingResponse {
	resp := pricingResponse{
		PricingSelection: selection,
		CurrencyName:     models.CurrencyName(selection.SelectedCurrency),
		CurrencySymbol:   models.CurrencySymbol(selection.SelectedCurrency),
		Tiers:            []tierPrice{},
	}
	if selection.Prices == nil {
		return resp
	}
	for _, tier := range h.event.Tiers {
		line, ok := tier.LineFor(*selection.Prices, 1)
		if !ok {
			continue
		}
		formatted := models.FormatPriceWithOriginal(line.Price, line.OriginalPrice, selection.Prices.Currency, models.FormatOptions{})
		resp.Tiers = append(resp.Tiers, tierPrice{
			ID:                line.ID,
			Name:              line.Name,
			Description:       line.Description,
			Price:             line.Price,
			OriginalPrice:     line.OriginalPrice,
			Formatted:         formatted.Current,
			FormattedOriginal: formatted.Original,
		})
	}
	return resp
}

// Health handles liveness probes
func (h *StorefrontHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetEvent returns the event being sold
func (h *StorefrontHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.event)
}

// ListCurrencies returns the selectable currencies. With ?withPrices=true
// every option carries its prices, when available.
func (h *StorefrontHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	if withPrices, _ := strconv.ParseBool(r.URL.Query().Get("withPrices")); withPrices {
		writeJSON(w, http.StatusOK, map[string]any{
			"currencies": h.pricing.ListCurrenciesWithPrices(r.Context()),
		})
		return
	}

	state, ok := sessionState(w, r)
	if !ok {
		return
	}
	selection, err := state.EnsurePricing(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"currencies": selection.Currencies,
		"selected":   selection.SelectedCurrency,
		"catalog":    models.Currencies(),
	})
}

// GetPricing returns the session's selection and tier prices
func (h *StorefrontHandler) GetPricing(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}
	selection, err := state.EnsurePricing(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.pricingView(selection))
}

type setCurrencyRequest struct {
	Currency string `json:"currency"`
}

// SetCurrency selects a currency and loads its prices
func (h *StorefrontHandler) SetCurrency(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}

	var req setCurrencyRequest
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
		req.Currency = r.FormValue("currency")
	}
	if strings.TrimSpace(req.Currency) == "" {
		writeError(w, r, models.ErrInvalidInput)
		return
	}

	if _, err := state.EnsurePricing(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := state.Pricing.SetCurrency(r.Context(), req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSelectionResult(w, res)
}

// RefreshPricing re-fetches prices for the selected currency
func (h *StorefrontHandler) RefreshPricing(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}
	res, err := state.Pricing.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSelectionResult(w, res)
}

func (h *StorefrontHandler) writeSelectionResult(w http.ResponseWriter, res services.SelectionResult) {
	view := h.pricingView(res.Selection)
	applied := res.Applied
	view.Applied = &applied
	writeJSON(w, http.StatusOK, view)
}
