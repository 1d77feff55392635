package models

import "strings"

// PriceResponseSuccess is the responseCode the pricing service returns on success.
const PriceResponseSuccess = "00"

// Ticket tier keys
const (
	TierPremium  = "premium"
	TierStandard = "standard"
)

// CurrencyOption is one selectable country/currency pair
type CurrencyOption struct {
	Name     string `json:"name"`
	Value    string `json:"value"` // country code, unique
	Currency string `json:"currency"`
}

// FallbackCurrencies is served whenever the country list cannot be fetched.
var FallbackCurrencies = []CurrencyOption{
	{Name: "Nigeria", Value: "NG", Currency: "NGN"},
}

// PriceData holds the per-country ticket prices as returned by the pricing service
type PriceData struct {
	Currency string  `json:"currency"`
	Premium  float64 `json:"premium"`
	Standard float64 `json:"standard"`
}

// TierPrice returns the price of tier and whether the tier is priced.
func (p PriceData) TierPrice(tier string) (float64, bool) {
	switch strings.ToLower(tier) {
	case TierPremium:
		return p.Premium, true
	case TierStandard:
		return p.Standard, true
	default:
		return 0, false
	}
}

// CountryPrice is one entry of the price response's data map.
type CountryPrice struct {
	PriceData
	MerchantID string `json:"merchantId,omitempty"`
	ClientID   string `json:"clientId,omitempty"`
}

// PriceResponse is the body of the price endpoint
type PriceResponse struct {
	ResponseCode        string                  `json:"responseCode"`
	ResponseDescription string                  `json:"responseDescription"`
	ResponseMessage     string                  `json:"responseMessage"`
	OtherInfo           string                  `json:"otherInfo"`
	Data                map[string]CountryPrice `json:"data"`
}

// CurrencyWithPrices pairs an option with its prices, when available.
type CurrencyWithPrices struct {
	CurrencyOption
	Prices *PriceData `json:"prices,omitempty"`
}

// FindByCurrency returns the first option using currency code.
func FindByCurrency(options []CurrencyOption, code string) (CurrencyOption, bool) {
	for _, opt := range options {
		if strings.EqualFold(opt.Currency, code) {
			return opt, true
		}
	}
	return CurrencyOption{}, false
}

// DefaultOption picks the USD option when offered, else the first option.
func DefaultOption(options []CurrencyOption) (CurrencyOption, bool) {
	if opt, ok := FindByCurrency(options, DefaultCurrency); ok {
		return opt, true
	}
	if len(options) > 0 {
		return options[0], true
	}
	return CurrencyOption{}, false
}

// PricingSelection is a session's currency choice and the prices loaded for it
type PricingSelection struct {
	SelectedCurrency string           `json:"selectedCurrency"`
	SelectedCountry  string           `json:"selectedCountry"`
	Currencies       []CurrencyOption `json:"currencies"`
	Prices           *PriceData       `json:"prices,omitempty"`
	Loading          bool             `json:"loading"`
	Error            string           `json:"error,omitempty"`
}

// Clone returns a deep copy
func (s PricingSelection) Clone() PricingSelection {
	out := s
	out.Currencies = append([]CurrencyOption(nil), s.Currencies...)
	if s.Prices != nil {
		p := *s.Prices
		out.Prices = &p
	}
	return out
}
