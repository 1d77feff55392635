package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupCurrency(t *testing.T) {
	c, ok := LookupCurrency(" ngn ")
	assert.True(t, ok)
	assert.Equal(t, "₦", c.Symbol)
	assert.Equal(t, "Nigerian Naira", c.Name)

	_, ok = LookupCurrency("XYZ")
	assert.False(t, ok)
}

func TestCurrencySymbolAndNameFallBackToCode(t *testing.T) {
	assert.Equal(t, "KSh", CurrencySymbol("KES"))
	assert.Equal(t, "RWF", CurrencySymbol("RWF"))
	assert.Equal(t, "Ghanaian Cedi", CurrencyName("GHS"))
	assert.Equal(t, "RWF", CurrencyName("RWF"))
}

func TestCurrenciesListsCommonFirst(t *testing.T) {
	all := Currencies()
	assert.Len(t, all, 10)
	for i, code := range CommonCurrencies {
		assert.Equal(t, code, all[i].Code)
	}
}

func TestIsISOCurrency(t *testing.T) {
	assert.True(t, IsISOCurrency("RWF"))
	assert.True(t, IsISOCurrency("usd"))
	assert.False(t, IsISOCurrency("NOPE"))
}

func TestFormatAmount(t *testing.T) {
	t.Run("known currency carries symbol first", func(t *testing.T) {
		out := FormatAmount(500, "USD", FormatOptions{})
		assert.True(t, strings.HasPrefix(out, "$"), out)
		assert.Contains(t, out, "500")
	})

	t.Run("hide symbol", func(t *testing.T) {
		out := FormatAmount(500, "GBP", FormatOptions{HideSymbol: true})
		assert.NotContains(t, out, "£")
		assert.Contains(t, out, "500")
	})

	t.Run("unknown currency uses code prefix", func(t *testing.T) {
		out := FormatAmount(12, "rwf", FormatOptions{HideDecimals: true})
		assert.Equal(t, "RWF 12", out)
	})
}

func TestFormatPriceWithOriginal(t *testing.T) {
	fp := FormatPriceWithOriginal(80, float(100), "USD", FormatOptions{HideDecimals: true})
	assert.Equal(t, "$80", fp.Current)
	assert.Equal(t, "$100", fp.Original)

	fp = FormatPriceWithOriginal(80, float(60), "USD", FormatOptions{HideDecimals: true})
	assert.Empty(t, fp.Original)

	fp = FormatPriceWithOriginal(80, nil, "USD", FormatOptions{HideDecimals: true})
	assert.Empty(t, fp.Original)
}

func TestDefaultOption(t *testing.T) {
	options := []CurrencyOption{
		{Name: "Nigeria", Value: "NG", Currency: "NGN"},
		{Name: "United States", Value: "US", Currency: "USD"},
	}
	opt, ok := DefaultOption(options)
	assert.True(t, ok)
	assert.Equal(t, "US", opt.Value)

	opt, ok = DefaultOption(options[:1])
	assert.True(t, ok)
	assert.Equal(t, "NG", opt.Value)

	_, ok = DefaultOption(nil)
	assert.False(t, ok)
}

func TestCheckoutErrorMatchesKindAndCause(t *testing.T) {
	cause := fmt.Errorf("upstream: %w", ErrNetworkTimeout)
	err := NewCheckoutError(FailureCredentialFetch, cause)

	assert.True(t, errors.Is(err, ErrCredentialFetchFailed))
	assert.True(t, errors.Is(err, ErrNetworkTimeout))
	assert.False(t, errors.Is(err, ErrTokenFetchFailed))
	assert.Equal(t, FailureCredentialFetch.UserMessage(), err.Message)

	var ce *CheckoutError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &ce))
	assert.Equal(t, FailureCredentialFetch, ce.Kind)
}

func TestContactInfoValidate(t *testing.T) {
	tests := []struct {
		name    string
		contact ContactInfo
		fields  []string
	}{
		{name: "valid", contact: ContactInfo{FullName: "Ada Obi", Email: "ada@example.com"}},
		{name: "missing name", contact: ContactInfo{Email: "ada@example.com"}, fields: []string{"fullName"}},
		{name: "blank email", contact: ContactInfo{FullName: "Ada", Email: "  "}, fields: []string{"email"}},
		{name: "malformed email", contact: ContactInfo{FullName: "Ada", Email: "ada@"}, fields: []string{"email"}},
		{
			name: "bad attendee email",
			contact: ContactInfo{
				FullName: "Ada", Email: "ada@example.com", SendToMultiple: true,
				Attendees: map[string]AttendeeContact{TierPremium: {FullName: "Bo", Email: "bo"}},
			},
			fields: []string{"attendees.premium.email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.contact.Validate()
			assert.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, errs, f)
			}
		})
	}
}

func TestTierInfoLineFor(t *testing.T) {
	event := DefaultEvent("abf")
	tier, ok := event.Tier(TierPremium)
	assert.True(t, ok)

	line, ok := tier.LineFor(PriceData{Currency: "NGN", Premium: 431406.39, Standard: 215703.19}, 2)
	assert.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "NGN", line.Currency)
	assert.InDelta(t, 431406.39, line.Price, 1e-9)
	if assert.NotNil(t, line.OriginalPrice) {
		assert.InDelta(t, 539257.98, *line.OriginalPrice, 1e-9)
	}

	line, ok = tier.LineFor(PriceData{Currency: "USD", Premium: 500, Standard: 250}, 1)
	assert.True(t, ok)
	assert.Nil(t, line.OriginalPrice)

	_, ok = TierInfo{ID: "vip"}.LineFor(PriceData{Currency: "USD"}, 1)
	assert.False(t, ok)
}

func TestEventListPrices(t *testing.T) {
	list := DefaultEvent("abf").ListPrices()
	assert.InDelta(t, 539257.98, list[TierPremium]["NGN"], 1e-9)
	assert.InDelta(t, 287604.26, list[TierStandard]["NGN"], 1e-9)

	_, ok := EventInfo{Tiers: []TierInfo{{ID: "vip"}}}.ListPrices()["vip"]
	assert.False(t, ok)
}
