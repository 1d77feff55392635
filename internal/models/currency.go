package models

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SymbolPosition tells where the currency symbol is placed relative to the amount.
type SymbolPosition string

const (
	SymbolBefore SymbolPosition = "before"
	SymbolAfter  SymbolPosition = "after"
)

// Currency holds display metadata for a currency code
type Currency struct {
	Code     string         `json:"code"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Locale   string         `json:"locale"`
	Position SymbolPosition `json:"position"`
}

// DefaultCurrency is the currency preferred when the storefront picks a selection on its own.
const DefaultCurrency = "USD"

// CommonCurrencies are the currencies shown first in the picker.
var CommonCurrencies = []string{"NGN", "USD", "EUR", "GBP", "ZAR", "KES", "GHS"}

// currencyCatalog maps currency code to display metadata.
var currencyCatalog = map[string]Currency{
	"NGN": {Code: "NGN", Symbol: "₦", Name: "Nigerian Naira", Locale: "en-NG", Position: SymbolBefore},
	"USD": {Code: "USD", Symbol: "$", Name: "US Dollar", Locale: "en-US", Position: SymbolBefore},
	"EUR": {Code: "EUR", Symbol: "€", Name: "Euro", Locale: "en-IE", Position: SymbolBefore},
	"GBP": {Code: "GBP", Symbol: "£", Name: "British Pound", Locale: "en-GB", Position: SymbolBefore},
	"CAD": {Code: "CAD", Symbol: "C$", Name: "Canadian Dollar", Locale: "en-CA", Position: SymbolBefore},
	"AUD": {Code: "AUD", Symbol: "A$", Name: "Australian Dollar", Locale: "en-AU", Position: SymbolBefore},
	"JPY": {Code: "JPY", Symbol: "¥", Name: "Japanese Yen", Locale: "ja-JP", Position: SymbolBefore},
	"ZAR": {Code: "ZAR", Symbol: "R", Name: "South African Rand", Locale: "en-ZA", Position: SymbolBefore},
	"KES": {Code: "KES", Symbol: "KSh", Name: "Kenyan Shilling", Locale: "en-KE", Position: SymbolBefore},
	"GHS": {Code: "GHS", Symbol: "GH₵", Name: "Ghanaian Cedi", Locale: "en-GH", Position: SymbolBefore},
}

// LookupCurrency returns the catalog entry for code.
func LookupCurrency(code string) (Currency, bool) {
	c, ok := currencyCatalog[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// Currencies returns every catalog entry, common currencies first.
func Currencies() []Currency {
	out := make([]Currency, 0, len(currencyCatalog))
	seen := make(map[string]bool, len(currencyCatalog))
	for _, code := range CommonCurrencies {
		if c, ok := currencyCatalog[code]; ok {
			out = append(out, c)
			seen[code] = true
		}
	}
	for _, code := range []string{"CAD", "AUD", "JPY"} {
		if !seen[code] {
			out = append(out, currencyCatalog[code])
		}
	}
	return out
}

// IsISOCurrency reports whether code is a well-formed ISO 4217 code, catalogued or not.
func IsISOCurrency(code string) bool {
	_, err := currency.ParseISO(strings.TrimSpace(code))
	return err == nil
}

// CurrencySymbol returns the symbol for code, or the code itself when unknown.
func CurrencySymbol(code string) string {
	if c, ok := LookupCurrency(code); ok {
		return c.Symbol
	}
	return code
}

// CurrencyName returns the display name for code, or the code itself when unknown.
func CurrencyName(code string) string {
	if c, ok := LookupCurrency(code); ok {
		return c.Name
	}
	return code
}

// FormatOptions controls FormatAmount output.
type FormatOptions struct {
	HideSymbol   bool
	HideDecimals bool
	Locale       string
}

// FormatAmount renders amount in the currency's locale, e.g. "₦215,703.19".
// Unknown currencies render as "<CODE> <amount>".
func FormatAmount(amount float64, code string, opts FormatOptions) string {
	c, ok := LookupCurrency(code)
	locale := opts.Locale
	if locale == "" && ok {
		locale = c.Locale
	}
	number := formatNumber(amount, locale, !opts.HideDecimals)

	if !ok {
		return fmt.Sprintf("%s %s", strings.ToUpper(strings.TrimSpace(code)), number)
	}
	if opts.HideSymbol {
		return number
	}
	if c.Position == SymbolAfter {
		return number + " " + c.Symbol
	}
	return c.Symbol + number
}

// FormattedPrice is a current price with the optional undiscounted price.
type FormattedPrice struct {
	Current  string `json:"current"`
	Original string `json:"original,omitempty"`
}

// FormatPriceWithOriginal formats a price and, when it is higher, its original price.
func FormatPriceWithOriginal(current float64, original *float64, code string, opts FormatOptions) FormattedPrice {
	fp := FormattedPrice{Current: FormatAmount(current, code, opts)}
	if original != nil && *original > current {
		fp.Original = FormatAmount(*original, code, opts)
	}
	return fp
}

func formatNumber(amount float64, locale string, decimals bool) string {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = parsed
		}
	}
	p := message.NewPrinter(tag)
	if decimals {
		return p.Sprintf("%.2f", amount)
	}
	return p.Sprintf("%.0f", amount)
}
