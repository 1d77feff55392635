package services

import (
	"context"

	"ticket-storefront/internal/models"
)

// PricingServiceInterface defines the interface for the country and price lookups
type PricingServiceInterface interface {
	ListCurrencies(ctx context.Context) []models.CurrencyOption
	GetPrices(ctx context.Context, countryCode string, store CredentialStore) *models.PriceData
	GetPricesForCountries(ctx context.Context, countryCodes []string) map[string]models.PriceData
	ListCurrenciesWithPrices(ctx context.Context) []models.CurrencyWithPrices
}

// CredentialServiceInterface defines the interface for merchant credential resolution
type CredentialServiceInterface interface {
	ResolveMerchantID(store CredentialStore) (string, error)
	GetAPIKey(ctx context.Context, store CredentialStore, merchantID string) (string, error)
	GetAccessToken(ctx context.Context, merchantID, apiKey string) (models.AccessToken, error)
}

// PaymentServiceInterface defines the interface for payment initiation
type PaymentServiceInterface interface {
	Initiate(ctx context.Context, req models.PaymentRequest, auth models.PaymentAuth, store CredentialStore) (string, error)
}

// PricingSelectorInterface defines the interface for a session's currency selection
type PricingSelectorInterface interface {
	Init(ctx context.Context) (models.PricingSelection, error)
	SetCurrency(ctx context.Context, code string) (SelectionResult, error)
	Refresh(ctx context.Context) (SelectionResult, error)
	Snapshot() models.PricingSelection
}

// CheckoutServiceInterface defines the interface for a session's checkout flow
type CheckoutServiceInterface interface {
	Submit(ctx context.Context, contact models.ContactInfo) (string, error)
	Status() models.CheckoutStatus
	Reset()
}

var (
	_ PricingServiceInterface    = (*PricingService)(nil)
	_ CredentialServiceInterface = (*CredentialService)(nil)
	_ PaymentServiceInterface    = (*PaymentService)(nil)
	_ PricingSelectorInterface   = (*PricingSelector)(nil)
	_ CheckoutServiceInterface   = (*CheckoutOrchestrator)(nil)
)
