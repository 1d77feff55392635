package services

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ticket-storefront/internal/models"
)

const pricesUnavailableMessage = "Prices are not available for the selected currency right now."

// SelectionResult reports the selection after a price fetch and whether that
// fetch was applied. A fetch superseded by a newer one is discarded.
type SelectionResult struct {
	Selection models.PricingSelection
	Applied   bool
}

// PricingSelector tracks one session's selected currency. Every price fetch is
// tagged with a sequence number and only the latest one is applied, together
// with the merchant identity it produced.
type PricingSelector struct {
	pricing     PricingServiceInterface
	credentials CredentialStore
	cart        *CartStore
	logger      *zap.Logger

	mu    sync.Mutex
	seq   uint64
	state models.PricingSelection
}

// NewPricingSelector creates a selector writing merchant identity to credentials
// and repricing cart on every applied fetch. cart may be nil.
func NewPricingSelector(pricing PricingServiceInterface, credentials CredentialStore, cart *CartStore, logger *zap.Logger) *PricingSelector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingSelector{
		pricing:     pricing,
		credentials: credentials,
		cart:        cart,
		logger:      logger,
	}
}

// Init loads the currency list and selects the default option when nothing is selected yet.
func (s *PricingSelector) Init(ctx context.Context) (models.PricingSelection, error) {
	currencies := s.pricing.ListCurrencies(ctx)

	s.mu.Lock()
	s.state.Currencies = currencies
	selected := s.state.SelectedCurrency
	s.mu.Unlock()

	if selected == "" {
		opt, ok := models.DefaultOption(currencies)
		if !ok {
			return s.Snapshot(), nil
		}
		selected = opt.Currency
	}

	res, err := s.SetCurrency(ctx, selected)
	if err != nil {
		return s.Snapshot(), err
	}
	return res.Selection, nil
}

// SetCurrency selects the option for currency code and fetches its prices.
func (s *PricingSelector) SetCurrency(ctx context.Context, code string) (SelectionResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	s.mu.Lock()
	needList := len(s.state.Currencies) == 0
	s.mu.Unlock()
	if needList {
		currencies := s.pricing.ListCurrencies(ctx)
		s.mu.Lock()
		if len(s.state.Currencies) == 0 {
			s.state.Currencies = currencies
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	opt, ok := models.FindByCurrency(s.state.Currencies, code)
	if !ok {
		s.mu.Unlock()
		return SelectionResult{Selection: s.Snapshot()}, models.ErrUnknownCurrency
	}
	s.state.SelectedCurrency = opt.Currency
	s.state.SelectedCountry = opt.Value
	token := s.begin()
	s.mu.Unlock()

	return s.fetch(ctx, token, opt.Value), nil
}

// Refresh re-fetches the prices of the selected country.
func (s *PricingSelector) Refresh(ctx context.Context) (SelectionResult, error) {
	s.mu.Lock()
	country := s.state.SelectedCountry
	if country == "" {
		s.mu.Unlock()
		if _, err := s.Init(ctx); err != nil {
			return SelectionResult{Selection: s.Snapshot()}, err
		}
		snap := s.Snapshot()
		return SelectionResult{Selection: snap, Applied: !snap.Loading}, nil
	}
	token := s.begin()
	s.mu.Unlock()

	return s.fetch(ctx, token, country), nil
}

// Snapshot returns a copy of the current selection
func (s *PricingSelector) Snapshot() models.PricingSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// begin issues a new sequence token. Callers hold s.mu.
func (s *PricingSelector) begin() uint64 {
	s.seq++
	s.state.Loading = true
	s.state.Error = ""
	return s.seq
}

func (s *PricingSelector) fetch(ctx context.Context, token uint64, country string) SelectionResult {
	staging := NewMemoryCredentialStore()
	prices := s.pricing.GetPrices(ctx, country, staging)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.seq {
		s.logger.Debug("discarding superseded price fetch",
			zap.String("country", country),
			zap.Uint64("token", token),
			zap.Uint64("latest", s.seq),
		)
		return SelectionResult{Selection: s.state.Clone(), Applied: false}
	}

	s.state.Loading = false
	s.state.Prices = prices
	if prices == nil {
		s.state.Error = pricesUnavailableMessage
		return SelectionResult{Selection: s.state.Clone(), Applied: true}
	}

	s.commitIdentity(staging.Snapshot())
	if s.cart != nil {
		s.cart.Reprice(*prices)
	}
	return SelectionResult{Selection: s.state.Clone(), Applied: true}
}

// commitIdentity writes the merchant identity of an applied fetch. A different
// merchant invalidates the cached client id and API key.
func (s *PricingSelector) commitIdentity(identity map[string]string) {
	if len(identity) == 0 || s.credentials == nil {
		return
	}
	if next, ok := identity[KeyMerchantID]; ok {
		if current, _ := s.credentials.Get(KeyMerchantID); current != "" && current != next {
			s.credentials.Delete(KeyClientID)
			s.credentials.Delete(KeyMerchantAPIKey)
		}
	}
	s.credentials.SetAll(identity)
}
