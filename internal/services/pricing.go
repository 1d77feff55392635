package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ticket-storefront/internal/models"
)

const defaultMaxParallel = 4

// PricingService lists the selectable countries and fetches per-country ticket prices
type PricingService struct {
	gateway     *GatewayClient
	eventSlug   string
	maxParallel int
	logger      *zap.Logger
}

// NewPricingService creates a new pricing service for the event identified by eventSlug
func NewPricingService(gateway *GatewayClient, eventSlug string, maxParallel int, logger *zap.Logger) *PricingService {
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingService{
		gateway:     gateway,
		eventSlug:   eventSlug,
		maxParallel: maxParallel,
		logger:      logger,
	}
}

// ListCurrencies returns the country/currency options. Any failure yields the
// fallback list, so callers always get at least one option.
func (s *PricingService) ListCurrencies(ctx context.Context) []models.CurrencyOption {
	resp, err := s.gateway.send(ctx, gatewayRequest{
		step:   "pricing.list_currencies",
		method: http.MethodGet,
		path:   "/checkout/app/country-list",
	})
	if err != nil {
		s.logger.Warn("failed to fetch currencies, using fallback", zap.Error(err))
		return fallbackCurrencies()
	}
	if !resp.ok() {
		s.logger.Warn("currency list returned error status, using fallback", zap.Int("status", resp.StatusCode))
		return fallbackCurrencies()
	}

	options, err := decodeCurrencyOptions(resp.Body)
	if err != nil || len(options) == 0 {
		s.logger.Warn("currency list unusable, using fallback", zap.Error(err))
		return fallbackCurrencies()
	}
	return options
}

// decodeCurrencyOptions accepts the bare array the service returns, or the
// same array inside a data envelope. Entries without a country or with a
// malformed currency code are dropped.
func decodeCurrencyOptions(body []byte) ([]models.CurrencyOption, error) {
	var options []models.CurrencyOption
	if err := json.Unmarshal(body, &options); err != nil {
		var envelope struct {
			Data []models.CurrencyOption `json:"data"`
		}
		if envErr := json.Unmarshal(body, &envelope); envErr != nil {
			return nil, err
		}
		options = envelope.Data
	}

	out := make([]models.CurrencyOption, 0, len(options))
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		opt.Value = strings.TrimSpace(opt.Value)
		opt.Currency = strings.ToUpper(strings.TrimSpace(opt.Currency))
		if opt.Value == "" || !models.IsISOCurrency(opt.Currency) || seen[opt.Value] {
			continue
		}
		seen[opt.Value] = true
		out = append(out, opt)
	}
	return out, nil
}

func fallbackCurrencies() []models.CurrencyOption {
	out := make([]models.CurrencyOption, len(models.FallbackCurrencies))
	copy(out, models.FallbackCurrencies)
	return out
}

// GetPrices fetches the prices for countryCode. It returns nil when prices are
// unavailable for any reason. On success the entry's merchantId and clientId,
// when present, are written to store in a single step.
func (s *PricingService) GetPrices(ctx context.Context, countryCode string, store CredentialStore) *models.PriceData {
	countryCode = strings.TrimSpace(countryCode)
	if countryCode == "" {
		return nil
	}
	if store == nil {
		store = discardStore{}
	}

	resp, err := s.gateway.send(ctx, gatewayRequest{
		step:   "pricing.get_prices",
		method: http.MethodGet,
		path:   "/checkout/app/get-price-option/" + url.PathEscape(countryCode) + "/" + url.PathEscape(s.eventSlug),
	})
	if err != nil {
		s.logger.Warn("failed to fetch prices", zap.String("country", countryCode), zap.Error(err))
		return nil
	}
	if !resp.ok() {
		s.logger.Warn("price request returned error status",
			zap.String("country", countryCode),
			zap.Int("status", resp.StatusCode),
		)
		return nil
	}

	var priceResp models.PriceResponse
	if err := resp.decode(&priceResp); err != nil {
		s.logger.Warn("invalid price response", zap.String("country", countryCode), zap.Error(err))
		return nil
	}
	if priceResp.ResponseCode != models.PriceResponseSuccess {
		s.logger.Info("prices unavailable",
			zap.String("country", countryCode),
			zap.String("response_code", priceResp.ResponseCode),
			zap.String("response_message", priceResp.ResponseMessage),
		)
		return nil
	}
	entry, ok := priceResp.Data[countryCode]
	if !ok {
		s.logger.Info("price response has no entry for country", zap.String("country", countryCode))
		return nil
	}

	store.SetAll(map[string]string{
		KeyMerchantID: entry.MerchantID,
		KeyClientID:   entry.ClientID,
	})

	prices := entry.PriceData
	if prices.Currency == "" {
		prices.Currency = currencyForCountry(countryCode)
	}
	return &prices
}

// currencyForCountry covers a price entry without a currency field for the fallback country.
func currencyForCountry(countryCode string) string {
	for _, opt := range models.FallbackCurrencies {
		if strings.EqualFold(opt.Value, countryCode) {
			return opt.Currency
		}
	}
	return ""
}

// GetPricesForCountries fetches several countries in parallel and returns the
// available ones keyed by country code. Merchant identity is not captured.
func (s *PricingService) GetPricesForCountries(ctx context.Context, countryCodes []string) map[string]models.PriceData {
	var (
		mu     sync.Mutex
		prices = make(map[string]models.PriceData, len(countryCodes))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for _, code := range countryCodes {
		code := code
		g.Go(func() error {
			p := s.GetPrices(gctx, code, discardStore{})
			if p == nil {
				return nil
			}
			mu.Lock()
			prices[code] = *p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return prices
}

// ListCurrenciesWithPrices returns every option paired with its prices, if any.
func (s *PricingService) ListCurrenciesWithPrices(ctx context.Context) []models.CurrencyWithPrices {
	options := s.ListCurrencies(ctx)
	codes := make([]string, 0, len(options))
	for _, opt := range options {
		codes = append(codes, opt.Value)
	}
	prices := s.GetPricesForCountries(ctx, codes)

	out := make([]models.CurrencyWithPrices, 0, len(options))
	for _, opt := range options {
		item := models.CurrencyWithPrices{CurrencyOption: opt}
		if p, ok := prices[opt.Value]; ok {
			item.Prices = &p
		}
		out = append(out, item)
	}
	return out
}
