package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticket-storefront/internal/middleware"
	"ticket-storefront/internal/models"
	"ticket-storefront/internal/services"
	"ticket-storefront/internal/session"
)

// stubPricing serves two countries with fixed prices. Nigeria carries
// merchant M1, the US merchant M2. Ghana is listed but never priced.
type stubPricing struct{}

var stubPrices = map[string]models.PriceData{
	"NG": {Currency: "NGN", Premium: 500000, Standard: 250000},
	"US": {Currency: "USD", Premium: 300, Standard: 150},
}

var stubMerchants = map[string]string{"NG": "M1", "US": "M2"}

func (stubPricing) ListCurrencies(context.Context) []models.CurrencyOption {
	return []models.CurrencyOption{
		{Name: "Nigeria", Value: "NG", Currency: "NGN"},
		{Name: "United States", Value: "US", Currency: "USD"},
		{Name: "Ghana", Value: "GH", Currency: "GHS"},
	}
}

func (stubPricing) GetPrices(_ context.Context, code string, store services.CredentialStore) *models.PriceData {
	p, ok := stubPrices[code]
	if !ok {
		return nil
	}
	store.SetAll(map[string]string{services.KeyMerchantID: stubMerchants[code]})
	return &p
}

func (s stubPricing) GetPricesForCountries(ctx context.Context, codes []string) map[string]models.PriceData {
	out := make(map[string]models.PriceData)
	for _, code := range codes {
		if p, ok := stubPrices[code]; ok {
			out[code] = p
		}
	}
	return out
}

func (s stubPricing) ListCurrenciesWithPrices(ctx context.Context) []models.CurrencyWithPrices {
	var out []models.CurrencyWithPrices
	for _, opt := range s.ListCurrencies(ctx) {
		item := models.CurrencyWithPrices{CurrencyOption: opt}
		if p, ok := stubPrices[opt.Value]; ok {
			item.Prices = &p
		}
		out = append(out, item)
	}
	return out
}

// MockCredentialService is a mock implementation of CredentialServiceInterface
type MockCredentialService struct {
	mock.Mock
}

func (m *MockCredentialService) ResolveMerchantID(store services.CredentialStore) (string, error) {
	args := m.Called(store)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialService) GetAPIKey(ctx context.Context, store services.CredentialStore, merchantID string) (string, error) {
	args := m.Called(ctx, store, merchantID)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialService) GetAccessToken(ctx context.Context, merchantID, apiKey string) (models.AccessToken, error) {
	args := m.Called(ctx, merchantID, apiKey)
	return args.Get(0).(models.AccessToken), args.Error(1)
}

// MockPaymentService is a mock implementation of PaymentServiceInterface
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Initiate(ctx context.Context, req models.PaymentRequest, auth models.PaymentAuth, store services.CredentialStore) (string, error) {
	args := m.Called(ctx, req, auth, store)
	return args.String(0), args.Error(1)
}

type storefront struct {
	t           *testing.T
	server      *httptest.Server
	client      *http.Client
	credentials *MockCredentialService
	payments    *MockPaymentService
	registry    *session.Registry
}

func newStorefront(t *testing.T, returnURL string) *storefront {
	t.Helper()

	event := models.DefaultEvent("abf")
	sf := &storefront{
		t:           t,
		credentials: new(MockCredentialService),
		payments:    new(MockPaymentService),
	}
	sf.registry = session.NewRegistry(session.Deps{
		Pricing:     stubPricing{},
		Credentials: sf.credentials,
		Payments:    sf.payments,
		Checkout: services.CheckoutConfig{
			EventTitle: event.Title,
			SuccessURL: "https://shop.example.com/payment/success",
			FailureURL: "https://shop.example.com/payment/failure",
		},
		ListPrices: event.ListPrices(),
	}, time.Hour)

	identity := session.NewIdentity(session.CookieOptions{Secret: "test-secret"})
	sessions := middleware.NewSessionMiddleware(identity, sf.registry)

	storefrontHandler := NewStorefrontHandler(event, stubPricing{})
	cartHandler := NewCartHandler(event)
	checkoutHandler := NewCheckoutHandler(event)
	paymentHandler := NewPaymentHandler(returnURL)

	r := chi.NewRouter()
	r.Get("/healthz", storefrontHandler.Health)
	r.Get("/api/event", storefrontHandler.GetEvent)
	r.Group(func(r chi.Router) {
		r.Use(sessions.LoadSession)
		r.Get("/api/currencies", storefrontHandler.ListCurrencies)
		r.Get("/api/pricing", storefrontHandler.GetPricing)
		r.Put("/api/pricing/currency", storefrontHandler.SetCurrency)
		r.Post("/api/pricing/refresh", storefrontHandler.RefreshPricing)
		r.Get("/api/cart", cartHandler.GetCart)
		r.Delete("/api/cart", cartHandler.ClearCart)
		r.Post("/api/cart/tickets", cartHandler.AddTicket)
		r.Patch("/api/cart/tickets/{id}", cartHandler.UpdateTicket)
		r.Delete("/api/cart/tickets/{id}", cartHandler.RemoveTicket)
		r.Post("/api/checkout", checkoutHandler.Submit)
		r.Get("/api/checkout/status", checkoutHandler.Status)
		r.Get("/payment/success", paymentHandler.Success)
		r.Get("/payment/failure", paymentHandler.Failure)
	})

	sf.server = httptest.NewServer(r)
	t.Cleanup(sf.server.Close)

	sf.client = newBrowserClient(t)
	return sf
}

// newBrowser returns a client of the same storefront with its own cookie jar
func (sf *storefront) newBrowser() *storefront {
	other := *sf
	other.client = newBrowserClient(sf.t)
	return &other
}

func newBrowserClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (sf *storefront) do(method, path string, body io.Reader, header http.Header) *http.Response {
	sf.t.Helper()
	req, err := http.NewRequest(method, sf.server.URL+path, body)
	require.NoError(sf.t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := sf.client.Do(req)
	require.NoError(sf.t, err)
	sf.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (sf *storefront) get(path string) *http.Response {
	return sf.do(http.MethodGet, path, nil, nil)
}

func (sf *storefront) sendJSON(method, path string, v any) *http.Response {
	sf.t.Helper()
	var buf bytes.Buffer
	require.NoError(sf.t, json.NewEncoder(&buf).Encode(v))
	return sf.do(method, path, &buf, http.Header{"Content-Type": {"application/json"}})
}

func (sf *storefront) sendForm(method, path string, form url.Values, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	return sf.do(method, path, strings.NewReader(form.Encode()), header)
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
