package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ticket-storefront/internal/models"
)

// CheckoutConfig holds the per-deployment values of a payment request
type CheckoutConfig struct {
	EventTitle string
	SuccessURL string
	FailureURL string
}

// TransitionObserver is called after every checkout state change, outside the
// orchestrator lock, so it may call Status or Reset.
type TransitionObserver func(from, to models.CheckoutState)

// SelectionSource reports the session's current currency selection
type SelectionSource interface {
	Snapshot() models.PricingSelection
}

// CheckoutDeps wires the dependencies of one session's checkout orchestrator
type CheckoutDeps struct {
	Credentials CredentialServiceInterface
	Payments    PaymentServiceInterface
	Store       CredentialStore
	Cart        *CartStore
	Selection   SelectionSource
	Config      CheckoutConfig
	Logger      *zap.Logger
	Observer    TransitionObserver
	// NewReference generates the payment reference; defaults to a random UUID.
	NewReference func() string
}

// CheckoutOrchestrator runs the checkout flow for one browser session:
// contact validation, merchant id, API key, access token, payment initiation.
// Only one attempt runs at a time; a second submit is rejected, not queued.
type CheckoutOrchestrator struct {
	credentials  CredentialServiceInterface
	payments     PaymentServiceInterface
	store        CredentialStore
	cart         *CartStore
	selection    SelectionSource
	config       CheckoutConfig
	logger       *zap.Logger
	observer     TransitionObserver
	newReference func() string

	mu     sync.Mutex
	status models.CheckoutStatus
}

// NewCheckoutOrchestrator constructs an orchestrator, validating required dependencies.
func NewCheckoutOrchestrator(deps CheckoutDeps) (*CheckoutOrchestrator, error) {
	if deps.Credentials == nil {
		return nil, errors.New("checkout: credential service is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("checkout: payment service is required")
	}
	if deps.Store == nil {
		return nil, errors.New("checkout: credential store is required")
	}
	if deps.Cart == nil {
		return nil, errors.New("checkout: cart is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	newReference := deps.NewReference
	if newReference == nil {
		newReference = func() string { return uuid.NewString() }
	}

	return &CheckoutOrchestrator{
		credentials:  deps.Credentials,
		payments:     deps.Payments,
		store:        deps.Store,
		cart:         deps.Cart,
		selection:    deps.Selection,
		config:       deps.Config,
		logger:       logger,
		observer:     deps.Observer,
		newReference: newReference,
		status:       models.CheckoutStatus{State: models.CheckoutIdle},
	}, nil
}

// Status returns the current checkout state
func (o *CheckoutOrchestrator) Status() models.CheckoutStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	status := o.status
	if status.LastFailure != nil {
		f := *status.LastFailure
		status.LastFailure = &f
	}
	return status
}

// Reset returns a finished attempt to idle and clears its failure. It has no
// effect while an attempt is running.
func (o *CheckoutOrchestrator) Reset() {
	o.mu.Lock()
	if o.status.Submitting {
		o.mu.Unlock()
		return
	}
	from := o.status.State
	o.status = models.CheckoutStatus{State: models.CheckoutIdle}
	o.mu.Unlock()
	o.notify(from, models.CheckoutIdle)
}

// Submit runs one checkout attempt and returns the payment page URL. Failures
// are returned as *models.CheckoutError and leave the orchestrator idle.
// A call made while an attempt is running returns models.ErrCheckoutInProgress.
func (o *CheckoutOrchestrator) Submit(ctx context.Context, contact models.ContactInfo) (string, error) {
	if err := o.start(); err != nil {
		return "", err
	}

	redirectURL, err := o.run(ctx, contact)
	if err != nil {
		var ce *models.CheckoutError
		if !errors.As(err, &ce) {
			ce = models.NewCheckoutError(models.FailurePaymentInitiation, err)
		}
		o.fail(ce)
		return "", ce
	}

	o.mu.Lock()
	from := o.status.State
	o.status.State = models.CheckoutRedirecting
	o.status.Submitting = false
	o.status.RedirectURL = redirectURL
	o.mu.Unlock()
	o.notify(from, models.CheckoutRedirecting)

	return redirectURL, nil
}

func (o *CheckoutOrchestrator) start() error {
	o.mu.Lock()
	if o.status.Submitting {
		o.mu.Unlock()
		return models.ErrCheckoutInProgress
	}
	from := o.status.State
	o.status = models.CheckoutStatus{State: models.CheckoutValidatingContact, Submitting: true}
	o.mu.Unlock()
	o.notify(from, models.CheckoutValidatingContact)
	return nil
}

func (o *CheckoutOrchestrator) run(ctx context.Context, contact models.ContactInfo) (string, error) {
	contact = contact.Normalize()
	cart := o.cart.State()

	fieldErrors := contact.Validate()
	if !cart.HasTickets() || cart.TotalPrice <= 0 {
		fieldErrors["tickets"] = "Select at least one ticket"
	}
	if len(fieldErrors) > 0 {
		ce := models.NewCheckoutError(models.FailureValidation, nil)
		ce.FieldErrors = fieldErrors
		return "", ce
	}

	selection, err := o.pricedSelection(cart)
	if err != nil {
		return "", err
	}

	o.transition(models.CheckoutResolvingCredentials)
	merchantID, err := o.credentials.ResolveMerchantID(o.store)
	if err != nil {
		return "", models.NewCheckoutError(models.FailureNoMerchantID, err)
	}
	apiKey, err := o.credentials.GetAPIKey(ctx, o.store, merchantID)
	if err != nil {
		return "", models.NewCheckoutError(failureKind(models.FailureCredentialFetch, err), err)
	}

	o.transition(models.CheckoutFetchingToken)
	token, err := o.credentials.GetAccessToken(ctx, merchantID, apiKey)
	if err != nil {
		return "", models.NewCheckoutError(failureKind(models.FailureTokenFetch, err), err)
	}

	o.transition(models.CheckoutInitiatingPayment)
	req := o.paymentRequest(contact, cart, selection)
	redirectURL, err := o.payments.Initiate(ctx, req, models.PaymentAuth{
		AccessToken: token.Token,
		MerchantID:  merchantID,
		TokenType:   token.TokenType,
	}, o.store)
	if err != nil {
		kind := models.FailurePaymentInitiation
		if errors.Is(err, models.ErrNoRedirectURL) {
			kind = models.FailureNoRedirectURL
		}
		return "", models.NewCheckoutError(failureKind(kind, err), err)
	}

	o.logger.Info("checkout redirecting to payment page",
		zap.String("reference", req.Reference),
		zap.String("merchant_id", merchantID),
		zap.String("country", req.CountryCode),
		zap.Float64("amount", req.Amount),
	)
	return redirectURL, nil
}

// pricedSelection returns the current selection when its prices are loaded and
// the cart is priced in the same currency. Without an applied price fetch for
// the selected country the merchant on record belongs to another country.
func (o *CheckoutOrchestrator) pricedSelection(cart models.CartState) (models.PricingSelection, error) {
	if o.selection == nil {
		return models.PricingSelection{}, nil
	}
	sel := o.selection.Snapshot()
	if sel.Loading || sel.Prices == nil {
		return sel, models.NewCheckoutError(models.FailureNoMerchantID,
			fmt.Errorf("%w: no prices for %q", models.ErrPricingUnavailable, sel.SelectedCountry))
	}
	if !cart.PricedIn(sel.Prices.Currency) {
		return sel, models.NewCheckoutError(models.FailureNoMerchantID,
			fmt.Errorf("%w: cart priced in %s, selection is %s", models.ErrPricingUnavailable, cart.Currency(), sel.Prices.Currency))
	}
	return sel, nil
}

func (o *CheckoutOrchestrator) paymentRequest(contact models.ContactInfo, cart models.CartState, sel models.PricingSelection) models.PaymentRequest {
	country := sel.SelectedCountry
	currency := sel.SelectedCurrency

	title := strings.TrimSpace(o.config.EventTitle)
	if title == "" {
		title = "Event"
	}

	return models.PaymentRequest{
		CountryCode: country,
		Amount:      cart.TotalPrice,
		Narration:   title + " tickets",
		SuccessURL:  withCountry(o.config.SuccessURL, country),
		FailureURL:  withCountry(o.config.FailureURL, country),
		Email:       contact.Email,
		FullName:    contact.FullName,
		Reference:   o.newReference(),
		Currency:    currency,
	}
}

// withCountry appends the selected country to a return URL.
func withCountry(raw, country string) string {
	if raw == "" || country == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("country", country)
	u.RawQuery = q.Encode()
	return u.String()
}

// failureKind reports a timeout in any step as a network timeout.
func failureKind(kind models.FailureKind, err error) models.FailureKind {
	if errors.Is(err, models.ErrNetworkTimeout) {
		return models.FailureNetworkTimeout
	}
	return kind
}

func (o *CheckoutOrchestrator) transition(to models.CheckoutState) {
	o.mu.Lock()
	from := o.status.State
	o.status.State = to
	o.mu.Unlock()
	o.notify(from, to)
}

func (o *CheckoutOrchestrator) fail(ce *models.CheckoutError) {
	o.mu.Lock()
	from := o.status.State
	failure := ce.Failure()
	o.status = models.CheckoutStatus{State: models.CheckoutIdle, LastFailure: &failure}
	o.mu.Unlock()

	o.logger.Warn("checkout failed",
		zap.String("state", string(from)),
		zap.String("kind", string(ce.Kind)),
		zap.Error(ce.Err),
	)
	o.notify(from, models.CheckoutIdle)
}

// notify runs the observer. Callers must not hold o.mu.
func (o *CheckoutOrchestrator) notify(from, to models.CheckoutState) {
	o.logger.Debug("checkout transition", zap.String("from", string(from)), zap.String("to", string(to)))
	if o.observer != nil {
		o.observer(from, to)
	}
}
