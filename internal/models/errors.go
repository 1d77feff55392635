package models

import "errors"

// Common errors used throughout the application
var (
	ErrValidation              = errors.New("validation failed")
	ErrPricingUnavailable      = errors.New("pricing unavailable")
	ErrNoMerchantID            = errors.New("no merchant id")
	ErrCredentialFetchFailed   = errors.New("credential fetch failed")
	ErrTokenFetchFailed        = errors.New("token fetch failed")
	ErrPaymentInitiationFailed = errors.New("payment initiation failed")
	ErrNoRedirectURL           = errors.New("no redirect url")
	ErrNetworkTimeout          = errors.New("network timeout")
	ErrCheckoutInProgress      = errors.New("checkout already in progress")
	ErrUnknownCurrency         = errors.New("unknown currency")
	ErrTicketNotFound          = errors.New("ticket not found")
	ErrInvalidInput            = errors.New("invalid input")
)

// FailureKind classifies why a checkout attempt ended without a redirect.
type FailureKind string

const (
	FailureValidation        FailureKind = "validation_error"
	FailureNoMerchantID      FailureKind = "no_merchant_id"
	FailureCredentialFetch   FailureKind = "credential_fetch_failed"
	FailureTokenFetch        FailureKind = "token_fetch_failed"
	FailurePaymentInitiation FailureKind = "payment_initiation_failed"
	FailureNoRedirectURL     FailureKind = "no_redirect_url"
	FailureNetworkTimeout    FailureKind = "network_timeout"
)

var failureKindErrors = map[FailureKind]error{
	FailureValidation:        ErrValidation,
	FailureNoMerchantID:      ErrNoMerchantID,
	FailureCredentialFetch:   ErrCredentialFetchFailed,
	FailureTokenFetch:        ErrTokenFetchFailed,
	FailurePaymentInitiation: ErrPaymentInitiationFailed,
	FailureNoRedirectURL:     ErrNoRedirectURL,
	FailureNetworkTimeout:    ErrNetworkTimeout,
}

// UserMessage returns the notification text shown to the buyer.
func (k FailureKind) UserMessage() string {
	switch k {
	case FailureValidation:
		return "Please fill in your contact information and select at least one ticket."
	case FailureNoMerchantID:
		return "Ticket prices have not loaded for your country yet. Please reselect your currency and try again."
	case FailureCredentialFetch:
		return "We could not reach the payment service. Please try again."
	case FailureTokenFetch:
		return "We could not authorize your payment. Please try again."
	case FailurePaymentInitiation:
		return "Your payment could not be started. Please try again."
	case FailureNoRedirectURL:
		return "The payment gateway did not return a payment page. No charge was made, please try again."
	case FailureNetworkTimeout:
		return "The payment service took too long to respond. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// Sentinel returns the package error matching the kind.
func (k FailureKind) Sentinel() error {
	return failureKindErrors[k]
}

// CheckoutError is returned by a checkout attempt that did not reach the gateway redirect.
type CheckoutError struct {
	Kind        FailureKind
	Message     string
	FieldErrors map[string]string // set for validation failures
	Err         error
}

// NewCheckoutError creates a checkout error whose message defaults to the kind's user message.
func NewCheckoutError(kind FailureKind, err error) *CheckoutError {
	return &CheckoutError{Kind: kind, Message: kind.UserMessage(), Err: err}
}

func (e *CheckoutError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (e *CheckoutError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel := e.Kind.Sentinel(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Failure returns the user facing summary of the error.
func (e *CheckoutError) Failure() CheckoutFailure {
	return CheckoutFailure{Kind: e.Kind, Message: e.Message, FieldErrors: e.FieldErrors}
}
