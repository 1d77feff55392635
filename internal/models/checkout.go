package models

import (
	"net/mail"
	"strings"
	"time"
)

// ContactInfo is the buyer contact captured at checkout
type ContactInfo struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	SendToMultiple bool   `json:"sendToMultiple"`
	// Attendees holds per-tier contacts when the receipt goes to multiple persons.
	Attendees map[string]AttendeeContact `json:"attendees,omitempty"`
}

// AttendeeContact is the contact for the holder of one ticket tier
type AttendeeContact struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Normalize trims whitespace from every field.
func (c ContactInfo) Normalize() ContactInfo {
	c.FullName = strings.TrimSpace(c.FullName)
	c.Email = strings.TrimSpace(c.Email)
	if len(c.Attendees) > 0 {
		attendees := make(map[string]AttendeeContact, len(c.Attendees))
		for tier, a := range c.Attendees {
			attendees[tier] = AttendeeContact{
				FullName: strings.TrimSpace(a.FullName),
				Email:    strings.TrimSpace(a.Email),
			}
		}
		c.Attendees = attendees
	}
	return c
}

// Validate returns field errors for the primary contact, keyed by field name.
func (c ContactInfo) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(c.FullName) == "" {
		errs["fullName"] = "Full name is required"
	}
	email := strings.TrimSpace(c.Email)
	if email == "" {
		errs["email"] = "Email address is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Email address is invalid"
	}
	if c.SendToMultiple {
		for tier, a := range c.Attendees {
			if a.Email == "" {
				continue
			}
			if _, err := mail.ParseAddress(strings.TrimSpace(a.Email)); err != nil {
				errs["attendees."+tier+".email"] = "Email address is invalid"
			}
		}
	}
	return errs
}

// DefaultTokenType is used when the token service omits tokenType.
const DefaultTokenType = "Bearer"

// AccessToken is the result of the token exchange
type AccessToken struct {
	Token     string
	TokenType string
	ExpiresIn time.Duration
}

// PaymentRequest is the body sent to the payment initiation endpoint
type PaymentRequest struct {
	CountryCode string  `json:"countryCode"`
	Amount      float64 `json:"amount"`
	Narration   string  `json:"narration"`
	SuccessURL  string  `json:"successUrl"`
	FailureURL  string  `json:"failureUrl"`
	Email       string  `json:"email"`
	FullName    string  `json:"fullName"`
	Reference   string  `json:"reference,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

// PaymentAuth carries the credentials for a payment initiation call
type PaymentAuth struct {
	AccessToken string
	MerchantID  string
	TokenType   string
}

// CheckoutState is a step of the checkout state machine
type CheckoutState string

const (
	CheckoutIdle                 CheckoutState = "idle"
	CheckoutValidatingContact    CheckoutState = "validating_contact"
	CheckoutResolvingCredentials CheckoutState = "resolving_credentials"
	CheckoutFetchingToken        CheckoutState = "fetching_token"
	CheckoutInitiatingPayment    CheckoutState = "initiating_payment"
	CheckoutRedirecting          CheckoutState = "redirecting"
)

// CheckoutFailure is the reason attached to a return to idle.
type CheckoutFailure struct {
	Kind        FailureKind       `json:"kind"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// CheckoutStatus is the externally visible state of a session's checkout
type CheckoutStatus struct {
	State       CheckoutState    `json:"state"`
	Submitting  bool             `json:"submitting"`
	LastFailure *CheckoutFailure `json:"lastFailure,omitempty"`
	RedirectURL string           `json:"redirectUrl,omitempty"`
}
