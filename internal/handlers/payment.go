package handlers

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"ticket-storefront/internal/middleware"
)

const (
	paymentSucceeded = "success"
	paymentFailed    = "failure"
)

// PaymentHandler serves the pages the payment gateway returns browsers to
type PaymentHandler struct {
	returnURL string
}

// NewPaymentHandler creates a new payment handler. When returnURL is set the
// browser is redirected there with the outcome in the query string.
func NewPaymentHandler(returnURL string) *PaymentHandler {
	return &PaymentHandler{returnURL: returnURL}
}

type paymentReturnResponse struct {
	Status  string `json:"status"`
	Country string `json:"country,omitempty"`
}

// Success handles the gateway's success return. The cart is cleared and the
// checkout returned to idle.
func (h *PaymentHandler) Success(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}
	state.Cart.Clear()
	state.Checkout.Reset()

	middleware.LoggerFromContext(r.Context()).Info("payment returned",
		zap.String("status", paymentSucceeded),
		zap.String("country", r.URL.Query().Get("country")),
	)
	h.respond(w, r, paymentSucceeded)
}

// Failure handles the gateway's failure return. The cart is kept so the
// buyer can try again.
func (h *PaymentHandler) Failure(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}
	state.Checkout.Reset()

	middleware.LoggerFromContext(r.Context()).Info("payment returned",
		zap.String("status", paymentFailed),
		zap.String("country", r.URL.Query().Get("country")),
	)
	h.respond(w, r, paymentFailed)
}

func (h *PaymentHandler) respond(w http.ResponseWriter, r *http.Request, status string) {
	country := r.URL.Query().Get("country")
	if h.returnURL == "" || wantsJSON(r) {
		writeJSON(w, http.StatusOK, paymentReturnResponse{Status: status, Country: country})
		return
	}

	target, err := url.Parse(h.returnURL)
	if err != nil {
		writeJSON(w, http.StatusOK, paymentReturnResponse{Status: status, Country: country})
		return
	}
	q := target.Query()
	q.Set("payment", status)
	if country != "" {
		q.Set("country", country)
	}
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}
