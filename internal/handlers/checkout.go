package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"ticket-storefront/internal/middleware"
	"ticket-storefront/internal/models"
)

// CheckoutHandler runs checkout attempts for the session cart
type CheckoutHandler struct {
	event models.EventInfo
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(event models.EventInfo) *CheckoutHandler {
	return &CheckoutHandler{event: event}
}

type checkoutResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// Submit validates the contact, runs the credential handshake and initiates
// payment. On success the client is sent to the payment page.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}

	contact, err := h.parseContact(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	redirectURL, err := state.Checkout.Submit(r.Context(), contact)
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.LoggerFromContext(r.Context()).Info("checkout redirecting",
		zap.Int("tickets", state.Cart.State().TotalItems),
	)

	switch {
	case middleware.IsHTMXRequest(r):
		middleware.HXRedirect(w, redirectURL)
	case wantsJSON(r):
		writeJSON(w, http.StatusOK, checkoutResponse{RedirectURL: redirectURL})
	default:
		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
	}
}

// Status returns the session's checkout state
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	state, ok := sessionState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, state.Checkout.Status())
}

func (h *CheckoutHandler) parseContact(w http.ResponseWriter, r *http.Request) (models.ContactInfo, error) {
	var contact models.ContactInfo
	if isJSONRequest(r) {
		if err := decodeJSON(w, r, &contact); err != nil {
			return contact, err
		}
		return contact, nil
	}

	if err := parseForm(w, r); err != nil {
		return contact, err
	}
	contact.FullName = r.FormValue("fullName")
	contact.Email = r.FormValue("email")
	contact.SendToMultiple = formBool(r.FormValue("sendToMultiple"))
	if !contact.SendToMultiple {
		return contact, nil
	}

	// Attendee fields are named attendees.<tier>.fullName and attendees.<tier>.email
	for _, tier := range h.event.Tiers {
		a := models.AttendeeContact{
			FullName: r.FormValue("attendees." + tier.ID + ".fullName"),
			Email:    r.FormValue("attendees." + tier.ID + ".email"),
		}
		if a.FullName == "" && a.Email == "" {
			continue
		}
		if contact.Attendees == nil {
			contact.Attendees = make(map[string]models.AttendeeContact)
		}
		contact.Attendees[tier.ID] = a
	}
	return contact, nil
}

// formBool reads a checkbox value
func formBool(v string) bool {
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
