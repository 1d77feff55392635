package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ticket-storefront/internal/middleware"
	"ticket-storefront/internal/models"
	"ticket-storefront/internal/session"
)

const maxRequestBody = 64 << 10

// errorResponse is the JSON body of a failed request
type errorResponse struct {
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// isJSONRequest reports whether the body is JSON
func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// wantsJSON reports whether the client expects a JSON response rather than a navigation
func wantsJSON(r *http.Request) bool {
	if isJSONRequest(r) {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// decodeJSON reads a JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", models.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// parseForm parses a urlencoded or multipart form body
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: invalid form data", models.ErrInvalidInput)
	}
	return nil
}

// statusFor maps an error to its HTTP status and error code
func statusFor(err error) (int, string) {
	var ce *models.CheckoutError
	if errors.As(err, &ce) {
		switch ce.Kind {
		case models.FailureValidation:
			return http.StatusUnprocessableEntity, string(ce.Kind)
		case models.FailureNetworkTimeout:
			return http.StatusGatewayTimeout, string(ce.Kind)
		case models.FailureNoMerchantID:
			return http.StatusConflict, string(ce.Kind)
		default:
			return http.StatusBadGateway, string(ce.Kind)
		}
	}

	switch {
	case errors.Is(err, models.ErrCheckoutInProgress):
		return http.StatusConflict, "checkout_in_progress"
	case errors.Is(err, models.ErrUnknownCurrency):
		return http.StatusBadRequest, "unknown_currency"
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, models.ErrTicketNotFound):
		return http.StatusNotFound, "ticket_not_found"
	case errors.Is(err, models.ErrNetworkTimeout):
		return http.StatusGatewayTimeout, "network_timeout"
	case errors.Is(err, models.ErrPricingUnavailable):
		return http.StatusBadGateway, "pricing_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// messageFor returns the client facing message for err
func messageFor(err error) string {
	var ce *models.CheckoutError
	if errors.As(err, &ce) {
		return ce.Message
	}
	switch {
	case errors.Is(err, models.ErrCheckoutInProgress):
		return "Your checkout is already being processed."
	case errors.Is(err, models.ErrUnknownCurrency):
		return "That currency is not available."
	case errors.Is(err, models.ErrTicketNotFound):
		return "That ticket could not be found."
	case errors.Is(err, models.ErrPricingUnavailable):
		return "Ticket prices are not available right now. Please try again."
	case errors.Is(err, models.ErrInvalidInput):
		return "The request could not be understood."
	default:
		return "Something went wrong. Please try again."
	}
}

// writeError maps err to a status and writes it as an HTMX fragment or JSON.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	message := messageFor(err)

	logger := middleware.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("code", code), zap.Error(err))
	} else {
		logger.Info("request rejected", zap.String("code", code), zap.Error(err))
	}

	if middleware.IsHTMXRequest(r) {
		middleware.WriteError(w, r, status, code, message)
		return
	}

	body := errorResponse{Error: code, Message: message}
	var ce *models.CheckoutError
	if errors.As(err, &ce) {
		body.FieldErrors = ce.FieldErrors
	}
	writeJSON(w, status, body)
}

// sessionState returns the request's session or writes a 500
func sessionState(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	state := middleware.GetSessionFromContext(r.Context())
	if state == nil {
		writeError(w, r, errors.New("no session in request context"))
		return nil, false
	}
	return state, true
}
