package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ticket-storefront/internal/models"
)

// PaymentConfig holds the fixed channel headers sent with every payment initiation
type PaymentConfig struct {
	ChannelID   string
	ChannelCode string
}

// PaymentService starts a hosted payment session and returns its redirect URL
type PaymentService struct {
	gateway *GatewayClient
	config  PaymentConfig
	logger  *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(gateway *GatewayClient, config PaymentConfig, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{gateway: gateway, config: config, logger: logger}
}

// redirectCandidates are the response paths searched, in order, for the payment page URL.
var redirectCandidates = [][]string{
	{"data", "redirectUrl"},
	{"data", "authorizationUrl"},
	{"data", "paymentUrl"},
	{"data", "checkoutUrl"},
	{"redirectUrl"},
	{"data", "data", "redirectUrl"},
}

// Initiate sends the payment request and returns the gateway redirect URL.
// When auth carries no merchant id, the one cached in store is used.
func (s *PaymentService) Initiate(ctx context.Context, req models.PaymentRequest, auth models.PaymentAuth, store CredentialStore) (string, error) {
	if req.Amount <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", models.ErrPaymentInitiationFailed)
	}

	merchantID := auth.MerchantID
	if merchantID == "" && store != nil {
		merchantID, _ = store.Get(KeyMerchantID)
	}
	tokenType := auth.TokenType
	if tokenType == "" {
		tokenType = models.DefaultTokenType
	}

	header := http.Header{}
	header.Set("Authorization", tokenType+" "+auth.AccessToken)
	if merchantID != "" {
		header.Set("x-merchant-id", merchantID)
	}
	header.Set("x-channel-id", s.config.ChannelID)
	header.Set("x-channel-code", s.config.ChannelCode)

	resp, err := s.gateway.send(ctx, gatewayRequest{
		step:   "payment.initiate",
		method: http.MethodPost,
		path:   "/payment/initiate-payment",
		body:   req,
		header: header,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrPaymentInitiationFailed, err)
	}
	if !resp.ok() {
		return "", fmt.Errorf("%w: %w", models.ErrPaymentInitiationFailed, &StatusError{
			Step:       "payment.initiate",
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.Body),
		})
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %w", models.ErrPaymentInitiationFailed, err)
	}

	redirectURL := findRedirectURL(body)
	if redirectURL == "" {
		s.logger.Warn("payment initiated without redirect url", zap.String("reference", req.Reference))
		return "", models.ErrNoRedirectURL
	}

	s.logger.Info("payment initiated",
		zap.String("reference", req.Reference),
		zap.String("country", req.CountryCode),
		zap.Float64("amount", req.Amount),
	)
	return redirectURL, nil
}

// findRedirectURL returns the first non-empty string found at a candidate path.
func findRedirectURL(body map[string]any) string {
	for _, path := range redirectCandidates {
		if v := lookupString(body, path); v != "" {
			return v
		}
	}
	return ""
}

func lookupString(node map[string]any, path []string) string {
	for i, key := range path {
		v, ok := node[key]
		if !ok {
			return ""
		}
		if i == len(path)-1 {
			s, _ := v.(string)
			return strings.TrimSpace(s)
		}
		next, ok := v.(map[string]any)
		if !ok {
			return ""
		}
		node = next
	}
	return ""
}
