package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"ticket-storefront/internal/models"
)

// CredentialConfig holds the basic auth pair used for the credential lookup
type CredentialConfig struct {
	BasicAuthUser     string
	BasicAuthPassword string
}

// CredentialService resolves the merchant id, API key and access token for a checkout
type CredentialService struct {
	gateway *GatewayClient
	config  CredentialConfig
	logger  *zap.Logger
}

// NewCredentialService creates a new credential service
func NewCredentialService(gateway *GatewayClient, config CredentialConfig, logger *zap.Logger) *CredentialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialService{gateway: gateway, config: config, logger: logger}
}

// ResolveMerchantID returns the merchant id captured by the last applied price fetch.
func (s *CredentialService) ResolveMerchantID(store CredentialStore) (string, error) {
	if store == nil {
		return "", models.ErrNoMerchantID
	}
	merchantID, ok := store.Get(KeyMerchantID)
	if !ok || strings.TrimSpace(merchantID) == "" {
		return "", models.ErrNoMerchantID
	}
	return merchantID, nil
}

type credentialResponse struct {
	Data struct {
		APIKey string `json:"apiKey"`
	} `json:"data"`
}

// GetAPIKey returns the merchant API key, from store when cached, otherwise
// from the credential endpoint. Only a non-empty key is cached.
func (s *CredentialService) GetAPIKey(ctx context.Context, store CredentialStore, merchantID string) (string, error) {
	if store == nil {
		store = discardStore{}
	}
	if key, ok := store.Get(KeyMerchantAPIKey); ok && key != "" {
		return key, nil
	}

	header := http.Header{}
	header.Set("x-merchant-id", merchantID)

	resp, err := s.gateway.send(ctx, gatewayRequest{
		step:   "credentials.get_api_key",
		method: http.MethodGet,
		path:   "/userapp/merchant-app/get-credential",
		header: header,
		user:   s.config.BasicAuthUser,
		pass:   s.config.BasicAuthPassword,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrCredentialFetchFailed, err)
	}
	if !resp.ok() {
		return "", fmt.Errorf("%w: %w", models.ErrCredentialFetchFailed, &StatusError{
			Step:       "credentials.get_api_key",
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.Body),
		})
	}

	var body credentialResponse
	if err := resp.decode(&body); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrCredentialFetchFailed, err)
	}
	key := strings.TrimSpace(body.Data.APIKey)
	if key == "" {
		return "", fmt.Errorf("%w: response has no api key", models.ErrCredentialFetchFailed)
	}

	store.Set(KeyMerchantAPIKey, key)
	s.logger.Debug("merchant api key fetched", zap.String("merchant_id", merchantID))
	return key, nil
}

type tokenRequest struct {
	MerchantID string `json:"merchantId"`
	APIKey     string `json:"apiKey"`
}

type tokenResponse struct {
	Data struct {
		AccessToken string `json:"accessToken"`
		TokenType   string `json:"tokenType"`
		ExpiresIn   int64  `json:"expiresIn"`
	} `json:"data"`
}

// GetAccessToken exchanges the merchant id and API key for a short lived token.
// The token is never cached.
func (s *CredentialService) GetAccessToken(ctx context.Context, merchantID, apiKey string) (models.AccessToken, error) {
	resp, err := s.gateway.send(ctx, gatewayRequest{
		step:   "credentials.get_access_token",
		method: http.MethodPost,
		path:   "/oauth/generate-token",
		body:   tokenRequest{MerchantID: merchantID, APIKey: apiKey},
	})
	if err != nil {
		return models.AccessToken{}, fmt.Errorf("%w: %w", models.ErrTokenFetchFailed, err)
	}
	if !resp.ok() {
		return models.AccessToken{}, fmt.Errorf("%w: %w", models.ErrTokenFetchFailed, &StatusError{
			Step:       "credentials.get_access_token",
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.Body),
		})
	}

	var body tokenResponse
	if err := resp.decode(&body); err != nil {
		return models.AccessToken{}, fmt.Errorf("%w: %w", models.ErrTokenFetchFailed, err)
	}
	if strings.TrimSpace(body.Data.AccessToken) == "" {
		return models.AccessToken{}, fmt.Errorf("%w: response has no access token", models.ErrTokenFetchFailed)
	}

	token := models.AccessToken{
		Token:     body.Data.AccessToken,
		TokenType: body.Data.TokenType,
		ExpiresIn: time.Duration(body.Data.ExpiresIn) * time.Second,
	}
	if token.TokenType == "" {
		token.TokenType = models.DefaultTokenType
	}
	return token, nil
}
