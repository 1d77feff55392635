package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"ticket-storefront/internal/models"
)

const (
	defaultGatewayTimeout = 15 * time.Second
	maxResponseBytes      = 1 << 20
	tracerName            = "ticket-storefront/services"
)

// GatewayConfig represents the remote service connection settings
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// GatewayClient performs JSON requests against the remote pricing/credential/payment service
type GatewayClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewGatewayClient creates a new gateway client
func NewGatewayClient(config GatewayConfig) *GatewayClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		timeout: timeout,
		client:  client,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// BaseURL returns the configured base URL
func (c *GatewayClient) BaseURL() string {
	return c.baseURL
}

// gatewayRequest describes one outbound call
type gatewayRequest struct {
	step   string // span and log name, e.g. "pricing.get_prices"
	method string
	path   string
	body   any
	header http.Header
	user   string
	pass   string
}

// gatewayResponse is a completed call with its raw body
type gatewayResponse struct {
	StatusCode int
	Body       []byte
}

func (r *gatewayResponse) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// decode unmarshals the body into out
func (r *gatewayResponse) decode(out any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError is returned for a completed call with a non-2xx status
type StatusError struct {
	Step       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Step, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Step, e.StatusCode)
}

// send performs the request with the client timeout. Transport failures are
// returned as errors; timeouts match models.ErrNetworkTimeout. Any HTTP status
// is returned as a response.
func (c *GatewayClient) send(ctx context.Context, req gatewayRequest) (*gatewayResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, req.step, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", req.method),
		attribute.String("url.path", req.path),
	)

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			span.SetStatus(codes.Error, "marshal")
			return nil, fmt.Errorf("%s: failed to marshal request: %w", req.step, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		span.SetStatus(codes.Error, "build request")
		return nil, fmt.Errorf("%s: failed to create request: %w", req.step, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, values := range req.header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if req.user != "" || req.pass != "" {
		httpReq.SetBasicAuth(req.user, req.pass)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		err = classifyTransportError(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("gateway request failed",
			zap.String("step", req.step),
			zap.String("path", req.path),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", req.step, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		err = classifyTransportError(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, fmt.Errorf("%s: failed to read response body: %w", req.step, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	c.logger.Debug("gateway request completed",
		zap.String("step", req.step),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	return &gatewayResponse{StatusCode: resp.StatusCode, Body: raw}, nil
}

// classifyTransportError marks deadline and net timeouts with models.ErrNetworkTimeout.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", models.ErrNetworkTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", models.ErrNetworkTimeout, err)
	}
	return err
}

// upstreamMessage pulls a human readable message out of an error body, if any.
func upstreamMessage(body []byte) string {
	var envelope struct {
		Message             string `json:"message"`
		ResponseMessage     string `json:"responseMessage"`
		ResponseDescription string `json:"responseDescription"`
		Error               any    `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	switch {
	case envelope.Message != "":
		return envelope.Message
	case envelope.ResponseMessage != "":
		return envelope.ResponseMessage
	case envelope.ResponseDescription != "":
		return envelope.ResponseDescription
	}
	if s, ok := envelope.Error.(string); ok {
		return s
	}
	return ""
}
