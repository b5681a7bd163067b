package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/monitoring"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 4 << 20
)

type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	OpenTimeout         time.Duration
	ConsecutiveFailures uint32
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	DefaultCurrency string
	Breaker         BreakerConfig
}

type rawResponse struct {
	status    int
	header    http.Header
	body      []byte
	requestID string
}

// Client talks to the transaction API. It never retries: a failed call is
// reported and the shopper decides what to do next.
type Client struct {
	baseURL         string
	defaultCurrency string
	http            *http.Client
	breaker         *gobreaker.CircuitBreaker[*rawResponse]
	products        singleflight.Group
	log             *logger.Logger
}

var _ ports.Gateway = (*Client)(nil)

func NewClient(cfg Config, httpClient *http.Client, log *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, domainErrors.ErrMissingBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		baseURL:         baseURL,
		defaultCurrency: cfg.DefaultCurrency,
		http:            httpClient,
		log:             log.WithField("component", "gateway"),
	}
	c.breaker = gobreaker.NewCircuitBreaker[*rawResponse](breakerSettings(cfg.Breaker, c.log))
	return c, nil
}

func breakerSettings(cfg BreakerConfig, log *logger.Logger) gobreaker.Settings {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	return gobreaker.Settings{
		Name:        "transaction-gateway",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// business rejections are answers, not outages
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var gwErr *ports.GatewayError
			return errors.As(err, &gwErr) && gwErr.StatusCode < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			monitoring.GatewayBreakerState.Set(float64(to))
		},
	}
}

// do sends one request. body may be nil, in which case no Content-Type is set.
func (c *Client) do(ctx context.Context, op, method, path string, body interface{}, out interface{}) (string, error) {
	start := time.Now()
	resp, err := c.breaker.Execute(func() (*rawResponse, error) {
		return c.roundTrip(ctx, method, path, body)
	})

	outcome := "ok"
	requestID := ""
	if resp != nil {
		requestID = resp.requestID
	}
	defer func() {
		monitoring.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		monitoring.GatewayRequestsTotal.WithLabelValues(op, outcome).Inc()
	}()

	if err != nil {
		var gwErr *ports.GatewayError
		switch {
		case errors.As(err, &gwErr):
			outcome = "rejected"
			if gwErr.StatusCode >= http.StatusInternalServerError {
				outcome = "server_error"
			}
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "breaker_open"
			err = fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
		default:
			outcome = "transport_error"
		}
		c.log.Debug("Gateway call failed", "operation", op, "outcome", outcome, "request_id", requestID, "error", err)
		return requestID, err
	}

	if out != nil && len(resp.body) > 0 && isJSON(resp.header) {
		if err := json.Unmarshal(resp.body, out); err != nil {
			outcome = "decode_error"
			return requestID, fmt.Errorf("decode %s response: %w", op, err)
		}
	}

	c.log.Debug("Gateway call", "operation", op, "status", resp.status, "request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds())
	return requestID, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body interface{}) (*rawResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domainErrors.ErrGatewayUnavailable, err)
	}

	resp := &rawResponse{
		status:    httpResp.StatusCode,
		header:    httpResp.Header,
		body:      raw,
		requestID: httpResp.Header.Get(requestIDHeader),
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, toGatewayError(resp)
	}
	return resp, nil
}

type errorPayload struct {
	Message *string         `json:"message"`
	Code    *string         `json:"code"`
	Error   json.RawMessage `json:"error"`
}

type nestedError struct {
	Message *string `json:"message"`
	Code    *string `json:"code"`
}

// toGatewayError reads message from message, then error.message, then the
// status text; code from code, then error.code.
func toGatewayError(resp *rawResponse) *ports.GatewayError {
	gwErr := &ports.GatewayError{
		StatusCode: resp.status,
		RequestID:  resp.requestID,
	}

	var payload errorPayload
	if isJSON(resp.header) && json.Unmarshal(resp.body, &payload) == nil {
		var nested nestedError
		if len(payload.Error) > 0 {
			_ = json.Unmarshal(payload.Error, &nested)
		}
		switch {
		case payload.Message != nil:
			gwErr.Message = *payload.Message
		case nested.Message != nil:
			gwErr.Message = *nested.Message
		}
		switch {
		case payload.Code != nil:
			gwErr.Code = *payload.Code
		case nested.Code != nil:
			gwErr.Code = *nested.Code
		}
	}

	if gwErr.Message == "" {
		gwErr.Message = http.StatusText(resp.status)
		if gwErr.Message == "" {
			gwErr.Message = "Request failed"
		}
	}
	return gwErr
}

func isJSON(h http.Header) bool {
	return strings.Contains(h.Get("Content-Type"), "application/json")
}
