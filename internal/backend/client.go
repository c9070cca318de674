// Package backend is the HTTP client of the token-exchange service.
//
// The orchestrator never talks to a provider's token endpoint itself: the
// backend owns client secrets and token storage. This client separates
// transport failures (network, timeout, 5xx, unreadable body), returned as
// *TransportError, from protocol rejections, returned as a response with
// Success=false and a nil error.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 15 * time.Second

const maxBodyBytes = 1 << 20

// ErrTransport matches every *TransportError with errors.Is.
var ErrTransport = errors.New("backend transport error")

// TransportError reports a failure to obtain a usable answer from the backend.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Config configures the client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	ServiceToken string // optional, sent as Bearer
	HTTPClient   *http.Client
}

// Client talks to the token-exchange backend.
type Client struct {
	base    string
	timeout time.Duration
	token   string
	http    *http.Client
	tracer  trace.Tracer
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend: base url is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid base url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		base:    base,
		timeout: timeout,
		token:   cfg.ServiceToken,
		http:    hc,
		tracer:  otel.Tracer("hellojohn-connect/backend"),
	}, nil
}

// Exchange trades an authorization code through the backend. It is called
// at most once per flow and is never retried.
func (c *Client) Exchange(ctx context.Context, req ExchangeRequest) (*ExchangeResponse, error) {
	ctx, span := c.tracer.Start(ctx, "backend.exchange", trace.WithAttributes(
		attribute.String("oauth.provider", req.Provider),
	))
	defer span.End()

	endpoint := c.base + "/oauth/" + url.PathEscape(req.Provider) + "/exchange"
	var out ExchangeResponse
	status, err := c.post(ctx, "exchange", endpoint, req, req.CorrelationID, &out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, err
	}
	if status >= 400 || !out.Success {
		out.Success = false
		if out.Error == "" {
			out.Error = http.StatusText(status)
		}
		span.SetAttributes(attribute.String("oauth.error_code", out.ErrorCode))
		span.SetStatus(codes.Error, "rejected")
	}
	return &out, nil
}

// Sync asks the backend to refresh the data of one integration.
func (c *Client) Sync(ctx context.Context, integrationID string) (*SyncResponse, error) {
	ctx, span := c.tracer.Start(ctx, "backend.sync", trace.WithAttributes(
		attribute.String("integration.id", integrationID),
	))
	defer span.End()

	endpoint := c.base + "/integrations/" + url.PathEscape(integrationID) + "/sync"
	var out SyncResponse
	status, err := c.post(ctx, "sync", endpoint, struct{}{}, "", &out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, err
	}
	if status >= 400 {
		out.Success = false
		if out.Error == "" {
			out.Error = http.StatusText(status)
		}
	}
	return &out, nil
}

// post sends body as JSON and decodes the answer into out. 5xx, timeouts and
// undecodable bodies are transport errors; 4xx bodies are decoded best-effort.
func (c *Client) post(ctx context.Context, op, endpoint string, body any, correlationID string, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("backend %s: encode: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 500 {
		return resp.StatusCode, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode >= 400 {
			// rejection without a JSON body
			return resp.StatusCode, nil
		}
		return resp.StatusCode, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.StatusCode, nil
}
