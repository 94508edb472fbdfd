// Package predictor is a thin JSON client for the M5 forecasting service.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id of every outbound request.
const RequestIDHeader = "X-Request-ID"

const maxErrorBodySize = 64 << 10 // 64KB

// ErrMalformedResponse is wrapped by every error caused by a response body
// that could not be decoded into the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

// Request is the JSON body for POST /predict.
type Request struct {
	ItemID  string `json:"item_id"`
	StoreID string `json:"store_id"`
	Date    string `json:"date"`
}

// Response is the decoded result of POST /predict.
type Response struct {
	ItemID     string
	Date       string
	Prediction float64
	Status     string
}

// predictResponse mirrors the JSON returned by POST /predict. Prediction is a
// pointer so a missing field can be told apart from a zero probability.
type predictResponse struct {
	ItemID     string   `json:"item_id"`
	Date       string   `json:"date"`
	Prediction *float64 `json:"prediction"`
	Status     string   `json:"status"`
}

// Health mirrors the JSON returned by GET /.
type Health struct {
	Status  string `json:"status"`
	Project string `json:"project"`
}

// APIError is returned when the service answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Detail)
}

// Client communicates with the forecasting service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client targeting the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 0,
		},
	}
}

// BaseURL returns the service address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestIDKey struct{}

// WithRequestID returns a context whose outbound requests reuse id instead of
// generating a fresh one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// Health returns the service status reported by GET /.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := c.getJSON(ctx, "/", &h); err != nil {
		return Health{}, fmt.Errorf("health: %w", err)
	}
	return h, nil
}

// Items returns the item identifiers offered by GET /items.
func (c *Client) Items(ctx context.Context) ([]string, error) {
	var items []string
	if err := c.getJSON(ctx, "/items", &items); err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	return items, nil
}

// Stores returns the store identifiers offered by GET /stores.
func (c *Client) Stores(ctx context.Context) ([]string, error) {
	var stores []string
	if err := c.getJSON(ctx, "/stores", &stores); err != nil {
		return nil, fmt.Errorf("stores: %w", err)
	}
	return stores, nil
}

// Predict posts req to /predict and returns the decoded probability.
func (c *Client) Predict(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}

	var pr predictResponse
	if err := c.doJSON(ctx, http.MethodPost, "/predict", bytes.NewReader(body), &pr); err != nil {
		return Response{}, fmt.Errorf("predict: %w", err)
	}
	if pr.Prediction == nil {
		return Response{}, fmt.Errorf("predict: %w: missing prediction field", ErrMalformedResponse)
	}

	return Response{
		ItemID:     pr.ItemID,
		Date:       pr.Date,
		Prediction: *pr.Prediction,
		Status:     pr.Status,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, v)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, v any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	id := requestID(ctx)
	req.Header.Set(RequestIDHeader, id)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	slog.Debug("predictor request", "request_id", id, "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// newAPIError builds an APIError from a FastAPI-style {"detail": ...} body,
// falling back to the raw text.
func newAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Detail) > 0 {
		var s string
		if json.Unmarshal(envelope.Detail, &s) == nil {
			apiErr.Detail = s
		} else {
			apiErr.Detail = string(envelope.Detail)
		}
		return apiErr
	}
	apiErr.Detail = strings.TrimSpace(string(raw))
	return apiErr
}
