package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SuccessCode is the gateway's own success result code. The coordinator
// trusts it as-is and does not re-derive success from amounts.
const SuccessCode = "00"

// Gateway creates hosted payment sessions. The customer's browser is
// redirected to the returned URL and comes back through the callback.
type Gateway interface {
	CreateSession(ctx context.Context, orderID string, amount int64, returnURL string) (redirectURL string, err error)
}

// Result is the gateway's notification of a transaction outcome, delivered
// via browser redirect and/or server-to-server webhook. Raw keeps every
// field the gateway sent for audit purposes.
type Result struct {
	OrderID    string
	ResultCode string
	Raw        url.Values
}

func (r Result) Succeeded() bool {
	return r.ResultCode == SuccessCode
}

// ParseCallback decodes the gateway's return-channel parameters.
func ParseCallback(values url.Values) (Result, error) {
	orderID := values.Get("order_id")
	if orderID == "" {
		return Result{}, fmt.Errorf("payment: callback is missing order_id")
	}
	code := values.Get("result_code")
	if code == "" {
		return Result{}, fmt.Errorf("payment: callback is missing result_code")
	}
	return Result{OrderID: orderID, ResultCode: code, Raw: values}, nil
}

type HTTPGateway struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: timeout,
	}
}

type createSessionRequest struct {
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	ReturnURL string `json:"return_url"`
}

type createSessionResponse struct {
	RedirectURL string `json:"redirect_url"`
}

func (g *HTTPGateway) CreateSession(ctx context.Context, orderID string, amount int64, returnURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(createSessionRequest{
		OrderID:   orderID,
		Amount:    amount,
		ReturnURL: returnURL,
	})
	if err != nil {
		return "", fmt.Errorf("payment: failed to marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("payment: failed to build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("payment: gateway rejected session creation with status %d", resp.StatusCode)
	}

	var payload createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("payment: failed to decode session response: %w", err)
	}
	if payload.RedirectURL == "" {
		return "", fmt.Errorf("payment: gateway returned an empty redirect URL")
	}

	return payload.RedirectURL, nil
}
