package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrShipmentNotFound means the courier does not know the tracking code yet.
// Freshly created shipments are briefly unindexed, so this is an expected
// condition, not a fault.
var ErrShipmentNotFound = errors.New("courier: shipment not found")

// Pickup is the fixed pickup-location profile sent with every shipment.
type Pickup struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Line  string  `json:"line"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

type Dropoff struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line          string `json:"line"`
	RegionID      string `json:"region_id"`
	SubregionID   string `json:"subregion_id"`
	LocalityID    string `json:"locality_id"`
}

type LineItem struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	WeightGrams int    `json:"weight_grams"`
	Value       int64  `json:"value"`
}

type CreateShipmentRequest struct {
	Pickup    Pickup     `json:"pickup"`
	Dropoff   Dropoff    `json:"dropoff"`
	Items     []LineItem `json:"items"`
	CODAmount int64      `json:"cod_amount"`
}

type Shipment struct {
	TrackingCode string `json:"tracking_code"`
	Status       string `json:"status"`
}

// Client is the outbound courier integration.
type Client interface {
	CreateShipment(ctx context.Context, req CreateShipmentRequest) (Shipment, error)
	GetShipment(ctx context.Context, trackingCode string) (Shipment, error)
}

type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	timeout time.Duration
}

func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{},
		timeout: timeout,
	}
}

func (c *HTTPClient) CreateShipment(ctx context.Context, shipmentReq CreateShipmentRequest) (Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(shipmentReq)
	if err != nil {
		return Shipment{}, fmt.Errorf("courier: failed to marshal shipment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/shipments", bytes.NewReader(body))
	if err != nil {
		return Shipment{}, fmt.Errorf("courier: failed to build shipment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return Shipment{}, fmt.Errorf("courier: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Shipment{}, fmt.Errorf("courier: shipment creation rejected with status %d", resp.StatusCode)
	}

	var shipment Shipment
	if err := json.NewDecoder(resp.Body).Decode(&shipment); err != nil {
		return Shipment{}, fmt.Errorf("courier: failed to decode shipment response: %w", err)
	}
	if shipment.TrackingCode == "" {
		return Shipment{}, fmt.Errorf("courier: response is missing a tracking code")
	}
	if shipment.Status == "" {
		shipment.Status = "CREATED"
	}

	return shipment, nil
}

func (c *HTTPClient) GetShipment(ctx context.Context, trackingCode string) (Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/shipments/"+url.PathEscape(trackingCode), nil)
	if err != nil {
		return Shipment{}, fmt.Errorf("courier: failed to build tracking request: %w", err)
	}
	req.Header.Set("Token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return Shipment{}, fmt.Errorf("courier: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Shipment{}, ErrShipmentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Shipment{}, fmt.Errorf("courier: tracking lookup failed with status %d", resp.StatusCode)
	}

	var shipment Shipment
	if err := json.NewDecoder(resp.Body).Decode(&shipment); err != nil {
		return Shipment{}, fmt.Errorf("courier: failed to decode tracking response: %w", err)
	}

	return shipment, nil
}
