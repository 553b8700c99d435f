package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhtran-dev/fulfillment-service/internal/fulfillment"
	"github.com/minhtran-dev/fulfillment-service/internal/payment"
)

type mockFulfillmentService struct {
	CreateOrderFunc           func(ctx context.Context, input fulfillment.CreateOrderInput) (*fulfillment.Order, error)
	InitiatePaymentFunc       func(ctx context.Context, orderID uuid.UUID) (string, error)
	HandlePaymentCallbackFunc func(ctx context.Context, result payment.Result) (*fulfillment.Order, error)
	CancelFunc                func(ctx context.Context, orderID uuid.UUID) (*fulfillment.Order, error)
	GetOrderFunc              func(ctx context.Context, orderID uuid.UUID) (*fulfillment.Order, error)
	ResolveShipmentFunc       func(ctx context.Context, orderID uuid.UUID, trackingCode string) (*fulfillment.Order, error)
}

func (m *mockFulfillmentService) CreateOrder(ctx context.Context, input fulfillment.CreateOrderInput) (*fulfillment.Order, error) {
	return m.CreateOrderFunc(ctx, input)
}

func (m *mockFulfillmentService) InitiatePayment(ctx context.Context, orderID uuid.UUID) (string, error) {
	return m.InitiatePaymentFunc(ctx, orderID)
}

func (m *mockFulfillmentService) HandlePaymentCallback(ctx context.Context, result payment.Result) (*fulfillment.Order, error) {
	return m.HandlePaymentCallbackFunc(ctx, result)
}

func (m *mockFulfillmentService) Cancel(ctx context.Context, orderID uuid.UUID) (*fulfillment.Order, error) {
	return m.CancelFunc(ctx, orderID)
}

func (m *mockFulfillmentService) GetOrder(ctx context.Context, orderID uuid.UUID) (*fulfillment.Order, error) {
	return m.GetOrderFunc(ctx, orderID)
}

func (m *mockFulfillmentService) ResolveShipment(ctx context.Context, orderID uuid.UUID, trackingCode string) (*fulfillment.Order, error) {
	return m.ResolveShipmentFunc(ctx, orderID, trackingCode)
}

func newOrderRouter(svc fulfillment.Service) chi.Router {
	r := chi.NewRouter()
	NewOrderHandler(svc).RegisterRoutes(r)
	return r
}

const createOrderBody = `{
	"customer_id": "123e4567-e89b-42d3-a456-426614174000",
	"customer_name": "Nguyễn Văn A",
	"customer_phone": "0900000000",
	"address_id": "550e8400-e29b-41d4-a716-446655440000",
	"payment_method": "gateway",
	"items": [
		{"item_id": "dish-7", "item_type": "DISH", "name": "Phở bò", "unit_price": 65000, "quantity": 2, "weight_grams": 600}
	],
	"fee_quote": {
		"origin": {"lat": 21.0278, "lon": 105.8342},
		"destination_locality_id": "00037",
		"destination": {"lat": 21.0301, "lon": 105.8527},
		"distance_km": 7.3,
		"base_fee": 25000,
		"weight_surcharge": 6000,
		"total_fee": 31000,
		"eta_band": "1-2 days"
	}
}`

func TestOrderHandler_CreateOrder(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		createOrder    func(ctx context.Context, input fulfillment.CreateOrderInput) (*fulfillment.Order, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: createOrderBody,
			createOrder: func(ctx context.Context, input fulfillment.CreateOrderInput) (*fulfillment.Order, error) {
				return &fulfillment.Order{
					ID:          uuid.Must(uuid.NewV4()),
					CustomerID:  input.CustomerID,
					Status:      fulfillment.StatusCreated,
					TotalAmount: 161000,
					Items:       input.Items,
				}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid_json",
			body:           `{invalid json}`,
			createOrder:    nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown_field",
			body:           `{"customer_id": "123e4567-e89b-42d3-a456-426614174000", "surprise": true}`,
			createOrder:    nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing_items",
			body:           `{"customer_id": "123e4567-e89b-42d3-a456-426614174000", "customer_name": "A", "customer_phone": "0900000000", "address_id": "550e8400-e29b-41d4-a716-446655440000", "payment_method": "gateway", "items": [], "fee_quote": {"total_fee": 1}}`,
			createOrder:    nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "stale_fee_quote",
			body: createOrderBody,
			createOrder: func(ctx context.Context, input fulfillment.CreateOrderInput) (*fulfillment.Order, error) {
				return nil, fulfillment.ErrFeeQuoteStale
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "unusable_address",
			body: createOrderBody,
			createOrder: func(ctx context.Context, input fulfillment.CreateOrderInput) (*fulfillment.Order, error) {
				return nil, fulfillment.ErrAddressResolution
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newOrderRouter(&mockFulfillmentService{CreateOrderFunc: tt.createOrder})

			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestOrderHandler_InitiatePayment(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	t.Run("success", func(t *testing.T) {
		router := newOrderRouter(&mockFulfillmentService{
			InitiatePaymentFunc: func(ctx context.Context, gotID uuid.UUID) (string, error) {
				assert.Equal(t, orderID, gotID)
				return "https://gateway.example/pay/" + gotID.String(), nil
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/payment", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp InitiatePaymentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "https://gateway.example/pay/"+orderID.String(), resp.RedirectURL)
	})

	t.Run("gateway_unavailable", func(t *testing.T) {
		router := newOrderRouter(&mockFulfillmentService{
			InitiatePaymentFunc: func(ctx context.Context, gotID uuid.UUID) (string, error) {
				return "", fulfillment.ErrPaymentInitiation
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/payment", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("invalid_id", func(t *testing.T) {
		router := newOrderRouter(&mockFulfillmentService{})

		req := httptest.NewRequest(http.MethodPost, "/orders/not-a-uuid/payment", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_PaymentCallback(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	t.Run("shipment_created", func(t *testing.T) {
		router := newOrderRouter(&mockFulfillmentService{
			HandlePaymentCallbackFunc: func(ctx context.Context, result payment.Result) (*fulfillment.Order, error) {
				assert.Equal(t, orderID.String(), result.OrderID)
				assert.True(t, result.Succeeded())
				return &fulfillment.Order{ID: orderID, Status: fulfillment.StatusShipmentCreated}, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/payments/callback?order_id="+orderID.String()+"&result_code=00", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp CallbackResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Payment confirmed and shipment created", resp.Message)
	})

	t.Run("shipment_failed_warns_against_reordering", func(t *testing.T) {
		router := newOrderRouter(&mockFulfillmentService{
			HandlePaymentCallbackFunc: func(ctx context.Context, result payment.Result) (*fulfillment.Order, error) {
				return &fulfillment.Order{ID: orderID, Status: fulfillment.StatusShipmentFailed}, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/payments/callback?order_id="+orderID.String()+"&result_code=00", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp CallbackResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.Message, "do not need to order again")
	})

	t.Run("missing_order_id", func(t *testing.T) {
		router := newOrderRouter(&mockFulfillmentService{})

		req := httptest.NewRequest(http.MethodGet, "/payments/callback?result_code=00", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("order_not_pending", func(t *testing.T) {
		router := newOrderRouter(&mockFulfillmentService{
			HandlePaymentCallbackFunc: func(ctx context.Context, result payment.Result) (*fulfillment.Order, error) {
				return nil, fulfillment.ErrOrderNotPending
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/payments/callback?order_id="+orderID.String()+"&result_code=00", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestOrderHandler_Cancel(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name           string
		cancel         func(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error)
		expectedStatus int
	}{
		{
			name: "success",
			cancel: func(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
				return &fulfillment.Order{ID: id, Status: fulfillment.StatusCancelled}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not_allowed",
			cancel: func(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
				return nil, fulfillment.ErrCancelNotAllowed
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "not_found",
			cancel: func(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
				return nil, fulfillment.ErrOrderNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newOrderRouter(&mockFulfillmentService{CancelFunc: tt.cancel})

			req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/cancel", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestOrderHandler_ResolveShipment(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	t.Run("success", func(t *testing.T) {
		router := newOrderRouter(&mockFulfillmentService{
			ResolveShipmentFunc: func(ctx context.Context, gotID uuid.UUID, trackingCode string) (*fulfillment.Order, error) {
				assert.Equal(t, "TRK-MANUAL-7", trackingCode)
				return &fulfillment.Order{ID: gotID, Status: fulfillment.StatusShipmentCreated}, nil
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/shipment/resolve",
			bytes.NewBufferString(`{"tracking_code": "TRK-MANUAL-7"}`))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing_tracking_code", func(t *testing.T) {
		router := newOrderRouter(&mockFulfillmentService{})

		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/shipment/resolve",
			bytes.NewBufferString(`{}`))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no_failed_shipment", func(t *testing.T) {
		router := newOrderRouter(&mockFulfillmentService{
			ResolveShipmentFunc: func(ctx context.Context, gotID uuid.UUID, trackingCode string) (*fulfillment.Order, error) {
				return nil, fulfillment.ErrShipmentNotFailed
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/shipment/resolve",
			bytes.NewBufferString(`{"tracking_code": "TRK-MANUAL-7"}`))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
