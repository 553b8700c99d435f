package courier_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhtran-dev/fulfillment-service/internal/courier"
)

func testRequest() courier.CreateShipmentRequest {
	return courier.CreateShipmentRequest{
		Pickup: courier.Pickup{Name: "Central Kitchen", Phone: "0240000000", Lat: 21.0278, Lon: 105.8342},
		Dropoff: courier.Dropoff{
			RecipientName: "Nguyễn Văn A",
			Phone:         "0900000000",
			Line:          "12 Hàng Bạc",
			RegionID:      "01",
			SubregionID:   "002",
			LocalityID:    "00037",
		},
		Items:     []courier.LineItem{{Name: "Phở bò", Quantity: 2, WeightGrams: 1200, Value: 130000}},
		CODAmount: 0,
	}
}

func TestHTTPClient_CreateShipment(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/shipments", r.URL.Path)
			assert.Equal(t, "secret-token", r.Header.Get("Token"))

			var req courier.CreateShipmentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "00037", req.Dropoff.LocalityID)
			assert.Equal(t, int64(0), req.CODAmount)

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"tracking_code": "TRK-001", "status": "CREATED"}`))
		}))
		defer server.Close()

		client := courier.NewHTTPClient(server.URL, "secret-token", 2*time.Second)

		shipment, err := client.CreateShipment(context.Background(), testRequest())

		require.NoError(t, err)
		assert.Equal(t, courier.Shipment{TrackingCode: "TRK-001", Status: "CREATED"}, shipment)
	})

	t.Run("status_defaults_when_omitted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"tracking_code": "TRK-002"}`))
		}))
		defer server.Close()

		client := courier.NewHTTPClient(server.URL, "", 2*time.Second)

		shipment, err := client.CreateShipment(context.Background(), testRequest())

		require.NoError(t, err)
		assert.Equal(t, "CREATED", shipment.Status)
	})

	t.Run("missing_tracking_code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": "CREATED"}`))
		}))
		defer server.Close()

		client := courier.NewHTTPClient(server.URL, "", 2*time.Second)

		_, err := client.CreateShipment(context.Background(), testRequest())

		assert.Error(t, err)
	})

	t.Run("rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := courier.NewHTTPClient(server.URL, "", 2*time.Second)

		_, err := client.CreateShipment(context.Background(), testRequest())

		assert.Error(t, err)
	})
}

func TestHTTPClient_GetShipment(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/shipments/TRK-001", r.URL.Path)
			_, _ = w.Write([]byte(`{"tracking_code": "TRK-001", "status": "IN_TRANSIT"}`))
		}))
		defer server.Close()

		client := courier.NewHTTPClient(server.URL, "", 2*time.Second)

		shipment, err := client.GetShipment(context.Background(), "TRK-001")

		require.NoError(t, err)
		assert.Equal(t, "IN_TRANSIT", shipment.Status)
	})

	t.Run("not_found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := courier.NewHTTPClient(server.URL, "", 2*time.Second)

		_, err := client.GetShipment(context.Background(), "TRK-404")

		assert.True(t, errors.Is(err, courier.ErrShipmentNotFound))
	})
}
