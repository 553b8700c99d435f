package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/minhtran-dev/fulfillment-service/internal/fulfillment"
	"github.com/minhtran-dev/fulfillment-service/internal/payment"
	"github.com/minhtran-dev/fulfillment-service/internal/shipping"
)

type OrderItemRequest struct {
	ItemID      string `json:"item_id" validate:"required"`
	ItemType    string `json:"item_type" validate:"required,oneof=DISH COMBO"`
	Name        string `json:"name" validate:"required"`
	UnitPrice   int64  `json:"unit_price" validate:"min=0"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	WeightGrams int    `json:"weight_grams" validate:"min=0"`
}

type CreateOrderRequest struct {
	CustomerID    string             `json:"customer_id" validate:"required,uuid4"`
	CustomerName  string             `json:"customer_name" validate:"required"`
	CustomerPhone string             `json:"customer_phone" validate:"required,min=8"`
	AddressID     string             `json:"address_id" validate:"required,uuid4"`
	PaymentMethod string             `json:"payment_method" validate:"required"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	FeeQuote      shipping.FeeQuote  `json:"fee_quote" validate:"required"`
}

type ResolveShipmentRequest struct {
	TrackingCode string `json:"tracking_code" validate:"required"`
}

type InitiatePaymentResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// CallbackResponse wraps the final order state for the gateway's return
// channel. Message distinguishes the partial-failure case: the charge went
// through even though no shipment exists yet, and the wording must never
// invite a repeat purchase.
type CallbackResponse struct {
	Order   *fulfillment.Order `json:"order"`
	Message string             `json:"message"`
}

type OrderHandler struct {
	service  fulfillment.Service
	validate *validator.Validate
}

func NewOrderHandler(service fulfillment.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders/{id}", h.handleGetOrder)
	router.Post("/orders/{id}/payment", h.handleInitiatePayment)
	router.Post("/orders/{id}/cancel", h.handleCancel)
	router.Post("/orders/{id}/shipment/resolve", h.handleResolveShipment)
	router.Get("/payments/callback", h.handlePaymentCallback)
	router.Post("/payments/callback", h.handlePaymentCallback)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	customerID, _ := uuid.FromString(requestPayload.CustomerID)
	addressID, _ := uuid.FromString(requestPayload.AddressID)

	items := make([]fulfillment.OrderItem, 0, len(requestPayload.Items))
	for _, it := range requestPayload.Items {
		items = append(items, fulfillment.OrderItem{
			ItemID:      it.ItemID,
			ItemType:    fulfillment.ItemType(it.ItemType),
			Name:        it.Name,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			WeightGrams: it.WeightGrams,
		})
	}

	ord, err := h.service.CreateOrder(r.Context(), fulfillment.CreateOrderInput{
		CustomerID:    customerID,
		CustomerName:  requestPayload.CustomerName,
		CustomerPhone: requestPayload.CustomerPhone,
		AddressID:     addressID,
		Items:         items,
		FeeQuote:      requestPayload.FeeQuote,
		PaymentMethod: requestPayload.PaymentMethod,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create order via service")

		clientMessage := "Failed to create order"
		switch {
		case errors.Is(err, fulfillment.ErrAddressResolution):
			clientMessage = "Delivery address is not usable, please re-select it"
		case errors.Is(err, fulfillment.ErrFeeQuoteStale):
			clientMessage = "Shipping quote is out of date, please request a new one"
		case errors.Is(err, fulfillment.ErrEmptyOrder):
			clientMessage = "Order must contain at least one item"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, ord)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	ord, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		clientMessage := "Failed to get order"
		if errors.Is(err, fulfillment.ErrOrderNotFound) {
			clientMessage = "Order not found"
		} else {
			log.Error().Err(err).Msg("Failed to get order via service")
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, ord)
}

func (h *OrderHandler) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	redirectURL, err := h.service.InitiatePayment(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initiate payment via service")

		clientMessage := "Failed to initiate payment"
		switch {
		case errors.Is(err, fulfillment.ErrOrderNotFound):
			clientMessage = "Order not found"
		case errors.Is(err, fulfillment.ErrPaymentInitiation):
			clientMessage = "Payment provider is unavailable, please try again"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, InitiatePaymentResponse{RedirectURL: redirectURL})
}

func (h *OrderHandler) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid callback payload")
		return
	}

	result, err := payment.ParseCallback(r.Form)
	if err != nil {
		log.Warn().Err(err).Msg("Malformed payment callback")
		respondWithError(w, http.StatusBadRequest, "Malformed payment callback")
		return
	}

	ord, err := h.service.HandlePaymentCallback(r.Context(), result)
	if err != nil {
		log.Error().Err(err).Str("order_id", result.OrderID).Msg("Failed to process payment callback")

		clientMessage := "Failed to process payment callback"
		switch {
		case errors.Is(err, fulfillment.ErrOrderNotFound):
			clientMessage = "Order not found"
		case errors.Is(err, fulfillment.ErrOrderNotPending):
			clientMessage = "Order is not awaiting payment"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, CallbackResponse{
		Order:   ord,
		Message: callbackMessage(ord.Status),
	})
}

func callbackMessage(status fulfillment.Status) string {
	switch status {
	case fulfillment.StatusShipmentCreated:
		return "Payment confirmed and shipment created"
	case fulfillment.StatusShipmentFailed:
		return "Payment succeeded; shipment could not be created and is pending manual resolution. You have not been charged twice and do not need to order again"
	case fulfillment.StatusPaymentFailed:
		return "Payment was declined by the provider"
	default:
		return "Payment result recorded"
	}
}

func (h *OrderHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	ord, err := h.service.Cancel(r.Context(), orderID)
	if err != nil {
		log.Warn().Err(err).Stringer("order_id", orderID).Msg("Failed to cancel order via service")

		clientMessage := "Failed to cancel order"
		switch {
		case errors.Is(err, fulfillment.ErrOrderNotFound):
			clientMessage = "Order not found"
		case errors.Is(err, fulfillment.ErrCancelNotAllowed):
			clientMessage = "Order can no longer be cancelled"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, ord)
}

func (h *OrderHandler) handleResolveShipment(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload ResolveShipmentRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	ord, err := h.service.ResolveShipment(r.Context(), orderID, requestPayload.TrackingCode)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("Failed to resolve shipment via service")

		clientMessage := "Failed to resolve shipment"
		switch {
		case errors.Is(err, fulfillment.ErrOrderNotFound):
			clientMessage = "Order not found"
		case errors.Is(err, fulfillment.ErrShipmentNotFailed):
			clientMessage = "Order has no failed shipment to resolve"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, ord)
}
