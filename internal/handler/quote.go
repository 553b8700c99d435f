package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/minhtran-dev/fulfillment-service/internal/shipping"
)

type QuoteRequest struct {
	DestinationLocalityID string `json:"destination_locality_id" validate:"required"`
	WeightGrams           int    `json:"weight_grams"`
}

// QuoteHandler computes shipping fee quotes from the fixed pickup origin.
type QuoteHandler struct {
	estimator *shipping.Estimator
	origin    shipping.Point
	validate  *validator.Validate
}

func NewQuoteHandler(estimator *shipping.Estimator, origin shipping.Point) *QuoteHandler {
	return &QuoteHandler{
		estimator: estimator,
		origin:    origin,
		validate:  validator.New(),
	}
}

func (h *QuoteHandler) RegisterRoutes(router chi.Router) {
	router.Post("/shipping/quotes", h.handleQuote)
}

func (h *QuoteHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var requestPayload QuoteRequest

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

	quote, err := h.estimator.Estimate(h.origin, requestPayload.DestinationLocalityID, requestPayload.WeightGrams)
	if err != nil {
		if errors.Is(err, shipping.ErrAddressResolution) {
			respondWithError(w, http.StatusUnprocessableEntity, "Destination address cannot be resolved, please re-select it")
			return
		}
		log.Error().Err(err).Msg("Failed to estimate shipping fee")
		respondWithError(w, http.StatusInternalServerError, "Failed to estimate shipping fee")
		return
	}

	respondWithJSON(w, http.StatusOK, quote)
}
