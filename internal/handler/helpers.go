package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/minhtran-dev/fulfillment-service/internal/address"
	"github.com/minhtran-dev/fulfillment-service/internal/fulfillment"
	"github.com/minhtran-dev/fulfillment-service/internal/shipping"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Interface("payload", payload).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondWithValidationErrors(w http.ResponseWriter, err error) bool {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
		respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		return false
	}
	respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Error:   "Validation failed",
		Details: formatValidationErrors(validationErrors),
	})
	return true
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = fmt.Sprintf("failed on the '%s' rule", fieldErr.Tag())
	}
	return details
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, address.ErrNotFound),
		errors.Is(err, fulfillment.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, fulfillment.ErrEmptyOrder),
		errors.Is(err, fulfillment.ErrFeeQuoteStale),
		errors.Is(err, fulfillment.ErrAddressResolution),
		errors.Is(err, shipping.ErrAddressResolution):
		return http.StatusUnprocessableEntity
	case errors.Is(err, fulfillment.ErrCancelNotAllowed),
		errors.Is(err, fulfillment.ErrOrderNotPending),
		errors.Is(err, fulfillment.ErrShipmentNotFailed),
		errors.Is(err, address.ErrDefaultConflict):
		return http.StatusConflict
	case errors.Is(err, fulfillment.ErrPaymentInitiation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
