package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/minhtran-dev/fulfillment-service/internal/shipment"
)

type ShipmentHandler struct {
	tracker *shipment.Tracker
}

func NewShipmentHandler(tracker *shipment.Tracker) *ShipmentHandler {
	return &ShipmentHandler{tracker: tracker}
}

func (h *ShipmentHandler) RegisterRoutes(router chi.Router) {
	router.Get("/shipments/{trackingCode}", h.handleTrack)
}

func (h *ShipmentHandler) handleTrack(w http.ResponseWriter, r *http.Request) {
	trackingCode := chi.URLParam(r, "trackingCode")
	if trackingCode == "" {
		respondWithError(w, http.StatusBadRequest, "Tracking code is required")
		return
	}

	result, err := h.tracker.Track(r.Context(), trackingCode)
	if err != nil {
		log.Error().Err(err).Str("tracking_code", trackingCode).Msg("Failed to track shipment")
		respondWithError(w, http.StatusBadGateway, "Courier tracking is unavailable, please try again")
		return
	}

	// Found=false is a normal answer for a freshly created shipment; the UI
	// retries after a delay instead of treating it as a failure.
	respondWithJSON(w, http.StatusOK, result)
}
