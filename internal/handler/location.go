package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/minhtran-dev/fulfillment-service/internal/location"
)

// LocationHandler serves the address hierarchy for address entry screens.
type LocationHandler struct {
	directory *location.Directory
}

func NewLocationHandler(directory *location.Directory) *LocationHandler {
	return &LocationHandler{directory: directory}
}

func (h *LocationHandler) RegisterRoutes(router chi.Router) {
	router.Get("/locations", h.handleListChildren)
}

type locationListResponse struct {
	Data []location.Node `json:"data"`
}

func (h *LocationHandler) handleListChildren(w http.ResponseWriter, r *http.Request) {
	parentID := r.URL.Query().Get("parent_id")

	nodes, err := h.directory.ListChildren(r.Context(), parentID)
	if err != nil {
		log.Error().Err(err).Str("parent_id", parentID).Msg("Failed to list locations")
		respondWithError(w, http.StatusBadGateway, "Location reference data is unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, locationListResponse{Data: nodes})
}
