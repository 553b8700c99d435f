package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/minhtran-dev/fulfillment-service/internal/address"
)

type CreateAddressRequest struct {
	CustomerID    string `json:"customer_id" validate:"required,uuid4"`
	RecipientName string `json:"recipient_name" validate:"required,min=2"`
	Phone         string `json:"phone" validate:"required,min=8"`
	Line          string `json:"line" validate:"required"`
	RegionID      string `json:"region_id" validate:"required"`
	SubregionID   string `json:"subregion_id" validate:"required"`
	LocalityID    string `json:"locality_id" validate:"required"`
	BranchID      string `json:"branch_id"`
	IsDefault     bool   `json:"is_default"`
}

type UpdateAddressRequest struct {
	CustomerID    string `json:"customer_id" validate:"required,uuid4"`
	RecipientName string `json:"recipient_name" validate:"required,min=2"`
	Phone         string `json:"phone" validate:"required,min=8"`
	Line          string `json:"line" validate:"required"`
	RegionID      string `json:"region_id" validate:"required"`
	SubregionID   string `json:"subregion_id" validate:"required"`
	LocalityID    string `json:"locality_id" validate:"required"`
	BranchID      string `json:"branch_id"`
}

type SetDefaultAddressRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid4"`
}

type AddressHandler struct {
	service  address.Service
	validate *validator.Validate
}

func NewAddressHandler(service address.Service) *AddressHandler {
	return &AddressHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *AddressHandler) RegisterRoutes(router chi.Router) {
	router.Get("/addresses", h.handleList)
	router.Post("/addresses", h.handleCreate)
	router.Put("/addresses/{id}", h.handleUpdate)
	router.Post("/addresses/{id}/default", h.handleSetDefault)
	router.Delete("/addresses/{id}", h.handleDeactivate)
}

func (h *AddressHandler) handleList(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.FromString(r.URL.Query().Get("customer_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid customer_id parameter")
		return
	}

	views, err := h.service.List(r.Context(), customerID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list addresses via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list addresses")
		return
	}

	respondWithJSON(w, http.StatusOK, views)
}

func (h *AddressHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateAddressRequest

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
	addr := address.Address{
		CustomerID:    customerID,
		RecipientName: requestPayload.RecipientName,
		Phone:         requestPayload.Phone,
		Line:          requestPayload.Line,
		RegionID:      requestPayload.RegionID,
		SubregionID:   requestPayload.SubregionID,
		LocalityID:    requestPayload.LocalityID,
		BranchID:      requestPayload.BranchID,
		IsDefault:     requestPayload.IsDefault,
	}

	created, err := h.service.Create(r.Context(), &addr)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create address via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create address")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *AddressHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateAddressRequest

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
	addr := address.Address{
		ID:            id,
		CustomerID:    customerID,
		RecipientName: requestPayload.RecipientName,
		Phone:         requestPayload.Phone,
		Line:          requestPayload.Line,
		RegionID:      requestPayload.RegionID,
		SubregionID:   requestPayload.SubregionID,
		LocalityID:    requestPayload.LocalityID,
		BranchID:      requestPayload.BranchID,
	}

	if err := h.service.Update(r.Context(), &addr); err != nil {
		log.Error().Err(err).Msg("Failed to update address via service")

		clientMessage := "Failed to update address"
		if errors.Is(err, address.ErrNotFound) {
			clientMessage = "Address not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AddressHandler) handleSetDefault(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload SetDefaultAddressRequest

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

	if err := h.service.SetDefault(r.Context(), customerID, id); err != nil {
		log.Error().Err(err).Msg("Failed to set default address via service")

		clientMessage := "Failed to set default address"
		if errors.Is(err, address.ErrNotFound) {
			clientMessage = "Address not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AddressHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	customerID, err := uuid.FromString(r.URL.Query().Get("customer_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid customer_id parameter")
		return
	}

	if err := h.service.Deactivate(r.Context(), customerID, id); err != nil {
		log.Error().Err(err).Msg("Failed to deactivate address via service")

		clientMessage := "Failed to deactivate address"
		if errors.Is(err, address.ErrNotFound) {
			clientMessage = "Address not found"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
