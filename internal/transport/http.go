package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minhtran-dev/fulfillment-service/internal/address"
	"github.com/minhtran-dev/fulfillment-service/internal/fulfillment"
	"github.com/minhtran-dev/fulfillment-service/internal/handler"
	"github.com/minhtran-dev/fulfillment-service/internal/location"
	"github.com/minhtran-dev/fulfillment-service/internal/shipment"
	"github.com/minhtran-dev/fulfillment-service/internal/shipping"
)

type Deps struct {
	Directory   *location.Directory
	Addresses   address.Service
	Estimator   *shipping.Estimator
	Fulfillment fulfillment.Service
	Tracker     *shipment.Tracker
	Origin      shipping.Point
}

func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	handler.NewLocationHandler(deps.Directory).RegisterRoutes(r)
	handler.NewAddressHandler(deps.Addresses).RegisterRoutes(r)
	handler.NewQuoteHandler(deps.Estimator, deps.Origin).RegisterRoutes(r)
	handler.NewOrderHandler(deps.Fulfillment).RegisterRoutes(r)
	handler.NewShipmentHandler(deps.Tracker).RegisterRoutes(r)

	return r
}
