package shipment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/minhtran-dev/fulfillment-service/internal/courier"
)

// TrackResult is the outcome of a tracking lookup. A code the courier has
// not indexed yet comes back as Found=false, not as an error: the caller is
// expected to retry after a delay.
type TrackResult struct {
	Found        bool   `json:"found"`
	TrackingCode string `json:"tracking_code"`
	Status       string `json:"status,omitempty"`
}

// Tracker is a read-only lookup of courier shipment status.
type Tracker struct {
	courier courier.Client
}

func NewTracker(courierClient courier.Client) *Tracker {
	return &Tracker{courier: courierClient}
}

func (t *Tracker) Track(ctx context.Context, trackingCode string) (TrackResult, error) {
	sh, err := t.courier.GetShipment(ctx, trackingCode)
	if err != nil {
		if errors.Is(err, courier.ErrShipmentNotFound) {
			log.Debug().Str("tracking_code", trackingCode).Msg("tracker: shipment not indexed by courier yet")
			return TrackResult{Found: false, TrackingCode: trackingCode}, nil
		}
		return TrackResult{}, fmt.Errorf("tracker: failed to look up shipment: %w", err)
	}

	return TrackResult{
		Found:        true,
		TrackingCode: sh.TrackingCode,
		Status:       sh.Status,
	}, nil
}
