package shipping_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/minhtran-dev/fulfillment-service/internal/shipping"
)

func staticResolver(regionID string, known bool) shipping.RegionResolver {
	return func(localityID string) (string, bool) {
		return regionID, known
	}
}

func TestHaversineKm(t *testing.T) {
	hanoi := shipping.Point{Lat: 21.0278, Lon: 105.8342}
	saigon := shipping.Point{Lat: 10.8231, Lon: 106.6297}

	t.Run("symmetry", func(t *testing.T) {
		assert.Equal(t, shipping.HaversineKm(hanoi, saigon), shipping.HaversineKm(saigon, hanoi))
	})

	t.Run("identity", func(t *testing.T) {
		assert.Equal(t, 0.0, shipping.HaversineKm(hanoi, hanoi))
	})

	t.Run("known_distance", func(t *testing.T) {
		d := shipping.HaversineKm(hanoi, saigon)
		assert.InDelta(t, 1137, d, 10)
	})
}

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		wantFee    int64
		wantETA    string
	}{
		{name: "exactly_5km_is_tier_1", distanceKm: 5.0, wantFee: 15000, wantETA: "1 day"},
		{name: "just_over_5km_is_tier_2", distanceKm: 5.1, wantFee: 25000, wantETA: "1-2 days"},
		{name: "exactly_15km_is_tier_2", distanceKm: 15.0, wantFee: 25000, wantETA: "1-2 days"},
		{name: "exactly_50km_is_tier_3", distanceKm: 50.0, wantFee: 35000, wantETA: "2-3 days"},
		{name: "just_over_50km_is_tier_4", distanceKm: 50.1, wantFee: 50000, wantETA: "3-5 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, eta := shipping.TierFor(tt.distanceKm)
			assert.Equal(t, tt.wantFee, fee)
			assert.Equal(t, tt.wantETA, eta)
		})
	}
}

func TestEstimate(t *testing.T) {
	// 0.0703 degrees of longitude west of the Hà Nội centroid is 7.3 km.
	origin := shipping.Point{Lat: 21.0278, Lon: 105.7639}

	t.Run("mid_tier_with_surcharge", func(t *testing.T) {
		estimator := shipping.NewEstimator(staticResolver("01", true))

		quote, err := estimator.Estimate(origin, "00037", 2500)

		assert.NoError(t, err)
		want := shipping.FeeQuote{
			Origin:                origin,
			DestinationLocalityID: "00037",
			Destination:           shipping.Point{Lat: 21.0278, Lon: 105.8342},
			DistanceKm:            7.3,
			BaseFee:               25000,
			WeightSurcharge:       6000,
			TotalFee:              31000,
			ETABand:               "1-2 days",
		}
		if diff := cmp.Diff(want, quote); diff != "" {
			t.Errorf("quote mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("zero_weight_uses_reference_weight", func(t *testing.T) {
		estimator := shipping.NewEstimator(staticResolver("01", true))

		quote, err := estimator.Estimate(origin, "00037", 0)

		assert.NoError(t, err)
		assert.Equal(t, int64(2000), quote.WeightSurcharge)
	})

	t.Run("negative_weight_uses_reference_weight", func(t *testing.T) {
		estimator := shipping.NewEstimator(staticResolver("01", true))

		quote, err := estimator.Estimate(origin, "00037", -50)

		assert.NoError(t, err)
		assert.Equal(t, int64(2000), quote.WeightSurcharge)
	})

	t.Run("unresolvable_locality", func(t *testing.T) {
		estimator := shipping.NewEstimator(staticResolver("", false))

		_, err := estimator.Estimate(origin, "99999", 1000)

		assert.True(t, errors.Is(err, shipping.ErrAddressResolution))
	})

	t.Run("region_without_coordinate", func(t *testing.T) {
		estimator := shipping.NewEstimator(staticResolver("unknown-region", true))

		_, err := estimator.Estimate(origin, "00037", 1000)

		assert.True(t, errors.Is(err, shipping.ErrAddressResolution))
	})
}
