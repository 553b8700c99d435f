package shipping

import (
	"errors"
	"fmt"
	"math"
)

// ErrAddressResolution means the destination could not be mapped to a
// coordinate. The caller must re-prompt address selection; there is no
// internal retry.
var ErrAddressResolution = errors.New("shipping: destination address could not be resolved")

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FeeQuote is a derived value recomputed on demand; it is never cached
// across address or weight changes. Orders keep their own frozen copy.
type FeeQuote struct {
	Origin                Point   `json:"origin"`
	DestinationLocalityID string  `json:"destination_locality_id"`
	Destination           Point   `json:"destination"`
	DistanceKm            float64 `json:"distance_km"`
	BaseFee               int64   `json:"base_fee"`
	WeightSurcharge       int64   `json:"weight_surcharge"`
	TotalFee              int64   `json:"total_fee"`
	ETABand               string  `json:"eta_band"`
}

const (
	earthRadiusKm = 6371

	defaultWeightGrams = 1000
	surchargePerKg     = 2000
)

// RegionResolver maps a locality to its region. The directory's bundled
// dataset provides this; only region-level coordinates exist, so a region
// centroid is the accepted approximation for any locality inside it.
type RegionResolver func(localityID string) (regionID string, ok bool)

type Estimator struct {
	resolveRegion RegionResolver
}

func NewEstimator(resolveRegion RegionResolver) *Estimator {
	return &Estimator{resolveRegion: resolveRegion}
}

func (e *Estimator) Estimate(origin Point, destinationLocalityID string, weightGrams int) (FeeQuote, error) {
	regionID, ok := e.resolveRegion(destinationLocalityID)
	if !ok {
		return FeeQuote{}, fmt.Errorf("%w: locality %q", ErrAddressResolution, destinationLocalityID)
	}
	dest, ok := regionCentroids[regionID]
	if !ok {
		return FeeQuote{}, fmt.Errorf("%w: no coordinate for region %q", ErrAddressResolution, regionID)
	}

	if weightGrams <= 0 {
		weightGrams = defaultWeightGrams
	}

	dist := HaversineKm(origin, dest)
	baseFee, eta := TierFor(dist)
	surcharge := int64(math.Ceil(float64(weightGrams)/1000)) * surchargePerKg

	return FeeQuote{
		Origin:                origin,
		DestinationLocalityID: destinationLocalityID,
		Destination:           dest,
		DistanceKm:            dist,
		BaseFee:               baseFee,
		WeightSurcharge:       surcharge,
		TotalFee:              baseFee + surcharge,
		ETABand:               eta,
	}, nil
}

// HaversineKm is the great-circle distance between two points, rounded to
// one decimal.
func HaversineKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	d := 2 * earthRadiusKm * math.Asin(math.Sqrt(h))

	return math.Round(d*10) / 10
}

// TierFor maps a distance to its flat fee band and delivery estimate.
// Boundaries are inclusive on the lower tier.
func TierFor(distanceKm float64) (fee int64, etaBand string) {
	switch {
	case distanceKm <= 5:
		return 15000, "1 day"
	case distanceKm <= 15:
		return 25000, "1-2 days"
	case distanceKm <= 50:
		return 35000, "2-3 days"
	default:
		return 50000, "3-5 days"
	}
}

// regionCentroids is the fixed coordinate table keyed by region id,
// matching the directory's bundled regions.
var regionCentroids = map[string]Point{
	"01": {Lat: 21.0278, Lon: 105.8342}, // Hà Nội
	"31": {Lat: 20.8449, Lon: 106.6881}, // Hải Phòng
	"48": {Lat: 16.0544, Lon: 108.2022}, // Đà Nẵng
	"79": {Lat: 10.8231, Lon: 106.6297}, // Hồ Chí Minh
	"92": {Lat: 10.0452, Lon: 105.7469}, // Cần Thơ
	"46": {Lat: 16.4637, Lon: 107.5909}, // Thừa Thiên Huế
	"56": {Lat: 12.2388, Lon: 109.1967}, // Khánh Hòa
	"75": {Lat: 10.9574, Lon: 106.8427}, // Đồng Nai
}
