package location

import (
	"context"

	"github.com/rs/zerolog/log"
)

// FallbackSource decorates a primary Source with the bundled static dataset.
// The reference service is known to answer with errors, timeouts or a
// near-empty list while it is mid-failure; in all of those cases the static
// data scoped to the same parent is substituted so address entry can always
// complete. This is deliberate degradation, not error hiding.
type FallbackSource struct {
	primary Source
}

func NewFallbackSource(primary Source) *FallbackSource {
	return &FallbackSource{primary: primary}
}

func (f *FallbackSource) ListChildren(ctx context.Context, parentID string) ([]Node, error) {
	static := StaticChildren(parentID)

	nodes, err := f.primary.ListChildren(ctx, parentID)
	if err != nil {
		if len(static) > 0 {
			log.Warn().Err(err).Str("parent_id", parentID).Msg("location: reference source failed, serving static dataset")
			return static, nil
		}
		return nil, err
	}

	// Cardinality <= 1 is the degenerate answer the source emits while it
	// is failing over; trust the static set when it knows more.
	if len(nodes) <= 1 && len(static) > len(nodes) {
		log.Warn().Int("got", len(nodes)).Str("parent_id", parentID).Msg("location: degenerate reference result, serving static dataset")
		return static, nil
	}

	return nodes, nil
}

// StaticChildren returns the bundled dataset entries under parentID, or nil
// when the parent is unknown to the bundle.
func StaticChildren(parentID string) []Node {
	if parentID == "" {
		out := make([]Node, len(staticRegions))
		copy(out, staticRegions)
		return out
	}
	children := staticChildren[parentID]
	if len(children) == 0 {
		return nil
	}
	out := make([]Node, len(children))
	copy(out, children)
	return out
}

// RegionOfLocality resolves a locality from the bundled dataset back to its
// region. Used by the fee estimator, which only has region-level coordinates.
func RegionOfLocality(localityID string) (string, bool) {
	regionID, ok := localityRegion[localityID]
	return regionID, ok
}

// childLevel infers the level of nodes fetched under parentID. The reference
// service only returns id/name pairs, so the level comes from where the
// parent sits in the bundled tree; unknown parents are assumed to be
// subregions since that is the only level the bundle can be blind to.
func childLevel(parentID string) Level {
	if parentID == "" {
		return LevelRegion
	}
	if _, ok := staticChildren[parentID]; ok {
		for _, r := range staticRegions {
			if r.ID == parentID {
				return LevelSubregion
			}
		}
		return LevelLocality
	}
	return LevelLocality
}

var staticRegions = []Node{
	{ID: "01", Name: "Hà Nội", Level: LevelRegion},
	{ID: "31", Name: "Hải Phòng", Level: LevelRegion},
	{ID: "48", Name: "Đà Nẵng", Level: LevelRegion},
	{ID: "79", Name: "Hồ Chí Minh", Level: LevelRegion},
	{ID: "92", Name: "Cần Thơ", Level: LevelRegion},
	{ID: "46", Name: "Thừa Thiên Huế", Level: LevelRegion},
	{ID: "56", Name: "Khánh Hòa", Level: LevelRegion},
	{ID: "75", Name: "Đồng Nai", Level: LevelRegion},
}

var staticChildren = map[string][]Node{
	"01": {
		{ID: "001", Name: "Ba Đình", Level: LevelSubregion, ParentID: "01"},
		{ID: "002", Name: "Hoàn Kiếm", Level: LevelSubregion, ParentID: "01"},
		{ID: "005", Name: "Cầu Giấy", Level: LevelSubregion, ParentID: "01"},
	},
	"79": {
		{ID: "760", Name: "Quận 1", Level: LevelSubregion, ParentID: "79"},
		{ID: "770", Name: "Quận 3", Level: LevelSubregion, ParentID: "79"},
		{ID: "778", Name: "Quận 10", Level: LevelSubregion, ParentID: "79"},
	},
	"48": {
		{ID: "490", Name: "Hải Châu", Level: LevelSubregion, ParentID: "48"},
		{ID: "491", Name: "Thanh Khê", Level: LevelSubregion, ParentID: "48"},
	},
	"001": {
		{ID: "00001", Name: "Phúc Xá", Level: LevelLocality, ParentID: "001"},
		{ID: "00004", Name: "Trúc Bạch", Level: LevelLocality, ParentID: "001"},
		{ID: "00006", Name: "Vĩnh Phúc", Level: LevelLocality, ParentID: "001"},
	},
	"002": {
		{ID: "00037", Name: "Hàng Bạc", Level: LevelLocality, ParentID: "002"},
		{ID: "00040", Name: "Hàng Đào", Level: LevelLocality, ParentID: "002"},
	},
	"760": {
		{ID: "26734", Name: "Bến Nghé", Level: LevelLocality, ParentID: "760"},
		{ID: "26737", Name: "Bến Thành", Level: LevelLocality, ParentID: "760"},
		{ID: "26740", Name: "Đa Kao", Level: LevelLocality, ParentID: "760"},
	},
	"770": {
		{ID: "27127", Name: "Võ Thị Sáu", Level: LevelLocality, ParentID: "770"},
		{ID: "27130", Name: "Phường 4", Level: LevelLocality, ParentID: "770"},
	},
	"490": {
		{ID: "20194", Name: "Thạch Thang", Level: LevelLocality, ParentID: "490"},
		{ID: "20197", Name: "Hải Châu 1", Level: LevelLocality, ParentID: "490"},
	},
}

// localityRegion maps every bundled locality to its region, derived once at
// startup from the static tree.
var localityRegion = func() map[string]string {
	subregionRegion := make(map[string]string)
	for _, r := range staticRegions {
		for _, sub := range staticChildren[r.ID] {
			subregionRegion[sub.ID] = r.ID
		}
	}
	m := make(map[string]string)
	for subID, regionID := range subregionRegion {
		for _, loc := range staticChildren[subID] {
			m[loc.ID] = regionID
		}
	}
	return m
}()
