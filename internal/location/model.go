package location

type Level string

const (
	LevelRegion    Level = "REGION"
	LevelSubregion Level = "SUBREGION"
	LevelLocality  Level = "LOCALITY"
)

func (l Level) String() string {
	return string(l)
}

// Node is one entry of the three-tier address hierarchy
// (region -> subregion -> locality). Nodes are immutable reference data.
type Node struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Level    Level  `json:"level"`
	ParentID string `json:"parent_id,omitempty"`
}
