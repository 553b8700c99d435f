package location

import (
	"context"
	"sync"
)

// Directory serves the address hierarchy with a per-parent session cache.
// Reference geography does not change at session timescale, so cached
// entries are never invalidated.
type Directory struct {
	src Source

	mu    sync.RWMutex
	cache map[string][]Node
}

func NewDirectory(src Source) *Directory {
	return &Directory{
		src:   src,
		cache: make(map[string][]Node),
	}
}

func (d *Directory) ListChildren(ctx context.Context, parentID string) ([]Node, error) {
	d.mu.RLock()
	cached, ok := d.cache[parentID]
	d.mu.RUnlock()
	if ok {
		return cached, nil
	}

	nodes, err := d.src.ListChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.cache[parentID] = nodes
	d.mu.Unlock()

	return nodes, nil
}

// NodeName resolves a single node's display name, or "" when unknown.
func (d *Directory) NodeName(ctx context.Context, parentID, id string) string {
	nodes, err := d.ListChildren(ctx, parentID)
	if err != nil {
		return ""
	}
	for _, n := range nodes {
		if n.ID == id {
			return n.Name
		}
	}
	return ""
}
