package engine

import (
	"github.com/lqviet45/swap-engine/internal/domain"
)

// Registry is the ordered set of liquidity sources the engine routes across.
// Order is stable so tie-breaks in ranking are deterministic.
type Registry struct {
	sources []domain.LiquiditySource
	byID    map[string]domain.LiquiditySource
}

func NewRegistry(sources ...domain.LiquiditySource) *Registry {
	r := &Registry{byID: make(map[string]domain.LiquiditySource, len(sources))}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register appends a source. A source with a duplicate ID replaces the entry
// in the lookup map but keeps the original position.
func (r *Registry) Register(s domain.LiquiditySource) {
	if _, ok := r.byID[s.ID()]; !ok {
		r.sources = append(r.sources, s)
	}
	r.byID[s.ID()] = s
}

// Sources returns the registered sources in registration order.
func (r *Registry) Sources() []domain.LiquiditySource {
	return r.sources
}

// Lookup returns the source with the given ID, or nil.
func (r *Registry) Lookup(id string) domain.LiquiditySource {
	return r.byID[id]
}

func (r *Registry) Len() int {
	return len(r.sources)
}
