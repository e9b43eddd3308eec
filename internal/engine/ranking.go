package engine

import (
	"sort"
	"sync"

	"github.com/lqviet45/swap-engine/internal/domain"
)

// Ranking merges all candidate plans into one list ordered by expected output
// descending and tracks the active selection. Selection is sticky: a user
// choice survives recomputation while its key is still present, otherwise the
// selection falls back to the new top plan.
type Ranking struct {
	mu       sync.RWMutex
	plans    []*domain.Plan
	selected string
	pinned   bool // selection was made explicitly, not defaulted
}

func NewRanking() *Ranking {
	return &Ranking{}
}

// Rebuild replaces the candidate list wholesale. Source quotes always enter;
// the split plan only when its distribution is strictly interior; qualifying
// buyouts and the split trade when present. Ties keep insertion order.
func (r *Ranking) Rebuild(
	quotes []*domain.Quote,
	split *domain.SplitPlan,
	buyouts []*domain.BuyoutQuote,
	splitTrade *domain.SplitTradePlan,
) {
	plans := make([]*domain.Plan, 0, len(quotes)+len(buyouts)+2)
	for _, q := range quotes {
		plans = append(plans, domain.NewSwapPlan(q))
	}
	if split.Interior() {
		plans = append(plans, domain.NewSplitPlan(split))
	}
	for _, bq := range buyouts {
		plans = append(plans, domain.NewBuyoutPlan(bq))
	}
	if splitTrade != nil {
		plans = append(plans, domain.NewSplitTradePlan(splitTrade))
	}

	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].ExpectedOut().Cmp(plans[j].ExpectedOut()) > 0
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = plans

	if r.pinned && r.lookupLocked(r.selected) != nil {
		return
	}
	// Previously selected plan disappeared (or nothing was pinned): default
	// to the top entry.
	r.pinned = false
	if len(plans) > 0 {
		r.selected = plans[0].Key
	} else {
		r.selected = ""
	}
}

// Plans returns the current candidate list, best first.
func (r *Ranking) Plans() []*domain.Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Plan, len(r.plans))
	copy(out, r.plans)
	return out
}

// Select pins the selection to the plan with the given key.
func (r *Ranking) Select(key string) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.lookupLocked(key)
	if p == nil {
		return nil, ErrUnknownPlan
	}
	r.selected = key
	r.pinned = true
	return p, nil
}

// Selected returns the currently selected plan, or nil when the list is empty.
func (r *Ranking) Selected() *domain.Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(r.selected)
}

// Lookup returns the plan with the given key without changing the selection.
func (r *Ranking) Lookup(key string) *domain.Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(key)
}

func (r *Ranking) lookupLocked(key string) *domain.Plan {
	for _, p := range r.plans {
		if p.Key == key {
			return p
		}
	}
	return nil
}
