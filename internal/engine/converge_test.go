package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lqviet45/swap-engine/internal/domain"
)

func newTestConverger(target *big.Int, prices map[string]float64, sources ...domain.LiquiditySource) *Converger {
	return NewConverger(target, &fakePriceFeed{prices: prices}, NewAggregator(NewRegistry(sources...)))
}

func TestConvergerInitialInputFromCrossRate(t *testing.T) {
	// ICP at $2, ckBTC at $1: rate = 2 out per in. For 100 out, the raw
	// estimate is 50 in, padded 5% to 52.5.
	c := newTestConverger(units(100), map[string]float64{"icp": 2, "ckbtc": 1})

	input := c.InitialInput(context.Background(), tstPair)
	require.NotNil(t, input)
	want := domain.FromFloat(52.5, tokICP.Decimals)
	assert.Equal(t, 0, input.Cmp(want), "input = %s, want %s", input, want)
	assert.True(t, c.Active())
}

func TestConvergerInitialInputFallsBackToSpot(t *testing.T) {
	src := newFakeSource("amm", units(1_000), units(2_000)) // spot rate 2
	c := newTestConverger(units(100), nil, src)

	input := c.InitialInput(context.Background(), tstPair)
	require.NotNil(t, input)
	want := domain.FromFloat(52.5, tokICP.Decimals)
	assert.Equal(t, 0, input.Cmp(want))
}

func TestConvergerNoPriceSignal(t *testing.T) {
	c := newTestConverger(units(100), nil)
	assert.Nil(t, c.InitialInput(context.Background(), tstPair))
	assert.False(t, c.Active())
}

func TestConvergerAcceptsWithinTwoPercent(t *testing.T) {
	c := newTestConverger(units(100), map[string]float64{"icp": 1, "ckbtc": 1})
	input := c.InitialInput(context.Background(), tstPair)
	require.NotNil(t, input)

	next, ok := c.Observe(input, units(99)) // 99% of target
	assert.False(t, ok)
	assert.Nil(t, next)
	assert.False(t, c.Active())
}

func TestConvergerRescalesWithOvershoot(t *testing.T) {
	c := newTestConverger(units(100), map[string]float64{"icp": 1, "ckbtc": 1})
	input := c.InitialInput(context.Background(), tstPair)
	require.NotNil(t, input)

	// Only half the target achieved: expect roughly input * 2 * 1.03.
	next, ok := c.Observe(input, units(50))
	require.True(t, ok)
	want := domain.MulRatio(input, 2.06)
	assert.Equal(t, 0, next.Cmp(want), "next = %s, want %s", next, want)

	// The rescaled value is what the loop last set, so the next observation
	// with the same input keeps refining.
	next2, ok := c.Observe(next, units(80))
	require.True(t, ok)
	assert.True(t, next2.Cmp(next) > 0)
}

// TestConvergerDisabledByManualEdit: any input the loop did not set itself
// permanently disables refinement.
func TestConvergerDisabledByManualEdit(t *testing.T) {
	c := newTestConverger(units(100), map[string]float64{"icp": 1, "ckbtc": 1})
	input := c.InitialInput(context.Background(), tstPair)
	require.NotNil(t, input)

	edited := new(big.Int).Add(input, big.NewInt(1))
	_, ok := c.Observe(edited, units(50))
	assert.False(t, ok)
	assert.False(t, c.Active())

	// Even a matching input afterwards stays dead.
	_, ok = c.Observe(input, units(50))
	assert.False(t, ok)
}

func TestConvergerRoundCap(t *testing.T) {
	c := newTestConverger(units(1_000), map[string]float64{"icp": 1, "ckbtc": 1})
	input := c.InitialInput(context.Background(), tstPair)
	require.NotNil(t, input)

	rounds := 0
	current := input
	for {
		next, ok := c.Observe(current, units(10)) // never anywhere near target
		if !ok {
			break
		}
		rounds++
		current = next
		if rounds > 10 {
			t.Fatal("converger did not stop")
		}
	}
	assert.Equal(t, convergeMaxRounds, rounds)
	assert.False(t, c.Active())
}

func TestConvergerNilBestOut(t *testing.T) {
	c := newTestConverger(units(100), map[string]float64{"icp": 1, "ckbtc": 1})
	input := c.InitialInput(context.Background(), tstPair)
	require.NotNil(t, input)

	_, ok := c.Observe(input, nil)
	assert.False(t, ok)
	assert.False(t, c.Active())
}
