package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLiquidity marks a single source that yields no route for a pair.
	// The aggregator recovers locally; it is never surfaced while at least one
	// source still quotes.
	ErrNoLiquidity = errors.New("no liquidity for pair")

	// ErrNoQuotes is the aggregate-level failure: every source failed or the
	// pair is unsupported.
	ErrNoQuotes = errors.New("no quotes available")

	// ErrStaleResult marks an async result whose captured epoch no longer
	// matches the live epoch. It is discarded silently, never user-visible.
	ErrStaleResult = errors.New("stale result")

	// ErrUnknownPlan is returned when an execution request names a plan key
	// that is not in the current candidate list.
	ErrUnknownPlan = errors.New("unknown plan")
)

// SagaPhase names the three strictly ordered phases of a buyout.
type SagaPhase string

const (
	PhaseReserve  SagaPhase = "reserve"
	PhaseTransfer SagaPhase = "transfer"
	PhaseConfirm  SagaPhase = "confirm"
)

// SagaError is a buyout saga failure. FundsInEscrow is set when the failure
// happened after a successful escrow transfer: the engine performs no
// compensation, the condition is reported for out-of-band reconciliation.
type SagaError struct {
	Phase         SagaPhase
	FundsInEscrow bool
	Err           error
}

func (e *SagaError) Error() string {
	if e.FundsInEscrow {
		return fmt.Sprintf("buyout saga failed at %s phase (funds in escrow): %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("buyout saga failed at %s phase: %v", e.Phase, e.Err)
}

func (e *SagaError) Unwrap() error { return e.Err }
