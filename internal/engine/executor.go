package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lqviet45/swap-engine/internal/domain"
	"github.com/lqviet45/swap-engine/internal/metrics"
)

// Orchestrator executes a latched plan. Independent legs run concurrently;
// one leg's failure never cancels the others, and every leg's outcome is part
// of the aggregate result.
type Orchestrator struct {
	registry  *Registry
	escrow    domain.AuctionEscrow
	ledger    domain.Ledger
	principal string
}

func NewOrchestrator(registry *Registry, escrow domain.AuctionEscrow, ledger domain.Ledger, principal string) *Orchestrator {
	return &Orchestrator{
		registry:  registry,
		escrow:    escrow,
		ledger:    ledger,
		principal: principal,
	}
}

// Execute dispatches on the plan's discriminant and aggregates a per-leg
// result. Success is true iff every leg succeeded; AmountOut is always the
// sum of whatever legs actually completed.
func (o *Orchestrator) Execute(ctx context.Context, plan *domain.Plan, slippage float64, onProgress func(domain.ProgressEvent)) (*domain.ExecutionResult, error) {
	if plan == nil {
		return nil, errors.New("nil plan")
	}

	attemptID := uuid.NewString()
	emit := func(leg, step string) {
		if onProgress != nil {
			onProgress(domain.ProgressEvent{AttemptID: attemptID, Leg: leg, Step: step, At: time.Now()})
		}
	}

	start := time.Now()
	var legs []domain.LegResult
	switch plan.Kind {
	case domain.KindSwap:
		legs = []domain.LegResult{o.executeSwapLeg(ctx, plan.Swap, slippage, "swap:"+plan.Swap.SourceID, emit)}
	case domain.KindSplit:
		legs = o.executeSplit(ctx, plan.Split, slippage, emit)
	case domain.KindAuction:
		legs = []domain.LegResult{o.executeBuyoutSaga(ctx, plan.Buyout, emit)}
	case domain.KindSplitTrade:
		legs = o.executeSplitTrade(ctx, plan.SplitTrade, slippage, emit)
	default:
		return nil, fmt.Errorf("unsupported plan kind %q", plan.Kind)
	}

	result := aggregate(attemptID, legs)

	status := "success"
	if !result.Success {
		status = "failed"
		if result.AmountOut.Sign() > 0 {
			status = "partial"
		}
	}
	metrics.Executions.WithLabelValues(string(plan.Kind), status).Inc()
	metrics.ExecutionDuration.WithLabelValues(string(plan.Kind)).Observe(time.Since(start).Seconds())

	log.Info().
		Str("attempt", attemptID).
		Str("kind", string(plan.Kind)).
		Bool("success", result.Success).
		Str("amountOut", result.AmountOut.String()).
		Int("legs", len(legs)).
		Msg("[orchestrator] execution settled")

	return result, nil
}

// executeSwapLeg delegates to the quote's source, relaying its native
// progress steps.
func (o *Orchestrator) executeSwapLeg(ctx context.Context, q *domain.Quote, slippage float64, label string, emit func(leg, step string)) domain.LegResult {
	leg := domain.LegResult{ID: uuid.NewString(), Leg: label}
	src := o.registry.Lookup(q.SourceID)
	if src == nil {
		leg.Err = fmt.Errorf("source %q not registered", q.SourceID)
		return leg
	}

	out, err := src.Execute(ctx, q, slippage, func(step string) { emit(label, step) })
	if err != nil {
		leg.Err = err
		return leg
	}
	leg.Success = true
	leg.AmountOut = out
	return leg
}

// executeSplit runs both legs concurrently with independent progress.
func (o *Orchestrator) executeSplit(ctx context.Context, sp *domain.SplitPlan, slippage float64, emit func(leg, step string)) []domain.LegResult {
	type legSpec struct {
		quote *domain.Quote
		label string
	}
	specs := make([]legSpec, 0, 2)
	if sp.LegA != nil {
		specs = append(specs, legSpec{sp.LegA, "split:" + sp.LegA.SourceID})
	}
	if sp.LegB != nil {
		specs = append(specs, legSpec{sp.LegB, "split:" + sp.LegB.SourceID})
	}

	results := make([]domain.LegResult, len(specs))
	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec legSpec) {
			defer wg.Done()
			results[i] = o.executeSwapLeg(ctx, spec.quote, slippage, spec.label, emit)
		}(i, spec)
	}
	wg.Wait()
	return results
}

// executeBuyoutSaga runs the three-phase buyout: Reserve, Transfer to the
// escrow address derived from the reservation, Confirm. Phases are strictly
// ordered; a failure aborts the saga. A failure after a successful Transfer
// leaves funds in escrow with no automatic compensation - that is reported as
// a fatal, funds-at-risk condition for out-of-band reconciliation.
func (o *Orchestrator) executeBuyoutSaga(ctx context.Context, bq *domain.BuyoutQuote, emit func(leg, step string)) domain.LegResult {
	label := buyoutLabel(bq.Offer.ID)
	leg := domain.LegResult{ID: uuid.NewString(), Leg: label}

	if o.escrow == nil || o.ledger == nil {
		leg.Err = errors.New("auction execution not configured")
		return leg
	}

	emit(label, string(PhaseReserve))
	reservation, err := o.escrow.Reserve(ctx, bq.Offer.ID)
	if err != nil {
		leg.Err = &SagaError{Phase: PhaseReserve, Err: err}
		metrics.SagaPhaseFailures.WithLabelValues(string(PhaseReserve)).Inc()
		return leg
	}

	addr, err := o.escrow.EscrowAddress(ctx, o.principal, reservation)
	if err != nil {
		leg.Err = &SagaError{Phase: PhaseTransfer, Err: err}
		metrics.SagaPhaseFailures.WithLabelValues(string(PhaseTransfer)).Inc()
		return leg
	}

	emit(label, string(PhaseTransfer))
	pay := bq.Offer.PaymentToken
	if err := o.ledger.Transfer(ctx, pay, addr, bq.Offer.BuyoutPrice, pay.TransferFee); err != nil {
		leg.Err = &SagaError{Phase: PhaseTransfer, Err: err}
		metrics.SagaPhaseFailures.WithLabelValues(string(PhaseTransfer)).Inc()
		return leg
	}

	emit(label, string(PhaseConfirm))
	if err := o.escrow.Confirm(ctx, reservation, bq.Offer.BuyoutPrice); err != nil {
		// Funds already moved to escrow; no rollback is attempted here.
		leg.Err = &SagaError{Phase: PhaseConfirm, FundsInEscrow: true, Err: err}
		metrics.SagaPhaseFailures.WithLabelValues(string(PhaseConfirm)).Inc()
		metrics.FundsAtRisk.Inc()
		log.Error().Err(err).Uint64("offer", bq.Offer.ID).Str("reservation", reservation).
			Msg("[orchestrator] confirm failed after escrow transfer, manual reconciliation required")
		return leg
	}

	emit(label, "done")
	leg.Success = true
	leg.AmountOut = bq.Offer.AssetAmount
	return leg
}

// executeSplitTrade runs every buyout saga and the swap remainder
// concurrently; they are independent and one failure never cancels the rest.
func (o *Orchestrator) executeSplitTrade(ctx context.Context, st *domain.SplitTradePlan, slippage float64, emit func(leg, step string)) []domain.LegResult {
	n := len(st.Buyouts)
	hasRemainder := st.RemainderQuote != nil && st.Remainder != nil && st.Remainder.Sign() > 0
	if hasRemainder {
		n++
	}

	results := make([]domain.LegResult, n)
	var wg sync.WaitGroup
	for i, bq := range st.Buyouts {
		wg.Add(1)
		go func(i int, bq *domain.BuyoutQuote) {
			defer wg.Done()
			results[i] = o.executeBuyoutSaga(ctx, bq, emit)
		}(i, bq)
	}
	if hasRemainder {
		wg.Add(1)
		go func() {
			defer wg.Done()
			label := "remainder:" + st.RemainderQuote.SourceID
			results[n-1] = o.executeSwapLeg(ctx, st.RemainderQuote, slippage, label, emit)
		}()
	}
	wg.Wait()
	return results
}

// aggregate folds leg outcomes into the attempt result.
func aggregate(attemptID string, legs []domain.LegResult) *domain.ExecutionResult {
	total := new(big.Int)
	success := true
	for _, leg := range legs {
		if leg.Success {
			if leg.AmountOut != nil {
				total.Add(total, leg.AmountOut)
			}
		} else {
			success = false
		}
	}
	return &domain.ExecutionResult{
		AttemptID: attemptID,
		Success:   success,
		AmountOut: total,
		Legs:      legs,
	}
}
