package engine

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/lqviet45/swap-engine/internal/adapters/persistence"
	"github.com/lqviet45/swap-engine/internal/common"
	"github.com/lqviet45/swap-engine/internal/config"
	"github.com/lqviet45/swap-engine/internal/domain"
	"github.com/lqviet45/swap-engine/internal/metrics"
	"github.com/lqviet45/swap-engine/internal/price"
)

const ENGINE_SERVICE = "engine-service"

// Providers are the externally supplied network contracts. The engine calls
// them through these narrow interfaces and never implements their wire
// protocols.
type Providers struct {
	Sources   []domain.LiquiditySource
	Offers    domain.OfferFeed
	Escrow    domain.AuctionEscrow
	Ledger    domain.Ledger
	PriceFeed domain.PriceFeed
}

// request is the live (pair, amount, slippage) context. Newer requests
// supersede older ones via the epoch; results carrying a stale generation are
// discarded without mutating anything.
type request struct {
	pair     domain.Pair
	amountIn *big.Int
	slippage float64
}

// Service owns the full quote-to-execution workflow: debounced aggregation,
// split search, buyout stacking, ranking and plan execution.
type Service struct {
	container.BaseDIInstance

	// Providers must be populated by the composition root before the
	// container configures the service.
	Providers Providers

	logger *common.ServiceLogger
	conf   *config.EngineConfig

	registry     *Registry
	aggregator   *Aggregator
	orchestrator *Orchestrator
	ranking      *Ranking
	scheduler    *Scheduler
	storage      *persistence.Storage
	prices       domain.PriceFeed

	quoteEpoch Epoch
	executing  atomic.Bool

	mu         sync.RWMutex
	req        request
	converger  *Converger
	allBuyouts []*domain.BuyoutQuote
}

func (s *Service) ID() string {
	return ENGINE_SERVICE
}

func (s *Service) Configure(c container.IContainer) error {
	s.logger = common.NewServiceLogger(s)
	s.conf = c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)

	s.registry = NewRegistry(s.Providers.Sources...)
	s.aggregator = NewAggregator(s.registry)
	s.ranking = NewRanking()
	s.orchestrator = NewOrchestrator(s.registry, s.Providers.Escrow, s.Providers.Ledger, s.conf.Principal)

	if s.conf.PersistenceEnabled {
		storage, err := persistence.NewStorage(s.conf.DBPath)
		if err != nil {
			return err
		}
		s.storage = storage
	}
	s.prices = price.NewCachedFeed(
		s.Providers.PriceFeed,
		s.storage,
		time.Duration(s.conf.PriceTTLSeconds)*time.Second,
	)

	s.scheduler = NewScheduler(
		time.Duration(s.conf.DebounceMs)*time.Millisecond,
		time.Duration(s.conf.RefreshIntervalMs)*time.Millisecond,
		s.refresh,
	)
	return nil
}

func (s *Service) Start() error {
	if s.registry.Len() == 0 {
		log.Warn().Msg("[engine] no liquidity sources registered, engine will serve empty quote sets")
	}
	log.Info().Int("sources", s.registry.Len()).Msg("[engine] started")
	return nil
}

func (s *Service) Stop() error {
	s.scheduler.Stop()
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}

// Registry exposes the source registry to the HTTP layer.
func (s *Service) Registry() *Registry {
	return s.registry
}

// RequestQuotes supersedes the live request, recomputes the candidate list
// synchronously, and arms the debounce-then-poll refresh cycle to keep it
// fresh until the next request.
func (s *Service) RequestQuotes(ctx context.Context, pair domain.Pair, amountIn *big.Int, slippage float64) ([]*domain.Plan, error) {
	gen := s.setRequest(pair, amountIn, slippage)

	err := s.recompute(ctx, gen)
	s.scheduler.Trigger()
	if err != nil {
		return nil, err
	}
	return s.ranking.Plans(), nil
}

// SpotPrices returns each source's indicative rate, independent of amount.
func (s *Service) SpotPrices(ctx context.Context, pair domain.Pair) map[string]float64 {
	return s.aggregator.SpotPrices(ctx, pair)
}

// KnownSources returns the source IDs that last served the pair, from the
// local cache. Best-effort: it lets clients show indicative routing before
// the first live fan-out for the pair completes.
func (s *Service) KnownSources(pair domain.Pair) []string {
	if s.storage == nil {
		return nil
	}
	ids, err := s.storage.LoadPairSources(pair.Key())
	if err != nil {
		s.logger.Error(err, "failed to load pair sources", "KnownSources")
		return nil
	}
	return ids
}

// Offers returns every active offer with a positive computable rate for the
// pair, rate-descending, regardless of competitiveness.
func (s *Service) Offers(ctx context.Context, pair domain.Pair) ([]*domain.BuyoutQuote, error) {
	if s.Providers.Offers == nil {
		return nil, nil
	}
	offers, err := s.Providers.Offers.ActiveOffers(ctx, pair)
	if err != nil {
		return nil, err
	}
	_, all := BuildBuyoutQuotes(offers, nil, pair.Out, 0)
	return all, nil
}

// Plans returns the current candidate list, best first.
func (s *Service) Plans() []*domain.Plan {
	return s.ranking.Plans()
}

// SelectPlan pins the active selection.
func (s *Service) SelectPlan(key string) (*domain.Plan, error) {
	return s.ranking.Select(key)
}

// SelectedPlan returns the plan an empty-key execution would run.
func (s *Service) SelectedPlan() *domain.Plan {
	return s.ranking.Selected()
}

// ExecutePlan latches the plan with the given key (the current selection when
// key is empty) and runs it. The periodic refresh is paused for the whole
// attempt and resumed after it settles, whatever the outcome.
func (s *Service) ExecutePlan(ctx context.Context, key string, slippage float64, onProgress func(domain.ProgressEvent)) (*domain.ExecutionResult, error) {
	var plan *domain.Plan
	if key == "" {
		plan = s.ranking.Selected()
	} else {
		plan = s.ranking.Lookup(key)
	}
	if plan == nil {
		return nil, ErrUnknownPlan
	}

	if !s.executing.CompareAndSwap(false, true) {
		return nil, common.HTTPErrorConflict("an execution attempt is already running")
	}
	defer s.executing.Store(false)

	s.scheduler.Pause()
	defer s.scheduler.Resume()

	return s.orchestrator.Execute(ctx, plan, slippage, onProgress)
}

// TargetOutput starts the convergence loop toward a desired output amount.
// It returns the initial input estimate the loop set.
func (s *Service) TargetOutput(ctx context.Context, pair domain.Pair, target *big.Int) (*big.Int, error) {
	s.mu.Lock()
	slippage := s.req.slippage
	if slippage == 0 {
		slippage = float64(s.conf.DefaultSlippageBps) / 10000
	}
	conv := NewConverger(target, s.prices, s.aggregator)
	s.converger = conv
	s.mu.Unlock()

	input := conv.InitialInput(ctx, pair)
	if input == nil {
		return nil, domain.ErrNoPrice
	}

	gen := s.setRequest(pair, input, slippage)
	if err := s.recompute(ctx, gen); err != nil {
		return input, err
	}
	s.scheduler.Trigger()
	return input, nil
}

// setRequest installs the live request. The epoch bump invalidates every
// in-flight probe and refresh from the previous request. Both user edits and
// convergence-loop rescales come through here; the converger itself tells
// them apart by comparing the amount against the value it last set.
func (s *Service) setRequest(pair domain.Pair, amountIn *big.Int, slippage float64) uint64 {
	if slippage <= 0 {
		slippage = float64(s.conf.DefaultSlippageBps) / 10000
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req = request{pair: pair, amountIn: amountIn, slippage: slippage}
	return s.quoteEpoch.Bump()
}

// refresh is the scheduler callback: recompute for the live generation.
func (s *Service) refresh() {
	gen := s.quoteEpoch.Current()
	if err := s.recompute(context.Background(), gen); err != nil && err != ErrStaleResult && err != ErrNoQuotes {
		log.Error().Err(err).Msg("[engine] quote refresh failed")
	}
}

// recompute rebuilds the whole candidate list for one generation: aggregate
// quotes, split search over the top two sources, buyout stacking, split-trade
// composition, ranking. A stale generation abandons the work without touching
// shared state.
func (s *Service) recompute(ctx context.Context, gen uint64) error {
	s.mu.RLock()
	req := s.req
	conv := s.converger
	s.mu.RUnlock()

	if req.amountIn == nil || req.amountIn.Sign() <= 0 || req.pair.In.ID == "" {
		return nil
	}

	quotes := s.aggregator.GetQuotes(ctx, req.pair, req.amountIn, req.slippage)
	if !s.quoteEpoch.Valid(gen) {
		return ErrStaleResult
	}
	if len(quotes) == 0 {
		s.ranking.Rebuild(nil, nil, nil, nil)
		return ErrNoQuotes
	}
	s.persistPairSources(req.pair, quotes)

	bestSwap := quotes[0]

	var split *domain.SplitPlan
	if len(quotes) >= 2 {
		srcA := s.registry.Lookup(quotes[0].SourceID)
		srcB := s.registry.Lookup(quotes[1].SourceID)
		if srcA != nil && srcB != nil {
			splitter := NewSplitter(srcA, srcB)
			sp, err := splitter.FindBestSplit(ctx, req.pair, req.amountIn, req.slippage, &s.quoteEpoch, gen, nil)
			if err == ErrStaleResult {
				return err
			}
			if err == nil {
				split = sp
			}
		}
	}

	var qualifying []*domain.BuyoutQuote
	var all []*domain.BuyoutQuote
	var splitTrade *domain.SplitTradePlan
	if s.Providers.Offers != nil {
		offers, err := s.Providers.Offers.ActiveOffers(ctx, req.pair)
		if err != nil {
			log.Debug().Err(err).Str("pair", req.pair.String()).Msg("[engine] offer feed unavailable")
		} else {
			qualifying, all = BuildBuyoutQuotes(offers, req.amountIn, req.pair.Out, bestSwap.Rate())
			splitTrade = ComposeSplitTrade(qualifying, req.amountIn, bestSwap, BestBuyoutOut(qualifying))
		}
	}

	if !s.quoteEpoch.Valid(gen) {
		return ErrStaleResult
	}

	s.ranking.Rebuild(quotes, split, qualifying, splitTrade)

	s.mu.Lock()
	s.allBuyouts = all
	s.mu.Unlock()

	s.observeBest()

	if conv != nil && conv.Active() {
		if next, ok := conv.Observe(req.amountIn, s.bestOut()); ok {
			nextGen := s.setRequest(req.pair, next, req.slippage)
			return s.recompute(ctx, nextGen)
		}
	}
	return nil
}

func (s *Service) bestOut() *big.Int {
	plans := s.ranking.Plans()
	if len(plans) == 0 {
		return new(big.Int)
	}
	return plans[0].ExpectedOut()
}

func (s *Service) observeBest() {
	plans := s.ranking.Plans()
	metrics.CandidatePlans.Observe(float64(len(plans)))
	if len(plans) == 0 {
		return
	}
	if best := plans[0]; best.Kind == domain.KindSwap && best.Swap != nil {
		bps := domain.ImpactBps(best.Swap.PriceImpact)
		metrics.PriceImpact.WithLabelValues(string(domain.GetPriceImpactSeverity(bps))).Observe(float64(bps))
	}
}

func (s *Service) persistPairSources(pair domain.Pair, quotes []*domain.Quote) {
	if s.storage == nil {
		return
	}
	ids := make([]string, 0, len(quotes))
	for _, q := range quotes {
		ids = append(ids, q.SourceID)
	}
	if err := s.storage.SavePairSources(pair.Key(), ids); err != nil {
		s.logger.Error(err, "failed to persist pair sources", "recompute")
	}
}
