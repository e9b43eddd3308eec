package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/lqviet45/swap-engine/internal/config"
	"github.com/lqviet45/swap-engine/internal/engine"
	"github.com/lqviet45/swap-engine/internal/http"
)

// @title Swap Engine API
// @version 1.0
// @description Multi-source swap routing and execution engine. Aggregates quotes across AMM liquidity sources and fixed-price auction offers, optimizes two-way splits and buyout stacking, and executes the selected plan.
// @description
// @description ## - Features
// @description - **Multi-Source Aggregation**: Concurrent quoting across every registered liquidity source
// @description - **Split Routing**: Ternary-search optimization of two-way input distribution
// @description - **Auction Buyouts**: Fixed-price offers stacked greedily when they beat the swap rate
// @description - **Hybrid Plans**: Buyout stack plus AMM remainder when strictly better than either alone
// @description - **Target Output**: Bounded convergence loop that back-solves the input for a desired output
// @description
// @description ## - Usage Tips
// @description - Amounts are strings in token base units
// @description - Default slippage is 50 bps (0.5%)
// @description - Rate limit: 10 requests/second (burst: 20)
//
// @BasePath /
// @schemes http
// @tag.name quote
// @tag.description Ranked candidate plans, target-output convergence and plan selection
// @tag.name swap
// @tag.description Execute the selected plan with per-leg outcome reporting
// @tag.name price
// @tag.description Indicative spot prices per source
// @tag.name offers
// @tag.description Active fixed-price auction offers with effective rates
func main() {
	// load env
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("no .env file loaded")
	}

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.EngineConfig{},
	)

	// The engine talks to liquidity sources, the offer feed, escrow and the
	// ledger through the interfaces in internal/domain. Deployments register
	// their network adapters here before the container wires the services.
	engineSvc := &engine.Service{
		Providers: engine.Providers{},
	}

	// di container
	dic, err := container.New(
		conf,

		engineSvc,
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
