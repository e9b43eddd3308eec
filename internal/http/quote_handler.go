package http

import (
	"github.com/gin-gonic/gin"

	"github.com/lqviet45/swap-engine/internal/engine"
	"github.com/lqviet45/swap-engine/internal/http/httputil"
)

type QuoteHandler struct {
	engineSvc *engine.Service
}

func NewQuoteHandler(engineSvc *engine.Service) *QuoteHandler {
	return &QuoteHandler{engineSvc: engineSvc}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuotes)
	pub.POST("/target", h.targetOutput)
	pub.POST("/select", h.selectPlan)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest asks for the ranked candidate list for one trade.
type QuoteRequest struct {
	PairQuery

	// Amount in input-token base units
	Amount string `form:"amount" binding:"required" example:"1000000000"`

	// Slippage tolerance in basis points (1 bps = 0.01%). Default: 50
	SlippageBps *uint16 `form:"slippageBps" example:"50"`
}

// QuoteResponse is the ranked candidate list, best expected output first.
type QuoteResponse struct {
	Pair     string     `json:"pair" example:"ICP/ckBTC"`
	AmountIn string     `json:"amountIn" example:"1000000000"`
	Plans    []PlanView `json:"plans"`
	Selected string     `json:"selected,omitempty"`
}

// getQuotes godoc
// @Summary Get ranked candidate plans
// @Description Aggregates quotes across all liquidity sources, optimizes a two-way split, stacks competitive auction buyouts and returns every candidate plan ordered by expected output.
// @Tags quote
// @Produce json
// @Param inputToken query string true "Input token ledger id"
// @Param outputToken query string true "Output token ledger id"
// @Param amount query string true "Input amount in base units"
// @Param slippageBps query int false "Slippage tolerance in bps (default 50)"
// @Success 200 {object} httputil.Response{data=QuoteResponse}
// @Router /api/v1/quote [get]
func (h *QuoteHandler) getQuotes(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	plans, err := h.engineSvc.RequestQuotes(c.Request.Context(), req.Pair(), amount, slippageOf(req.SlippageBps))
	if err == engine.ErrNoQuotes {
		httputil.Success(c, QuoteResponse{Pair: req.Pair().String(), AmountIn: amount.String(), Plans: []PlanView{}})
		return
	}
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}

	resp := QuoteResponse{Pair: req.Pair().String(), AmountIn: amount.String(), Plans: make([]PlanView, 0, len(plans))}
	for _, p := range plans {
		resp.Plans = append(resp.Plans, newPlanView(p))
	}
	if sel := h.engineSvc.SelectedPlan(); sel != nil {
		resp.Selected = sel.Key
	}
	httputil.Success(c, resp)
}

// TargetRequest back-solves an input amount for a desired output.
type TargetRequest struct {
	PairQuery

	// Desired output amount in output-token base units
	TargetOut string `json:"targetOut" binding:"required" example:"100000000"`
}

// targetOutput godoc
// @Summary Converge on a target output
// @Description Estimates the input needed to receive the desired output and starts the bounded refinement loop.
// @Tags quote
// @Accept json
// @Produce json
// @Success 200 {object} httputil.Response
// @Router /api/v1/quote/target [post]
func (h *QuoteHandler) targetOutput(c *gin.Context) {
	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	target, err := parseAmount(req.TargetOut)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	input, err := h.engineSvc.TargetOutput(c.Request.Context(), req.Pair(), target)
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, gin.H{"amountIn": input.String()})
}

// SelectRequest pins the active plan selection.
type SelectRequest struct {
	PlanKey string `json:"planKey" binding:"required" example:"split"`
}

// selectPlan godoc
// @Summary Select a candidate plan
// @Tags quote
// @Accept json
// @Produce json
// @Success 200 {object} httputil.Response{data=PlanView}
// @Router /api/v1/quote/select [post]
func (h *QuoteHandler) selectPlan(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	plan, err := h.engineSvc.SelectPlan(req.PlanKey)
	if err != nil {
		httputil.NotFound(c, err.Error())
		return
	}
	httputil.Success(c, newPlanView(plan))
}

func slippageOf(bps *uint16) float64 {
	if bps == nil {
		return 0
	}
	return float64(*bps) / 10000
}
