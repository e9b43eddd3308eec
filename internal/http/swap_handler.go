package http

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lqviet45/swap-engine/internal/common"
	"github.com/lqviet45/swap-engine/internal/domain"
	"github.com/lqviet45/swap-engine/internal/engine"
	"github.com/lqviet45/swap-engine/internal/http/httputil"
)

type SwapHandler struct {
	engineSvc *engine.Service
}

func NewSwapHandler(engineSvc *engine.Service) *SwapHandler {
	return &SwapHandler{engineSvc: engineSvc}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.executePlan)
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

// SwapRequest executes one candidate plan from the current ranked list.
type SwapRequest struct {
	// Key of the plan to execute; empty means the current selection
	PlanKey string `json:"planKey" example:"split-trade"`

	// Slippage tolerance in basis points. Default: 50
	SlippageBps *uint16 `json:"slippageBps" example:"50"`
}

// LegView is the wire form of one leg outcome.
type LegView struct {
	ID            string `json:"id"`
	Leg           string `json:"leg" example:"buyout:42"`
	Success       bool   `json:"success"`
	AmountOut     string `json:"amountOut,omitempty"`
	Error         string `json:"error,omitempty"`
	SagaPhase     string `json:"sagaPhase,omitempty" enums:"reserve,transfer,confirm"`
	FundsInEscrow bool   `json:"fundsInEscrow,omitempty"`
}

// SwapResponse aggregates the attempt. Success is true only when every leg
// succeeded; amountOut is the sum of whatever legs completed.
type SwapResponse struct {
	AttemptID string    `json:"attemptId"`
	Success   bool      `json:"success"`
	AmountOut string    `json:"amountOut"`
	Legs      []LegView `json:"legs"`
}

// executePlan godoc
// @Summary Execute a candidate plan
// @Description Latches the chosen plan and runs its legs, concurrently where independent. Per-leg outcomes are always reported, including partial fills.
// @Tags swap
// @Accept json
// @Produce json
// @Success 200 {object} httputil.Response{data=SwapResponse}
// @Router /api/v1/swap [post]
func (h *SwapHandler) executePlan(c *gin.Context) {
	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	onProgress := func(ev domain.ProgressEvent) {
		log.Info().Str("attempt", ev.AttemptID).Str("leg", ev.Leg).Str("step", ev.Step).
			Msg("[swapHandler] execution progress")
	}

	result, err := h.engineSvc.ExecutePlan(c.Request.Context(), req.PlanKey, slippageOf(req.SlippageBps), onProgress)
	if err != nil {
		var httpErr *common.HttpError
		if errors.As(err, &httpErr) {
			httputil.Error(c, httpErr.StatusCode, httpErr.Message)
			return
		}
		if err == engine.ErrUnknownPlan {
			httputil.NotFound(c, err.Error())
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}

	resp := SwapResponse{
		AttemptID: result.AttemptID,
		Success:   result.Success,
		AmountOut: amountString(result.AmountOut),
		Legs:      make([]LegView, 0, len(result.Legs)),
	}
	for _, leg := range result.Legs {
		lv := LegView{
			ID:        leg.ID,
			Leg:       leg.Leg,
			Success:   leg.Success,
			AmountOut: amountString(leg.AmountOut),
		}
		if leg.Err != nil {
			lv.Error = leg.Err.Error()
			var sagaErr *engine.SagaError
			if errors.As(leg.Err, &sagaErr) {
				lv.SagaPhase = string(sagaErr.Phase)
				lv.FundsInEscrow = sagaErr.FundsInEscrow
			}
		}
		resp.Legs = append(resp.Legs, lv)
	}
	httputil.Success(c, resp)
}
