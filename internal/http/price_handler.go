package http

import (
	"github.com/gin-gonic/gin"

	"github.com/lqviet45/swap-engine/internal/engine"
	"github.com/lqviet45/swap-engine/internal/http/httputil"
)

type PriceHandler struct {
	engineSvc *engine.Service
}

func NewPriceHandler(engineSvc *engine.Service) *PriceHandler {
	return &PriceHandler{engineSvc: engineSvc}
}

func (h *PriceHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getSpotPrices)
}

func (h *PriceHandler) Root() string {
	return "/price"
}

// SpotPriceResponse maps source id to its amount-independent indicative rate.
// LastSources lists the sources that served the pair most recently, from the
// local cache, and may be ahead of Prices right after a restart.
type SpotPriceResponse struct {
	Pair        string             `json:"pair" example:"ICP/ckBTC"`
	Prices      map[string]float64 `json:"prices"`
	LastSources []string           `json:"lastSources,omitempty"`
}

// getSpotPrices godoc
// @Summary Get indicative spot prices
// @Description Returns each source's marginal rate for the pair. Indicative only, not executable.
// @Tags price
// @Produce json
// @Param inputToken query string true "Input token ledger id"
// @Param outputToken query string true "Output token ledger id"
// @Success 200 {object} httputil.Response{data=SpotPriceResponse}
// @Router /api/v1/price [get]
func (h *PriceHandler) getSpotPrices(c *gin.Context) {
	var req PairQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	pair := req.Pair()
	prices := h.engineSvc.SpotPrices(c.Request.Context(), pair)
	httputil.Success(c, SpotPriceResponse{
		Pair:        pair.String(),
		Prices:      prices,
		LastSources: h.engineSvc.KnownSources(pair),
	})
}
