package http

import (
	"github.com/gin-gonic/gin"

	"github.com/lqviet45/swap-engine/internal/engine"
	"github.com/lqviet45/swap-engine/internal/http/httputil"
)

type OfferHandler struct {
	engineSvc *engine.Service
}

func NewOfferHandler(engineSvc *engine.Service) *OfferHandler {
	return &OfferHandler{engineSvc: engineSvc}
}

func (h *OfferHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getOffers)
}

func (h *OfferHandler) Root() string {
	return "/offers"
}

// OffersResponse lists every active priced offer for the pair, best rate first.
type OffersResponse struct {
	Pair   string       `json:"pair" example:"ICP/ckBTC"`
	Offers []BuyoutView `json:"offers"`
}

// getOffers godoc
// @Summary List active auction offers
// @Description Returns every live fixed-price offer matching the pair with its effective rate, regardless of whether it currently beats the swap rate.
// @Tags offers
// @Produce json
// @Param inputToken query string true "Input token ledger id"
// @Param outputToken query string true "Output token ledger id"
// @Success 200 {object} httputil.Response{data=OffersResponse}
// @Router /api/v1/offers [get]
func (h *OfferHandler) getOffers(c *gin.Context) {
	var req PairQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	pair := req.Pair()
	quotes, err := h.engineSvc.Offers(c.Request.Context(), pair)
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}

	resp := OffersResponse{Pair: pair.String(), Offers: make([]BuyoutView, 0, len(quotes))}
	for _, bq := range quotes {
		resp.Offers = append(resp.Offers, newBuyoutView(bq))
	}
	httputil.Success(c, resp)
}
