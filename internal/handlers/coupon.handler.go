package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"

	"github.com/cartwisp/recovery-gateway/internal/model"
	xhttp "github.com/cartwisp/recovery-gateway/pkg/xhttp"
)

type CouponStats interface {
	Stats(ctx context.Context, now time.Time) (*model.CouponStats, error)
}

type CouponHandler struct {
	svc CouponStats
}

func RegisterCouponRoutes(e *router.Group, h *CouponHandler) {
	e.GET("/coupons/stats", h.GetStats)
}

func NewCouponHandler(svc CouponStats) *CouponHandler {
	return &CouponHandler{svc: svc}
}

func (h *CouponHandler) GetStats(ctx *xhttp.RequestCtx) {
	stats, err := h.svc.Stats(ctx, time.Now())
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, stats)
}
