package handlers

import (
	"github.com/fasthttp/router"

	xhttp "github.com/cartwisp/recovery-gateway/pkg/xhttp"
)

type HealthHandler struct{}

func RegisterHealthRoutes(r *router.Router, h *HealthHandler) {
	r.GET("/health", h.GetHealth)
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	ctx.Response.SetBodyString("success")
}
