package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"

	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/internal/recovery"
	xhttp "github.com/cartwisp/recovery-gateway/pkg/xhttp"
)

type RecoveryService interface {
	Recover(ctx context.Context, token string) (*recovery.Outcome, error)
}

type RecoveryHandler struct {
	svc RecoveryService
}

// RegisterRecoveryRoutes registers at router root: the recovery link lands in
// customer messages and must stay short.
func RegisterRecoveryRoutes(r *router.Router, h *RecoveryHandler) {
	r.GET("/recover", h.Recover)
}

func NewRecoveryHandler(svc RecoveryService) *RecoveryHandler {
	return &RecoveryHandler{svc: svc}
}

func (h *RecoveryHandler) Recover(ctx *xhttp.RequestCtx) {
	token := query(ctx, "token")
	if token == "" {
		writeError(ctx, 400, "token is required")
		return
	}

	outcome, err := h.svc.Recover(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(ctx, 404, "unknown recovery token")
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, outcome)
}
