package handlers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"

	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/internal/services"
	xhttp "github.com/cartwisp/recovery-gateway/pkg/xhttp"
)

// captureTokenHeader carries the anti-forgery token issued per session.
const captureTokenHeader = "X-Capture-Token"

type CaptureService interface {
	IssueToken(ctx context.Context, sessionID string) (string, error)
	Capture(ctx context.Context, token string, p model.CaptureParams) (*model.AbandonedCart, error)
	CompleteSession(ctx context.Context, sessionID string) (bool, error)
	List(ctx context.Context, f model.CartFilter) ([]*model.AbandonedCart, int64, error)
}

type CartHandler struct {
	svc CaptureService
}

func RegisterCartRoutes(e *router.Group, h *CartHandler) {
	e.GET("/capture/token", h.IssueToken)
	e.POST("/capture", h.Capture)
	e.POST("/sessions/{session_id}/complete", h.CompleteSession)
	e.GET("/carts", h.ListCarts)
}

func NewCartHandler(svc CaptureService) *CartHandler {
	return &CartHandler{svc: svc}
}

type captureRequest struct {
	SessionID string                `json:"session_id"`
	UserID    *int64                `json:"user_id,omitempty"`
	Billing   model.BillingSnapshot `json:"billing"`
	Items     []model.CartItem      `json:"items"`
	CartTotal float64               `json:"cart_total"`
}

type captureResponse struct {
	Captured bool  `json:"captured"`
	CartID   int64 `json:"cart_id"`
}

type cartListResponse struct {
	Items []*model.AbandonedCart `json:"items"`
	Total int64                  `json:"total"`
}

func (h *CartHandler) IssueToken(ctx *xhttp.RequestCtx) {
	sessionID := query(ctx, "session_id")
	if sessionID == "" {
		writeError(ctx, 400, "session_id is required")
		return
	}
	token, err := h.svc.IssueToken(ctx, sessionID)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]string{"token": token})
}

func (h *CartHandler) Capture(ctx *xhttp.RequestCtx) {
	var req captureRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	token := string(ctx.Request.Header.Peek(captureTokenHeader))
	cart, err := h.svc.Capture(ctx, token, model.CaptureParams{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Billing:   req.Billing,
		Items:     req.Items,
		CartTotal: req.CartTotal,
	})
	if err != nil {
		switch err {
		case services.ErrInvalidCaptureToken:
			writeError(ctx, 403, err.Error())
		case model.ErrMissingContact, model.ErrEmptyCart:
			writeError(ctx, 422, err.Error())
		default:
			writeError(ctx, 400, err.Error())
		}
		return
	}
	writeJSON(ctx, 201, captureResponse{Captured: true, CartID: cart.ID})
}

func (h *CartHandler) CompleteSession(ctx *xhttp.RequestCtx) {
	sessionID, ok := ctx.UserValue("session_id").(string)
	if !ok || sessionID == "" {
		writeError(ctx, 400, "session_id is required")
		return
	}
	matched, err := h.svc.CompleteSession(ctx, sessionID)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]bool{"recovered": matched})
}

func (h *CartHandler) ListCarts(ctx *xhttp.RequestCtx) {
	var f model.CartFilter

	if v := query(ctx, "status"); v != "" {
		status := model.CartStatus(v)
		f.Status = &status
	}
	if v := query(ctx, "phone"); v != "" {
		f.Phone = &v
	}
	if v := query(ctx, "email"); v != "" {
		f.Email = &v
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, cartListResponse{Items: items, Total: total})
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
