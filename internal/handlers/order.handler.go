package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/fasthttp/router"

	gateway "github.com/cartwisp/recovery-gateway/internal/gateways"
	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/internal/services"
	xhttp "github.com/cartwisp/recovery-gateway/pkg/xhttp"
)

type NotifyService interface {
	HandleOrderEvent(ctx context.Context, orderID int64, status model.OrderStatus) error
	HandleOrderNote(ctx context.Context, orderID int64, note string) error
	SendTest(ctx context.Context, phone, message string) (*gateway.SendResult, error)
}

type OrderHandler struct {
	svc NotifyService
}

func RegisterOrderRoutes(e *router.Group, h *OrderHandler) {
	e.POST("/orders/{id}/events", h.OrderEvent)
	e.POST("/orders/{id}/notes", h.OrderNote)
	e.POST("/messages/test", h.SendTest)
}

func NewOrderHandler(svc NotifyService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type orderEventRequest struct {
	Status string `json:"status"`
}

type orderNoteRequest struct {
	Note string `json:"note"`
}

type testSendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (h *OrderHandler) OrderEvent(ctx *xhttp.RequestCtx) {
	idStr, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(ctx, 400, "invalid order id")
		return
	}

	var req orderEventRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	err = h.svc.HandleOrderEvent(ctx, id, model.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownOrderStatus):
			writeError(ctx, 422, err.Error())
		case errors.Is(err, model.ErrNotFound):
			writeError(ctx, 404, "order not found")
		default:
			writeError(ctx, 500, err.Error())
		}
		return
	}
	writeJSON(ctx, 202, map[string]string{"status": req.Status})
}

func (h *OrderHandler) OrderNote(ctx *xhttp.RequestCtx) {
	idStr, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(ctx, 400, "invalid order id")
		return
	}

	var req orderNoteRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.Note == "" {
		writeError(ctx, 422, "note is required")
		return
	}

	if err := h.svc.HandleOrderNote(ctx, id, req.Note); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(ctx, 404, "order not found")
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 202, map[string]string{"status": "accepted"})
}

func (h *OrderHandler) SendTest(ctx *xhttp.RequestCtx) {
	var req testSendRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.Phone == "" || req.Message == "" {
		writeError(ctx, 422, "phone and message are required")
		return
	}

	result, err := h.svc.SendTest(ctx, req.Phone, req.Message)
	if err != nil {
		writeError(ctx, 502, err.Error())
		return
	}
	writeJSON(ctx, 200, result)
}
