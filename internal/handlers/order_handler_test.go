package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	gateway "github.com/cartwisp/recovery-gateway/internal/gateways"
	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/internal/services"
)

type MockNotifyService struct {
	mock.Mock
}

func (m *MockNotifyService) HandleOrderEvent(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockNotifyService) HandleOrderNote(ctx context.Context, orderID int64, note string) error {
	args := m.Called(ctx, orderID, note)
	return args.Error(0)
}

func (m *MockNotifyService) SendTest(ctx context.Context, phone, message string) (*gateway.SendResult, error) {
	args := m.Called(ctx, phone, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.SendResult), args.Error(1)
}

func TestOrderHandler_OrderEvent(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		svc := new(MockNotifyService)
		handler := NewOrderHandler(svc)
		svc.On("HandleOrderEvent", mock.Anything, int64(1001), model.OrderStatusProcessing).Return(nil)

		body, _ := json.Marshal(orderEventRequest{Status: "processing"})
		ctx := setupTestContext("POST", "/api/v1/orders/1001/events", body)
		ctx.SetUserValue("id", "1001")
		handler.OrderEvent(ctx)

		assert.Equal(t, 202, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := new(MockNotifyService)
		handler := NewOrderHandler(svc)
		svc.On("HandleOrderEvent", mock.Anything, int64(1001), model.OrderStatus("shipped")).
			Return(services.ErrUnknownOrderStatus)

		body, _ := json.Marshal(orderEventRequest{Status: "shipped"})
		ctx := setupTestContext("POST", "/api/v1/orders/1001/events", body)
		ctx.SetUserValue("id", "1001")
		handler.OrderEvent(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
	})

	t.Run("order not found", func(t *testing.T) {
		svc := new(MockNotifyService)
		handler := NewOrderHandler(svc)
		svc.On("HandleOrderEvent", mock.Anything, int64(9), model.OrderStatusCompleted).
			Return(model.ErrNotFound)

		body, _ := json.Marshal(orderEventRequest{Status: "completed"})
		ctx := setupTestContext("POST", "/api/v1/orders/9/events", body)
		ctx.SetUserValue("id", "9")
		handler.OrderEvent(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("invalid order id", func(t *testing.T) {
		handler := NewOrderHandler(new(MockNotifyService))
		ctx := setupTestContext("POST", "/api/v1/orders/abc/events", nil)
		ctx.SetUserValue("id", "abc")
		handler.OrderEvent(ctx)
		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestOrderHandler_OrderNote(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		svc := new(MockNotifyService)
		handler := NewOrderHandler(svc)
		svc.On("HandleOrderNote", mock.Anything, int64(1001), "Tu paquete sale hoy").Return(nil)

		body, _ := json.Marshal(orderNoteRequest{Note: "Tu paquete sale hoy"})
		ctx := setupTestContext("POST", "/api/v1/orders/1001/notes", body)
		ctx.SetUserValue("id", "1001")
		handler.OrderNote(ctx)

		assert.Equal(t, 202, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("empty note", func(t *testing.T) {
		svc := new(MockNotifyService)
		handler := NewOrderHandler(svc)

		body, _ := json.Marshal(orderNoteRequest{})
		ctx := setupTestContext("POST", "/api/v1/orders/1001/notes", body)
		ctx.SetUserValue("id", "1001")
		handler.OrderNote(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "HandleOrderNote", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("order not found", func(t *testing.T) {
		svc := new(MockNotifyService)
		handler := NewOrderHandler(svc)
		svc.On("HandleOrderNote", mock.Anything, int64(9), "nota").Return(model.ErrNotFound)

		body, _ := json.Marshal(orderNoteRequest{Note: "nota"})
		ctx := setupTestContext("POST", "/api/v1/orders/9/notes", body)
		ctx.SetUserValue("id", "9")
		handler.OrderNote(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})
}

func TestOrderHandler_SendTest(t *testing.T) {
	t.Run("sends a test message", func(t *testing.T) {
		svc := new(MockNotifyService)
		handler := NewOrderHandler(svc)
		svc.On("SendTest", mock.Anything, "573001234567", "hola").
			Return(&gateway.SendResult{Success: true, MessageID: "abc"}, nil)

		body, _ := json.Marshal(testSendRequest{Phone: "573001234567", Message: "hola"})
		ctx := setupTestContext("POST", "/api/v1/messages/test", body)
		handler.SendTest(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var result gateway.SendResult
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &result))
		assert.True(t, result.Success)
		assert.Equal(t, "abc", result.MessageID)
	})

	t.Run("missing fields", func(t *testing.T) {
		handler := NewOrderHandler(new(MockNotifyService))
		body, _ := json.Marshal(testSendRequest{Phone: "573001234567"})
		ctx := setupTestContext("POST", "/api/v1/messages/test", body)
		handler.SendTest(ctx)
		assert.Equal(t, 422, ctx.Response.StatusCode())
	})
}
