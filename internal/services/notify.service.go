package services

import (
	"context"
	"errors"
	"time"

	"github.com/cartwisp/recovery-gateway/internal/config"
	gateway "github.com/cartwisp/recovery-gateway/internal/gateways"
	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/internal/template"
	"github.com/cartwisp/recovery-gateway/pkg/logger"
)

var ErrUnknownOrderStatus = errors.New("unknown order status")

type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error
	ScheduleReviewReminder(ctx context.Context, orderID int64, dueAt time.Time) error
	FindDueReviewReminders(ctx context.Context, now time.Time, limit int) ([]*model.ReviewReminder, error)
	MarkReviewSent(ctx context.Context, id int64, now time.Time) (bool, error)
}

type DeliveryLogRepository interface {
	Create(ctx context.Context, l *model.DeliveryLog) (*model.DeliveryLog, error)
}

type Sender interface {
	Send(ctx context.Context, phone, countryISO, message, imageURL string) (*gateway.SendResult, error)
}

// NotifyService reacts to order lifecycle events: per-status customer
// messages, admin copies, and scheduling of the one-shot review reminder.
type NotifyService struct {
	orders OrderRepository
	logs   DeliveryLogRepository
	sender Sender

	now func() time.Time
}

func NewNotifyService(orders OrderRepository, logs DeliveryLogRepository, sender Sender) *NotifyService {
	return &NotifyService{orders: orders, logs: logs, sender: sender, now: time.Now}
}

func statusTemplate(cfg *config.Config, status model.OrderStatus) (string, bool) {
	switch status {
	case model.OrderStatusProcessing:
		return cfg.OrderProcessingTemplate, cfg.OrderProcessingEnabled
	case model.OrderStatusCompleted:
		return cfg.OrderCompletedTemplate, cfg.OrderCompletedEnabled
	case model.OrderStatusCancelled:
		return cfg.OrderCancelledTemplate, cfg.OrderCancelledEnabled
	}
	return "", false
}

// HandleOrderEvent applies a status change and sends whatever that status is
// configured to trigger. Send failures are logged but never fail the event;
// the status change itself already happened.
func (s *NotifyService) HandleOrderEvent(ctx context.Context, orderID int64, status model.OrderStatus) error {
	switch status {
	case model.OrderStatusProcessing, model.OrderStatusCompleted, model.OrderStatusCancelled:
	default:
		return ErrUnknownOrderStatus
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return err
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	cfg := config.Get()
	shop := template.Shop{Name: cfg.ShopName, URL: cfg.ShopUrl, Currency: cfg.ShopCurrency}

	if tmpl, enabled := statusTemplate(cfg, status); enabled && tmpl != "" {
		text := template.Render(tmpl, template.OrderContext(order, shop, nil))
		s.deliver(ctx, cfg, order.Billing.Phone, order.Billing.Country, text, &order.ID, model.DeliveryKindOrderStatus)
	}

	if cfg.AdminOrderTemplate != "" && len(cfg.AdminNumbers) > 0 {
		text := template.Render(cfg.AdminOrderTemplate, template.OrderContext(order, shop, nil))
		for _, number := range cfg.AdminNumbers {
			// admin numbers are stored fully qualified, no billing country
			s.deliver(ctx, cfg, number, "", text, &order.ID, model.DeliveryKindOrderStatus)
		}
	}

	if status == model.OrderStatusCompleted && cfg.ReviewReminderEnabled {
		dueAt := s.now().AddDate(0, 0, cfg.ReviewReminderDays)
		if err := s.orders.ScheduleReviewReminder(ctx, order.ID, dueAt); err != nil {
			logger.Error("failed to schedule review reminder", "order_id", order.ID, "error", err)
		}
	}

	return nil
}

// HandleOrderNote messages the customer when a note is added to their order.
// The note body goes through the HTML cleaner before it reaches the template,
// since store owners often paste formatted text into notes.
func (s *NotifyService) HandleOrderNote(ctx context.Context, orderID int64, note string) error {
	cfg := config.Get()
	if !cfg.OrderNoteEnabled || cfg.OrderNoteTemplate == "" {
		return nil
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	shop := template.Shop{Name: cfg.ShopName, URL: cfg.ShopUrl, Currency: cfg.ShopCurrency}
	extras := map[string]string{"note_content": template.CleanText(note)}
	text := template.Render(cfg.OrderNoteTemplate, template.OrderContext(order, shop, extras))
	s.deliver(ctx, cfg, order.Billing.Phone, order.Billing.Country, text, &order.ID, model.DeliveryKindOrderNote)
	return nil
}

// ScanReviewReminders sends the review template for every due reminder. A
// reminder is claimed before sending, so it fires at most once even with
// overlapping scans.
func (s *NotifyService) ScanReviewReminders(ctx context.Context) error {
	cfg := config.Get()
	if !cfg.ReviewReminderEnabled || cfg.ReviewReminderTemplate == "" {
		return nil
	}

	due, err := s.orders.FindDueReviewReminders(ctx, s.now(), 100)
	if err != nil {
		return err
	}

	shop := template.Shop{Name: cfg.ShopName, URL: cfg.ShopUrl, Currency: cfg.ShopCurrency}
	for _, reminder := range due {
		claimed, err := s.orders.MarkReviewSent(ctx, reminder.ID, s.now())
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}

		order, err := s.orders.GetByID(ctx, reminder.OrderID)
		if err != nil {
			logger.Error("review reminder order lookup failed", "order_id", reminder.OrderID, "error", err)
			continue
		}

		text := template.Render(cfg.ReviewReminderTemplate, template.OrderContext(order, shop, nil))
		result, err := s.sender.Send(ctx, order.Billing.Phone, order.Billing.Country, text, "")
		success := err == nil && result.Success
		reason := ""
		if err != nil {
			reason = err.Error()
		} else if !result.Success {
			reason = result.Message
		}
		s.logDelivery(ctx, cfg, &model.DeliveryLog{
			Recipient: order.Billing.Phone,
			Kind:      model.DeliveryKindReviewReminder,
			OrderID:   &order.ID,
			Success:   success,
			Reason:    reason,
		})
	}
	return nil
}

// SendTest delivers a raw message so operators can verify credentials.
func (s *NotifyService) SendTest(ctx context.Context, phone, message string) (*gateway.SendResult, error) {
	cfg := config.Get()
	result, err := s.sender.Send(ctx, phone, "", message, "")
	if err != nil {
		return nil, err
	}
	s.logDelivery(ctx, cfg, &model.DeliveryLog{
		Recipient: result.Recipient,
		Kind:      model.DeliveryKindTest,
		Success:   result.Success,
		Reason:    result.Message,
	})
	return result, nil
}

func (s *NotifyService) deliver(ctx context.Context, cfg *config.Config, phone, country, text string, orderID *int64, kind string) {
	result, err := s.sender.Send(ctx, phone, country, text, "")
	success := err == nil && result.Success
	reason := ""
	recipient := phone
	if err != nil {
		reason = err.Error()
	} else {
		recipient = result.Recipient
		if !result.Success {
			reason = result.Message
		}
	}
	if !success {
		logger.Warn("order notification failed", "recipient", phone, "reason", reason)
	}
	s.logDelivery(ctx, cfg, &model.DeliveryLog{
		Recipient: recipient,
		Kind:      kind,
		OrderID:   orderID,
		Success:   success,
		Reason:    reason,
	})
}

func (s *NotifyService) logDelivery(ctx context.Context, cfg *config.Config, entry *model.DeliveryLog) {
	if !cfg.EnableDeliveryLog || s.logs == nil {
		return
	}
	if _, err := s.logs.Create(ctx, entry); err != nil {
		logger.Error("failed to write delivery log", "error", err)
	}
}
