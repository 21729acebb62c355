package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/pkg/pg"
)

type OrderRepository struct {
	*pg.DB
}

func NewOrderRepository(db *pg.DB) *OrderRepository {
	return &OrderRepository{db}
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var entity OrderEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toOrderModel(&entity), nil
}

func (r *OrderRepository) Upsert(ctx context.Context, o *model.Order) (*model.Order, error) {
	entity := toOrderEntity(o)
	if entity.ID == 0 {
		if err := r.Write(ctx).Create(entity).Error; err != nil {
			return nil, err
		}
		return toOrderModel(entity), nil
	}
	err := r.Write(ctx).Save(entity).Error
	if err != nil {
		return nil, err
	}
	return toOrderModel(entity), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	res := r.Write(ctx).Model(&OrderEntity{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ScheduleReviewReminder arranges a one-shot follow-up for the order. The
// unique index on order_id makes rescheduling on a repeated completed event
// a no-op rather than a second reminder.
func (r *OrderRepository) ScheduleReviewReminder(ctx context.Context, orderID int64, dueAt time.Time) error {
	entity := &ReviewReminderEntity{OrderID: orderID, DueAt: dueAt}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

func (r *OrderRepository) FindDueReviewReminders(ctx context.Context, now time.Time, limit int) ([]*model.ReviewReminder, error) {
	var entities []*ReviewReminderEntity
	err := r.Read(ctx).
		Where("sent_at IS NULL AND due_at <= ?", now).
		Order("due_at ASC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	reminders := make([]*model.ReviewReminder, len(entities))
	for i, e := range entities {
		reminders[i] = toReviewReminderModel(e)
	}
	return reminders, nil
}

// MarkReviewSent flips sent_at only if it is still unset, so two overlapping
// scans cannot both claim the same reminder.
func (r *OrderRepository) MarkReviewSent(ctx context.Context, id int64, now time.Time) (bool, error) {
	res := r.Write(ctx).Model(&ReviewReminderEntity{}).
		Where("id = ? AND sent_at IS NULL", id).
		Update("sent_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
