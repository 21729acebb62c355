package repository

import (
	"context"

	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/pkg/pg"
)

type DeliveryLogRepository struct {
	*pg.DB
}

func NewDeliveryLogRepository(db *pg.DB) *DeliveryLogRepository {
	return &DeliveryLogRepository{db}
}

func (r *DeliveryLogRepository) Create(ctx context.Context, l *model.DeliveryLog) (*model.DeliveryLog, error) {
	entity := toDeliveryLogEntity(l)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toDeliveryLogModel(entity), nil
}

func (r *DeliveryLogRepository) ListRecent(ctx context.Context, limit int) ([]*model.DeliveryLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entities []*DeliveryLogEntity
	err := r.Read(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	logs := make([]*model.DeliveryLog, len(entities))
	for i, e := range entities {
		logs[i] = toDeliveryLogModel(e)
	}
	return logs, nil
}
