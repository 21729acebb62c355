package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/pkg/pg"
)

type CartRepository struct {
	*pg.DB
}

func NewCartRepository(db *pg.DB) *CartRepository {
	return &CartRepository{db}
}

// Upsert stores the capture under the session's single active row. An
// existing active row keeps its recovery token and sent flags; the billing
// snapshot, contents, total and updated_at are overwritten, restarting the
// delay clock for any step not yet sent. Concurrent first captures of the
// same session race on the partial unique index; the loser retries as an
// update.
func (r *CartRepository) Upsert(ctx context.Context, p model.CaptureParams) (*model.AbandonedCart, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		existing, err := r.findActiveEntity(ctx, p.SessionID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		now := time.Now()
		if existing != nil {
			contents, _ := json.Marshal(p.Items)
			updates := map[string]interface{}{
				"user_id":            p.UserID,
				"billing_first_name": p.Billing.FirstName,
				"billing_last_name":  p.Billing.LastName,
				"billing_email":      p.Billing.Email,
				"billing_phone":      p.Billing.Phone,
				"billing_address_1":  p.Billing.Address1,
				"billing_city":       p.Billing.City,
				"billing_state":      p.Billing.State,
				"billing_postcode":   p.Billing.Postcode,
				"billing_country":    p.Billing.Country,
				"cart_contents":      string(contents),
				"cart_total":         p.CartTotal,
				"updated_at":         now,
			}
			if err := r.Write(ctx).Model(&CartEntity{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				return nil, err
			}
			return r.GetByID(ctx, existing.ID)
		}

		token, err := newRecoveryToken()
		if err != nil {
			return nil, err
		}
		cart := &model.AbandonedCart{
			SessionID: p.SessionID,
			UserID:    p.UserID,
			Billing:   p.Billing,
			Items:     p.Items,
			CartTotal: p.CartTotal,
			Status:    model.CartStatusActive,
		}
		entity := toCartEntity(cart)
		entity.RecoveryToken = token
		entity.CreatedAt = now
		entity.UpdatedAt = now

		err = r.Write(ctx).Create(entity).Error
		if err == nil {
			return toCartModel(entity), nil
		}
		if isUniqueViolation(err) {
			// lost the insert race, update the winner's row
			continue
		}
		return nil, err
	}
	return nil, errors.New("cart upsert: retry exhausted")
}

// MarkStepSent flips the sent flag for step (1-based) with a conditional
// update so overlapping scans cannot double-flip. When the step is the last
// enabled one the cart transitions to sent. Returns false when the flag was
// already set.
func (r *CartRepository) MarkStepSent(ctx context.Context, id int64, step int, lastEnabled bool) (bool, error) {
	if step < 1 || step > model.ReminderSteps {
		return false, fmt.Errorf("invalid reminder step %d", step)
	}

	col := fmt.Sprintf("msg%d_sent", step)
	updates := map[string]interface{}{col: true}
	if lastEnabled {
		updates["status"] = string(model.CartStatusSent)
	}

	res := r.Write(ctx).Model(&CartEntity{}).
		Where("id = ? AND "+col+" = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkRecovered is idempotent: the cart ends recovered regardless of its
// current state.
func (r *CartRepository) MarkRecovered(ctx context.Context, id int64) error {
	return r.Write(ctx).Model(&CartEntity{}).
		Where("id = ?", id).
		Update("status", string(model.CartStatusRecovered)).Error
}

// MarkRecoveredBySession resolves the session's active cart, if any, when a
// checkout completes through the normal flow.
func (r *CartRepository) MarkRecoveredBySession(ctx context.Context, sessionID string) (bool, error) {
	res := r.Write(ctx).Model(&CartEntity{}).
		Where("session_id = ? AND status = ?", sessionID, string(model.CartStatusActive)).
		Update("status", string(model.CartStatusRecovered))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindDueCandidates returns every active cart that still has at least one
// unsent reminder step. The per-step due decision belongs to the scheduler.
func (r *CartRepository) FindDueCandidates(ctx context.Context) ([]*model.AbandonedCart, error) {
	var entities []*CartEntity
	err := r.Read(ctx).
		Where("status = ?", string(model.CartStatusActive)).
		Where("NOT (msg1_sent AND msg2_sent AND msg3_sent)").
		Order("updated_at ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toCartModels(entities), nil
}

func (r *CartRepository) GetByRecoveryToken(ctx context.Context, token string) (*model.AbandonedCart, error) {
	var entity CartEntity
	err := r.Read(ctx).Where("recovery_token = ?", token).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toCartModel(&entity), nil
}

func (r *CartRepository) GetByID(ctx context.Context, id int64) (*model.AbandonedCart, error) {
	var entity CartEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toCartModel(&entity), nil
}

func (r *CartRepository) List(ctx context.Context, f model.CartFilter) ([]*model.AbandonedCart, int64, error) {
	q := r.Read(ctx).Model(&CartEntity{})

	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Phone != nil && *f.Phone != "" {
		q = q.Where("billing_phone = ?", *f.Phone)
	}
	if f.Email != nil && *f.Email != "" {
		q = q.Where("billing_email = ?", *f.Email)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*CartEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toCartModels(entities), total, nil
}

func (r *CartRepository) findActiveEntity(ctx context.Context, sessionID string) (*CartEntity, error) {
	var entity CartEntity
	err := r.Write(ctx).
		Where("session_id = ? AND status = ?", sessionID, string(model.CartStatusActive)).
		First(&entity).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func newRecoveryToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
