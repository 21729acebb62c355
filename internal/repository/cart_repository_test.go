package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartwisp/recovery-gateway/internal/model"
)

func captureParams(session string) model.CaptureParams {
	return model.CaptureParams{
		SessionID: session,
		Billing: model.BillingSnapshot{
			FirstName: "Laura",
			LastName:  "Gomez",
			Email:     "laura@example.com",
			Phone:     "573001234567",
			City:      "Bogota",
			Country:   "CO",
		},
		Items: []model.CartItem{
			{ProductID: 11, Quantity: 2},
			{ProductID: 12, Quantity: 1},
		},
		CartTotal: 149.90,
	}
}

func TestCartRepository_Upsert(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCartRepository(db)
	ctx := context.Background()

	t.Run("first capture creates active cart", func(t *testing.T) {
		cart, err := repo.Upsert(ctx, captureParams("sess-1"))
		require.NoError(t, err)
		assert.NotZero(t, cart.ID)
		assert.Equal(t, model.CartStatusActive, cart.Status)
		assert.Len(t, cart.RecoveryToken, 32)
		assert.False(t, cart.StepSent(1))
	})

	t.Run("re-capture updates in place and keeps token", func(t *testing.T) {
		first, err := repo.Upsert(ctx, captureParams("sess-2"))
		require.NoError(t, err)

		sent, err := repo.MarkStepSent(ctx, first.ID, 1, false)
		require.NoError(t, err)
		require.True(t, sent)

		p := captureParams("sess-2")
		p.CartTotal = 200
		p.Items = append(p.Items, model.CartItem{ProductID: 13, Quantity: 3})

		second, err := repo.Upsert(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.RecoveryToken, second.RecoveryToken)
		assert.Equal(t, 200.0, second.CartTotal)
		assert.Len(t, second.Items, 3)
		assert.True(t, second.StepSent(1), "sent flags survive re-capture")
	})

	t.Run("re-capture moves updated_at forward", func(t *testing.T) {
		first, err := repo.Upsert(ctx, captureParams("sess-3"))
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		second, err := repo.Upsert(ctx, captureParams("sess-3"))
		require.NoError(t, err)
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	})

	t.Run("capture after recovery opens a fresh cart", func(t *testing.T) {
		first, err := repo.Upsert(ctx, captureParams("sess-4"))
		require.NoError(t, err)
		require.NoError(t, repo.MarkRecovered(ctx, first.ID))

		second, err := repo.Upsert(ctx, captureParams("sess-4"))
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
		assert.NotEqual(t, first.RecoveryToken, second.RecoveryToken)
		assert.Equal(t, model.CartStatusActive, second.Status)
	})

	t.Run("rejects cart without contact", func(t *testing.T) {
		p := captureParams("sess-5")
		p.Billing.Phone = ""
		p.Billing.Email = ""
		_, err := repo.Upsert(ctx, p)
		assert.ErrorIs(t, err, model.ErrMissingContact)
	})

	t.Run("rejects empty cart", func(t *testing.T) {
		p := captureParams("sess-6")
		p.Items = nil
		_, err := repo.Upsert(ctx, p)
		assert.ErrorIs(t, err, model.ErrEmptyCart)
	})
}

func TestCartRepository_MarkStepSent(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCartRepository(db)
	ctx := context.Background()

	cart, err := repo.Upsert(ctx, captureParams("sess-steps"))
	require.NoError(t, err)

	t.Run("flips the flag once", func(t *testing.T) {
		flipped, err := repo.MarkStepSent(ctx, cart.ID, 1, false)
		require.NoError(t, err)
		assert.True(t, flipped)

		again, err := repo.MarkStepSent(ctx, cart.ID, 1, false)
		require.NoError(t, err)
		assert.False(t, again, "already-set flag must not flip again")
	})

	t.Run("does not touch updated_at", func(t *testing.T) {
		before, err := repo.GetByID(ctx, cart.ID)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		_, err = repo.MarkStepSent(ctx, cart.ID, 2, false)
		require.NoError(t, err)

		after, err := repo.GetByID(ctx, cart.ID)
		require.NoError(t, err)
		assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	})

	t.Run("last enabled step closes the cart", func(t *testing.T) {
		flipped, err := repo.MarkStepSent(ctx, cart.ID, 3, true)
		require.NoError(t, err)
		assert.True(t, flipped)

		got, err := repo.GetByID(ctx, cart.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CartStatusSent, got.Status)
		assert.True(t, got.AllSent())
	})

	t.Run("rejects out of range step", func(t *testing.T) {
		_, err := repo.MarkStepSent(ctx, cart.ID, 4, false)
		assert.Error(t, err)
	})
}

func TestCartRepository_FindDueCandidates(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCartRepository(db)
	ctx := context.Background()

	active, err := repo.Upsert(ctx, captureParams("sess-a"))
	require.NoError(t, err)

	recovered, err := repo.Upsert(ctx, captureParams("sess-b"))
	require.NoError(t, err)
	require.NoError(t, repo.MarkRecovered(ctx, recovered.ID))

	done, err := repo.Upsert(ctx, captureParams("sess-c"))
	require.NoError(t, err)
	for step := 1; step <= model.ReminderSteps; step++ {
		_, err = repo.MarkStepSent(ctx, done.ID, step, step == model.ReminderSteps)
		require.NoError(t, err)
	}

	candidates, err := repo.FindDueCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, active.ID, candidates[0].ID)
}

func TestCartRepository_MarkRecovered(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCartRepository(db)
	ctx := context.Background()

	cart, err := repo.Upsert(ctx, captureParams("sess-rec"))
	require.NoError(t, err)

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, repo.MarkRecovered(ctx, cart.ID))
		require.NoError(t, repo.MarkRecovered(ctx, cart.ID))

		got, err := repo.GetByID(ctx, cart.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CartStatusRecovered, got.Status)
	})

	t.Run("by session resolves only active carts", func(t *testing.T) {
		matched, err := repo.MarkRecoveredBySession(ctx, "sess-rec")
		require.NoError(t, err)
		assert.False(t, matched, "already recovered cart is not active")

		fresh, err := repo.Upsert(ctx, captureParams("sess-rec2"))
		require.NoError(t, err)

		matched, err = repo.MarkRecoveredBySession(ctx, "sess-rec2")
		require.NoError(t, err)
		assert.True(t, matched)

		got, err := repo.GetByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CartStatusRecovered, got.Status)
	})
}

func TestCartRepository_GetByRecoveryToken(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCartRepository(db)
	ctx := context.Background()

	cart, err := repo.Upsert(ctx, captureParams("sess-token"))
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		got, err := repo.GetByRecoveryToken(ctx, cart.RecoveryToken)
		require.NoError(t, err)
		assert.Equal(t, cart.ID, got.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := repo.GetByRecoveryToken(ctx, "deadbeefdeadbeefdeadbeefdeadbeef")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestCartRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCartRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Upsert(ctx, captureParams("sess-list-"+string(rune('a'+i))))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	t.Run("list all", func(t *testing.T) {
		carts, total, err := repo.List(ctx, model.CartFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, carts, 5)
	})

	t.Run("pagination", func(t *testing.T) {
		carts, total, err := repo.List(ctx, model.CartFilter{Limit: 2, Offset: 4})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, carts, 1)
	})

	t.Run("status filter", func(t *testing.T) {
		status := model.CartStatusRecovered
		carts, total, err := repo.List(ctx, model.CartFilter{Status: &status, Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, carts)
	})

	t.Run("phone filter", func(t *testing.T) {
		phone := "573001234567"
		_, total, err := repo.List(ctx, model.CartFilter{Phone: &phone, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
	})
}
