package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartwisp/recovery-gateway/internal/model"
)

func testCoupon(code string, expires time.Time) *model.Coupon {
	return &model.Coupon{
		Code:           code,
		DiscountType:   model.DiscountPercent,
		DiscountAmount: 10,
		UsageLimit:     1,
		CustomerPhone:  "573001234567",
		MessageNumber:  2,
		ExpiresAt:      expires,
	}
}

func TestCouponRepository_CreateTracking(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()
	expires := time.Now().Add(7 * 24 * time.Hour)

	t.Run("create successfully", func(t *testing.T) {
		created, err := repo.CreateTracking(ctx, testCoupon("CW-M2-AAAAAA", expires))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.False(t, created.Used)
	})

	t.Run("duplicate code is rejected", func(t *testing.T) {
		_, err := repo.CreateTracking(ctx, testCoupon("CW-M2-AAAAAA", expires))
		assert.ErrorIs(t, err, ErrDuplicateCode)
	})
}

func TestCouponRepository_MarkUsed(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()
	expires := time.Now().Add(7 * 24 * time.Hour)

	_, err := repo.CreateTracking(ctx, testCoupon("CW-M1-USED01", expires))
	require.NoError(t, err)

	t.Run("first use succeeds", func(t *testing.T) {
		require.NoError(t, repo.MarkUsed(ctx, "CW-M1-USED01"))

		got, err := repo.GetByCode(ctx, "CW-M1-USED01")
		require.NoError(t, err)
		assert.True(t, got.Used)
	})

	t.Run("second use fails", func(t *testing.T) {
		err := repo.MarkUsed(ctx, "CW-M1-USED01")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("unknown code fails", func(t *testing.T) {
		err := repo.MarkUsed(ctx, "CW-M1-NOSUCH")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestCouponRepository_LatestUnusedForCart(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()
	now := time.Now()
	cartID := int64(42)

	older := testCoupon("CW-M1-OLDER1", now.Add(24*time.Hour))
	older.CartID = &cartID
	older.CreatedAt = now.Add(-2 * time.Hour)
	_, err := repo.CreateTracking(ctx, older)
	require.NoError(t, err)

	newer := testCoupon("CW-M2-NEWER1", now.Add(24*time.Hour))
	newer.CartID = &cartID
	newer.CreatedAt = now.Add(-1 * time.Hour)
	_, err = repo.CreateTracking(ctx, newer)
	require.NoError(t, err)

	t.Run("newest usable wins", func(t *testing.T) {
		got, err := repo.LatestUnusedForCart(ctx, cartID, now)
		require.NoError(t, err)
		assert.Equal(t, "CW-M2-NEWER1", got.Code)
	})

	t.Run("used coupons are skipped", func(t *testing.T) {
		require.NoError(t, repo.MarkUsed(ctx, "CW-M2-NEWER1"))

		got, err := repo.LatestUnusedForCart(ctx, cartID, now)
		require.NoError(t, err)
		assert.Equal(t, "CW-M1-OLDER1", got.Code)
	})

	t.Run("no usable coupon", func(t *testing.T) {
		_, err := repo.LatestUnusedForCart(ctx, int64(999), now)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestCouponRepository_SweepExpired(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()
	now := time.Now()

	mk := func(code string, expires time.Time, used bool) {
		c := testCoupon(code, expires)
		c.Used = used
		_, err := repo.CreateTracking(ctx, c)
		require.NoError(t, err)
		_, err = repo.CreateDiscount(ctx, &model.Discount{
			Code:         code,
			DiscountType: model.DiscountPercent,
			Amount:       10,
			UsageLimit:   1,
			ExpiresAt:    expires,
		})
		require.NoError(t, err)
	}

	mk("CW-M1-EXPUNU", now.Add(-time.Hour), false) // expired, unused: swept
	mk("CW-M1-EXPUSE", now.Add(-time.Hour), true)  // expired, used: kept for stats
	mk("CW-M1-LIVE01", now.Add(time.Hour), false)  // still live: kept

	swept, err := repo.SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	_, err = repo.GetByCode(ctx, "CW-M1-EXPUNU")
	assert.ErrorIs(t, err, model.ErrNotFound)

	kept, err := repo.GetByCode(ctx, "CW-M1-EXPUSE")
	require.NoError(t, err)
	assert.True(t, kept.Used)

	_, err = repo.GetByCode(ctx, "CW-M1-LIVE01")
	require.NoError(t, err)

	t.Run("nothing left to sweep", func(t *testing.T) {
		swept, err := repo.SweepExpired(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, swept)
	})
}

func TestCouponRepository_Stats(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()
	now := time.Now()

	for _, c := range []struct {
		code    string
		expires time.Time
		used    bool
	}{
		{"CW-M1-STAT01", now.Add(time.Hour), true},
		{"CW-M2-STAT02", now.Add(time.Hour), false},
		{"CW-M3-STAT03", now.Add(-time.Hour), false},
		{"CW-M1-STAT04", now.Add(time.Hour), true},
	} {
		coupon := testCoupon(c.code, c.expires)
		coupon.Used = c.used
		_, err := repo.CreateTracking(ctx, coupon)
		require.NoError(t, err)
	}

	stats, err := repo.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalGenerated)
	assert.Equal(t, int64(2), stats.TotalUsed)
	assert.Equal(t, int64(1), stats.TotalActive)
	assert.Equal(t, int64(1), stats.TotalExpired)
	assert.InDelta(t, 50.0, stats.ConversionRate, 0.01)
}

func TestCouponRepository_HasActiveForCustomer(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()
	now := time.Now()
	cartID := int64(7)

	c := testCoupon("CW-M1-ACTIVE", now.Add(time.Hour))
	c.CartID = &cartID
	_, err := repo.CreateTracking(ctx, c)
	require.NoError(t, err)

	has, err := repo.HasActiveForCustomer(ctx, "573001234567", nil, now)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasActiveForCustomer(ctx, "573001234567", &cartID, now)
	require.NoError(t, err)
	assert.True(t, has)

	other := int64(8)
	has, err = repo.HasActiveForCustomer(ctx, "573001234567", &other, now)
	require.NoError(t, err)
	assert.False(t, has)
}
