package recovery

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/pkg/redis"
)

type fakeCartStore struct {
	byToken map[string]*model.AbandonedCart
}

func (s *fakeCartStore) GetByRecoveryToken(ctx context.Context, token string) (*model.AbandonedCart, error) {
	if c, ok := s.byToken[token]; ok {
		return c, nil
	}
	return nil, model.ErrNotFound
}

func (s *fakeCartStore) MarkRecovered(ctx context.Context, id int64) error {
	for _, c := range s.byToken {
		if c.ID == id {
			c.Status = model.CartStatusRecovered
		}
	}
	return nil
}

type fakeProductStore struct {
	products map[int64]*model.Product
}

func (s *fakeProductStore) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, model.ErrNotFound
}

type fakeCouponStore struct {
	byCart map[int64]*model.Coupon
}

func (s *fakeCouponStore) LatestUnusedForCart(ctx context.Context, cartID int64, now time.Time) (*model.Coupon, error) {
	if c, ok := s.byCart[cartID]; ok {
		return c, nil
	}
	return nil, model.ErrNotFound
}

func testSessions(t *testing.T) *SessionStore {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return NewSessionStore(redis.NewAdapterWithClient(client, "test"))
}

func recoverableCart() *model.AbandonedCart {
	return &model.AbandonedCart{
		ID:            1,
		SessionID:     "sess-1",
		RecoveryToken: "tok-1",
		Status:        model.CartStatusActive,
		Billing: model.BillingSnapshot{
			FirstName: "Laura",
			Phone:     "573001234567",
			Email:     "laura@example.com",
			City:      "Bogota",
		},
		Items: []model.CartItem{
			{ProductID: 11, Quantity: 2},
			{ProductID: 12, Quantity: 1},
			{ProductID: 13, Quantity: 1},
		},
		CartTotal: 100,
	}
}

func newTestService(t *testing.T, carts *fakeCartStore, coupons *fakeCouponStore) (*Service, *SessionStore) {
	sessions := testSessions(t)
	products := &fakeProductStore{products: map[int64]*model.Product{
		11: {ID: 11, Name: "Blue mug", StockQty: 5, Purchasable: true},
		12: {ID: 12, Name: "Red plate", StockQty: 0, Purchasable: true}, // out of stock
		// 13 no longer exists
	}}
	return NewService(carts, products, coupons, sessions, "http://shop.example/checkout"), sessions
}

func TestService_Recover(t *testing.T) {
	ctx := context.Background()

	t.Run("restores available lines and billing", func(t *testing.T) {
		cart := recoverableCart()
		carts := &fakeCartStore{byToken: map[string]*model.AbandonedCart{"tok-1": cart}}
		svc, sessions := newTestService(t, carts, &fakeCouponStore{})

		outcome, err := svc.Recover(ctx, "tok-1")
		require.NoError(t, err)

		assert.Equal(t, int64(1), outcome.CartID)
		assert.False(t, outcome.AlreadyRecovered)
		assert.Equal(t, 1, outcome.ItemsRestored, "only the in-stock purchasable line")
		assert.Equal(t, 2, outcome.ItemsFailed)
		assert.Equal(t, "http://shop.example/checkout", outcome.CheckoutURL)
		assert.Equal(t, model.CartStatusRecovered, cart.Status)

		items, err := sessions.GetCart("sess-1")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, int64(11), items[0].ProductID)

		billing, err := sessions.GetBilling("sess-1")
		require.NoError(t, err)
		assert.Equal(t, "Laura", billing.FirstName)
		assert.Equal(t, "Bogota", billing.City)
	})

	t.Run("applies latest unused coupon", func(t *testing.T) {
		cart := recoverableCart()
		carts := &fakeCartStore{byToken: map[string]*model.AbandonedCart{"tok-1": cart}}
		coupons := &fakeCouponStore{byCart: map[int64]*model.Coupon{
			1: {Code: "CW-M2-APPLY1"},
		}}
		svc, _ := newTestService(t, carts, coupons)

		outcome, err := svc.Recover(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "CW-M2-APPLY1", outcome.CouponCode)
	})

	t.Run("second click is an idempotent no-op", func(t *testing.T) {
		cart := recoverableCart()
		carts := &fakeCartStore{byToken: map[string]*model.AbandonedCart{"tok-1": cart}}
		svc, _ := newTestService(t, carts, &fakeCouponStore{})

		_, err := svc.Recover(ctx, "tok-1")
		require.NoError(t, err)

		outcome, err := svc.Recover(ctx, "tok-1")
		require.NoError(t, err)
		assert.True(t, outcome.AlreadyRecovered)
		assert.Zero(t, outcome.ItemsRestored)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeCartStore{byToken: map[string]*model.AbandonedCart{}}, &fakeCouponStore{})
		_, err := svc.Recover(ctx, "missing")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("every line failing still recovers the cart", func(t *testing.T) {
		cart := recoverableCart()
		cart.Items = []model.CartItem{{ProductID: 13, Quantity: 1}}
		carts := &fakeCartStore{byToken: map[string]*model.AbandonedCart{"tok-1": cart}}
		svc, _ := newTestService(t, carts, &fakeCouponStore{})

		outcome, err := svc.Recover(ctx, "tok-1")
		require.NoError(t, err)
		assert.Zero(t, outcome.ItemsRestored)
		assert.Equal(t, 1, outcome.ItemsFailed)
		assert.Equal(t, model.CartStatusRecovered, cart.Status)
	})
}
