package coupon

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cartwisp/recovery-gateway/internal/model"
	"github.com/cartwisp/recovery-gateway/internal/repository"
	"github.com/cartwisp/recovery-gateway/pkg/pg"
)

func setupIssuer(t *testing.T) (*Issuer, *repository.CouponRepository) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// one in-memory database shared by every goroutine
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	type couponEntity struct {
		ID             int64     `gorm:"primaryKey;autoIncrement;column:id"`
		Code           string    `gorm:"column:code;not null;uniqueIndex"`
		DiscountType   string    `gorm:"column:discount_type;not null"`
		DiscountAmount float64   `gorm:"column:discount_amount;not null"`
		UsageLimit     int       `gorm:"column:usage_limit;not null;default:1"`
		Used           bool      `gorm:"column:used;not null;default:false"`
		CustomerPhone  string    `gorm:"column:customer_phone"`
		CustomerEmail  string    `gorm:"column:customer_email"`
		CartID         *int64    `gorm:"column:cart_id"`
		OrderID        *int64    `gorm:"column:order_id"`
		MessageNumber  int       `gorm:"column:message_number;not null;default:0"`
		CreatedAt      time.Time `gorm:"column:created_at"`
		ExpiresAt      time.Time `gorm:"column:expires_at;not null"`
	}
	type discountEntity struct {
		ID             int64     `gorm:"primaryKey;autoIncrement;column:id"`
		Code           string    `gorm:"column:code;not null;uniqueIndex"`
		DiscountType   string    `gorm:"column:discount_type;not null"`
		Amount         float64   `gorm:"column:amount;not null"`
		UsageLimit     int       `gorm:"column:usage_limit;not null;default:1"`
		EmailRestraint string    `gorm:"column:email_restraint"`
		IndividualUse  bool      `gorm:"column:individual_use;not null;default:true"`
		ExpiresAt      time.Time `gorm:"column:expires_at;not null"`
		CreatedAt      time.Time `gorm:"column:created_at"`
	}

	require.NoError(t, db.Table("coupon").AutoMigrate(&couponEntity{}))
	require.NoError(t, db.Table("discount").AutoMigrate(&discountEntity{}))

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()
	for _, field := range []string{"read", "write"} {
		f := pgDBValue.FieldByName(field)
		f = reflect.NewAt(f.Type(), f.Addr().UnsafePointer()).Elem()
		f.Set(reflect.ValueOf(db))
	}

	repo := repository.NewCouponRepository(pgDB)
	return NewIssuer(pgDB, repo), repo
}

func issueParams() model.IssueParams {
	return model.IssueParams{
		DiscountType:   model.DiscountPercent,
		DiscountAmount: 10,
		ExpiryDays:     7,
		UsageLimit:     1,
		CustomerPhone:  "573001234567",
		CustomerEmail:  "laura@example.com",
		MessageNumber:  2,
		Prefix:         "CARTWISP",
	}
}

func TestIssuer_Issue(t *testing.T) {
	issuer, repo := setupIssuer(t)
	ctx := context.Background()

	t.Run("issues tracking and discount together", func(t *testing.T) {
		issued, err := issuer.Issue(ctx, issueParams())
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(issued.Code, "CARTWISP-M2-"))
		assert.Len(t, issued.Code, len("CARTWISP-M2-")+6)
		assert.False(t, issued.Used)
		assert.True(t, issued.ExpiresAt.After(time.Now().Add(6*24*time.Hour)))

		tracked, err := repo.GetByCode(ctx, issued.Code)
		require.NoError(t, err)
		assert.Equal(t, 2, tracked.MessageNumber)
	})

	t.Run("step marker omitted without message number", func(t *testing.T) {
		p := issueParams()
		p.MessageNumber = 0
		issued, err := issuer.Issue(ctx, p)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(issued.Code, "CARTWISP-"))
		assert.NotContains(t, issued.Code, "-M0-")
	})

	t.Run("codes are unique across issues", func(t *testing.T) {
		seen := make(map[string]bool)
		for n := 0; n < 20; n++ {
			issued, err := issuer.Issue(ctx, issueParams())
			require.NoError(t, err)
			assert.False(t, seen[issued.Code], "duplicate code %s", issued.Code)
			seen[issued.Code] = true
		}
	})

	t.Run("invalid params rejected", func(t *testing.T) {
		p := issueParams()
		p.DiscountAmount = 0
		_, err := issuer.Issue(ctx, p)
		assert.Error(t, err)

		p = issueParams()
		p.DiscountType = "bogus"
		_, err = issuer.Issue(ctx, p)
		assert.Error(t, err)
	})
}

func TestIssuer_ConcurrentIssue(t *testing.T) {
	issuer, _ := setupIssuer(t)
	ctx := context.Background()

	const workers = 8
	const perWorker = 5

	var mu sync.Mutex
	codes := make(map[string]bool)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < perWorker; n++ {
				issued, err := issuer.Issue(ctx, issueParams())
				assert.NoError(t, err)
				if issued == nil {
					continue
				}
				mu.Lock()
				assert.False(t, codes[issued.Code], "duplicate code %s", issued.Code)
				codes[issued.Code] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, codes, workers*perWorker)
}

func TestIssuer_Redeem(t *testing.T) {
	issuer, repo := setupIssuer(t)
	ctx := context.Background()

	issued, err := issuer.Issue(ctx, issueParams())
	require.NoError(t, err)

	require.NoError(t, issuer.Redeem(ctx, issued.Code))

	got, err := repo.GetByCode(ctx, issued.Code)
	require.NoError(t, err)
	assert.True(t, got.Used)

	assert.ErrorIs(t, issuer.Redeem(ctx, issued.Code), model.ErrNotFound)
}

func TestIssuer_SweepExpired(t *testing.T) {
	issuer, repo := setupIssuer(t)
	ctx := context.Background()

	p := issueParams()
	p.ExpiryDays = 1
	issued, err := issuer.Issue(ctx, p)
	require.NoError(t, err)

	swept, err := issuer.SweepExpired(ctx, time.Now().AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	_, err = repo.GetByCode(ctx, issued.Code)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
