package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/pkg/database"
)

func fulfillReq() *model.FulfillRequest {
	return &model.FulfillRequest{
		UserID:    "u-1",
		ProductID: "p-1",
		PaymentID: "pay_123",
	}
}

func subscriptionProduct() *model.Product {
	return &model.Product{
		ID:           "p-1",
		Name:         "Premium 30 days",
		Price:        200,
		BenefitType:  model.BenefitSubscriptionDays,
		BenefitValue: 30,
		IsActive:     true,
	}
}

func TestFulfillmentService_Fulfill_FirstSubscription(t *testing.T) {
	tx := &mockTx{}
	pool := &mockTxBeginner{beginFn: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}

	var subExpiry time.Time
	var donor bool
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "buyer@example.com"}, nil
		},
		setSubscriptionFn: func(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time, isDonor bool) error {
			subExpiry = expiresAt
			donor = isDonor
			return nil
		},
	}
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return subscriptionProduct(), nil
		},
	}
	var record *model.PaymentRecord
	payments := &mockPaymentRepository{
		insertFn: func(ctx context.Context, q database.TxQuerier, p *model.PaymentRecord) error {
			record = p
			return nil
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(pool, users, products, &mockCouponRepository{}, &mockUsageRepository{}, payments)

	before := time.Now().UTC()
	err := svc.Fulfill(context.Background(), fulfillReq())
	after := time.Now().UTC()

	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.True(t, donor)
	// No prior subscription: the clock starts from now.
	assert.False(t, subExpiry.Before(before.Add(30*24*time.Hour)))
	assert.False(t, subExpiry.After(after.Add(30*24*time.Hour)))

	require.NotNil(t, record)
	assert.Equal(t, "pay_123", record.PaymentID)
	assert.Equal(t, "buyer@example.com", record.UserEmail)
	assert.Equal(t, 200.0, record.Amount)
	assert.Equal(t, "INR", record.Currency)
	assert.Equal(t, "30 days", record.DurationLabel)
	assert.Nil(t, record.CouponCode)
}

func TestFulfillmentService_Fulfill_ExtendsRunningSubscription(t *testing.T) {
	current := time.Now().UTC().Add(10 * 24 * time.Hour)
	var subExpiry time.Time
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id, SubscriptionExpiresAt: &current}, nil
		},
		setSubscriptionFn: func(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time, isDonor bool) error {
			subExpiry = expiresAt
			return nil
		},
	}
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return subscriptionProduct(), nil
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(&mockTxBeginner{}, users, products, &mockCouponRepository{}, &mockUsageRepository{}, &mockPaymentRepository{})

	require.NoError(t, svc.Fulfill(context.Background(), fulfillReq()))

	// Stacking: the new expiry extends the running clock, not now.
	assert.Equal(t, current.Add(30*24*time.Hour), subExpiry)
}

func TestFulfillmentService_Fulfill_APIDaysExtendClock(t *testing.T) {
	apiKey := "qk_live_abc"
	current := time.Now().UTC().Add(5 * 24 * time.Hour)
	var apiExpiry time.Time
	subTouched := false
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id, APIKey: &apiKey, APIExpiresAt: &current}, nil
		},
		setAPIExpiryFn: func(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time) error {
			apiExpiry = expiresAt
			return nil
		},
		setSubscriptionFn: func(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time, isDonor bool) error {
			subTouched = true
			return nil
		},
	}
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return &model.Product{
				ID:           "p-1",
				Price:        100,
				BenefitType:  model.BenefitAPIDays,
				BenefitValue: 90,
				IsActive:     true,
			}, nil
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(&mockTxBeginner{}, users, products, &mockCouponRepository{}, &mockUsageRepository{}, &mockPaymentRepository{})

	require.NoError(t, svc.Fulfill(context.Background(), fulfillReq()))

	assert.Equal(t, current.Add(90*24*time.Hour), apiExpiry)
	assert.False(t, subTouched, "API days must not touch the subscription clock")
}

func TestFulfillmentService_Fulfill_APIDaysSkippedWithoutAPIAccess(t *testing.T) {
	tx := &mockTx{}
	pool := &mockTxBeginner{beginFn: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		setAPIExpiryFn: func(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time) error {
			t.Fatal("API expiry must not be written for a user without API access")
			return nil
		},
	}
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return &model.Product{ID: "p-1", Price: 100, BenefitType: model.BenefitAPIDays, BenefitValue: 90, IsActive: true}, nil
		},
	}
	recorded := false
	payments := &mockPaymentRepository{
		insertFn: func(ctx context.Context, q database.TxQuerier, p *model.PaymentRecord) error {
			recorded = true
			return nil
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(pool, users, products, &mockCouponRepository{}, &mockUsageRepository{}, payments)

	// The purchase still completes and the audit row is written.
	require.NoError(t, svc.Fulfill(context.Background(), fulfillReq()))
	assert.True(t, recorded)
	assert.True(t, tx.committed)
}

func TestFulfillmentService_Fulfill_UserNotFound(t *testing.T) {
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return nil, ErrUserNotFound
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(&mockTxBeginner{}, users, &mockProductRepository{}, &mockCouponRepository{}, &mockUsageRepository{}, &mockPaymentRepository{})

	err := svc.Fulfill(context.Background(), fulfillReq())

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFulfillmentService_Fulfill_ProductNotFound(t *testing.T) {
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return nil, ErrProductNotFound
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(&mockTxBeginner{}, users, products, &mockCouponRepository{}, &mockUsageRepository{}, &mockPaymentRepository{})

	err := svc.Fulfill(context.Background(), fulfillReq())

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestFulfillmentService_Fulfill_ConsumesCoupon(t *testing.T) {
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "buyer@example.com"}, nil
		},
	}
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return subscriptionProduct(), nil
		},
	}
	incremented := ""
	coupons := &mockCouponRepository{
		getByCodeForUpdateFn: func(ctx context.Context, q database.TxQuerier, code string) (*model.Coupon, error) {
			return &model.Coupon{
				ID:            "c-1",
				Code:          code,
				DiscountType:  model.DiscountPercent,
				DiscountValue: 10,
				OnePerUser:    true,
			}, nil
		},
		incrementUsesFn: func(ctx context.Context, q database.TxQuerier, id string) error {
			incremented = id
			return nil
		},
	}
	var usageRow *model.CouponUsage
	usage := &mockUsageRepository{
		insertFn: func(ctx context.Context, q database.TxQuerier, u *model.CouponUsage) error {
			usageRow = u
			return nil
		},
	}
	var record *model.PaymentRecord
	payments := &mockPaymentRepository{
		insertFn: func(ctx context.Context, q database.TxQuerier, p *model.PaymentRecord) error {
			record = p
			return nil
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(&mockTxBeginner{}, users, products, coupons, usage, payments)

	req := fulfillReq()
	req.CouponCode = "SAVE10"
	require.NoError(t, svc.Fulfill(context.Background(), req))

	assert.Equal(t, "c-1", incremented)
	require.NotNil(t, usageRow)
	assert.Equal(t, "c-1", usageRow.CouponID)
	assert.Equal(t, "u-1", usageRow.UserID)

	require.NotNil(t, record)
	assert.Equal(t, 180.0, record.Amount)
	require.NotNil(t, record.CouponCode)
	assert.Equal(t, "SAVE10", *record.CouponCode)
}

func TestFulfillmentService_Fulfill_ExhaustedCouponSkipped(t *testing.T) {
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return subscriptionProduct(), nil
		},
	}
	coupons := &mockCouponRepository{
		getByCodeForUpdateFn: func(ctx context.Context, q database.TxQuerier, code string) (*model.Coupon, error) {
			return &model.Coupon{ID: "c-1", Code: code, DiscountType: model.DiscountFlat, DiscountValue: 50}, nil
		},
		incrementUsesFn: func(ctx context.Context, q database.TxQuerier, id string) error {
			return ErrCouponExhausted
		},
	}
	usage := &mockUsageRepository{
		insertFn: func(ctx context.Context, q database.TxQuerier, u *model.CouponUsage) error {
			t.Fatal("usage must not be recorded when the increment is refused")
			return nil
		},
	}
	var record *model.PaymentRecord
	payments := &mockPaymentRepository{
		insertFn: func(ctx context.Context, q database.TxQuerier, p *model.PaymentRecord) error {
			record = p
			return nil
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(&mockTxBeginner{}, users, products, coupons, usage, payments)

	req := fulfillReq()
	req.CouponCode = "FULL"
	// The buyer already paid: the limit violation skips the discount
	// instead of failing the purchase.
	require.NoError(t, svc.Fulfill(context.Background(), req))

	require.NotNil(t, record)
	assert.Equal(t, 200.0, record.Amount)
	assert.Nil(t, record.CouponCode)
}

func TestFulfillmentService_Fulfill_UnresolvedCouponSkipped(t *testing.T) {
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return subscriptionProduct(), nil
		},
	}
	coupons := &mockCouponRepository{
		getByCodeForUpdateFn: func(ctx context.Context, q database.TxQuerier, code string) (*model.Coupon, error) {
			return nil, ErrCouponNotFound
		},
	}
	var record *model.PaymentRecord
	payments := &mockPaymentRepository{
		insertFn: func(ctx context.Context, q database.TxQuerier, p *model.PaymentRecord) error {
			record = p
			return nil
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(&mockTxBeginner{}, users, products, coupons, &mockUsageRepository{}, payments)

	req := fulfillReq()
	req.CouponCode = "GHOST"
	require.NoError(t, svc.Fulfill(context.Background(), req))

	require.NotNil(t, record)
	assert.Equal(t, 200.0, record.Amount)
}

func TestFulfillmentService_Fulfill_DecrementsLimitedStock(t *testing.T) {
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	product := subscriptionProduct()
	product.LimitQuantity = true
	product.Stock = intPtr(3)
	decremented := ""
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return product, nil
		},
		decrementStockFn: func(ctx context.Context, q database.TxQuerier, id string) error {
			decremented = id
			return nil
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(&mockTxBeginner{}, users, products, &mockCouponRepository{}, &mockUsageRepository{}, &mockPaymentRepository{})

	require.NoError(t, svc.Fulfill(context.Background(), fulfillReq()))
	assert.Equal(t, "p-1", decremented)
}

func TestFulfillmentService_Fulfill_OutOfStockDoesNotFailPurchase(t *testing.T) {
	tx := &mockTx{}
	pool := &mockTxBeginner{beginFn: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	product := subscriptionProduct()
	product.LimitQuantity = true
	product.Stock = intPtr(0)
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return product, nil
		},
		decrementStockFn: func(ctx context.Context, q database.TxQuerier, id string) error {
			return ErrOutOfStock
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(pool, users, products, &mockCouponRepository{}, &mockUsageRepository{}, &mockPaymentRepository{})

	require.NoError(t, svc.Fulfill(context.Background(), fulfillReq()))
	assert.True(t, tx.committed)
}

func TestFulfillmentService_Fulfill_RollsBackOnWriteFailure(t *testing.T) {
	rolledBack := false
	tx := &mockTx{
		rollbackFn: func(ctx context.Context) error {
			rolledBack = true
			return nil
		},
	}
	pool := &mockTxBeginner{beginFn: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		setSubscriptionFn: func(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time, isDonor bool) error {
			return errors.New("write failed")
		},
	}
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return subscriptionProduct(), nil
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(pool, users, products, &mockCouponRepository{}, &mockUsageRepository{}, &mockPaymentRepository{})

	err := svc.Fulfill(context.Background(), fulfillReq())

	require.Error(t, err)
	assert.True(t, rolledBack)
	assert.False(t, tx.committed)
}

func TestFulfillmentService_Fulfill_CustomCurrency(t *testing.T) {
	users := &mockUserRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	products := &mockProductRepository{
		getForUpdateFn: func(ctx context.Context, q database.TxQuerier, id string) (*model.Product, error) {
			return subscriptionProduct(), nil
		},
	}
	var record *model.PaymentRecord
	payments := &mockPaymentRepository{
		insertFn: func(ctx context.Context, q database.TxQuerier, p *model.PaymentRecord) error {
			record = p
			return nil
		},
	}
	svc := NewFulfillmentServiceWithTxBeginner(&mockTxBeginner{}, users, products, &mockCouponRepository{}, &mockUsageRepository{}, payments)

	req := fulfillReq()
	req.Currency = "USD"
	require.NoError(t, svc.Fulfill(context.Background(), req))

	require.NotNil(t, record)
	assert.Equal(t, "USD", record.Currency)
}

func TestFulfillmentService_Fulfill_InvalidRequest(t *testing.T) {
	svc := NewFulfillmentServiceWithTxBeginner(&mockTxBeginner{}, &mockUserRepository{}, &mockProductRepository{}, &mockCouponRepository{}, &mockUsageRepository{}, &mockPaymentRepository{})

	assert.ErrorIs(t, svc.Fulfill(context.Background(), nil), ErrInvalidRequest)
	assert.ErrorIs(t, svc.Fulfill(context.Background(), &model.FulfillRequest{UserID: "u-1"}), ErrInvalidRequest)
}

func TestExtendClock(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("no prior clock starts from now", func(t *testing.T) {
		got := extendClock(nil, now, 30)
		assert.Equal(t, now.Add(30*24*time.Hour), got)
	})

	t.Run("running clock stacks", func(t *testing.T) {
		current := now.Add(10 * 24 * time.Hour)
		got := extendClock(&current, now, 30)
		assert.Equal(t, current.Add(30*24*time.Hour), got)
	})

	t.Run("lapsed clock restarts from now", func(t *testing.T) {
		current := now.Add(-5 * 24 * time.Hour)
		got := extendClock(&current, now, 30)
		assert.Equal(t, now.Add(30*24*time.Hour), got)
	})
}
