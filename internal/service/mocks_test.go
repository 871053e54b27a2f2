package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/pkg/database"
)

// Hand-written function-field mocks shared by the service tests.

type mockURLRepository struct {
	upsertLiveFn      func(ctx context.Context, u *model.ShortenedURL) error
	getLiveByAliasFn  func(ctx context.Context, alias string) (*model.ShortenedURL, error)
	getByIDFn         func(ctx context.Context, id string) (*model.ShortenedURL, error)
	listByUserFn      func(ctx context.Context, userID string) ([]model.ShortenedURL, error)
	setExpiryFn       func(ctx context.Context, ids []string, expiresAt time.Time) error
	deleteFn          func(ctx context.Context, id string) error
	incrementClicksFn func(ctx context.Context, alias string) error
}

func (m *mockURLRepository) UpsertLive(ctx context.Context, u *model.ShortenedURL) error {
	if m.upsertLiveFn != nil {
		return m.upsertLiveFn(ctx, u)
	}
	return nil
}

func (m *mockURLRepository) GetLiveByAlias(ctx context.Context, alias string) (*model.ShortenedURL, error) {
	if m.getLiveByAliasFn != nil {
		return m.getLiveByAliasFn(ctx, alias)
	}
	return nil, nil
}

func (m *mockURLRepository) GetByID(ctx context.Context, id string) (*model.ShortenedURL, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockURLRepository) ListByUser(ctx context.Context, userID string) ([]model.ShortenedURL, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return []model.ShortenedURL{}, nil
}

func (m *mockURLRepository) SetExpiry(ctx context.Context, ids []string, expiresAt time.Time) error {
	if m.setExpiryFn != nil {
		return m.setExpiryFn(ctx, ids, expiresAt)
	}
	return nil
}

func (m *mockURLRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockURLRepository) IncrementClicks(ctx context.Context, alias string) error {
	if m.incrementClicksFn != nil {
		return m.incrementClicksFn(ctx, alias)
	}
	return nil
}

type mockUserRepository struct {
	insertFn          func(ctx context.Context, u *model.User) error
	getByIDFn         func(ctx context.Context, id string) (*model.User, error)
	getByEmailFn      func(ctx context.Context, email string) (*model.User, error)
	getForUpdateFn    func(ctx context.Context, tx database.TxQuerier, id string) (*model.User, error)
	setSubscriptionFn func(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time, isDonor bool) error
	setAPIExpiryFn    func(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time) error
}

func (m *mockUserRepository) Insert(ctx context.Context, u *model.User) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.User, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, id)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) SetSubscription(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time, isDonor bool) error {
	if m.setSubscriptionFn != nil {
		return m.setSubscriptionFn(ctx, q, id, expiresAt, isDonor)
	}
	return nil
}

func (m *mockUserRepository) SetAPIExpiry(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time) error {
	if m.setAPIExpiryFn != nil {
		return m.setAPIExpiryFn(ctx, q, id, expiresAt)
	}
	return nil
}

type mockCouponRepository struct {
	insertFn             func(ctx context.Context, c *model.Coupon) error
	getByCodeFn          func(ctx context.Context, code string) (*model.Coupon, error)
	getByCodeForUpdateFn func(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	incrementUsesFn      func(ctx context.Context, tx database.TxQuerier, id string) error
	deleteFn             func(ctx context.Context, id string) error
}

func (m *mockCouponRepository) Insert(ctx context.Context, c *model.Coupon) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, c)
	}
	return nil
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, nil
}

func (m *mockCouponRepository) GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	if m.getByCodeForUpdateFn != nil {
		return m.getByCodeForUpdateFn(ctx, tx, code)
	}
	return nil, ErrCouponNotFound
}

func (m *mockCouponRepository) IncrementUses(ctx context.Context, tx database.TxQuerier, id string) error {
	if m.incrementUsesFn != nil {
		return m.incrementUsesFn(ctx, tx, id)
	}
	return nil
}

func (m *mockCouponRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockUsageRepository struct {
	existsFn       func(ctx context.Context, q database.TxQuerier, couponID, userID string) (bool, error)
	existsInPoolFn func(ctx context.Context, couponID, userID string) (bool, error)
	insertFn       func(ctx context.Context, tx database.TxQuerier, u *model.CouponUsage) error
}

func (m *mockUsageRepository) Exists(ctx context.Context, q database.TxQuerier, couponID, userID string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, q, couponID, userID)
	}
	return false, nil
}

func (m *mockUsageRepository) ExistsInPool(ctx context.Context, couponID, userID string) (bool, error) {
	if m.existsInPoolFn != nil {
		return m.existsInPoolFn(ctx, couponID, userID)
	}
	return false, nil
}

func (m *mockUsageRepository) Insert(ctx context.Context, tx database.TxQuerier, u *model.CouponUsage) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, u)
	}
	return nil
}

type mockProductRepository struct {
	insertFn         func(ctx context.Context, p *model.Product) error
	getForUpdateFn   func(ctx context.Context, tx database.TxQuerier, id string) (*model.Product, error)
	listActiveFn     func(ctx context.Context) ([]model.Product, error)
	decrementStockFn func(ctx context.Context, tx database.TxQuerier, id string) error
	deleteFn         func(ctx context.Context, id string) error
}

func (m *mockProductRepository) Insert(ctx context.Context, p *model.Product) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, p)
	}
	return nil
}

func (m *mockProductRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Product, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, id)
	}
	return nil, ErrProductNotFound
}

func (m *mockProductRepository) ListActive(ctx context.Context) ([]model.Product, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return []model.Product{}, nil
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, tx database.TxQuerier, id string) error {
	if m.decrementStockFn != nil {
		return m.decrementStockFn(ctx, tx, id)
	}
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockPaymentRepository struct {
	insertFn func(ctx context.Context, q database.TxQuerier, p *model.PaymentRecord) error
}

func (m *mockPaymentRepository) Insert(ctx context.Context, q database.TxQuerier, p *model.PaymentRecord) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, q, p)
	}
	return nil
}

type mockGenerator struct {
	generateFn func(length int) (string, error)
}

func (m *mockGenerator) Generate(length int) (string, error) {
	if m.generateFn != nil {
		return m.generateFn(length)
	}
	return "abc1234", nil
}

type mockCache struct {
	getFn    func(ctx context.Context, alias string) (string, bool, error)
	setFn    func(ctx context.Context, alias, longURL string, ttl time.Duration) error
	deleteFn func(ctx context.Context, alias string) error
}

func (m *mockCache) Get(ctx context.Context, alias string) (string, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, alias)
	}
	return "", false, nil
}

func (m *mockCache) Set(ctx context.Context, alias, longURL string, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, alias, longURL, ttl)
	}
	return nil
}

func (m *mockCache) Delete(ctx context.Context, alias string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, alias)
	}
	return nil
}

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
	committed  bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

func intPtr(i int) *int         { return &i }
func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
