package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/internal/service"
	"github.com/quicklinkhq/quicklink/pkg/database"
)

const productColumns = `id, name, price, benefit_type, benefit_value, limit_quantity,
	stock, available_until, is_active, created_at`

// ProductRepository provides data access for shop products using pgx.
type ProductRepository struct {
	pool PoolInterface
}

// NewProductRepository creates a new ProductRepository with the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// NewProductRepositoryWithPool creates a ProductRepository with a custom pool
// interface. Primarily used for testing.
func NewProductRepositoryWithPool(pool PoolInterface) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.BenefitType, &p.BenefitValue, &p.LimitQuantity,
		&p.Stock, &p.AvailableUntil, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert inserts a new product.
func (r *ProductRepository) Insert(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (id, name, price, benefit_type, benefit_value, limit_quantity, stock, available_until, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Price, p.BenefitType, p.BenefitValue, p.LimitQuantity,
		p.Stock, p.AvailableUntil, p.IsActive)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by id.
// Returns nil, nil when not found (service layer handles this).
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by id %s: %w", id, err)
	}
	return p, nil
}

// GetForUpdate retrieves a product with a row lock (SELECT FOR UPDATE).
// Returns service.ErrProductNotFound if the product doesn't exist.
func (r *ProductRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Product, error) {
	p, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product for update %s: %w", id, err)
	}
	return p, nil
}

// ListActive retrieves products that are active and inside their availability
// window. Returns an empty slice (not nil) when none match.
func (r *ProductRepository) ListActive(ctx context.Context) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active AND (available_until IS NULL OR available_until > NOW())
		ORDER BY price`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.BenefitType, &p.BenefitValue,
			&p.LimitQuantity, &p.Stock, &p.AvailableUntil, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// DecrementStock decrements stock by 1 for a quantity-limited product. The
// floor check is part of the write predicate so stock can never go negative.
// Returns service.ErrOutOfStock when no stock remains.
func (r *ProductRepository) DecrementStock(ctx context.Context, tx database.TxQuerier, id string) error {
	query := `UPDATE products SET stock = stock - 1 WHERE id = $1 AND stock > 0`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("decrement stock for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrOutOfStock
	}
	return nil
}

// Delete removes a product by id.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}
