package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, tenant_id, sku, name, cost, total_stock, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.TenantID, product.SKU, product.Name, product.Cost,
		product.TotalStock, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID dentro del tenant.
func (r *ProductRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE).
func (r *ProductRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

func (r *ProductRepo) get(ctx context.Context, query, tenantID, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Cost, &p.TotalStock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// UpdateTotalStock escribe el total cacheado. Solo lo llama el proyector de saldos.
func (r *ProductRepo) UpdateTotalStock(ctx context.Context, tenantID, id string, totalStock int64) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET total_stock = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, totalStock)
	if err != nil {
		if isCheckViolation(err, "products_total_stock_nonnegative") {
			return domain.ErrInsufficientTotalStock
		}
		return fmt.Errorf("update total stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUnknownProduct
	}
	return nil
}

// UpdateCost actualiza el costo promedio ponderado.
func (r *ProductRepo) UpdateCost(ctx context.Context, tenantID, id string, cost decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET cost = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, cost)
	if err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUnknownProduct
	}
	return nil
}

// ListIDs pagina por keyset (id > afterID) para que la conciliación no se salte filas.
func (r *ProductRepo) ListIDs(ctx context.Context, tenantID, afterID string, limit int) ([]string, error) {
	query := `SELECT id FROM products WHERE tenant_id = $1`
	args := []any{tenantID}
	if afterID != "" {
		query += ` AND id > $2`
		args = append(args, afterID)
	}
	query += fmt.Sprintf(` ORDER BY id LIMIT %d`, limit)
	return r.listStrings(ctx, "list product ids", query, args...)
}

// ListTenantIDs tenants con al menos un producto.
func (r *ProductRepo) ListTenantIDs(ctx context.Context) ([]string, error) {
	return r.listStrings(ctx, "list tenants", `SELECT DISTINCT tenant_id FROM products ORDER BY tenant_id`)
}

func (r *ProductRepo) listStrings(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
