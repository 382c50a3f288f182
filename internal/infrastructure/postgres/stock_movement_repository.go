package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, tenant_id, product_id, warehouse_id, counter_warehouse_id, kind, delta,
	transfer_group_id, unit_cost, reason, notes, reference_id, created_by, created_at, reversed_at, reversed_by`

// StockMovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
// Las filas no se borran ni se editan; solo reversed_at/reversed_by se escriben una vez.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento del libro.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, tenant_id, product_id, warehouse_id, counter_warehouse_id, kind, delta,
			transfer_group_id, unit_cost, reason, notes, reference_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TenantID, m.ProductID, nullString(m.WarehouseID), nullString(m.CounterWarehouseID),
		string(m.Kind), m.Delta, nullString(m.TransferGroupID), m.UnitCost,
		m.Reason, m.Notes, m.ReferenceID, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockMovement, error) {
	return r.get(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetForUpdate obtiene el movimiento y bloquea la fila.
func (r *StockMovementRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockMovement, error) {
	return r.get(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

func (r *StockMovementRepo) get(ctx context.Context, query, tenantID, id string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// ListTransferGroupForUpdate bloquea las dos piernas del traslado en orden de id.
func (r *StockMovementRepo) ListTransferGroupForUpdate(ctx context.Context, tenantID, groupID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE tenant_id = $1 AND transfer_group_id = $2
		ORDER BY id
		FOR UPDATE`
	return r.list(ctx, "list transfer group", query, tenantID, groupID)
}

// MarkReversed marca el movimiento como revertido. Falla si ya lo estaba.
func (r *StockMovementRepo) MarkReversed(ctx context.Context, tenantID, id string, at time.Time, by string) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE stock_movements SET reversed_at = $3, reversed_by = $4
		WHERE tenant_id = $1 AND id = $2 AND reversed_at IS NULL`,
		tenantID, id, at, by)
	if err != nil {
		return fmt.Errorf("mark movement reversed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrAlreadyReversed
	}
	return nil
}

// List lista el libro con filtros opcionales, más reciente primero.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE tenant_id = $1`
	args := []any{f.TenantID}
	pos := 2
	add := func(cond string, v any) {
		query += fmt.Sprintf(" AND "+cond, pos)
		args = append(args, v)
		pos++
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.WarehouseID != "" {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.ReferenceID != "" {
		add("reference_id = $%d", f.ReferenceID)
	}
	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)
	return r.list(ctx, "list stock movements", query, args...)
}

// ReplayProduct suma los deltas vivos del producto agrupados por bodega y tipo.
func (r *StockMovementRepo) ReplayProduct(ctx context.Context, tenantID, productID string) (*repository.LedgerReplay, error) {
	rows, err := r.q.Query(ctx, `
		SELECT warehouse_id, kind, COALESCE(SUM(delta), 0)
		FROM stock_movements
		WHERE tenant_id = $1 AND product_id = $2 AND reversed_at IS NULL
		GROUP BY warehouse_id, kind`, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("replay product: %w", err)
	}
	defer rows.Close()
	out := &repository.LedgerReplay{ByWarehouse: map[string]int64{}}
	for rows.Next() {
		var (
			warehouseID *string
			kind        string
			sum         int64
		)
		if err := rows.Scan(&warehouseID, &kind, &sum); err != nil {
			return nil, fmt.Errorf("scan replay: %w", err)
		}
		if !entity.MovementKind(kind).IsTransfer() {
			out.Total += sum
		}
		if warehouseID != nil {
			out.ByWarehouse[*warehouseID] += sum
		}
	}
	return out, rows.Err()
}

func (r *StockMovementRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		// Un filtro con id mal formado equivale a "sin resultados".
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m                                      entity.StockMovement
		kind                                   string
		warehouseID, counterID, groupID, revBy *string
	)
	err := row.Scan(
		&m.ID, &m.TenantID, &m.ProductID, &warehouseID, &counterID, &kind, &m.Delta,
		&groupID, &m.UnitCost, &m.Reason, &m.Notes, &m.ReferenceID, &m.CreatedBy, &m.CreatedAt,
		&m.ReversedAt, &revBy,
	)
	if err != nil {
		return nil, err
	}
	m.Kind = entity.MovementKind(kind)
	m.WarehouseID = fromNull(warehouseID)
	m.CounterWarehouseID = fromNull(counterID)
	m.TransferGroupID = fromNull(groupID)
	m.ReversedBy = fromNull(revBy)
	return &m, nil
}
