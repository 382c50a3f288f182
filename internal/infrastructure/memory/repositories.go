package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dominv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.ProductRepository        = (*ProductRepo)(nil)
	_ repository.WarehouseRepository      = (*WarehouseRepo)(nil)
	_ repository.WarehouseStockRepository = (*StockRepo)(nil)
	_ repository.StockMovementRepository  = (*MovementRepo)(nil)
)

// ProductRepo productos en memoria.
type ProductRepo struct{ v view }

func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.products[product.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, p := range st.products {
			if p.TenantID == product.TenantID && p.SKU == product.SKU {
				return domain.ErrDuplicate
			}
		}
		p := *product
		st.products[p.ID] = &p
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.with(func(st *state) error {
		if p, ok := st.products[id]; ok && p.TenantID == tenantID {
			c := *p
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Product, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *ProductRepo) UpdateTotalStock(_ context.Context, tenantID, id string, totalStock int64) error {
	return r.v.with(func(st *state) error {
		p, ok := st.products[id]
		if !ok || p.TenantID != tenantID {
			return domain.ErrUnknownProduct
		}
		if totalStock < 0 {
			return domain.ErrInsufficientTotalStock
		}
		p.TotalStock = totalStock
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *ProductRepo) UpdateCost(_ context.Context, tenantID, id string, cost decimal.Decimal) error {
	return r.v.with(func(st *state) error {
		p, ok := st.products[id]
		if !ok || p.TenantID != tenantID {
			return domain.ErrUnknownProduct
		}
		p.Cost = cost
		return nil
	})
}

func (r *ProductRepo) ListIDs(_ context.Context, tenantID, afterID string, limit int) ([]string, error) {
	var ids []string
	err := r.v.with(func(st *state) error {
		for id, p := range st.products {
			if p.TenantID == tenantID && id > afterID {
				ids = append(ids, id)
			}
		}
		return nil
	})
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, err
}

func (r *ProductRepo) ListTenantIDs(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	err := r.v.with(func(st *state) error {
		for _, p := range st.products {
			if !seen[p.TenantID] {
				seen[p.TenantID] = true
				ids = append(ids, p.TenantID)
			}
		}
		return nil
	})
	sort.Strings(ids)
	return ids, err
}

// WarehouseRepo bodegas en memoria.
type WarehouseRepo struct{ v view }

func (r *WarehouseRepo) Create(_ context.Context, warehouse *entity.Warehouse) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.warehouses[warehouse.ID]; ok {
			return domain.ErrDuplicate
		}
		w := *warehouse
		st.warehouses[w.ID] = &w
		return nil
	})
}

func (r *WarehouseRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.v.with(func(st *state) error {
		if w, ok := st.warehouses[id]; ok && w.TenantID == tenantID {
			c := *w
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *WarehouseRepo) GetForShare(ctx context.Context, tenantID, id string) (*entity.Warehouse, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *WarehouseRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Warehouse, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *WarehouseRepo) SetActive(_ context.Context, tenantID, id string, active bool) error {
	return r.v.with(func(st *state) error {
		w, ok := st.warehouses[id]
		if !ok || w.TenantID != tenantID {
			return domain.ErrUnknownWarehouse
		}
		w.Active = active
		w.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *WarehouseRepo) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*entity.Warehouse, error) {
	var list []*entity.Warehouse
	err := r.v.with(func(st *state) error {
		for _, w := range st.warehouses {
			if w.TenantID == tenantID {
				c := *w
				list = append(list, &c)
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return page(list, limit, offset), err
}

// StockRepo saldos por bodega en memoria.
type StockRepo struct{ v view }

func (r *StockRepo) GetForUpdate(_ context.Context, tenantID, productID, warehouseID string) (*entity.WarehouseStock, error) {
	out := &entity.WarehouseStock{TenantID: tenantID, ProductID: productID, WarehouseID: warehouseID}
	err := r.v.with(func(st *state) error {
		if s, ok := st.stock[stockKey{tenantID, productID, warehouseID}]; ok {
			*out = *s
		}
		return nil
	})
	return out, err
}

func (r *StockRepo) Upsert(_ context.Context, stock *entity.WarehouseStock) error {
	return r.v.with(func(st *state) error {
		if stock.Quantity < 0 {
			return domain.ErrInsufficientWarehouseStock
		}
		s := *stock
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = time.Now().UTC()
		}
		st.stock[stockKey{s.TenantID, s.ProductID, s.WarehouseID}] = &s
		return nil
	})
}

func (r *StockRepo) ListByProduct(_ context.Context, tenantID, productID string) ([]*entity.WarehouseStock, error) {
	var list []*entity.WarehouseStock
	err := r.v.with(func(st *state) error {
		for k, s := range st.stock {
			if k.tenantID == tenantID && k.productID == productID {
				c := *s
				list = append(list, &c)
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].WarehouseID < list[j].WarehouseID })
	return list, err
}

func (r *StockRepo) LockByProduct(ctx context.Context, tenantID, productID string) ([]*entity.WarehouseStock, error) {
	return r.ListByProduct(ctx, tenantID, productID)
}

func (r *StockRepo) ListByWarehouse(_ context.Context, tenantID, warehouseID string, limit, offset int) ([]*entity.WarehouseStock, error) {
	var list []*entity.WarehouseStock
	err := r.v.with(func(st *state) error {
		for k, s := range st.stock {
			if k.tenantID == tenantID && k.warehouseID == warehouseID {
				c := *s
				list = append(list, &c)
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return page(list, limit, offset), err
}

func (r *StockRepo) HasStock(_ context.Context, tenantID, warehouseID string) (bool, error) {
	var has bool
	err := r.v.with(func(st *state) error {
		for k, s := range st.stock {
			if k.tenantID == tenantID && k.warehouseID == warehouseID && s.Quantity != 0 {
				has = true
				return nil
			}
		}
		return nil
	})
	return has, err
}

// MovementRepo libro en memoria (orden de inserción).
type MovementRepo struct{ v view }

func (r *MovementRepo) Create(_ context.Context, movement *entity.StockMovement) error {
	return r.v.with(func(st *state) error {
		st.movements = append(st.movements, copyMovement(movement))
		return nil
	})
}

func (r *MovementRepo) GetByID(_ context.Context, tenantID, id string) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	err := r.v.with(func(st *state) error {
		for _, m := range st.movements {
			if m.ID == id && m.TenantID == tenantID {
				out = copyMovement(m)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockMovement, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *MovementRepo) ListTransferGroupForUpdate(_ context.Context, tenantID, groupID string) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	err := r.v.with(func(st *state) error {
		for _, m := range st.movements {
			if m.TenantID == tenantID && groupID != "" && m.TransferGroupID == groupID {
				list = append(list, copyMovement(m))
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, err
}

func (r *MovementRepo) MarkReversed(_ context.Context, tenantID, id string, at time.Time, by string) error {
	return r.v.with(func(st *state) error {
		for _, m := range st.movements {
			if m.ID == id && m.TenantID == tenantID {
				if m.ReversedAt != nil {
					return domain.ErrAlreadyReversed
				}
				t := at
				m.ReversedAt = &t
				m.ReversedBy = by
				return nil
			}
		}
		return domain.ErrUnknownMovement
	})
}

func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	err := r.v.with(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if m.TenantID != f.TenantID ||
				(f.ProductID != "" && m.ProductID != f.ProductID) ||
				(f.WarehouseID != "" && m.WarehouseID != f.WarehouseID) ||
				(f.ReferenceID != "" && m.ReferenceID != f.ReferenceID) ||
				(f.Kind != "" && m.Kind != f.Kind) ||
				(f.From != nil && m.CreatedAt.Before(*f.From)) ||
				(f.To != nil && m.CreatedAt.After(*f.To)) {
				continue
			}
			list = append(list, copyMovement(m))
		}
		return nil
	})
	return page(list, f.Limit, f.Offset), err
}

func (r *MovementRepo) ReplayProduct(_ context.Context, tenantID, productID string) (*repository.LedgerReplay, error) {
	var movs []*entity.StockMovement
	err := r.v.with(func(st *state) error {
		for _, m := range st.movements {
			if m.TenantID == tenantID && m.ProductID == productID {
				movs = append(movs, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dominv.Replay(movs), nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset > len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}
