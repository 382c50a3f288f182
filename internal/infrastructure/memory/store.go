// Package memory implementa los puertos del libro en memoria, con la misma semántica
// transaccional que el adaptador PostgreSQL: cada Run trabaja sobre una copia y solo la
// publica si fn no falla. Run se serializa con un único cerrojo, equivalente a bloquear todas
// las filas; la espera respeta el contexto y el lock timeout como lo hace PostgreSQL.
// Se usa en pruebas y con DB_DRIVER=memory para desarrollo local.
package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type stockKey struct {
	tenantID, productID, warehouseID string
}

type state struct {
	products   map[string]*entity.Product
	warehouses map[string]*entity.Warehouse
	stock      map[stockKey]*entity.WarehouseStock
	movements  []*entity.StockMovement
}

func newState() *state {
	return &state{
		products:   map[string]*entity.Product{},
		warehouses: map[string]*entity.Warehouse{},
		stock:      map[stockKey]*entity.WarehouseStock{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		p := *v
		c.products[k] = &p
	}
	for k, v := range s.warehouses {
		w := *v
		c.warehouses[k] = &w
	}
	for k, v := range s.stock {
		st := *v
		c.stock[k] = &st
	}
	c.movements = make([]*entity.StockMovement, len(s.movements))
	for i, m := range s.movements {
		c.movements[i] = copyMovement(m)
	}
	return c
}

// Store estado en memoria con TxRunner y repos "de pool".
type Store struct {
	sem         *semaphore.Weighted
	lockTimeout time.Duration
	state       *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{sem: semaphore.NewWeighted(1), state: newState()}
}

// WithLockTimeout limita la espera del cerrojo en Run. d <= 0 espera hasta que venza ctx.
func (s *Store) WithLockTimeout(d time.Duration) *Store {
	s.lockTimeout = d
	return s
}

// acquire toma el cerrojo o falla con ErrConcurrencyTimeout si vence la espera.
// Una cancelación explícita de ctx se devuelve tal cual.
func (s *Store) acquire(ctx context.Context) error {
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}
	err := s.sem.Acquire(ctx, 1)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrConcurrencyTimeout, err)
	}
	return err
}

func (s *Store) release() { s.sem.Release(1) }

// Run ejecuta fn sobre una copia del estado y la confirma si no hay error (Commit/Rollback).
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.WarehouseStockRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	work := s.state.clone()
	view := &txView{st: work}
	if err := fn(&MovementRepo{v: view}, &StockRepo{v: view}, &ProductRepo{v: view}, &WarehouseRepo{v: view}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Products repositorio fuera de transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{v: &poolView{s: s}} }

// Warehouses repositorio fuera de transacción.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{v: &poolView{s: s}} }

// Stock repositorio fuera de transacción.
func (s *Store) Stock() *StockRepo { return &StockRepo{v: &poolView{s: s}} }

// Movements repositorio fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{v: &poolView{s: s}} }

// view da acceso al estado: dentro de Run ya se tiene el mutex; fuera se toma por llamada.
type view interface {
	with(fn func(st *state) error) error
}

type txView struct{ st *state }

func (v *txView) with(fn func(st *state) error) error { return fn(v.st) }

type poolView struct{ s *Store }

func (v *poolView) with(fn func(st *state) error) error {
	_ = v.s.sem.Acquire(context.Background(), 1)
	defer v.s.release()
	return fn(v.s.state)
}

func copyMovement(m *entity.StockMovement) *entity.StockMovement {
	c := *m
	if m.ReversedAt != nil {
		t := *m.ReversedAt
		c.ReversedAt = &t
	}
	return &c
}
