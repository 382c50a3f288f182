package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del libro de movimientos. Todos son de precondición: la transacción nunca se confirma.
var (
	ErrInvalidQuantity            = errors.New("la cantidad debe ser mayor que cero")
	ErrSameWarehouse              = errors.New("la bodega origen y destino son la misma")
	ErrNoChange                   = errors.New("el ajuste no produce cambio de stock")
	ErrInsufficientWarehouseStock = errors.New("stock insuficiente en la bodega")
	ErrInsufficientTotalStock     = errors.New("stock total insuficiente")
	ErrAlreadyReversed            = errors.New("el movimiento ya fue revertido")
	ErrReversalWouldUnderflow     = errors.New("la reversión dejaría stock negativo")
	ErrConcurrencyTimeout         = errors.New("tiempo de espera de bloqueo agotado, reintente")
	ErrUnknownProduct             = errors.New("producto no encontrado")
	ErrUnknownWarehouse           = errors.New("bodega no encontrada")
	ErrUnknownMovement            = errors.New("movimiento no encontrado")
	ErrWarehouseInactive          = errors.New("la bodega está desactivada")
	ErrWarehouseHasStock          = errors.New("la bodega aún tiene stock")
)

// StockError detalla un rechazo por saldo: cuánto había y cuánto se pidió.
// errors.Is(err, ErrInsufficientWarehouseStock) sigue funcionando vía Unwrap.
type StockError struct {
	Kind        error
	ProductID   string
	WarehouseID string
	Available   int64
	Requested   int64
}

func (e *StockError) Error() string {
	if e.WarehouseID == "" {
		return fmt.Sprintf("%s: producto %s disponible=%d solicitado=%d", e.Kind, e.ProductID, e.Available, e.Requested)
	}
	return fmt.Sprintf("%s: producto %s bodega %s disponible=%d solicitado=%d",
		e.Kind, e.ProductID, e.WarehouseID, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error { return e.Kind }

// IsRetryable indica si el caller puede reintentar la operación tal cual.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyTimeout)
}

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidQuantity, "INVALID_QUANTITY"},
	{ErrSameWarehouse, "SAME_WAREHOUSE"},
	{ErrNoChange, "NO_CHANGE"},
	{ErrInsufficientWarehouseStock, "INSUFFICIENT_WAREHOUSE_STOCK"},
	{ErrInsufficientTotalStock, "INSUFFICIENT_TOTAL_STOCK"},
	{ErrAlreadyReversed, "ALREADY_REVERSED"},
	{ErrReversalWouldUnderflow, "REVERSAL_WOULD_UNDERFLOW"},
	{ErrConcurrencyTimeout, "CONCURRENCY_TIMEOUT"},
	{ErrUnknownProduct, "UNKNOWN_PRODUCT"},
	{ErrUnknownWarehouse, "UNKNOWN_WAREHOUSE"},
	{ErrUnknownMovement, "UNKNOWN_MOVEMENT"},
	{ErrWarehouseInactive, "WAREHOUSE_INACTIVE"},
	{ErrWarehouseHasStock, "WAREHOUSE_HAS_STOCK"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrInvalidInput, "INVALID_INPUT"},
	{ErrDuplicate, "DUPLICATE"},
	{ErrUnauthorized, "UNAUTHORIZED"},
	{ErrForbidden, "FORBIDDEN"},
	{ErrConflict, "CONFLICT"},
}

// Code devuelve el código estable del error de dominio ("INTERNAL" si no es uno conocido).
// Lo usan las respuestas HTTP y las etiquetas de métricas.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}
