package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestStockError_UnwrapAlSentinel(t *testing.T) {
	err := fmt.Errorf("outbound: %w", &domain.StockError{
		Kind: domain.ErrInsufficientWarehouseStock, ProductID: "p", WarehouseID: "w", Available: 2, Requested: 5,
	})
	assert.True(t, errors.Is(err, domain.ErrInsufficientWarehouseStock))
	assert.False(t, errors.Is(err, domain.ErrInsufficientTotalStock))
	assert.Contains(t, err.Error(), "disponible=2 solicitado=5")
	assert.Equal(t, "INSUFFICIENT_WAREHOUSE_STOCK", domain.Code(err))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "CONCURRENCY_TIMEOUT", domain.Code(fmt.Errorf("%w: 55P03", domain.ErrConcurrencyTimeout)))
	assert.Equal(t, "UNKNOWN_PRODUCT", domain.Code(domain.ErrUnknownProduct))
	assert.Equal(t, "INTERNAL", domain.Code(errors.New("boom")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, domain.IsRetryable(fmt.Errorf("tx: %w", domain.ErrConcurrencyTimeout)))
	assert.False(t, domain.IsRetryable(domain.ErrInsufficientWarehouseStock))
}
