package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es el producto del catálogo (externo) tal como lo ve el libro de stock.
// TotalStock solo lo escribe el proyector de saldos; Cost es promedio ponderado de entradas.
type Product struct {
	ID         string
	TenantID   string
	SKU        string
	Name       string
	Cost       decimal.Decimal
	TotalStock int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
