package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterProductRequest alta de la referencia de un producto del catálogo en el libro.
// ID es opcional: el catálogo puede enviar el suyo para mantener la misma identidad.
type RegisterProductRequest struct {
	ID   string `json:"id" validate:"omitempty,uuid"`
	SKU  string `json:"sku" validate:"required,min=1,max=100"`
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// ProductResponse salida de un producto. Cost y TotalStock solo cambian vía movimientos.
type ProductResponse struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Cost       decimal.Decimal `json:"cost"`
	TotalStock int64           `json:"total_stock"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
