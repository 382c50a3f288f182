// Package integration traduce eventos de los módulos externos (ventas/POS, despachos, reclamos,
// compras) a documentos del libro de stock. Ninguno escribe saldos directamente: todo pasa por
// MovementService.RecordBatch, así cada documento se aplica completo o no se aplica.
package integration

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Motivos con los que cada flujo etiqueta sus movimientos.
const (
	ReasonSale                 = "sale"
	ReasonSaleCancellation     = "sale_cancellation"
	ReasonShipment             = "shipment"
	ReasonShipmentCancellation = "shipment_cancellation"
	ReasonClaimReturn          = "claim_return"
	ReasonPurchaseReceipt      = "purchase_receipt"
)

// ClaimReturn único tipo de reclamo que mueve stock.
const ClaimReturn = "return"

// BatchRecorder lo que los consumidores necesitan del servicio de movimientos.
type BatchRecorder interface {
	RecordBatch(ctx context.Context, in inventory.BatchInput) (*inventory.MovementResult, error)
}

// Line una línea del documento externo.
type Line struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
}

// Document documento externo identificado por su ID (venta, despacho, reclamo).
type Document struct {
	TenantID string
	UserID   string
	ID       string
	Notes    string
	Lines    []Line
}

// ReceivedLine línea recibida de una orden de compra, con su costo unitario.
type ReceivedLine struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
	UnitCost    *decimal.Decimal
}

// PurchaseReceipt recepción (parcial o total) de una orden de compra.
type PurchaseReceipt struct {
	TenantID        string
	UserID          string
	PurchaseOrderID string
	Notes           string
	Lines           []ReceivedLine
}

// Claim reclamo aprobado; solo los de tipo "return" reingresan mercancía.
type Claim struct {
	Document
	Type               string
	ReceivingWarehouse string
}

// Consumers agrupa los cuatro contratos de integración.
type Consumers struct {
	ledger BatchRecorder
}

// NewConsumers construye los consumidores sobre el servicio de movimientos.
func NewConsumers(ledger BatchRecorder) *Consumers {
	return &Consumers{ledger: ledger}
}

// CompleteSale descuenta el stock de una venta (referencia = ID de la venta).
func (c *Consumers) CompleteSale(ctx context.Context, sale Document) (*inventory.MovementResult, error) {
	return c.record(ctx, sale, entity.MovementOutbound, ReasonSale)
}

// CancelSale reingresa lo vendido con la misma referencia. Es un movimiento de negocio nuevo,
// no una reversión del libro: la salida original pudo haber sido conciliada después.
func (c *Consumers) CancelSale(ctx context.Context, sale Document) (*inventory.MovementResult, error) {
	return c.record(ctx, sale, entity.MovementInbound, ReasonSaleCancellation)
}

// ConfirmShipment descuenta el stock del despacho en las bodegas elegidas.
func (c *Consumers) ConfirmShipment(ctx context.Context, shipment Document) (*inventory.MovementResult, error) {
	return c.record(ctx, shipment, entity.MovementOutbound, ReasonShipment)
}

// CancelShipment reingresa las cantidades de un despacho cancelado o eliminado.
func (c *Consumers) CancelShipment(ctx context.Context, shipment Document) (*inventory.MovementResult, error) {
	return c.record(ctx, shipment, entity.MovementInbound, ReasonShipmentCancellation)
}

// ApproveClaim reingresa la mercancía de un reclamo de devolución en la bodega receptora.
// Otros tipos de reclamo no tocan stock y devuelven (nil, nil).
func (c *Consumers) ApproveClaim(ctx context.Context, claim Claim) (*inventory.MovementResult, error) {
	if claim.Type != ClaimReturn {
		return nil, nil
	}
	if claim.ReceivingWarehouse == "" {
		return nil, domain.ErrInvalidInput
	}
	doc := claim.Document
	doc.Lines = make([]Line, len(claim.Lines))
	for i, l := range claim.Lines {
		l.WarehouseID = claim.ReceivingWarehouse
		doc.Lines[i] = l
	}
	return c.record(ctx, doc, entity.MovementInbound, ReasonClaimReturn)
}

// ReceivePurchase ingresa lo recibido de una orden de compra y recalcula el costo promedio.
func (c *Consumers) ReceivePurchase(ctx context.Context, in PurchaseReceipt) (*inventory.MovementResult, error) {
	if in.PurchaseOrderID == "" {
		return nil, domain.ErrInvalidInput
	}
	lines := make([]inventory.BatchLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.BatchLine{
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
		})
	}
	return c.ledger.RecordBatch(ctx, inventory.BatchInput{
		TenantID:    in.TenantID,
		UserID:      in.UserID,
		Kind:        entity.MovementInbound,
		ReferenceID: in.PurchaseOrderID,
		Reason:      ReasonPurchaseReceipt,
		Notes:       in.Notes,
		Lines:       lines,
	})
}

func (c *Consumers) record(ctx context.Context, doc Document, kind entity.MovementKind, reason string) (*inventory.MovementResult, error) {
	if doc.ID == "" {
		return nil, domain.ErrInvalidInput
	}
	lines := make([]inventory.BatchLine, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		lines = append(lines, inventory.BatchLine{ProductID: l.ProductID, WarehouseID: l.WarehouseID, Quantity: l.Quantity})
	}
	return c.ledger.RecordBatch(ctx, inventory.BatchInput{
		TenantID:    doc.TenantID,
		UserID:      doc.UserID,
		Kind:        kind,
		ReferenceID: doc.ID,
		Reason:      reason,
		Notes:       doc.Notes,
		Lines:       lines,
	})
}
