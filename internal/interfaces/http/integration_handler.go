package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/integration"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// IntegrationHandler recibe los eventos de ventas, despachos, reclamos y compras.
// El ID del documento viaja en la ruta y queda como reference_id de los movimientos.
type IntegrationHandler struct {
	consumers *integration.Consumers
	errs      errorWriter
}

// NewIntegrationHandler construye el handler.
func NewIntegrationHandler(consumers *integration.Consumers, log *logger.Logger) *IntegrationHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &IntegrationHandler{consumers: consumers, errs: errorWriter{log: log.Component("http")}}
}

type documentFn func(ctx context.Context, doc integration.Document) (*inventory.MovementResult, error)

func (h *IntegrationHandler) document(c *fiber.Ctx, fn documentFn) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.DocumentRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	doc := integration.Document{TenantID: tenantID, UserID: userID, ID: c.Params("id"), Notes: in.Notes}
	for _, l := range in.Lines {
		doc.Lines = append(doc.Lines, integration.Line{ProductID: l.ProductID, WarehouseID: l.WarehouseID, Quantity: l.Quantity})
	}
	res, err := fn(c.UserContext(), doc)
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(res))
}

// CompleteSale godoc
// @Summary      Descontar stock de una venta/POS
// @Tags         integrations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la venta"
// @Param        body  body  dto.DocumentRequest  true  "Líneas vendidas"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/integrations/sales/{id}/complete [post]
func (h *IntegrationHandler) CompleteSale(c *fiber.Ctx) error {
	return h.document(c, h.consumers.CompleteSale)
}

// CancelSale godoc
// @Summary      Reingresar stock de una venta anulada
// @Tags         integrations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la venta"
// @Param        body  body  dto.DocumentRequest  true  "Líneas anuladas"
// @Success      201   {object}  dto.MovementResponse
// @Router       /api/integrations/sales/{id}/cancel [post]
func (h *IntegrationHandler) CancelSale(c *fiber.Ctx) error {
	return h.document(c, h.consumers.CancelSale)
}

// ConfirmShipment godoc
// @Summary      Descontar stock de un despacho
// @Tags         integrations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del despacho"
// @Param        body  body  dto.DocumentRequest  true  "Líneas por bodega"
// @Success      201   {object}  dto.MovementResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/integrations/shipments/{id}/confirm [post]
func (h *IntegrationHandler) ConfirmShipment(c *fiber.Ctx) error {
	return h.document(c, h.consumers.ConfirmShipment)
}

// CancelShipment godoc
// @Summary      Reingresar stock de un despacho cancelado
// @Tags         integrations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del despacho"
// @Param        body  body  dto.DocumentRequest  true  "Líneas por bodega"
// @Success      201   {object}  dto.MovementResponse
// @Router       /api/integrations/shipments/{id}/cancel [post]
func (h *IntegrationHandler) CancelShipment(c *fiber.Ctx) error {
	return h.document(c, h.consumers.CancelShipment)
}

// ApproveClaim godoc
// @Summary      Aprobar reclamo
// @Description  Solo los reclamos de tipo "return" reingresan stock; el resto responde 204.
// @Tags         integrations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del reclamo"
// @Param        body  body  dto.ClaimApproveRequest  true  "Tipo, bodega receptora y líneas"
// @Success      201   {object}  dto.MovementResponse
// @Success      204   "reclamo sin movimiento de stock"
// @Router       /api/integrations/claims/{id}/approve [post]
func (h *IntegrationHandler) ApproveClaim(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ClaimApproveRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	claim := integration.Claim{
		Document:           integration.Document{TenantID: tenantID, UserID: userID, ID: c.Params("id"), Notes: in.Notes},
		Type:               in.Type,
		ReceivingWarehouse: in.ReceivingWarehouseID,
	}
	for _, l := range in.Lines {
		claim.Lines = append(claim.Lines, integration.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	res, err := h.consumers.ApproveClaim(c.UserContext(), claim)
	if err != nil {
		return h.errs.write(c, err)
	}
	if res == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(res))
}

// ReceivePurchase godoc
// @Summary      Recibir mercancía de una orden de compra
// @Tags         integrations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la orden de compra"
// @Param        body  body  dto.PurchaseReceiveRequest  true  "Líneas recibidas con costo unitario"
// @Success      201   {object}  dto.MovementResponse
// @Router       /api/integrations/purchases/{id}/receive [post]
func (h *IntegrationHandler) ReceivePurchase(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.PurchaseReceiveRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	receipt := integration.PurchaseReceipt{TenantID: tenantID, UserID: userID, PurchaseOrderID: c.Params("id"), Notes: in.Notes}
	for _, l := range in.Lines {
		receipt.Lines = append(receipt.Lines, integration.ReceivedLine{
			ProductID: l.ProductID, WarehouseID: l.WarehouseID, Quantity: l.Quantity, UnitCost: l.UnitCost,
		})
	}
	res, err := h.consumers.ReceivePurchase(c.UserContext(), receipt)
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(res))
}
