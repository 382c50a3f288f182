package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP del libro de movimientos (protegido).
type InventoryHandler struct {
	svc       *inventory.MovementService
	reconcile *inventory.ReconciliationJob
	errs      errorWriter
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(svc *inventory.MovementService, reconcile *inventory.ReconciliationJob, log *logger.Logger) *InventoryHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &InventoryHandler{svc: svc, reconcile: reconcile, errs: errorWriter{log: log.Component("http")}}
}

// RecordInbound godoc
// @Summary      Registrar entrada de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InboundRequest  true  "product_id, warehouse_id, quantity, unit_cost opcional"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/inbound [post]
func (h *InventoryHandler) RecordInbound(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.InboundRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	res, err := h.svc.RecordInbound(c.UserContext(), inventory.InboundInput{
		TenantID:    tenantID,
		UserID:      userID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
		Reason:      in.Reason,
		Notes:       in.Notes,
		ReferenceID: in.ReferenceID,
	})
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(res))
}

// RecordOutbound godoc
// @Summary      Registrar salida de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OutboundRequest  true  "product_id, warehouse_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_WAREHOUSE_STOCK con available/requested"
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/outbound [post]
func (h *InventoryHandler) RecordOutbound(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.OutboundRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	res, err := h.svc.RecordOutbound(c.UserContext(), inventory.OutboundInput{
		TenantID:    tenantID,
		UserID:      userID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		Notes:       in.Notes,
		ReferenceID: in.ReferenceID,
	})
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(res))
}

// RecordAdjustment godoc
// @Summary      Registrar ajuste de stock
// @Description  target_quantity fija la cantidad de la bodega; delta aplica un cambio firmado.
// @Description  Sin warehouse_id solo se admite delta y corrige el total del producto.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "Ajuste"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) RecordAdjustment(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustmentRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	res, err := h.svc.RecordAdjustment(c.UserContext(), inventory.AdjustmentInput{
		TenantID:       tenantID,
		UserID:         userID,
		ProductID:      in.ProductID,
		WarehouseID:    in.WarehouseID,
		TargetQuantity: in.TargetQuantity,
		Delta:          in.Delta,
		Reason:         in.Reason,
		Notes:          in.Notes,
		ReferenceID:    in.ReferenceID,
	})
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(res))
}

// RecordTransfer godoc
// @Summary      Trasladar stock entre bodegas
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Traslado"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) RecordTransfer(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.TransferRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	res, err := h.svc.RecordTransfer(c.UserContext(), inventory.TransferInput{
		TenantID:        tenantID,
		UserID:          userID,
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		Reason:          in.Reason,
		Notes:           in.Notes,
		ReferenceID:     in.ReferenceID,
	})
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(res))
}

// ReverseMovement godoc
// @Summary      Revertir un movimiento
// @Description  Aplica -delta y marca el movimiento como revertido. Un traslado se revierte completo.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse  "ALREADY_REVERSED o REVERSAL_WOULD_UNDERFLOW"
// @Router       /api/inventory/movements/{id} [delete]
func (h *InventoryHandler) ReverseMovement(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	res, err := h.svc.ReverseMovement(c.UserContext(), inventory.ReverseInput{
		TenantID:   tenantID,
		UserID:     userID,
		MovementID: c.Params("id"),
	})
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.JSON(toMovementResponse(res))
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	m, err := h.svc.GetMovement(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.JSON(toMovementDTO(m))
}

// ListMovements godoc
// @Summary      Listar movimientos del libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        reference_id  query  string  false  "Documento de origen"
// @Param        kind          query  string  false  "INBOUND | OUTBOUND | ADJUSTMENT | TRANSFER_OUT | TRANSFER_IN"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.MovementListRequest
	if ok, err := bindQuery(c, &in); !ok {
		return err
	}
	in.DefaultPage()
	filter := repository.MovementFilter{
		TenantID:    tenantID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		ReferenceID: in.ReferenceID,
		Kind:        entity.MovementKind(in.Kind),
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	// El formato ya fue validado.
	if in.From != "" {
		from, _ := time.Parse(time.RFC3339, in.From)
		filter.From = &from
	}
	if in.To != "" {
		to, _ := time.Parse(time.RFC3339, in.To)
		filter.To = &to
	}
	list, err := h.svc.ListMovements(c.UserContext(), filter)
	if err != nil {
		return h.errs.write(c, err)
	}
	items := make([]dto.MovementDTO, 0, len(list))
	for _, m := range list {
		items = append(items, toMovementDTO(m))
	}
	return c.JSON(dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	})
}

// GetProductStock godoc
// @Summary      Stock de un producto (total y por bodega)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/stock [get]
func (h *InventoryHandler) GetProductStock(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	ps, err := h.svc.GetProductStock(c.UserContext(), tenantID, c.Params("id"))
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.JSON(toProductStockResponse(ps))
}

// Reconcile godoc
// @Summary      Conciliar totales contra bodegas
// @Description  Recorre los productos del inquilino (o solo product_id) y emite ajustes correctivos.
// @Description  Con dry_run solo reporta.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReconcileRequest  false  "Opciones"
// @Success      200   {object}  inventory.ReconcileReport
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/reconciliations [post]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ReconcileRequest
	if len(c.Body()) > 0 {
		if ok, err := bindBody(c, &in); !ok {
			return err
		}
	}
	opts := inventory.ReconcileOptions{TenantID: tenantID, DryRun: in.DryRun, UserID: userID}
	if in.ProductID == "" {
		report, err := h.reconcile.Run(c.UserContext(), opts)
		if err != nil {
			return h.errs.write(c, err)
		}
		return c.JSON(report)
	}

	// Un solo producto: debe existir en el inquilino.
	if _, err := h.svc.GetProductStock(c.UserContext(), tenantID, in.ProductID); err != nil {
		return h.errs.write(c, err)
	}
	started := time.Now().UTC()
	drift, mismatches, err := h.reconcile.ReconcileProduct(c.UserContext(), tenantID, in.ProductID, opts)
	if err != nil {
		return h.errs.write(c, err)
	}
	report := inventory.ReconcileReport{
		StartedAt:        started,
		FinishedAt:       time.Now().UTC(),
		DryRun:           in.DryRun,
		Tenants:          1,
		ProductsChecked:  1,
		Drifts:           []inventory.ProductDrift{},
		ReplayMismatches: []inventory.ReplayMismatch{},
	}
	if drift != nil {
		report.Drifts = append(report.Drifts, *drift)
	}
	report.ReplayMismatches = append(report.ReplayMismatches, mismatches...)
	return c.JSON(report)
}
