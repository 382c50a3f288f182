package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var statusByCode = map[string]int{
	"INVALID_QUANTITY":             fiber.StatusBadRequest,
	"SAME_WAREHOUSE":               fiber.StatusBadRequest,
	"INVALID_INPUT":                fiber.StatusBadRequest,
	"UNKNOWN_PRODUCT":              fiber.StatusNotFound,
	"UNKNOWN_WAREHOUSE":            fiber.StatusNotFound,
	"UNKNOWN_MOVEMENT":             fiber.StatusNotFound,
	"NOT_FOUND":                    fiber.StatusNotFound,
	"NO_CHANGE":                    fiber.StatusConflict,
	"INSUFFICIENT_WAREHOUSE_STOCK": fiber.StatusConflict,
	"INSUFFICIENT_TOTAL_STOCK":     fiber.StatusConflict,
	"ALREADY_REVERSED":             fiber.StatusConflict,
	"REVERSAL_WOULD_UNDERFLOW":     fiber.StatusConflict,
	"WAREHOUSE_INACTIVE":           fiber.StatusConflict,
	"WAREHOUSE_HAS_STOCK":          fiber.StatusConflict,
	"DUPLICATE":                    fiber.StatusConflict,
	"CONFLICT":                     fiber.StatusConflict,
	"CONCURRENCY_TIMEOUT":          fiber.StatusServiceUnavailable,
	"UNAUTHORIZED":                 fiber.StatusUnauthorized,
	"FORBIDDEN":                    fiber.StatusForbidden,
}

// errorWriter traduce errores de dominio a dto.ErrorResponse. Los 500 se registran y no exponen el detalle.
type errorWriter struct {
	log *logger.Logger
}

func (w errorWriter) write(c *fiber.Ctx, err error) error {
	code := domain.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		w.log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("tenant_id", GetTenantID(c)).
			Msg("error interno")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
	resp := dto.ErrorResponse{Code: code, Message: err.Error(), Retryable: domain.IsRetryable(err)}
	var se *domain.StockError
	if errors.As(err, &se) {
		resp.Details = map[string]any{
			"product_id": se.ProductID,
			"available":  se.Available,
			"requested":  se.Requested,
		}
		if se.WarehouseID != "" {
			resp.Details["warehouse_id"] = se.WarehouseID
		}
	}
	if status == fiber.StatusServiceUnavailable {
		c.Set(fiber.HeaderRetryAfter, "1")
	}
	return c.Status(status).JSON(resp)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
