package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// ReconcileStatus estado de la conciliación programada que expone /health.
type ReconcileStatus interface {
	Runs() int
	LastReport() *inventory.ReconcileReport
}

// HealthDeps dependencias de /health. Reconcile es opcional.
type HealthDeps struct {
	Service   string
	Ping      func(ctx context.Context) error
	Reconcile ReconcileStatus
}

// HealthHandler responde 200 con el estado del servicio o 503 si el almacenamiento no responde.
// Los descuadres de la última conciliación se informan pero no degradan el servicio.
func HealthHandler(d HealthDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := fiber.Map{"status": "ok", "service": d.Service}
		if d.Reconcile != nil {
			body["reconciliation"] = reconcileSummary(d.Reconcile)
		}
		if d.Ping != nil {
			if err := d.Ping(c.UserContext()); err != nil {
				body["status"] = "degraded"
				return c.Status(fiber.StatusServiceUnavailable).JSON(body)
			}
		}
		return c.JSON(body)
	}
}

func reconcileSummary(s ReconcileStatus) fiber.Map {
	out := fiber.Map{"runs": s.Runs()}
	r := s.LastReport()
	if r == nil {
		return out
	}
	out["last_finished_at"] = r.FinishedAt
	out["products_checked"] = r.ProductsChecked
	out["drifts"] = len(r.Drifts)
	out["replay_mismatches"] = len(r.ReplayMismatches)
	out["failures"] = r.Failures
	return out
}
