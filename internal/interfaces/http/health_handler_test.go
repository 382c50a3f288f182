package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
)

type stubReconcileStatus struct {
	runs   int
	report *inventory.ReconcileReport
}

func (s stubReconcileStatus) Runs() int                              { return s.runs }
func (s stubReconcileStatus) LastReport() *inventory.ReconcileReport { return s.report }

func getHealth(t *testing.T, deps apphttp.HealthDeps) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/health", apphttp.HealthHandler(deps))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestHealthHandler_PublicaUltimaConciliacion(t *testing.T) {
	status := stubReconcileStatus{runs: 2, report: &inventory.ReconcileReport{
		FinishedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ProductsChecked:  4,
		Drifts:           []inventory.ProductDrift{{ProductID: "p1", Delta: -2}},
		ReplayMismatches: []inventory.ReplayMismatch{{ProductID: "p2"}},
	}}
	code, body := getHealth(t, apphttp.HealthDeps{
		Service:   "stock-ledger",
		Ping:      func(context.Context) error { return nil },
		Reconcile: status,
	})

	assert.Equal(t, http.StatusOK, code, "los descuadres no degradan el servicio")
	assert.Equal(t, "ok", body["status"])
	rec, ok := body["reconciliation"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, rec["runs"])
	assert.EqualValues(t, 4, rec["products_checked"])
	assert.EqualValues(t, 1, rec["drifts"])
	assert.EqualValues(t, 1, rec["replay_mismatches"])
	assert.Equal(t, "2026-01-02T03:04:05Z", rec["last_finished_at"])
}

func TestHealthHandler_SinCorridasSoloCuenta(t *testing.T) {
	code, body := getHealth(t, apphttp.HealthDeps{Service: "stock-ledger", Reconcile: stubReconcileStatus{}})
	assert.Equal(t, http.StatusOK, code)
	rec := body["reconciliation"].(map[string]any)
	assert.EqualValues(t, 0, rec["runs"])
	assert.NotContains(t, rec, "products_checked")
}

func TestHealthHandler_AlmacenamientoCaido_Retorna503(t *testing.T) {
	code, body := getHealth(t, apphttp.HealthDeps{
		Service: "stock-ledger",
		Ping:    func(context.Context) error { return errors.New("sin conexión") },
	})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])
	assert.NotContains(t, body, "reconciliation")
}
