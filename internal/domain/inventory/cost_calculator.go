package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Un stock actual negativo o nulo se trata como cero: el costo pasa a ser el de la entrada.
func CostCalculator(stockActual, cantEntrada int64, costoActual, costoEntrada decimal.Decimal) decimal.Decimal {
	if stockActual < 0 {
		stockActual = 0
	}
	sum := stockActual + cantEntrada
	if sum <= 0 {
		return decimal.Zero
	}
	qa := decimal.NewFromInt(stockActual)
	qe := decimal.NewFromInt(cantEntrada)
	num := qa.Mul(costoActual).Add(qe.Mul(costoEntrada))
	return num.Div(decimal.NewFromInt(sum)).Round(4)
}
