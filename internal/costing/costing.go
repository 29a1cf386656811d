package costing

import (
	"produccion-service/internal/models"

	"github.com/shopspring/decimal"
)

// Consumo cantidad consumida de una materia prima y su precio unitario vigente.
type Consumo struct {
	IDMateriaPrima int
	Cantidad       decimal.Decimal
	PrecioUnitario decimal.Decimal
}

// Resultado valores derivados de un proceso de producción.
type Resultado struct {
	CantidadProducida decimal.Decimal
	CostoTotal        decimal.Decimal
	CostoUnitario     decimal.Decimal
}

// Calculate obtiene cantidad producida, costo total y costo unitario.
// Con cantidad producida cero el costo unitario queda en cero y no se divide.
// Los costos salen redondeados a la escala persistida; el unitario se
// calcula sobre el total sin redondear.
func Calculate(ciclos, piezasPorCiclo int, consumos []Consumo) Resultado {
	producida := decimal.NewFromInt(int64(ciclos)).Mul(decimal.NewFromInt(int64(piezasPorCiclo)))

	total := decimal.Zero
	for _, c := range consumos {
		total = total.Add(c.Cantidad.Mul(c.PrecioUnitario))
	}

	unitario := decimal.Zero
	if producida.IsPositive() {
		unitario = total.Div(producida)
	}

	return Resultado{
		CantidadProducida: producida,
		CostoTotal:        models.Redondear(total),
		CostoUnitario:     models.Redondear(unitario),
	}
}
