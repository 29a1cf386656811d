package costing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func equal(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s = %s, want %s", name, got, want)
	}
}

func TestCalculate_CantidadProducida(t *testing.T) {
	for _, ciclos := range []int{0, 1, 7, 250} {
		for _, piezas := range []int{1, 4, 12} {
			r := Calculate(ciclos, piezas, nil)
			equal(t, "cantidadProducida", r.CantidadProducida, decimal.NewFromInt(int64(ciclos*piezas)))
		}
	}
}

func TestCalculate_CostoTotalYUnitario(t *testing.T) {
	consumos := []Consumo{
		{IDMateriaPrima: 1, Cantidad: dec("10"), PrecioUnitario: dec("2.5")},
		{IDMateriaPrima: 2, Cantidad: dec("3"), PrecioUnitario: dec("4")},
	}

	r := Calculate(10, 2, consumos)

	equal(t, "cantidadProducida", r.CantidadProducida, dec("20"))
	equal(t, "costoTotal", r.CostoTotal, dec("37"))
	equal(t, "costoUnitario", r.CostoUnitario, dec("1.85"))
}

func TestCalculate_SinProduccionNoDivide(t *testing.T) {
	consumos := []Consumo{{IDMateriaPrima: 1, Cantidad: dec("5"), PrecioUnitario: dec("3")}}

	r := Calculate(0, 6, consumos)

	equal(t, "cantidadProducida", r.CantidadProducida, decimal.Zero)
	equal(t, "costoTotal", r.CostoTotal, dec("15"))
	equal(t, "costoUnitario", r.CostoUnitario, decimal.Zero)
}

func TestCalculate_CambioDePrecioCambiaElTotal(t *testing.T) {
	consumos := []Consumo{{IDMateriaPrima: 1, Cantidad: dec("4"), PrecioUnitario: dec("1")}}
	antes := Calculate(2, 2, consumos)

	consumos[0].PrecioUnitario = dec("1.5")
	despues := Calculate(2, 2, consumos)

	equal(t, "antes", antes.CostoTotal, dec("4"))
	equal(t, "despues", despues.CostoTotal, dec("6"))
}

func TestCalculate_Idempotente(t *testing.T) {
	consumos := []Consumo{{IDMateriaPrima: 1, Cantidad: dec("3"), PrecioUnitario: dec("0.7")}}

	a := Calculate(9, 3, consumos)
	b := Calculate(9, 3, consumos)

	equal(t, "cantidadProducida", a.CantidadProducida, b.CantidadProducida)
	equal(t, "costoTotal", a.CostoTotal, b.CostoTotal)
	equal(t, "costoUnitario", a.CostoUnitario, b.CostoUnitario)
}

func TestCalculate_RedondeaALaEscalaPersistida(t *testing.T) {
	consumos := []Consumo{{IDMateriaPrima: 1, Cantidad: dec("1"), PrecioUnitario: dec("10")}}

	r := Calculate(3, 1, consumos)

	equal(t, "costoUnitario", r.CostoUnitario, dec("3.333333"))

	consumos[0].PrecioUnitario = dec("0.0000004")
	r = Calculate(1, 1, consumos)
	equal(t, "costoTotal", r.CostoTotal, decimal.Zero)
}
