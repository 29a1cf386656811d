// Package units normaliza unidad y precio declarados por un proveedor a las
// unidades canónicas con las que se guardan las materias primas.
package units

import (
	"strings"

	"produccion-service/internal/apperrors"

	"github.com/shopspring/decimal"
)

// UnidadKilo unidad canónica para materiales comprados por peso
const UnidadKilo = "kg"

var kilosPorTonelada = decimal.NewFromInt(1000)

// aliasTonelada códigos de unidad que representan una tonelada
var aliasTonelada = map[string]bool{
	"t":        true,
	"ton":      true,
	"tonne":    true,
	"tonelada": true,
}

// EsTonelada indica si la unidad declarada representa una tonelada
func EsTonelada(unidad string) bool {
	return aliasTonelada[strings.ToLower(strings.TrimSpace(unidad))]
}

// ParsePrecio convierte un precio textual a decimal. La coma es el separador
// decimal de los datos de origen; si aparecen punto y coma juntos, el punto
// es separador de miles y debe ir antes de la coma; el formato inverso
// ("1,234.56") es ambiguo y se rechaza.
func ParsePrecio(valor string) (decimal.Decimal, error) {
	limpio := strings.TrimSpace(valor)
	if limpio == "" {
		return decimal.Zero, &apperrors.ParseError{Value: valor}
	}

	if strings.Contains(limpio, ",") {
		if strings.Contains(limpio, ".") {
			if strings.LastIndex(limpio, ".") > strings.LastIndex(limpio, ",") {
				return decimal.Zero, &apperrors.ParseError{Value: valor}
			}
			limpio = strings.ReplaceAll(limpio, ".", "")
		}
		limpio = strings.ReplaceAll(limpio, ",", ".")
	}

	precio, err := decimal.NewFromString(limpio)
	if err != nil {
		return decimal.Zero, &apperrors.ParseError{Value: valor, Err: err}
	}
	return precio, nil
}

// Normalize convierte (unidad, precio por unidad declarada) a la unidad canónica.
// Toneladas pasan a kilos con el precio dividido por 1000; el resto no cambia.
func Normalize(unidad, precio string) (string, decimal.Decimal, error) {
	valor, err := ParsePrecio(precio)
	if err != nil {
		return "", decimal.Zero, err
	}

	u, p := NormalizeDecimal(unidad, valor)
	return u, p, nil
}

// NormalizeDecimal igual que Normalize pero con un precio ya numérico
func NormalizeDecimal(unidad string, precio decimal.Decimal) (string, decimal.Decimal) {
	if EsTonelada(unidad) {
		return UnidadKilo, precio.Div(kilosPorTonelada)
	}
	return unidad, precio
}
