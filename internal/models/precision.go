package models

import "github.com/shopspring/decimal"

// EscalaDecimal decimales de las columnas NUMERIC(18, 6) de precio, cantidad y costos
const EscalaDecimal = 6

// Redondear lleva el valor a la escala con la que se persiste
func Redondear(d decimal.Decimal) decimal.Decimal {
	return d.Round(EscalaDecimal)
}
