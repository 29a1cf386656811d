package models

import (
	"strings"
	"time"

	"produccion-service/internal/apperrors"
)

// Forma representa la tabla formas (molde que produce un número fijo de piezas por ciclo)
type Forma struct {
	ID             int       `json:"id" db:"id"`
	Nombre         string    `json:"nombre" db:"nombre"`
	PiezasPorCiclo int       `json:"piezas_por_ciclo" db:"piezas_por_ciclo"`
	IDProducto     int       `json:"id_producto" db:"id_producto"`
	Activo         bool      `json:"activo" db:"activo"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Validate verifica las reglas mínimas de una forma
func (f *Forma) Validate() error {
	if strings.TrimSpace(f.Nombre) == "" {
		return apperrors.NewValidation("el campo \"nombre\" no puede estar vacío")
	}
	if f.PiezasPorCiclo < 1 {
		return apperrors.NewValidation("el número de piezas por ciclo debe ser mayor que 0")
	}
	return nil
}
