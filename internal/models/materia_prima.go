package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MateriaPrima representa la tabla materias_primas
type MateriaPrima struct {
	ID        int             `json:"id" db:"id"`
	Nombre    string          `json:"nombre" db:"nombre"`
	Proveedor string          `json:"proveedor" db:"proveedor"`
	Unidad    string          `json:"unidad" db:"unidad"`
	Precio    decimal.Decimal `json:"precio" db:"precio"`
	Activo    bool            `json:"activo" db:"activo"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Apply reemplaza los campos editables con los del request.
// El precio queda a la escala de la columna.
func (m *MateriaPrima) Apply(req *MateriaPrimaRequest) {
	m.Nombre = req.Nombre
	m.Proveedor = req.Proveedor
	m.Unidad = req.Unidad
	m.Precio = Redondear(req.Precio)
}
