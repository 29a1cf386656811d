package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcesoProduccion representa la tabla procesos_produccion
type ProcesoProduccion struct {
	ID                int             `json:"id" db:"id"`
	Fecha             time.Time       `json:"fecha" db:"fecha"`
	IDMaquina         int             `json:"id_maquina" db:"id_maquina"`
	IDForma           int             `json:"id_forma" db:"id_forma"`
	IDProducto        int             `json:"id_producto" db:"id_producto"`
	Ciclos            int             `json:"ciclos" db:"ciclos"`
	CantidadProducida decimal.Decimal `json:"cantidad_producida" db:"cantidad_producida"`
	CostoUnitario     decimal.Decimal `json:"costo_unitario" db:"costo_unitario"`
	CostoTotal        decimal.Decimal `json:"costo_total" db:"costo_total"`
	Activo            bool            `json:"activo" db:"activo"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// ConsumoMateriaPrima representa la tabla procesos_materias_primas.
// La identidad es el par (IDProceso, IDMateriaPrima).
type ConsumoMateriaPrima struct {
	IDProceso      int             `json:"id_proceso" db:"id_proceso"`
	IDMateriaPrima int             `json:"id_materia_prima" db:"id_materia_prima"`
	Cantidad       decimal.Decimal `json:"cantidad" db:"cantidad"`
}

// ConsumoConPrecio línea de consumo con el precio vigente de su materia prima
type ConsumoConPrecio struct {
	ConsumoMateriaPrima
	NombreMateriaPrima string          `json:"nombre_materia_prima"`
	Unidad             string          `json:"unidad"`
	PrecioActual       decimal.Decimal `json:"precio_actual"`
}

// ProcesoWithDetails incluye las líneas de consumo del proceso
type ProcesoWithDetails struct {
	ProcesoProduccion
	NombreForma string             `json:"nombre_forma,omitempty"`
	Consumos    []ConsumoConPrecio `json:"consumos"`
}
