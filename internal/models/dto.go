package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ===== REQUEST DTOs =====

// MateriaPrimaRequest DTO para alta y reemplazo de materia prima
type MateriaPrimaRequest struct {
	Nombre    string          `json:"nombre"`
	Proveedor string          `json:"proveedor"`
	Unidad    string          `json:"unidad"`
	Precio    decimal.Decimal `json:"precio"`
}

// ConsumoRequest línea objetivo de consumo para un proceso
type ConsumoRequest struct {
	IDMateriaPrima int             `json:"id_materia_prima" validate:"required,gt=0"`
	Cantidad       decimal.Decimal `json:"cantidad"`
}

// ReconciliarConsumoRequest DTO con el conjunto objetivo de consumos
type ReconciliarConsumoRequest struct {
	MateriasPrimas []ConsumoRequest `json:"materias_primas" validate:"dive"`
}

// ProcesoProduccionRequest DTO para crear un proceso de producción
type ProcesoProduccionRequest struct {
	Fecha          time.Time        `json:"fecha" validate:"required"`
	IDMaquina      int              `json:"id_maquina" validate:"required,gt=0"`
	IDForma        int              `json:"id_forma" validate:"required,gt=0"`
	Ciclos         int              `json:"ciclos" validate:"gte=0"`
	MateriasPrimas []ConsumoRequest `json:"materias_primas" validate:"dive"`
}

// ===== RESPONSE DTOs =====

// ReconciliacionResponse resumen de los cambios aplicados a las líneas de consumo
type ReconciliacionResponse struct {
	IDProceso    int    `json:"id_proceso"`
	Agregadas    int    `json:"agregadas"`
	Actualizadas int    `json:"actualizadas"`
	Eliminadas   int    `json:"eliminadas"`
	Timestamp    string `json:"timestamp"`
}
