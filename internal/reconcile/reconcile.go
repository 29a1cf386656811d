// Package reconcile calcula el conjunto mínimo de altas, cambios y bajas
// necesario para llevar las líneas de consumo de un proceso a un estado objetivo.
package reconcile

import (
	"sort"

	"produccion-service/internal/apperrors"

	"github.com/shopspring/decimal"
)

// Linea cantidad consumida de una materia prima
type Linea struct {
	IDMateriaPrima int
	Cantidad       decimal.Decimal
}

// Plan operaciones a aplicar, ordenadas por id de materia prima
type Plan struct {
	ToAdd    []Linea
	ToUpdate []Linea
	ToRemove []int
}

// Empty indica si no hay nada que aplicar
func (p Plan) Empty() bool {
	return len(p.ToAdd) == 0 && len(p.ToUpdate) == 0 && len(p.ToRemove) == 0
}

// ValidateTarget verifica cantidades positivas y ausencia de ids repetidos
func ValidateTarget(target []Linea) error {
	vistos := make(map[int]bool, len(target))
	for _, l := range target {
		if l.IDMateriaPrima <= 0 {
			return apperrors.NewValidation("id de materia prima inválido: %d", l.IDMateriaPrima)
		}
		if !l.Cantidad.IsPositive() {
			return apperrors.NewValidation("la cantidad de la materia prima %d debe ser mayor que 0", l.IDMateriaPrima)
		}
		if vistos[l.IDMateriaPrima] {
			return apperrors.NewValidation("la materia prima %d aparece más de una vez", l.IDMateriaPrima)
		}
		vistos[l.IDMateriaPrima] = true
	}
	return nil
}

// Diff compara el estado actual con el objetivo. Cantidades iguales no generan operación.
func Diff(current, target []Linea) (Plan, error) {
	if err := ValidateTarget(target); err != nil {
		return Plan{}, err
	}

	actuales := make(map[int]decimal.Decimal, len(current))
	for _, l := range current {
		actuales[l.IDMateriaPrima] = l.Cantidad
	}
	objetivo := make(map[int]bool, len(target))

	var plan Plan
	for _, l := range target {
		objetivo[l.IDMateriaPrima] = true

		cantidad, existe := actuales[l.IDMateriaPrima]
		switch {
		case !existe:
			plan.ToAdd = append(plan.ToAdd, l)
		case !cantidad.Equal(l.Cantidad):
			plan.ToUpdate = append(plan.ToUpdate, l)
		}
	}

	for id := range actuales {
		if !objetivo[id] {
			plan.ToRemove = append(plan.ToRemove, id)
		}
	}

	sortLineas(plan.ToAdd)
	sortLineas(plan.ToUpdate)
	sort.Ints(plan.ToRemove)

	return plan, nil
}

// MaterialIDs ids de materia prima referenciados por el objetivo
func MaterialIDs(target []Linea) []int {
	ids := make([]int, 0, len(target))
	for _, l := range target {
		ids = append(ids, l.IDMateriaPrima)
	}
	sort.Ints(ids)
	return ids
}

func sortLineas(lineas []Linea) {
	sort.Slice(lineas, func(i, j int) bool {
		return lineas[i].IDMateriaPrima < lineas[j].IDMateriaPrima
	})
}
