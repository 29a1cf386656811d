package services

import (
	"context"
	"fmt"
	"time"

	"produccion-service/internal/apperrors"
	"produccion-service/internal/cache"
	"produccion-service/internal/costing"
	"produccion-service/internal/models"
	"produccion-service/internal/reconcile"
	"produccion-service/internal/repository"

	"go.uber.org/zap"
)

// ProduccionService define la interfaz para procesos de producción
type ProduccionService interface {
	CreateProceso(ctx context.Context, req *models.ProcesoProduccionRequest) (*models.ProcesoWithDetails, error)
	// UpdateProceso reemplaza cabecera y líneas; los costos quedan hasta el próximo cálculo
	UpdateProceso(ctx context.Context, id int, req *models.ProcesoProduccionRequest) (*models.ProcesoWithDetails, error)
	DeactivateProceso(ctx context.Context, id int) error
	GetProceso(ctx context.Context, id int) (*models.ProcesoWithDetails, error)

	// ReconcileConsumption lleva las líneas de consumo del proceso al conjunto objetivo
	ReconcileConsumption(ctx context.Context, id int, target []models.ConsumoRequest) (*models.ReconciliacionResponse, error)
	// CalculateProduction recalcula cantidad producida y costos con los precios vigentes
	CalculateProduction(ctx context.Context, id int) (*models.ProcesoProduccion, error)
}

// produccionService implementa ProduccionService
type produccionService struct {
	repo   repository.ProduccionRepository
	cache  *cache.Cache[models.ProcesoWithDetails]
	logger *zap.Logger
}

// NewProduccionService crea una nueva instancia del servicio
func NewProduccionService(repo repository.ProduccionRepository, cache *cache.Cache[models.ProcesoWithDetails], logger *zap.Logger) ProduccionService {
	return &produccionService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// CreateProceso registra el proceso con el producto de su forma y sus líneas iniciales
func (s *produccionService) CreateProceso(ctx context.Context, req *models.ProcesoProduccionRequest) (*models.ProcesoWithDetails, error) {
	logger := s.logger.With(
		zap.String("operation", "create_proceso"),
		zap.Int("id_forma", req.IDForma),
		zap.Int("id_maquina", req.IDMaquina),
	)

	if req.Ciclos < 0 {
		return nil, apperrors.NewValidation("el número de ciclos no puede ser negativo")
	}

	target := toLineas(req.MateriasPrimas)
	if err := reconcile.ValidateTarget(target); err != nil {
		return nil, err
	}

	var id int
	err := s.repo.WithinTx(ctx, func(tx repository.ProduccionTx) error {
		forma, err := formaActiva(ctx, tx, req.IDForma)
		if err != nil {
			return err
		}

		proceso := &models.ProcesoProduccion{
			Fecha:      req.Fecha,
			IDMaquina:  req.IDMaquina,
			IDForma:    forma.ID,
			IDProducto: forma.IDProducto,
			Ciclos:     req.Ciclos,
			Activo:     true,
		}
		if err := tx.CreateProceso(ctx, proceso); err != nil {
			return err
		}
		id = proceso.ID

		_, err = s.applyTarget(ctx, tx, proceso.ID, target)
		return err
	})
	if err != nil {
		logger.Warn("⚠️ Proceso no creado", zap.Error(err))
		return nil, err
	}

	logger.Info("✅ Proceso de producción creado", zap.Int("id_proceso", id), zap.Int("lineas", len(target)))
	return s.loadDetails(ctx, id)
}

// UpdateProceso reemplaza fecha, máquina, forma y ciclos y reconcilia las
// líneas en la misma transacción. El producto se vuelve a tomar de la forma.
func (s *produccionService) UpdateProceso(ctx context.Context, id int, req *models.ProcesoProduccionRequest) (*models.ProcesoWithDetails, error) {
	logger := s.logger.With(
		zap.String("operation", "update_proceso"),
		zap.Int("id_proceso", id),
		zap.Int("id_forma", req.IDForma),
	)

	if req.Ciclos < 0 {
		return nil, apperrors.NewValidation("el número de ciclos no puede ser negativo")
	}

	target := toLineas(req.MateriasPrimas)
	if err := reconcile.ValidateTarget(target); err != nil {
		return nil, err
	}

	var plan reconcile.Plan
	err := s.repo.WithinTx(ctx, func(tx repository.ProduccionTx) error {
		proceso, err := lockProceso(ctx, tx, id)
		if err != nil {
			return err
		}

		forma, err := formaActiva(ctx, tx, req.IDForma)
		if err != nil {
			return err
		}

		proceso.Fecha = req.Fecha
		proceso.IDMaquina = req.IDMaquina
		proceso.IDForma = forma.ID
		proceso.IDProducto = forma.IDProducto
		proceso.Ciclos = req.Ciclos
		if err := tx.UpdateProceso(ctx, proceso); err != nil {
			return err
		}

		plan, err = s.applyTarget(ctx, tx, id, target)
		return err
	})
	if err != nil {
		logger.Warn("⚠️ Proceso no actualizado", zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx, id)
	logger.Info("✅ Proceso de producción actualizado",
		zap.Int("agregadas", len(plan.ToAdd)),
		zap.Int("actualizadas", len(plan.ToUpdate)),
		zap.Int("eliminadas", len(plan.ToRemove)))

	return s.loadDetails(ctx, id)
}

// DeactivateProceso marca el proceso como inactivo
func (s *produccionService) DeactivateProceso(ctx context.Context, id int) error {
	logger := s.logger.With(
		zap.String("operation", "deactivate_proceso"),
		zap.Int("id_proceso", id),
	)

	err := s.repo.WithinTx(ctx, func(tx repository.ProduccionTx) error {
		if _, err := lockProceso(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeactivateProceso(ctx, id)
	})
	if err != nil {
		logger.Warn("⚠️ Proceso no desactivado", zap.Error(err))
		return err
	}

	s.invalidate(ctx, id)
	logger.Info("✅ Proceso desactivado")
	return nil
}

// GetProceso lectura con caché del proceso y sus líneas
func (s *produccionService) GetProceso(ctx context.Context, id int) (*models.ProcesoWithDetails, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err == nil {
			return &cached, nil
		}
	}

	detalle, err := s.loadDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, id, *detalle); err != nil {
			s.logger.Warn("⚠️ No se pudo cachear el proceso", zap.Int("id_proceso", id), zap.Error(err))
		}
	}
	return detalle, nil
}

// ReconcileConsumption aplica altas, cambios y bajas en una sola transacción.
// Cualquier error revierte todo; nunca queda un estado parcial.
func (s *produccionService) ReconcileConsumption(ctx context.Context, id int, target []models.ConsumoRequest) (*models.ReconciliacionResponse, error) {
	logger := s.logger.With(
		zap.String("operation", "reconcile_consumo"),
		zap.Int("id_proceso", id),
		zap.Int("lineas_objetivo", len(target)),
	)

	lineas := toLineas(target)
	if err := reconcile.ValidateTarget(lineas); err != nil {
		logger.Warn("⚠️ Objetivo inválido", zap.Error(err))
		return nil, err
	}

	var plan reconcile.Plan
	err := s.repo.WithinTx(ctx, func(tx repository.ProduccionTx) error {
		if _, err := lockProceso(ctx, tx, id); err != nil {
			return err
		}

		var err error
		plan, err = s.applyTarget(ctx, tx, id, lineas)
		return err
	})
	if err != nil {
		logger.Warn("⚠️ Reconciliación revertida", zap.Error(err))
		return nil, err
	}

	if plan.Empty() {
		logger.Debug("Consumos ya coinciden con el objetivo")
	} else {
		s.invalidate(ctx, id)
	}
	logger.Info("✅ Consumos reconciliados",
		zap.Int("agregadas", len(plan.ToAdd)),
		zap.Int("actualizadas", len(plan.ToUpdate)),
		zap.Int("eliminadas", len(plan.ToRemove)))

	return &models.ReconciliacionResponse{
		IDProceso:    id,
		Agregadas:    len(plan.ToAdd),
		Actualizadas: len(plan.ToUpdate),
		Eliminadas:   len(plan.ToRemove),
		Timestamp:    time.Now().Format(time.RFC3339),
	}, nil
}

// CalculateProduction deriva cantidad producida, costo total y unitario.
// Solo escribe esos tres campos; ciclos, forma y líneas no cambian.
func (s *produccionService) CalculateProduction(ctx context.Context, id int) (*models.ProcesoProduccion, error) {
	logger := s.logger.With(
		zap.String("operation", "calcular_produccion"),
		zap.Int("id_proceso", id),
	)

	var proceso *models.ProcesoProduccion
	err := s.repo.WithinTx(ctx, func(tx repository.ProduccionTx) error {
		p, err := lockProceso(ctx, tx, id)
		if err != nil {
			return err
		}

		forma, err := tx.GetForma(ctx, p.IDForma)
		if err != nil {
			return err
		}
		if forma == nil {
			return &apperrors.NotFoundError{Entity: "forma", ID: p.IDForma}
		}

		consumos, err := tx.ListConsumosConPrecio(ctx, id)
		if err != nil {
			return err
		}

		lineas := make([]costing.Consumo, 0, len(consumos))
		for _, c := range consumos {
			lineas = append(lineas, costing.Consumo{
				IDMateriaPrima: c.IDMateriaPrima,
				Cantidad:       c.Cantidad,
				PrecioUnitario: c.PrecioActual,
			})
		}

		resultado := costing.Calculate(p.Ciclos, forma.PiezasPorCiclo, lineas)
		p.CantidadProducida = resultado.CantidadProducida
		p.CostoTotal = resultado.CostoTotal
		p.CostoUnitario = resultado.CostoUnitario

		if err := tx.UpdateCostos(ctx, p); err != nil {
			return err
		}
		proceso = p
		return nil
	})
	if err != nil {
		logger.Warn("⚠️ Cálculo revertido", zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx, id)
	logger.Info("✅ Producción calculada",
		zap.String("cantidad_producida", proceso.CantidadProducida.String()),
		zap.String("costo_total", proceso.CostoTotal.String()),
		zap.String("costo_unitario", proceso.CostoUnitario.String()))

	return proceso, nil
}

// applyTarget compara con las líneas actuales, exige materias primas activas
// para todo el objetivo y aplica el plan dentro de tx.
func (s *produccionService) applyTarget(ctx context.Context, tx repository.ProduccionTx, id int, target []reconcile.Linea) (reconcile.Plan, error) {
	consumos, err := tx.ListConsumos(ctx, id)
	if err != nil {
		return reconcile.Plan{}, err
	}

	current := make([]reconcile.Linea, 0, len(consumos))
	for _, c := range consumos {
		current = append(current, reconcile.Linea{IDMateriaPrima: c.IDMateriaPrima, Cantidad: c.Cantidad})
	}

	plan, err := reconcile.Diff(current, target)
	if err != nil {
		return reconcile.Plan{}, err
	}

	ids := reconcile.MaterialIDs(target)
	activos, err := tx.ActiveMateriaPrimaIDs(ctx, ids)
	if err != nil {
		return reconcile.Plan{}, err
	}
	for _, idMateria := range ids {
		if !activos[idMateria] {
			return reconcile.Plan{}, &apperrors.UnknownMaterialError{MaterialID: idMateria}
		}
	}

	for _, l := range plan.ToAdd {
		if err := tx.InsertConsumo(ctx, models.ConsumoMateriaPrima{IDProceso: id, IDMateriaPrima: l.IDMateriaPrima, Cantidad: l.Cantidad}); err != nil {
			return reconcile.Plan{}, err
		}
	}
	for _, l := range plan.ToUpdate {
		if err := tx.UpdateConsumo(ctx, models.ConsumoMateriaPrima{IDProceso: id, IDMateriaPrima: l.IDMateriaPrima, Cantidad: l.Cantidad}); err != nil {
			return reconcile.Plan{}, err
		}
	}
	for _, idMateria := range plan.ToRemove {
		if err := tx.DeleteConsumo(ctx, id, idMateria); err != nil {
			return reconcile.Plan{}, err
		}
	}

	return plan, nil
}

func (s *produccionService) loadDetails(ctx context.Context, id int) (*models.ProcesoWithDetails, error) {
	detalle, err := s.repo.GetProcesoWithDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error obteniendo proceso: %w", err)
	}
	if detalle == nil {
		return nil, &apperrors.NotFoundError{Entity: "proceso", ID: id}
	}
	return detalle, nil
}

func (s *produccionService) invalidate(ctx context.Context, id int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("⚠️ No se pudo invalidar caché", zap.Int("id_proceso", id), zap.Error(err))
	}
}

// formaActiva exige que la forma exista, esté activa y tenga piezas por ciclo
func formaActiva(ctx context.Context, tx repository.ProduccionTx, id int) (*models.Forma, error) {
	forma, err := tx.GetForma(ctx, id)
	if err != nil {
		return nil, err
	}
	if forma == nil {
		return nil, &apperrors.NotFoundError{Entity: "forma", ID: id}
	}
	if !forma.Activo {
		return nil, apperrors.NewValidation("la forma %d está inactiva", forma.ID)
	}
	if err := forma.Validate(); err != nil {
		return nil, err
	}
	return forma, nil
}

func lockProceso(ctx context.Context, tx repository.ProduccionTx, id int) (*models.ProcesoProduccion, error) {
	proceso, err := tx.LockProceso(ctx, id)
	if err != nil {
		return nil, err
	}
	if proceso == nil {
		return nil, &apperrors.NotFoundError{Entity: "proceso", ID: id}
	}
	return proceso, nil
}

func toLineas(reqs []models.ConsumoRequest) []reconcile.Linea {
	lineas := make([]reconcile.Linea, 0, len(reqs))
	for _, r := range reqs {
		lineas = append(lineas, reconcile.Linea{IDMateriaPrima: r.IDMateriaPrima, Cantidad: models.Redondear(r.Cantidad)})
	}
	return lineas
}
