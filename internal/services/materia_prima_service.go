package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"produccion-service/internal/apperrors"
	"produccion-service/internal/cache"
	"produccion-service/internal/models"
	"produccion-service/internal/repository"

	"go.uber.org/zap"
)

// MaxUnidadLen longitud máxima de la sigla de unidad
const MaxUnidadLen = 5

// MateriaPrimaService define la interfaz para operaciones de materias primas
type MateriaPrimaService interface {
	CreateMateriaPrima(ctx context.Context, req *models.MateriaPrimaRequest) (*models.MateriaPrima, error)
	UpdateMateriaPrima(ctx context.Context, id int, req *models.MateriaPrimaRequest) (*models.MateriaPrima, error)
	DeactivateMateriaPrima(ctx context.Context, id int) (*models.MateriaPrima, error)

	GetMateriaPrima(ctx context.Context, id int) (*models.MateriaPrima, error)
	ListMateriasPrimas(ctx context.Context, soloActivas bool) ([]*models.MateriaPrima, error)
}

// materiaPrimaService implementa MateriaPrimaService
type materiaPrimaService struct {
	repo   repository.MateriaPrimaRepository
	cache  *cache.Cache[models.MateriaPrima]
	logger *zap.Logger

	// procesos guarda líneas con el precio vigente; un cambio de precio lo vacía
	procesos *cache.Cache[models.ProcesoWithDetails]
}

// NewMateriaPrimaService crea una nueva instancia del servicio
func NewMateriaPrimaService(repo repository.MateriaPrimaRepository, cache *cache.Cache[models.MateriaPrima], procesos *cache.Cache[models.ProcesoWithDetails], logger *zap.Logger) MateriaPrimaService {
	return &materiaPrimaService{
		repo:     repo,
		cache:    cache,
		procesos: procesos,
		logger:   logger,
	}
}

// CreateMateriaPrima valida y registra una materia prima activa
func (s *materiaPrimaService) CreateMateriaPrima(ctx context.Context, req *models.MateriaPrimaRequest) (*models.MateriaPrima, error) {
	logger := s.logger.With(
		zap.String("operation", "create_materia_prima"),
		zap.String("nombre", req.Nombre),
	)

	if err := s.validar(ctx, req, nil); err != nil {
		logger.Warn("⚠️ Materia prima rechazada", zap.Error(err))
		return nil, err
	}

	materia := &models.MateriaPrima{Activo: true}
	materia.Apply(req)

	if err := s.repo.Create(ctx, materia); err != nil {
		if errors.Is(err, repository.ErrDuplicado) {
			return nil, nombreDuplicado()
		}
		logger.Error("❌ Error creando materia prima", zap.Error(err))
		return nil, fmt.Errorf("error creando materia prima: %w", err)
	}

	logger.Info("✅ Materia prima creada",
		zap.Int("id", materia.ID),
		zap.String("unidad", materia.Unidad),
		zap.String("precio", materia.Precio.String()))

	return materia, nil
}

// UpdateMateriaPrima reemplaza nombre, proveedor, unidad y precio
func (s *materiaPrimaService) UpdateMateriaPrima(ctx context.Context, id int, req *models.MateriaPrimaRequest) (*models.MateriaPrima, error) {
	logger := s.logger.With(
		zap.String("operation", "update_materia_prima"),
		zap.Int("id", id),
	)

	materia, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validar(ctx, req, materia); err != nil {
		logger.Warn("⚠️ Actualización rechazada", zap.Error(err))
		return nil, err
	}

	materia.Apply(req)
	if err := s.repo.Update(ctx, materia); err != nil {
		if errors.Is(err, repository.ErrDuplicado) {
			return nil, nombreDuplicado()
		}
		logger.Error("❌ Error actualizando materia prima", zap.Error(err))
		return nil, fmt.Errorf("error actualizando materia prima: %w", err)
	}

	s.invalidate(ctx, id)
	logger.Info("✅ Materia prima actualizada", zap.String("precio", materia.Precio.String()))

	return materia, nil
}

// DeactivateMateriaPrima marca la materia prima como inactiva; nunca se borra
func (s *materiaPrimaService) DeactivateMateriaPrima(ctx context.Context, id int) (*models.MateriaPrima, error) {
	logger := s.logger.With(
		zap.String("operation", "deactivate_materia_prima"),
		zap.Int("id", id),
	)

	materia, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	materia.Activo = false
	if err := s.repo.Update(ctx, materia); err != nil {
		logger.Error("❌ Error desactivando materia prima", zap.Error(err))
		return nil, fmt.Errorf("error desactivando materia prima: %w", err)
	}

	s.invalidate(ctx, id)
	logger.Info("✅ Materia prima desactivada")

	return materia, nil
}

// GetMateriaPrima lectura con caché L1/L2
func (s *materiaPrimaService) GetMateriaPrima(ctx context.Context, id int) (*models.MateriaPrima, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err == nil {
			return &cached, nil
		}
	}

	materia, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, id, *materia); err != nil {
			s.logger.Warn("⚠️ No se pudo cachear la materia prima", zap.Int("id", id), zap.Error(err))
		}
	}

	return materia, nil
}

// ListMateriasPrimas lista todas o solo las activas
func (s *materiaPrimaService) ListMateriasPrimas(ctx context.Context, soloActivas bool) ([]*models.MateriaPrima, error) {
	materias, err := s.repo.List(ctx, soloActivas)
	if err != nil {
		return nil, fmt.Errorf("error listando materias primas: %w", err)
	}
	if materias == nil {
		materias = []*models.MateriaPrima{}
	}
	return materias, nil
}

// validar aplica las reglas en orden; gana la primera violación.
// actual es el registro que se reemplaza, nil en un alta.
func (s *materiaPrimaService) validar(ctx context.Context, req *models.MateriaPrimaRequest, actual *models.MateriaPrima) error {
	if strings.TrimSpace(req.Nombre) == "" {
		return apperrors.NewValidation("el campo \"nombre\" no puede estar vacío")
	}
	if strings.TrimSpace(req.Proveedor) == "" {
		return apperrors.NewValidation("el campo \"proveedor\" no puede estar vacío")
	}
	if strings.TrimSpace(req.Unidad) == "" {
		return apperrors.NewValidation("el campo \"unidad\" no puede estar vacío")
	}
	if utf8.RuneCountInString(req.Unidad) > MaxUnidadLen {
		return apperrors.NewValidation("la sigla de la unidad no puede tener más de %d caracteres", MaxUnidadLen)
	}
	// se valida lo que se va a guardar, no el valor recibido
	if !models.Redondear(req.Precio).IsPositive() {
		return apperrors.NewValidation("el precio no puede ser igual o menor que 0")
	}

	existente, err := s.repo.GetByNombre(ctx, req.Nombre)
	if err != nil {
		return fmt.Errorf("error verificando nombre: %w", err)
	}
	if existente != nil && (actual == nil || existente.ID != actual.ID) {
		return nombreDuplicado()
	}

	return nil
}

func (s *materiaPrimaService) mustGet(ctx context.Context, id int) (*models.MateriaPrima, error) {
	materia, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error obteniendo materia prima: %w", err)
	}
	if materia == nil {
		return nil, &apperrors.NotFoundError{Entity: "materia prima", ID: id}
	}
	return materia, nil
}

func (s *materiaPrimaService) invalidate(ctx context.Context, id int) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.Warn("⚠️ No se pudo invalidar caché", zap.Int("id", id), zap.Error(err))
		}
	}
	if s.procesos != nil {
		if err := s.procesos.Clear(ctx); err != nil {
			s.logger.Warn("⚠️ No se pudo vaciar caché de procesos", zap.Int("id", id), zap.Error(err))
		}
	}
}

func nombreDuplicado() error {
	return apperrors.NewValidation("ya existe una materia prima con este nombre")
}
