package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"produccion-service/internal/models"

	"github.com/lib/pq"
)

// ErrDuplicado violación de una restricción única
var ErrDuplicado = errors.New("registro duplicado")

const uniqueViolation = "23505"

// MateriaPrimaRepository define la interfaz para operaciones de materias primas
type MateriaPrimaRepository interface {
	GetByID(ctx context.Context, id int) (*models.MateriaPrima, error)
	GetByNombre(ctx context.Context, nombre string) (*models.MateriaPrima, error)
	List(ctx context.Context, soloActivas bool) ([]*models.MateriaPrima, error)
	Create(ctx context.Context, materia *models.MateriaPrima) error
	Update(ctx context.Context, materia *models.MateriaPrima) error
}

type materiaPrimaRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

// NewMateriaPrimaRepository crea una nueva instancia del repository
func NewMateriaPrimaRepository(db *sql.DB) (MateriaPrimaRepository, error) {
	repo := &materiaPrimaRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

const materiaPrimaColumns = `id, nombre, proveedor, unidad, precio, activo, created_at, updated_at`

func (r *materiaPrimaRepository) prepareStatements() error {
	statements := map[string]string{
		"get_by_id": `
			SELECT ` + materiaPrimaColumns + `
			FROM materias_primas
			WHERE id = $1
		`,
		// Comparación exacta: los nombres distinguen mayúsculas
		"get_by_nombre": `
			SELECT ` + materiaPrimaColumns + `
			FROM materias_primas
			WHERE nombre = $1
		`,
		"list_all": `
			SELECT ` + materiaPrimaColumns + `
			FROM materias_primas
			ORDER BY nombre
		`,
		"list_activas": `
			SELECT ` + materiaPrimaColumns + `
			FROM materias_primas
			WHERE activo = true
			ORDER BY nombre
		`,
		"create": `
			INSERT INTO materias_primas (nombre, proveedor, unidad, precio, activo)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at
		`,
		"update": `
			UPDATE materias_primas
			SET nombre = $1, proveedor = $2, unidad = $3, precio = $4, activo = $5, updated_at = NOW()
			WHERE id = $6
			RETURNING updated_at
		`,
	}

	for name, query := range statements {
		stmt, err := r.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		r.stmts[name] = stmt
	}

	return nil
}

func scanMateriaPrima(row interface{ Scan(...interface{}) error }) (*models.MateriaPrima, error) {
	var m models.MateriaPrima
	err := row.Scan(&m.ID, &m.Nombre, &m.Proveedor, &m.Unidad, &m.Precio, &m.Activo, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID obtiene una materia prima por id, activa o no
func (r *materiaPrimaRepository) GetByID(ctx context.Context, id int) (*models.MateriaPrima, error) {
	m, err := scanMateriaPrima(r.stmts["get_by_id"].QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get materia prima: %w", err)
	}
	return m, nil
}

// GetByNombre busca entre registros activos e inactivos
func (r *materiaPrimaRepository) GetByNombre(ctx context.Context, nombre string) (*models.MateriaPrima, error) {
	m, err := scanMateriaPrima(r.stmts["get_by_nombre"].QueryRowContext(ctx, nombre))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get materia prima by nombre: %w", err)
	}
	return m, nil
}

// List obtiene todas las materias primas o solo las activas
func (r *materiaPrimaRepository) List(ctx context.Context, soloActivas bool) ([]*models.MateriaPrima, error) {
	stmt := r.stmts["list_all"]
	if soloActivas {
		stmt = r.stmts["list_activas"]
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list materias primas: %w", err)
	}
	defer rows.Close()

	var materias []*models.MateriaPrima
	for rows.Next() {
		m, err := scanMateriaPrima(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan materia prima: %w", err)
		}
		materias = append(materias, m)
	}

	return materias, rows.Err()
}

// Create inserta una materia prima
func (r *materiaPrimaRepository) Create(ctx context.Context, materia *models.MateriaPrima) error {
	err := r.stmts["create"].QueryRowContext(ctx,
		materia.Nombre, materia.Proveedor, materia.Unidad, materia.Precio, materia.Activo,
	).Scan(&materia.ID, &materia.CreatedAt, &materia.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicado
	}
	if err != nil {
		return fmt.Errorf("failed to create materia prima: %w", err)
	}

	return nil
}

// Update reemplaza todos los campos editables
func (r *materiaPrimaRepository) Update(ctx context.Context, materia *models.MateriaPrima) error {
	err := r.stmts["update"].QueryRowContext(ctx,
		materia.Nombre, materia.Proveedor, materia.Unidad, materia.Precio, materia.Activo, materia.ID,
	).Scan(&materia.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("no materia prima found with id %d", materia.ID)
	}
	if isUniqueViolation(err) {
		return ErrDuplicado
	}
	if err != nil {
		return fmt.Errorf("failed to update materia prima: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
