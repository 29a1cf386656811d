package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"produccion-service/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ProduccionTx operaciones disponibles dentro de una transacción de producción
type ProduccionTx interface {
	// LockProceso bloquea la fila del proceso hasta el fin de la transacción.
	// Retorna nil si el proceso no existe.
	LockProceso(ctx context.Context, id int) (*models.ProcesoProduccion, error)
	GetForma(ctx context.Context, id int) (*models.Forma, error)
	CreateProceso(ctx context.Context, proceso *models.ProcesoProduccion) error
	// UpdateProceso reemplaza fecha, máquina, forma, producto y ciclos
	UpdateProceso(ctx context.Context, proceso *models.ProcesoProduccion) error
	DeactivateProceso(ctx context.Context, id int) error
	UpdateCostos(ctx context.Context, proceso *models.ProcesoProduccion) error

	ListConsumos(ctx context.Context, idProceso int) ([]models.ConsumoMateriaPrima, error)
	// ListConsumosConPrecio une cada línea con el precio vigente de su materia prima
	ListConsumosConPrecio(ctx context.Context, idProceso int) ([]models.ConsumoConPrecio, error)
	// ActiveMateriaPrimaIDs retorna el subconjunto de ids que existen y están activos
	ActiveMateriaPrimaIDs(ctx context.Context, ids []int) (map[int]bool, error)
	InsertConsumo(ctx context.Context, consumo models.ConsumoMateriaPrima) error
	UpdateConsumo(ctx context.Context, consumo models.ConsumoMateriaPrima) error
	DeleteConsumo(ctx context.Context, idProceso, idMateriaPrima int) error
}

// ProduccionRepository acceso a procesos de producción y sus consumos
type ProduccionRepository interface {
	// WithinTx ejecuta fn en una transacción; cualquier error hace rollback completo
	WithinTx(ctx context.Context, fn func(tx ProduccionTx) error) error
	GetProcesoWithDetails(ctx context.Context, id int) (*models.ProcesoWithDetails, error)
}

type produccionRepository struct {
	db     *sql.DB
	stmts  map[string]*sql.Stmt
	logger *zap.Logger
}

// NewProduccionRepository crea una nueva instancia del repository
func NewProduccionRepository(db *sql.DB, logger *zap.Logger) (ProduccionRepository, error) {
	repo := &produccionRepository{
		db:     db,
		stmts:  make(map[string]*sql.Stmt),
		logger: logger,
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

const procesoColumns = `id, fecha, id_maquina, id_forma, id_producto, ciclos,
	cantidad_producida, costo_unitario, costo_total, activo, created_at, updated_at`

func (r *produccionRepository) prepareStatements() error {
	statements := map[string]string{
		"get_proceso": `
			SELECT ` + procesoColumns + `
			FROM procesos_produccion
			WHERE id = $1
		`,
		"lock_proceso": `
			SELECT ` + procesoColumns + `
			FROM procesos_produccion
			WHERE id = $1
			FOR UPDATE
		`,
		"get_forma": `
			SELECT id, nombre, piezas_por_ciclo, id_producto, activo, created_at, updated_at
			FROM formas
			WHERE id = $1
		`,
		"create_proceso": `
			INSERT INTO procesos_produccion
			(fecha, id_maquina, id_forma, id_producto, ciclos, cantidad_producida, costo_unitario, costo_total, activo)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`,
		"update_proceso": `
			UPDATE procesos_produccion
			SET fecha = $1, id_maquina = $2, id_forma = $3, id_producto = $4, ciclos = $5, updated_at = NOW()
			WHERE id = $6
			RETURNING updated_at
		`,
		"deactivate_proceso": `
			UPDATE procesos_produccion
			SET activo = false, updated_at = NOW()
			WHERE id = $1
		`,
		"update_costos": `
			UPDATE procesos_produccion
			SET cantidad_producida = $1, costo_unitario = $2, costo_total = $3, updated_at = NOW()
			WHERE id = $4
			RETURNING updated_at
		`,
		"list_consumos": `
			SELECT id_proceso, id_materia_prima, cantidad
			FROM procesos_materias_primas
			WHERE id_proceso = $1
			ORDER BY id_materia_prima
		`,
		// Precio vigente: se toma de materias_primas en el momento del cálculo
		"list_consumos_con_precio": `
			SELECT c.id_proceso, c.id_materia_prima, c.cantidad, m.nombre, m.unidad, m.precio
			FROM procesos_materias_primas c
			JOIN materias_primas m ON m.id = c.id_materia_prima
			WHERE c.id_proceso = $1
			ORDER BY c.id_materia_prima
		`,
		"active_materias": `
			SELECT id
			FROM materias_primas
			WHERE id = ANY($1) AND activo = true
			FOR SHARE
		`,
		"insert_consumo": `
			INSERT INTO procesos_materias_primas (id_proceso, id_materia_prima, cantidad)
			VALUES ($1, $2, $3)
		`,
		"update_consumo": `
			UPDATE procesos_materias_primas
			SET cantidad = $1
			WHERE id_proceso = $2 AND id_materia_prima = $3
		`,
		"delete_consumo": `
			DELETE FROM procesos_materias_primas
			WHERE id_proceso = $1 AND id_materia_prima = $2
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

// WithinTx abre la transacción, hace commit si fn no falla y rollback en otro caso
func (r *produccionRepository) WithinTx(ctx context.Context, fn func(tx ProduccionTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&produccionTx{tx: tx, stmts: r.stmts}); err != nil {
		r.logger.Debug("Transacción revertida", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanProceso(row interface{ Scan(...interface{}) error }) (*models.ProcesoProduccion, error) {
	var p models.ProcesoProduccion
	err := row.Scan(
		&p.ID, &p.Fecha, &p.IDMaquina, &p.IDForma, &p.IDProducto, &p.Ciclos,
		&p.CantidadProducida, &p.CostoUnitario, &p.CostoTotal, &p.Activo, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProcesoWithDetails obtiene el proceso con sus consumos, fuera de transacción
func (r *produccionRepository) GetProcesoWithDetails(ctx context.Context, id int) (*models.ProcesoWithDetails, error) {
	proceso, err := scanProceso(r.stmts["get_proceso"].QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proceso: %w", err)
	}

	detalle := &models.ProcesoWithDetails{ProcesoProduccion: *proceso}

	var forma models.Forma
	err = r.stmts["get_forma"].QueryRowContext(ctx, proceso.IDForma).Scan(
		&forma.ID, &forma.Nombre, &forma.PiezasPorCiclo, &forma.IDProducto, &forma.Activo, &forma.CreatedAt, &forma.UpdatedAt,
	)
	if err == nil {
		detalle.NombreForma = forma.Nombre
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get forma: %w", err)
	}

	consumos, err := queryConsumosConPrecio(ctx, r.stmts["list_consumos_con_precio"], id)
	if err != nil {
		return nil, err
	}
	detalle.Consumos = consumos

	return detalle, nil
}

func queryConsumosConPrecio(ctx context.Context, stmt *sql.Stmt, idProceso int) ([]models.ConsumoConPrecio, error) {
	rows, err := stmt.QueryContext(ctx, idProceso)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumos: %w", err)
	}
	defer rows.Close()

	consumos := []models.ConsumoConPrecio{}
	for rows.Next() {
		var c models.ConsumoConPrecio
		if err := rows.Scan(&c.IDProceso, &c.IDMateriaPrima, &c.Cantidad, &c.NombreMateriaPrima, &c.Unidad, &c.PrecioActual); err != nil {
			return nil, fmt.Errorf("failed to scan consumo: %w", err)
		}
		consumos = append(consumos, c)
	}

	return consumos, rows.Err()
}

// produccionTx implementa ProduccionTx sobre los statements preparados
type produccionTx struct {
	tx    *sql.Tx
	stmts map[string]*sql.Stmt
}

func (t *produccionTx) stmt(ctx context.Context, name string) *sql.Stmt {
	return t.tx.StmtContext(ctx, t.stmts[name])
}

func (t *produccionTx) LockProceso(ctx context.Context, id int) (*models.ProcesoProduccion, error) {
	proceso, err := scanProceso(t.stmt(ctx, "lock_proceso").QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock proceso: %w", err)
	}
	return proceso, nil
}

func (t *produccionTx) GetForma(ctx context.Context, id int) (*models.Forma, error) {
	var f models.Forma
	err := t.stmt(ctx, "get_forma").QueryRowContext(ctx, id).Scan(
		&f.ID, &f.Nombre, &f.PiezasPorCiclo, &f.IDProducto, &f.Activo, &f.CreatedAt, &f.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get forma: %w", err)
	}
	return &f, nil
}

func (t *produccionTx) CreateProceso(ctx context.Context, p *models.ProcesoProduccion) error {
	err := t.stmt(ctx, "create_proceso").QueryRowContext(ctx,
		p.Fecha, p.IDMaquina, p.IDForma, p.IDProducto, p.Ciclos,
		p.CantidadProducida, p.CostoUnitario, p.CostoTotal, p.Activo,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create proceso: %w", err)
	}
	return nil
}

func (t *produccionTx) UpdateProceso(ctx context.Context, p *models.ProcesoProduccion) error {
	err := t.stmt(ctx, "update_proceso").QueryRowContext(ctx,
		p.Fecha, p.IDMaquina, p.IDForma, p.IDProducto, p.Ciclos, p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update proceso: %w", err)
	}
	return nil
}

func (t *produccionTx) DeactivateProceso(ctx context.Context, id int) error {
	if _, err := t.stmt(ctx, "deactivate_proceso").ExecContext(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate proceso: %w", err)
	}
	return nil
}

func (t *produccionTx) UpdateCostos(ctx context.Context, p *models.ProcesoProduccion) error {
	err := t.stmt(ctx, "update_costos").QueryRowContext(ctx,
		p.CantidadProducida, p.CostoUnitario, p.CostoTotal, p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update costos: %w", err)
	}
	return nil
}

func (t *produccionTx) ListConsumos(ctx context.Context, idProceso int) ([]models.ConsumoMateriaPrima, error) {
	rows, err := t.stmt(ctx, "list_consumos").QueryContext(ctx, idProceso)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumos: %w", err)
	}
	defer rows.Close()

	var consumos []models.ConsumoMateriaPrima
	for rows.Next() {
		var c models.ConsumoMateriaPrima
		if err := rows.Scan(&c.IDProceso, &c.IDMateriaPrima, &c.Cantidad); err != nil {
			return nil, fmt.Errorf("failed to scan consumo: %w", err)
		}
		consumos = append(consumos, c)
	}

	return consumos, rows.Err()
}

func (t *produccionTx) ListConsumosConPrecio(ctx context.Context, idProceso int) ([]models.ConsumoConPrecio, error) {
	return queryConsumosConPrecio(ctx, t.stmt(ctx, "list_consumos_con_precio"), idProceso)
}

func (t *produccionTx) ActiveMateriaPrimaIDs(ctx context.Context, ids []int) (map[int]bool, error) {
	activos := make(map[int]bool, len(ids))
	if len(ids) == 0 {
		return activos, nil
	}

	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		ids64[i] = int64(id)
	}

	rows, err := t.stmt(ctx, "active_materias").QueryContext(ctx, pq.Array(ids64))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve materias primas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan materia prima id: %w", err)
		}
		activos[id] = true
	}

	return activos, rows.Err()
}

func (t *produccionTx) InsertConsumo(ctx context.Context, c models.ConsumoMateriaPrima) error {
	if _, err := t.stmt(ctx, "insert_consumo").ExecContext(ctx, c.IDProceso, c.IDMateriaPrima, c.Cantidad); err != nil {
		return fmt.Errorf("failed to insert consumo %d: %w", c.IDMateriaPrima, err)
	}
	return nil
}

func (t *produccionTx) UpdateConsumo(ctx context.Context, c models.ConsumoMateriaPrima) error {
	return execOne(ctx, t.stmt(ctx, "update_consumo"), "update consumo", c.Cantidad, c.IDProceso, c.IDMateriaPrima)
}

func (t *produccionTx) DeleteConsumo(ctx context.Context, idProceso, idMateriaPrima int) error {
	return execOne(ctx, t.stmt(ctx, "delete_consumo"), "delete consumo", idProceso, idMateriaPrima)
}

// execOne ejecuta y exige exactamente una fila afectada
func execOne(ctx context.Context, stmt *sql.Stmt, op string, args ...interface{}) error {
	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected != 1 {
		return fmt.Errorf("failed to %s: %d rows affected", op, rowsAffected)
	}
	return nil
}
