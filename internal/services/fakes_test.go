package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"produccion-service/internal/models"
	"produccion-service/internal/repository"

	"github.com/shopspring/decimal"
)

var errDBCaida = errors.New("conexión con la base perdida")

// fakeStore estado compartido por los repositorios en memoria
type fakeStore struct {
	mu sync.Mutex

	materias  map[int]models.MateriaPrima
	formas    map[int]models.Forma
	procesos  map[int]models.ProcesoProduccion
	consumos  map[int]map[int]decimal.Decimal
	nextID    int
	failOn    string
	txCommits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		materias: make(map[int]models.MateriaPrima),
		formas:   make(map[int]models.Forma),
		procesos: make(map[int]models.ProcesoProduccion),
		consumos: make(map[int]map[int]decimal.Decimal),
		nextID:   100,
	}
}

func (s *fakeStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addMateria(id int, nombre string, precio string, activo bool) {
	s.materias[id] = models.MateriaPrima{
		ID:        id,
		Nombre:    nombre,
		Proveedor: "Proveedor",
		Unidad:    "kg",
		Precio:    decimal.RequireFromString(precio),
		Activo:    activo,
	}
}

func (s *fakeStore) addForma(id, piezas, producto int) {
	s.formas[id] = models.Forma{ID: id, Nombre: fmt.Sprintf("Forma %d", id), PiezasPorCiclo: piezas, IDProducto: producto, Activo: true}
}

func (s *fakeStore) addProceso(id, forma, ciclos int, lineas map[int]string) {
	s.procesos[id] = models.ProcesoProduccion{ID: id, IDForma: forma, IDProducto: s.formas[forma].IDProducto, Ciclos: ciclos, Activo: true, Fecha: time.Now()}
	s.consumos[id] = make(map[int]decimal.Decimal)
	for idMateria, cantidad := range lineas {
		s.consumos[id][idMateria] = decimal.RequireFromString(cantidad)
	}
}

// lineas copia ordenada de las líneas de un proceso como texto
func (s *fakeStore) lineas(idProceso int) map[int]string {
	out := make(map[int]string)
	for id, c := range s.consumos[idProceso] {
		out[id] = c.String()
	}
	return out
}

func (s *fakeStore) snapshot() *fakeStore {
	cp := newFakeStore()
	for k, v := range s.materias {
		cp.materias[k] = v
	}
	for k, v := range s.formas {
		cp.formas[k] = v
	}
	for k, v := range s.procesos {
		cp.procesos[k] = v
	}
	for k, lineas := range s.consumos {
		cp.consumos[k] = make(map[int]decimal.Decimal, len(lineas))
		for id, c := range lineas {
			cp.consumos[k][id] = c
		}
	}
	cp.nextID = s.nextID
	return cp
}

func (s *fakeStore) restore(cp *fakeStore) {
	s.materias, s.formas, s.procesos, s.consumos, s.nextID = cp.materias, cp.formas, cp.procesos, cp.consumos, cp.nextID
}

func (s *fakeStore) fail(op string) error {
	if s.failOn == op {
		return errDBCaida
	}
	return nil
}

// ===== MateriaPrimaRepository =====

type fakeMateriaPrimaRepo struct{ s *fakeStore }

func (r *fakeMateriaPrimaRepo) GetByID(ctx context.Context, id int) (*models.MateriaPrima, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.materias[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *fakeMateriaPrimaRepo) GetByNombre(ctx context.Context, nombre string) (*models.MateriaPrima, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.materias {
		if m.Nombre == nombre {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func (r *fakeMateriaPrimaRepo) List(ctx context.Context, soloActivas bool) ([]*models.MateriaPrima, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.MateriaPrima
	for _, m := range r.s.materias {
		if soloActivas && !m.Activo {
			continue
		}
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *fakeMateriaPrimaRepo) Create(ctx context.Context, m *models.MateriaPrima) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("create_materia"); err != nil {
		return err
	}
	for _, existente := range r.s.materias {
		if existente.Nombre == m.Nombre {
			return repository.ErrDuplicado
		}
	}
	m.ID = r.s.id()
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	r.s.materias[m.ID] = *m
	return nil
}

func (r *fakeMateriaPrimaRepo) Update(ctx context.Context, m *models.MateriaPrima) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.materias[m.ID]; !ok {
		return fmt.Errorf("no materia prima found with id %d", m.ID)
	}
	for _, existente := range r.s.materias {
		if existente.Nombre == m.Nombre && existente.ID != m.ID {
			return repository.ErrDuplicado
		}
	}
	m.UpdatedAt = time.Now()
	r.s.materias[m.ID] = *m
	return nil
}

// ===== ProduccionRepository =====

type fakeProduccionRepo struct{ s *fakeStore }

func (r *fakeProduccionRepo) WithinTx(ctx context.Context, fn func(tx repository.ProduccionTx) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := r.s.snapshot()
	if err := fn(&fakeTx{s: r.s}); err != nil {
		r.s.restore(cp)
		return err
	}
	r.s.txCommits++
	return nil
}

func (r *fakeProduccionRepo) GetProcesoWithDetails(ctx context.Context, id int) (*models.ProcesoWithDetails, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.procesos[id]
	if !ok {
		return nil, nil
	}
	tx := &fakeTx{s: r.s}
	consumos, _ := tx.ListConsumosConPrecio(ctx, id)
	return &models.ProcesoWithDetails{
		ProcesoProduccion: p,
		NombreForma:       r.s.formas[p.IDForma].Nombre,
		Consumos:          consumos,
	}, nil
}

// fakeTx opera sobre el estado ya bloqueado por WithinTx
type fakeTx struct{ s *fakeStore }

func (t *fakeTx) LockProceso(ctx context.Context, id int) (*models.ProcesoProduccion, error) {
	p, ok := t.s.procesos[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *fakeTx) GetForma(ctx context.Context, id int) (*models.Forma, error) {
	f, ok := t.s.formas[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (t *fakeTx) CreateProceso(ctx context.Context, p *models.ProcesoProduccion) error {
	p.ID = t.s.id()
	t.s.procesos[p.ID] = *p
	t.s.consumos[p.ID] = make(map[int]decimal.Decimal)
	return nil
}

func (t *fakeTx) UpdateProceso(ctx context.Context, p *models.ProcesoProduccion) error {
	if err := t.s.fail("update_proceso"); err != nil {
		return err
	}
	t.s.procesos[p.ID] = *p
	return nil
}

func (t *fakeTx) DeactivateProceso(ctx context.Context, id int) error {
	p := t.s.procesos[id]
	p.Activo = false
	t.s.procesos[id] = p
	return nil
}

func (t *fakeTx) UpdateCostos(ctx context.Context, p *models.ProcesoProduccion) error {
	if err := t.s.fail("update_costos"); err != nil {
		return err
	}
	t.s.procesos[p.ID] = *p
	return nil
}

func (t *fakeTx) ListConsumos(ctx context.Context, idProceso int) ([]models.ConsumoMateriaPrima, error) {
	var out []models.ConsumoMateriaPrima
	for id, c := range t.s.consumos[idProceso] {
		out = append(out, models.ConsumoMateriaPrima{IDProceso: idProceso, IDMateriaPrima: id, Cantidad: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IDMateriaPrima < out[j].IDMateriaPrima })
	return out, nil
}

func (t *fakeTx) ListConsumosConPrecio(ctx context.Context, idProceso int) ([]models.ConsumoConPrecio, error) {
	consumos, _ := t.ListConsumos(ctx, idProceso)
	out := make([]models.ConsumoConPrecio, 0, len(consumos))
	for _, c := range consumos {
		m := t.s.materias[c.IDMateriaPrima]
		out = append(out, models.ConsumoConPrecio{
			ConsumoMateriaPrima: c,
			NombreMateriaPrima:  m.Nombre,
			Unidad:              m.Unidad,
			PrecioActual:        m.Precio,
		})
	}
	return out, nil
}

func (t *fakeTx) ActiveMateriaPrimaIDs(ctx context.Context, ids []int) (map[int]bool, error) {
	activos := make(map[int]bool)
	for _, id := range ids {
		if m, ok := t.s.materias[id]; ok && m.Activo {
			activos[id] = true
		}
	}
	return activos, nil
}

func (t *fakeTx) InsertConsumo(ctx context.Context, c models.ConsumoMateriaPrima) error {
	t.s.consumos[c.IDProceso][c.IDMateriaPrima] = c.Cantidad
	return nil
}

func (t *fakeTx) UpdateConsumo(ctx context.Context, c models.ConsumoMateriaPrima) error {
	t.s.consumos[c.IDProceso][c.IDMateriaPrima] = c.Cantidad
	return nil
}

func (t *fakeTx) DeleteConsumo(ctx context.Context, idProceso, idMateriaPrima int) error {
	if err := t.s.fail("delete_consumo"); err != nil {
		return err
	}
	delete(t.s.consumos[idProceso], idMateriaPrima)
	return nil
}

// ===== archive.Store =====

type fakeArchive struct {
	saved map[string][]byte
	err   error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{saved: make(map[string][]byte)}
}

func (a *fakeArchive) Save(ctx context.Context, key string, r io.Reader) error {
	if a.err != nil {
		return a.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	a.saved[key] = data
	return nil
}
