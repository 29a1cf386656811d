package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"produccion-service/internal/apperrors"
	"produccion-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubMateriaService struct {
	created *models.MateriaPrimaRequest
	err     error
}

func (s *stubMateriaService) CreateMateriaPrima(ctx context.Context, req *models.MateriaPrimaRequest) (*models.MateriaPrima, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.MateriaPrima{ID: 1, Nombre: req.Nombre, Proveedor: req.Proveedor, Unidad: req.Unidad, Precio: req.Precio, Activo: true}, nil
}

func (s *stubMateriaService) UpdateMateriaPrima(ctx context.Context, id int, req *models.MateriaPrimaRequest) (*models.MateriaPrima, error) {
	return nil, &apperrors.NotFoundError{Entity: "materia prima", ID: id}
}

func (s *stubMateriaService) DeactivateMateriaPrima(ctx context.Context, id int) (*models.MateriaPrima, error) {
	return &models.MateriaPrima{ID: id}, nil
}

func (s *stubMateriaService) GetMateriaPrima(ctx context.Context, id int) (*models.MateriaPrima, error) {
	return &models.MateriaPrima{ID: id, Nombre: "Resina"}, nil
}

func (s *stubMateriaService) ListMateriasPrimas(ctx context.Context, soloActivas bool) ([]*models.MateriaPrima, error) {
	if soloActivas {
		return []*models.MateriaPrima{{ID: 1}}, nil
	}
	return []*models.MateriaPrima{{ID: 1}, {ID: 2}}, nil
}

type stubInvoiceService struct {
	fileName string
	data     []byte
	err      error
}

func (s *stubInvoiceService) IngestInvoice(ctx context.Context, data []byte, fileName string) (*models.MateriaPrima, error) {
	s.fileName, s.data = fileName, data
	if s.err != nil {
		return nil, s.err
	}
	return &models.MateriaPrima{ID: 5, Unidad: "kg", Precio: decimal.NewFromInt(1)}, nil
}

type stubProduccionService struct {
	target []models.ConsumoRequest
	err    error
}

func (s *stubProduccionService) CreateProceso(ctx context.Context, req *models.ProcesoProduccionRequest) (*models.ProcesoWithDetails, error) {
	return &models.ProcesoWithDetails{ProcesoProduccion: models.ProcesoProduccion{ID: 9, IDForma: req.IDForma}}, s.err
}

func (s *stubProduccionService) UpdateProceso(ctx context.Context, id int, req *models.ProcesoProduccionRequest) (*models.ProcesoWithDetails, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.target = req.MateriasPrimas
	return &models.ProcesoWithDetails{ProcesoProduccion: models.ProcesoProduccion{ID: id, IDForma: req.IDForma, Ciclos: req.Ciclos}}, nil
}

func (s *stubProduccionService) DeactivateProceso(ctx context.Context, id int) error {
	return s.err
}

func (s *stubProduccionService) GetProceso(ctx context.Context, id int) (*models.ProcesoWithDetails, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ProcesoWithDetails{ProcesoProduccion: models.ProcesoProduccion{ID: id}}, nil
}

func (s *stubProduccionService) ReconcileConsumption(ctx context.Context, id int, target []models.ConsumoRequest) (*models.ReconciliacionResponse, error) {
	s.target = target
	if s.err != nil {
		return nil, s.err
	}
	return &models.ReconciliacionResponse{IDProceso: id, Agregadas: len(target)}, nil
}

func (s *stubProduccionService) CalculateProduction(ctx context.Context, id int) (*models.ProcesoProduccion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ProcesoProduccion{ID: id, CostoTotal: decimal.RequireFromString("55")}, nil
}

func newTestRouter(materias *stubMateriaService, facturas *stubInvoiceService, produccion *stubProduccionService) *gin.Engine {
	logger := zap.NewNop()
	mh := NewMateriaPrimaHandler(materias, facturas, 1<<20, logger)
	ph := NewProduccionHandler(produccion, logger)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/materias-primas", mh.CreateMateriaPrima)
	v1.GET("/materias-primas", mh.ListMateriasPrimas)
	v1.POST("/materias-primas/xml", mh.UploadInvoice)
	v1.GET("/materias-primas/:id", mh.GetMateriaPrima)
	v1.PUT("/materias-primas/:id", mh.UpdateMateriaPrima)
	v1.DELETE("/materias-primas/:id", mh.DeactivateMateriaPrima)
	v1.POST("/producciones", ph.CreateProceso)
	v1.GET("/producciones/:id", ph.GetProceso)
	v1.PUT("/producciones/:id", ph.UpdateProceso)
	v1.DELETE("/producciones/:id", ph.DeactivateProceso)
	v1.PUT("/producciones/:id/materias-primas", ph.ReconcileConsumption)
	v1.POST("/producciones/:id/calcular", ph.CalculateProduction)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateMateriaPrima_Handler(t *testing.T) {
	materias := &stubMateriaService{}
	r := newTestRouter(materias, &stubInvoiceService{}, &stubProduccionService{})

	w := doJSON(r, http.MethodPost, "/api/v1/materias-primas", `{"nombre":"Resina","proveedor":"Braskem","unidad":"kg","precio":"7.35"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])
	require.NotNil(t, materias.created)
	assert.Equal(t, "7.35", materias.created.Precio.String())
}

func TestCreateMateriaPrima_HandlerErrores(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"json inválido", `{"nombre":`, nil, http.StatusBadRequest},
		{"validación", `{"nombre":""}`, apperrors.NewValidation("el campo \"nombre\" no puede estar vacío"), http.StatusBadRequest},
		{"falla interna", `{"nombre":"x"}`, errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&stubMateriaService{err: tt.err}, &stubInvoiceService{}, &stubProduccionService{})

			w := doJSON(r, http.MethodPost, "/api/v1/materias-primas", tt.body)
			assert.Equal(t, tt.status, w.Code)

			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, body["error"], "pq:")
			}
		})
	}
}

func TestMateriaPrima_HandlerConsultas(t *testing.T) {
	r := newTestRouter(&stubMateriaService{}, &stubInvoiceService{}, &stubProduccionService{})

	w := doJSON(r, http.MethodGet, "/api/v1/materias-primas?activas=true", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["total"])

	w = doJSON(r, http.MethodGet, "/api/v1/materias-primas?activas=quizas", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/materias-primas/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, "/api/v1/materias-primas/8", `{"nombre":"Resina","proveedor":"B","unidad":"kg","precio":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/v1/materias-primas/8", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func multipartXML(t *testing.T, field, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadInvoice_Handler(t *testing.T) {
	facturas := &stubInvoiceService{}
	r := newTestRouter(&stubMateriaService{}, facturas, &stubProduccionService{})

	body, contentType := multipartXML(t, CampoArchivo, "nota.xml", []byte("<nfeProc/>"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/materias-primas/xml", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "nota.xml", facturas.fileName)
	assert.Equal(t, []byte("<nfeProc/>"), facturas.data)
}

func TestUploadInvoice_HandlerErrores(t *testing.T) {
	t.Run("sin archivo", func(t *testing.T) {
		r := newTestRouter(&stubMateriaService{}, &stubInvoiceService{}, &stubProduccionService{})

		body, contentType := multipartXML(t, "otro", "nota.xml", []byte("<x/>"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/materias-primas/xml", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("campo ausente en la factura", func(t *testing.T) {
		facturas := &stubInvoiceService{err: &apperrors.MissingFieldError{Field: "precio"}}
		r := newTestRouter(&stubMateriaService{}, facturas, &stubProduccionService{})

		body, contentType := multipartXML(t, CampoArchivo, "nota.xml", []byte("<nfeProc/>"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/materias-primas/xml", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody(t, w)["error"], "precio")
	})

	t.Run("archivo demasiado grande", func(t *testing.T) {
		r := newTestRouter(&stubMateriaService{}, &stubInvoiceService{}, &stubProduccionService{})

		body, contentType := multipartXML(t, CampoArchivo, "grande.xml", bytes.Repeat([]byte("a"), 2<<20))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/materias-primas/xml", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestReconcileConsumption_Handler(t *testing.T) {
	produccion := &stubProduccionService{}
	r := newTestRouter(&stubMateriaService{}, &stubInvoiceService{}, produccion)

	w := doJSON(r, http.MethodPut, "/api/v1/producciones/10/materias-primas",
		`{"materias_primas":[{"id_materia_prima":1,"cantidad":"5"},{"id_materia_prima":3,"cantidad":3}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, produccion.target, 2)
	assert.Equal(t, 3, produccion.target[1].IDMateriaPrima)
	assert.Equal(t, "3", produccion.target[1].Cantidad.String())
}

func TestReconcileConsumption_HandlerErrores(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		err    error
		status int
	}{
		{"id inválido", "/api/v1/producciones/x/materias-primas", `{"materias_primas":[]}`, nil, http.StatusBadRequest},
		{"id de materia ausente", "/api/v1/producciones/10/materias-primas", `{"materias_primas":[{"cantidad":1}]}`, nil, http.StatusBadRequest},
		{"materia desconocida", "/api/v1/producciones/10/materias-primas", `{"materias_primas":[{"id_materia_prima":9,"cantidad":1}]}`, &apperrors.UnknownMaterialError{MaterialID: 9}, http.StatusBadRequest},
		{"proceso inexistente", "/api/v1/producciones/404/materias-primas", `{"materias_primas":[]}`, &apperrors.NotFoundError{Entity: "proceso", ID: 404}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&stubMateriaService{}, &stubInvoiceService{}, &stubProduccionService{err: tt.err})
			w := doJSON(r, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestCalculateProduction_Handler(t *testing.T) {
	r := newTestRouter(&stubMateriaService{}, &stubInvoiceService{}, &stubProduccionService{})

	w := doJSON(r, http.MethodPost, "/api/v1/producciones/10/calcular", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "55", data["costo_total"])

	r = newTestRouter(&stubMateriaService{}, &stubInvoiceService{}, &stubProduccionService{err: &apperrors.NotFoundError{Entity: "forma", ID: 3}})
	w = doJSON(r, http.MethodPost, "/api/v1/producciones/10/calcular", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateProceso_Handler(t *testing.T) {
	r := newTestRouter(&stubMateriaService{}, &stubInvoiceService{}, &stubProduccionService{})

	w := doJSON(r, http.MethodPost, "/api/v1/producciones",
		`{"fecha":"2024-03-01T00:00:00Z","id_maquina":2,"id_forma":7,"ciclos":10,"materias_primas":[{"id_materia_prima":1,"cantidad":2}]}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/producciones", `{"fecha":"2024-03-01T00:00:00Z","id_maquina":2,"ciclos":10}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/producciones/9", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/v1/producciones/9", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateProceso_Handler(t *testing.T) {
	produccion := &stubProduccionService{}
	r := newTestRouter(&stubMateriaService{}, &stubInvoiceService{}, produccion)

	w := doJSON(r, http.MethodPut, "/api/v1/producciones/9",
		`{"fecha":"2024-03-02T00:00:00Z","id_maquina":2,"id_forma":8,"ciclos":30,"materias_primas":[{"id_materia_prima":1,"cantidad":4}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(8), data["id_forma"])
	assert.Equal(t, float64(30), data["ciclos"])
	require.Len(t, produccion.target, 1)

	w = doJSON(r, http.MethodPut, "/api/v1/producciones/9", `{"fecha":"2024-03-02T00:00:00Z","id_maquina":2,"ciclos":30}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = newTestRouter(&stubMateriaService{}, &stubInvoiceService{}, &stubProduccionService{err: &apperrors.NotFoundError{Entity: "proceso", ID: 9}})
	w = doJSON(r, http.MethodPut, "/api/v1/producciones/9",
		`{"fecha":"2024-03-02T00:00:00Z","id_maquina":2,"id_forma":8,"ciclos":30}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
