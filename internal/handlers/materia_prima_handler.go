package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"produccion-service/internal/models"
	"produccion-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CampoArchivo nombre del campo multipart con la factura
const CampoArchivo = "arquivo"

// MateriaPrimaHandler maneja las peticiones HTTP de materias primas y facturas
type MateriaPrimaHandler struct {
	materiaService services.MateriaPrimaService
	invoiceService services.InvoiceService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewMateriaPrimaHandler crea una nueva instancia del handler
func NewMateriaPrimaHandler(materiaService services.MateriaPrimaService, invoiceService services.InvoiceService, maxUploadBytes int64, logger *zap.Logger) *MateriaPrimaHandler {
	return &MateriaPrimaHandler{
		materiaService: materiaService,
		invoiceService: invoiceService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// logDebug logs solo en modo debug
func (h *MateriaPrimaHandler) logDebug(msg string, fields ...zap.Field) {
	h.logger.Debug("🔍 [DEBUG] "+msg, fields...)
}

// logSuccess logs de éxito en todos los modos
func (h *MateriaPrimaHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// CreateMateriaPrima POST /materias-primas
func (h *MateriaPrimaHandler) CreateMateriaPrima(c *gin.Context) {
	var req models.MateriaPrimaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Error en el formato de datos", err)
		return
	}

	h.logDebug("Alta de materia prima recibida", zap.String("nombre", req.Nombre))

	materia, err := h.materiaService.CreateMateriaPrima(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "Error creando materia prima", err)
		return
	}

	h.logSuccess("Materia prima creada", zap.Int("id", materia.ID))
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "✅ Materia prima creada exitosamente",
		"data":    materia,
	})
}

// UpdateMateriaPrima PUT /materias-primas/:id
func (h *MateriaPrimaHandler) UpdateMateriaPrima(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.MateriaPrimaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Error en el formato de datos", err)
		return
	}

	materia, err := h.materiaService.UpdateMateriaPrima(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, "Error actualizando materia prima", err)
		return
	}

	h.logSuccess("Materia prima actualizada", zap.Int("id", id))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Materia prima actualizada exitosamente",
		"data":    materia,
	})
}

// DeactivateMateriaPrima DELETE /materias-primas/:id
func (h *MateriaPrimaHandler) DeactivateMateriaPrima(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	materia, err := h.materiaService.DeactivateMateriaPrima(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Error desactivando materia prima", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Materia prima desactivada",
		"data":    materia,
	})
}

// GetMateriaPrima GET /materias-primas/:id
func (h *MateriaPrimaHandler) GetMateriaPrima(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	materia, err := h.materiaService.GetMateriaPrima(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Error obteniendo materia prima", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    materia,
	})
}

// ListMateriasPrimas GET /materias-primas?activas=true
func (h *MateriaPrimaHandler) ListMateriasPrimas(c *gin.Context) {
	soloActivas, err := strconv.ParseBool(c.DefaultQuery("activas", "false"))
	if err != nil {
		respondBadRequest(c, "Parámetro activas inválido", err)
		return
	}

	materias, err := h.materiaService.ListMateriasPrimas(c.Request.Context(), soloActivas)
	if err != nil {
		respondError(c, h.logger, "Error listando materias primas", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    materias,
		"total":   len(materias),
	})
}

// UploadInvoice POST /materias-primas/xml (multipart, campo "arquivo")
func (h *MateriaPrimaHandler) UploadInvoice(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	header, err := c.FormFile(CampoArchivo)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"message": "❌ Archivo demasiado grande",
				"error":   err.Error(),
			})
			return
		}
		respondBadRequest(c, "Archivo XML no recibido", err)
		return
	}

	file, err := header.Open()
	if err != nil {
		respondBadRequest(c, "No se pudo abrir el archivo", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondBadRequest(c, "No se pudo leer el archivo", err)
		return
	}

	h.logDebug("Factura recibida", zap.String("file", header.Filename), zap.Int("bytes", len(data)))

	materia, err := h.invoiceService.IngestInvoice(c.Request.Context(), data, header.Filename)
	if err != nil {
		respondError(c, h.logger, "Error procesando factura", err)
		return
	}

	h.logSuccess("Materia prima registrada desde factura", zap.Int("id", materia.ID), zap.String("file", header.Filename))
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "✅ Materia prima registrada desde factura",
		"data":    materia,
	})
}
