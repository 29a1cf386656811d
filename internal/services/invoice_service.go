package services

import (
	"bytes"
	"context"

	"produccion-service/internal/archive"
	"produccion-service/internal/invoice"
	"produccion-service/internal/models"
	"produccion-service/internal/units"

	"go.uber.org/zap"
)

// InvoiceService registra materias primas a partir de facturas de proveedores
type InvoiceService interface {
	IngestInvoice(ctx context.Context, data []byte, fileName string) (*models.MateriaPrima, error)
}

type invoiceService struct {
	materias MateriaPrimaService
	store    archive.Store
	logger   *zap.Logger
}

// NewInvoiceService crea una nueva instancia del servicio
func NewInvoiceService(materias MateriaPrimaService, store archive.Store, logger *zap.Logger) InvoiceService {
	return &invoiceService{
		materias: materias,
		store:    store,
		logger:   logger,
	}
}

// IngestInvoice archiva el documento, lo interpreta, normaliza la unidad y
// registra una materia prima con la misma validación que un alta manual.
// El archivo queda guardado aunque el documento sea rechazado.
func (s *invoiceService) IngestInvoice(ctx context.Context, data []byte, fileName string) (*models.MateriaPrima, error) {
	key := archive.InvoiceKey(fileName)
	logger := s.logger.With(
		zap.String("operation", "ingest_invoice"),
		zap.String("file", fileName),
		zap.String("key", key),
	)

	logger.Info("🔍 Archivando factura", zap.Int("bytes", len(data)))
	if err := s.store.Save(ctx, key, bytes.NewReader(data)); err != nil {
		logger.Error("❌ Error archivando factura, se continúa con la extracción", zap.Error(err))
	}

	doc, err := invoice.Parse(data)
	if err != nil {
		logger.Warn("⚠️ Factura ilegible", zap.Error(err))
		return nil, err
	}

	unidad, precio, err := units.Normalize(doc.Unidad, doc.Precio)
	if err != nil {
		logger.Warn("⚠️ Precio inválido en factura", zap.String("precio", doc.Precio), zap.Error(err))
		return nil, err
	}

	if unidad != doc.Unidad {
		logger.Info("🔍 Unidad normalizada",
			zap.String("unidad_declarada", doc.Unidad),
			zap.String("unidad", unidad),
			zap.String("precio", precio.String()))
	}

	materia, err := s.materias.CreateMateriaPrima(ctx, &models.MateriaPrimaRequest{
		Nombre:    doc.Producto,
		Proveedor: doc.Proveedor,
		Unidad:    unidad,
		Precio:    precio,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("✅ Materia prima registrada desde factura", zap.Int("id", materia.ID))
	return materia, nil
}
