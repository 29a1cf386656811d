// Package archive guarda documentos originales (facturas) como registro de auditoría.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Proveedores de almacenamiento soportados
const (
	ProviderLocal = "local"
	ProviderGCS   = "gcs"
)

// Store capacidad de guardar bytes en una ruta
type Store interface {
	Save(ctx context.Context, key string, r io.Reader) error
}

// InvoiceKey ruta determinística para una factura a partir del nombre del archivo subido.
// Nombres que solo difieren en caracteres no permitidos comparten ruta; el último gana.
func InvoiceKey(fileName string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		base = "sin_nombre.xml"
	}

	limpio := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)

	return path.Join("invoices", limpio)
}

// LocalStore guarda archivos bajo un directorio raíz
type LocalStore struct {
	root   string
	logger *zap.Logger
}

// NewLocalStore crea el directorio raíz si no existe
func NewLocalStore(root string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive dir: %w", err)
	}
	return &LocalStore{root: root, logger: logger}, nil
}

// Save escribe el contenido completo y siempre libera el archivo
func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	destino := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destino), 0o755); err != nil {
		return fmt.Errorf("failed to create archive dir: %w", err)
	}

	if _, statErr := os.Stat(destino); statErr == nil {
		s.logger.Warn("⚠️ Reemplazando documento archivado", zap.String("path", destino))
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("failed to stat archive file: %w", statErr)
	}

	f, err := os.Create(destino)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close archive file: %w", cerr)
		}
	}()

	n, err := io.Copy(f, r)
	if err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}

	s.logger.Debug("Documento archivado",
		zap.String("path", destino),
		zap.Int64("bytes", n))
	return nil
}
