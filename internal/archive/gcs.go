package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GCSStore guarda documentos en un bucket de Google Cloud Storage
type GCSStore struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// NewGCSStore usa credenciales JSON explícitas si se proporcionan; si no, ADC
func NewGCSStore(ctx context.Context, bucket, credentialsJSON string, logger *zap.Logger) (*GCSStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("GCS_BUCKET is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	logger.Info("GCS archive configured", zap.String("bucket", bucket))

	return &GCSStore{client: client, bucket: bucket, logger: logger}, nil
}

// Save sube el objeto; el writer se cierra siempre y el error de Close es el que confirma la subida
func (s *GCSStore) Save(ctx context.Context, key string, r io.Reader) (err error) {
	obj := s.client.Bucket(s.bucket).Object(key)
	if _, attrErr := obj.Attrs(ctx); attrErr == nil {
		s.logger.Warn("⚠️ Reemplazando documento archivado",
			zap.String("bucket", s.bucket),
			zap.String("object", key))
	} else if !errors.Is(attrErr, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to stat object %s: %w", key, attrErr)
	}

	wc := obj.NewWriter(ctx)
	wc.ContentType = "application/xml"

	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to finalize object %s: %w", key, cerr)
		}
	}()

	n, err := io.Copy(wc, r)
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	s.logger.Debug("Documento archivado en GCS",
		zap.String("bucket", s.bucket),
		zap.String("object", key),
		zap.Int64("bytes", n))
	return nil
}

// Close libera el cliente
func (s *GCSStore) Close() error {
	return s.client.Close()
}
