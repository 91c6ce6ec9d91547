package wire

import (
	"Glimpse/internal/api/config"
	"Glimpse/internal/pkg/minio"
	"Glimpse/internal/pkg/s3"
	"Glimpse/internal/pkg/storage"
	"context"
	"fmt"
)

// NewObjectStore 按 storage.driver 选择对象存储实现
func NewObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Storage.Driver {
	case "", "minio":
		store, err := minio.Init(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		store, err := s3.NewFromConfig(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
