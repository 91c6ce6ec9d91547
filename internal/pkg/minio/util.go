package minio

import (
	"Glimpse/internal/api/config"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Store MinIO 实现的 storage.ObjectStore
type Store struct {
	client   *minio.Client
	bucket   string
	endpoint string
}

func NewStore(client *minio.Client, cfg config.MinIOConfig) *Store {
	return &Store{
		client:   client,
		bucket:   cfg.MainBucket,
		endpoint: cfg.ExternalEndpoint,
	}
}

// Upload 上传文件到MinIO
func (s *Store) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	uploadInfo, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return uploadInfo.Key, nil
}

// Delete 删除MinIO中的文件
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// PublicURL 获取文件的公共访问URL，外部地址统一走 https
func (s *Store) PublicURL(key string) string {
	return PublicURL(s.endpoint, s.bucket, key)
}

func PublicURL(endpoint, bucket, key string) string {
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return fmt.Sprintf("https://%s/%s/%s", endpoint, bucket, strings.TrimPrefix(key, "/"))
}
