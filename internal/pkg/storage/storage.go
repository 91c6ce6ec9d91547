// Package storage 定义动态媒体使用的对象存储抽象，具体实现见 minio 与 s3 包
package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStore 对象存储
type ObjectStore interface {
	// Upload 上传对象，返回最终的对象 key
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	// Delete 删除对象，对象不存在不视为错误
	Delete(ctx context.Context, key string) error
	// PublicURL 对象的公开访问地址
	PublicURL(key string) string
}

// NewObjectKey 生成 prefix/yyyy/mm/dd/uuid.ext 形式的对象 key
func NewObjectKey(prefix string, now time.Time, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return prefix + now.Format("2006/01/02/") + uuid.NewString() + ext
}
