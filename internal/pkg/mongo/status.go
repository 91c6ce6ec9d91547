package mongo

import (
	"time"
)

// StatusModel 限时动态，每个用户最多一条，_id 即发布者ID
type StatusModel struct {
	OwnerID   uint64         `bson:"_id"`
	StatusID  string         `bson:"status_id"`  // 每次上传生成的唯一ID
	MediaURL  string         `bson:"media_url"`  // 对外访问地址
	MediaKey  string         `bson:"media_key"`  // 对象存储中的 key
	MediaType string         `bson:"media_type"` // image | video
	MimeType  string         `bson:"mime_type"`
	Size      int64          `bson:"size"`
	Width     int            `bson:"width,omitempty"`
	Height    int            `bson:"height,omitempty"`
	Viewers   []StatusViewer `bson:"viewers"`
	CreatedAt time.Time      `bson:"created_at"`
	ExpiresAt time.Time      `bson:"expires_at"` // TTL 索引字段
}

// StatusViewer 浏览记录，同一用户只记录一次
type StatusViewer struct {
	UserID   uint64    `bson:"user_id"`
	ViewedAt time.Time `bson:"viewed_at"`
}

// IsLive 是否仍在有效期内
func (s *StatusModel) IsLive(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}
