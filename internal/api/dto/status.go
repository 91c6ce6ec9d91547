package dto

import "time"

// MediaPayload 上传的媒体内容
type MediaPayload struct {
	Data        []byte
	ContentType string // 客户端声明的类型
	Filename    string
}

// UploadStatusDTO JSON 方式上传，media 为 data URI
type UploadStatusDTO struct {
	Media string `json:"media" validate:"required,startswith=data:"`
}

// StatusViewerDTO 浏览者
type StatusViewerDTO struct {
	UserID   uint64        `json:"user_id"`
	User     *UserBriefDTO `json:"user,omitempty"` // 用户已注销时为空
	ViewedAt time.Time     `json:"viewed_at"`
}

// StatusDTO 动态
type StatusDTO struct {
	StatusID  string            `json:"status_id"`
	OwnerID   uint64            `json:"owner_id"`
	Owner     *UserBriefDTO     `json:"owner,omitempty"`
	MediaURL  string            `json:"media_url"`
	MediaType string            `json:"media_type"`
	Width     int               `json:"width,omitempty"`
	Height    int               `json:"height,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
	Viewers   []StatusViewerDTO `json:"viewers"`
}

// MyStatusDTO 我的动态，没有时 status 为 null
type MyStatusDTO struct {
	Status *StatusDTO `json:"status"`
}
