package dto

import "time"

// UserBriefDTO 用户简要信息 (动态发布者、浏览者)
type UserBriefDTO struct {
	UserID    uint64 `json:"user_id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email,omitempty"`
}

// UserInfoDTO 用户信息，附带是否有有效动态
type UserInfoDTO struct {
	UserID    uint64    `json:"user_id"`
	Nickname  string    `json:"nickname"`
	AvatarURL string    `json:"avatar_url"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	HasStatus bool      `json:"has_status"`
}
