package consts

const (
	MimePrefixImage = "image"
	MimePrefixVideo = "video"
)

// 动态媒体类型
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

const (
	// StatusObjectPrefix 动态媒体在对象存储中的前缀，生命周期规则按此前缀兜底清理
	StatusObjectPrefix = "status/"
	DefaultAvatarURL   = "default_avatar.png"
)
