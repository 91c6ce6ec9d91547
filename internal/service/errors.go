package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid     = errors.New("参数错误")
	ErrUserNotFound     = errors.New("用户不存在")
	ErrMediaRequired    = errors.New("请上传图片或视频")
	ErrFileNotSupported = errors.New("不支持的文件类型")
	ErrMediaTooLarge    = errors.New("文件过大")
	ErrStatusNotFound   = errors.New("动态不存在或已过期")
	ErrMediaStorage     = errors.New("媒体存储失败，请稍后重试")
	UnauthorizedError   = errors.New("权限不足")
	UnExpectedError     = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:     BadRequest,
	ErrUserNotFound:     NotFound,
	ErrMediaRequired:    BadRequest,
	ErrFileNotSupported: BadRequest,
	ErrMediaTooLarge:    BadRequest,
	ErrStatusNotFound:   NotFound,
	ErrMediaStorage:     InternalServerError,
	UnauthorizedError:   Unauthorized,
	UnExpectedError:     InternalServerError,
}

// CodeOf 返回错误对应的业务码，未登记的错误视为系统异常
func CodeOf(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for known, code := range ErrorMap {
		if errors.Is(err, known) {
			return code, true
		}
	}
	return InternalServerError, false
}
