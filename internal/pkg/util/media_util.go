package util

import (
	"Glimpse/internal/pkg/consts"
	"bytes"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

var ErrInvalidDataURI = errors.New("invalid data uri")

// DecodeDataURI 解析 data:<mime>;base64,<payload> 形式的媒体
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}

	parts := strings.Split(meta, ";")
	contentType := strings.TrimSpace(parts[0])
	isBase64 := false
	for _, p := range parts[1:] {
		if p == "base64" {
			isBase64 = true
		}
	}
	if !isBase64 {
		return nil, "", ErrInvalidDataURI
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", ErrInvalidDataURI
	}
	return data, contentType, nil
}

// DetectContentType 声明的类型是图片/视频时直接采用，否则按文件内容嗅探
func DetectContentType(data []byte, declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if MediaKindOf(declared) != "" {
		return declared
	}
	return mimetype.Detect(data).String()
}

// MediaKindOf 返回 image / video，不支持的类型返回空串
func MediaKindOf(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, consts.MimePrefixImage+"/"):
		return consts.MediaTypeImage
	case strings.HasPrefix(contentType, consts.MimePrefixVideo+"/"):
		return consts.MediaTypeVideo
	}
	return ""
}

// ExtensionOf 内容类型对应的扩展名
func ExtensionOf(contentType string) string {
	if m := mimetype.Lookup(contentType); m != nil {
		return m.Extension()
	}
	return ""
}

// ImageDimensions 读取图片展示宽高 (按 EXIF 方向修正)，只解码不做转换
func ImageDimensions(data []byte) (int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}
