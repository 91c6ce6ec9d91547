package handler

import (
	"Glimpse/internal/api/dto"
	"Glimpse/internal/pkg/response"
	"Glimpse/internal/pkg/util"
	"Glimpse/internal/service"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// multipart 表单头部与 JSON 外壳的额外空间
const uploadEnvelopeBytes = 64 << 10

type StatusHandler struct {
	statusSvc    service.StatusService
	maxMediaSize int64
}

func NewStatusHandler(statusSvc service.StatusService, maxMediaSize int64) *StatusHandler {
	return &StatusHandler{
		statusSvc:    statusSvc,
		maxMediaSize: maxMediaSize,
	}
}

// Upload 发布动态，支持 multipart 的 file 字段或 JSON 的 data URI
func (s *StatusHandler) Upload(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var payload *dto.MediaPayload
	var err error
	if limit := s.bodyLimit(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	if c.ContentType() == "multipart/form-data" {
		payload, err = s.readMultipart(c)
	} else {
		payload, err = s.readDataURI(c)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	status, err := s.statusSvc.Create(c.Request.Context(), userID, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

func (s *StatusHandler) GetMyStatus(c *gin.Context) {
	userID := c.GetUint64("user_id")
	status, err := s.statusSvc.GetOwn(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MyStatusDTO{Status: status})
}

func (s *StatusHandler) GetUsersWithStatus(c *gin.Context) {
	userID := c.GetUint64("user_id")
	users, err := s.statusSvc.ListUsersWithStatus(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

func (s *StatusHandler) GetUserInfo(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || targetID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	info, err := s.statusSvc.GetUserInfo(c.Request.Context(), targetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

// GetStatusByUserId 查看某用户的动态，会记录浏览
func (s *StatusHandler) GetStatusByUserId(c *gin.Context) {
	userID := c.GetUint64("user_id")
	ownerID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || ownerID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	status, err := s.statusSvc.GetByOwner(c.Request.Context(), ownerID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

func (s *StatusHandler) DeleteStatus(c *gin.Context) {
	userID := c.GetUint64("user_id")
	if err := s.statusSvc.Delete(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *StatusHandler) readMultipart(c *gin.Context) (*dto.MediaPayload, error) {
	file, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			return nil, service.ErrMediaTooLarge
		}
		if errors.Is(err, http.ErrMissingFile) {
			return nil, service.ErrMediaRequired
		}
		return nil, service.ErrParamInvalid
	}
	if s.maxMediaSize > 0 && file.Size > s.maxMediaSize {
		return nil, service.ErrMediaTooLarge
	}

	reader, err := file.Open()
	if err != nil {
		return nil, service.ErrParamInvalid
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, service.ErrParamInvalid
	}
	return &dto.MediaPayload{
		Data:        data,
		ContentType: file.Header.Get("Content-Type"),
		Filename:    file.Filename,
	}, nil
}

func (s *StatusHandler) readDataURI(c *gin.Context) (*dto.MediaPayload, error) {
	var req dto.UploadStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		if isBodyTooLarge(err) {
			return nil, service.ErrMediaTooLarge
		}
		if errors.Is(err, io.EOF) {
			return nil, service.ErrMediaRequired
		}
		return nil, service.ErrParamInvalid
	}
	if req.Media == "" {
		return nil, service.ErrMediaRequired
	}
	if err := util.ValidateDTO(&req); err != nil {
		return nil, service.ErrParamInvalid
	}

	data, contentType, err := util.DecodeDataURI(req.Media)
	if err != nil {
		return nil, service.ErrParamInvalid
	}
	if s.maxMediaSize > 0 && int64(len(data)) > s.maxMediaSize {
		return nil, service.ErrMediaTooLarge
	}
	return &dto.MediaPayload{Data: data, ContentType: contentType}, nil
}

// bodyLimit 请求体上限，data URI 按 base64 膨胀 4/3 计算
func (s *StatusHandler) bodyLimit() int64 {
	if s.maxMediaSize <= 0 {
		return 0
	}
	return s.maxMediaSize*4/3 + uploadEnvelopeBytes
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
