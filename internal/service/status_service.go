package service

import (
	"Glimpse/internal/api/config"
	"Glimpse/internal/api/dto"
	"Glimpse/internal/pkg/consts"
	"Glimpse/internal/pkg/mongo"
	"Glimpse/internal/pkg/storage"
	"Glimpse/internal/pkg/util"
	"bytes"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const mediaCleanupTimeout = 10 * time.Second

// StatusService 限时动态生命周期：每个用户同一时刻最多一条有效动态
type StatusService interface {
	Create(ctx context.Context, ownerID uint64, payload *dto.MediaPayload) (*dto.StatusDTO, error)
	GetOwn(ctx context.Context, ownerID uint64) (*dto.StatusDTO, error)
	GetByOwner(ctx context.Context, ownerID, requesterID uint64) (*dto.StatusDTO, error)
	Delete(ctx context.Context, ownerID uint64) error
	ListActiveOwners(ctx context.Context, requesterID uint64) ([]uint64, error)
	ListUsersWithStatus(ctx context.Context, requesterID uint64) ([]*dto.UserBriefDTO, error)
	HasActiveStatus(ctx context.Context, userID uint64) (bool, error)
	GetUserInfo(ctx context.Context, userID uint64) (*dto.UserInfoDTO, error)
}

type StatusOption func(*statusServiceImpl)

// WithClock 替换时间来源
func WithClock(now func() time.Time) StatusOption {
	return func(s *statusServiceImpl) {
		s.now = now
	}
}

type statusServiceImpl struct {
	statusRepo mongo.StatusRepo
	store      storage.ObjectStore
	users      UserDirectory
	cfg        config.StatusConfig
	now        func() time.Time
}

func NewStatusService(statusRepo mongo.StatusRepo, store storage.ObjectStore, users UserDirectory, cfg config.StatusConfig, opts ...StatusOption) StatusService {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	s := &statusServiceImpl{
		statusRepo: statusRepo,
		store:      store,
		users:      users,
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create 上传媒体并替换用户当前的动态
func (s *statusServiceImpl) Create(ctx context.Context, ownerID uint64, payload *dto.MediaPayload) (*dto.StatusDTO, error) {
	if payload == nil || len(payload.Data) == 0 {
		return nil, ErrMediaRequired
	}
	contentType := util.DetectContentType(payload.Data, payload.ContentType)
	mediaType := util.MediaKindOf(contentType)
	if mediaType == "" {
		return nil, ErrFileNotSupported
	}
	size := int64(len(payload.Data))
	if s.cfg.MaxMediaSize > 0 && size > s.cfg.MaxMediaSize {
		return nil, ErrMediaTooLarge
	}

	var width, height int
	if mediaType == consts.MediaTypeImage {
		w, h, err := util.ImageDimensions(payload.Data)
		if err == nil {
			width, height = w, h
		} else {
			log.WarnContext(ctx, "failed to decode status image dimensions", "content_type", contentType, "err", err)
		}
	}

	filename := payload.Filename
	if filename == "" {
		filename = util.ExtensionOf(contentType)
	}
	objectName := storage.NewObjectKey(consts.StatusObjectPrefix, s.now(), filename)

	key, err := s.store.Upload(ctx, objectName, bytes.NewReader(payload.Data), size, contentType)
	if err != nil {
		log.ErrorContext(ctx, "status media upload failed", "owner_id", ownerID, "err", err)
		return nil, ErrMediaStorage
	}

	now := s.now()
	status := &mongo.StatusModel{
		OwnerID:   ownerID,
		StatusID:  uuid.NewString(),
		MediaURL:  s.store.PublicURL(key),
		MediaKey:  key,
		MediaType: mediaType,
		MimeType:  contentType,
		Size:      size,
		Width:     width,
		Height:    height,
		Viewers:   []mongo.StatusViewer{},
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}

	prior, err := s.statusRepo.Replace(ctx, status)
	if err != nil {
		log.ErrorContext(ctx, "save status failed", "owner_id", ownerID, "err", err)
		s.deleteMedia(ctx, key, "rollback")
		return nil, UnExpectedError
	}
	if prior != nil && prior.MediaKey != key {
		s.deleteMedia(ctx, prior.MediaKey, "replaced")
	}

	log.InfoContext(ctx, "status created", "owner_id", ownerID, "status_id", status.StatusID, "media_type", mediaType)

	res := toStatusDTO(status, nil)
	// 动态已保存，资料查询失败不影响结果
	if res.Owner, err = s.users.Resolve(ctx, ownerID); err != nil {
		log.WarnContext(ctx, "resolve status owner failed", "owner_id", ownerID, "err", err)
	}
	return res, nil
}

// GetOwn 我的动态，没有返回 nil
func (s *statusServiceImpl) GetOwn(ctx context.Context, ownerID uint64) (*dto.StatusDTO, error) {
	now := s.now()
	status, err := s.statusRepo.FindLive(ctx, ownerID, now)
	if err != nil {
		log.ErrorContext(ctx, "find status failed", "owner_id", ownerID, "err", err)
		return nil, UnExpectedError
	}
	// TTL 清理有延迟，这里再按过期时间过滤一次
	if !status.IsLive(now) {
		return nil, nil
	}
	return s.resolve(ctx, status, false)
}

// GetByOwner 查看他人动态并记录浏览，同一用户只记录一次，查看自己的动态不记录
func (s *statusServiceImpl) GetByOwner(ctx context.Context, ownerID, requesterID uint64) (*dto.StatusDTO, error) {
	now := s.now()

	var status *mongo.StatusModel
	var err error
	if requesterID != ownerID {
		status, err = s.statusRepo.AddViewer(ctx, ownerID, requesterID, now)
		if err != nil {
			log.ErrorContext(ctx, "record status view failed", "owner_id", ownerID, "viewer_id", requesterID, "err", err)
			return nil, UnExpectedError
		}
	}
	if status == nil {
		status, err = s.statusRepo.FindLive(ctx, ownerID, now)
		if err != nil {
			log.ErrorContext(ctx, "find status failed", "owner_id", ownerID, "err", err)
			return nil, UnExpectedError
		}
	}
	if !status.IsLive(now) {
		return nil, ErrStatusNotFound
	}
	return s.resolve(ctx, status, true)
}

// Delete 删除我的动态，媒体文件删除失败只记录告警
func (s *statusServiceImpl) Delete(ctx context.Context, ownerID uint64) error {
	status, err := s.statusRepo.DeleteLive(ctx, ownerID, s.now())
	if err != nil {
		log.ErrorContext(ctx, "delete status failed", "owner_id", ownerID, "err", err)
		return UnExpectedError
	}
	if status == nil {
		return ErrStatusNotFound
	}

	s.deleteMedia(ctx, status.MediaKey, "deleted")
	log.InfoContext(ctx, "status deleted", "owner_id", ownerID, "status_id", status.StatusID)
	return nil
}

// ListActiveOwners 有有效动态的用户 (不含自己)
func (s *statusServiceImpl) ListActiveOwners(ctx context.Context, requesterID uint64) ([]uint64, error) {
	ids, err := s.statusRepo.DistinctLiveOwners(ctx, requesterID, s.now())
	if err != nil {
		log.ErrorContext(ctx, "list status owners failed", "err", err)
		return nil, UnExpectedError
	}

	res := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == requesterID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res, nil
}

// ListUsersWithStatus 有有效动态的用户资料，已注销用户跳过
func (s *statusServiceImpl) ListUsersWithStatus(ctx context.Context, requesterID uint64) ([]*dto.UserBriefDTO, error) {
	ids, err := s.ListActiveOwners(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ResolveMany(ctx, ids)
	if err != nil {
		log.ErrorContext(ctx, "resolve status owners failed", "err", err)
		return nil, UnExpectedError
	}

	res := make([]*dto.UserBriefDTO, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok && u != nil {
			res = append(res, u)
		}
	}
	return res, nil
}

func (s *statusServiceImpl) HasActiveStatus(ctx context.Context, userID uint64) (bool, error) {
	exists, err := s.statusRepo.ExistsLive(ctx, userID, s.now())
	if err != nil {
		log.ErrorContext(ctx, "check status failed", "user_id", userID, "err", err)
		return false, UnExpectedError
	}
	return exists, nil
}

// GetUserInfo 用户资料，附带是否有有效动态
func (s *statusServiceImpl) GetUserInfo(ctx context.Context, userID uint64) (*dto.UserInfoDTO, error) {
	info, err := s.users.GetUserInfo(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		log.ErrorContext(ctx, "get user info failed", "user_id", userID, "err", err)
		return nil, UnExpectedError
	}

	info.HasStatus, err = s.HasActiveStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// resolve 补全浏览者 (以及发布者) 的用户资料
func (s *statusServiceImpl) resolve(ctx context.Context, status *mongo.StatusModel, withOwner bool) (*dto.StatusDTO, error) {
	ids := make([]uint64, 0, len(status.Viewers)+1)
	if withOwner {
		ids = append(ids, status.OwnerID)
	}
	for _, v := range status.Viewers {
		ids = append(ids, v.UserID)
	}

	users, err := s.users.ResolveMany(ctx, ids)
	if err != nil {
		log.ErrorContext(ctx, "resolve status users failed", "owner_id", status.OwnerID, "err", err)
		return nil, UnExpectedError
	}

	res := toStatusDTO(status, users)
	if withOwner {
		res.Owner = users[status.OwnerID]
	}
	return res, nil
}

// deleteMedia 尽力删除媒体文件，请求取消后仍继续执行
func (s *statusServiceImpl) deleteMedia(ctx context.Context, key, reason string) {
	if key == "" {
		return
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mediaCleanupTimeout)
	defer cancel()

	if err := s.store.Delete(cleanupCtx, key); err != nil {
		log.WarnContext(ctx, "Warning: could not delete status media", "key", key, "reason", reason, "err", err)
	}
}

func toStatusDTO(status *mongo.StatusModel, users map[uint64]*dto.UserBriefDTO) *dto.StatusDTO {
	viewers := make([]dto.StatusViewerDTO, 0, len(status.Viewers))
	for _, v := range status.Viewers {
		viewers = append(viewers, dto.StatusViewerDTO{
			UserID:   v.UserID,
			User:     users[v.UserID],
			ViewedAt: v.ViewedAt,
		})
	}
	return &dto.StatusDTO{
		StatusID:  status.StatusID,
		OwnerID:   status.OwnerID,
		MediaURL:  status.MediaURL,
		MediaType: status.MediaType,
		Width:     status.Width,
		Height:    status.Height,
		CreatedAt: status.CreatedAt,
		ExpiresAt: status.ExpiresAt,
		Viewers:   viewers,
	}
}
