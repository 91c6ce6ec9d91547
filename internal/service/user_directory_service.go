package service

import (
	"Glimpse/internal/api/dto"
	"Glimpse/internal/model"
	"Glimpse/internal/pkg/consts"
	"Glimpse/internal/pkg/redis"
	"Glimpse/internal/pkg/storage"
	"Glimpse/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
)

const userCacheTTL = time.Hour

// UserDirectory 用户资料查询，动态的发布者与浏览者都通过它补全
type UserDirectory interface {
	Resolve(ctx context.Context, id uint64) (*dto.UserBriefDTO, error)
	ResolveMany(ctx context.Context, ids []uint64) (map[uint64]*dto.UserBriefDTO, error)
	GetUserInfo(ctx context.Context, id uint64) (*dto.UserInfoDTO, error)
	Invalidate(ctx context.Context, ids ...uint64) error
}

type userDirectoryImpl struct {
	userRepo repository.UserRepo
	store    storage.ObjectStore
}

func NewUserDirectory(userRepo repository.UserRepo, store storage.ObjectStore) UserDirectory {
	return &userDirectoryImpl{
		userRepo: userRepo,
		store:    store,
	}
}

func userCacheKey(id uint64) string {
	return consts.UserSimpleInfoKey + strconv.FormatUint(id, 10)
}

// Resolve 单个用户，不存在返回 nil
func (s *userDirectoryImpl) Resolve(ctx context.Context, id uint64) (*dto.UserBriefDTO, error) {
	users, err := s.ResolveMany(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	return users[id], nil
}

// ResolveMany 先读缓存，未命中的批量查库并回填；缓存异常时直接查库
func (s *userDirectoryImpl) ResolveMany(ctx context.Context, ids []uint64) (map[uint64]*dto.UserBriefDTO, error) {
	res := make(map[uint64]*dto.UserBriefDTO, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	missIds := s.loadFromCache(ctx, ids, res)
	if len(missIds) == 0 {
		return res, nil
	}

	users, err := s.userRepo.GetUserByIds(ctx, missIds)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		brief, err := s.toBrief(user)
		if err != nil {
			return nil, err
		}
		res[user.ID] = brief
		s.saveToCache(ctx, brief)
	}
	return res, nil
}

// GetUserInfo 用户资料 (不走缓存，需要注册时间)
func (s *userDirectoryImpl) GetUserInfo(ctx context.Context, id uint64) (*dto.UserInfoDTO, error) {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	brief, err := s.toBrief(user)
	if err != nil {
		return nil, err
	}
	info := &dto.UserInfoDTO{}
	if err = copier.Copy(info, brief); err != nil {
		return nil, err
	}
	info.CreatedAt = user.CreatedAt
	return info, nil
}

// Invalidate 删除用户资料缓存
func (s *userDirectoryImpl) Invalidate(ctx context.Context, ids ...uint64) error {
	if redis.Rdb == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, userCacheKey(id))
	}
	return redis.DeleteKey(ctx, keys...)
}

func (s *userDirectoryImpl) loadFromCache(ctx context.Context, ids []uint64, res map[uint64]*dto.UserBriefDTO) []uint64 {
	if redis.Rdb == nil {
		return ids
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, userCacheKey(id))
	}
	values, err := redis.MGetValues(ctx, keys)
	if err != nil {
		log.WarnContext(ctx, "user cache read failed, fallback to db", "err", err)
		return ids
	}

	missIds := make([]uint64, 0, len(ids))
	for i, id := range ids {
		if values[i] == "" {
			missIds = append(missIds, id)
			continue
		}
		var brief dto.UserBriefDTO
		if err = json.Unmarshal([]byte(values[i]), &brief); err != nil {
			missIds = append(missIds, id)
			continue
		}
		res[id] = &brief
	}
	return missIds
}

func (s *userDirectoryImpl) saveToCache(ctx context.Context, brief *dto.UserBriefDTO) {
	if redis.Rdb == nil {
		return
	}
	jsonStr, err := json.Marshal(brief)
	if err != nil {
		return
	}
	if err = redis.SetWithExpiration(ctx, userCacheKey(brief.UserID), string(jsonStr), userCacheTTL); err != nil {
		log.WarnContext(ctx, "user cache write failed", "user_id", brief.UserID, "err", err)
	}
}

func (s *userDirectoryImpl) toBrief(user *model.User) (*dto.UserBriefDTO, error) {
	brief := &dto.UserBriefDTO{}
	if err := copier.Copy(brief, &user.UserDetail); err != nil {
		return nil, err
	}
	brief.UserID = user.ID
	if user.Email != nil {
		brief.Email = *user.Email
	}
	avatar := user.UserDetail.AvatarURL
	if avatar == "" {
		avatar = consts.DefaultAvatarURL
	}
	brief.AvatarURL = s.store.PublicURL(avatar)
	return brief, nil
}
