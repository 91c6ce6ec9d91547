package mongo

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	statusCollection = "statuses"
	statusTTLIndex   = "expires_at_ttl"
	statusViewerIdx  = "viewers_user_id"
)

// StatusRepo 限时动态存储。查询不到时返回 (nil, nil)
type StatusRepo interface {
	Replace(ctx context.Context, status *StatusModel) (*StatusModel, error)
	FindLive(ctx context.Context, ownerID uint64, now time.Time) (*StatusModel, error)
	AddViewer(ctx context.Context, ownerID, viewerID uint64, now time.Time) (*StatusModel, error)
	DeleteLive(ctx context.Context, ownerID uint64, now time.Time) (*StatusModel, error)
	DistinctLiveOwners(ctx context.Context, excludeID uint64, now time.Time) ([]uint64, error)
	ExistsLive(ctx context.Context, ownerID uint64, now time.Time) (bool, error)
	FindExpired(ctx context.Context, now time.Time, limit int64) ([]*StatusModel, error)
	DeleteByStatusID(ctx context.Context, ownerID uint64, statusID string) (bool, error)
}

type statusRepoImpl struct {
	col *mongo.Collection
}

func NewStatusRepo(db *mongo.Database) StatusRepo {
	return &statusRepoImpl{
		col: db.Collection(statusCollection),
	}
}

// EnsureStatusIndexes 创建 TTL 索引与浏览者索引
// TTL 在逻辑过期后再保留 purgeGrace，留给清理任务先删除媒体文件
func EnsureStatusIndexes(ctx context.Context, db *mongo.Database, purgeGrace time.Duration) error {
	col := db.Collection(statusCollection)
	grace := int32(purgeGrace / time.Second)

	ttl := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName(statusTTLIndex).SetExpireAfterSeconds(grace),
	}
	if _, err := col.Indexes().CreateOne(ctx, ttl); err != nil {
		if !isIndexOptionsConflict(err) {
			return fmt.Errorf("failed to create status ttl index: %w", err)
		}
		// 已存在同名 TTL 索引但过期时间不同时，直接修改
		cmd := bson.D{
			{Key: "collMod", Value: statusCollection},
			{Key: "index", Value: bson.D{
				{Key: "name", Value: statusTTLIndex},
				{Key: "expireAfterSeconds", Value: grace},
			}},
		}
		if err = db.RunCommand(ctx, cmd).Err(); err != nil {
			return fmt.Errorf("failed to update ttl index: %w", err)
		}
		log.Info("status ttl index updated", "expireAfterSeconds", grace)
	}

	viewer := mongo.IndexModel{
		// 非唯一：浏览去重由 AddViewer 的过滤条件保证
		Keys:    bson.D{{Key: "viewers.user_id", Value: 1}},
		Options: options.Index().SetName(statusViewerIdx),
	}
	if _, err := col.Indexes().CreateOne(ctx, viewer); err != nil {
		return fmt.Errorf("failed to create status viewer index: %w", err)
	}
	return nil
}

// isIndexOptionsConflict 同键索引选项不同 (IndexOptionsConflict)
func isIndexOptionsConflict(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == 85
}

func liveFilter(ownerID uint64, now time.Time) bson.M {
	return bson.M{"_id": ownerID, "expires_at": bson.M{"$gt": now}}
}

// Replace 原子地替换用户当前动态 (不存在则插入)，返回替换前的文档
func (s *statusRepoImpl) Replace(ctx context.Context, status *StatusModel) (*StatusModel, error) {
	if status.Viewers == nil {
		status.Viewers = []StatusViewer{}
	}
	opts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var prior StatusModel
	err := s.col.FindOneAndReplace(ctx, bson.M{"_id": status.OwnerID}, status, opts).Decode(&prior)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &prior, nil
}

// FindLive 获取用户未过期的动态
func (s *statusRepoImpl) FindLive(ctx context.Context, ownerID uint64, now time.Time) (*StatusModel, error) {
	var status StatusModel
	err := s.col.FindOne(ctx, liveFilter(ownerID, now)).Decode(&status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}

// AddViewer 记录一次浏览：仅当动态未过期且该用户未浏览过时追加，返回更新后的文档
// 返回 (nil, nil) 表示没有发生写入 (动态不存在/已过期/已浏览过)
func (s *statusRepoImpl) AddViewer(ctx context.Context, ownerID, viewerID uint64, now time.Time) (*StatusModel, error) {
	filter := liveFilter(ownerID, now)
	filter["viewers.user_id"] = bson.M{"$ne": viewerID}
	update := bson.M{"$push": bson.M{"viewers": StatusViewer{UserID: viewerID, ViewedAt: now}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var status StatusModel
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}

// DeleteLive 删除用户未过期的动态，返回被删除的文档
func (s *statusRepoImpl) DeleteLive(ctx context.Context, ownerID uint64, now time.Time) (*StatusModel, error) {
	var status StatusModel
	err := s.col.FindOneAndDelete(ctx, liveFilter(ownerID, now)).Decode(&status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}

// DistinctLiveOwners 获取拥有有效动态的用户ID (排除 excludeID)
func (s *statusRepoImpl) DistinctLiveOwners(ctx context.Context, excludeID uint64, now time.Time) ([]uint64, error) {
	filter := bson.M{
		"_id":        bson.M{"$ne": excludeID},
		"expires_at": bson.M{"$gt": now},
	}
	values, err := s.col.Distinct(ctx, "_id", filter)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(values))
	seen := make(map[uint64]struct{}, len(values))
	for _, v := range values {
		var id uint64
		switch n := v.(type) {
		case int64:
			id = uint64(n)
		case int32:
			id = uint64(n)
		default:
			log.WarnContext(ctx, "unexpected status owner id type", "value", v)
			continue
		}
		if _, ok := seen[id]; ok || id == excludeID {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// ExistsLive 用户是否有未过期的动态
func (s *statusRepoImpl) ExistsLive(ctx context.Context, ownerID uint64, now time.Time) (bool, error) {
	count, err := s.col.CountDocuments(ctx, liveFilter(ownerID, now), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindExpired 获取已逻辑过期但尚未被 TTL 清理的动态
func (s *statusRepoImpl) FindExpired(ctx context.Context, now time.Time, limit int64) ([]*StatusModel, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "expires_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, bson.M{"expires_at": bson.M{"$lte": now}}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var list []*StatusModel
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteByStatusID 按上传ID删除，避免误删并发重新上传的新动态
func (s *statusRepoImpl) DeleteByStatusID(ctx context.Context, ownerID uint64, statusID string) (bool, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": ownerID, "status_id": statusID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
