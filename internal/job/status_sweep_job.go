package job

import (
	"Glimpse/internal/pkg/consts"
	"Glimpse/internal/pkg/logger"
	"Glimpse/internal/pkg/mongo"
	"Glimpse/internal/pkg/redis"
	"Glimpse/internal/pkg/storage"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	defaultSweepBatch = 200
	sweepLockTTL      = 5 * time.Minute
)

// StatusSweepJob 清理已过期动态的媒体文件和记录
// TTL 索引在宽限期后兜底删除记录，这里负责让媒体及时删除
type StatusSweepJob struct {
	statusRepo mongo.StatusRepo
	store      storage.ObjectStore
	batch      int64
	now        func() time.Time
}

func NewStatusSweepJob(statusRepo mongo.StatusRepo, store storage.ObjectStore, batch int64) *StatusSweepJob {
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &StatusSweepJob{
		statusRepo: statusRepo,
		store:      store,
		batch:      batch,
		now:        time.Now,
	}
}

func (s *StatusSweepJob) Run() {
	traceID := "job-status-sweep-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	// 多实例部署时只允许一个实例执行
	if redis.Rdb != nil {
		ok, err := redis.TryLock(ctx, consts.StatusSweepLock, traceID, sweepLockTTL, 0)
		if err != nil {
			log.ErrorContext(ctx, "acquire status sweep lock error", "err", err)
			return
		}
		if !ok {
			return
		}
		defer redis.UnLock(ctx, consts.StatusSweepLock, traceID)
	}

	cleaned, err := s.Sweep(ctx)
	if err != nil {
		log.ErrorContext(ctx, "status sweep failed", "cleaned_count", cleaned, "err", err)
		return
	}
	if cleaned > 0 {
		log.InfoContext(ctx, "status sweep finished", "cleaned_count", cleaned)
	}
}

// Sweep 分批处理过期动态，返回删除的记录数
// 媒体删除失败的记录保留到下一轮
func (s *StatusSweepJob) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	cleaned := 0
	for {
		expired, err := s.statusRepo.FindExpired(ctx, now, s.batch)
		if err != nil {
			return cleaned, err
		}

		progressed := 0
		for _, status := range expired {
			if status.MediaKey != "" {
				if err = s.store.Delete(ctx, status.MediaKey); err != nil {
					log.WarnContext(ctx, "delete expired status media failed", "owner_id", status.OwnerID, "key", status.MediaKey, "err", err)
					continue
				}
			}

			// 按 status_id 删除，期间重新发布的动态不受影响
			deleted, err := s.statusRepo.DeleteByStatusID(ctx, status.OwnerID, status.StatusID)
			if err != nil {
				return cleaned, err
			}
			progressed++
			if deleted {
				cleaned++
			}
		}

		if int64(len(expired)) < s.batch || progressed == 0 {
			return cleaned, nil
		}
	}
}
