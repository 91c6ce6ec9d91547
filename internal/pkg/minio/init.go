package minio

import (
	"Glimpse/internal/api/config"
	"Glimpse/internal/pkg/consts"
	"context"
	"fmt"
	log "log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

const statusRuleID = "StatusMediaExpireRule"

// Init 初始化 MinIO 客户端并确保动态媒体的兜底过期策略
func Init(ctx context.Context, cfg config.MinIOConfig) (*Store, error) {
	var endpoint string
	var useSSL bool
	if cfg.InternalEndpoint != "" {
		endpoint = cfg.InternalEndpoint
		useSSL = cfg.InternalUseSSL
	} else {
		endpoint = cfg.ExternalEndpoint
		useSSL = true
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MainBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("minio bucket %q does not exist", cfg.MainBucket)
	}

	store := NewStore(client, cfg)
	if err = store.EnsureStatusLifecycle(ctx, cfg.StatusExpireDays); err != nil {
		return nil, err
	}
	return store, nil
}

// EnsureStatusLifecycle 为 status/ 前缀设置过期规则，清理任务遗漏的媒体最终由 MinIO 删除
func (s *Store) EnsureStatusLifecycle(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}
	lcConfig, err := s.client.GetBucketLifecycle(ctx, s.bucket)
	if err != nil || lcConfig == nil {
		lcConfig = lifecycle.NewConfiguration()
	}

	for i, rule := range lcConfig.Rules {
		if rule.ID != statusRuleID {
			continue
		}
		if rule.Status == "Enabled" && int(rule.Expiration.Days) == days &&
			rule.RuleFilter.Prefix == consts.StatusObjectPrefix {
			log.Info("检测到已存在兼容的动态过期策略", "ruleID", rule.ID)
			return nil
		}
		lcConfig.Rules = append(lcConfig.Rules[:i], lcConfig.Rules[i+1:]...)
		break
	}

	lcConfig.Rules = append(lcConfig.Rules, lifecycle.Rule{
		ID:         statusRuleID,
		Status:     "Enabled",
		RuleFilter: lifecycle.Filter{Prefix: consts.StatusObjectPrefix},
		Expiration: lifecycle.Expiration{
			Days: lifecycle.ExpirationDays(days),
		},
	})

	if err = s.client.SetBucketLifecycle(ctx, s.bucket, lcConfig); err != nil {
		return fmt.Errorf("设置生命周期失败: %w", err)
	}
	log.Info("已设置动态媒体过期策略", "bucket", s.bucket, "days", days)
	return nil
}
