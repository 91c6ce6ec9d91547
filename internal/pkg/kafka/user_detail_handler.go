package kafka

import (
	"context"
	"errors"
	log "log/slog"

	"github.com/IBM/sarama"
)

const (
	usersTable      = "users"
	userDetailTable = "user_detail"
)

// UserCacheInvalidator 用户资料缓存的删除入口
type UserCacheInvalidator interface {
	Invalidate(ctx context.Context, ids ...uint64) error
}

// UserDetailHandler 监听 users / user_detail 的 binlog，资料变更后删除用户缓存
type UserDetailHandler struct {
	users UserCacheInvalidator
}

func NewUserDetailHandler(users UserCacheInvalidator) *UserDetailHandler {
	return &UserDetailHandler{
		users: users,
	}
}

func (s *UserDetailHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("user detail consumer setup")
	return nil
}

func (s *UserDetailHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("user detail consumer cleanup")
	return nil
}

func (s *UserDetailHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-user-detail consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-user-detail process batch error", "err", err)
		return err
	}
	log.Info("topic-user-detail consume claim end")
	return nil
}

func (s *UserDetailHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, usersTable, userDetailTable)
	if err != nil {
		// 其他表和 DDL 直接跳过，无法解析的消息重试也没有意义
		if errors.Is(err, ErrTableNotMatch) || errors.Is(err, ErrEmptyData) {
			return nil
		}
		log.WarnContext(ctx, "skip invalid canal message", "offset", msg.Offset, "err", err)
		return nil
	}

	column := "user_id"
	if canalMsg.Table == usersTable {
		column = "id"
	}
	ids, err := canalMsg.Uint64Column(column)
	if err != nil {
		log.WarnContext(ctx, "skip canal message without user id", "table", canalMsg.Table, "err", err)
		return nil
	}
	return s.users.Invalidate(ctx, ids...)
}
