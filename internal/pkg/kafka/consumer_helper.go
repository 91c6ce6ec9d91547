package kafka

import (
	"context"
	"errors"
	log "log/slog"
	"slices"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

const (
	batchSize        = 32
	batchTimeout     = 1 * time.Second
	minRetryInterval = 100 * time.Millisecond
	maxRetryInterval = 5 * time.Second
)

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 拉取一批消息并执行业务逻辑
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session, batch, logic)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				processBatch(session, batch, logic)
				// 清空缓冲区 & 重值定时器
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 并发处理一批消息，失败的消息退避重试直到成功或会话结束
// 全部处理完才提交最后一条的位点
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	ctx := session.Context()
	var wg sync.WaitGroup
	for _, msg := range messages {
		wg.Add(1)
		go func(m *sarama.ConsumerMessage) {
			defer wg.Done()
			retryWithBackoff(ctx, m, logic)
		}(msg)
	}
	wg.Wait()

	if ctx.Err() != nil || len(messages) == 0 {
		return
	}
	session.MarkMessage(messages[len(messages)-1], "")
}

func retryWithBackoff(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) {
	interval := minRetryInterval
	for {
		err := logic(ctx, m)
		if err == nil {
			return
		}
		log.Error("process message error", "topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		interval = min(interval*2, maxRetryInterval)
	}
}

var (
	ErrTableNotMatch = errors.New("table name not match")
	ErrEmptyData     = errors.New("data is empty")
)

// ToCanalMessage 将kafka消息转换为canal消息结构体，tableNames 为允许的表
func ToCanalMessage(msg *sarama.ConsumerMessage, tableNames ...string) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(msg.Value, &canalMsg); err != nil {
		log.Error("unmarshal canal message error", "err", err)
		return nil, err
	}

	if !slices.Contains(tableNames, canalMsg.Table) {
		return nil, ErrTableNotMatch
	}

	if canalMsg.IsDDL || len(canalMsg.Data) == 0 {
		return nil, ErrEmptyData
	}

	return &canalMsg, nil
}
