package kafka

import (
	"Glimpse/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	userDetailConsumer sarama.ConsumerGroup
	userDetailHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, users UserCacheInvalidator) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	userDetailConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaUserDetailConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		userDetailConsumer: userDetailConsumer,
		userDetailHandler:  NewUserDetailHandler(users),
	}, nil
}

// Start 启动所有消费者，ctx 结束后关闭
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		for err := range m.userDetailConsumer.Errors() {
			log.Error("Error from consumer group", "err", err)
		}
	}()

	// 启动 User Detail Consumer
	go func() {
		topic := cfg.KafkaUserDetailConsumer.Topic
		log.Info("User Detail consumer started", "topic", topic)
		for {
			if err := m.userDetailConsumer.Consume(ctx, []string{topic}, m.userDetailHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.userDetailConsumer.Close(); err != nil {
		log.Error("Failed to close user detail consumer", "err", err)
		return err
	}
	return nil
}
