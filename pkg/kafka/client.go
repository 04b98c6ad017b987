// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/Xenonn21/voitzu/internal/config"
	"github.com/Xenonn21/voitzu/pkg/events"
	"github.com/Xenonn21/voitzu/pkg/log"
)

// EventHandler 定义了会话事件的处理方。
// 通过接口解耦消费者与具体的推送实现。
type EventHandler interface {
	Handle(ctx context.Context, event events.SessionEvent)
}

// Producer 向 Kafka 发布会话事件。
type Producer interface {
	PublishSessionEvent(ctx context.Context, event events.SessionEvent) error
	Close() error
}

type producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
	return &producer{writer: w}
}

// PublishSessionEvent 发送一个会话事件到 Kafka。
// 以会话 ID 作为消息 key，保证同一会话的事件有序。
func (p *producer) PublishSessionEvent(ctx context.Context, event events.SessionEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(event.SessionID),
			Value: eventBytes,
		},
	)
}

func (p *producer) Close() error {
	return p.writer.Close()
}

// StartConsumer 启动一个 Kafka 消费者，把会话事件交给处理方。
// 事件是通知性质的，解析失败或处理完成后都直接提交 offset。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, handler EventHandler) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			log.Error("从 Kafka 读取消息失败", err)
			break
		}

		var event events.SessionEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		handler.Handle(ctx, event)

		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}
