// Package kafka 提供了向 Kafka 发布会话事件的生产者。
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"it-helpdesk-go/internal/config"
	"it-helpdesk-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// 会话事件类型。
const (
	EventConversationCreated = "conversation.created"
	EventConversationCleared = "conversation.cleared"
	EventConversationDeleted = "conversation.deleted"
	EventMessageAppended     = "message.appended"
)

// ChatEvent 表示一条发布到 Kafka 的会话事件。
type ChatEvent struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId,omitempty"`
	Sender         string    `json:"sender,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。未启用时保持 producer 为空，发布调用会被静默跳过。
func InitProducer(cfg config.KafkaConfig) {
	if !cfg.Enabled {
		log.Info("Kafka 事件发布未启用")
		return
	}
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// PublishChatEvent 发送一条会话事件到 Kafka。
// 事件发布是尽力而为的：生产者未初始化时直接返回 nil。
func PublishChatEvent(ev ChatEvent) error {
	if producer == nil {
		return nil
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return producer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(ev.ConversationID),
		Value: payload,
	})
}

// Close 关闭 Kafka 生产者。
func Close() {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		log.Error("关闭 Kafka 生产者失败", err)
	}
}
