package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"space-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher mirrors persisted chat messages onto a kafka topic for
// downstream consumers (search indexing, moderation, analytics). It
// implements websocket.StreamPublisher. The real-time path never depends on
// it succeeding.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

func (p *KafkaPublisher) PublishMessage(ctx context.Context, msg *models.Message) error {
	payload, err := json.Marshal(msg.ToResponse())
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	// Keyed by space so per-space ordering survives partitioning.
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(msg.SpaceID), 10)),
		Value: payload,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
