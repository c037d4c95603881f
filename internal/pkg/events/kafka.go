package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/meddist/internal-api/internal/config"
	"github.com/meddist/internal-api/internal/domain"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes inventory events keyed by product so that every change to one
// product lands on the same partition.
type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(conf *config.KafkaConfig) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(conf.Brokers...),
		Topic:        conf.InventoryTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	})
}

func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishInventoryChanged(ctx context.Context, event domain.InventoryChanged) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ProductID.String()),
		Value: b,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte("InventoryChanged")},
		},
		Time: event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("p.writer.WriteMessages -> %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
