package relay

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}}
}

func (s *KafkaSink) Publish(ctx context.Context, payload []byte) error {
	return s.writer.WriteMessages(ctx, kafka.Message{Value: payload})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// KafkaSource reads the topic with a consumer group unique to this
// instance, so every instance sees every payload.
type KafkaSource struct {
	reader messageReader
	logger *zap.Logger
}

func NewKafkaSource(brokers []string, topic, groupPrefix string, logger *zap.Logger) *KafkaSource {
	if groupPrefix == "" {
		groupPrefix = "order-signals"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaSource{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupPrefix + "-" + uuid.NewString(),
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    1e6,
		}),
		logger: logger,
	}
}

func (s *KafkaSource) Consume(ctx context.Context, fn func([]byte)) error {
	s.logger.Info("Kafka relay consumer started")
	for {
		m, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		fn(m.Value)
	}
}

func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
