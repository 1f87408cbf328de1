// Package relay carries order signal payloads between service instances
// over a message broker, for stores without a usable change feed.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	awspkg "github.com/BeckerFac/restaurant-ordering/pkg/aws"
)

// Sink publishes signal payloads.
type Sink interface {
	Publish(ctx context.Context, payload []byte) error
	Close() error
}

// Source delivers payloads published by any instance, this one included,
// until ctx ends.
type Source interface {
	Consume(ctx context.Context, fn func([]byte)) error
	Close() error
}

const (
	KindNone     = ""
	KindSNS      = "sns"
	KindKafka    = "kafka"
	KindRabbitMQ = "rabbitmq"
)

type Config struct {
	Kind string

	SNSTopicARN string
	SQSQueueURL string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	RabbitURL      string
	RabbitExchange string
}

// Relay pairs the sink and source of one transport.
type Relay struct {
	Sink   Sink
	Source Source
}

func (r *Relay) Close() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.Sink.Close(), r.Source.Close())
}

// Open builds the relay selected by cfg.Kind. KindNone returns nil, nil.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Relay, error) {
	switch strings.ToLower(cfg.Kind) {
	case KindNone:
		return nil, nil
	case KindSNS:
		if cfg.SNSTopicARN == "" || cfg.SQSQueueURL == "" {
			return nil, errors.New("sns relay needs a topic arn and a queue url")
		}
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		return &Relay{
			Sink:   NewSNSSink(awspkg.NewSNSClient(awsCfg), cfg.SNSTopicARN),
			Source: NewSQSSource(awspkg.NewSQSConsumer(awsCfg, cfg.SQSQueueURL, logger), logger),
		}, nil
	case KindKafka:
		if len(cfg.KafkaBrokers) == 0 || cfg.KafkaTopic == "" {
			return nil, errors.New("kafka relay needs brokers and a topic")
		}
		return &Relay{
			Sink:   NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic),
			Source: NewKafkaSource(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, logger),
		}, nil
	case KindRabbitMQ:
		sink, err := DialRabbitSink(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return nil, err
		}
		source, err := DialRabbitSource(cfg.RabbitURL, cfg.RabbitExchange, logger)
		if err != nil {
			_ = sink.Close()
			return nil, err
		}
		return &Relay{Sink: sink, Source: source}, nil
	default:
		return nil, fmt.Errorf("unknown relay kind %q", cfg.Kind)
	}
}
