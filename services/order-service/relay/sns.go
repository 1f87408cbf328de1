package relay

import (
	"context"

	"go.uber.org/zap"

	awspkg "github.com/BeckerFac/restaurant-ordering/pkg/aws"
)

// SNSSink publishes payloads to a topic. Each instance subscribes its own
// SQS queue to that topic.
type SNSSink struct {
	publisher awspkg.SNSPublisher
	topicArn  string
}

func NewSNSSink(publisher awspkg.SNSPublisher, topicArn string) *SNSSink {
	return &SNSSink{publisher: publisher, topicArn: topicArn}
}

func (s *SNSSink) Publish(ctx context.Context, payload []byte) error {
	return s.publisher.Publish(ctx, s.topicArn, payload)
}

func (s *SNSSink) Close() error { return nil }

type queuePoller interface {
	StartPolling(ctx context.Context, handler awspkg.MessageHandler) error
}

// SQSSource long-polls the instance's queue.
type SQSSource struct {
	poller queuePoller
	logger *zap.Logger
}

func NewSQSSource(poller queuePoller, logger *zap.Logger) *SQSSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQSSource{poller: poller, logger: logger}
}

func (s *SQSSource) Consume(ctx context.Context, fn func([]byte)) error {
	return s.poller.StartPolling(ctx, func(_ context.Context, body string) error {
		fn([]byte(body))
		return nil
	})
}

func (s *SQSSource) Close() error { return nil }
