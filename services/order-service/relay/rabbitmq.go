package relay

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const DefaultRabbitExchange = "order-signals"

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	ConsumeWithContext(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

func dialChannel(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

func declareExchange(ch amqpChannel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return nil
}

// RabbitSink publishes to a fanout exchange.
type RabbitSink struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
}

func DialRabbitSink(url, exchange string) (*RabbitSink, error) {
	if exchange == "" {
		exchange = DefaultRabbitExchange
	}
	conn, ch, err := dialChannel(url, exchange)
	if err != nil {
		return nil, err
	}
	return &RabbitSink{conn: conn, ch: ch, exchange: exchange}, nil
}

func NewRabbitSink(ch amqpChannel, exchange string) (*RabbitSink, error) {
	if err := declareExchange(ch, exchange); err != nil {
		return nil, err
	}
	return &RabbitSink{ch: ch, exchange: exchange}, nil
}

func (s *RabbitSink) Publish(ctx context.Context, payload []byte) error {
	return s.ch.PublishWithContext(ctx, s.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
}

func (s *RabbitSink) Close() error {
	return closeAll(s.ch, s.conn)
}

// RabbitSource binds an exclusive, server-named queue to the exchange.
type RabbitSource struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	logger   *zap.Logger
}

func DialRabbitSource(url, exchange string, logger *zap.Logger) (*RabbitSource, error) {
	if exchange == "" {
		exchange = DefaultRabbitExchange
	}
	conn, ch, err := dialChannel(url, exchange)
	if err != nil {
		return nil, err
	}
	return newRabbitSource(conn, ch, exchange, logger), nil
}

func NewRabbitSource(ch amqpChannel, exchange string, logger *zap.Logger) (*RabbitSource, error) {
	if err := declareExchange(ch, exchange); err != nil {
		return nil, err
	}
	return newRabbitSource(nil, ch, exchange, logger), nil
}

func newRabbitSource(conn *amqp.Connection, ch amqpChannel, exchange string, logger *zap.Logger) *RabbitSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RabbitSource{conn: conn, ch: ch, exchange: exchange, logger: logger}
}

func (s *RabbitSource) Consume(ctx context.Context, fn func([]byte)) error {
	q, err := s.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := s.ch.QueueBind(q.Name, "", s.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", q.Name, err)
	}
	deliveries, err := s.ch.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", q.Name, err)
	}

	s.logger.Info("RabbitMQ relay consumer started", zap.String("queue", q.Name), zap.String("exchange", s.exchange))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("rabbitmq delivery channel closed")
			}
			fn(d.Body)
		}
	}
}

func (s *RabbitSource) Close() error {
	return closeAll(s.ch, s.conn)
}

func closeAll(ch amqpChannel, conn *amqp.Connection) error {
	var errs []error
	if ch != nil {
		if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if conn != nil && !conn.IsClosed() {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
