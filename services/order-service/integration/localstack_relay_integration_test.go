package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/relay"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

// Runs only when RUN_LOCALSTACK_INTEGRATION=true and an endpoint is available
// at AWS_ENDPOINT or the default localhost:4566. The queue must be subscribed
// to the topic.
func TestSNSRelay_LocalStack(t *testing.T) {
	if os.Getenv("RUN_LOCALSTACK_INTEGRATION") != "true" {
		t.Skip("skipping localstack integration test; set RUN_LOCALSTACK_INTEGRATION=true to run")
	}
	topic := os.Getenv("ORDER_SIGNALS_TOPIC_ARN")
	queue := os.Getenv("ORDER_SIGNALS_QUEUE_URL")
	if topic == "" || queue == "" {
		t.Fatalf("ORDER_SIGNALS_TOPIC_ARN and ORDER_SIGNALS_QUEUE_URL must be set for integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	logger := zap.NewNop()

	rel, err := relay.Open(ctx, relay.Config{Kind: relay.KindSNS, SNSTopicARN: topic, SQSQueueURL: queue}, logger)
	if err != nil {
		t.Fatalf("failed to open relay: %v", err)
	}
	defer rel.Close()

	// Two instances that share nothing but the relay.
	sender := notify.NewBus(store.NewMemoryStore(), logger, notify.WithMirror(rel.Sink))
	receiver := notify.NewBus(store.NewMemoryStore(), logger)

	got := make(chan notify.Event, 16)
	receiver.Subscribe(func(ev notify.Event) {
		select {
		case got <- ev:
		default:
		}
	})
	go func() { _ = rel.Source.Consume(ctx, receiver.Inject) }()

	order := models.Order{
		ID:           "it-" + time.Now().Format("150405.000"),
		RestaurantID: "rest1001",
		TableID:      "3",
		Items: []models.OrderLine{{
			MenuItem:       models.MenuItemSnapshot{ID: "1", Name: "Lomo Saltado", Price: 25},
			Quantity:       2,
			Customizations: map[string]string{},
			TotalPrice:     50,
		}},
		Total:         50,
		Status:        models.OrderStatusPending,
		Timestamp:     models.NowISO(time.Now()),
		PaymentMethod: models.PaymentMethodCash,
		PaymentStatus: models.PaymentStatusPending,
		OrderNumber:   "A001",
	}
	if err := sender.Publish(ctx, notify.NewOrder{Order: order}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	// The queue may still hold signals from earlier runs.
	for {
		select {
		case ev := <-got:
			if n, ok := ev.(notify.NewOrder); ok && n.Order.ID == order.ID {
				return
			}
		case <-ctx.Done():
			t.Fatal("relayed event never arrived")
		}
	}
}
