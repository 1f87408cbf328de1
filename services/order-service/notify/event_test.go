package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
)

func testOrder(id string) models.Order {
	return models.Order{
		ID:           id,
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
		Timestamp:     "2025-01-01T10:00:00Z",
		PaymentMethod: models.PaymentMethodCash,
		PaymentStatus: models.PaymentStatusConfirmed,
		OrderNumber:   "A001",
	}
}

func TestEncodeSignal_NewOrderLayout(t *testing.T) {
	at := time.UnixMilli(1735725600000)

	raw, err := notify.EncodeSignal(notify.NewOrder{Order: testOrder("o1")}, at)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "newOrder",
		"order": {
			"id": "o1", "restaurantId": "rest1001", "tableId": "3",
			"items": [{"menuItem": {"id": "1", "name": "Lomo Saltado", "price": 25},
				"quantity": 2, "customizations": {}, "totalPrice": 50}],
			"total": 50, "status": "pending", "timestamp": "2025-01-01T10:00:00Z",
			"paymentMethod": "cash", "paymentStatus": "confirmed", "orderNumber": "A001"
		},
		"timestamp": 1735725600000
	}`, string(raw))
}

func TestEncodeSignal_StatusUpdateWithoutOrder(t *testing.T) {
	raw, err := notify.EncodeSignal(notify.StatusUpdate{OrderID: "ghost", NewStatus: models.OrderStatusReady}, time.UnixMilli(5))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"statusUpdate","orderId":"ghost","newStatus":"ready","timestamp":5}`, string(raw))
}

func TestEncodeSignal_RefreshIsLocal(t *testing.T) {
	_, err := notify.EncodeSignal(notify.Refresh{}, time.Now())
	assert.ErrorIs(t, err, notify.ErrLocalOnly)
}

func TestDecodeSignal_RoundTrip(t *testing.T) {
	o := testOrder("o1")
	o.Status = models.OrderStatusReady
	raw, err := notify.EncodeSignal(notify.StatusUpdate{OrderID: "o1", NewStatus: models.OrderStatusReady, Order: &o}, time.Now())
	require.NoError(t, err)

	ev, err := notify.DecodeSignal(raw)
	require.NoError(t, err)
	su, ok := ev.(notify.StatusUpdate)
	require.True(t, ok)
	assert.Equal(t, "o1", su.OrderID)
	assert.Equal(t, models.OrderStatusReady, su.NewStatus)
	require.NotNil(t, su.Order)
	assert.Equal(t, "A001", su.Order.OrderNumber)
}

func TestDecodeSignal_Rejects(t *testing.T) {
	for name, payload := range map[string]string{
		"garbage":          `{not json`,
		"unknown type":     `{"type":"deleted","orderId":"o1","timestamp":1}`,
		"refresh":          `{"type":"refresh","timestamp":1}`,
		"new without body": `{"type":"newOrder","timestamp":1}`,
		"status no id":     `{"type":"statusUpdate","newStatus":"ready","timestamp":1}`,
		"bad status":       `{"type":"statusUpdate","orderId":"o1","newStatus":"lost","timestamp":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := notify.DecodeSignal([]byte(payload))
			assert.Error(t, err)
		})
	}
}
