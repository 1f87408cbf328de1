package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
)

type eventFrame struct {
	Type      notify.Kind        `json:"type"`
	Order     *models.Order      `json:"order"`
	OrderID   string             `json:"orderId"`
	NewStatus models.OrderStatus `json:"newStatus"`
	Orders    []models.Order     `json:"orders"`
}

func TestFrameFor(t *testing.T) {
	mine := sampleOrder()
	other := sampleOrder()
	other.RestaurantID = "rest1002"

	assert.Nil(t, frameFor("rest1001", notify.NewOrder{Order: other}))
	assert.Nil(t, frameFor("rest1001", notify.StatusUpdate{OrderID: "o1", NewStatus: models.OrderStatusReady}))
	assert.Nil(t, frameFor("rest1001", notify.StatusUpdate{OrderID: "o1", NewStatus: models.OrderStatusReady, Order: &other}))

	f := frameFor("rest1001", notify.StatusUpdate{OrderID: "o1", NewStatus: models.OrderStatusReady, Order: &mine})
	require.NotNil(t, f)
	assert.Equal(t, notify.KindStatusUpdate, f["type"])

	f = frameFor("rest1001", notify.Refresh{Orders: []models.Order{mine, other}})
	require.NotNil(t, f)
	assert.Len(t, f["orders"], 1)

	f = frameFor("rest1001", notify.Refresh{})
	require.NotNil(t, f)
	assert.NotNil(t, f["orders"])
}

func TestEventsController_Stream(t *testing.T) {
	orders := new(MockOrderService)
	restaurants := new(MockRestaurantService)
	ec := NewEventsController(orders, restaurants, time.Minute, zap.NewNop())

	handlers := make(chan notify.Handler, 1)
	unsubscribed := make(chan struct{})
	restaurants.On("Get", mock.Anything, "rest1001").Return(&models.Restaurant{ID: "rest1001"}, nil).Once()
	orders.On("SubscribeToOrderEvents", mock.Anything).
		Run(func(args mock.Arguments) { handlers <- args.Get(0).(notify.Handler) }).
		Return(func() { close(unsubscribed) }).Once()
	orders.On("ListOrdersForTenant", mock.Anything, "rest1001").Return([]models.Order{sampleOrder()}, nil).Once()
	orders.On("StartPolling", mock.Anything, "rest1001", mock.Anything, time.Minute).Return(func() {}).Once()

	r := newTestRouter()
	r.GET("/restaurants/:restaurantId/events", ec.Stream)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/restaurants/rest1001/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var frame eventFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, notify.KindRefresh, frame.Type)
	require.Len(t, frame.Orders, 1)
	assert.Equal(t, "A001", frame.Orders[0].OrderNumber)

	deliver := <-handlers
	other := sampleOrder()
	other.ID = "o2"
	other.RestaurantID = "rest1002"
	deliver(notify.NewOrder{Order: other})
	deliver(notify.StatusUpdate{OrderID: "o9", NewStatus: models.OrderStatusReady})

	ready := sampleOrder()
	ready.Status = models.OrderStatusReady
	deliver(notify.StatusUpdate{OrderID: "o1", NewStatus: models.OrderStatusReady, Order: &ready})

	frame = eventFrame{}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, notify.KindStatusUpdate, frame.Type)
	assert.Equal(t, "o1", frame.OrderID)
	assert.Equal(t, models.OrderStatusReady, frame.NewStatus)

	require.NoError(t, conn.Close())
	select {
	case <-unsubscribed:
	case <-time.After(5 * time.Second):
		t.Fatal("subscription was not released after the client left")
	}
	orders.AssertExpectations(t)
}

func TestEventsController_UnknownRestaurant(t *testing.T) {
	orders := new(MockOrderService)
	restaurants := new(MockRestaurantService)
	ec := NewEventsController(orders, restaurants, time.Minute, zap.NewNop())
	restaurants.On("Get", mock.Anything, "rest9999").Return(nil, apperrors.NotFound("restaurant rest9999")).Once()

	r := newTestRouter()
	r.GET("/restaurants/:restaurantId/events", ec.Stream)

	recorder := doJSON(r, http.MethodGet, "/restaurants/rest9999/events", "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	orders.AssertNotCalled(t, "SubscribeToOrderEvents", mock.Anything)
}
