package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
)

const (
	frameBuffer  = 64
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsController streams a tenant's order events over a websocket.
type EventsController struct {
	orders       OrderServiceAPI
	restaurants  RestaurantServiceAPI
	pollInterval time.Duration
	logger       *zap.Logger
}

func NewEventsController(orders OrderServiceAPI, restaurants RestaurantServiceAPI, pollInterval time.Duration, logger *zap.Logger) *EventsController {
	return &EventsController{orders: orders, restaurants: restaurants, pollInterval: pollInterval, logger: logger}
}

// frameFor renders ev for the client, or returns nil when the event belongs
// to another tenant or cannot be attributed.
func frameFor(restaurantID string, ev notify.Event) gin.H {
	switch e := ev.(type) {
	case notify.NewOrder:
		if e.Order.RestaurantID != restaurantID {
			return nil
		}
		return gin.H{"type": notify.KindNewOrder, "order": e.Order}
	case notify.StatusUpdate:
		if e.Order == nil || e.Order.RestaurantID != restaurantID {
			return nil
		}
		return gin.H{"type": notify.KindStatusUpdate, "orderId": e.OrderID, "newStatus": e.NewStatus, "order": e.Order}
	case notify.Refresh:
		orders := make([]models.Order, 0, len(e.Orders))
		for _, o := range e.Orders {
			if o.RestaurantID == restaurantID {
				orders = append(orders, o)
			}
		}
		return gin.H{"type": notify.KindRefresh, "orders": orders}
	}
	return nil
}

// Stream upgrades the request and forwards every event of the tenant. The
// first frame is a refresh carrying the tenant's current orders; the polling
// fallback keeps sending refreshes for as long as the socket is open.
func (ec *EventsController) Stream(c *gin.Context) {
	rid := c.Param("restaurantId")

	lookupCtx, cancelLookup := requestContext(c)
	defer cancelLookup()
	if _, err := ec.restaurants.Get(lookupCtx, rid); err != nil {
		fail(c, err)
		return
	}

	frames := make(chan gin.H, frameBuffer)
	deliver := func(ev notify.Event) {
		frame := frameFor(rid, ev)
		if frame == nil {
			return
		}
		select {
		case frames <- frame:
		default:
			ec.logger.Warn("dropping event frame for slow client", zap.String("restaurant_id", rid))
		}
	}

	unsubscribe := ec.orders.SubscribeToOrderEvents(deliver)
	defer unsubscribe()

	current, err := ec.orders.ListOrdersForTenant(lookupCtx, rid)
	if err != nil {
		fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ec.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopPolling := ec.orders.StartPolling(ctx, rid, deliver, ec.pollInterval)
	defer stopPolling()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := ec.write(conn, frameFor(rid, notify.Refresh{Orders: current})); err != nil {
		return
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-frames:
			if err := ec.write(conn, frame); err != nil {
				ec.logger.Debug("websocket write failed", zap.String("restaurant_id", rid), zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (ec *EventsController) write(conn *websocket.Conn, frame gin.H) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(frame)
}
