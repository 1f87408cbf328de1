package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	awspkg "github.com/BeckerFac/restaurant-ordering/pkg/aws"
	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
	"github.com/BeckerFac/restaurant-ordering/services/common/logger"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/polling"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/repository"
)

// Publisher is the part of the notification bus the order service writes to.
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
	Subscribe(fn notify.Handler) (unsubscribe func())
}

type OrderService struct {
	orders      repository.OrderRepository
	restaurants repository.RestaurantRepository
	bus         Publisher
	metrics     *awspkg.MetricsClient
	logger      *zap.Logger
	now         func() time.Time
}

func NewOrderService(orders repository.OrderRepository, restaurants repository.RestaurantRepository, bus Publisher, metrics *awspkg.MetricsClient, log *zap.Logger) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		orders:      orders,
		restaurants: restaurants,
		bus:         bus,
		metrics:     metrics,
		logger:      log,
		now:         time.Now,
	}
}

// AppendOrder stores a new order and announces it.
func (s *OrderService) AppendOrder(ctx context.Context, order *models.Order) error {
	if err := s.orders.Append(ctx, order); err != nil {
		s.recordStoreError(ctx, err)
		return err
	}

	logger.Info(ctx, "Order appended",
		zap.String("order_id", order.ID),
		zap.String("restaurant_id", order.RestaurantID),
		zap.String("table_id", order.TableID))
	s.count(ctx, awspkg.MetricOrdersCreated, order.RestaurantID)
	s.publish(ctx, notify.NewOrder{Order: order.Clone()})
	return nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		s.recordStoreError(ctx, err)
	}
	return orders, err
}

func (s *OrderService) ListOrdersForTenant(ctx context.Context, restaurantID string) ([]models.Order, error) {
	orders, err := s.orders.ListForTenant(ctx, restaurantID)
	if err != nil {
		s.recordStoreError(ctx, err)
	}
	return orders, err
}

// SetOrderStatus moves an order forward. An unknown id is not an error; the
// status update is still announced, without an order snapshot.
func (s *OrderService) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	return s.setStatus(ctx, orderID, status, false)
}

// OverrideOrderStatus sets any status, including a backward move.
func (s *OrderService) OverrideOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	return s.setStatus(ctx, orderID, status, true)
}

func (s *OrderService) setStatus(ctx context.Context, orderID string, status models.OrderStatus, override bool) error {
	if orderID == "" {
		return apperrors.Validationf("order id is required")
	}
	if !status.IsValid() {
		return apperrors.Validationf("unknown order status %q", status)
	}

	updated, err := s.orders.SetStatus(ctx, orderID, status, override)
	if err != nil {
		s.recordStoreError(ctx, err)
		return err
	}

	if updated == nil {
		logger.Debug(ctx, "Status update for unknown order", zap.String("order_id", orderID))
	} else {
		logger.Info(ctx, "Order status updated",
			zap.String("order_id", orderID),
			zap.String("status", string(status)),
			zap.Bool("override", override))
		s.count(ctx, awspkg.MetricOrderStatusUpdated, updated.RestaurantID)
		if status == models.OrderStatusDelivered {
			s.count(ctx, awspkg.MetricOrdersDelivered, updated.RestaurantID)
		}
	}

	s.publish(ctx, notify.StatusUpdate{OrderID: orderID, NewStatus: status, Order: updated})
	return nil
}

// ConfirmPayment marks the payment as received. Unknown ids are ignored.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID string) error {
	updated, err := s.orders.ConfirmPayment(ctx, orderID)
	if err != nil {
		s.recordStoreError(ctx, err)
		return err
	}
	if updated == nil {
		return nil
	}

	logger.Info(ctx, "Payment confirmed", zap.String("order_id", orderID))
	s.count(ctx, awspkg.MetricPaymentsConfirmed, updated.RestaurantID)
	s.publish(ctx, notify.StatusUpdate{OrderID: orderID, NewStatus: updated.Status, Order: updated})
	return nil
}

func (s *OrderService) GenerateOrderNumber() string {
	return repository.GenerateOrderNumber()
}

func (s *OrderService) SubscribeToOrderEvents(fn notify.Handler) (unsubscribe func()) {
	return s.bus.Subscribe(fn)
}

// StartPolling hands fn a refresh of the tenant's orders every interval
// until stop is called or ctx ends.
func (s *OrderService) StartPolling(ctx context.Context, restaurantID string, fn notify.Handler, interval time.Duration) (stop func()) {
	return polling.Start(ctx, s.orders, restaurantID, fn, interval, s.logger)
}

// Checkout prices a cart against the submitted menu items and appends the
// resulting order. Card and QR payments are settled at checkout; cash is
// confirmed later by staff.
func (s *OrderService) Checkout(ctx context.Context, req *models.CheckoutRequest) (*models.Order, error) {
	restaurant, err := s.restaurants.Get(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, apperrors.NotFound("restaurant " + req.RestaurantID)
	}
	if !restaurant.IsActive() {
		return nil, apperrors.Validationf("restaurant %s is not accepting orders", req.RestaurantID)
	}
	if len(req.Lines) == 0 {
		return nil, apperrors.Validationf("cart is empty")
	}

	lines := make([]models.OrderLine, 0, len(req.Lines))
	var total float64
	for _, l := range req.Lines {
		line, err := models.NewOrderLine(l.MenuItem, l.Quantity, l.Selections)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
		total += line.TotalPrice
	}

	paymentStatus := models.PaymentStatusConfirmed
	if req.PaymentMethod == models.PaymentMethodCash {
		paymentStatus = models.PaymentStatusPending
	}

	order := &models.Order{
		ID:            "order-" + uuid.NewString(),
		RestaurantID:  req.RestaurantID,
		TableID:       req.TableID,
		Items:         lines,
		Total:         models.RoundMoney(total),
		Status:        models.OrderStatusPending,
		Timestamp:     models.NowISO(s.now()),
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatus,
		OrderNumber:   s.GenerateOrderNumber(),
	}
	if err := s.AppendOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// publish is best-effort: the ledger write already succeeded.
func (s *OrderService) publish(ctx context.Context, ev notify.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		logger.Warn(ctx, "Failed to publish order signal",
			zap.String("event", string(ev.Kind())),
			zap.Error(err))
	}
}

func (s *OrderService) count(ctx context.Context, metric, restaurantID string) {
	if !s.metrics.IsEnabled() {
		return
	}
	if err := s.metrics.RecordCount(ctx, metric, map[string]string{"RestaurantId": restaurantID}); err != nil {
		s.logger.Debug("Failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}

func (s *OrderService) recordStoreError(ctx context.Context, err error) {
	if !apperrors.IsStorageUnavailable(err) {
		return
	}
	logger.Error(ctx, "Order store unavailable", err)
	if s.metrics.IsEnabled() {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricStoreErrors, nil)
	}
}
