package controllers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/reconciler"
)

// --- Mock Services ---

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) AppendOrder(ctx context.Context, order *models.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderService) ListOrdersForTenant(ctx context.Context, restaurantID string) ([]models.Order, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderService) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *MockOrderService) OverrideOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *MockOrderService) ConfirmPayment(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockOrderService) GenerateOrderNumber() string {
	return m.Called().String(0)
}

func (m *MockOrderService) SubscribeToOrderEvents(fn notify.Handler) func() {
	args := m.Called(fn)
	return args.Get(0).(func())
}

func (m *MockOrderService) StartPolling(ctx context.Context, restaurantID string, fn notify.Handler, interval time.Duration) func() {
	args := m.Called(ctx, restaurantID, fn, interval)
	return args.Get(0).(func())
}

func (m *MockOrderService) Checkout(ctx context.Context, req *models.CheckoutRequest) (*models.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type MockRestaurantService struct {
	mock.Mock
}

func (m *MockRestaurantService) List(ctx context.Context) ([]models.Restaurant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Restaurant), args.Error(1)
}

func (m *MockRestaurantService) Get(ctx context.Context, id string) (*models.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Restaurant), args.Error(1)
}

func (m *MockRestaurantService) Create(ctx context.Context, req *models.CreateRestaurantRequest) (*models.Restaurant, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Restaurant), args.Error(1)
}

func (m *MockRestaurantService) Update(ctx context.Context, id string, req *models.UpdateRestaurantRequest) (*models.Restaurant, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Restaurant), args.Error(1)
}

func (m *MockRestaurantService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRestaurantService) Tables(ctx context.Context, id string) ([]models.RestaurantTable, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RestaurantTable), args.Error(1)
}

func (m *MockRestaurantService) SaveTables(ctx context.Context, id string, tables []models.RestaurantTable) ([]models.RestaurantTable, error) {
	args := m.Called(ctx, id, tables)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RestaurantTable), args.Error(1)
}

type MockBoardService struct {
	mock.Mock
}

func (m *MockBoardService) Get(ctx context.Context, restaurantID string) (*reconciler.View, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciler.View), args.Error(1)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) ExportTenant(ctx context.Context, restaurantID string, orders []models.Order) (string, error) {
	args := m.Called(ctx, restaurantID, orders)
	return args.String(0), args.Error(1)
}

func sampleOrder() models.Order {
	return models.Order{
		ID:           "o1",
		RestaurantID: "rest1001",
		TableID:      "3",
		Items: []models.OrderLine{{
			MenuItem:       models.MenuItemSnapshot{ID: "1", Name: "Lomo Saltado", Price: 25.0},
			Quantity:       2,
			Customizations: map[string]string{},
			TotalPrice:     50.0,
		}},
		Total:         50.0,
		Status:        models.OrderStatusPending,
		PaymentMethod: models.PaymentMethodCash,
		PaymentStatus: models.PaymentStatusConfirmed,
		OrderNumber:   "A001",
		Timestamp:     "2025-01-01T10:00:00Z",
	}
}
