package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/reconciler"
)

// DefaultContextTimeout bounds every store round trip made by a handler.
const DefaultContextTimeout = 10 * time.Second

type OrderServiceAPI interface {
	AppendOrder(ctx context.Context, order *models.Order) error
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersForTenant(ctx context.Context, restaurantID string) ([]models.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	OverrideOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	ConfirmPayment(ctx context.Context, orderID string) error
	GenerateOrderNumber() string
	SubscribeToOrderEvents(fn notify.Handler) (unsubscribe func())
	StartPolling(ctx context.Context, restaurantID string, fn notify.Handler, interval time.Duration) (stop func())
	Checkout(ctx context.Context, req *models.CheckoutRequest) (*models.Order, error)
}

type RestaurantServiceAPI interface {
	List(ctx context.Context) ([]models.Restaurant, error)
	Get(ctx context.Context, id string) (*models.Restaurant, error)
	Create(ctx context.Context, req *models.CreateRestaurantRequest) (*models.Restaurant, error)
	Update(ctx context.Context, id string, req *models.UpdateRestaurantRequest) (*models.Restaurant, error)
	Delete(ctx context.Context, id string) error
	Tables(ctx context.Context, id string) ([]models.RestaurantTable, error)
	SaveTables(ctx context.Context, id string, tables []models.RestaurantTable) ([]models.RestaurantTable, error)
}

type BoardServiceAPI interface {
	Get(ctx context.Context, restaurantID string) (*reconciler.View, error)
}

type Archiver interface {
	ExportTenant(ctx context.Context, restaurantID string, orders []models.Order) (string, error)
}

// fail hands err to the error middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, apperrors.Validation(err))
		return false
	}
	return true
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), DefaultContextTimeout)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
