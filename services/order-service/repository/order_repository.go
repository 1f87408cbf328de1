package repository

import (
	"context"
	"fmt"
	"math/rand/v2"

	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

// OrderRepository reads and rewrites the order ledger. Every mutation is a
// read-modify-write of the whole collection with no locking: two writers that
// interleave lose one of the updates.
type OrderRepository interface {
	Append(ctx context.Context, order *models.Order) error
	ListAll(ctx context.Context) ([]models.Order, error)
	ListForTenant(ctx context.Context, restaurantID string) ([]models.Order, error)
	// SetStatus returns nil, nil when no order has the id. Without override
	// a backward move is rejected.
	SetStatus(ctx context.Context, orderID string, status models.OrderStatus, override bool) (*models.Order, error)
	// ConfirmPayment returns nil, nil when no order has the id.
	ConfirmPayment(ctx context.Context, orderID string) (*models.Order, error)
}

type StoreOrderRepository struct {
	store store.Store
}

func NewStoreOrderRepository(st store.Store) OrderRepository {
	return &StoreOrderRepository{store: st}
}

func (r *StoreOrderRepository) load(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := readJSON(ctx, r.store, store.KeyOrders, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (r *StoreOrderRepository) save(ctx context.Context, orders []models.Order) error {
	return writeJSON(ctx, r.store, store.KeyOrders, orders)
}

func (r *StoreOrderRepository) Append(ctx context.Context, order *models.Order) error {
	if order == nil {
		return apperrors.Validationf("order is required")
	}
	if err := order.Validate(); err != nil {
		return err
	}

	orders, err := r.load(ctx)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if o.ID == order.ID {
			return apperrors.Validationf("order %s already exists", order.ID)
		}
	}
	return r.save(ctx, append(orders, order.Clone()))
}

func (r *StoreOrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.load(ctx)
}

func (r *StoreOrderRepository) ListForTenant(ctx context.Context, restaurantID string) ([]models.Order, error) {
	orders, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.RestaurantID == restaurantID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *StoreOrderRepository) SetStatus(ctx context.Context, orderID string, status models.OrderStatus, override bool) (*models.Order, error) {
	if !status.IsValid() {
		return nil, apperrors.Validationf("unknown order status %q", status)
	}
	return r.mutate(ctx, orderID, func(o *models.Order) error {
		if !override && !o.Status.CanAdvanceTo(status) {
			return apperrors.Validationf("order %s cannot move from %s back to %s", o.ID, o.Status, status)
		}
		o.Status = status
		return nil
	})
}

func (r *StoreOrderRepository) ConfirmPayment(ctx context.Context, orderID string) (*models.Order, error) {
	return r.mutate(ctx, orderID, func(o *models.Order) error {
		o.PaymentStatus = models.PaymentStatusConfirmed
		return nil
	})
}

// mutate applies fn to the order with the given id and writes the collection
// back. Unknown ids are a silent no-op with no write.
func (r *StoreOrderRepository) mutate(ctx context.Context, orderID string, fn func(*models.Order) error) (*models.Order, error) {
	orders, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID != orderID {
			continue
		}
		if err := fn(&orders[i]); err != nil {
			return nil, err
		}
		if err := r.save(ctx, orders); err != nil {
			return nil, err
		}
		updated := orders[i].Clone()
		return &updated, nil
	}
	return nil, nil
}

// GenerateOrderNumber returns a short display code: one letter and four
// digits, e.g. "K0427". It is not guaranteed unique; the order id is the key.
func GenerateOrderNumber() string {
	return fmt.Sprintf("%c%04d", 'A'+rand.IntN(26), rand.IntN(10000))
}
