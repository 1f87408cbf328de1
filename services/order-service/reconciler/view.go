// Package reconciler folds order events into one tenant's projected view:
// the order list and the occupancy of its tables.
package reconciler

import (
	"sync"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
)

// View is safe for concurrent use. Every event kind is idempotent, so
// duplicate and out-of-order delivery converge on the next refresh.
type View struct {
	restaurantID string

	mu     sync.RWMutex
	orders []models.Order
	index  map[string]int
	tables []models.RestaurantTable
}

// Snapshot is a copy of a View at one instant.
type Snapshot struct {
	RestaurantID string                   `json:"restaurantId"`
	Orders       []models.Order           `json:"orders"`
	Tables       []models.RestaurantTable `json:"tables"`
}

func New(restaurantID string, tables []models.RestaurantTable) *View {
	v := &View{
		restaurantID: restaurantID,
		orders:       []models.Order{},
		index:        make(map[string]int),
		tables:       make([]models.RestaurantTable, len(tables)),
	}
	copy(v.tables, tables)
	return v
}

func (v *View) RestaurantID() string {
	return v.restaurantID
}

// Apply merges ev into the view. It has the notify.Handler signature so a
// view can subscribe directly.
func (v *View) Apply(ev notify.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch e := ev.(type) {
	case notify.NewOrder:
		v.applyNewOrder(e.Order)
	case notify.StatusUpdate:
		v.applyStatusUpdate(e)
	case notify.Refresh:
		v.applyRefresh(e.Orders)
	}
}

func (v *View) applyNewOrder(o models.Order) {
	if o.RestaurantID != v.restaurantID {
		return
	}
	if _, ok := v.index[o.ID]; ok {
		return
	}
	v.index[o.ID] = len(v.orders)
	v.orders = append(v.orders, o.Clone())

	if o.Status.IsActive() {
		v.occupy(o)
	}
}

// applyStatusUpdate overwrites the status. A snapshot carried with the event
// also supplies the payment status.
func (v *View) applyStatusUpdate(e notify.StatusUpdate) {
	i, ok := v.index[e.OrderID]
	if !ok {
		return
	}
	status := e.NewStatus
	v.orders[i].Status = status
	if e.Order != nil && e.Order.ID == e.OrderID && e.Order.PaymentStatus != "" {
		v.orders[i].PaymentStatus = e.Order.PaymentStatus
	}

	number := v.orders[i].OrderNumber
	if status != models.OrderStatusDelivered || number == "" {
		return
	}
	for t := range v.tables {
		if v.tables[t].CurrentOrder == number {
			v.tables[t].Free()
		}
	}
}

// applyRefresh replaces the order list and derives occupancy from scratch.
func (v *View) applyRefresh(orders []models.Order) {
	v.orders = make([]models.Order, 0, len(orders))
	v.index = make(map[string]int, len(orders))
	for _, o := range orders {
		if o.RestaurantID != v.restaurantID {
			continue
		}
		if _, dup := v.index[o.ID]; dup {
			continue
		}
		v.index[o.ID] = len(v.orders)
		v.orders = append(v.orders, o.Clone())
	}

	for t := range v.tables {
		if v.tables[t].Status == models.TableStatusOccupied {
			v.tables[t].Free()
		}
	}
	for _, o := range v.orders {
		if o.Status.IsActive() {
			v.occupy(o)
		}
	}
}

// occupy marks every table whose number matches the order's table id.
func (v *View) occupy(o models.Order) {
	for t := range v.tables {
		if v.tables[t].Matches(o.TableID) {
			v.tables[t].Occupy(o.OrderNumber)
		}
	}
}

// SetOrders applies a full refresh with orders.
func (v *View) SetOrders(orders []models.Order) {
	v.Apply(notify.Refresh{Orders: orders})
}

// SetTables replaces the layout and re-derives occupancy from the current
// order list.
func (v *View) SetTables(tables []models.RestaurantTable) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tables = make([]models.RestaurantTable, len(tables))
	copy(v.tables, tables)
	v.applyRefresh(v.orders)
}

func (v *View) Orders() []models.Order {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.copyOrders()
}

func (v *View) Tables() []models.RestaurantTable {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.RestaurantTable, len(v.tables))
	copy(out, v.tables)
	return out
}

func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	tables := make([]models.RestaurantTable, len(v.tables))
	copy(tables, v.tables)
	return Snapshot{RestaurantID: v.restaurantID, Orders: v.copyOrders(), Tables: tables}
}

func (v *View) copyOrders() []models.Order {
	out := make([]models.Order, len(v.orders))
	for i, o := range v.orders {
		out[i] = o.Clone()
	}
	return out
}
