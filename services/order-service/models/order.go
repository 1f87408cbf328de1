package models

import (
	"encoding/json"
	"math"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
)

// OrderStatus is the kitchen pipeline position of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
)

var statusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusPreparing: 1,
	OrderStatusReady:     2,
	OrderStatusDelivered: 3,
}

// IsValid reports whether s is one of the four pipeline statuses.
func (s OrderStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank is the position of s in the pipeline, or -1 for unknown values.
func (s OrderStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// CanAdvanceTo reports whether next is s or a later status.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	return next.IsValid() && next.Rank() >= s.Rank()
}

// IsActive reports whether an order in this status still holds its table.
func (s OrderStatus) IsActive() bool {
	return s != OrderStatusDelivered
}

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodQR   PaymentMethod = "qr"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
)

// MenuItemSnapshot freezes the menu item as it was when the order was placed.
type MenuItemSnapshot struct {
	ID    string  `json:"id" validate:"required"`
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// OrderLine is one menu item instance within an order.
type OrderLine struct {
	MenuItem       MenuItemSnapshot  `json:"menuItem"`
	Quantity       int               `json:"quantity" validate:"gt=0"`
	Customizations map[string]string `json:"customizations"`
	TotalPrice     float64           `json:"totalPrice" validate:"gte=0"`
}

// MarshalJSON writes customizations as {} rather than null.
func (l OrderLine) MarshalJSON() ([]byte, error) {
	type line OrderLine
	if l.Customizations == nil {
		l.Customizations = map[string]string{}
	}
	return json.Marshal(line(l))
}

// Order is one customer transaction at one table of one restaurant. The JSON
// layout is the persisted ledger format shared with every other reader of the
// store, so field names must not change.
type Order struct {
	ID            string        `json:"id" validate:"required"`
	RestaurantID  string        `json:"restaurantId" validate:"required"`
	TableID       string        `json:"tableId" validate:"required"`
	Items         []OrderLine   `json:"items" validate:"required,min=1,dive"`
	Total         float64       `json:"total" validate:"gte=0"`
	Status        OrderStatus   `json:"status" validate:"required,oneof=pending preparing ready delivered"`
	Timestamp     string        `json:"timestamp" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=card cash qr"`
	PaymentStatus PaymentStatus `json:"paymentStatus" validate:"required,oneof=pending confirmed"`
	OrderNumber   string        `json:"orderNumber,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks required fields, enum values and that the total matches the
// line totals to the cent.
func (o *Order) Validate() error {
	if err := validate.Struct(o); err != nil {
		return apperrors.Validation(err)
	}
	if sum := o.LinesTotal(); !MoneyEqual(o.Total, sum) {
		return apperrors.Validationf("order total %.2f does not match line totals %.2f", o.Total, sum)
	}
	return nil
}

// LinesTotal sums the line totals, rounded to cents.
func (o *Order) LinesTotal() float64 {
	var sum float64
	for _, l := range o.Items {
		sum += l.TotalPrice
	}
	return RoundMoney(sum)
}

// Clone returns a deep copy.
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = make([]OrderLine, len(o.Items))
		for i, l := range o.Items {
			c.Items[i] = l
			if l.Customizations != nil {
				m := make(map[string]string, len(l.Customizations))
				for k, v := range l.Customizations {
					m[k] = v
				}
				c.Items[i].Customizations = m
			}
		}
	}
	return c
}

// RoundMoney rounds to two decimals.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// MoneyEqual compares two amounts at cent precision.
func MoneyEqual(a, b float64) bool {
	return math.Abs(RoundMoney(a)-RoundMoney(b)) < 0.005
}

// StatusUpdateRequest is the body of the status endpoints.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}
