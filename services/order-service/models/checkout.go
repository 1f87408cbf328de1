package models

import "time"

// NowISO formats t the way ledger timestamps are written (UTC, milliseconds).
func NowISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// CheckoutLine is one cart entry submitted at checkout.
type CheckoutLine struct {
	MenuItem   MenuItem          `json:"menuItem"`
	Quantity   int               `json:"quantity" binding:"required,gt=0"`
	Selections map[string]string `json:"customizations"`
}

// CheckoutRequest turns a table's cart into an order.
type CheckoutRequest struct {
	RestaurantID  string         `json:"-"`
	TableID       string         `json:"tableId" binding:"required"`
	PaymentMethod PaymentMethod  `json:"paymentMethod" binding:"required,oneof=card cash qr"`
	Lines         []CheckoutLine `json:"items" binding:"required,min=1,dive"`
}
