package models

import "strconv"

type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusOccupied  TableStatus = "occupied"
	TableStatusReserved  TableStatus = "reserved"
)

// RestaurantTable is a seatable unit of a tenant. Status and CurrentOrder are
// a cache derived from the order ledger, never the source of truth.
type RestaurantTable struct {
	ID           string      `json:"id"`
	Number       int         `json:"number"`
	Capacity     int         `json:"capacity"`
	Status       TableStatus `json:"status"`
	CurrentOrder string      `json:"currentOrder,omitempty"`
}

// Matches reports whether an order's tableId refers to this table. Orders
// carry the table's display number as a string.
func (t RestaurantTable) Matches(tableID string) bool {
	return strconv.Itoa(t.Number) == tableID
}

// Free clears occupancy.
func (t *RestaurantTable) Free() {
	t.Status = TableStatusAvailable
	t.CurrentOrder = ""
}

// Occupy marks the table as held by the given order number.
func (t *RestaurantTable) Occupy(orderNumber string) {
	t.Status = TableStatusOccupied
	t.CurrentOrder = orderNumber
}
