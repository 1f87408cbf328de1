// Package notify propagates order ledger changes to every subscriber, both
// inside this process and across instances sharing the same store.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
)

type Kind string

const (
	KindNewOrder     Kind = "newOrder"
	KindStatusUpdate Kind = "statusUpdate"
	KindRefresh      Kind = "refresh"
)

// Event is one of NewOrder, StatusUpdate or Refresh.
type Event interface {
	Kind() Kind
	isEvent()
}

// NewOrder carries a freshly appended order.
type NewOrder struct {
	Order models.Order
}

// StatusUpdate carries a status change. Order is the post-change snapshot,
// nil when the id was not found in the ledger.
type StatusUpdate struct {
	OrderID   string
	NewStatus models.OrderStatus
	Order     *models.Order
}

// Refresh carries the full current order list of one tenant.
type Refresh struct {
	Orders []models.Order
}

func (NewOrder) Kind() Kind     { return KindNewOrder }
func (StatusUpdate) Kind() Kind { return KindStatusUpdate }
func (Refresh) Kind() Kind      { return KindRefresh }

func (NewOrder) isEvent()     {}
func (StatusUpdate) isEvent() {}
func (Refresh) isEvent()      {}

// ErrLocalOnly is returned when encoding an event that has no signal form.
var ErrLocalOnly = errors.New("event is not propagated across instances")

// Signal is the record written under the last-update key. Field order is
// part of the persisted format.
type Signal struct {
	Type      Kind               `json:"type"`
	OrderID   string             `json:"orderId,omitempty"`
	NewStatus models.OrderStatus `json:"newStatus,omitempty"`
	Order     *models.Order      `json:"order,omitempty"`
	Timestamp int64              `json:"timestamp"`
}

// EncodeSignal renders ev as a signal record stamped with now.
func EncodeSignal(ev Event, now time.Time) ([]byte, error) {
	sig := Signal{Timestamp: now.UnixMilli()}
	switch e := ev.(type) {
	case NewOrder:
		o := e.Order
		sig.Type = KindNewOrder
		sig.Order = &o
	case StatusUpdate:
		sig.Type = KindStatusUpdate
		sig.OrderID = e.OrderID
		sig.NewStatus = e.NewStatus
		sig.Order = e.Order
	default:
		return nil, ErrLocalOnly
	}
	return json.Marshal(sig)
}

// DecodeSignal turns a signal record back into an event.
func DecodeSignal(payload []byte) (Event, error) {
	var sig Signal
	if err := json.Unmarshal(payload, &sig); err != nil {
		return nil, fmt.Errorf("decode signal: %w", err)
	}
	switch sig.Type {
	case KindNewOrder:
		if sig.Order == nil {
			return nil, errors.New("newOrder signal without order")
		}
		return NewOrder{Order: *sig.Order}, nil
	case KindStatusUpdate:
		if sig.OrderID == "" || !sig.NewStatus.IsValid() {
			return nil, fmt.Errorf("malformed statusUpdate signal for %q", sig.OrderID)
		}
		return StatusUpdate{OrderID: sig.OrderID, NewStatus: sig.NewStatus, Order: sig.Order}, nil
	default:
		return nil, fmt.Errorf("unknown signal type %q", sig.Type)
	}
}
