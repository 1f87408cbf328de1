package polling_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/polling"
)

type mockLister struct {
	mu     sync.Mutex
	calls  int
	orders []models.Order
	err    error
}

func (m *mockLister) ListForTenant(_ context.Context, restaurantID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Order
	for _, o := range m.orders {
		if o.RestaurantID == restaurantID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockLister) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestStart_DeliversRefreshEachTick(t *testing.T) {
	lister := &mockLister{orders: []models.Order{
		{ID: "o1", RestaurantID: "rest1001"},
		{ID: "o2", RestaurantID: "rest1002"},
	}}
	got := make(chan notify.Event, 16)

	stop := polling.Start(context.Background(), lister, "rest1001", func(ev notify.Event) { got <- ev }, 10*time.Millisecond, zap.NewNop())
	defer stop()

	for i := 0; i < 2; i++ {
		select {
		case ev := <-got:
			r, ok := ev.(notify.Refresh)
			require.True(t, ok)
			require.Len(t, r.Orders, 1)
			assert.Equal(t, "o1", r.Orders[0].ID)
		case <-time.After(2 * time.Second):
			t.Fatal("no refresh delivered")
		}
	}
}

func TestStart_NoCallsAfterStop(t *testing.T) {
	lister := &mockLister{}
	var calls atomic.Int32

	stop := polling.Start(context.Background(), lister, "rest1001", func(notify.Event) { calls.Add(1) }, 5*time.Millisecond, zap.NewNop())
	time.Sleep(30 * time.Millisecond)
	stop()
	stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestStart_ReadErrorsAreSkipped(t *testing.T) {
	lister := &mockLister{err: errors.New("storage unavailable")}
	var calls atomic.Int32

	stop := polling.Start(context.Background(), lister, "rest1001", func(notify.Event) { calls.Add(1) }, 5*time.Millisecond, zap.NewNop())
	require.Eventually(t, func() bool { return lister.callCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	stop()

	assert.Zero(t, calls.Load())
}

func TestStart_ParentContextCancels(t *testing.T) {
	lister := &mockLister{}
	ctx, cancel := context.WithCancel(context.Background())

	stop := polling.Start(ctx, lister, "rest1001", func(notify.Event) {}, 5*time.Millisecond, nil)
	cancel()

	done := make(chan struct{})
	go func() { stop(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop blocked after parent cancel")
	}
}
