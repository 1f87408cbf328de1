package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

// recorder collects events from any goroutine.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
	ch     chan notify.Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan notify.Event, 64)}
}

func (r *recorder) handle(ev notify.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
}

func (r *recorder) all() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

func (r *recorder) next(t *testing.T) notify.Event {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func (r *recorder) none(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-r.ch:
		t.Fatalf("unexpected event %s", ev.Kind())
	case <-time.After(wait):
	}
}

type mockMirror struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (m *mockMirror) Publish(_ context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, append([]byte(nil), payload...))
	return m.err
}

type brokenStore struct{ *store.MemoryStore }

func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("quota exceeded") }

func TestBus_PublishDeliversLocallyInOrder(t *testing.T) {
	bus := notify.NewBus(store.NewMemoryStore(), zap.NewNop())
	var got []string
	bus.Subscribe(func(ev notify.Event) { got = append(got, "a:"+string(ev.Kind())) })
	bus.Subscribe(func(ev notify.Event) { got = append(got, "b:"+string(ev.Kind())) })

	require.NoError(t, bus.Publish(context.Background(), notify.NewOrder{Order: testOrder("o1")}))
	require.NoError(t, bus.Publish(context.Background(), notify.StatusUpdate{OrderID: "o1", NewStatus: models.OrderStatusReady}))

	assert.Equal(t, []string{"a:newOrder", "b:newOrder", "a:statusUpdate", "b:statusUpdate"}, got)
}

func TestBus_PublishWritesSignal(t *testing.T) {
	st := store.NewMemoryStore()
	bus := notify.NewBus(st, zap.NewNop(), notify.WithClock(func() time.Time { return time.UnixMilli(42) }))

	require.NoError(t, bus.Publish(context.Background(), notify.StatusUpdate{OrderID: "o9", NewStatus: models.OrderStatusPreparing}))

	raw, err := st.Get(context.Background(), store.KeyLastUpdate)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"statusUpdate","orderId":"o9","newStatus":"preparing","timestamp":42}`, string(raw))
}

func TestBus_RefreshStaysLocal(t *testing.T) {
	st := store.NewMemoryStore()
	bus := notify.NewBus(st, zap.NewNop())
	rec := newRecorder()
	bus.Subscribe(rec.handle)

	require.NoError(t, bus.Publish(context.Background(), notify.Refresh{Orders: []models.Order{testOrder("o1")}}))

	assert.Equal(t, notify.KindRefresh, rec.next(t).Kind())
	raw, _ := st.Get(context.Background(), store.KeyLastUpdate)
	assert.Nil(t, raw)
}

func TestBus_PanickingSubscriberIsIsolated(t *testing.T) {
	bus := notify.NewBus(store.NewMemoryStore(), zap.NewNop())
	rec := newRecorder()
	bus.Subscribe(func(notify.Event) { panic("boom") })
	bus.Subscribe(rec.handle)

	require.NoError(t, bus.Publish(context.Background(), notify.NewOrder{Order: testOrder("o1")}))
	assert.Equal(t, notify.KindNewOrder, rec.next(t).Kind())
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := notify.NewBus(store.NewMemoryStore(), zap.NewNop())
	rec := newRecorder()
	unsubscribe := bus.Subscribe(rec.handle)

	bus.Emit(notify.Refresh{})
	unsubscribe()
	unsubscribe()
	bus.Emit(notify.Refresh{})

	assert.Len(t, rec.all(), 1)
}

func TestBus_UnsubscribeDuringDelivery(t *testing.T) {
	bus := notify.NewBus(store.NewMemoryStore(), zap.NewNop())
	rec := newRecorder()
	var unsubscribeSecond func()
	bus.Subscribe(func(notify.Event) { unsubscribeSecond() })
	unsubscribeSecond = bus.Subscribe(rec.handle)

	bus.Emit(notify.Refresh{})
	assert.Empty(t, rec.all())
}

func TestBus_FailedSignalWriteAfterLocalDelivery(t *testing.T) {
	bus := notify.NewBus(brokenStore{store.NewMemoryStore()}, zap.NewNop())
	rec := newRecorder()
	bus.Subscribe(rec.handle)

	err := bus.Publish(context.Background(), notify.NewOrder{Order: testOrder("o1")})
	assert.Error(t, err)
	assert.Len(t, rec.all(), 1)
}

func TestBus_CrossInstanceDelivery(t *testing.T) {
	shared := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writer := notify.NewBus(shared, zap.NewNop())
	reader := notify.NewBus(shared, zap.NewNop())
	_, err := writer.Listen(ctx)
	require.NoError(t, err)
	_, err = reader.Listen(ctx)
	require.NoError(t, err)

	local := newRecorder()
	remote := newRecorder()
	writer.Subscribe(local.handle)
	reader.Subscribe(remote.handle)

	o := testOrder("o1")
	require.NoError(t, writer.Publish(ctx, notify.NewOrder{Order: o}))

	ev := remote.next(t)
	no, ok := ev.(notify.NewOrder)
	require.True(t, ok)
	assert.Equal(t, o, no.Order)

	// The writer sees its own event once, through the local path only.
	assert.Equal(t, notify.KindNewOrder, local.next(t).Kind())
	local.none(t, 100*time.Millisecond)
}

func TestBus_CorruptSignalIsSwallowed(t *testing.T) {
	shared := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := notify.NewBus(shared, zap.NewNop())
	rec := newRecorder()
	bus.Subscribe(rec.handle)
	_, err := bus.Listen(ctx)
	require.NoError(t, err)

	require.NoError(t, shared.Set(ctx, store.KeyLastUpdate, []byte(`{"type":`)))
	rec.none(t, 100*time.Millisecond)

	require.NoError(t, shared.Set(ctx, store.KeyLastUpdate, []byte(`{"type":"statusUpdate","orderId":"o1","newStatus":"ready","timestamp":1}`)))
	assert.Equal(t, notify.KindStatusUpdate, rec.next(t).Kind())
}

func TestBus_RunStopsWithContext(t *testing.T) {
	bus := notify.NewBus(store.NewMemoryStore(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

// closableFeed hands out a signal feed the test can end.
type closableFeed struct {
	*store.MemoryStore
	feed chan []byte
}

func (s closableFeed) Watch(context.Context, string) (<-chan []byte, error) {
	return s.feed, nil
}

func TestBus_RunReportsClosedFeed(t *testing.T) {
	st := closableFeed{MemoryStore: store.NewMemoryStore(), feed: make(chan []byte)}
	bus := notify.NewBus(st, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- bus.Run(context.Background()) }()
	close(st.feed)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, notify.ErrFeedClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestBus_UnsubscribeDoesNotWaitForInFlightCall(t *testing.T) {
	bus := notify.NewBus(store.NewMemoryStore(), zap.NewNop())
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	unsubscribe := bus.Subscribe(func(notify.Event) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
	})

	emitted := make(chan struct{})
	go func() {
		defer close(emitted)
		bus.Emit(notify.Refresh{})
	}()
	<-entered

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		unsubscribe()
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("unsubscribe waited for the running handler")
	}

	close(release)
	<-emitted
	bus.Emit(notify.Refresh{})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestBus_InjectDropsOwnEcho(t *testing.T) {
	mirror := &mockMirror{}
	bus := notify.NewBus(store.NewMemoryStore(), zap.NewNop(), notify.WithMirror(mirror))
	rec := newRecorder()
	bus.Subscribe(rec.handle)

	require.NoError(t, bus.Publish(context.Background(), notify.NewOrder{Order: testOrder("o1")}))
	rec.next(t)

	require.Len(t, mirror.payloads, 1)
	bus.Inject(mirror.payloads[0])
	bus.Inject(mirror.payloads[0])
	rec.none(t, 50*time.Millisecond)

	bus.Inject([]byte(`{"type":"newOrder","order":{"id":"o2"},"timestamp":7}`))
	assert.Equal(t, notify.KindNewOrder, rec.next(t).Kind())
}

func TestBus_MirrorFailureIsNotReturned(t *testing.T) {
	mirror := &mockMirror{err: errors.New("broker down")}
	bus := notify.NewBus(store.NewMemoryStore(), zap.NewNop(), notify.WithMirror(mirror))

	assert.NoError(t, bus.Publish(context.Background(), notify.NewOrder{Order: testOrder("o1")}))
	assert.Len(t, mirror.payloads, 1)
}
