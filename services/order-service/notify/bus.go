package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	awspkg "github.com/BeckerFac/restaurant-ordering/pkg/aws"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

// Handler receives events. It may be called from the publishing goroutine
// and from the signal watcher concurrently.
type Handler func(Event)

// Mirror receives a copy of every signal this bus writes.
type Mirror interface {
	Publish(ctx context.Context, payload []byte) error
}

const ownSignalMemory = 32

// ErrFeedClosed is returned by Run when the store ends the signal feed
// while the caller's context is still live.
var ErrFeedClosed = errors.New("order signal feed closed")

type subscriber struct {
	id     uint64
	fn     Handler
	active atomic.Bool
}

// Bus delivers events to local subscribers and writes a signal record so
// other instances watching the same store see the change.
type Bus struct {
	store   store.Store
	logger  *zap.Logger
	mirror  Mirror
	metrics *awspkg.MetricsClient
	now     func() time.Time

	mu     sync.RWMutex
	subs   []*subscriber
	nextID uint64

	ownMu sync.Mutex
	own   []string
}

type Option func(*Bus)

// WithMirror forwards every written signal to m, best-effort.
func WithMirror(m Mirror) Option {
	return func(b *Bus) { b.mirror = m }
}

func WithMetrics(m *awspkg.MetricsClient) Option {
	return func(b *Bus) { b.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(b *Bus) { b.now = now }
}

func NewBus(st store.Store, logger *zap.Logger, opts ...Option) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bus{store: st, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn. The returned function removes it: once it has
// returned no new delivery to fn starts, but a call already in flight on
// another goroutine may still be running. It does not wait for that call,
// so a handler may unsubscribe itself. Calling it again is a no-op.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	s := &subscriber{id: b.nextID, fn: fn}
	s.active.Store(true)
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.active.Store(false)
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, cur := range b.subs {
				if cur.id == s.id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit delivers ev to local subscribers only, in registration order.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	subs := make([]*subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if !s.active.Load() {
			continue
		}
		b.deliver(s, ev)
	}
}

func (b *Bus) deliver(s *subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Subscriber panicked",
				zap.Uint64("subscriber", s.id),
				zap.String("event", string(ev.Kind())),
				zap.Any("panic", r))
		}
	}()
	s.fn(ev)
}

// Publish delivers ev locally, then writes the signal record for NewOrder
// and StatusUpdate. Local delivery has happened even when an error is
// returned.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.Emit(ev)

	payload, err := EncodeSignal(ev, b.now())
	if errors.Is(err, ErrLocalOnly) {
		return nil
	}
	if err != nil {
		return err
	}

	b.remember(payload)
	if err := b.store.Set(ctx, store.KeyLastUpdate, payload); err != nil {
		b.forget(payload)
		return err
	}

	if b.mirror != nil {
		if err := b.mirror.Publish(ctx, payload); err != nil {
			b.logger.Warn("Failed to mirror order signal",
				zap.String("event", string(ev.Kind())),
				zap.Error(err))
		}
	}
	return nil
}

// Listen starts watching the signal key and returns once the watch is in
// place. The returned channel closes when ctx ends or the store closes the
// feed.
func (b *Bus) Listen(ctx context.Context) (<-chan struct{}, error) {
	ch, err := b.store.Watch(ctx, store.KeyLastUpdate)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for payload := range ch {
			b.Inject(payload)
		}
	}()
	return done, nil
}

// Run watches the signal key until ctx is done. It returns ErrFeedClosed
// if the feed ends first.
func (b *Bus) Run(ctx context.Context) error {
	done, err := b.Listen(ctx)
	if err != nil {
		return err
	}
	<-done
	if ctx.Err() != nil {
		return nil
	}
	b.logger.Error("Order signal feed closed")
	return ErrFeedClosed
}

// Inject handles a signal payload observed from outside: it is decoded and
// emitted locally unless this bus wrote it. Bad payloads are dropped.
func (b *Bus) Inject(payload []byte) {
	if b.isOwn(payload) {
		return
	}
	ev, err := DecodeSignal(payload)
	if err != nil {
		b.logger.Debug("Ignoring order signal", zap.Error(err))
		return
	}
	if b.metrics.IsEnabled() {
		_ = b.metrics.RecordCount(context.Background(), awspkg.MetricSignalsReceived,
			map[string]string{"Type": string(ev.Kind())})
	}
	b.Emit(ev)
}

func (b *Bus) remember(payload []byte) {
	b.ownMu.Lock()
	defer b.ownMu.Unlock()
	b.own = append(b.own, string(payload))
	if len(b.own) > ownSignalMemory {
		b.own = b.own[len(b.own)-ownSignalMemory:]
	}
}

// isOwn reports whether payload is one of the recent signals this bus wrote.
// A payload may come back twice, once from the store feed and once from a
// relay, so entries are kept until evicted.
func (b *Bus) isOwn(payload []byte) bool {
	p := string(payload)
	b.ownMu.Lock()
	defer b.ownMu.Unlock()
	for _, s := range b.own {
		if s == p {
			return true
		}
	}
	return false
}

func (b *Bus) forget(payload []byte) {
	p := string(payload)
	b.ownMu.Lock()
	defer b.ownMu.Unlock()
	for i, s := range b.own {
		if s == p {
			b.own = append(b.own[:i], b.own[i+1:]...)
			return
		}
	}
}
