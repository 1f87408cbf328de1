package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/reconciler"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/repository"
)

type board struct {
	view        *reconciler.View
	unsubscribe func()
	stopPolling func()
}

// BoardService keeps one reconciled view per tenant, fed by the order bus
// and a polling timer.
type BoardService struct {
	orders   *OrderService
	tables   repository.TableRepository
	interval time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	boards map[string]*board
}

func NewBoardService(orders *OrderService, tables repository.TableRepository, interval time.Duration, log *zap.Logger) *BoardService {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BoardService{
		orders:   orders,
		tables:   tables,
		interval: interval,
		logger:   log,
		ctx:      ctx,
		cancel:   cancel,
		boards:   make(map[string]*board),
	}
}

// Get returns the tenant's view, building it on first use. The store reads
// run outside the board lock; a concurrent build for the same tenant loses
// and is disposed.
func (s *BoardService) Get(ctx context.Context, restaurantID string) (*reconciler.View, error) {
	s.mu.Lock()
	b, ok := s.boards[restaurantID]
	s.mu.Unlock()
	if ok {
		return b.view, nil
	}

	b, err := s.build(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.boards[restaurantID]; ok {
		s.mu.Unlock()
		b.unsubscribe()
		return existing.view, nil
	}
	b.stopPolling = s.orders.StartPolling(s.ctx, restaurantID, b.view.Apply, s.interval)
	s.boards[restaurantID] = b
	s.mu.Unlock()

	s.logger.Info("Board started", zap.String("restaurant_id", restaurantID))
	return b.view, nil
}

func (s *BoardService) build(ctx context.Context, restaurantID string) (*board, error) {
	tables, err := s.tables.List(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	feed := &seedingFeed{view: reconciler.New(restaurantID, tables)}
	unsubscribe := s.orders.SubscribeToOrderEvents(feed.apply)
	orders, err := s.orders.ListOrdersForTenant(ctx, restaurantID)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	feed.seed(orders)

	return &board{view: feed.view, unsubscribe: unsubscribe, stopPolling: func() {}}, nil
}

// seedingFeed holds back events that arrive while the seeding read is in
// flight and replays them on top of the seeded orders.
type seedingFeed struct {
	mu       sync.Mutex
	view     *reconciler.View
	buffered []notify.Event
	live     bool
}

func (f *seedingFeed) apply(ev notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.live {
		f.buffered = append(f.buffered, ev)
		return
	}
	f.view.Apply(ev)
}

func (f *seedingFeed) seed(orders []models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view.SetOrders(orders)
	for _, ev := range f.buffered {
		f.view.Apply(ev)
	}
	f.buffered = nil
	f.live = true
}

// ReloadTables pushes a new layout into a running board.
func (s *BoardService) ReloadTables(ctx context.Context, restaurantID string) error {
	s.mu.Lock()
	b, ok := s.boards[restaurantID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	tables, err := s.tables.List(ctx, restaurantID)
	if err != nil {
		return err
	}
	b.view.SetTables(tables)
	return nil
}

// Drop disposes the tenant's board, if any.
func (s *BoardService) Drop(restaurantID string) {
	s.mu.Lock()
	b, ok := s.boards[restaurantID]
	delete(s.boards, restaurantID)
	s.mu.Unlock()
	if ok {
		b.dispose()
	}
}

// Close disposes every subscription and timer.
func (s *BoardService) Close() {
	s.cancel()
	s.mu.Lock()
	boards := s.boards
	s.boards = make(map[string]*board)
	s.mu.Unlock()

	for _, b := range boards {
		b.dispose()
	}
}

func (b *board) dispose() {
	b.unsubscribe()
	b.stopPolling()
}
