package application

import (
	"context"
	"sync"
	"time"

	"github.com/bizops-platform/inventory-service/pkg/logging"
	"github.com/bizops-platform/inventory-service/pkg/metrics"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

// fakeStockRepo reproduces the version-conditional update discipline of the
// real repository: Update succeeds only when the caller's version matches the
// stored one, and increments it on success. The mutex makes each read and
// each conditional write atomic, as they are against MongoDB.
type fakeStockRepo struct {
	mu    sync.Mutex
	items map[string]*domain.StockItem

	insertErr error
	findErr   error
	updateErr error

	// conflictsRemaining forces this many version conflicts before updates
	// succeed again.
	conflictsRemaining int
	updateCalls        int
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{items: make(map[string]*domain.StockItem)}
}

func (f *fakeStockRepo) seed(item *domain.StockItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.SKU] = cloneStockItem(item)
}

func (f *fakeStockRepo) Insert(ctx context.Context, item *domain.StockItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, exists := f.items[item.SKU]; exists {
		return domain.ErrDuplicateSKU
	}
	f.items[item.SKU] = cloneStockItem(item)
	return nil
}

func (f *fakeStockRepo) FindBySKU(ctx context.Context, sku string) (*domain.StockItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	item, ok := f.items[sku]
	if !ok {
		return nil, nil
	}
	return cloneStockItem(item), nil
}

func (f *fakeStockRepo) FindAll(ctx context.Context, limit, offset int) ([]*domain.StockItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make([]*domain.StockItem, 0, len(f.items))
	for _, item := range f.items {
		results = append(results, cloneStockItem(item))
	}
	return results, nil
}

func (f *fakeStockRepo) Update(ctx context.Context, item *domain.StockItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.conflictsRemaining > 0 {
		f.conflictsRemaining--
		return domain.ErrVersionConflict
	}
	stored, ok := f.items[item.SKU]
	if !ok || stored.Version != item.Version {
		return domain.ErrVersionConflict
	}
	item.Version++
	f.items[item.SKU] = cloneStockItem(item)
	return nil
}

func cloneStockItem(item *domain.StockItem) *domain.StockItem {
	clone := *item
	clone.DomainEvents = nil
	return &clone
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	insertErr     error
	findErr       error
	transitionErr error
	claimErr      error
	releaseErr    error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func (f *fakeOrderRepo) Insert(ctx context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.orders[order.OrderID] = cloneOrder(order)
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	order, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	return cloneOrder(order), nil
}

func (f *fakeOrderRepo) FindByFollowUp(ctx context.Context, followUpID string) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make([]*domain.Order, 0)
	for _, order := range f.orders {
		if order.FollowUpID == followUpID {
			results = append(results, cloneOrder(order))
		}
	}
	return results, nil
}

func (f *fakeOrderRepo) TransitionStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, fulfilledAt *time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transitionErr != nil {
		return false, f.transitionErr
	}
	order, ok := f.orders[orderID]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	order.FulfilledAt = fulfilledAt
	order.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *fakeOrderRepo) ClaimLine(ctx context.Context, orderID, sku string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	order, ok := f.orders[orderID]
	if !ok {
		return false, nil
	}
	for i := range order.Lines {
		if order.Lines[i].SKU == sku && !order.Lines[i].Fulfilled {
			order.Lines[i].Fulfilled = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrderRepo) ReleaseClaim(ctx context.Context, orderID, sku string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseErr != nil {
		return false, f.releaseErr
	}
	order, ok := f.orders[orderID]
	if !ok {
		return false, nil
	}
	for i := range order.Lines {
		if order.Lines[i].SKU == sku && order.Lines[i].Fulfilled {
			order.Lines[i].Fulfilled = false
			return true, nil
		}
	}
	return false, nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Lines = make([]domain.OrderLine, len(order.Lines))
	copy(clone.Lines, order.Lines)
	clone.DomainEvents = nil
	return &clone
}

type fakeDemandRepo struct {
	mu      sync.Mutex
	demands map[string]*domain.Demand

	insertErr error
	deleteErr error
}

func newFakeDemandRepo() *fakeDemandRepo {
	return &fakeDemandRepo{demands: make(map[string]*domain.Demand)}
}

func (f *fakeDemandRepo) Insert(ctx context.Context, demand *domain.Demand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.demands[demand.OrderID] = demand
	return nil
}

func (f *fakeDemandRepo) FindByOrderID(ctx context.Context, orderID string) (*domain.Demand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.demands[orderID], nil
}

func (f *fakeDemandRepo) FindOpen(ctx context.Context, limit, offset int) ([]*domain.Demand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make([]*domain.Demand, 0, len(f.demands))
	for _, demand := range f.demands {
		results = append(results, demand)
	}
	return results, nil
}

func (f *fakeDemandRepo) DeleteByOrderID(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.demands, orderID)
	return nil
}

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []*domain.StockMovement

	insertErr error
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{movements: make([]*domain.StockMovement, 0)}
}

func (f *fakeMovementRepo) Insert(ctx context.Context, movement *domain.StockMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.movements = append(f.movements, movement)
	return nil
}

func (f *fakeMovementRepo) FindBySKU(ctx context.Context, sku string, limit, offset int) ([]*domain.StockMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make([]*domain.StockMovement, 0)
	for _, movement := range f.movements {
		if movement.SKU == sku {
			results = append(results, movement)
		}
	}
	return results, nil
}

func (f *fakeMovementRepo) byType(movementType domain.MovementType) []*domain.StockMovement {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make([]*domain.StockMovement, 0)
	for _, movement := range f.movements {
		if movement.Type == movementType {
			results = append(results, movement)
		}
	}
	return results
}

type fakePublisher struct {
	mu         sync.Mutex
	events     []domain.DomainEvent
	publishErr error
}

func (f *fakePublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.events = append(f.events, events...)
	return nil
}

type testDeps struct {
	stock     *fakeStockRepo
	orders    *fakeOrderRepo
	demands   *fakeDemandRepo
	movements *fakeMovementRepo
	publisher *fakePublisher
}

func newTestDeps() *testDeps {
	return &testDeps{
		stock:     newFakeStockRepo(),
		orders:    newFakeOrderRepo(),
		demands:   newFakeDemandRepo(),
		movements: newFakeMovementRepo(),
		publisher: &fakePublisher{},
	}
}

func (d *testDeps) reservationService() *ReservationApplicationService {
	logger := logging.New(logging.DefaultConfig("test"))
	m := metrics.New(metrics.DefaultConfig("test"))
	return NewReservationApplicationService(d.stock, d.orders, d.demands, d.movements, d.publisher, m, logger)
}

func (d *testDeps) fulfillmentService() *FulfillmentApplicationService {
	logger := logging.New(logging.DefaultConfig("test"))
	m := metrics.New(metrics.DefaultConfig("test"))
	return NewFulfillmentApplicationService(d.stock, d.orders, d.movements, d.publisher, m, logger)
}

func (d *testDeps) stockService() *StockApplicationService {
	logger := logging.New(logging.DefaultConfig("test"))
	m := metrics.New(metrics.DefaultConfig("test"))
	return NewStockApplicationService(d.stock, d.movements, d.publisher, m, logger)
}

func seedItem(d *testDeps, sku string, quantity, buffer int) {
	item, err := domain.NewStockItem(sku, "Test Product "+sku, domain.Money{Amount: 1999, Currency: "EUR"}, quantity, buffer)
	if err != nil {
		panic(err)
	}
	d.stock.seed(item)
}
