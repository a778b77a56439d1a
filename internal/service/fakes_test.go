package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"order-import-service/internal/models"
	"order-import-service/internal/store"

	"github.com/shopspring/decimal"
)

// memoryStore mimics the Postgres store: writes inside WithinTx are staged
// and only become visible when the callback returns nil.
type memoryStore struct {
	mu sync.Mutex

	nextProductID int64
	nextOrderID   int64
	nextItemID    int64

	products map[int64]models.Product
	orders   map[int64]*models.Order
	byNumber map[string]int64

	// failOrders makes CreateOrder fail for the given order numbers
	failOrders map[string]error
	// hideExisting makes ExistsOrderByNumber always answer false
	hideExisting bool
	existsErr    error

	existsCalls int
	txCalls     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		products:   make(map[int64]models.Product),
		orders:     make(map[int64]*models.Order),
		byNumber:   make(map[string]int64),
		failOrders: make(map[string]error),
	}
}

func (m *memoryStore) ExistsOrderByNumber(ctx context.Context, orderNumber string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.existsCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	if m.hideExisting {
		return false, nil
	}
	_, ok := m.byNumber[orderNumber]
	return ok, nil
}

func (m *memoryStore) WithinTx(ctx context.Context, fn func(w store.Writer) error) error {
	m.mu.Lock()
	m.txCalls++
	m.mu.Unlock()

	tx := &memoryTx{parent: m}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range tx.products {
		m.products[p.ID] = p
	}
	for _, o := range tx.orders {
		if _, taken := m.byNumber[o.OrderNumber]; taken {
			return fmt.Errorf("%w: %s", store.ErrDuplicateOrderNumber, o.OrderNumber)
		}
		m.orders[o.ID] = o
		m.byNumber[o.OrderNumber] = o.ID
	}
	return nil
}

func (m *memoryStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", store.ErrNotFound, id)
	}
	return cloneOrder(o), nil
}

func (m *memoryStore) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byNumber[orderNumber]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", store.ErrNotFound, orderNumber)
	}
	return cloneOrder(m.orders[id]), nil
}

func (m *memoryStore) ListOrders(ctx context.Context, page, size int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.orders))
	for id := range m.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	orders := []models.Order{}
	for i := page * size; i < len(ids) && i < (page+1)*size; i++ {
		orders = append(orders, *cloneOrder(m.orders[ids[i]]))
	}
	return orders, int64(len(ids)), nil
}

func (m *memoryStore) CreateProduct(ctx context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextProductID++
	product.ID = m.nextProductID
	m.products[product.ID] = *product
	return nil
}

func (m *memoryStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memoryStore) productCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products)
}

// seed stores an order outside any import
func (m *memoryStore) seed(orderNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextOrderID++
	o := models.NewOrder(orderNumber, decimal.NullDecimal{})
	o.ID = m.nextOrderID
	m.orders[o.ID] = o
	m.byNumber[orderNumber] = o.ID
}

type memoryTx struct {
	parent   *memoryStore
	products []models.Product
	orders   []*models.Order
}

func (tx *memoryTx) CreateProducts(ctx context.Context, products []models.Product) error {
	tx.parent.mu.Lock()
	defer tx.parent.mu.Unlock()

	for i := range products {
		tx.parent.nextProductID++
		products[i].ID = tx.parent.nextProductID
		tx.products = append(tx.products, products[i])
	}
	return nil
}

func (tx *memoryTx) CreateOrder(ctx context.Context, order *models.Order) error {
	tx.parent.mu.Lock()
	defer tx.parent.mu.Unlock()

	if err := tx.parent.failOrders[order.OrderNumber]; err != nil {
		return err
	}
	if _, taken := tx.parent.byNumber[order.OrderNumber]; taken {
		return fmt.Errorf("%w: %s", store.ErrDuplicateOrderNumber, order.OrderNumber)
	}

	tx.parent.nextOrderID++
	order.ID = tx.parent.nextOrderID
	for i := range order.Items {
		tx.parent.nextItemID++
		order.Items[i].ID = tx.parent.nextItemID
		order.Items[i].OrderID = order.ID
	}
	tx.orders = append(tx.orders, cloneOrder(order))
	return nil
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderLineItem{}, o.Items...)
	return &c
}

type fakeSource struct {
	payloads []models.ExternalOrderPayload
	err      error
}

func (f *fakeSource) FetchOrders(ctx context.Context) ([]models.ExternalOrderPayload, error) {
	return f.payloads, f.err
}

type fakeNotifier struct {
	mu      sync.Mutex
	results []models.ImportResult
	err     error
}

func (f *fakeNotifier) PublishImportCompleted(ctx context.Context, result *models.ImportResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, *result)
	return f.err
}

func (f *fakeNotifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}
