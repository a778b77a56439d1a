package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"order-import-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const orderColumns = "id, order_number, total, discount_percentage, created_at"

const lineItemsByOrderQuery = `
	SELECT li.id, li.order_id, li.product_id, li.quantity,
		p.id AS "product.id", p.name AS "product.name", p.price AS "product.price"
	FROM order_line_items li
	JOIN products p ON p.id = li.product_id
	WHERE li.order_id IN (?)
	ORDER BY li.order_id, li.id`

// CreateOrder creates an order and its line items in one transaction
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.WithinTx(ctx, func(w Writer) error {
		return w.CreateOrder(ctx, order)
	})
}

// insertOrder saves the order row first, then the line items referencing its id
func insertOrder(ctx context.Context, q queryer, order *models.Order) error {
	query := `
		INSERT INTO orders (order_number, total, discount_percentage, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := q.GetContext(ctx, &order.ID, query,
		order.OrderNumber, order.Total, order.DiscountPercentage, order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, orderNumberConstraint) {
			return fmt.Errorf("%w: %s", ErrDuplicateOrderNumber, order.OrderNumber)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if len(order.Items) == 0 {
		return nil
	}

	productIDs := make([]int64, len(order.Items))
	quantities := make([]int64, len(order.Items))
	pending := make(map[int64][]int, len(order.Items))
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		productIDs[i] = order.Items[i].ProductID
		quantities[i] = int64(order.Items[i].Quantity)
		pending[productIDs[i]] = append(pending[productIDs[i]], i)
	}

	itemsQuery := `
		INSERT INTO order_line_items (order_id, product_id, quantity)
		SELECT $1::bigint, t.product_id, t.quantity
		FROM unnest($2::bigint[], $3::int[]) AS t(product_id, quantity)
		RETURNING id, product_id`

	var rows []insertedLineItem
	if err := q.SelectContext(ctx, &rows, itemsQuery, order.ID, pq.Array(productIDs), pq.Array(quantities)); err != nil {
		return fmt.Errorf("failed to insert order line items: %w", err)
	}
	if len(rows) != len(order.Items) {
		return fmt.Errorf("failed to insert order line items: expected %d ids, got %d", len(order.Items), len(rows))
	}

	// ids are matched on product_id, RETURNING order is not relied on
	for _, row := range rows {
		idx := pending[row.ProductID]
		if len(idx) == 0 {
			return fmt.Errorf("failed to insert order line items: unexpected product %d", row.ProductID)
		}
		order.Items[idx[0]].ID = row.ID
		pending[row.ProductID] = idx[1:]
	}
	return nil
}

type insertedLineItem struct {
	ID        int64 `db:"id"`
	ProductID int64 `db:"product_id"`
}

// GetOrderByID retrieves an order by ID with its line items
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadItems(ctx, []*models.Order{&order}); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByNumber retrieves an order by its order number with its line items
func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT "+orderColumns+" FROM orders WHERE order_number = $1", orderNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %q: %w", orderNumber, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadItems(ctx, []*models.Order{&order}); err != nil {
		return nil, err
	}
	return &order, nil
}

// ExistsOrderByNumber checks the order number unique index without fetching the row
func (s *Store) ExistsOrderByNumber(ctx context.Context, orderNumber string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = $1)", orderNumber)
	return exists, err
}

// ListOrders returns one page of orders with their line items and the total order count
func (s *Store) ListOrders(ctx context.Context, page, size int) ([]models.Order, int64, error) {
	var total int64
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders"); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders ORDER BY id LIMIT $1 OFFSET $2",
		size, page*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	refs := make([]*models.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := s.loadItems(ctx, refs); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// loadItems fetches the line items of all given orders in one query
func (s *Store) loadItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for i, o := range orders {
		o.Items = []models.OrderLineItem{}
		ids[i] = o.ID
		byID[o.ID] = o
	}

	query, args, err := sqlx.In(lineItemsByOrderQuery, ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var items []models.OrderLineItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return fmt.Errorf("failed to load order line items: %w", err)
	}

	for _, item := range items {
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return nil
}
