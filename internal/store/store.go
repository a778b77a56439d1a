package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"order-import-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// ErrDuplicateOrderNumber is returned when the order number unique key is violated
var ErrDuplicateOrderNumber = errors.New("duplicate order number")

const orderNumberConstraint = "orders_order_number_key"

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Rebind(query string) string
}

// Writer groups the writes of one import unit so they share a transaction
type Writer interface {
	CreateProducts(ctx context.Context, products []models.Product) error
	CreateOrder(ctx context.Context, order *models.Order) error
}

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string, maxOpenConns, maxIdleConns int) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// New wraps an existing connection
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn in a single transaction. fn's writes are committed when it
// returns nil and rolled back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(w Writer) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txWriter{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txWriter struct {
	q queryer
}

func (w *txWriter) CreateProducts(ctx context.Context, products []models.Product) error {
	return insertProducts(ctx, w.q, products)
}

func (w *txWriter) CreateOrder(ctx context.Context, order *models.Order) error {
	return insertOrder(ctx, w.q, order)
}

// CreateProduct creates a single product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.db.GetContext(ctx, &product.ID,
		"INSERT INTO products (name, price) VALUES ($1, $2) RETURNING id",
		product.Name, product.Price)
}

// CreateProducts bulk-creates products and fills in their IDs
func (s *Store) CreateProducts(ctx context.Context, products []models.Product) error {
	return insertProducts(ctx, s.db, products)
}

// insertProducts sends the rows as two arrays, so the statement keeps two
// bind parameters however many products there are. Rows are inserted in
// ordinality order and draw ascending ids from the products sequence, which
// lets the sorted ids map back to the input by position.
func insertProducts(ctx context.Context, q queryer, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	names := make([]string, len(products))
	prices := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
		prices[i] = p.Price.String()
	}

	query := `
		INSERT INTO products (name, price)
		SELECT t.name, t.price
		FROM unnest($1::text[], $2::numeric[]) WITH ORDINALITY AS t(name, price, ord)
		ORDER BY t.ord
		RETURNING id`

	var ids []int64
	if err := q.SelectContext(ctx, &ids, query, pq.Array(names), pq.Array(prices)); err != nil {
		return fmt.Errorf("failed to insert products: %w", err)
	}
	if len(ids) != len(products) {
		return fmt.Errorf("failed to insert products: expected %d ids, got %d", len(products), len(ids))
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i := range products {
		products[i].ID = ids[i]
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == constraint
	}
	return false
}
