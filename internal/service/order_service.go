package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"order-import-service/internal/models"
	"order-import-service/internal/store"
	"order-import-service/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// DirectOrderQuantity is the quantity used when a direct order item omits one
	DirectOrderQuantity = 2

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// OrderRepository is the order store as seen by OrderService
type OrderRepository interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, page, size int) ([]models.Order, int64, error)
	ExistsOrderByNumber(ctx context.Context, orderNumber string) (bool, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	WithinTx(ctx context.Context, fn func(w store.Writer) error) error
}

// OrderService handles order queries and direct order creation
type OrderService struct {
	store  OrderRepository
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderRepository) *OrderService {
	return &OrderService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order directly
type CreateOrderRequest struct {
	OrderNumber        string                   `json:"numeroPedido" binding:"required"`
	DiscountPercentage decimal.NullDecimal      `json:"descontoPercentual"`
	Products           []CreateOrderItemRequest `json:"produtos" binding:"required,min=1,dive"`
}

// CreateOrderItemRequest is a new product inside a direct order
type CreateOrderItemRequest struct {
	Name     string          `json:"nome" binding:"required"`
	Price    decimal.Decimal `json:"valor"`
	Quantity int             `json:"quantidade" binding:"omitempty,min=1"`
}

// CreateProductRequest represents a request to create a standalone product
type CreateProductRequest struct {
	Name  string          `json:"nome" binding:"required"`
	Price decimal.Decimal `json:"valor"`
}

// GetOrder retrieves an order with its items by ID
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder", attribute.Int64("order.id", id))
	defer span.End()

	return s.store.GetOrderByID(ctx, id)
}

// GetOrderByNumber retrieves an order with its items by order number
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrderByNumber",
		attribute.String("order.number", orderNumber))
	defer span.End()

	return s.store.GetOrderByNumber(ctx, orderNumber)
}

// ListOrders returns one page of orders, page is zero-based
func (s *OrderService) ListOrders(ctx context.Context, page, size int) (*models.OrderPage, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders",
		attribute.Int("page", page), attribute.Int("size", size))
	defer span.End()

	if page < 0 {
		return nil, fmt.Errorf("%w: pagina must not be negative", ErrInvalidRequest)
	}
	if size < 1 || size > MaxPageSize {
		return nil, fmt.Errorf("%w: tamanho must be between 1 and %d", ErrInvalidRequest, MaxPageSize)
	}
	// page*size becomes the row offset
	if page > math.MaxInt/size {
		return nil, fmt.Errorf("%w: pagina is out of range", ErrInvalidRequest)
	}

	orders, total, err := s.store.ListOrders(ctx, page, size)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return models.NewOrderPage(orders, page, size, total), nil
}

// CreateOrder stores a new order and its new products in one transaction
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	exists, err := s.store.ExistsOrderByNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check order number: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrOrderExists, req.OrderNumber)
	}

	order := models.NewOrder(req.OrderNumber, req.DiscountPercentage)
	lines := make([]pendingLine, len(req.Products))
	for i, item := range req.Products {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = DirectOrderQuantity
		}
		lines[i] = pendingLine{
			product:  models.Product{Name: item.Name, Price: item.Price},
			quantity: quantity,
		}
	}

	err = s.store.WithinTx(ctx, func(w store.Writer) error {
		return persistOrderGraph(ctx, w, order, lines)
	})
	if errors.Is(err, store.ErrDuplicateOrderNumber) {
		return nil, fmt.Errorf("%w: %s", ErrOrderExists, req.OrderNumber)
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.String()))

	return order, nil
}

// CreateProduct stores a standalone product
func (s *OrderService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateProduct")
	defer span.End()

	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: nome is required", ErrInvalidRequest)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: valor must not be negative", ErrInvalidRequest)
	}

	product := &models.Product{Name: req.Name, Price: models.RoundPrice(req.Price)}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.Int64("product_id", product.ID))
	return product, nil
}

func validateCreateOrder(req *CreateOrderRequest) error {
	if strings.TrimSpace(req.OrderNumber) == "" {
		return fmt.Errorf("%w: numeroPedido is required", ErrInvalidRequest)
	}
	if len(req.Products) == 0 {
		return fmt.Errorf("%w: produtos must not be empty", ErrInvalidRequest)
	}
	for i, item := range req.Products {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("%w: produtos[%d].nome is required", ErrInvalidRequest, i)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: produtos[%d].valor must not be negative", ErrInvalidRequest, i)
		}
		if item.Quantity < 0 {
			return fmt.Errorf("%w: produtos[%d].quantidade must be positive", ErrInvalidRequest, i)
		}
	}
	return nil
}
