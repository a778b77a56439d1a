package service

import (
	"context"

	"order-import-service/internal/models"
	"order-import-service/internal/store"

	"github.com/shopspring/decimal"
)

// pendingLine is a product still to be created plus the quantity ordered
type pendingLine struct {
	product  models.Product
	quantity int
}

// persistOrderGraph creates the products, attaches one line item per product,
// derives the total and saves the order with its items. Prices are rounded to
// the stored scale first so the total matches what is read back. It must run inside
// the writer's transaction so a failure leaves no orphan products.
func persistOrderGraph(ctx context.Context, w store.Writer, order *models.Order, lines []pendingLine) error {
	products := make([]models.Product, len(lines))
	for i, l := range lines {
		products[i] = l.product
		products[i].Price = models.RoundPrice(l.product.Price)
	}

	if err := w.CreateProducts(ctx, products); err != nil {
		return err
	}

	for i, p := range products {
		order.AddItem(p, lines[i].quantity)
	}
	order.Total = calculateTotal(order.Items)

	return w.CreateOrder(ctx, order)
}

// calculateTotal sums quantity x unit price over the line items
func calculateTotal(items []models.OrderLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
