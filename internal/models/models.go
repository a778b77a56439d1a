package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places money columns keep
const PriceScale = 2

// RoundPrice rounds a monetary value to PriceScale places, half away from
// zero, the way the NUMERIC columns round on insert
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}

// Product represents a catalog item referenced by order line items
type Product struct {
	ID    int64           `db:"id" json:"id"`
	Name  string          `db:"name" json:"nome"`
	Price decimal.Decimal `db:"price" json:"valor"`
}

// Order represents a purchase identified by its order number
type Order struct {
	ID                 int64               `db:"id" json:"id"`
	OrderNumber        string              `db:"order_number" json:"numeroPedido"`
	Total              decimal.Decimal     `db:"total" json:"valor"`
	DiscountPercentage decimal.NullDecimal `db:"discount_percentage" json:"desconto_percentual"`
	CreatedAt          time.Time           `db:"created_at" json:"data_cadastro"`
	Items              []OrderLineItem     `db:"-" json:"produtos"`
}

// NewOrder creates a transient order stamped with the current time
func NewOrder(orderNumber string, discount decimal.NullDecimal) *Order {
	if discount.Valid {
		discount.Decimal = RoundPrice(discount.Decimal)
	}
	return &Order{
		OrderNumber:        orderNumber,
		Total:              decimal.Zero,
		DiscountPercentage: discount,
		CreatedAt:          time.Now().UTC(),
		Items:              []OrderLineItem{},
	}
}

// AddItem appends a line item owned by the order
func (o *Order) AddItem(product Product, quantity int) {
	o.Items = append(o.Items, OrderLineItem{
		OrderID:   o.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		Product:   product,
	})
}

// OrderLineItem links an order to a product with a quantity
type OrderLineItem struct {
	ID        int64   `db:"id" json:"id"`
	OrderID   int64   `db:"order_id" json:"-"`
	ProductID int64   `db:"product_id" json:"-"`
	Quantity  int     `db:"quantity" json:"quantidade"`
	Product   Product `db:"product" json:"produto"`
}

// Subtotal returns quantity times the product unit price
func (li OrderLineItem) Subtotal() decimal.Decimal {
	return li.Product.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// OrderPage is one page of the order listing
type OrderPage struct {
	Content       []Order `json:"conteudo"`
	Page          int     `json:"pagina"`
	Size          int     `json:"tamanho"`
	TotalElements int64   `json:"total_elementos"`
	TotalPages    int     `json:"total_paginas"`
}

// NewOrderPage builds a page and derives the page count
func NewOrderPage(content []Order, page, size int, total int64) *OrderPage {
	if content == nil {
		content = []Order{}
	}

	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}

	return &OrderPage{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
