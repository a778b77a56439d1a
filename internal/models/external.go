package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExternalOrderPayload is an order as delivered by the partner API.
// It only lives for the duration of one import.
type ExternalOrderPayload struct {
	OrderNumber        string                   `json:"numeroPedido"`
	Total              decimal.NullDecimal      `json:"valor"`
	DiscountPercentage decimal.NullDecimal      `json:"descontoPercentual"`
	Products           []ExternalProductPayload `json:"produtos"`
}

// ExternalProductPayload carries no identity; every import creates a new product row
type ExternalProductPayload struct {
	Name     string          `json:"nome"`
	Price    decimal.Decimal `json:"valor"`
	Quantity int             `json:"quantidade,omitempty"`
}

// ImportResult summarizes one import run
type ImportResult struct {
	Received   int   `json:"recebidos"`
	Imported   int   `json:"importados"`
	Skipped    int   `json:"ignorados"`
	Failed     int   `json:"falhas"`
	DurationMs int64 `json:"duracao_ms"`
}

// Finish records the elapsed time since start
func (r *ImportResult) Finish(start time.Time) {
	r.DurationMs = time.Since(start).Milliseconds()
}
