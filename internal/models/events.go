package models

import "time"

// Event types
const (
	EventTypeOrdersImported = "ORDERS_IMPORTED"
)

// ImportCompletedMessage is the text published on import completion
const ImportCompletedMessage = "Pedidos do Externo A importados com sucesso!"

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrdersImportedEvent published when an import batch stored at least one order
type OrdersImportedEvent struct {
	BaseEvent
	Received int `json:"received"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}
