package broker

import (
	"context"
	"log"
	"strconv"
	"time"

	"order-import-service/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// ImportPublisher announces finished imports on the imported-orders topic
type ImportPublisher struct {
	producer *Producer
}

// NewImportPublisher creates a new import publisher
func NewImportPublisher(producer *Producer) *ImportPublisher {
	return &ImportPublisher{producer: producer}
}

// PublishImportCompleted publishes the completion message for an import result.
// Delivery is best effort; callers only log the returned error.
func (ip *ImportPublisher) PublishImportCompleted(ctx context.Context, result *models.ImportResult) error {
	event := newOrdersImportedEvent(result)
	return ip.producer.PublishText(ctx, "import-"+event.EventID, models.ImportCompletedMessage, eventHeaders(event)...)
}

func newOrdersImportedEvent(result *models.ImportResult) *models.OrdersImportedEvent {
	return &models.OrdersImportedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrdersImported,
			Timestamp: time.Now(),
		},
		Received: result.Received,
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Failed:   result.Failed,
	}
}

func eventHeaders(event *models.OrdersImportedEvent) []kafka.Header {
	return []kafka.Header{
		{Key: "event_id", Value: []byte(event.EventID)},
		{Key: "event_type", Value: []byte(event.EventType)},
		{Key: "received", Value: []byte(strconv.Itoa(event.Received))},
		{Key: "imported", Value: []byte(strconv.Itoa(event.Imported))},
		{Key: "skipped", Value: []byte(strconv.Itoa(event.Skipped))},
		{Key: "failed", Value: []byte(strconv.Itoa(event.Failed))},
	}
}

// LogNotifier is used when Kafka is disabled; it only writes a log line
type LogNotifier struct{}

// PublishImportCompleted logs the completion message
func (LogNotifier) PublishImportCompleted(ctx context.Context, result *models.ImportResult) error {
	log.Printf("%s imported=%d skipped=%d failed=%d",
		models.ImportCompletedMessage, result.Imported, result.Skipped, result.Failed)
	return nil
}
