package broker

import (
	"context"
	"errors"
	"testing"

	"order-import-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishImportCompleted(t *testing.T) {
	writer := &fakeWriter{}
	publisher := NewImportPublisher(&Producer{writer: writer, topic: "pedidos-importados"})

	err := publisher.PublishImportCompleted(context.Background(), &models.ImportResult{
		Received: 3, Imported: 2, Skipped: 1,
	})
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, models.ImportCompletedMessage, string(msg.Value))
	assert.Equal(t, models.EventTypeOrdersImported, headerValue(msg, "event_type"))
	assert.Equal(t, "2", headerValue(msg, "imported"))
	assert.Equal(t, "1", headerValue(msg, "skipped"))
	assert.Equal(t, "import-"+headerValue(msg, "event_id"), string(msg.Key))
}

func TestPublishText_WriteError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	producer := &Producer{writer: writer, topic: "pedidos-importados"}

	err := producer.PublishText(context.Background(), "k", "v")
	assert.Error(t, err)

	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.PublishImportCompleted(context.Background(), &models.ImportResult{}))
}
