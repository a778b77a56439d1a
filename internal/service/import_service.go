package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"order-import-service/internal/models"
	"order-import-service/internal/store"
	"order-import-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultImportQuantity is used for partner products that carry no quantity
const DefaultImportQuantity = 1

var (
	errMissingOrderNumber = errors.New("payload has no order number")
	errLookupFailed       = errors.New("failed to check order number")
)

// ImportStore is the part of the order store the import needs
type ImportStore interface {
	ExistsOrderByNumber(ctx context.Context, orderNumber string) (bool, error)
	WithinTx(ctx context.Context, fn func(w store.Writer) error) error
}

// OrderSource returns the partner's current order payloads
type OrderSource interface {
	FetchOrders(ctx context.Context) ([]models.ExternalOrderPayload, error)
}

// ImportNotifier announces a finished import
type ImportNotifier interface {
	PublishImportCompleted(ctx context.Context, result *models.ImportResult) error
}

type importOutcome int

const (
	outcomeImported importOutcome = iota
	outcomeSkipped
	outcomeFailed
)

// ImportService turns partner order payloads into stored orders
type ImportService struct {
	store           ImportStore
	source          OrderSource
	notifier        ImportNotifier
	defaultQuantity int
	logger          *zap.Logger
}

// NewImportService creates a new import service.
// notifier may be nil; defaultQuantity below 1 falls back to DefaultImportQuantity.
func NewImportService(
	store ImportStore,
	source OrderSource,
	notifier ImportNotifier,
	defaultQuantity int,
) *ImportService {
	if defaultQuantity < 1 {
		defaultQuantity = DefaultImportQuantity
	}
	return &ImportService{
		store:           store,
		source:          source,
		notifier:        notifier,
		defaultQuantity: defaultQuantity,
		logger:          util.GetLogger(),
	}
}

// ImportFromSource fetches the partner orders and imports them.
// An unreachable source or an empty response imports nothing and is not an error.
func (s *ImportService) ImportFromSource(ctx context.Context) *models.ImportResult {
	ctx, span := util.StartSpan(ctx, "ImportService.ImportFromSource")
	defer span.End()

	payloads, err := s.source.FetchOrders(ctx)
	if err != nil {
		s.logger.Warn("External order source unavailable, nothing to import", zap.Error(err))
		return &models.ImportResult{}
	}

	if len(payloads) == 0 {
		s.logger.Info("External order source returned no orders")
		return &models.ImportResult{}
	}

	return s.ImportBatch(ctx, payloads)
}

// ImportBatch imports payloads one by one in input order. Each payload is
// stored in its own transaction; a failing payload never undoes earlier ones.
func (s *ImportService) ImportBatch(ctx context.Context, payloads []models.ExternalOrderPayload) *models.ImportResult {
	ctx, span := util.StartSpan(ctx, "ImportService.ImportBatch",
		attribute.Int("import.received", len(payloads)))
	defer span.End()

	start := time.Now()
	result := &models.ImportResult{Received: len(payloads)}

	for i := range payloads {
		outcome, err := s.importOne(ctx, &payloads[i])

		switch outcome {
		case outcomeImported:
			result.Imported++
			util.OrdersImportedTotal.Inc()
		case outcomeSkipped:
			result.Skipped++
			util.OrdersImportSkippedTotal.Inc()
		case outcomeFailed:
			result.Failed++
			util.OrdersImportFailedTotal.WithLabelValues(failureReason(err)).Inc()
			s.logger.Error("Failed to import order",
				zap.String("order_number", payloads[i].OrderNumber),
				zap.Error(err))
		}
	}

	result.Finish(start)
	util.ImportBatchDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("import.imported", result.Imported),
		attribute.Int("import.skipped", result.Skipped),
		attribute.Int("import.failed", result.Failed),
	)

	s.logger.Info("Import batch finished",
		zap.Int("received", result.Received),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int64("duration_ms", result.DurationMs))

	if result.Imported > 0 && s.notifier != nil {
		if err := s.notifier.PublishImportCompleted(ctx, result); err != nil {
			s.logger.Error("Failed to publish import completion", zap.Error(err))
		}
	}

	return result
}

func (s *ImportService) importOne(ctx context.Context, payload *models.ExternalOrderPayload) (importOutcome, error) {
	if strings.TrimSpace(payload.OrderNumber) == "" {
		return outcomeFailed, errMissingOrderNumber
	}

	exists, err := s.store.ExistsOrderByNumber(ctx, payload.OrderNumber)
	if err != nil {
		return outcomeFailed, fmt.Errorf("%w: %w", errLookupFailed, err)
	}
	if exists {
		s.logger.Debug("Order already imported", zap.String("order_number", payload.OrderNumber))
		return outcomeSkipped, nil
	}

	order := mapExternalOrder(payload)
	lines := make([]pendingLine, len(payload.Products))
	for i, p := range payload.Products {
		lines[i] = pendingLine{
			product:  models.Product{Name: p.Name, Price: p.Price},
			quantity: s.quantityFor(p),
		}
	}

	err = s.store.WithinTx(ctx, func(w store.Writer) error {
		return persistOrderGraph(ctx, w, order, lines)
	})
	if errors.Is(err, store.ErrDuplicateOrderNumber) {
		// another import stored the same number between the check and the insert
		s.logger.Debug("Order imported concurrently", zap.String("order_number", payload.OrderNumber))
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeFailed, err
	}

	if payload.Total.Valid && !payload.Total.Decimal.Equal(order.Total) {
		s.logger.Debug("Partner total differs from computed total",
			zap.String("order_number", order.OrderNumber),
			zap.String("partner_total", payload.Total.Decimal.String()),
			zap.String("computed_total", order.Total.String()))
	}

	return outcomeImported, nil
}

// mapExternalOrder copies the header fields only. The partner's total is
// never trusted; it is recomputed from the line items.
func mapExternalOrder(payload *models.ExternalOrderPayload) *models.Order {
	return models.NewOrder(payload.OrderNumber, payload.DiscountPercentage)
}

func (s *ImportService) quantityFor(p models.ExternalProductPayload) int {
	if p.Quantity > 0 {
		return p.Quantity
	}
	return s.defaultQuantity
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, errMissingOrderNumber):
		return "invalid_payload"
	case errors.Is(err, errLookupFailed):
		return "lookup_error"
	default:
		return "db_error"
	}
}
