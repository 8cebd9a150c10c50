package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dental-order-agent/internal/domain"
	"dental-order-agent/internal/orderpayload"
	"dental-order-agent/internal/repository"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	// Naive local-time ISO-8601, the form the web app already stores. The
	// fraction is omitted when the microsecond is zero.
	orderTimestampLayout      = "2006-01-02T15:04:05.000000"
	orderTimestampLayoutWhole = "2006-01-02T15:04:05"
)

// OrderStore loads and saves order records. Get must return an error wrapping
// repository.ErrNotFound when no record exists.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (domain.OrderRecord, error)
	Put(ctx context.Context, orderID string, rec domain.OrderRecord) error
}

// OrderResult is the outcome of an order update, returned to the agent as the
// action response body.
type OrderResult struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	OrderID string              `json:"order_id,omitempty"`
	Data    *domain.OrderRecord `json:"data,omitempty"`
}

type OrderService struct {
	store OrderStore
	now   func() time.Time
}

func NewOrderService(store OrderStore) (*OrderService, error) {
	if store == nil {
		return nil, errors.New("usecase: order store must not be nil")
	}
	return &OrderService{store: store, now: time.Now}, nil
}

// RecordOrderDetails merges the attributes parsed from orderData over the
// stored record for orderID and writes it back. The six order attributes are
// always overwritten, blank when the payload lacks them; order_id and
// timestamp of an existing record are kept. Failures are reported in the
// result, never as a Go error.
func (s *OrderService) RecordOrderDetails(ctx context.Context, orderID string, orderData any) OrderResult {
	rec, err := s.loadOrNew(ctx, orderID)
	if err != nil {
		return orderFailure(err)
	}

	parsed := orderpayload.Parse(orderData)
	for _, field := range domain.OrderAttributeFields {
		rec.SetAttribute(field, parsed[field])
	}

	if err := s.store.Put(ctx, orderID, rec); err != nil {
		return orderFailure(newError(ErrorInternal, "order_write_error", err))
	}

	slog.InfoContext(ctx, "order details recorded", "order_id", orderID, "fields", len(parsed))
	return OrderResult{
		Status:  statusSuccess,
		Message: "Order details updated successfully",
		OrderID: orderID,
		Data:    &rec,
	}
}

func (s *OrderService) loadOrNew(ctx context.Context, orderID string) (domain.OrderRecord, error) {
	rec, err := s.store.Get(ctx, orderID)
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		slog.InfoContext(ctx, "creating new order", "order_id", orderID)
		return domain.OrderRecord{
			OrderID:   orderID,
			Timestamp: formatOrderTimestamp(s.now()),
		}, nil
	}
	return domain.OrderRecord{}, newError(ErrorInternal, "order_read_error", err)
}

func formatOrderTimestamp(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(orderTimestampLayoutWhole)
	}
	return t.Format(orderTimestampLayout)
}

func orderFailure(err error) OrderResult {
	slog.Error("order update failed", "err", err)
	return OrderResult{
		Status:  statusError,
		Message: fmt.Sprintf("Error updating order details: %v", errors.Unwrap(err)),
	}
}
