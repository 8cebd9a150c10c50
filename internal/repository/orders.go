package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dental-order-agent/internal/domain"
)

const orderPrefix = "orders"

// Orders persists order records as JSON blobs, one per order id.
type Orders struct {
	store BlobStore
}

// NewOrders creates an order repository over store.
func NewOrders(store BlobStore) (*Orders, error) {
	if store == nil {
		return nil, errors.New("repository: blob store must not be nil")
	}
	return &Orders{store: store}, nil
}

// OrderKey returns the blob key for an order.
func OrderKey(orderID string) string {
	return orderPrefix + "/" + orderID + ".json"
}

// Get loads the record for orderID. A missing record yields an error wrapping
// ErrNotFound.
func (o *Orders) Get(ctx context.Context, orderID string) (domain.OrderRecord, error) {
	raw, err := o.store.Get(ctx, OrderKey(orderID))
	if err != nil {
		return domain.OrderRecord{}, err
	}
	var rec domain.OrderRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.OrderRecord{}, fmt.Errorf("repository: decode order %q: %w", orderID, err)
	}
	return rec, nil
}

// Put overwrites the stored record for orderID. There is no version check;
// the last writer wins.
func (o *Orders) Put(ctx context.Context, orderID string, rec domain.OrderRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("repository: encode order %q: %w", orderID, err)
	}
	return o.store.Put(ctx, OrderKey(orderID), body)
}
