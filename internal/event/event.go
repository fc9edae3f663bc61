// Package event carries stock and catalog changes to live listeners
// (WebSocket clients, the message broker) after they have been committed.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Type string

const (
	StockMovementRecorded Type = "stock.movement.recorded"
	ProductCreated        Type = "product.created"
	ProductUpdated        Type = "product.updated"
	ProductRetired        Type = "product.retired"
)

// Event is the payload broadcast for every committed change.
type Event struct {
	Type           Type      `json:"type"`
	ProductID      uint      `json:"product_id"`
	ProductName    string    `json:"product_name,omitempty"`
	MovementID     uint      `json:"movement_id,omitempty"`
	MovementType   string    `json:"movement_type,omitempty"`
	QuantityChange int       `json:"quantity_change,omitempty"`
	StockLevel     int       `json:"stock_level"`
	LowStock       bool      `json:"low_stock"`
	Message        string    `json:"message"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Marshal encodes e as JSON.
func (e Event) Marshal() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", e.Type, err)
	}
	return body, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
