package event

import (
	"context"
	"fmt"
)

// Broker is the subset of a message broker client used to ship events.
type Broker interface {
	Publish(eventType string, body []byte) error
}

// BrokerPublisher forwards events to a Broker as JSON.
type BrokerPublisher struct {
	broker Broker
}

func NewBrokerPublisher(b Broker) *BrokerPublisher {
	return &BrokerPublisher{broker: b}
}

func (p *BrokerPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := e.Marshal()
	if err != nil {
		return err
	}
	if err := p.broker.Publish(string(e.Type), body); err != nil {
		return fmt.Errorf("failed to publish %s for product %d: %w", e.Type, e.ProductID, err)
	}
	return nil
}
