// Package eventbus carries domain events from kinplan to whoever renders
// schedules: synchronously in local mode, over a RabbitMQ topic exchange
// otherwise.
package eventbus

import "context"

// Publisher sends encoded events to the bus.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}
