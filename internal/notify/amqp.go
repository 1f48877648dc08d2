package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const dispatchExchange = "butcher_dispatch"

// AMQPPublisher delivers notifications over RabbitMQ.
type AMQPPublisher struct {
	conn *amqp.Connection
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("notify: dial amqp: %w", err)
	}
	return &AMQPPublisher{conn: conn}, nil
}

func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

func (p *AMQPPublisher) PublishOrderResponse(ctx context.Context, msg OrderResponse) error {
	routingKey := fmt.Sprintf("dispatch.order.%s", msg.ButcherID)
	return p.publish(ctx, routingKey, msg)
}

func (p *AMQPPublisher) PublishCatalogChanged(ctx context.Context, msg CatalogChanged) error {
	routingKey := fmt.Sprintf("dispatch.catalog.%s", msg.ButcherID)
	return p.publish(ctx, routingKey, msg)
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, payload any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("notify: open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(dispatchExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("notify: declare exchange: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx, dispatchExchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("notify: publish message: %w", err)
	}
	return nil
}
