package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPBroker is the production Broker: one long-lived connection and
// channel against a durable topic exchange. Connection loss is not retried
// here; stage workers fail fast and rely on process supervision to restart
// and reconnect.
type AMQPBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to RabbitMQ and declares the shared topic exchange.
func Dial(url string) (*AMQPBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel open: %w", err)
	}
	if err := ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}
	return &AMQPBroker{conn: conn, ch: ch}, nil
}

func (b *AMQPBroker) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	pub := amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	}
	if err := b.ch.PublishWithContext(ctx,
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Subscribe declares an exclusive auto-deleting queue bound under
// bindingKey and consumes it on a dedicated goroutine. Handler success acks
// the delivery; handler failure (including deserialization failure inside
// the handler) nacks without requeue.
func (b *AMQPBroker) Subscribe(bindingKey string, handler Handler) error {
	q, err := b.ch.QueueDeclare(
		"",    // name: broker-generated
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := b.ch.QueueBind(q.Name, bindingKey, Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind %s: %w", bindingKey, err)
	}
	msgs, err := b.ch.Consume(
		q.Name,
		"",    // consumer tag
		false, // autoAck
		true,  // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("queue consume %s: %w", bindingKey, err)
	}

	go func() {
		for d := range msgs {
			if err := handler(context.Background(), d.Body); err != nil {
				log.Printf("queue: %s handler failed: %v", bindingKey, err)
				_ = d.Nack(false, false) // drop, never requeue
				continue
			}
			_ = d.Ack(false)
		}
		log.Printf("queue: deliveries closed for %s", bindingKey)
	}()
	return nil
}

func (b *AMQPBroker) Close() error {
	if err := b.ch.Close(); err != nil {
		_ = b.conn.Close()
		return err
	}
	return b.conn.Close()
}
