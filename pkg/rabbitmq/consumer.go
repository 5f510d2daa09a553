/**
 * @description
 * Reusable RabbitMQ consumer. It declares the topic exchange, a durable queue,
 * and one binding per routing key, then dispatches deliveries sequentially to
 * the registered handlers.
 *
 * Handlers return an error instead of a bare ack boolean. The consumer acts as
 * the supervisor: it inspects the error classification and decides whether the
 * message is acknowledged or redelivered.
 *
 *   - nil: processed (or idempotent no-op), acknowledge.
 *   - error marked Terminal(): dead-end the message, log, acknowledge. Used for
 *     malformed payloads, ordering anomalies already parked, and non-retryable
 *     processor failures. Prevents poison-message loops.
 *   - any other error: treated as transient (broker will redeliver), nack+requeue.
 *
 * @notes
 * - Prefetch is 1 and dispatch is strictly sequential per queue, which is what
 *   gives per-entity ordering for events keyed onto the same queue.
 * - Shutdown cancels the broker subscription, lets the in-flight handler finish
 *   and settle its delivery, then closes the channel and connection.
 */
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes one message body. The context carries a per-message
// deadline; the returned error drives the ack/requeue decision.
type HandlerFunc func(ctx context.Context, body []byte) error

// TerminalError marks errors that must not trigger redelivery.
type TerminalError interface {
	Terminal() bool
}

// IsTerminal reports whether err is classified as non-retryable.
func IsTerminal(err error) bool {
	var te TerminalError
	return errors.As(err, &te) && te.Terminal()
}

const handlerTimeout = 30 * time.Second

// Consumer holds the connection and channel for RabbitMQ.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	mu   sync.Mutex
	tags []string
	wg   sync.WaitGroup
}

// NewConsumer creates a consumer with a prefetch of one unacknowledged message,
// so a slow handler backpressures its queue instead of buffering deliveries.
func NewConsumer(amqpURL string) (*Consumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{conn: conn, ch: ch}, nil
}

// ConsumeWithBindings declares the exchange and queue, binds every routing key
// in the map, and starts a dispatch loop in a goroutine. Messages with a routing
// key that has no registered handler are acknowledged and dropped.
func (c *Consumer) ConsumeWithBindings(ctx context.Context, exchange, queueName string, bindings map[string]HandlerFunc) error {
	if len(bindings) == 0 {
		return errors.New("no bindings registered")
	}

	if err := c.ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	q, err := c.ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	for routingKey := range bindings {
		if err := c.ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
			return err
		}
	}

	tag := fmt.Sprintf("%s-consumer", queueName)
	msgs, err := c.ch.Consume(
		q.Name,
		tag,
		false, // auto-ack off, the supervisor settles deliveries
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.tags = append(c.tags, tag)
	c.mu.Unlock()

	// Cancel the subscription when the context ends. The deliveries channel
	// closes after the broker confirms, which terminates the dispatch loop
	// once the in-flight message is settled.
	go func() {
		<-ctx.Done()
		if err := c.ch.Cancel(tag, false); err != nil {
			log.Printf("level=warn component=rabbitmq msg=\"consumer cancel failed\" tag=%s err=%v", tag, err)
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for d := range msgs {
			c.dispatch(d, queueName, bindings)
		}
		log.Printf("level=info component=rabbitmq msg=\"consumer stopped\" queue=%s", queueName)
	}()

	return nil
}

func (c *Consumer) dispatch(d amqp.Delivery, queueName string, bindings map[string]HandlerFunc) {
	handler, ok := bindings[d.RoutingKey]
	if !ok {
		log.Printf("level=warn component=rabbitmq msg=\"no handler for routing key\" queue=%s routing_key=%s", queueName, d.RoutingKey)
		d.Ack(false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	err := handler(ctx, d.Body)
	cancel()

	switch {
	case err == nil:
		d.Ack(false)
	case IsTerminal(err):
		log.Printf("level=error component=rabbitmq msg=\"dead-ending message\" queue=%s routing_key=%s err=%v", queueName, d.RoutingKey, err)
		d.Ack(false)
	default:
		log.Printf("level=warn component=rabbitmq msg=\"transient failure; requeueing\" queue=%s routing_key=%s err=%v", queueName, d.RoutingKey, err)
		d.Nack(false, true)
	}
}

// Close cancels all subscriptions, waits for in-flight messages to be settled,
// and releases the channel and connection.
func (c *Consumer) Close() {
	c.mu.Lock()
	tags := append([]string(nil), c.tags...)
	c.mu.Unlock()

	for _, tag := range tags {
		_ = c.ch.Cancel(tag, false)
	}
	c.wg.Wait()

	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
