package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

var _ Queue = (*AMQPQueue)(nil)

// AMQPQueue publishes to and consumes from durable RabbitMQ queues named
// after the topic. Payloads travel as JSON.
type AMQPQueue struct {
	conn *amqp.Connection
	mu   sync.Mutex
	pub  *amqp.Channel
	log  zerolog.Logger
}

func DialAMQP(url string, log zerolog.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open publish channel: %w", err)
	}
	return &AMQPQueue{conn: conn, pub: ch, log: log}, nil
}

func declare(ch *amqp.Channel, topic string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := declare(q.pub, topic); err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	return q.pub.Publish(
		"",
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Body:         body,
		},
	)
}

// Subscribe consumes topic on its own channel. The handler receives the raw
// JSON body. A failed delivery is requeued once, then dropped.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	if _, err := declare(ch, topic); err != nil {
		ch.Close()
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		defer ch.Close()
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				q.log.Warn().Err(err).Str("topic", topic).Bool("redelivered", d.Redelivered).Msg("delivery failed")
				d.Nack(false, !d.Redelivered)
				continue
			}
			d.Ack(false)
		}
		q.log.Info().Str("topic", topic).Msg("consumer stopped")
	}()
	return nil
}

// NotifyClose reports connection loss.
func (q *AMQPQueue) NotifyClose() <-chan *amqp.Error {
	return q.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	q.pub.Close()
	q.mu.Unlock()
	return q.conn.Close()
}
