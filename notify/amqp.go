package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue publishes login-code jobs to a durable AMQP queue consumed by the
// mail/SMS service. The message body is JSON: {"email": ..., "code": ...}.
type Queue struct {
	conn  *amqp.Connection
	chn   *amqp.Channel
	queue string
}

type codeMessage struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// NewQueue dials the broker, opens a channel, and declares the durable
// queue.
func NewQueue(url, queueName string) (*Queue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	_, err = chn.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = chn.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}

	return &Queue{
		conn:  conn,
		chn:   chn,
		queue: queueName,
	}, nil
}

// Send enqueues the code for delivery. The message is persistent; a broker
// failure surfaces to the caller as a delivery error.
func (q *Queue) Send(ctx context.Context, email, code string) error {
	body, err := json.Marshal(codeMessage{Email: email, Code: code})
	if err != nil {
		return err
	}

	return q.chn.PublishWithContext(
		ctx,
		"",      // default exchange
		q.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Close shuts down the channel and connection.
func (q *Queue) Close() error {
	if err := q.chn.Close(); err != nil {
		return err
	}
	return q.conn.Close()
}
