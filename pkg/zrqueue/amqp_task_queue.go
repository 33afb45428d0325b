package zrqueue

import (
	"context"
	"encoding/json"

	"github.com/apex/log"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AmqpTaskQueue is the RabbitMQ-backed TaskQueue. The queue is declared
// durable and tasks are published with persistent delivery, so unfinished
// work survives a broker or worker restart. Consumers run with prefetch 1
// so each worker holds at most one unacknowledged task at a time.
type AmqpTaskQueue struct {
	queueName string
	conn      *amqp.Connection
	channel   *amqp.Channel
}

// DialAmqpTaskQueue connects to the broker at amqpURL and idempotently
// declares the named durable queue.
func DialAmqpTaskQueue(amqpURL, queueName string) (*AmqpTaskQueue, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to connect to broker at %s", amqpURL)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "unable to open channel")
	}

	if _, err := channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "unable to declare queue %s", queueName)
	}

	return &AmqpTaskQueue{queueName: queueName, conn: conn, channel: channel}, nil
}

func (q *AmqpTaskQueue) PublishUploadTask(ctx context.Context, task *UploadTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}

	err = q.channel.PublishWithContext(ctx, "", q.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return errors.Wrapf(err, "unable to publish to queue %s", q.queueName)
	}

	return nil
}

func (q *AmqpTaskQueue) ConsumeUploadTasks(ctx context.Context, handler TaskHandlerFN) error {
	// Fair dispatch: hold one unacknowledged task per consumer.
	if err := q.channel.Qos(1, 0, false); err != nil {
		return errors.Wrap(err, "unable to set prefetch")
	}

	deliveries, err := q.channel.Consume(q.queueName, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "unable to consume from queue %s", q.queueName)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case delivery, ok := <-deliveries:
			if !ok {
				return errors.Errorf("delivery channel for queue %s closed", q.queueName)
			}

			var task UploadTask
			if err := json.Unmarshal(delivery.Body, &task); err != nil {
				// A task that can't be parsed will never become parseable;
				// acknowledge it so it doesn't loop forever.
				log.Errorf("Dropping unparseable task: %s", err)
				_ = delivery.Ack(false)
				continue
			}

			if err := handler(&task); err != nil {
				log.Errorf("Handler failed for transfer %d: %s", task.TransferID, err)
			}

			// Acknowledge after processing regardless of outcome. Failed
			// uploads are recorded in the transfer record, not retried here.
			if err := delivery.Ack(false); err != nil {
				log.Errorf("Unable to ack task for transfer %d: %s", task.TransferID, err)
			}
		}
	}
}

func (q *AmqpTaskQueue) Close() error {
	if err := q.channel.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
