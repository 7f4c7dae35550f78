package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// maxPollTimeout caps a single long poll, mirroring the wait ceiling of
// hosted queue providers.
const maxPollTimeout = 20 * time.Second

// uploadIDHeader carries the upload id on each message. Messages without
// it are malformed and are discarded rather than redelivered forever.
const uploadIDHeader = "upload_id"

// AMQPQueue is the durable queue backend: a durable broker queue with
// persistent messages, manual acknowledgement, and at-least-once
// delivery. Unacknowledged deliveries return to the queue when the
// consumer dies, which is the redelivery path the processor's idempotency
// exists for.
type AMQPQueue struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	deliveries <-chan amqp.Delivery
	queueName  string
	logger     *slog.Logger
}

// NewAMQPQueue connects to the broker, declares the durable queue, and
// starts a manual-ack consumer with a prefetch of one.
func NewAMQPQueue(url, queueName string, logger *slog.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to broker: %v", ErrQueueOperation, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to open channel: %v", ErrQueueOperation, err)
	}

	if _, err := channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to declare queue: %v", ErrQueueOperation, err)
	}

	// One unacknowledged delivery at a time: a slow AI call must not
	// hoard messages other workers could be processing.
	if err := channel.Qos(1, 0, false); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to set prefetch: %v", ErrQueueOperation, err)
	}

	deliveries, err := channel.Consume(
		queueName,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to start consumer: %v", ErrQueueOperation, err)
	}

	logger.Info("connected to durable job queue", "queue", queueName)

	return &AMQPQueue{
		conn:       conn,
		channel:    channel,
		deliveries: deliveries,
		queueName:  queueName,
		logger:     logger.With("queue_backend", "amqp"),
	}, nil
}

// Enqueue publishes a persistent message carrying the upload id. The
// message id is a uniqueness token (upload id + random uuid + timestamp)
// so a dedup-capable broker never collapses two legitimate re-uploads of
// the same upload id into one delivery.
func (q *AMQPQueue) Enqueue(ctx context.Context, uploadID int64) error {
	now := time.Now().UTC()
	token := fmt.Sprintf("upload-%d-%s-%d", uploadID, uuid.NewString(), now.Unix())

	err := q.channel.PublishWithContext(
		ctx,
		"",          // default exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "text/plain",
			DeliveryMode: amqp.Persistent,
			MessageId:    token,
			Timestamp:    now,
			Headers:      amqp.Table{uploadIDHeader: uploadID},
			Body:         []byte(fmt.Sprintf("upload_job_%d_%d", uploadID, now.Unix())),
		},
	)
	if err != nil {
		return fmt.Errorf("%w: failed to publish upload %d: %v", ErrQueueOperation, uploadID, err)
	}

	q.logger.Info("enqueued upload job", "upload_id", uploadID, "message_id", token)
	return nil
}

// Dequeue waits up to timeout (capped at 20s) for one delivery. A
// delivery without a parseable upload id is acknowledged and skipped so
// malformed messages can never block the queue; the caller sees "no job".
func (q *AMQPQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	if timeout > maxPollTimeout {
		timeout = maxPollTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case delivery, ok := <-q.deliveries:
		if !ok {
			return nil, fmt.Errorf("%w: consumer channel closed", ErrQueueOperation)
		}

		uploadID, ok := parseUploadID(delivery.Headers)
		if !ok {
			q.logger.Warn("discarding malformed queue message",
				"message_id", delivery.MessageId)
			if err := delivery.Ack(false); err != nil {
				q.logger.Warn("failed to discard malformed message", "error", err)
			}
			return nil, nil
		}

		d := delivery
		return &Job{
			UploadID: uploadID,
			Receipt:  strconv.FormatUint(d.DeliveryTag, 10),
			ack: func(context.Context) error {
				return d.Ack(false)
			},
		}, nil

	case <-timer.C:
		return nil, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ack deletes the delivered message using its receipt. No receipt is a
// no-op; failures are logged only, since redelivery is safe.
func (q *AMQPQueue) Ack(ctx context.Context, job *Job) error {
	return settle(ctx, job, q.logger)
}

// Close shuts down the consumer channel and connection.
func (q *AMQPQueue) Close() error {
	if err := q.channel.Close(); err != nil {
		q.logger.Warn("failed to close broker channel", "error", err)
	}
	if err := q.conn.Close(); err != nil {
		return fmt.Errorf("%w: failed to close broker connection: %v", ErrQueueOperation, err)
	}
	return nil
}

// parseUploadID extracts the upload id header, tolerating the integer
// widths different publishers use.
func parseUploadID(headers amqp.Table) (int64, bool) {
	raw, exists := headers[uploadIDHeader]
	if !exists {
		return 0, false
	}

	switch v := raw.(type) {
	case int64:
		return v, v > 0
	case int32:
		return int64(v), v > 0
	case int:
		return int64(v), v > 0
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil && id > 0
	default:
		return 0, false
	}
}
