// internal/queue/queue.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// RunQueueName is the durable queue carrying campaign run requests from the
// API server to the dispatch worker.
const RunQueueName = "campaign_runs"

const maxDeliveries = 3

// RunJob asks the worker to drive one campaign. Resume is set when a job is
// requeued after a partial run so the worker picks the right entry point.
type RunJob struct {
	CampaignID string `json:"campaign_id"`
	Resume     bool   `json:"resume,omitempty"`
}

type RunPublisher interface {
	PublishRun(ctx context.Context, job RunJob) error
}

// RabbitMQ wraps one connection/channel pair with the run queue declared.
type RabbitMQ struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *logrus.Entry
}

func Dial(url string, logger *logrus.Logger) (*RabbitMQ, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		RunQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &RabbitMQ{conn: conn, ch: ch, log: logger.WithField("component", "queue")}, nil
}

func (r *RabbitMQ) Close() {
	r.ch.Close()
	r.conn.Close()
}

func (r *RabbitMQ) PublishRun(_ context.Context, job RunJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return r.ch.Publish(
		"",
		RunQueueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// ConsumeRuns delivers jobs to handler one at a time. A handler error
// requeues the job as a resume up to maxDeliveries attempts; after that the
// job is dropped and the campaign stays wherever the run left it for an
// operator to resume by hand.
func (r *RabbitMQ) ConsumeRuns(ctx context.Context, handler func(ctx context.Context, job RunJob) error) error {
	if err := r.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := r.ch.Consume(
		RunQueueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			r.handleDelivery(ctx, d, handler)
		}
	}
}

func (r *RabbitMQ) handleDelivery(ctx context.Context, d amqp.Delivery, handler func(ctx context.Context, job RunJob) error) {
	var job RunJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		r.log.WithError(err).Warn("drop malformed run job")
		d.Ack(false)
		return
	}

	if err := handler(ctx, job); err != nil {
		attempts := deliveryCount(d) + 1
		if attempts >= maxDeliveries {
			r.log.WithFields(logrus.Fields{"campaign_id": job.CampaignID, "attempts": attempts}).
				WithError(err).Error("run job dropped after repeated failures")
			d.Ack(false)
			return
		}
		r.log.WithFields(logrus.Fields{"campaign_id": job.CampaignID, "attempts": attempts}).
			WithError(err).Warn("run job failed, requeueing as resume")
		r.requeueAsResume(job, attempts)
		d.Ack(false)
		return
	}

	d.Ack(false)
}

// requeueAsResume republishes the job with Resume set instead of nacking:
// after a partial run the campaign is no longer in draft, so a plain Run
// would be rejected with InvalidState.
func (r *RabbitMQ) requeueAsResume(job RunJob, attempts int) {
	job.Resume = true
	body, err := json.Marshal(job)
	if err != nil {
		r.log.WithError(err).Error("requeue encode failed")
		return
	}
	err = r.ch.Publish("", RunQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"x-delivery-count": int32(attempts)},
		Body:         body,
	})
	if err != nil {
		r.log.WithError(err).Error("requeue publish failed")
	}
}

func deliveryCount(d amqp.Delivery) int {
	v, ok := d.Headers["x-delivery-count"]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

var _ RunPublisher = (*RabbitMQ)(nil)
