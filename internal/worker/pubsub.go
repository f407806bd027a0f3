package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	reminderJob      *ReminderJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	ReminderJob      *ReminderJob
	Logger           zerolog.Logger
}

// JobMessage represents a worker job trigger message.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		reminderJob:      cfg.ReminderJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var jobMsg JobMessage
	if err := json.Unmarshal(msg.Data, &jobMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch jobMsg.JobType {
	case "measurement_reminder":
		err = h.handleReminderSweep(ctx)
	default:
		logger.Warn().Str("job_type", jobMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", jobMsg.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleReminderSweep(ctx context.Context) error {
	result, err := h.reminderJob.Run(ctx)
	if err != nil {
		return fmt.Errorf("reminder sweep: %w", err)
	}

	// A partial sweep is still progress; fail the message only when
	// nothing got through so redelivery can retry the batch.
	if result.Failed > 0 && result.Published == 0 {
		return fmt.Errorf("all %d reminder publishes failed", result.Failed)
	}

	return nil
}

// ReminderEvent is the payload published per due user.
type ReminderEvent struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	DueAt  time.Time `json:"due_at"`
}

// PubSubReminderPublisher publishes reminder events to a notifications
// topic.
type PubSubReminderPublisher struct {
	publisher *pubsub.Publisher
}

// NewPubSubReminderPublisher creates a publisher on the given topic.
func NewPubSubReminderPublisher(client *pubsub.Client, topic string) *PubSubReminderPublisher {
	return &PubSubReminderPublisher{publisher: client.Publisher(topic)}
}

// PublishReminder publishes one measurement reminder event and waits for
// the server ack.
func (p *PubSubReminderPublisher) PublishReminder(ctx context.Context, userID string, dueAt time.Time) error {
	data, err := json.Marshal(ReminderEvent{
		Type:   "measurement_reminder",
		UserID: userID,
		DueAt:  dueAt,
	})
	if err != nil {
		return fmt.Errorf("encoding reminder event: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing reminder event: %w", err)
	}
	return nil
}

// Stop flushes and stops the underlying publisher.
func (p *PubSubReminderPublisher) Stop() {
	p.publisher.Stop()
}
