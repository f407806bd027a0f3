package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutriweek/nutriweek/internal/account"
	"github.com/nutriweek/nutriweek/internal/featureflags"
)

// ReminderStore is the slice of the account state repository the sweep
// needs. Satisfied by account.StateRepository.
type ReminderStore interface {
	DueForReminder(ctx context.Context, logBefore, notifiedBefore time.Time) ([]string, error)
	Patch(ctx context.Context, userID string, patch account.StatePatch) error
}

// ReminderPublisher delivers one reminder event per due user.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, userID string, dueAt time.Time) error
}

// ReminderJob finds users whose body measurements have gone stale and
// publishes a reminder event for each, stamping last_notification so the
// same user is not reminded again before the cooldown expires.
type ReminderJob struct {
	config    ReminderConfig
	store     ReminderStore
	publisher ReminderPublisher
	flags     *featureflags.Service
	logger    zerolog.Logger
	now       func() time.Time
}

// ReminderJobConfig holds configuration for creating a ReminderJob.
type ReminderJobConfig struct {
	Config    ReminderConfig
	Store     ReminderStore
	Publisher ReminderPublisher

	// Flags may be nil; the sweep then always runs.
	Flags  *featureflags.Service
	Logger zerolog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewReminderJob creates a new reminder sweep processor.
func NewReminderJob(cfg ReminderJobConfig) *ReminderJob {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ReminderJob{
		config:    cfg.Config.withDefaults(),
		store:     cfg.Store,
		publisher: cfg.Publisher,
		flags:     cfg.Flags,
		logger:    cfg.Logger,
		now:       now,
	}
}

// ReminderResult contains the result of one sweep.
type ReminderResult struct {
	StartTime time.Time
	Duration  time.Duration
	Skipped   bool
	Due       int
	Published int
	Failed    int
}

// Run executes one sweep. Publish failures for individual users are
// counted but do not stop the sweep; the user's last_notification is only
// stamped after a successful publish.
func (j *ReminderJob) Run(ctx context.Context) (*ReminderResult, error) {
	start := j.now()
	result := &ReminderResult{StartTime: start}

	if j.flags != nil && !j.flags.MeasurementRemindersEnabled(ctx) {
		j.logger.Info().Msg("measurement reminders disabled, skipping sweep")
		result.Skipped = true
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	logBefore := start.Add(-j.config.LogAge)
	notifiedBefore := start.Add(-j.config.NotifyCooldown)

	userIDs, err := j.store.DueForReminder(ctx, logBefore, notifiedBefore)
	if err != nil {
		return result, err
	}
	result.Due = len(userIDs)

	for _, userID := range userIDs {
		if err := j.publisher.PublishReminder(ctx, userID, logBefore); err != nil {
			j.logger.Error().Err(err).Str("user_id", userID).Msg("publishing reminder failed")
			result.Failed++
			continue
		}

		patch := account.StatePatch{LastNotification: account.Set(start)}
		if err := j.store.Patch(ctx, userID, patch); err != nil {
			// The reminder went out; the stamp failing only risks an
			// extra reminder next sweep.
			j.logger.Warn().Err(err).Str("user_id", userID).Msg("stamping last notification failed")
		}
		result.Published++
	}

	result.Duration = j.now().Sub(start)
	j.logger.Info().
		Int("due", result.Due).
		Int("published", result.Published).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("reminder sweep completed")

	return result, nil
}
