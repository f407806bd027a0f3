// Package worker provides background job processing for NutriWeek.
package worker

import "time"

// ReminderConfig holds configuration for the measurement reminder sweep.
type ReminderConfig struct {
	// LogAge is how stale a user's newest body log must be before a
	// reminder is due. Default: 7 days.
	LogAge time.Duration

	// NotifyCooldown is the minimum time between reminders for the same
	// user. Default: 24 hours.
	NotifyCooldown time.Duration

	// Timeout bounds one full sweep. Default: 30 seconds.
	Timeout time.Duration
}

// DefaultReminderConfig returns the default sweep configuration.
func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{
		LogAge:         7 * 24 * time.Hour,
		NotifyCooldown: 24 * time.Hour,
		Timeout:        30 * time.Second,
	}
}

// withDefaults fills zero fields with defaults.
func (c ReminderConfig) withDefaults() ReminderConfig {
	def := DefaultReminderConfig()
	if c.LogAge == 0 {
		c.LogAge = def.LogAge
	}
	if c.NotifyCooldown == 0 {
		c.NotifyCooldown = def.NotifyCooldown
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	return c
}
