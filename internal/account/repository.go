// Package account is the persistence facade: it maps orchestrator intents
// to account-store operations and reconstructs the UserAccount aggregate.
package account

import (
	"context"
	"errors"
	"time"

	"github.com/nutriweek/nutriweek/internal/plan"
)

// Repository errors.
var (
	ErrStateNotFound     = errors.New("user state not found")
	ErrSavedPlanNotFound = errors.New("saved plan not found")
)

// StateRecord is the single per-user state row: the account's current
// triple plus the last reminder notification stamp.
type StateRecord struct {
	UserID           string
	Profile          *plan.UserProfile
	Plan             *plan.WeeklyPlanData
	ShoppingList     *plan.ShoppingListResult
	LastNotification *time.Time
}

// StatePatch is a partial update of the state record. Only set fields are
// written; see Field for the omitted / cleared / replaced distinction.
type StatePatch struct {
	Profile          Field[plan.UserProfile]
	Plan             Field[plan.WeeklyPlanData]
	ShoppingList     Field[plan.ShoppingListResult]
	LastNotification Field[time.Time]
}

// Empty reports whether the patch writes nothing.
func (p StatePatch) Empty() bool {
	return !p.Profile.IsSet() && !p.Plan.IsSet() &&
		!p.ShoppingList.IsSet() && !p.LastNotification.IsSet()
}

// StateRepository persists the per-user state record.
type StateRepository interface {
	// Get retrieves the state record, or ErrStateNotFound.
	Get(ctx context.Context, userID string) (*StateRecord, error)

	// CreateDefault inserts an empty state record for the user.
	CreateDefault(ctx context.Context, userID string) error

	// Patch upserts the provided fields, leaving unset fields untouched.
	Patch(ctx context.Context, userID string, patch StatePatch) error

	// DueForReminder returns ids of users whose newest body log is older
	// than logBefore and whose last notification is absent or older than
	// notifiedBefore.
	DueForReminder(ctx context.Context, logBefore, notifiedBefore time.Time) ([]string, error)
}

// LogRepository persists body metric logs. Insert-only, never updated.
type LogRepository interface {
	// ListByUser returns all logs ordered by date ascending.
	ListByUser(ctx context.Context, userID string) ([]plan.BodyMetricLog, error)

	// Append inserts one log entry.
	Append(ctx context.Context, userID string, log plan.BodyMetricLog) error
}

// SavedPlanRepository persists saved plan snapshots.
type SavedPlanRepository interface {
	// ListByUser returns all saved plans ordered by creation descending.
	ListByUser(ctx context.Context, userID string) ([]plan.SavedPlan, error)

	// Create inserts a snapshot keyed by its pre-generated id.
	Create(ctx context.Context, userID string, saved plan.SavedPlan) error

	// Delete removes a snapshot by id, scoped to the owning user.
	// Returns ErrSavedPlanNotFound when nothing matched.
	Delete(ctx context.Context, userID, planID string) error
}
