package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nutriweek/nutriweek/internal/plan"
)

// InMemoryRepository is an in-memory implementation of all three account
// repositories. This is intended for testing. Production should use the
// Postgres implementations.
type InMemoryRepository struct {
	mu     sync.RWMutex
	states map[string]*StateRecord
	logs   map[string][]plan.BodyMetricLog
	plans  map[string][]plan.SavedPlan
}

// NewInMemoryRepository creates a new in-memory account repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		states: make(map[string]*StateRecord),
		logs:   make(map[string][]plan.BodyMetricLog),
		plans:  make(map[string][]plan.SavedPlan),
	}
}

// Get retrieves the state record.
func (r *InMemoryRepository) Get(_ context.Context, userID string) (*StateRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.states[userID]
	if !ok {
		return nil, ErrStateNotFound
	}

	cpy := *record
	return &cpy, nil
}

// CreateDefault inserts an empty state record.
func (r *InMemoryRepository) CreateDefault(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.states[userID]; !ok {
		r.states[userID] = &StateRecord{UserID: userID}
	}
	return nil
}

// Patch upserts only the provided fields.
func (r *InMemoryRepository) Patch(_ context.Context, userID string, patch StatePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.states[userID]
	if !ok {
		record = &StateRecord{UserID: userID}
		r.states[userID] = record
	}

	if patch.Profile.IsSet() {
		record.Profile = patch.Profile.Value()
	}
	if patch.Plan.IsSet() {
		record.Plan = patch.Plan.Value()
	}
	if patch.ShoppingList.IsSet() {
		record.ShoppingList = patch.ShoppingList.Value()
	}
	if patch.LastNotification.IsSet() {
		record.LastNotification = patch.LastNotification.Value()
	}
	return nil
}

// DueForReminder finds users due a measurement reminder.
func (r *InMemoryRepository) DueForReminder(_ context.Context, logBefore, notifiedBefore time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []string
	for userID, record := range r.states {
		if record.LastNotification != nil && !record.LastNotification.Before(notifiedBefore) {
			continue
		}
		recent := false
		for _, log := range r.logs[userID] {
			if !log.Date.Before(logBefore) {
				recent = true
				break
			}
		}
		if !recent {
			due = append(due, userID)
		}
	}
	sort.Strings(due)
	return due, nil
}

// ListByUser returns logs ordered by date ascending.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string) ([]plan.BodyMetricLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := make([]plan.BodyMetricLog, len(r.logs[userID]))
	copy(logs, r.logs[userID])
	sort.Slice(logs, func(i, j int) bool { return logs[i].Date.Before(logs[j].Date) })
	return logs, nil
}

// Append inserts one log entry.
func (r *InMemoryRepository) Append(_ context.Context, userID string, log plan.BodyMetricLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs[userID] = append(r.logs[userID], log)
	return nil
}

// ListPlansByUser returns saved plans ordered by creation descending.
func (r *InMemoryRepository) ListPlansByUser(_ context.Context, userID string) ([]plan.SavedPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plans := make([]plan.SavedPlan, 0, len(r.plans[userID]))
	for _, p := range r.plans[userID] {
		plans = append(plans, p.Clone())
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].CreatedAt.After(plans[j].CreatedAt) })
	return plans, nil
}

// CreatePlan inserts a snapshot.
func (r *InMemoryRepository) CreatePlan(_ context.Context, userID string, saved plan.SavedPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.plans[userID] = append(r.plans[userID], saved.Clone())
	return nil
}

// DeletePlan removes a snapshot scoped to the owning user.
func (r *InMemoryRepository) DeletePlan(_ context.Context, userID, planID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	plans := r.plans[userID]
	for i, p := range plans {
		if p.ID == planID {
			r.plans[userID] = append(plans[:i], plans[i+1:]...)
			return nil
		}
	}
	return ErrSavedPlanNotFound
}

// savedPlanAdapter exposes the in-memory repository through the
// SavedPlanRepository interface (its method names collide with
// LogRepository's ListByUser otherwise).
type savedPlanAdapter struct {
	repo *InMemoryRepository
}

func (a savedPlanAdapter) ListByUser(ctx context.Context, userID string) ([]plan.SavedPlan, error) {
	return a.repo.ListPlansByUser(ctx, userID)
}

func (a savedPlanAdapter) Create(ctx context.Context, userID string, saved plan.SavedPlan) error {
	return a.repo.CreatePlan(ctx, userID, saved)
}

func (a savedPlanAdapter) Delete(ctx context.Context, userID, planID string) error {
	return a.repo.DeletePlan(ctx, userID, planID)
}

// SavedPlans returns the repository viewed as a SavedPlanRepository.
func (r *InMemoryRepository) SavedPlans() SavedPlanRepository {
	return savedPlanAdapter{repo: r}
}

// Interface checks.
var (
	_ StateRepository     = (*InMemoryRepository)(nil)
	_ LogRepository       = (*InMemoryRepository)(nil)
	_ SavedPlanRepository = savedPlanAdapter{}
)
