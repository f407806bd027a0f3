package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nutriweek/nutriweek/internal/plan"
)

// Service is the persistence facade used by the orchestrator. Most write
// failures are non-fatal to the calling flow; the caller decides what, if
// anything, to surface.
type Service struct {
	states StateRepository
	logs   LogRepository
	plans  SavedPlanRepository
	logger zerolog.Logger
}

// ServiceConfig holds the facade's dependencies.
type ServiceConfig struct {
	States StateRepository
	Logs   LogRepository
	Plans  SavedPlanRepository
	Logger zerolog.Logger
}

// NewService creates the account facade.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		states: cfg.States,
		logs:   cfg.Logs,
		plans:  cfg.Plans,
		logger: cfg.Logger,
	}
}

// Load reconstructs the full account aggregate from three independent
// reads. A missing state record is self-healed by inserting a default; if
// even that fails the account still loads with an empty current triple,
// because state is reconstructible and login must not be blocked on it.
func (s *Service) Load(ctx context.Context, userID, identity string) (*plan.UserAccount, error) {
	state, err := s.states.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			return nil, fmt.Errorf("loading user state: %w", err)
		}
		s.logger.Warn().Str("user_id", userID).Msg("user state missing, creating default")
		if createErr := s.states.CreateDefault(ctx, userID); createErr != nil {
			s.logger.Error().Err(createErr).Str("user_id", userID).Msg("failed to self-heal user state")
		}
		state = &StateRecord{UserID: userID}
	}

	logs, err := s.logs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading body logs: %w", err)
	}

	savedPlans, err := s.plans.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading saved plans: %w", err)
	}

	return &plan.UserAccount{
		ID:                  userID,
		Identity:            identity,
		Logs:                logs,
		CurrentProfile:      state.Profile,
		CurrentPlan:         state.Plan,
		CurrentShoppingList: state.ShoppingList,
		SavedPlans:          savedPlans,
		LastNotification:    state.LastNotification,
	}, nil
}

// SaveState applies a partial update to the current triple. Only fields
// the patch carries are written.
func (s *Service) SaveState(ctx context.Context, userID string, patch StatePatch) error {
	if err := s.states.Patch(ctx, userID, patch); err != nil {
		return fmt.Errorf("saving user state: %w", err)
	}
	return nil
}

// AppendLog inserts one body metric entry. Never updates or dedups.
func (s *Service) AppendLog(ctx context.Context, userID string, log plan.BodyMetricLog) error {
	if err := s.logs.Append(ctx, userID, log); err != nil {
		return fmt.Errorf("appending body log: %w", err)
	}
	return nil
}

// SaveSavedPlan inserts a snapshot keyed by its pre-generated id.
func (s *Service) SaveSavedPlan(ctx context.Context, userID string, saved plan.SavedPlan) error {
	if err := s.plans.Create(ctx, userID, saved); err != nil {
		return fmt.Errorf("saving plan snapshot: %w", err)
	}
	return nil
}

// DeleteSavedPlan removes a snapshot. Deleting an already-deleted plan is
// a success from the caller's perspective.
func (s *Service) DeleteSavedPlan(ctx context.Context, userID, planID string) error {
	err := s.plans.Delete(ctx, userID, planID)
	if err != nil && !errors.Is(err, ErrSavedPlanNotFound) {
		return fmt.Errorf("deleting plan snapshot: %w", err)
	}
	return nil
}
