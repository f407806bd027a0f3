package flow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutriweek/nutriweek/internal/account"
	"github.com/nutriweek/nutriweek/internal/plan"
)

// Generator produces plan artifacts from the upstream model. Implemented
// by nutrition.Service.
type Generator interface {
	DraftShoppingList(ctx context.Context, profile plan.UserProfile, budget plan.ShoppingBudget) (plan.ShoppingListResult, error)
	GenerateWeeklyPlan(ctx context.Context, profile plan.UserProfile, ingredients []string) (plan.WeeklyPlanData, error)
	SubstituteFood(ctx context.Context, food plan.FoodItem, mealType plan.MealType, goal plan.Goal, available []string) (plan.FoodItem, error)
	SubstituteShoppingItem(ctx context.Context, item plan.ShoppingItem, budget plan.ShoppingBudget) (plan.ShoppingItem, error)
	ConsolidatedShoppingList(ctx context.Context, weekly plan.WeeklyPlanData, duration plan.ShoppingDuration, budget plan.ShoppingBudget) (plan.ShoppingListResult, error)
}

// Store persists account state. Implemented by account.Service.
type Store interface {
	Load(ctx context.Context, userID, identity string) (*plan.UserAccount, error)
	SaveState(ctx context.Context, userID string, patch account.StatePatch) error
	AppendLog(ctx context.Context, userID string, log plan.BodyMetricLog) error
	SaveSavedPlan(ctx context.Context, userID string, saved plan.SavedPlan) error
	DeleteSavedPlan(ctx context.Context, userID, planID string) error
}

// Session holds one user's flow state and serializes its mutations. At
// most one operation with side effects runs at a time; a second mutating
// dispatch while one is in flight is rejected with ErrBusy.
type Session struct {
	userID string

	mu       sync.Mutex
	state    State
	inflight bool

	gen    Generator
	store  Store
	logger zerolog.Logger
	newID  func() string
	now    func() time.Time
}

// State returns a snapshot of the current flow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch validates and folds an event through the reducer, then executes
// the resulting intents in order. Generation calls complete before any
// persistence write their result feeds; persistence failures are logged,
// not surfaced.
func (s *Session) Dispatch(ctx context.Context, e Event) (State, error) {
	e, err := s.prepare(e)
	if err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	if s.inflight {
		out := s.state
		s.mu.Unlock()
		return out, ErrBusy
	}

	next, intents := Transition(s.state, e)
	s.state = next

	if len(intents) == 0 {
		out := s.state
		s.mu.Unlock()
		return out, nil
	}

	s.inflight = true
	s.mu.Unlock()

	execErr := s.execute(ctx, intents)

	s.mu.Lock()
	s.inflight = false
	out := s.state
	s.mu.Unlock()
	return out, execErr
}

// prepare enforces input validation before any network call and assigns
// locally generated identifiers and timestamps.
func (s *Session) prepare(e Event) (Event, error) {
	switch ev := e.(type) {
	case EventProfileSubmitted:
		if errs := ev.Profile.Validate(); len(errs) > 0 {
			return nil, Validationf("%s: %s", errs[0].Field, errs[0].Message)
		}
	case EventListConfirmed:
		if len(ev.Selected) == 0 {
			return nil, Validationf("selected: at least one item must be selected")
		}
	case EventSavePlan:
		if ev.Name == "" {
			return nil, Validationf("name: plan name is required")
		}
		if ev.ID == "" {
			ev.ID = s.newID()
		}
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = s.now()
		}
		return ev, nil
	case EventLogAdded:
		if ev.Log.Weight <= 0 {
			return nil, Validationf("weight: weight must be positive")
		}
		if ev.Log.Date.IsZero() {
			ev.Log.Date = s.now()
		}
		return ev, nil
	}
	return e, nil
}

// fold applies a completion event under the session lock and returns any
// follow-up intents.
func (s *Session) fold(e Event) []Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, intents := Transition(s.state, e)
	s.state = next
	return intents
}

// execute runs intents in order. A generation result is folded back
// through the reducer before the queue continues, so persistence intents
// it produces run after it. The first generation failure is returned to
// the caller as a classified error.
func (s *Session) execute(ctx context.Context, intents []Intent) error {
	queue := append([]Intent(nil), intents...)
	var firstErr error

	for len(queue) > 0 {
		intent := queue[0]
		queue = queue[1:]

		switch in := intent.(type) {
		case IntentDraftList:
			list, err := s.gen.DraftShoppingList(ctx, in.Profile, in.Budget)
			if err != nil {
				queue = append(queue, s.fold(EventDraftFailed{Err: err})...)
				firstErr = coalesce(firstErr, Classify(err))
				continue
			}
			queue = append(queue, s.fold(EventDraftSucceeded{List: list})...)

		case IntentGeneratePlan:
			weekly, err := s.gen.GenerateWeeklyPlan(ctx, in.Profile, in.Ingredients)
			if err != nil {
				queue = append(queue, s.fold(EventGenerateFailed{Err: err})...)
				firstErr = coalesce(firstErr, Classify(err))
				continue
			}
			queue = append(queue, s.fold(EventPlanGenerated{Plan: weekly})...)

		case IntentSubstituteFood:
			food, err := s.gen.SubstituteFood(ctx, in.Food, in.MealType, in.Goal, in.InStock)
			if err != nil {
				queue = append(queue, s.fold(EventSwapFailed{Err: err})...)
				firstErr = coalesce(firstErr, Classify(err))
				continue
			}
			queue = append(queue, s.fold(EventFoodSwapped{Food: food})...)

		case IntentSubstituteItem:
			item, err := s.gen.SubstituteShoppingItem(ctx, in.Item, in.Budget)
			if err != nil {
				queue = append(queue, s.fold(EventSwapFailed{Err: err})...)
				firstErr = coalesce(firstErr, Classify(err))
				continue
			}
			queue = append(queue, s.fold(EventShoppingSwapped{Item: item})...)

		case IntentConsolidate:
			list, err := s.gen.ConsolidatedShoppingList(ctx, in.Plan, in.Duration, in.Budget)
			if err != nil {
				queue = append(queue, s.fold(EventConsolidateFailed{Err: err})...)
				firstErr = coalesce(firstErr, Classify(err))
				continue
			}
			queue = append(queue, s.fold(EventListConsolidated{List: list})...)

		case IntentPersistState:
			if err := s.store.SaveState(ctx, s.userID, in.Patch); err != nil {
				s.logger.Error().Err(err).Str("user_id", s.userID).
					Msg("persisting state patch failed")
			}

		case IntentSavePlan:
			if err := s.store.SaveSavedPlan(ctx, s.userID, in.Saved); err != nil {
				s.logger.Error().Err(err).Str("user_id", s.userID).
					Str("plan_id", in.Saved.ID).Msg("persisting saved plan failed")
			}

		case IntentDeleteSavedPlan:
			if err := s.store.DeleteSavedPlan(ctx, s.userID, in.PlanID); err != nil {
				s.logger.Error().Err(err).Str("user_id", s.userID).
					Str("plan_id", in.PlanID).Msg("deleting saved plan failed")
			}

		case IntentAppendLog:
			if err := s.store.AppendLog(ctx, s.userID, in.Log); err != nil {
				s.logger.Error().Err(err).Str("user_id", s.userID).
					Msg("appending body log failed")
			}
		}
	}

	return firstErr
}

func coalesce(current, next error) error {
	if current != nil {
		return current
	}
	return next
}

// Registry hands out one Session per user.
type Registry struct {
	gen    Generator
	store  Store
	logger zerolog.Logger
	newID  func() string
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// RegistryConfig configures a session registry.
type RegistryConfig struct {
	Generator Generator
	Store     Store
	Logger    zerolog.Logger

	// NewID and Now override identifier and timestamp generation in tests.
	NewID func() string
	Now   func() time.Time
}

// NewRegistry creates a session registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return uuid.New().String() }
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		gen:      cfg.Generator,
		store:    cfg.Store,
		logger:   cfg.Logger,
		newID:    newID,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Session returns the user's session, loading and hydrating the account on
// first access. An initial account load failure is fatal to the flow.
func (r *Registry) Session(ctx context.Context, userID, identity string) (*Session, error) {
	r.mu.Lock()
	if sess, ok := r.sessions[userID]; ok {
		r.mu.Unlock()
		return sess, nil
	}
	r.mu.Unlock()

	acct, err := r.store.Load(ctx, userID, identity)
	if err != nil {
		return nil, NewError(ClassPersistence, "loading account failed", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[userID]; ok {
		return sess, nil
	}

	sess := &Session{
		userID: userID,
		gen:    r.gen,
		store:  r.store,
		logger: r.logger.With().Str("component", "flow").Str("user_id", userID).Logger(),
		newID:  r.newID,
		now:    r.now,
	}
	sess.state, _ = Transition(State{}, EventSessionLoaded{Account: acct})
	r.sessions[userID] = sess
	return sess, nil
}

// Drop removes a user's session, typically on logout.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}
