// Package nutrition is the gateway to the generative model. It turns
// profiles and plans into structured prompts, retries transient upstream
// failures, validates returned documents, and post-processes results so the
// rest of the system never sees untrusted model output.
package nutrition

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutriweek/nutriweek/internal/plan"
)

// Generator produces a JSON document for an instruction and output schema.
// Implemented by the gemini client; faked in tests.
type Generator interface {
	GenerateJSON(ctx context.Context, instruction string, schema *Schema) ([]byte, error)
}

// Service exposes the five generation operations.
type Service struct {
	gen    Generator
	retry  RetryPolicy
	logger zerolog.Logger

	// newID assigns local identifiers to generated food items.
	newID func() string
}

// ServiceConfig holds configuration for the gateway service.
type ServiceConfig struct {
	Generator Generator
	Retry     *RetryPolicy
	Logger    zerolog.Logger
}

// NewService creates the gateway service. A nil Generator leaves the
// service in degraded mode: every operation fails with ErrNotConfigured.
func NewService(cfg ServiceConfig) *Service {
	retry := DefaultRetryPolicy(cfg.Logger)
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	return &Service{
		gen:    cfg.Generator,
		retry:  retry,
		logger: cfg.Logger,
		newID:  func() string { return uuid.New().String() },
	}
}

// Configured reports whether a generation backend is available.
func (s *Service) Configured() bool {
	return s != nil && s.gen != nil
}

// generate runs one schema-validated generation call under the retry policy.
func (s *Service) generate(ctx context.Context, operation, instruction string, schema *Schema) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	var raw []byte
	err := s.retry.Do(ctx, operation, func(ctx context.Context) error {
		out, err := s.gen.GenerateJSON(ctx, instruction, schema)
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := schema.Validate(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// DraftShoppingList generates a suggested one-week shopping list from the
// profile alone, before any plan exists.
func (s *Service) DraftShoppingList(ctx context.Context, profile plan.UserProfile, budget plan.ShoppingBudget) (plan.ShoppingListResult, error) {
	raw, err := s.generate(ctx, "draft_shopping_list",
		draftListInstruction(profile, budget), shoppingListSchema())
	if err != nil {
		return plan.ShoppingListResult{}, err
	}

	var result plan.ShoppingListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return plan.ShoppingListResult{}, fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}
	return result, nil
}

// GenerateWeeklyPlan generates the 7-day plan constrained to the given
// ingredient names. The water target is always derived locally from body
// weight, and every food item gets a fresh locally-assigned id; the model
// is trusted for neither.
func (s *Service) GenerateWeeklyPlan(ctx context.Context, profile plan.UserProfile, ingredients []string) (plan.WeeklyPlanData, error) {
	raw, err := s.generate(ctx, "generate_weekly_plan",
		weeklyPlanInstruction(profile, ingredients), weeklyPlanSchema())
	if err != nil {
		return plan.WeeklyPlanData{}, err
	}

	var weekly plan.WeeklyPlanData
	if err := json.Unmarshal(raw, &weekly); err != nil {
		return plan.WeeklyPlanData{}, fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}

	if len(weekly.Days) != plan.DaysPerWeek {
		return plan.WeeklyPlanData{}, fmt.Errorf("%w: expected %d days, got %d",
			ErrSchemaViolation, plan.DaysPerWeek, len(weekly.Days))
	}

	weekly.WaterTargetMl = plan.WaterTargetFor(profile.WeightKg)
	for di := range weekly.Days {
		for mi := range weekly.Days[di].Meals {
			for fi := range weekly.Days[di].Meals[mi].Foods {
				weekly.Days[di].Meals[mi].Foods[fi].ID = s.newID()
			}
		}
	}

	return weekly, nil
}

// SubstituteFood generates one direct replacement for a food item,
// preferring ingredients the user already has. The replacement gets a
// fresh local id.
func (s *Service) SubstituteFood(ctx context.Context, food plan.FoodItem, mealType plan.MealType, goal plan.Goal, available []string) (plan.FoodItem, error) {
	raw, err := s.generate(ctx, "substitute_food",
		foodSubstituteInstruction(food, mealType, goal, available), foodSchema())
	if err != nil {
		return plan.FoodItem{}, err
	}

	var replacement plan.FoodItem
	if err := json.Unmarshal(raw, &replacement); err != nil {
		return plan.FoodItem{}, fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}
	replacement.ID = s.newID()
	return replacement, nil
}

// SubstituteShoppingItem generates one replacement shopping list entry.
func (s *Service) SubstituteShoppingItem(ctx context.Context, item plan.ShoppingItem, budget plan.ShoppingBudget) (plan.ShoppingItem, error) {
	raw, err := s.generate(ctx, "substitute_shopping_item",
		shoppingSubstituteInstruction(item, budget), shoppingItemSchema())
	if err != nil {
		return plan.ShoppingItem{}, err
	}

	var replacement plan.ShoppingItem
	if err := json.Unmarshal(raw, &replacement); err != nil {
		return plan.ShoppingItem{}, fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}
	return replacement, nil
}

// ConsolidatedShoppingList generates a shopping list covering the full plan
// for the requested duration and budget.
func (s *Service) ConsolidatedShoppingList(ctx context.Context, weekly plan.WeeklyPlanData, duration plan.ShoppingDuration, budget plan.ShoppingBudget) (plan.ShoppingListResult, error) {
	raw, err := s.generate(ctx, "consolidated_shopping_list",
		consolidatedListInstruction(weekly, duration, budget), shoppingListSchema())
	if err != nil {
		return plan.ShoppingListResult{}, err
	}

	var result plan.ShoppingListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return plan.ShoppingListResult{}, fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}
	return result, nil
}
