package models

import "github.com/nutriweek/nutriweek/internal/plan"

// ConfirmListRequest is the body for confirming the reviewed shopping list.
type ConfirmListRequest struct {
	Selected []string `json:"selected"`
}

// FoodSubstituteRequest identifies one food within the weekly plan to swap.
type FoodSubstituteRequest struct {
	DayIndex int           `json:"dayIndex"`
	MealType plan.MealType `json:"mealType"`
	FoodID   string        `json:"foodId"`
}

// ItemSubstituteRequest identifies one shopping list item to swap.
type ItemSubstituteRequest struct {
	Name     string              `json:"name"`
	Category string              `json:"category"`
	Budget   plan.ShoppingBudget `json:"budget,omitempty"`
}

// ConsolidateRequest asks for the shopping list to be rebuilt from the
// live weekly plan for a given stock-up horizon.
type ConsolidateRequest struct {
	Duration plan.ShoppingDuration `json:"duration"`
	Budget   plan.ShoppingBudget   `json:"budget"`
}

// SavePlanRequest names a snapshot of the current plan.
type SavePlanRequest struct {
	Name string `json:"name"`
}

// ToggleItemRequest identifies a shopping list item to check or uncheck.
type ToggleItemRequest struct {
	Name string `json:"name"`
}

// NavigateRequest switches the session to another view.
type NavigateRequest struct {
	Target string `json:"target"`
}
