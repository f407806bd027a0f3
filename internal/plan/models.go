// Package plan holds the meal-planning domain model: user profiles, weekly
// plans, shopping lists, saved plan snapshots, and the account aggregate.
package plan

import "time"

// Gender of the user, used for basal metabolic rate estimation upstream.
type Gender string

// Gender values.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ActivityLevel describes weekly exercise frequency.
type ActivityLevel string

// Activity levels, sedentary through extra active.
const (
	ActivitySedentary        ActivityLevel = "sedentary"
	ActivityLightlyActive    ActivityLevel = "lightly_active"
	ActivityModeratelyActive ActivityLevel = "moderately_active"
	ActivityVeryActive       ActivityLevel = "very_active"
	ActivityExtraActive      ActivityLevel = "extra_active"
)

// Goal is the user's body composition objective.
type Goal string

// The seven supported goals.
const (
	GoalFatLossModerate   Goal = "fat_loss_moderate"
	GoalFatLossMedium     Goal = "fat_loss_medium"
	GoalFatLossHigh       Goal = "fat_loss_high"
	GoalMaintain          Goal = "maintain"
	GoalHypertrophyMedium Goal = "hypertrophy_medium"
	GoalHypertrophyHigh   Goal = "hypertrophy_high"
	GoalRecomposition     Goal = "body_recomposition"
)

// MealType identifies one of the meals a plan day can contain.
type MealType string

// Meal types.
const (
	MealBreakfast      MealType = "breakfast"
	MealLunch          MealType = "lunch"
	MealAfternoonSnack MealType = "afternoon_snack"
	MealDinner         MealType = "dinner"
	MealSupper         MealType = "supper"
)

// ShoppingDuration is how long a consolidated shopping list should cover.
type ShoppingDuration string

// Shopping list durations.
const (
	DurationWeekly   ShoppingDuration = "weekly"
	DurationBiweekly ShoppingDuration = "biweekly"
	DurationMonthly  ShoppingDuration = "monthly"
)

// ShoppingBudget is the cost profile for shopping list generation.
type ShoppingBudget string

// Budget tiers.
const (
	BudgetEconomical ShoppingBudget = "economical"
	BudgetPremium    ShoppingBudget = "premium"
)

// FastingHours lists the supported intermittent fasting window lengths.
var FastingHours = []int{12, 14, 16, 18, 20, 24}

// FastingConfig holds the intermittent fasting protocol settings.
type FastingConfig struct {
	Enabled   bool     `json:"enabled"`
	Hours     int      `json:"hours,omitempty"`
	Days      []string `json:"days,omitempty"`
	StartTime string   `json:"startTime,omitempty"`
}

// UserProfile is the user's body metrics and planning preferences, entered
// once per onboarding pass and replaced only by a full reset.
type UserProfile struct {
	Age           int           `json:"age"`
	WeightKg      float64       `json:"weightKg"`
	HeightCm      float64       `json:"heightCm"`
	Gender        Gender        `json:"gender"`
	ActivityLevel ActivityLevel `json:"activityLevel"`
	Goal          Goal          `json:"goal"`
	SelectedMeals []MealType    `json:"selectedMeals"`
	Fasting       FastingConfig `json:"intermittentFasting"`
	CheatDay      string        `json:"cheatDay,omitempty"`
}

// FoodItem is a single food within a meal. The ID is assigned locally after
// generation; the upstream model is not trusted to produce stable ids.
type FoodItem struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Weight           string  `json:"weight"`
	Calories         float64 `json:"calories"`
	GlycemicIndex    string  `json:"glycemicIndex"`
	IsSugarOrSweetener bool  `json:"isSugarOrSweetener,omitempty"`
}

// Meal is an ordered list of foods for one meal slot.
type Meal struct {
	Type          MealType   `json:"type"`
	Foods         []FoodItem `json:"foods"`
	TotalCalories float64    `json:"totalCalories"`
}

// DailyPlan is one day of the weekly plan.
type DailyPlan struct {
	Day           string  `json:"day"`
	Meals         []Meal  `json:"meals"`
	DailyCalories float64 `json:"dailyCalories"`
}

// WeeklyPlanData is a generated 7-day meal schedule with energy targets.
// WaterTargetMl is always derived locally (see WaterTargetFor), never taken
// from the model response.
type WeeklyPlanData struct {
	BMR            float64     `json:"bmr"`
	TDEE           float64     `json:"tdee"`
	TargetCalories float64     `json:"targetCalories"`
	WaterTargetMl  float64     `json:"waterTarget"`
	Days           []DailyPlan `json:"days"`
}

// DaysPerWeek is the required number of daily plans in a weekly plan.
const DaysPerWeek = 7

// MlPerKg is the daily water intake per kilogram of body weight.
const MlPerKg = 35

// WaterTargetFor derives the daily water target in millilitres from body
// weight. This calculation is local; upstream responses are overridden.
func WaterTargetFor(weightKg float64) float64 {
	return weightKg * MlPerKg
}

// ShoppingItem is one purchasable entry of a shopping list. Category is a
// free-text label used only for grouping.
type ShoppingItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Category string `json:"category"`
	Checked  bool   `json:"checked,omitempty"`
}

// ShoppingListResult is a generated shopping list with a descriptive cost
// estimate.
type ShoppingListResult struct {
	Items         []ShoppingItem `json:"items"`
	EstimatedCost string         `json:"estimatedCost"`
}

// SavedPlan is an immutable snapshot of a plan, its profile, and its
// shopping list. Editing the live plan never mutates a saved one.
type SavedPlan struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	CreatedAt    time.Time           `json:"createdAt"`
	PlanData     WeeklyPlanData      `json:"planData"`
	UserProfile  UserProfile         `json:"userProfile"`
	ShoppingList *ShoppingListResult `json:"shoppingList"`
}

// BodyMetricLog is one append-only body measurement entry.
type BodyMetricLog struct {
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
	Neck   float64   `json:"neck"`
	Biceps float64   `json:"biceps"`
	Chest  float64   `json:"chest"`
	Waist  float64   `json:"waist"`
	Hips   float64   `json:"hips"`
}

// UserAccount is the aggregate root of persisted truth for one user. The
// current triple (profile, plan, shopping list) is the single active plan
// slot, distinct from the saved snapshots.
type UserAccount struct {
	ID                  string              `json:"id"`
	Identity            string              `json:"identity"`
	Logs                []BodyMetricLog     `json:"logs"`
	CurrentProfile      *UserProfile        `json:"currentProfile"`
	CurrentPlan         *WeeklyPlanData     `json:"currentPlan"`
	CurrentShoppingList *ShoppingListResult `json:"currentShoppingList"`
	SavedPlans          []SavedPlan         `json:"savedPlans"`
	LastNotification    *time.Time          `json:"lastNotification,omitempty"`
}

// HasCurrentPlan reports whether the account's current triple is populated
// enough to land on the dashboard (both profile and plan present).
func (a *UserAccount) HasCurrentPlan() bool {
	return a != nil && a.CurrentProfile != nil && a.CurrentPlan != nil
}
