package flow

import (
	"time"

	"github.com/nutriweek/nutriweek/internal/account"
	"github.com/nutriweek/nutriweek/internal/plan"
)

// View identifies which screen of the planning flow the user is on.
type View string

// Views.
const (
	ViewUnauthenticated View = "unauthenticated"
	ViewOnboarding      View = "onboarding"
	ViewShoppingReview  View = "shopping_review"
	ViewDashboard       View = "dashboard"
	ViewSavedPlans      View = "saved_plans"
	ViewProgress        View = "progress"
)

// Progress messages shown while an upstream generation call is in flight.
// Each operation gets distinct text so the client can render a specific
// loading state.
const (
	MsgDraftingList      = "Analyzing your profile and drafting your shopping list"
	MsgBuildingPlan      = "Building your weekly plan from the selected ingredients"
	MsgSubstitutingFood  = "Finding a substitute for that food"
	MsgSubstitutingItem  = "Finding a substitute for that item"
	MsgConsolidatingList = "Rebuilding the shopping list from your plan"
)

// foodSwapTarget remembers which food a pending substitution call will
// replace when its result folds back in.
type foodSwapTarget struct {
	DayIndex int
	MealType plan.MealType
	FoodID   string
}

// itemSwapTarget remembers which shopping item a pending substitution
// call will replace. Items are matched by name and category.
type itemSwapTarget struct {
	Name     string
	Category string
}

// State is the complete per-user flow state. Transitions never mutate a
// prior State's reachable data: anything edited is deep-copied first, so
// old snapshots (and saved-plan embeds) stay intact.
type State struct {
	View View `json:"view"`

	Profile *plan.UserProfile    `json:"profile,omitempty"`
	Plan    *plan.WeeklyPlanData `json:"plan,omitempty"`

	// SuggestedList is the draft produced at onboarding, reviewed on the
	// shopping_review screen. ShoppingList is the live (confirmed or
	// consolidated) list shown on the dashboard.
	SuggestedList *plan.ShoppingListResult `json:"suggestedList,omitempty"`
	ShoppingList  *plan.ShoppingListResult `json:"shoppingList,omitempty"`

	SavedPlans []plan.SavedPlan     `json:"savedPlans"`
	Logs       []plan.BodyMetricLog `json:"logs"`

	Busy        bool   `json:"busy"`
	BusyMessage string `json:"busyMessage,omitempty"`

	// Err is the global error state. While set it replaces the normal
	// view; acknowledging it performs the same cleanup as a reset.
	Err *Error `json:"error,omitempty"`

	pendingFoodSwap *foodSwapTarget
	pendingItemSwap *itemSwapTarget
}

// inStockNames returns the names of checked (in stock) shopping items,
// passed to food substitution as a soft preference.
func (s State) inStockNames() []string {
	if s.ShoppingList == nil {
		return nil
	}
	var names []string
	for _, item := range s.ShoppingList.Items {
		if item.Checked {
			names = append(names, item.Name)
		}
	}
	return names
}

// Event is a discrete trigger folded through Transition.
type Event interface{ isEvent() }

// EventSessionLoaded hydrates the flow from a freshly loaded account, or
// resets to unauthenticated when Account is nil.
type EventSessionLoaded struct {
	Account *plan.UserAccount
}

// EventProfileSubmitted completes onboarding and requests a draft
// shopping list. The profile must already be validated.
type EventProfileSubmitted struct {
	Profile plan.UserProfile
}

// EventDraftSucceeded delivers the drafted shopping list.
type EventDraftSucceeded struct {
	List plan.ShoppingListResult
}

// EventDraftFailed reports a failed draft call. The entered profile is
// discarded and the flow returns to onboarding.
type EventDraftFailed struct {
	Err error
}

// EventListConfirmed confirms a subset of the suggested items by name and
// requests the weekly plan.
type EventListConfirmed struct {
	Selected []string
}

// EventPlanGenerated delivers the generated weekly plan.
type EventPlanGenerated struct {
	Plan plan.WeeklyPlanData
}

// EventGenerateFailed reports a failed plan generation. The drafted list
// stays available for retry.
type EventGenerateFailed struct {
	Err error
}

// EventFoodSwapRequested asks for a replacement of one food within one
// meal of one day.
type EventFoodSwapRequested struct {
	DayIndex int
	MealType plan.MealType
	FoodID   string
}

// EventFoodSwapped delivers the replacement food for a pending swap.
type EventFoodSwapped struct {
	Food plan.FoodItem
}

// EventShoppingSwapRequested asks for a replacement of one shopping item.
type EventShoppingSwapRequested struct {
	Name     string
	Category string
	Budget   plan.ShoppingBudget
}

// EventShoppingSwapped delivers the replacement shopping item.
type EventShoppingSwapped struct {
	Item plan.ShoppingItem
}

// EventSwapFailed reports a failed substitution (food or shopping item).
// It clears the busy flag without entering the global error state.
type EventSwapFailed struct {
	Err error
}

// EventConsolidateRequested regenerates the full shopping list from the
// live plan for the given duration and budget.
type EventConsolidateRequested struct {
	Duration plan.ShoppingDuration
	Budget   plan.ShoppingBudget
}

// EventListConsolidated delivers the consolidated shopping list.
type EventListConsolidated struct {
	List plan.ShoppingListResult
}

// EventConsolidateFailed reports a failed consolidation.
type EventConsolidateFailed struct {
	Err error
}

// EventItemToggled flips the in-stock (checked) flag of one live
// shopping item.
type EventItemToggled struct {
	Name string
}

// EventSavePlan snapshots the live triple under a new saved plan. ID and
// CreatedAt are assigned by the session before dispatch.
type EventSavePlan struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// EventLoadSavedPlan activates a saved snapshot as the current triple.
type EventLoadSavedPlan struct {
	ID string
}

// EventDeleteSavedPlan removes a saved plan. Deleting an absent ID is a
// no-op for the caller.
type EventDeleteSavedPlan struct {
	ID string
}

// EventLogAdded appends a body measurement. Date is assigned by the
// session when zero.
type EventLogAdded struct {
	Log plan.BodyMetricLog
}

// EventNavigate moves between the dashboard, saved plans, and progress
// screens without mutating data.
type EventNavigate struct {
	Target View
}

// EventReset clears the current triple and returns to onboarding.
type EventReset struct{}

// EventErrorAcknowledged dismisses the global error and performs the same
// cleanup as a reset.
type EventErrorAcknowledged struct{}

// EventLogout clears everything and returns to unauthenticated.
type EventLogout struct{}

func (EventSessionLoaded) isEvent()         {}
func (EventProfileSubmitted) isEvent()      {}
func (EventDraftSucceeded) isEvent()        {}
func (EventDraftFailed) isEvent()           {}
func (EventListConfirmed) isEvent()         {}
func (EventPlanGenerated) isEvent()         {}
func (EventGenerateFailed) isEvent()        {}
func (EventFoodSwapRequested) isEvent()     {}
func (EventFoodSwapped) isEvent()           {}
func (EventShoppingSwapRequested) isEvent() {}
func (EventShoppingSwapped) isEvent()       {}
func (EventSwapFailed) isEvent()            {}
func (EventConsolidateRequested) isEvent()  {}
func (EventListConsolidated) isEvent()      {}
func (EventConsolidateFailed) isEvent()     {}
func (EventItemToggled) isEvent()           {}
func (EventSavePlan) isEvent()              {}
func (EventLoadSavedPlan) isEvent()         {}
func (EventDeleteSavedPlan) isEvent()       {}
func (EventLogAdded) isEvent()              {}
func (EventNavigate) isEvent()              {}
func (EventReset) isEvent()                 {}
func (EventErrorAcknowledged) isEvent()     {}
func (EventLogout) isEvent()                {}

// Intent is a side effect requested by a transition, executed by the
// session layer in order. Generation intents always precede persistence
// intents produced by the same user action.
type Intent interface{ isIntent() }

// IntentDraftList calls the generation service for a profile-based draft
// shopping list.
type IntentDraftList struct {
	Profile plan.UserProfile
	Budget  plan.ShoppingBudget
}

// IntentGeneratePlan calls the generation service for the weekly plan,
// constrained to the confirmed ingredient names.
type IntentGeneratePlan struct {
	Profile     plan.UserProfile
	Ingredients []string
}

// IntentSubstituteFood calls the generation service for a food
// replacement, hinting with the user's in-stock items.
type IntentSubstituteFood struct {
	Food     plan.FoodItem
	MealType plan.MealType
	Goal     plan.Goal
	InStock  []string
}

// IntentSubstituteItem calls the generation service for a shopping item
// replacement.
type IntentSubstituteItem struct {
	Item   plan.ShoppingItem
	Budget plan.ShoppingBudget
}

// IntentConsolidate calls the generation service for a consolidated list
// covering the full plan.
type IntentConsolidate struct {
	Plan     plan.WeeklyPlanData
	Duration plan.ShoppingDuration
	Budget   plan.ShoppingBudget
}

// IntentPersistState upserts part of the per-user state record.
type IntentPersistState struct {
	Patch account.StatePatch
}

// IntentSavePlan persists a saved-plan snapshot (fire and forget).
type IntentSavePlan struct {
	Saved plan.SavedPlan
}

// IntentDeleteSavedPlan deletes a saved plan remotely (fire and forget).
type IntentDeleteSavedPlan struct {
	PlanID string
}

// IntentAppendLog persists a body measurement (fire and forget).
type IntentAppendLog struct {
	Log plan.BodyMetricLog
}

func (IntentDraftList) isIntent()       {}
func (IntentGeneratePlan) isIntent()    {}
func (IntentSubstituteFood) isIntent()  {}
func (IntentSubstituteItem) isIntent()  {}
func (IntentConsolidate) isIntent()     {}
func (IntentPersistState) isIntent()    {}
func (IntentSavePlan) isIntent()        {}
func (IntentDeleteSavedPlan) isIntent() {}
func (IntentAppendLog) isIntent()       {}
