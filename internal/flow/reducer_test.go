package flow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriweek/nutriweek/internal/nutrition"
	"github.com/nutriweek/nutriweek/internal/plan"
)

func testProfile() plan.UserProfile {
	return plan.UserProfile{
		Age:           30,
		WeightKg:      70,
		HeightCm:      175,
		Gender:        plan.GenderMale,
		ActivityLevel: plan.ActivityModeratelyActive,
		Goal:          plan.GoalFatLossMedium,
		SelectedMeals: []plan.MealType{plan.MealBreakfast, plan.MealLunch, plan.MealDinner},
	}
}

func testWeeklyPlan() plan.WeeklyPlanData {
	days := make([]plan.DailyPlan, plan.DaysPerWeek)
	dayNames := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	for i := range days {
		days[i] = plan.DailyPlan{
			Day: dayNames[i],
			Meals: []plan.Meal{
				{
					Type: plan.MealBreakfast,
					Foods: []plan.FoodItem{
						{ID: dayNames[i] + "-eggs", Name: "Eggs", Weight: "100g", Calories: 150},
						{ID: dayNames[i] + "-oats", Name: "Oats", Weight: "50g", Calories: 180},
					},
				},
				{
					Type: plan.MealLunch,
					Foods: []plan.FoodItem{
						{ID: dayNames[i] + "-rice", Name: "Rice", Weight: "150g", Calories: 200},
					},
				},
			},
		}
	}
	return plan.WeeklyPlanData{
		BMR:            1650,
		TDEE:           2400,
		TargetCalories: 1900,
		WaterTargetMl:  plan.WaterTargetFor(70),
		Days:           days,
	}
}

func testShoppingList() plan.ShoppingListResult {
	return plan.ShoppingListResult{
		EstimatedCost: "around 80",
		Items: []plan.ShoppingItem{
			{Name: "Eggs", Quantity: "30 units", Category: "Protein"},
			{Name: "Oats", Quantity: "1 kg", Category: "Grains"},
			{Name: "Rice", Quantity: "2 kg", Category: "Grains"},
			{Name: "Chicken breast", Quantity: "1.5 kg", Category: "Protein"},
			{Name: "Olive oil", Quantity: "500 ml", Category: "Fats"},
		},
	}
}

func dashboardState() State {
	profile := testProfile()
	weekly := testWeeklyPlan()
	list := testShoppingList()
	for i := range list.Items {
		list.Items[i].Checked = true
	}
	return State{
		View:         ViewDashboard,
		Profile:      &profile,
		Plan:         &weekly,
		ShoppingList: &list,
	}
}

func TestHydration(t *testing.T) {
	profile := testProfile()
	weekly := testWeeklyPlan()
	list := testShoppingList()

	tests := []struct {
		name     string
		account  *plan.UserAccount
		wantView View
	}{
		{"no session", nil, ViewUnauthenticated},
		{"empty account", &plan.UserAccount{ID: "u1"}, ViewOnboarding},
		{
			"profile without plan",
			&plan.UserAccount{ID: "u1", CurrentProfile: &profile},
			ViewOnboarding,
		},
		{
			"plan without profile",
			&plan.UserAccount{ID: "u1", CurrentPlan: &weekly},
			ViewOnboarding,
		},
		{
			"full current triple",
			&plan.UserAccount{
				ID:                  "u1",
				CurrentProfile:      &profile,
				CurrentPlan:         &weekly,
				CurrentShoppingList: &list,
			},
			ViewDashboard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, intents := Transition(State{}, EventSessionLoaded{Account: tt.account})
			assert.Equal(t, tt.wantView, state.View)
			assert.Empty(t, intents)
			if tt.wantView == ViewDashboard {
				require.NotNil(t, state.Profile)
				require.NotNil(t, state.Plan)
				assert.Equal(t, weekly.WaterTargetMl, state.Plan.WaterTargetMl)
			}
		})
	}
}

func TestProfileSubmittedDraftsList(t *testing.T) {
	state, intents := Transition(State{View: ViewOnboarding}, EventProfileSubmitted{Profile: testProfile()})

	assert.True(t, state.Busy)
	assert.Equal(t, MsgDraftingList, state.BusyMessage)
	require.NotNil(t, state.Profile)

	require.Len(t, intents, 1)
	draft, ok := intents[0].(IntentDraftList)
	require.True(t, ok)
	assert.Equal(t, plan.BudgetEconomical, draft.Budget)
}

func TestDraftFailureClearsProfile(t *testing.T) {
	state, _ := Transition(State{View: ViewOnboarding}, EventProfileSubmitted{Profile: testProfile()})

	state, intents := Transition(state, EventDraftFailed{Err: errors.New("model unavailable")})

	assert.Nil(t, state.Profile, "entered profile must be discarded")
	assert.Equal(t, ViewOnboarding, state.View)
	assert.False(t, state.Busy)
	require.NotNil(t, state.Err)
	assert.Equal(t, ClassPermanentUpstream, state.Err.Class)
	assert.Empty(t, intents)
}

func TestDraftFailureQuotaIsTransient(t *testing.T) {
	state, _ := Transition(State{View: ViewOnboarding}, EventProfileSubmitted{Profile: testProfile()})

	state, _ = Transition(state, EventDraftFailed{Err: nutrition.ErrOverloaded})

	require.NotNil(t, state.Err)
	assert.Equal(t, ClassTransientUpstream, state.Err.Class)
}

func TestConfirmBuildsCheckedSubset(t *testing.T) {
	profile := testProfile()
	draft := testShoppingList()
	state := State{View: ViewShoppingReview, Profile: &profile, SuggestedList: &draft}

	selected := []string{"Eggs", "Rice", "Chicken breast"}
	state, intents := Transition(state, EventListConfirmed{Selected: selected})

	require.NotNil(t, state.ShoppingList)
	require.Len(t, state.ShoppingList.Items, 3)
	for _, item := range state.ShoppingList.Items {
		assert.True(t, item.Checked)
		assert.Contains(t, selected, item.Name)
	}
	assert.Equal(t, draft.EstimatedCost, state.ShoppingList.EstimatedCost)
	assert.True(t, state.Busy)
	assert.Equal(t, MsgBuildingPlan, state.BusyMessage)

	require.Len(t, intents, 1)
	gen, ok := intents[0].(IntentGeneratePlan)
	require.True(t, ok)
	assert.Equal(t, selected, gen.Ingredients)
}

func TestGenerateFailureKeepsDraft(t *testing.T) {
	profile := testProfile()
	draft := testShoppingList()
	state := State{View: ViewShoppingReview, Profile: &profile, SuggestedList: &draft}

	state, _ = Transition(state, EventListConfirmed{Selected: []string{"Eggs"}})
	state, _ = Transition(state, EventGenerateFailed{Err: errors.New("bad response")})

	assert.Equal(t, ViewShoppingReview, state.View, "must stay on review for retry")
	require.NotNil(t, state.SuggestedList, "drafted list must remain available")
	assert.Len(t, state.SuggestedList.Items, 5)
	assert.NotNil(t, state.Profile)
	assert.False(t, state.Busy)
	assert.NotNil(t, state.Err)
}

func TestPlanGeneratedPersistsTriple(t *testing.T) {
	profile := testProfile()
	draft := testShoppingList()
	state := State{View: ViewShoppingReview, Profile: &profile, SuggestedList: &draft}
	state, _ = Transition(state, EventListConfirmed{Selected: []string{"Eggs", "Rice"}})

	state, intents := Transition(state, EventPlanGenerated{Plan: testWeeklyPlan()})

	assert.Equal(t, ViewDashboard, state.View)
	assert.False(t, state.Busy)
	require.NotNil(t, state.Plan)

	require.Len(t, intents, 1)
	persist, ok := intents[0].(IntentPersistState)
	require.True(t, ok)
	assert.True(t, persist.Patch.Profile.IsSet())
	assert.True(t, persist.Patch.Plan.IsSet())
	assert.True(t, persist.Patch.ShoppingList.IsSet())
}

func TestFoodSwapChangesOnlyTargetItem(t *testing.T) {
	state := dashboardState()
	before := state.Plan.Clone()

	state, intents := Transition(state, EventFoodSwapRequested{
		DayIndex: 2,
		MealType: plan.MealBreakfast,
		FoodID:   "Wednesday-oats",
	})
	require.Len(t, intents, 1)
	sub, ok := intents[0].(IntentSubstituteFood)
	require.True(t, ok)
	assert.Equal(t, "Oats", sub.Food.Name)
	assert.Equal(t, plan.GoalFatLossMedium, sub.Goal)
	assert.Len(t, sub.InStock, 5, "checked items are passed as the in-stock hint")

	replacement := plan.FoodItem{ID: "new-1", Name: "Quinoa", Weight: "50g", Calories: 170}
	state, intents = Transition(state, EventFoodSwapped{Food: replacement})
	assert.Empty(t, intents, "plan edits are not persisted immediately")

	after := state.Plan
	for di, day := range after.Days {
		for mi, meal := range day.Meals {
			for fi, food := range meal.Foods {
				orig := before.Days[di].Meals[mi].Foods[fi]
				if di == 2 && meal.Type == plan.MealBreakfast && orig.ID == "Wednesday-oats" {
					assert.Equal(t, replacement, food)
				} else {
					assert.Equal(t, orig, food, "all other foods must be unchanged")
				}
			}
		}
	}
	// The pre-swap snapshot itself is untouched.
	assert.Equal(t, "Oats", before.Days[2].Meals[0].Foods[1].Name)
}

func TestShoppingSwapReplacesByNameAndCategory(t *testing.T) {
	state := dashboardState()

	state, intents := Transition(state, EventShoppingSwapRequested{Name: "Rice", Category: "Grains"})
	require.Len(t, intents, 1)

	replacement := plan.ShoppingItem{Name: "Sweet potato", Quantity: "2 kg", Category: "Grains"}
	state, _ = Transition(state, EventShoppingSwapped{Item: replacement})

	names := make([]string, 0, len(state.ShoppingList.Items))
	for _, item := range state.ShoppingList.Items {
		names = append(names, item.Name)
	}
	assert.Contains(t, names, "Sweet potato")
	assert.NotContains(t, names, "Rice")
	assert.Len(t, state.ShoppingList.Items, 5)
}

func TestSavedPlanImmutability(t *testing.T) {
	state := dashboardState()

	state, intents := Transition(state, EventSavePlan{
		ID:        "sp-1",
		Name:      "cutting week",
		CreatedAt: time.Now(),
	})
	require.Len(t, intents, 1)
	require.Len(t, state.SavedPlans, 1)

	// Edit the live plan after saving.
	state, _ = Transition(state, EventFoodSwapRequested{
		DayIndex: 0,
		MealType: plan.MealBreakfast,
		FoodID:   "Monday-eggs",
	})
	state, _ = Transition(state, EventFoodSwapped{
		Food: plan.FoodItem{ID: "new-2", Name: "Tofu scramble", Weight: "120g", Calories: 140},
	})

	saved := state.SavedPlans[0]
	assert.Equal(t, "Eggs", saved.PlanData.Days[0].Meals[0].Foods[0].Name,
		"saved snapshot must not reflect later live edits")
	assert.Equal(t, "Tofu scramble", state.Plan.Days[0].Meals[0].Foods[0].Name)
}

func TestLoadSavedPlanActivatesSnapshot(t *testing.T) {
	state := dashboardState()
	state, _ = Transition(state, EventSavePlan{ID: "sp-1", Name: "keep", CreatedAt: time.Now()})

	// Reset, then bring the snapshot back.
	state, _ = Transition(state, EventReset{})
	assert.Nil(t, state.Plan)
	require.Len(t, state.SavedPlans, 1, "saved plans survive a reset")

	state, intents := Transition(state, EventLoadSavedPlan{ID: "sp-1"})
	assert.Equal(t, ViewDashboard, state.View)
	require.NotNil(t, state.Plan)
	require.NotNil(t, state.Profile)

	require.Len(t, intents, 1)
	persist, ok := intents[0].(IntentPersistState)
	require.True(t, ok)
	assert.True(t, persist.Patch.Profile.IsSet())
	assert.True(t, persist.Patch.Plan.IsSet())
}

func TestDeleteSavedPlanIsIdempotentForCaller(t *testing.T) {
	state := dashboardState()
	state, _ = Transition(state, EventSavePlan{ID: "sp-1", Name: "gone soon", CreatedAt: time.Now()})

	state, intents := Transition(state, EventDeleteSavedPlan{ID: "sp-1"})
	assert.Empty(t, state.SavedPlans)
	require.Len(t, intents, 1)

	// Second delete for the same id: still no error path, intent forwarded.
	state, intents = Transition(state, EventDeleteSavedPlan{ID: "sp-1"})
	assert.Empty(t, state.SavedPlans)
	require.Len(t, intents, 1)
}

func TestLogAddedKeepsAscendingOrder(t *testing.T) {
	now := time.Now()
	state := dashboardState()
	state.Logs = []plan.BodyMetricLog{
		{Date: now.Add(-48 * time.Hour), Weight: 72},
		{Date: now, Weight: 71},
	}

	state, intents := Transition(state, EventLogAdded{
		Log: plan.BodyMetricLog{Date: now.Add(-24 * time.Hour), Weight: 71.5},
	})

	require.Len(t, intents, 1)
	require.Len(t, state.Logs, 3)
	assert.Equal(t, 72.0, state.Logs[0].Weight)
	assert.Equal(t, 71.5, state.Logs[1].Weight)
	assert.Equal(t, 71.0, state.Logs[2].Weight)
}

func TestNavigation(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		target   View
		wantView View
	}{
		{"dashboard to saved plans", dashboardState(), ViewSavedPlans, ViewSavedPlans},
		{"dashboard to progress", dashboardState(), ViewProgress, ViewProgress},
		{"back with live plan", dashboardState(), ViewDashboard, ViewDashboard},
		{
			"back without live plan",
			State{View: ViewSavedPlans},
			ViewDashboard,
			ViewOnboarding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, intents := Transition(tt.state, EventNavigate{Target: tt.target})
			assert.Equal(t, tt.wantView, state.View)
			assert.Empty(t, intents)
		})
	}
}

func TestResetClearsTripleAndPersists(t *testing.T) {
	state := dashboardState()

	state, intents := Transition(state, EventReset{})

	assert.Equal(t, ViewOnboarding, state.View)
	assert.Nil(t, state.Profile)
	assert.Nil(t, state.Plan)
	assert.Nil(t, state.ShoppingList)
	assert.Nil(t, state.SuggestedList)

	require.Len(t, intents, 1)
	persist, ok := intents[0].(IntentPersistState)
	require.True(t, ok)
	assert.True(t, persist.Patch.Profile.IsSet())
	assert.Nil(t, persist.Patch.Profile.Value(), "profile must be explicitly cleared")
	assert.Nil(t, persist.Patch.Plan.Value())
	assert.Nil(t, persist.Patch.ShoppingList.Value())
	assert.False(t, persist.Patch.LastNotification.IsSet())
}

func TestErrorAcknowledgedPerformsResetCleanup(t *testing.T) {
	state := dashboardState()
	state.Err = Classify(errors.New("boom"))

	state, intents := Transition(state, EventErrorAcknowledged{})

	assert.Nil(t, state.Err)
	assert.Equal(t, ViewOnboarding, state.View)
	assert.Nil(t, state.Plan)
	require.Len(t, intents, 1)
}

func TestLogoutClearsEverything(t *testing.T) {
	state := dashboardState()
	state.Logs = []plan.BodyMetricLog{{Date: time.Now(), Weight: 70}}

	state, intents := Transition(state, EventLogout{})

	assert.Equal(t, ViewUnauthenticated, state.View)
	assert.Nil(t, state.Profile)
	assert.Nil(t, state.Plan)
	assert.Empty(t, state.Logs)
	assert.Empty(t, state.SavedPlans)
	assert.Empty(t, intents)
}

func TestItemToggleTracksStock(t *testing.T) {
	state := dashboardState()
	require.True(t, state.ShoppingList.Items[0].Checked)

	state, _ = Transition(state, EventItemToggled{Name: "Eggs"})
	assert.False(t, state.ShoppingList.Items[0].Checked)
	assert.Len(t, state.inStockNames(), 4)

	state, _ = Transition(state, EventItemToggled{Name: "Eggs"})
	assert.True(t, state.ShoppingList.Items[0].Checked)
}
