package account

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriweek/nutriweek/internal/plan"
)

func newTestService() (*Service, *InMemoryRepository) {
	repo := NewInMemoryRepository()
	svc := NewService(ServiceConfig{
		States: repo,
		Logs:   repo,
		Plans:  repo.SavedPlans(),
		Logger: zerolog.Nop(),
	})
	return svc, repo
}

func sampleProfile() plan.UserProfile {
	return plan.UserProfile{
		Age:           30,
		WeightKg:      70,
		HeightCm:      175,
		Gender:        plan.GenderMale,
		ActivityLevel: plan.ActivityModeratelyActive,
		Goal:          plan.GoalFatLossMedium,
		SelectedMeals: []plan.MealType{plan.MealBreakfast, plan.MealLunch},
	}
}

func samplePlan() plan.WeeklyPlanData {
	return plan.WeeklyPlanData{
		BMR:            1650,
		TDEE:           2550,
		TargetCalories: 2100,
		WaterTargetMl:  2450,
		Days: []plan.DailyPlan{{
			Day: "Monday",
			Meals: []plan.Meal{{
				Type:          plan.MealBreakfast,
				Foods:         []plan.FoodItem{{ID: "f1", Name: "Oats", Weight: "80g", Calories: 300, GlycemicIndex: "low"}},
				TotalCalories: 300,
			}},
			DailyCalories: 300,
		}},
	}
}

func TestLoad_SelfHealsMissingState(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	account, err := svc.Load(ctx, "user-1", "user@example.com")
	require.NoError(t, err)

	assert.Equal(t, "user-1", account.ID)
	assert.Equal(t, "user@example.com", account.Identity)
	assert.Nil(t, account.CurrentProfile)
	assert.Nil(t, account.CurrentPlan)
	assert.Empty(t, account.Logs)
	assert.Empty(t, account.SavedPlans)

	// The missing state record was inserted on first load.
	record, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", record.UserID)
}

func TestLoad_AssemblesAggregate(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	profile := sampleProfile()
	weekly := samplePlan()
	list := plan.ShoppingListResult{
		Items:         []plan.ShoppingItem{{Name: "Oats", Quantity: "1kg", Category: "grocery"}},
		EstimatedCost: "about 10 EUR",
	}

	require.NoError(t, svc.SaveState(ctx, "user-1", StatePatch{
		Profile:      Set(profile),
		Plan:         Set(weekly),
		ShoppingList: Set(list),
	}))
	require.NoError(t, svc.AppendLog(ctx, "user-1", plan.BodyMetricLog{
		Date:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Weight: 71,
	}))
	require.NoError(t, svc.AppendLog(ctx, "user-1", plan.BodyMetricLog{
		Date:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Weight: 72.5,
	}))
	require.NoError(t, svc.SaveSavedPlan(ctx, "user-1", plan.SavedPlan{
		ID:          "plan-1",
		Name:        "Cut week 1",
		CreatedAt:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		PlanData:    weekly,
		UserProfile: profile,
	}))

	// Another user's data must not bleed in.
	require.NoError(t, repo.CreateDefault(ctx, "user-2"))
	require.NoError(t, svc.AppendLog(ctx, "user-2", plan.BodyMetricLog{Date: time.Now(), Weight: 90}))

	account, err := svc.Load(ctx, "user-1", "user@example.com")
	require.NoError(t, err)

	require.NotNil(t, account.CurrentProfile)
	assert.Equal(t, profile.Goal, account.CurrentProfile.Goal)
	require.NotNil(t, account.CurrentPlan)
	assert.Equal(t, float64(2450), account.CurrentPlan.WaterTargetMl)
	require.NotNil(t, account.CurrentShoppingList)

	// Logs come back date ascending.
	require.Len(t, account.Logs, 2)
	assert.Equal(t, 72.5, account.Logs[0].Weight)
	assert.Equal(t, 71.0, account.Logs[1].Weight)

	require.Len(t, account.SavedPlans, 1)
	assert.Equal(t, "Cut week 1", account.SavedPlans[0].Name)
}

func TestSaveState_PartialPatch(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.SaveState(ctx, "user-1", StatePatch{Profile: Set(sampleProfile())}))
	require.NoError(t, svc.SaveState(ctx, "user-1", StatePatch{Plan: Set(samplePlan())}))

	record, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, record.Profile, "patching the plan must not touch the profile")
	assert.NotNil(t, record.Plan)

	// An explicit clear removes the value; unset fields stay intact.
	require.NoError(t, svc.SaveState(ctx, "user-1", StatePatch{Profile: Clear[plan.UserProfile]()}))

	record, err = repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, record.Profile)
	assert.NotNil(t, record.Plan)
}

func TestSaveState_EmptyPatch(t *testing.T) {
	assert.True(t, StatePatch{}.Empty())
	assert.False(t, StatePatch{Profile: Set(sampleProfile())}.Empty())
	assert.False(t, StatePatch{Profile: Clear[plan.UserProfile]()}.Empty())
}

func TestDeleteSavedPlan_Idempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.SaveSavedPlan(ctx, "user-1", plan.SavedPlan{ID: "plan-1", Name: "Bulk"}))
	require.NoError(t, svc.DeleteSavedPlan(ctx, "user-1", "plan-1"))
	require.NoError(t, svc.DeleteSavedPlan(ctx, "user-1", "plan-1"))

	account, err := svc.Load(ctx, "user-1", "user@example.com")
	require.NoError(t, err)
	assert.Empty(t, account.SavedPlans)
}

func TestDeleteSavedPlan_ScopedToOwner(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.SaveSavedPlan(ctx, "user-1", plan.SavedPlan{ID: "plan-1", Name: "Bulk"}))

	// Another user cannot delete it; for them it simply does not exist.
	require.NoError(t, svc.DeleteSavedPlan(ctx, "user-2", "plan-1"))

	account, err := svc.Load(ctx, "user-1", "user@example.com")
	require.NoError(t, err)
	require.Len(t, account.SavedPlans, 1)
}

func TestSavedPlans_LoadReturnsCopies(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.SaveSavedPlan(ctx, "user-1", plan.SavedPlan{
		ID:          "plan-1",
		Name:        "Cut week 1",
		PlanData:    samplePlan(),
		UserProfile: sampleProfile(),
	}))

	first, err := svc.Load(ctx, "user-1", "user@example.com")
	require.NoError(t, err)
	first.SavedPlans[0].PlanData.Days[0].Meals[0].Foods[0].Name = "mutated"

	second, err := svc.Load(ctx, "user-1", "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Oats", second.SavedPlans[0].PlanData.Days[0].Meals[0].Foods[0].Name)
}

func TestDueForReminder(t *testing.T) {
	_, repo := newTestService()
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	logBefore := now.Add(-7 * 24 * time.Hour)
	notifiedBefore := now.Add(-24 * time.Hour)

	// Stale log, never notified: due.
	require.NoError(t, repo.CreateDefault(ctx, "stale"))
	require.NoError(t, repo.Append(ctx, "stale", plan.BodyMetricLog{Date: now.Add(-10 * 24 * time.Hour)}))

	// Fresh log: not due.
	require.NoError(t, repo.CreateDefault(ctx, "fresh"))
	require.NoError(t, repo.Append(ctx, "fresh", plan.BodyMetricLog{Date: now.Add(-time.Hour)}))

	// Stale log but reminded an hour ago: still in cooldown.
	recentNudge := now.Add(-time.Hour)
	require.NoError(t, repo.CreateDefault(ctx, "nudged"))
	require.NoError(t, repo.Append(ctx, "nudged", plan.BodyMetricLog{Date: now.Add(-10 * 24 * time.Hour)}))
	require.NoError(t, repo.Patch(ctx, "nudged", StatePatch{LastNotification: Set(recentNudge)}))

	// No logs at all: due.
	require.NoError(t, repo.CreateDefault(ctx, "silent"))

	due, err := repo.DueForReminder(ctx, logBefore, notifiedBefore)
	require.NoError(t, err)
	assert.Equal(t, []string{"silent", "stale"}, due)
}
