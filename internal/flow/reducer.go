package flow

import (
	"sort"

	"github.com/nutriweek/nutriweek/internal/account"
	"github.com/nutriweek/nutriweek/internal/plan"
)

// Transition is the pure reducer of the planning flow: given the current
// state and an event it returns the next state and the intents to execute.
// It never touches the network or storage, and never mutates data reachable
// from the input state.
func Transition(s State, e Event) (State, []Intent) {
	switch ev := e.(type) {
	case EventSessionLoaded:
		return hydrate(ev.Account)

	case EventProfileSubmitted:
		p := ev.Profile.Clone()
		s.Profile = &p
		s.Busy = true
		s.BusyMessage = MsgDraftingList
		s.Err = nil
		return s, []Intent{IntentDraftList{Profile: ev.Profile.Clone(), Budget: plan.BudgetEconomical}}

	case EventDraftSucceeded:
		list := ev.List.Clone()
		s.SuggestedList = &list
		s.Busy = false
		s.BusyMessage = ""
		s.View = ViewShoppingReview
		return s, nil

	case EventDraftFailed:
		// The just-entered profile is discarded; the user redoes onboarding.
		s.Busy = false
		s.BusyMessage = ""
		s.Profile = nil
		s.View = ViewOnboarding
		s.Err = Classify(ev.Err)
		return s, nil

	case EventListConfirmed:
		if s.Profile == nil || s.SuggestedList == nil {
			return s, nil
		}
		confirmed := confirmList(*s.SuggestedList, ev.Selected)
		s.ShoppingList = &confirmed
		s.Busy = true
		s.BusyMessage = MsgBuildingPlan
		s.Err = nil
		return s, []Intent{IntentGeneratePlan{
			Profile:     s.Profile.Clone(),
			Ingredients: append([]string(nil), ev.Selected...),
		}}

	case EventPlanGenerated:
		if s.Profile == nil {
			return s, nil
		}
		weekly := ev.Plan.Clone()
		s.Plan = &weekly
		s.Busy = false
		s.BusyMessage = ""
		s.View = ViewDashboard
		patch := account.StatePatch{
			Profile: account.Set(s.Profile.Clone()),
			Plan:    account.Set(weekly.Clone()),
		}
		if s.ShoppingList != nil {
			patch.ShoppingList = account.Set(s.ShoppingList.Clone())
		}
		return s, []Intent{IntentPersistState{Patch: patch}}

	case EventGenerateFailed:
		// The drafted list stays available; the user can retry confirmation.
		s.Busy = false
		s.BusyMessage = ""
		s.Err = Classify(ev.Err)
		return s, nil

	case EventFoodSwapRequested:
		food, ok := findFood(s.Plan, ev.DayIndex, ev.MealType, ev.FoodID)
		if !ok || s.Profile == nil {
			return s, nil
		}
		s.pendingFoodSwap = &foodSwapTarget{
			DayIndex: ev.DayIndex,
			MealType: ev.MealType,
			FoodID:   ev.FoodID,
		}
		s.Busy = true
		s.BusyMessage = MsgSubstitutingFood
		return s, []Intent{IntentSubstituteFood{
			Food:     food,
			MealType: ev.MealType,
			Goal:     s.Profile.Goal,
			InStock:  s.inStockNames(),
		}}

	case EventFoodSwapped:
		s.Busy = false
		s.BusyMessage = ""
		target := s.pendingFoodSwap
		s.pendingFoodSwap = nil
		if target == nil || s.Plan == nil {
			return s, nil
		}
		weekly := s.Plan.Clone()
		replaceFood(&weekly, *target, ev.Food)
		s.Plan = &weekly
		// Plan edits are not persisted immediately; saving is on demand.
		return s, nil

	case EventShoppingSwapRequested:
		if s.ShoppingList == nil {
			return s, nil
		}
		item, ok := findItem(*s.ShoppingList, ev.Name, ev.Category)
		if !ok {
			return s, nil
		}
		budget := ev.Budget
		if budget == "" {
			budget = plan.BudgetEconomical
		}
		s.pendingItemSwap = &itemSwapTarget{Name: ev.Name, Category: ev.Category}
		s.Busy = true
		s.BusyMessage = MsgSubstitutingItem
		return s, []Intent{IntentSubstituteItem{Item: item, Budget: budget}}

	case EventShoppingSwapped:
		s.Busy = false
		s.BusyMessage = ""
		target := s.pendingItemSwap
		s.pendingItemSwap = nil
		if target == nil || s.ShoppingList == nil {
			return s, nil
		}
		list := s.ShoppingList.Clone()
		for i, item := range list.Items {
			if item.Name == target.Name && item.Category == target.Category {
				list.Items[i] = ev.Item
			}
		}
		s.ShoppingList = &list
		return s, nil

	case EventSwapFailed:
		s.Busy = false
		s.BusyMessage = ""
		s.pendingFoodSwap = nil
		s.pendingItemSwap = nil
		return s, nil

	case EventConsolidateRequested:
		if s.Plan == nil {
			return s, nil
		}
		s.Busy = true
		s.BusyMessage = MsgConsolidatingList
		return s, []Intent{IntentConsolidate{
			Plan:     s.Plan.Clone(),
			Duration: ev.Duration,
			Budget:   ev.Budget,
		}}

	case EventListConsolidated:
		list := ev.List.Clone()
		s.ShoppingList = &list
		s.Busy = false
		s.BusyMessage = ""
		return s, nil

	case EventConsolidateFailed:
		s.Busy = false
		s.BusyMessage = ""
		return s, nil

	case EventItemToggled:
		if s.ShoppingList == nil {
			return s, nil
		}
		list := s.ShoppingList.Clone()
		for i, item := range list.Items {
			if item.Name == ev.Name {
				list.Items[i].Checked = !item.Checked
			}
		}
		s.ShoppingList = &list
		return s, nil

	case EventSavePlan:
		if s.Profile == nil || s.Plan == nil {
			return s, nil
		}
		saved := plan.SavedPlan{
			ID:          ev.ID,
			Name:        ev.Name,
			CreatedAt:   ev.CreatedAt,
			PlanData:    s.Plan.Clone(),
			UserProfile: s.Profile.Clone(),
		}
		if s.ShoppingList != nil {
			list := s.ShoppingList.Clone()
			saved.ShoppingList = &list
		}
		// Optimistic prepend; the remote write is fire and forget.
		s.SavedPlans = append([]plan.SavedPlan{saved}, s.SavedPlans...)
		return s, []Intent{IntentSavePlan{Saved: saved.Clone()}}

	case EventLoadSavedPlan:
		saved, ok := findSaved(s.SavedPlans, ev.ID)
		if !ok {
			return s, nil
		}
		profile := saved.UserProfile.Clone()
		weekly := saved.PlanData.Clone()
		s.Profile = &profile
		s.Plan = &weekly
		s.ShoppingList = nil
		patch := account.StatePatch{
			Profile: account.Set(saved.UserProfile.Clone()),
			Plan:    account.Set(saved.PlanData.Clone()),
		}
		if saved.ShoppingList != nil {
			list := saved.ShoppingList.Clone()
			s.ShoppingList = &list
			patch.ShoppingList = account.Set(saved.ShoppingList.Clone())
		} else {
			patch.ShoppingList = account.Clear[plan.ShoppingListResult]()
		}
		s.View = ViewDashboard
		return s, []Intent{IntentPersistState{Patch: patch}}

	case EventDeleteSavedPlan:
		kept := make([]plan.SavedPlan, 0, len(s.SavedPlans))
		for _, sp := range s.SavedPlans {
			if sp.ID != ev.ID {
				kept = append(kept, sp)
			}
		}
		s.SavedPlans = kept
		// Always forwarded; the executor treats remote not-found as success.
		return s, []Intent{IntentDeleteSavedPlan{PlanID: ev.ID}}

	case EventLogAdded:
		logs := append(append([]plan.BodyMetricLog(nil), s.Logs...), ev.Log)
		sort.SliceStable(logs, func(i, j int) bool {
			return logs[i].Date.Before(logs[j].Date)
		})
		s.Logs = logs
		return s, []Intent{IntentAppendLog{Log: ev.Log}}

	case EventNavigate:
		return navigate(s, ev.Target), nil

	case EventReset:
		return resetFlow(s), []Intent{clearTripleIntent()}

	case EventErrorAcknowledged:
		next := resetFlow(s)
		next.Err = nil
		return next, []Intent{clearTripleIntent()}

	case EventLogout:
		return State{View: ViewUnauthenticated}, nil
	}

	return s, nil
}

// hydrate builds the initial state from a loaded account. Both profile and
// plan must be present to land on the dashboard; otherwise onboarding.
func hydrate(acct *plan.UserAccount) (State, []Intent) {
	if acct == nil {
		return State{View: ViewUnauthenticated}, nil
	}

	s := State{
		View:       ViewOnboarding,
		SavedPlans: make([]plan.SavedPlan, 0, len(acct.SavedPlans)),
		Logs:       append([]plan.BodyMetricLog(nil), acct.Logs...),
	}
	for _, sp := range acct.SavedPlans {
		s.SavedPlans = append(s.SavedPlans, sp.Clone())
	}

	if acct.HasCurrentPlan() {
		profile := acct.CurrentProfile.Clone()
		weekly := acct.CurrentPlan.Clone()
		s.Profile = &profile
		s.Plan = &weekly
		if acct.CurrentShoppingList != nil {
			list := acct.CurrentShoppingList.Clone()
			s.ShoppingList = &list
		}
		s.View = ViewDashboard
	}

	return s, nil
}

// confirmList keeps only the selected item names from the draft, each
// marked checked.
func confirmList(draft plan.ShoppingListResult, selected []string) plan.ShoppingListResult {
	chosen := make(map[string]bool, len(selected))
	for _, name := range selected {
		chosen[name] = true
	}

	confirmed := plan.ShoppingListResult{EstimatedCost: draft.EstimatedCost}
	for _, item := range draft.Items {
		if chosen[item.Name] {
			item.Checked = true
			confirmed.Items = append(confirmed.Items, item)
		}
	}
	return confirmed
}

func findFood(weekly *plan.WeeklyPlanData, dayIndex int, mealType plan.MealType, foodID string) (plan.FoodItem, bool) {
	if weekly == nil || dayIndex < 0 || dayIndex >= len(weekly.Days) {
		return plan.FoodItem{}, false
	}
	for _, meal := range weekly.Days[dayIndex].Meals {
		if meal.Type != mealType {
			continue
		}
		for _, food := range meal.Foods {
			if food.ID == foodID {
				return food, true
			}
		}
	}
	return plan.FoodItem{}, false
}

// replaceFood swaps exactly one food in-place within the (already cloned)
// weekly plan.
func replaceFood(weekly *plan.WeeklyPlanData, target foodSwapTarget, replacement plan.FoodItem) {
	if target.DayIndex < 0 || target.DayIndex >= len(weekly.Days) {
		return
	}
	meals := weekly.Days[target.DayIndex].Meals
	for mi := range meals {
		if meals[mi].Type != target.MealType {
			continue
		}
		for fi := range meals[mi].Foods {
			if meals[mi].Foods[fi].ID == target.FoodID {
				meals[mi].Foods[fi] = replacement
				return
			}
		}
	}
}

func findItem(list plan.ShoppingListResult, name, category string) (plan.ShoppingItem, bool) {
	for _, item := range list.Items {
		if item.Name == name && item.Category == category {
			return item, true
		}
	}
	return plan.ShoppingItem{}, false
}

func findSaved(saved []plan.SavedPlan, id string) (plan.SavedPlan, bool) {
	for _, sp := range saved {
		if sp.ID == id {
			return sp, true
		}
	}
	return plan.SavedPlan{}, false
}

// navigate handles pure view changes between the post-plan screens.
func navigate(s State, target View) State {
	switch target {
	case ViewSavedPlans, ViewProgress:
		s.View = target
	case ViewDashboard:
		// Back from saved plans lands on the dashboard only when a plan
		// is live.
		if s.Plan != nil {
			s.View = ViewDashboard
		} else {
			s.View = ViewOnboarding
		}
	}
	return s
}

// resetFlow clears the live triple and returns to onboarding. Saved plans
// and logs survive a reset.
func resetFlow(s State) State {
	s.Profile = nil
	s.Plan = nil
	s.SuggestedList = nil
	s.ShoppingList = nil
	s.Busy = false
	s.BusyMessage = ""
	s.pendingFoodSwap = nil
	s.pendingItemSwap = nil
	s.View = ViewOnboarding
	return s
}

func clearTripleIntent() Intent {
	return IntentPersistState{Patch: account.StatePatch{
		Profile:      account.Clear[plan.UserProfile](),
		Plan:         account.Clear[plan.WeeklyPlanData](),
		ShoppingList: account.Clear[plan.ShoppingListResult](),
	}}
}
