package plan

// Clone returns a deep copy of the weekly plan. Saved plan snapshots and
// loads go through copies so live edits never alias archived data.
func (p WeeklyPlanData) Clone() WeeklyPlanData {
	out := p
	out.Days = make([]DailyPlan, len(p.Days))
	for i, d := range p.Days {
		day := d
		day.Meals = make([]Meal, len(d.Meals))
		for j, m := range d.Meals {
			meal := m
			meal.Foods = make([]FoodItem, len(m.Foods))
			copy(meal.Foods, m.Foods)
			day.Meals[j] = meal
		}
		out.Days[i] = day
	}
	return out
}

// Clone returns a deep copy of the shopping list.
func (l ShoppingListResult) Clone() ShoppingListResult {
	out := l
	out.Items = make([]ShoppingItem, len(l.Items))
	copy(out.Items, l.Items)
	return out
}

// Clone returns a deep copy of the profile.
func (p UserProfile) Clone() UserProfile {
	out := p
	out.SelectedMeals = make([]MealType, len(p.SelectedMeals))
	copy(out.SelectedMeals, p.SelectedMeals)
	out.Fasting.Days = make([]string, len(p.Fasting.Days))
	copy(out.Fasting.Days, p.Fasting.Days)
	return out
}

// Clone returns a deep copy of the saved plan snapshot.
func (s SavedPlan) Clone() SavedPlan {
	out := s
	out.PlanData = s.PlanData.Clone()
	out.UserProfile = s.UserProfile.Clone()
	if s.ShoppingList != nil {
		list := s.ShoppingList.Clone()
		out.ShoppingList = &list
	}
	return out
}
