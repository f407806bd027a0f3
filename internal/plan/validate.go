package plan

// FieldError is a validation error attached to a specific profile field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validFastingHours reports whether h is one of the supported windows.
func validFastingHours(h int) bool {
	for _, v := range FastingHours {
		if v == h {
			return true
		}
	}
	return false
}

// Validate checks the profile against the onboarding preconditions. A
// profile that fails validation must never reach the generation gateway.
func (p *UserProfile) Validate() []FieldError {
	var errs []FieldError

	if p.Age <= 0 {
		errs = append(errs, FieldError{Field: "age", Message: "must be positive"})
	}
	if p.WeightKg <= 0 {
		errs = append(errs, FieldError{Field: "weightKg", Message: "must be positive"})
	}
	if p.HeightCm <= 0 {
		errs = append(errs, FieldError{Field: "heightCm", Message: "must be positive"})
	}
	if p.Gender != GenderMale && p.Gender != GenderFemale {
		errs = append(errs, FieldError{Field: "gender", Message: "unknown gender"})
	}

	switch p.ActivityLevel {
	case ActivitySedentary, ActivityLightlyActive, ActivityModeratelyActive,
		ActivityVeryActive, ActivityExtraActive:
	default:
		errs = append(errs, FieldError{Field: "activityLevel", Message: "unknown activity level"})
	}

	switch p.Goal {
	case GoalFatLossModerate, GoalFatLossMedium, GoalFatLossHigh, GoalMaintain,
		GoalHypertrophyMedium, GoalHypertrophyHigh, GoalRecomposition:
	default:
		errs = append(errs, FieldError{Field: "goal", Message: "unknown goal"})
	}

	if len(p.SelectedMeals) == 0 {
		errs = append(errs, FieldError{Field: "selectedMeals", Message: "at least one meal must be selected"})
	}
	for _, m := range p.SelectedMeals {
		switch m {
		case MealBreakfast, MealLunch, MealAfternoonSnack, MealDinner, MealSupper:
		default:
			errs = append(errs, FieldError{Field: "selectedMeals", Message: "unknown meal type: " + string(m)})
		}
	}

	if p.Fasting.Enabled {
		if !validFastingHours(p.Fasting.Hours) {
			errs = append(errs, FieldError{Field: "intermittentFasting.hours", Message: "must be one of 12, 14, 16, 18, 20, 24"})
		}
		if len(p.Fasting.Days) == 0 {
			errs = append(errs, FieldError{Field: "intermittentFasting.days", Message: "fasting is enabled but no active days selected"})
		}
	}

	return errs
}
