package nutrition

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nutriweek/nutriweek/internal/plan"
)

// Human-readable labels used inside generation instructions.

var goalLabels = map[plan.Goal]string{
	plan.GoalFatLossModerate:   "fat loss (moderate)",
	plan.GoalFatLossMedium:     "fat loss (medium)",
	plan.GoalFatLossHigh:       "fat loss (aggressive)",
	plan.GoalMaintain:          "maintain weight",
	plan.GoalHypertrophyMedium: "hypertrophy (medium)",
	plan.GoalHypertrophyHigh:   "hypertrophy (high performance)",
	plan.GoalRecomposition:     "body recomposition (lose fat and gain muscle)",
}

var activityLabels = map[plan.ActivityLevel]string{
	plan.ActivitySedentary:        "sedentary (little or no exercise)",
	plan.ActivityLightlyActive:    "lightly active (1-3 days/week)",
	plan.ActivityModeratelyActive: "moderately active (3-5 days/week)",
	plan.ActivityVeryActive:       "very active (6-7 days/week)",
	plan.ActivityExtraActive:      "extremely active (heavy physical work)",
}

var mealLabels = map[plan.MealType]string{
	plan.MealBreakfast:      "breakfast",
	plan.MealLunch:          "lunch",
	plan.MealAfternoonSnack: "afternoon snack",
	plan.MealDinner:         "dinner",
	plan.MealSupper:         "supper",
}

var budgetLabels = map[plan.ShoppingBudget]string{
	plan.BudgetEconomical: "economical",
	plan.BudgetPremium:    "premium",
}

var durationLabels = map[plan.ShoppingDuration]string{
	plan.DurationWeekly:   "weekly (7 days)",
	plan.DurationBiweekly: "biweekly (15 days)",
	plan.DurationMonthly:  "monthly (30 days)",
}

func mealList(meals []plan.MealType) string {
	labels := make([]string, len(meals))
	for i, m := range meals {
		labels[i] = mealLabels[m]
	}
	return strings.Join(labels, ", ")
}

// draftListInstruction asks for a suggested one-week shopping list from the
// profile alone, before any plan exists.
func draftListInstruction(profile plan.UserProfile, budget plan.ShoppingBudget) string {
	return fmt.Sprintf(`Act as a nutritionist. Create a SUGGESTED SHOPPING LIST for a client with the following profile, to last one week:

PROFILE:
- Goal: %s
- Desired meals: %s
- Cost profile: %s

The list must contain the essential, basic ingredients to reach that goal.
For example: for hypertrophy, focus on protein sources (chicken, eggs) and clean carbohydrates (rice, potatoes). For weight loss, focus on vegetables and lean proteins.

Return JSON with categories and estimated quantities for one week.`,
		goalLabels[profile.Goal], mealList(profile.SelectedMeals), budgetLabels[budget])
}

// weeklyPlanInstruction builds the full weekly-plan prompt including the
// fasting protocol, ingredient constraint, and cheat-day blocks.
func weeklyPlanInstruction(profile plan.UserProfile, ingredients []string) string {
	fasting := "No intermittent fasting."
	if profile.Fasting.Enabled {
		fasting = fmt.Sprintf("Fasting protocol: %d hours of fasting, starting at %s. Fasting days: %s.",
			profile.Fasting.Hours, profile.Fasting.StartTime, strings.Join(profile.Fasting.Days, ", "))
	}

	var ingredientBlock string
	if len(ingredients) > 0 {
		ingredientBlock = fmt.Sprintf(`

*** CRITICAL PANTRY RULE ***:
The menu must be built EXCLUSIVELY (or predominantly) from the following ingredients the user has already selected/purchased:
INGREDIENT LIST: %s.

Be creative with these ingredients. Avoid adding items outside this list unless they are basic seasonings (salt, oil, etc).`,
			strings.Join(ingredients, ", "))
	}

	var cheatDayBlock string
	if profile.CheatDay != "" {
		cheatDayBlock = fmt.Sprintf(`

*** CHEAT DAY ***:
The user selected "%s" as a diet-free day.
For that specific day in the 'days' array:
1. Do NOT generate restricted calories. Set 'totalCalories' and 'dailyCalories' to a symbolic value or zero.
2. In that day's meals, name the food "Free meal" or pleasant generic suggestions (e.g. pizza, burger, barbecue).
3. Include a note of encouragement to enjoy the day.`,
			profile.CheatDay)
	}

	return fmt.Sprintf(`Act as an elite sports nutritionist.
Create a HIGHLY personalized weekly (7-day) meal plan.

CLIENT DATA:
- Age: %d | Weight: %.1fkg | Height: %.0fcm | Gender: %s
- Activity level: %s
- SPECIFIC GOAL: %s
- INTERMITTENT FASTING CONFIGURATION: %s
- Desired meals: %s.%s%s

STRATEGIC GUIDELINES:
1. Calculations: use Mifflin-St Jeor for BMR. Calculate the TDEE.
2. Calorie and macro adjustment by goal:
   - Fat loss (moderate/medium/aggressive): calorie deficit of 15-30%% depending on intensity; prioritize protein (2g/kg) for satiety.
   - Hypertrophy (medium/high): calorie surplus of 200-500kcal; high protein (1.6-2.2g/kg).
   - Maintain/recomposition: adjust as needed.
3. Intermittent fasting (if active): fit meal times into the eating window; on fasting days ensure the needed calorie density inside the window.
4. Food selection: use ONLY the ingredient list above as the main base. Combine carbohydrates and proteins appropriately for the goal.
5. Sugars/sweeteners: explicitly indicate substitution options (stevia, xylitol, erythritol) when the user is pursuing weight loss.

FORMAT:
- Return ONLY JSON.`,
		profile.Age, profile.WeightKg, profile.HeightCm, profile.Gender,
		activityLabels[profile.ActivityLevel], goalLabels[profile.Goal],
		fasting, mealList(profile.SelectedMeals), ingredientBlock, cheatDayBlock)
}

// foodSubstituteInstruction asks for one direct replacement for a food.
func foodSubstituteInstruction(food plan.FoodItem, mealType plan.MealType, goal plan.Goal, available []string) string {
	var inventoryBlock string
	if len(available) > 0 {
		inventoryBlock = fmt.Sprintf(`

IMPORTANT: the user HAS THESE INGREDIENTS AT HOME: %s.
PRIORITIZE one of them if nutritionally adequate for the goal.`,
			strings.Join(available, ", "))
	}

	return fmt.Sprintf(`Suggest ONE direct substitution for the following food in a meal plan:
Original food: %s (%s) - %.0fkcal.
Meal: %s.
User goal: %s.%s

If the original food is sugar or a simple carbohydrate, prioritize natural sweeteners (stevia, xylitol, erythritol) or whole-grain / low-glycemic options.
Keep the calorie equivalence adequate for the goal.`,
		food.Name, food.Weight, food.Calories, mealLabels[mealType], goalLabels[goal], inventoryBlock)
}

// shoppingSubstituteInstruction asks for one replacement shopping item.
func shoppingSubstituteInstruction(item plan.ShoppingItem, budget plan.ShoppingBudget) string {
	return fmt.Sprintf(`The user wants to replace this shopping list item: "%s" (%s).
Category: %s.
Cost profile: %s.

Suggest an equivalent or alternative item commonly found in supermarkets (e.g. if the item is an expensive fruit, suggest a cheaper in-season one; if it is a cut of meat, suggest a similar cut).
Keep the quantity proportionally adequate.`,
		item.Name, item.Quantity, item.Category, budgetLabels[budget])
}

// consolidatedListInstruction asks for a consolidated shopping list from a
// simplified serialization of the full plan.
func consolidatedListInstruction(weekly plan.WeeklyPlanData, duration plan.ShoppingDuration, budget plan.ShoppingBudget) string {
	// A simplified plan keeps the prompt small: day plus "name (weight)"
	// strings, nothing else.
	type simpleDay struct {
		Day   string   `json:"day"`
		Foods []string `json:"foods"`
	}
	simplified := make([]simpleDay, 0, len(weekly.Days))
	for _, d := range weekly.Days {
		sd := simpleDay{Day: d.Day}
		for _, m := range d.Meals {
			for _, f := range m.Foods {
				sd.Foods = append(sd.Foods, fmt.Sprintf("%s (%s)", f.Name, f.Weight))
			}
		}
		simplified = append(simplified, sd)
	}
	planJSON, _ := json.Marshal(simplified)

	return fmt.Sprintf(`Based on this weekly meal plan (JSON below), generate a consolidated shopping list.

CONFIGURATION:
- List duration: %s (compute the required quantities by multiplying the weekly consumption).
- Cost profile: %s.

PROFILE RULES:
- If "economical": suggest best value-for-money cuts of meat, in-season fruit, generic brands; avoid expensive superfluous items. Replace expensive items with cheaper nutritional equivalents when needed (e.g. salmon -> sardines or tilapia).
- If "premium": suggest organic items, prime cuts, reference brands, imported products where applicable.

OUTPUT:
- Return JSON with the items grouped by category (produce, butcher, grocery, dairy, other).
- Estimate the total cost descriptively (e.g. "low - approx $200" or "high").

MEAL PLAN (SUMMARY):
%s`,
		durationLabels[duration], budgetLabels[budget], planJSON)
}
