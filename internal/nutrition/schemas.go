package nutrition

// Output schemas for the five generation operations. Required fields here
// are what (*Schema).Validate enforces on the returned documents.

func shoppingItemSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"name":     {Type: TypeString, Description: "Item name (e.g. chicken breast)"},
			"quantity": {Type: TypeString, Description: "Estimated quantity for the period"},
			"category": {Type: TypeString, Description: "Category label (produce, butcher, grocery, dairy, other)"},
		},
		Required: []string{"name", "quantity", "category"},
	}
}

func shoppingListSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"items":         {Type: TypeArray, Items: shoppingItemSchema()},
			"estimatedCost": {Type: TypeString, Description: "Descriptive total cost estimate"},
		},
		Required: []string{"items", "estimatedCost"},
	}
}

func foodSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"name":               {Type: TypeString, Description: "Food name"},
			"weight":             {Type: TypeString, Description: "Portion (e.g. 100g, 1 unit)"},
			"calories":           {Type: TypeNumber, Description: "Approximate calories"},
			"glycemicIndex":      {Type: TypeString, Description: "Glycemic index: low, medium or high"},
			"isSugarOrSweetener": {Type: TypeBoolean, Description: "True if the item is sugar or a sweetener"},
		},
		Required: []string{"name", "weight", "calories", "glycemicIndex"},
	}
}

func mealSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"type":          {Type: TypeString, Description: "Meal type (e.g. breakfast)"},
			"foods":         {Type: TypeArray, Items: foodSchema()},
			"totalCalories": {Type: TypeNumber},
		},
		Required: []string{"type", "foods", "totalCalories"},
	}
}

func daySchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"day":           {Type: TypeString, Description: "Day of the week"},
			"meals":         {Type: TypeArray, Items: mealSchema()},
			"dailyCalories": {Type: TypeNumber},
		},
		Required: []string{"day", "meals", "dailyCalories"},
	}
}

func weeklyPlanSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"bmr":            {Type: TypeNumber, Description: "Calculated basal metabolic rate"},
			"tdee":           {Type: TypeNumber, Description: "Calculated total daily energy expenditure"},
			"targetCalories": {Type: TypeNumber, Description: "Daily calorie target for the goal"},
			"days":           {Type: TypeArray, Items: daySchema()},
		},
		Required: []string{"bmr", "tdee", "targetCalories", "days"},
	}
}
