package models

import "github.com/nutriweek/nutriweek/internal/plan"

// Me is the account summary returned by GET /v1/me.
type Me struct {
	UserID         string    `json:"userId"`
	Email          string    `json:"email"`
	CreatedAt      Timestamp `json:"createdAt"`
	HasProfile     bool      `json:"hasProfile"`
	HasPlan        bool      `json:"hasPlan"`
	SavedPlanCount int       `json:"savedPlanCount"`
	LogCount       int       `json:"logCount"`
}

// BodyLogList wraps the user's body metric logs, oldest first.
type BodyLogList struct {
	Items []plan.BodyMetricLog `json:"items"`
}

// SavedPlanSummary is a saved plan without its full snapshot payload.
type SavedPlanSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt Timestamp `json:"createdAt"`
}

// SavedPlanList wraps the user's saved plan summaries, newest first.
type SavedPlanList struct {
	Items []SavedPlanSummary `json:"items"`
}
