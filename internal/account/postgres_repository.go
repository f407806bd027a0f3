package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriweek/nutriweek/internal/plan"
)

// PostgresStateRepository is a PostgreSQL implementation of StateRepository.
type PostgresStateRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStateRepository creates a new PostgreSQL state repository.
func NewPostgresStateRepository(pool *pgxpool.Pool) *PostgresStateRepository {
	return &PostgresStateRepository{pool: pool}
}

// Get retrieves the state record for a user.
func (r *PostgresStateRepository) Get(ctx context.Context, userID string) (*StateRecord, error) {
	query := `
		SELECT user_id, profile, current_plan, shopping_list, last_notification
		FROM user_state
		WHERE user_id = $1
	`

	var (
		record       StateRecord
		profileJSON  []byte
		planJSON     []byte
		listJSON     []byte
		notification *time.Time
	)

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&record.UserID,
		&profileJSON,
		&planJSON,
		&listJSON,
		&notification,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStateNotFound
		}
		return nil, err
	}

	record.LastNotification = notification
	if err := unmarshalInto(profileJSON, &record.Profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if err := unmarshalInto(planJSON, &record.Plan); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	if err := unmarshalInto(listJSON, &record.ShoppingList); err != nil {
		return nil, fmt.Errorf("decoding shopping list: %w", err)
	}

	return &record, nil
}

// unmarshalInto decodes a jsonb column into *dst, leaving dst nil for SQL
// NULL.
func unmarshalInto[T any](raw []byte, dst **T) error {
	if len(raw) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

// CreateDefault inserts an empty state record for the user. Conflicts are
// ignored so concurrent self-healing cannot fail.
func (r *PostgresStateRepository) CreateDefault(ctx context.Context, userID string) error {
	query := `
		INSERT INTO user_state (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

// Patch upserts only the fields the patch carries.
func (r *PostgresStateRepository) Patch(ctx context.Context, userID string, patch StatePatch) error {
	if patch.Empty() {
		return nil
	}

	columns := []string{"user_id"}
	args := []interface{}{userID}

	addJSON := func(column string, value interface{}, present bool) error {
		if !present {
			return nil
		}
		columns = append(columns, column)
		if value == nil {
			args = append(args, nil)
			return nil
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", column, err)
		}
		args = append(args, raw)
		return nil
	}

	var profileValue, planValue, listValue interface{}
	if v := patch.Profile.Value(); v != nil {
		profileValue = v
	}
	if v := patch.Plan.Value(); v != nil {
		planValue = v
	}
	if v := patch.ShoppingList.Value(); v != nil {
		listValue = v
	}

	if err := addJSON("profile", profileValue, patch.Profile.IsSet()); err != nil {
		return err
	}
	if err := addJSON("current_plan", planValue, patch.Plan.IsSet()); err != nil {
		return err
	}
	if err := addJSON("shopping_list", listValue, patch.ShoppingList.IsSet()); err != nil {
		return err
	}
	if patch.LastNotification.IsSet() {
		columns = append(columns, "last_notification")
		if v := patch.LastNotification.Value(); v != nil {
			args = append(args, *v)
		} else {
			args = append(args, nil)
		}
	}

	placeholders := make([]string, len(columns))
	updates := make([]string, 0, len(columns)-1)
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col != "user_id" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO user_state (%s)
		VALUES (%s)
		ON CONFLICT (user_id) DO UPDATE SET %s
	`, strings.Join(columns, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))

	_, err := r.pool.Exec(ctx, query, args...)
	return err
}

// DueForReminder finds users due a measurement reminder.
func (r *PostgresStateRepository) DueForReminder(ctx context.Context, logBefore, notifiedBefore time.Time) ([]string, error) {
	query := `
		SELECT s.user_id
		FROM user_state s
		WHERE (s.last_notification IS NULL OR s.last_notification < $2)
		  AND NOT EXISTS (
			SELECT 1 FROM body_logs l
			WHERE l.user_id = s.user_id AND l.date >= $1
		  )
	`

	rows, err := r.pool.Query(ctx, query, logBefore, notifiedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

// PostgresLogRepository is a PostgreSQL implementation of LogRepository.
type PostgresLogRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLogRepository creates a new PostgreSQL log repository.
func NewPostgresLogRepository(pool *pgxpool.Pool) *PostgresLogRepository {
	return &PostgresLogRepository{pool: pool}
}

// ListByUser returns all body logs for a user, oldest first.
func (r *PostgresLogRepository) ListByUser(ctx context.Context, userID string) ([]plan.BodyMetricLog, error) {
	query := `
		SELECT date, weight, neck, biceps, chest, waist, hips
		FROM body_logs
		WHERE user_id = $1
		ORDER BY date ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []plan.BodyMetricLog
	for rows.Next() {
		var log plan.BodyMetricLog
		err := rows.Scan(&log.Date, &log.Weight, &log.Neck, &log.Biceps, &log.Chest, &log.Waist, &log.Hips)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// Append inserts one log entry.
func (r *PostgresLogRepository) Append(ctx context.Context, userID string, log plan.BodyMetricLog) error {
	query := `
		INSERT INTO body_logs (user_id, date, weight, neck, biceps, chest, waist, hips)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query, userID, log.Date, log.Weight, log.Neck, log.Biceps, log.Chest, log.Waist, log.Hips)
	return err
}

// PostgresSavedPlanRepository is a PostgreSQL implementation of
// SavedPlanRepository.
type PostgresSavedPlanRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSavedPlanRepository creates a new PostgreSQL saved plan
// repository.
func NewPostgresSavedPlanRepository(pool *pgxpool.Pool) *PostgresSavedPlanRepository {
	return &PostgresSavedPlanRepository{pool: pool}
}

// ListByUser returns all saved plans for a user, newest first.
func (r *PostgresSavedPlanRepository) ListByUser(ctx context.Context, userID string) ([]plan.SavedPlan, error) {
	query := `
		SELECT id, name, created_at, plan_data, user_profile, shopping_list
		FROM saved_plans
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []plan.SavedPlan
	for rows.Next() {
		var (
			saved       plan.SavedPlan
			planJSON    []byte
			profileJSON []byte
			listJSON    []byte
		)
		err := rows.Scan(&saved.ID, &saved.Name, &saved.CreatedAt, &planJSON, &profileJSON, &listJSON)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(planJSON, &saved.PlanData); err != nil {
			return nil, fmt.Errorf("decoding plan data: %w", err)
		}
		if err := json.Unmarshal(profileJSON, &saved.UserProfile); err != nil {
			return nil, fmt.Errorf("decoding profile: %w", err)
		}
		if err := unmarshalInto(listJSON, &saved.ShoppingList); err != nil {
			return nil, fmt.Errorf("decoding shopping list: %w", err)
		}
		plans = append(plans, saved)
	}
	return plans, rows.Err()
}

// Create inserts a snapshot keyed by its pre-generated id.
func (r *PostgresSavedPlanRepository) Create(ctx context.Context, userID string, saved plan.SavedPlan) error {
	planJSON, err := json.Marshal(saved.PlanData)
	if err != nil {
		return fmt.Errorf("encoding plan data: %w", err)
	}
	profileJSON, err := json.Marshal(saved.UserProfile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	var listJSON []byte
	if saved.ShoppingList != nil {
		listJSON, err = json.Marshal(saved.ShoppingList)
		if err != nil {
			return fmt.Errorf("encoding shopping list: %w", err)
		}
	}

	query := `
		INSERT INTO saved_plans (id, user_id, name, created_at, plan_data, user_profile, shopping_list)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query, saved.ID, userID, saved.Name, saved.CreatedAt, planJSON, profileJSON, listJSON)
	return err
}

// Delete removes a snapshot, scoped to the owning user.
func (r *PostgresSavedPlanRepository) Delete(ctx context.Context, userID, planID string) error {
	query := `DELETE FROM saved_plans WHERE id = $1 AND user_id = $2`
	result, err := r.pool.Exec(ctx, query, planID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSavedPlanNotFound
	}
	return nil
}

// Interface checks.
var (
	_ StateRepository     = (*PostgresStateRepository)(nil)
	_ LogRepository       = (*PostgresLogRepository)(nil)
	_ SavedPlanRepository = (*PostgresSavedPlanRepository)(nil)
)
