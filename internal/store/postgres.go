// Package store provides storage backends for the guided-program engine.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants.
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ListStepProgress(userID string) ([]models.StepProgress, error) {
	rows, err := s.db.Query(`SELECT user_id, step_number, step_name, completed, completed_at, available, created_at, updated_at
		FROM step_progress WHERE user_id = $1 ORDER BY step_number`, userID)
	if err != nil {
		slog.Error("PostgresStore ListStepProgress query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query step progress: %w", err)
	}
	defer rows.Close()
	return collectStepProgress(rows)
}

func (s *PostgresStore) UpsertStepProgress(p models.StepProgress) error {
	_, err := s.db.Exec(`INSERT INTO step_progress (user_id, step_number, step_name, completed, completed_at, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, step_number) DO UPDATE SET
			step_name    = EXCLUDED.step_name,
			completed    = (step_progress.completed OR EXCLUDED.completed),
			completed_at = CASE WHEN EXCLUDED.completed THEN EXCLUDED.completed_at ELSE step_progress.completed_at END,
			available    = (step_progress.available OR EXCLUDED.available),
			updated_at   = EXCLUDED.updated_at`,
		p.UserID, p.StepNumber, p.StepName, p.Completed, p.CompletedAt, p.Available, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore UpsertStepProgress failed", "error", err, "userID", p.UserID, "step", p.StepNumber)
		return fmt.Errorf("failed to upsert step progress for step %d: %w", p.StepNumber, err)
	}
	slog.Debug("PostgresStore UpsertStepProgress succeeded", "userID", p.UserID, "step", p.StepNumber, "completed", p.Completed)
	return nil
}

func (s *PostgresStore) MarkStepAvailable(userID string, stepNumber int, stepName string) error {
	now := time.Now()
	_, err := s.db.Exec(`INSERT INTO step_progress (user_id, step_number, step_name, completed, available, created_at, updated_at)
		VALUES ($1, $2, $3, FALSE, TRUE, $4, $5)
		ON CONFLICT (user_id, step_number) DO UPDATE SET
			available  = TRUE,
			updated_at = EXCLUDED.updated_at`,
		userID, stepNumber, stepName, now, now)
	if err != nil {
		slog.Error("PostgresStore MarkStepAvailable failed", "error", err, "userID", userID, "step", stepNumber)
		return fmt.Errorf("failed to mark step %d available: %w", stepNumber, err)
	}
	slog.Debug("PostgresStore MarkStepAvailable succeeded", "userID", userID, "step", stepNumber)
	return nil
}

func (s *PostgresStore) LatestAnswer(userID, formKey, discriminator string) (*models.AnswerRecord, error) {
	row := s.db.QueryRow(`SELECT id, user_id, form_key, discriminator, payload, created_at, updated_at
		FROM step_answers WHERE user_id = $1 AND form_key = $2 AND discriminator = $3
		ORDER BY updated_at DESC LIMIT 1`, userID, formKey, discriminator)
	rec, err := scanAnswerRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore LatestAnswer not found", "userID", userID, "formKey", formKey, "discriminator", discriminator)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore LatestAnswer failed", "error", err, "userID", userID, "formKey", formKey)
		return nil, fmt.Errorf("failed to query latest answer for %s: %w", formKey, err)
	}
	return &rec, nil
}

func (s *PostgresStore) ListAnswers(userID, formKey string) ([]models.AnswerRecord, error) {
	rows, err := s.db.Query(`SELECT id, user_id, form_key, discriminator, payload, created_at, updated_at
		FROM step_answers WHERE user_id = $1 AND form_key = $2 ORDER BY updated_at DESC`, userID, formKey)
	if err != nil {
		slog.Error("PostgresStore ListAnswers query failed", "error", err, "userID", userID, "formKey", formKey)
		return nil, fmt.Errorf("failed to query answers for %s: %w", formKey, err)
	}
	defer rows.Close()
	return collectAnswers(rows)
}

func (s *PostgresStore) InsertAnswer(rec models.AnswerRecord) error {
	_, err := s.db.Exec(`INSERT INTO step_answers (id, user_id, form_key, discriminator, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID, rec.FormKey, rec.Discriminator, rec.Payload, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore InsertAnswer failed", "error", err, "userID", rec.UserID, "formKey", rec.FormKey)
		return fmt.Errorf("failed to insert answer for %s: %w", rec.FormKey, err)
	}
	slog.Debug("PostgresStore InsertAnswer succeeded", "userID", rec.UserID, "formKey", rec.FormKey, "discriminator", rec.Discriminator)
	return nil
}

func (s *PostgresStore) UpdateAnswer(rec models.AnswerRecord) error {
	_, err := s.db.Exec(`UPDATE step_answers SET payload = $1, updated_at = $2 WHERE id = $3`,
		rec.Payload, rec.UpdatedAt, rec.ID)
	if err != nil {
		slog.Error("PostgresStore UpdateAnswer failed", "error", err, "id", rec.ID, "formKey", rec.FormKey)
		return fmt.Errorf("failed to update answer %s: %w", rec.ID, err)
	}
	slog.Debug("PostgresStore UpdateAnswer succeeded", "id", rec.ID, "formKey", rec.FormKey)
	return nil
}

func (s *PostgresStore) UpsertAnswer(rec models.AnswerRecord) error {
	_, err := s.db.Exec(`INSERT INTO step_answers (id, user_id, form_key, discriminator, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, form_key, discriminator) DO UPDATE SET
			payload    = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.UserID, rec.FormKey, rec.Discriminator, rec.Payload, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore UpsertAnswer failed", "error", err, "userID", rec.UserID, "formKey", rec.FormKey)
		return fmt.Errorf("failed to upsert answer for %s: %w", rec.FormKey, err)
	}
	slog.Debug("PostgresStore UpsertAnswer succeeded", "userID", rec.UserID, "formKey", rec.FormKey, "discriminator", rec.Discriminator)
	return nil
}

func (s *PostgresStore) ListFocusedHabits(userID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT habit_id FROM habit_focus WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		slog.Error("PostgresStore ListFocusedHabits query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query focused habits: %w", err)
	}
	defer rows.Close()
	return collectStrings(rows)
}

func (s *PostgresStore) AddFocusedHabit(userID, habitID string) error {
	_, err := s.db.Exec(`INSERT INTO habit_focus (user_id, habit_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, habit_id) DO NOTHING`,
		userID, habitID, time.Now())
	if err != nil {
		slog.Error("PostgresStore AddFocusedHabit failed", "error", err, "userID", userID, "habitID", habitID)
		return fmt.Errorf("failed to add focused habit %s: %w", habitID, err)
	}
	slog.Debug("PostgresStore AddFocusedHabit succeeded", "userID", userID, "habitID", habitID)
	return nil
}

func (s *PostgresStore) GetHabitWeek(userID, habitID string) (*models.HabitWeek, error) {
	row := s.db.QueryRow(`SELECT user_id, habit_id, current_week, obstacles, strategies, is_active, created_at, updated_at
		FROM habit_weeks WHERE user_id = $1 AND habit_id = $2`, userID, habitID)
	var hw models.HabitWeek
	err := row.Scan(&hw.UserID, &hw.HabitID, &hw.CurrentWeek, &hw.Obstacles, &hw.Strategies, &hw.IsActive, &hw.CreatedAt, &hw.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetHabitWeek not found", "userID", userID, "habitID", habitID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetHabitWeek failed", "error", err, "userID", userID, "habitID", habitID)
		return nil, fmt.Errorf("failed to query habit week for %s: %w", habitID, err)
	}
	return &hw, nil
}

func (s *PostgresStore) SaveHabitWeek(hw models.HabitWeek) error {
	_, err := s.db.Exec(`INSERT INTO habit_weeks (user_id, habit_id, current_week, obstacles, strategies, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, habit_id) DO UPDATE SET
			current_week = EXCLUDED.current_week,
			obstacles    = EXCLUDED.obstacles,
			strategies   = EXCLUDED.strategies,
			is_active    = EXCLUDED.is_active,
			updated_at   = EXCLUDED.updated_at`,
		hw.UserID, hw.HabitID, hw.CurrentWeek, hw.Obstacles, hw.Strategies, hw.IsActive, hw.CreatedAt, hw.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveHabitWeek failed", "error", err, "userID", hw.UserID, "habitID", hw.HabitID)
		return fmt.Errorf("failed to save habit week for %s: %w", hw.HabitID, err)
	}
	slog.Debug("PostgresStore SaveHabitWeek succeeded", "userID", hw.UserID, "habitID", hw.HabitID, "week", hw.CurrentWeek)
	return nil
}

func (s *PostgresStore) GetDayPlan(userID, habitID string, planType models.PlanType) (*models.DayPlan, error) {
	row := s.db.QueryRow(`SELECT id, user_id, habit_id, plan_type, description, obstacles, created_at, updated_at
		FROM day_plans WHERE user_id = $1 AND habit_id = $2 AND plan_type = $3`, userID, habitID, planType)
	plan, err := scanDayPlanRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetDayPlan not found", "userID", userID, "habitID", habitID, "planType", planType)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetDayPlan failed", "error", err, "userID", userID, "habitID", habitID, "planType", planType)
		return nil, fmt.Errorf("failed to query %s plan for %s: %w", planType, habitID, err)
	}
	return plan, nil
}

func (s *PostgresStore) SaveDayPlan(p models.DayPlan) error {
	obstaclesJSON, err := encodeObstacles(p.Obstacles)
	if err != nil {
		slog.Error("PostgresStore SaveDayPlan obstacle encode failed", "error", err, "userID", p.UserID, "habitID", p.HabitID)
		return err
	}
	_, err = s.db.Exec(`INSERT INTO day_plans (id, user_id, habit_id, plan_type, description, obstacles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, habit_id, plan_type) DO UPDATE SET
			description = EXCLUDED.description,
			obstacles   = EXCLUDED.obstacles,
			updated_at  = EXCLUDED.updated_at`,
		p.ID, p.UserID, p.HabitID, p.PlanType, p.Description, obstaclesJSON, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveDayPlan failed", "error", err, "userID", p.UserID, "habitID", p.HabitID, "planType", p.PlanType)
		return fmt.Errorf("failed to save %s plan for %s: %w", p.PlanType, p.HabitID, err)
	}
	slog.Debug("PostgresStore SaveDayPlan succeeded", "userID", p.UserID, "habitID", p.HabitID, "planType", p.PlanType)
	return nil
}

func (s *PostgresStore) GetWeeklyStep(userID, habitID string, weekNumber int) (*models.WeeklyStep, error) {
	row := s.db.QueryRow(`SELECT user_id, habit_id, week_number, note, created_at, updated_at
		FROM weekly_steps WHERE user_id = $1 AND habit_id = $2 AND week_number = $3`, userID, habitID, weekNumber)
	var ws models.WeeklyStep
	err := row.Scan(&ws.UserID, &ws.HabitID, &ws.WeekNumber, &ws.Note, &ws.CreatedAt, &ws.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetWeeklyStep not found", "userID", userID, "habitID", habitID, "week", weekNumber)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetWeeklyStep failed", "error", err, "userID", userID, "habitID", habitID, "week", weekNumber)
		return nil, fmt.Errorf("failed to query weekly step %d for %s: %w", weekNumber, habitID, err)
	}
	return &ws, nil
}

func (s *PostgresStore) SaveWeeklyStep(ws models.WeeklyStep) error {
	_, err := s.db.Exec(`INSERT INTO weekly_steps (user_id, habit_id, week_number, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, habit_id, week_number) DO UPDATE SET
			note       = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at`,
		ws.UserID, ws.HabitID, ws.WeekNumber, ws.Note, ws.CreatedAt, ws.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveWeeklyStep failed", "error", err, "userID", ws.UserID, "habitID", ws.HabitID, "week", ws.WeekNumber)
		return fmt.Errorf("failed to save weekly step %d for %s: %w", ws.WeekNumber, ws.HabitID, err)
	}
	slog.Debug("PostgresStore SaveWeeklyStep succeeded", "userID", ws.UserID, "habitID", ws.HabitID, "week", ws.WeekNumber)
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
