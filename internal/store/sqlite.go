// Package store provides storage backends for the guided-program engine.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the SQLite database file; the containing
// directory is created when missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) ListStepProgress(userID string) ([]models.StepProgress, error) {
	rows, err := s.db.Query(`SELECT user_id, step_number, step_name, completed, completed_at, available, created_at, updated_at
		FROM step_progress WHERE user_id = ? ORDER BY step_number`, userID)
	if err != nil {
		slog.Error("SQLiteStore ListStepProgress query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query step progress: %w", err)
	}
	defer rows.Close()
	return collectStepProgress(rows)
}

func (s *SQLiteStore) UpsertStepProgress(p models.StepProgress) error {
	_, err := s.db.Exec(`INSERT INTO step_progress (user_id, step_number, step_name, completed, completed_at, available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, step_number) DO UPDATE SET
			step_name    = excluded.step_name,
			completed    = (step_progress.completed OR excluded.completed),
			completed_at = CASE WHEN excluded.completed THEN excluded.completed_at ELSE step_progress.completed_at END,
			available    = (step_progress.available OR excluded.available),
			updated_at   = excluded.updated_at`,
		p.UserID, p.StepNumber, p.StepName, p.Completed, p.CompletedAt, p.Available, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore UpsertStepProgress failed", "error", err, "userID", p.UserID, "step", p.StepNumber)
		return fmt.Errorf("failed to upsert step progress for step %d: %w", p.StepNumber, err)
	}
	slog.Debug("SQLiteStore UpsertStepProgress succeeded", "userID", p.UserID, "step", p.StepNumber, "completed", p.Completed)
	return nil
}

func (s *SQLiteStore) MarkStepAvailable(userID string, stepNumber int, stepName string) error {
	now := time.Now()
	_, err := s.db.Exec(`INSERT INTO step_progress (user_id, step_number, step_name, completed, available, created_at, updated_at)
		VALUES (?, ?, ?, 0, 1, ?, ?)
		ON CONFLICT (user_id, step_number) DO UPDATE SET
			available  = 1,
			updated_at = excluded.updated_at`,
		userID, stepNumber, stepName, now, now)
	if err != nil {
		slog.Error("SQLiteStore MarkStepAvailable failed", "error", err, "userID", userID, "step", stepNumber)
		return fmt.Errorf("failed to mark step %d available: %w", stepNumber, err)
	}
	slog.Debug("SQLiteStore MarkStepAvailable succeeded", "userID", userID, "step", stepNumber)
	return nil
}

func (s *SQLiteStore) LatestAnswer(userID, formKey, discriminator string) (*models.AnswerRecord, error) {
	row := s.db.QueryRow(`SELECT id, user_id, form_key, discriminator, payload, created_at, updated_at
		FROM step_answers WHERE user_id = ? AND form_key = ? AND discriminator = ?
		ORDER BY updated_at DESC LIMIT 1`, userID, formKey, discriminator)
	rec, err := scanAnswerRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore LatestAnswer not found", "userID", userID, "formKey", formKey, "discriminator", discriminator)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore LatestAnswer failed", "error", err, "userID", userID, "formKey", formKey)
		return nil, fmt.Errorf("failed to query latest answer for %s: %w", formKey, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) ListAnswers(userID, formKey string) ([]models.AnswerRecord, error) {
	rows, err := s.db.Query(`SELECT id, user_id, form_key, discriminator, payload, created_at, updated_at
		FROM step_answers WHERE user_id = ? AND form_key = ? ORDER BY updated_at DESC`, userID, formKey)
	if err != nil {
		slog.Error("SQLiteStore ListAnswers query failed", "error", err, "userID", userID, "formKey", formKey)
		return nil, fmt.Errorf("failed to query answers for %s: %w", formKey, err)
	}
	defer rows.Close()
	return collectAnswers(rows)
}

func (s *SQLiteStore) InsertAnswer(rec models.AnswerRecord) error {
	_, err := s.db.Exec(`INSERT INTO step_answers (id, user_id, form_key, discriminator, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.FormKey, rec.Discriminator, rec.Payload, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore InsertAnswer failed", "error", err, "userID", rec.UserID, "formKey", rec.FormKey)
		return fmt.Errorf("failed to insert answer for %s: %w", rec.FormKey, err)
	}
	slog.Debug("SQLiteStore InsertAnswer succeeded", "userID", rec.UserID, "formKey", rec.FormKey, "discriminator", rec.Discriminator)
	return nil
}

func (s *SQLiteStore) UpdateAnswer(rec models.AnswerRecord) error {
	_, err := s.db.Exec(`UPDATE step_answers SET payload = ?, updated_at = ? WHERE id = ?`,
		rec.Payload, rec.UpdatedAt, rec.ID)
	if err != nil {
		slog.Error("SQLiteStore UpdateAnswer failed", "error", err, "id", rec.ID, "formKey", rec.FormKey)
		return fmt.Errorf("failed to update answer %s: %w", rec.ID, err)
	}
	slog.Debug("SQLiteStore UpdateAnswer succeeded", "id", rec.ID, "formKey", rec.FormKey)
	return nil
}

func (s *SQLiteStore) UpsertAnswer(rec models.AnswerRecord) error {
	_, err := s.db.Exec(`INSERT INTO step_answers (id, user_id, form_key, discriminator, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, form_key, discriminator) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = excluded.updated_at`,
		rec.ID, rec.UserID, rec.FormKey, rec.Discriminator, rec.Payload, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore UpsertAnswer failed", "error", err, "userID", rec.UserID, "formKey", rec.FormKey)
		return fmt.Errorf("failed to upsert answer for %s: %w", rec.FormKey, err)
	}
	slog.Debug("SQLiteStore UpsertAnswer succeeded", "userID", rec.UserID, "formKey", rec.FormKey, "discriminator", rec.Discriminator)
	return nil
}

func (s *SQLiteStore) ListFocusedHabits(userID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT habit_id FROM habit_focus WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		slog.Error("SQLiteStore ListFocusedHabits query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query focused habits: %w", err)
	}
	defer rows.Close()
	return collectStrings(rows)
}

func (s *SQLiteStore) AddFocusedHabit(userID, habitID string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO habit_focus (user_id, habit_id, created_at) VALUES (?, ?, ?)`,
		userID, habitID, time.Now())
	if err != nil {
		slog.Error("SQLiteStore AddFocusedHabit failed", "error", err, "userID", userID, "habitID", habitID)
		return fmt.Errorf("failed to add focused habit %s: %w", habitID, err)
	}
	slog.Debug("SQLiteStore AddFocusedHabit succeeded", "userID", userID, "habitID", habitID)
	return nil
}

func (s *SQLiteStore) GetHabitWeek(userID, habitID string) (*models.HabitWeek, error) {
	row := s.db.QueryRow(`SELECT user_id, habit_id, current_week, obstacles, strategies, is_active, created_at, updated_at
		FROM habit_weeks WHERE user_id = ? AND habit_id = ?`, userID, habitID)
	var hw models.HabitWeek
	err := row.Scan(&hw.UserID, &hw.HabitID, &hw.CurrentWeek, &hw.Obstacles, &hw.Strategies, &hw.IsActive, &hw.CreatedAt, &hw.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetHabitWeek not found", "userID", userID, "habitID", habitID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetHabitWeek failed", "error", err, "userID", userID, "habitID", habitID)
		return nil, fmt.Errorf("failed to query habit week for %s: %w", habitID, err)
	}
	return &hw, nil
}

func (s *SQLiteStore) SaveHabitWeek(hw models.HabitWeek) error {
	_, err := s.db.Exec(`INSERT INTO habit_weeks (user_id, habit_id, current_week, obstacles, strategies, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, habit_id) DO UPDATE SET
			current_week = excluded.current_week,
			obstacles    = excluded.obstacles,
			strategies   = excluded.strategies,
			is_active    = excluded.is_active,
			updated_at   = excluded.updated_at`,
		hw.UserID, hw.HabitID, hw.CurrentWeek, hw.Obstacles, hw.Strategies, hw.IsActive, hw.CreatedAt, hw.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveHabitWeek failed", "error", err, "userID", hw.UserID, "habitID", hw.HabitID)
		return fmt.Errorf("failed to save habit week for %s: %w", hw.HabitID, err)
	}
	slog.Debug("SQLiteStore SaveHabitWeek succeeded", "userID", hw.UserID, "habitID", hw.HabitID, "week", hw.CurrentWeek)
	return nil
}

func (s *SQLiteStore) GetDayPlan(userID, habitID string, planType models.PlanType) (*models.DayPlan, error) {
	row := s.db.QueryRow(`SELECT id, user_id, habit_id, plan_type, description, obstacles, created_at, updated_at
		FROM day_plans WHERE user_id = ? AND habit_id = ? AND plan_type = ?`, userID, habitID, planType)
	plan, err := scanDayPlanRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetDayPlan not found", "userID", userID, "habitID", habitID, "planType", planType)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetDayPlan failed", "error", err, "userID", userID, "habitID", habitID, "planType", planType)
		return nil, fmt.Errorf("failed to query %s plan for %s: %w", planType, habitID, err)
	}
	return plan, nil
}

func (s *SQLiteStore) SaveDayPlan(p models.DayPlan) error {
	obstaclesJSON, err := encodeObstacles(p.Obstacles)
	if err != nil {
		slog.Error("SQLiteStore SaveDayPlan obstacle encode failed", "error", err, "userID", p.UserID, "habitID", p.HabitID)
		return err
	}
	_, err = s.db.Exec(`INSERT INTO day_plans (id, user_id, habit_id, plan_type, description, obstacles, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, habit_id, plan_type) DO UPDATE SET
			description = excluded.description,
			obstacles   = excluded.obstacles,
			updated_at  = excluded.updated_at`,
		p.ID, p.UserID, p.HabitID, p.PlanType, p.Description, obstaclesJSON, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveDayPlan failed", "error", err, "userID", p.UserID, "habitID", p.HabitID, "planType", p.PlanType)
		return fmt.Errorf("failed to save %s plan for %s: %w", p.PlanType, p.HabitID, err)
	}
	slog.Debug("SQLiteStore SaveDayPlan succeeded", "userID", p.UserID, "habitID", p.HabitID, "planType", p.PlanType)
	return nil
}

func (s *SQLiteStore) GetWeeklyStep(userID, habitID string, weekNumber int) (*models.WeeklyStep, error) {
	row := s.db.QueryRow(`SELECT user_id, habit_id, week_number, note, created_at, updated_at
		FROM weekly_steps WHERE user_id = ? AND habit_id = ? AND week_number = ?`, userID, habitID, weekNumber)
	var ws models.WeeklyStep
	err := row.Scan(&ws.UserID, &ws.HabitID, &ws.WeekNumber, &ws.Note, &ws.CreatedAt, &ws.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetWeeklyStep not found", "userID", userID, "habitID", habitID, "week", weekNumber)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetWeeklyStep failed", "error", err, "userID", userID, "habitID", habitID, "week", weekNumber)
		return nil, fmt.Errorf("failed to query weekly step %d for %s: %w", weekNumber, habitID, err)
	}
	return &ws, nil
}

func (s *SQLiteStore) SaveWeeklyStep(ws models.WeeklyStep) error {
	_, err := s.db.Exec(`INSERT INTO weekly_steps (user_id, habit_id, week_number, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, habit_id, week_number) DO UPDATE SET
			note       = excluded.note,
			updated_at = excluded.updated_at`,
		ws.UserID, ws.HabitID, ws.WeekNumber, ws.Note, ws.CreatedAt, ws.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveWeeklyStep failed", "error", err, "userID", ws.UserID, "habitID", ws.HabitID, "week", ws.WeekNumber)
		return fmt.Errorf("failed to save weekly step %d for %s: %w", ws.WeekNumber, ws.HabitID, err)
	}
	slog.Debug("SQLiteStore SaveWeeklyStep succeeded", "userID", ws.UserID, "habitID", ws.HabitID, "week", ws.WeekNumber)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
