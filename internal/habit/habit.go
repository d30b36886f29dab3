// Package habit implements the seven-week habit implementation sub-engine.
//
// A user focuses on at most two habits. Each focused habit carries a weekly
// plan whose current week only advances (capped at week seven), two
// contingency day plans, and free-text weekly implementation notes whose
// completion state is derived from the current week rather than stored.
package habit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
	"github.com/ramionh/thrive-well-guide-sub001/internal/session"
	"github.com/ramionh/thrive-well-guide-sub001/internal/store"
)

// Engine runs the habit implementation phase for one user.
type Engine struct {
	sess  *session.Session
	store store.Store
}

// NewEngine creates an engine bound to the user's session.
func NewEngine(sess *session.Session, st store.Store) *Engine {
	return &Engine{sess: sess, store: st}
}

// FocusedHabits returns the user's focused habit set in focus order.
func (e *Engine) FocusedHabits(ctx context.Context) ([]string, error) {
	habits, err := e.store.ListFocusedHabits(e.sess.UserID)
	if err != nil {
		slog.Error("Engine.FocusedHabits: load failed", "error", err, "userID", e.sess.UserID)
		return nil, fmt.Errorf("failed to load focused habits: %w", err)
	}
	return habits, nil
}

// Focus adds a habit to the focused set. Re-focusing an existing habit is
// idempotent; exceeding the limit of two is rejected.
func (e *Engine) Focus(ctx context.Context, habitID string) error {
	if habitID == "" {
		return models.ErrEmptyHabitID
	}
	habits, err := e.FocusedHabits(ctx)
	if err != nil {
		return err
	}
	for _, h := range habits {
		if h == habitID {
			return nil
		}
	}
	if len(habits) >= models.MaxFocusedHabits {
		slog.Warn("Engine.Focus: focus limit reached", "userID", e.sess.UserID, "habitID", habitID)
		return fmt.Errorf("cannot focus %s: %w", habitID, models.ErrFocusLimit)
	}
	if err := e.store.AddFocusedHabit(e.sess.UserID, habitID); err != nil {
		slog.Error("Engine.Focus: persist failed", "error", err, "userID", e.sess.UserID, "habitID", habitID)
		return fmt.Errorf("failed to focus habit %s: %w", habitID, err)
	}
	slog.Info("Engine.Focus: habit focused", "userID", e.sess.UserID, "habitID", habitID)
	return nil
}

// requireFocused gates every per-habit operation on the focus set.
func (e *Engine) requireFocused(ctx context.Context, habitID string) error {
	if habitID == "" {
		return models.ErrEmptyHabitID
	}
	habits, err := e.FocusedHabits(ctx)
	if err != nil {
		return err
	}
	for _, h := range habits {
		if h == habitID {
			return nil
		}
	}
	return fmt.Errorf("habit %s: %w", habitID, models.ErrHabitNotFocused)
}

// State returns the habit's weekly plan state, defaulting to an active
// week-one plan on first access without persisting anything.
func (e *Engine) State(ctx context.Context, habitID string) (*models.HabitWeek, error) {
	if err := e.requireFocused(ctx, habitID); err != nil {
		return nil, err
	}
	hw, err := e.store.GetHabitWeek(e.sess.UserID, habitID)
	if err != nil {
		slog.Error("Engine.State: load failed", "error", err, "userID", e.sess.UserID, "habitID", habitID)
		return nil, fmt.Errorf("failed to load habit state for %s: %w", habitID, err)
	}
	if hw == nil {
		now := time.Now()
		hw = &models.HabitWeek{
			UserID:      e.sess.UserID,
			HabitID:     habitID,
			CurrentWeek: models.FirstHabitWeek,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return hw, nil
}

// AdvanceWeek moves the habit to the next week, capped at week seven, and
// persists the new state through the store's conflict-key upsert. The
// resulting week is returned.
func (e *Engine) AdvanceWeek(ctx context.Context, habitID string) (int, error) {
	hw, err := e.State(ctx, habitID)
	if err != nil {
		return 0, err
	}
	if hw.CurrentWeek < models.LastHabitWeek {
		hw.CurrentWeek++
	}
	hw.UpdatedAt = time.Now()
	if err := e.store.SaveHabitWeek(*hw); err != nil {
		slog.Error("Engine.AdvanceWeek: persist failed", "error", err, "userID", e.sess.UserID, "habitID", habitID)
		return 0, fmt.Errorf("failed to advance week for %s: %w", habitID, err)
	}
	slog.Info("Engine.AdvanceWeek: advanced", "userID", e.sess.UserID, "habitID", habitID, "week", hw.CurrentWeek)
	return hw.CurrentWeek, nil
}

// UpdateState saves the habit's obstacle/strategy notes and active flag.
// The current week is never moved by this path.
func (e *Engine) UpdateState(ctx context.Context, habitID, obstacles, strategies string, isActive bool) (*models.HabitWeek, error) {
	hw, err := e.State(ctx, habitID)
	if err != nil {
		return nil, err
	}
	hw.Obstacles = obstacles
	hw.Strategies = strategies
	hw.IsActive = isActive
	hw.UpdatedAt = time.Now()
	if err := e.store.SaveHabitWeek(*hw); err != nil {
		slog.Error("Engine.UpdateState: persist failed", "error", err, "userID", e.sess.UserID, "habitID", habitID)
		return nil, fmt.Errorf("failed to update habit state for %s: %w", habitID, err)
	}
	return hw, nil
}

// SaveDayPlan validates and persists a contingency day plan. Obstacle rows
// missing either field are silently dropped; a plan whose rows are all
// incomplete is rejected.
func (e *Engine) SaveDayPlan(ctx context.Context, habitID string, planType models.PlanType, description string, obstacles []models.Obstacle) (*models.DayPlan, error) {
	if err := e.requireFocused(ctx, habitID); err != nil {
		return nil, err
	}
	if !models.IsValidPlanType(planType) {
		return nil, fmt.Errorf("plan type %q: %w", planType, models.ErrInvalidPlanType)
	}

	kept := make([]models.Obstacle, 0, len(obstacles))
	for _, o := range obstacles {
		if o.Complete() {
			kept = append(kept, o)
		}
	}
	if dropped := len(obstacles) - len(kept); dropped > 0 {
		slog.Debug("Engine.SaveDayPlan: dropped incomplete obstacle rows", "dropped", dropped, "habitID", habitID, "planType", planType)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%s plan for %s: %w", planType, habitID, models.ErrNoCompleteObstacle)
	}

	now := time.Now()
	plan := models.DayPlan{
		ID:          uuid.NewString(),
		UserID:      e.sess.UserID,
		HabitID:     habitID,
		PlanType:    planType,
		Description: description,
		Obstacles:   kept,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.SaveDayPlan(plan); err != nil {
		slog.Error("Engine.SaveDayPlan: persist failed", "error", err, "userID", e.sess.UserID, "habitID", habitID, "planType", planType)
		return nil, fmt.Errorf("failed to save %s plan for %s: %w", planType, habitID, err)
	}
	slog.Info("Engine.SaveDayPlan: saved", "userID", e.sess.UserID, "habitID", habitID, "planType", planType, "obstacles", len(kept))
	return &plan, nil
}

// DayPlan loads a contingency day plan; absence means not written yet.
func (e *Engine) DayPlan(ctx context.Context, habitID string, planType models.PlanType) (*models.DayPlan, error) {
	if err := e.requireFocused(ctx, habitID); err != nil {
		return nil, err
	}
	if !models.IsValidPlanType(planType) {
		return nil, fmt.Errorf("plan type %q: %w", planType, models.ErrInvalidPlanType)
	}
	plan, err := e.store.GetDayPlan(e.sess.UserID, habitID, planType)
	if err != nil {
		slog.Error("Engine.DayPlan: load failed", "error", err, "userID", e.sess.UserID, "habitID", habitID, "planType", planType)
		return nil, fmt.Errorf("failed to load %s plan for %s: %w", planType, habitID, err)
	}
	return plan, nil
}

// SaveWeeklyStep persists the implementation note for one week.
func (e *Engine) SaveWeeklyStep(ctx context.Context, habitID string, weekNumber int, note string) error {
	if err := e.requireFocused(ctx, habitID); err != nil {
		return err
	}
	if weekNumber < models.FirstHabitWeek || weekNumber > models.LastHabitWeek {
		return fmt.Errorf("week %d: %w", weekNumber, models.ErrInvalidWeekNumber)
	}
	now := time.Now()
	ws := models.WeeklyStep{
		UserID:     e.sess.UserID,
		HabitID:    habitID,
		WeekNumber: weekNumber,
		Note:       note,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.store.SaveWeeklyStep(ws); err != nil {
		slog.Error("Engine.SaveWeeklyStep: persist failed", "error", err, "userID", e.sess.UserID, "habitID", habitID, "week", weekNumber)
		return fmt.Errorf("failed to save week %d for %s: %w", weekNumber, habitID, err)
	}
	return nil
}

// WeeklyStep returns the note for one week with its completion state
// derived from the habit's current week. Correcting the current week
// retroactively recomputes every completion badge because nothing is stored.
func (e *Engine) WeeklyStep(ctx context.Context, habitID string, weekNumber int) (*models.WeeklyStepView, error) {
	if weekNumber < models.FirstHabitWeek || weekNumber > models.LastHabitWeek {
		return nil, fmt.Errorf("week %d: %w", weekNumber, models.ErrInvalidWeekNumber)
	}
	hw, err := e.State(ctx, habitID)
	if err != nil {
		return nil, err
	}
	ws, err := e.store.GetWeeklyStep(e.sess.UserID, habitID, weekNumber)
	if err != nil {
		slog.Error("Engine.WeeklyStep: load failed", "error", err, "userID", e.sess.UserID, "habitID", habitID, "week", weekNumber)
		return nil, fmt.Errorf("failed to load week %d for %s: %w", weekNumber, habitID, err)
	}
	if ws == nil {
		ws = &models.WeeklyStep{UserID: e.sess.UserID, HabitID: habitID, WeekNumber: weekNumber}
	}
	return &models.WeeklyStepView{
		WeeklyStep:  *ws,
		IsCompleted: weekNumber < hw.CurrentWeek,
	}, nil
}
