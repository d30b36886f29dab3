// Package models defines habit implementation structures for the active-change phase.
package models

import "time"

// Plan week bounds for the habit implementation sub-engine.
const (
	// FirstHabitWeek is the week a new habit plan starts on.
	FirstHabitWeek = 1
	// LastHabitWeek is the cap; AdvanceWeek never pushes past it.
	LastHabitWeek = 7
	// MaxFocusedHabits is the size limit of the focused-habit set.
	MaxFocusedHabits = 2
)

// PlanType discriminates the two contingency day plans kept per habit.
type PlanType string

const (
	// PlanTypeBestDay describes the user's ideal execution day.
	PlanTypeBestDay PlanType = "best_day"
	// PlanTypeWorstDay describes the day most likely to derail the habit.
	PlanTypeWorstDay PlanType = "worst_day"
)

// IsValidPlanType checks if the given plan type is supported.
func IsValidPlanType(pt PlanType) bool {
	return pt == PlanTypeBestDay || pt == PlanTypeWorstDay
}

// HabitWeek is the persisted per-user, per-habit weekly plan state.
// CurrentWeek only increases and is capped at LastHabitWeek.
type HabitWeek struct {
	UserID      string    `json:"user_id"`
	HabitID     string    `json:"habit_id"`
	CurrentWeek int       `json:"current_week"`
	Obstacles   string    `json:"obstacles,omitempty"`
	Strategies  string    `json:"strategies,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Obstacle is one pitfall/contingency pair on a day plan. A row is only
// considered complete when both fields are non-empty; incomplete rows are
// dropped before persistence.
type Obstacle struct {
	Pitfall     string `json:"pitfall"`
	Contingency string `json:"contingency"`
}

// Complete reports whether the obstacle has both fields filled in.
func (o Obstacle) Complete() bool {
	return o.Pitfall != "" && o.Contingency != ""
}

// DayPlan is the persisted contingency plan for one (user, habit, plan type).
type DayPlan struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	HabitID     string     `json:"habit_id"`
	PlanType    PlanType   `json:"plan_type"`
	Description string     `json:"description"`
	Obstacles   []Obstacle `json:"obstacles"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// WeeklyStep is the free-text implementation note for one (user, habit, week).
// Completion is never stored with it: a weekly step counts as done exactly
// when its week number is below the habit's current week.
type WeeklyStep struct {
	UserID     string    `json:"user_id"`
	HabitID    string    `json:"habit_id"`
	WeekNumber int       `json:"week_number"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WeeklyStepView is a WeeklyStep with its derived completion state attached.
type WeeklyStepView struct {
	WeeklyStep
	IsCompleted bool `json:"is_completed"`
}
