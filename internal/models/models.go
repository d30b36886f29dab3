// Package models defines the core data structures for the thrive-well guided program.
//
// It includes the phase/step descriptors shared by the catalog and the progress
// gate, the persisted record shapes, and the API response envelope.
package models

import (
	"errors"
	"time"
)

// Phase is the coarse grouping a step belongs to. It is used for navigation
// grouping only and is always derived from the step id, never stored.
type Phase string

const (
	// PhaseStartingPoint covers the intake and self-assessment steps.
	PhaseStartingPoint Phase = "starting_point"
	// PhaseChartingPath covers the motivation and planning steps.
	PhaseChartingPath Phase = "charting_path"
	// PhaseActiveChange covers the habit assessment and implementation steps.
	PhaseActiveChange Phase = "active_change"
)

// Phase id boundaries. catalog.PhaseOf is the only consumer; callers must
// never compare step ids against these directly.
const (
	// ChartingPathFirstID is the first step id belonging to the charting-path phase.
	ChartingPathFirstID = 18
	// ActiveChangeFirstID is the first step id belonging to the active-change phase.
	ActiveChangeFirstID = 62
)

// StepStatus is the runtime availability of a step for one user.
type StepStatus string

const (
	// StepStatusCompleted means the step has been finished at least once.
	StepStatusCompleted StepStatus = "completed"
	// StepStatusCurrent means the step is the one the user is positioned on.
	StepStatusCurrent StepStatus = "current"
	// StepStatusAvailable means the step is reachable but not selected.
	StepStatusAvailable StepStatus = "available"
	// StepStatusLocked means the step cannot be selected yet.
	StepStatusLocked StepStatus = "locked"
)

// StepDescriptor is the immutable, build-time definition of one program step.
// Ids are globally unique and monotonically assigned but not contiguous; gaps
// are expected and must be tolerated by every consumer.
type StepDescriptor struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// FormKey names the answer namespace the step's form persists into.
	// Empty for steps that collect nothing (informational screens).
	FormKey string `json:"form_key,omitempty"`
	// HideFromNavigation excludes the step from the visible catalog while
	// keeping it addressable by id.
	HideFromNavigation bool `json:"hide_from_navigation,omitempty"`
	// UnlocksStepID, when non-zero, names a step that is explicitly marked
	// available as a side effect of completing this one. Used by
	// phase-transition steps whose successor is not the numerically next id.
	UnlocksStepID int `json:"unlocks_step_id,omitempty"`
}

// StepProgress is the persisted per-user, per-step completion record.
// Created lazily on first completion or explicit unlock, never deleted.
// Completed only ever transitions false to true.
type StepProgress struct {
	UserID     string `json:"user_id"`
	StepNumber int    `json:"step_number"`
	// StepName is a denormalized copy of the catalog title at completion
	// time; it is not re-synced if the catalog text changes later.
	StepName    string     `json:"step_name"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Available marks the step reachable even when it is not the immediate
	// successor of the highest completed step.
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnswerRecord is one persisted form answer document. Records are keyed by
// (user, form key, discriminator); the store offers no uniqueness guarantee
// beyond what the caller requests, so readers always take the most recently
// updated row as authoritative.
type AnswerRecord struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	FormKey       string `json:"form_key"`
	Discriminator string `json:"discriminator,omitempty"`
	// Payload is the JSON-encoded form document.
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validation errors shared across the engine.
var (
	ErrEmptyUserID        = errors.New("user id cannot be empty")
	ErrUnknownStep        = errors.New("unknown step id")
	ErrEmptyFormKey       = errors.New("form key cannot be empty")
	ErrDuplicateStepID    = errors.New("duplicate step id in catalog")
	ErrUnknownCategory    = errors.New("unknown assessment category")
	ErrInvalidAnswer      = errors.New("answers must be one of a, b or c")
	ErrMissingAnswer      = errors.New("missing answer for required question")
	ErrFocusLimit         = errors.New("no more than two habits can be focused")
	ErrHabitNotFocused    = errors.New("habit is not in the focused set")
	ErrEmptyHabitID       = errors.New("habit id cannot be empty")
	ErrInvalidPlanType    = errors.New("plan type must be best_day or worst_day")
	ErrInvalidWeekNumber  = errors.New("week number must be between 1 and 7")
	ErrNoCompleteObstacle = errors.New("at least one obstacle needs both a pitfall and a contingency")
)

// Validate checks the fields of a StepProgress record before persistence.
func (p *StepProgress) Validate() error {
	if p.UserID == "" {
		return ErrEmptyUserID
	}
	if p.StepNumber <= 0 {
		return ErrUnknownStep
	}
	return nil
}

// Validate checks the fields of an AnswerRecord before persistence.
func (r *AnswerRecord) Validate() error {
	if r.UserID == "" {
		return ErrEmptyUserID
	}
	if r.FormKey == "" {
		return ErrEmptyFormKey
	}
	return nil
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates a successful operation.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates a failed operation.
	APIStatusError APIStatus = "error"
)

// APIResponse is the envelope returned by every HTTP endpoint.
type APIResponse struct {
	Status  APIStatus   `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Result: result}
}

// SuccessWithMessage creates a successful API response carrying a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: APIStatusError, Message: message}
}
