// Package progress implements the gate state machine deciding which program
// steps a user can reach.
//
// A step is reachable when it is already completed, when it is the immediate
// successor of the highest completed id (next id present in the catalog, so
// numbering gaps are skipped), or when another step's side effect explicitly
// unlocked it out of order. Phase visibility is advisory presentation
// metadata and never substitutes for the enablement check.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ramionh/thrive-well-guide-sub001/internal/catalog"
	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
	"github.com/ramionh/thrive-well-guide-sub001/internal/session"
	"github.com/ramionh/thrive-well-guide-sub001/internal/store"
)

// StepState is one catalog step annotated with the user's runtime status.
type StepState struct {
	models.StepDescriptor
	Phase  models.Phase      `json:"phase"`
	Status models.StepStatus `json:"status"`
}

// Gate tracks one user's position in the program.
type Gate struct {
	sess    *session.Session
	store   store.Store
	catalog *catalog.Catalog

	mu        sync.Mutex
	completed map[int]bool
	available map[int]bool
	current   int
}

// New builds a gate for the session's user, loading persisted progress.
func New(ctx context.Context, sess *session.Session, st store.Store, cat *catalog.Catalog) (*Gate, error) {
	g := &Gate{
		sess:      sess,
		store:     st,
		catalog:   cat,
		completed: make(map[int]bool),
		available: make(map[int]bool),
	}
	if err := g.Refresh(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// Refresh reloads the completion set from the store and recomputes the
// current-step pointer.
func (g *Gate) Refresh(ctx context.Context) error {
	rows, err := g.store.ListStepProgress(g.sess.UserID)
	if err != nil {
		slog.Error("Gate.Refresh: failed to load progress", "error", err, "userID", g.sess.UserID)
		return fmt.Errorf("failed to load step progress: %w", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = make(map[int]bool)
	g.available = make(map[int]bool)
	for _, row := range rows {
		if row.Completed {
			g.completed[row.StepNumber] = true
		}
		if row.Available {
			g.available[row.StepNumber] = true
		}
	}
	g.current = g.nextEligibleLocked()
	slog.Debug("Gate.Refresh: progress loaded", "userID", g.sess.UserID, "completed", len(g.completed), "current", g.current)
	return nil
}

// maxCompletedLocked returns the highest completed step id, or 0.
func (g *Gate) maxCompletedLocked() int {
	max := 0
	for id := range g.completed {
		if id > max {
			max = id
		}
	}
	return max
}

// nextEligibleLocked returns the smallest catalog id strictly greater than
// the highest completed id. With nothing completed that is the first step.
func (g *Gate) nextEligibleLocked() int {
	next, ok := g.catalog.NextAfter(g.maxCompletedLocked())
	if !ok {
		return 0 // program finished
	}
	return next
}

// IsEnabled reports whether the step can be selected. Unknown ids are never
// enabled.
func (g *Gate) IsEnabled(stepID int) bool {
	if _, ok := g.catalog.ByID(stepID); !ok {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completed[stepID] || stepID == g.nextEligibleLocked() || g.available[stepID]
}

// MarkComplete records the step as completed and advances the current-step
// pointer to the next catalog id. Completing an already-completed step is
// idempotent and rewrites the completion timestamp. When the step declares
// an unlock side effect, the target step is explicitly marked available.
func (g *Gate) MarkComplete(ctx context.Context, stepID int) error {
	step, ok := g.catalog.ByID(stepID)
	if !ok {
		slog.Warn("Gate.MarkComplete: unknown step", "stepID", stepID, "userID", g.sess.UserID)
		return fmt.Errorf("cannot complete step %d: %w", stepID, models.ErrUnknownStep)
	}

	now := time.Now()
	row := models.StepProgress{
		UserID:      g.sess.UserID,
		StepNumber:  stepID,
		StepName:    step.Title,
		Completed:   true,
		CompletedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := g.store.UpsertStepProgress(row); err != nil {
		slog.Error("Gate.MarkComplete: persist failed", "error", err, "stepID", stepID, "userID", g.sess.UserID)
		return fmt.Errorf("failed to persist completion of step %d: %w", stepID, err)
	}

	if step.UnlocksStepID != 0 {
		target, found := g.catalog.ByID(step.UnlocksStepID)
		if found {
			if err := g.store.MarkStepAvailable(g.sess.UserID, target.ID, target.Title); err != nil {
				slog.Error("Gate.MarkComplete: unlock write failed", "error", err, "stepID", stepID, "unlocks", target.ID)
				return fmt.Errorf("failed to unlock step %d: %w", target.ID, err)
			}
		} else {
			slog.Warn("Gate.MarkComplete: unlock target not in catalog", "stepID", stepID, "unlocks", step.UnlocksStepID)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed[stepID] = true
	if step.UnlocksStepID != 0 {
		g.available[step.UnlocksStepID] = true
	}
	if next, ok := g.catalog.NextAfter(stepID); ok {
		g.current = next
	} else {
		g.current = 0 // completed the final step
	}
	slog.Info("Gate.MarkComplete: step completed", "stepID", stepID, "userID", g.sess.UserID, "current", g.current)
	return nil
}

// UnlockStep explicitly marks a step reachable out of sequence.
func (g *Gate) UnlockStep(ctx context.Context, stepID int) error {
	step, ok := g.catalog.ByID(stepID)
	if !ok {
		return fmt.Errorf("cannot unlock step %d: %w", stepID, models.ErrUnknownStep)
	}
	if err := g.store.MarkStepAvailable(g.sess.UserID, stepID, step.Title); err != nil {
		slog.Error("Gate.UnlockStep: persist failed", "error", err, "stepID", stepID, "userID", g.sess.UserID)
		return fmt.Errorf("failed to unlock step %d: %w", stepID, err)
	}
	g.mu.Lock()
	g.available[stepID] = true
	g.mu.Unlock()
	slog.Info("Gate.UnlockStep: step unlocked", "stepID", stepID, "userID", g.sess.UserID)
	return nil
}

// SelectStep moves the current-step pointer. The UI should never offer a
// disabled step, but the gate re-checks anyway; selecting a disabled or
// unknown step is a no-op and returns false.
func (g *Gate) SelectStep(stepID int) bool {
	if !g.IsEnabled(stepID) {
		slog.Debug("Gate.SelectStep: rejected", "stepID", stepID, "userID", g.sess.UserID)
		return false
	}
	g.mu.Lock()
	g.current = stepID
	g.mu.Unlock()
	slog.Debug("Gate.SelectStep: selected", "stepID", stepID, "userID", g.sess.UserID)
	return true
}

// CurrentStepID returns the step the user is positioned on. Zero means the
// program is finished.
func (g *Gate) CurrentStepID() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// PhaseVisible reports whether a phase's steps should be displayed: the
// first phase always, later phases once at least one step of the preceding
// phase is completed. This gates presentation only, not enablement.
func (g *Gate) PhaseVisible(phase models.Phase) bool {
	prev, ok := catalog.PrecedingPhase(phase)
	if !ok {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for id := range g.completed {
		if catalog.PhaseOf(id) == prev {
			return true
		}
	}
	return false
}

// Steps returns the navigable catalog in order, each step annotated with the
// user's status. Hidden steps are omitted.
func (g *Gate) Steps() []StepState {
	steps := g.catalog.VisibleSteps()
	out := make([]StepState, 0, len(steps))
	for _, step := range steps {
		out = append(out, StepState{
			StepDescriptor: step,
			Phase:          catalog.PhaseOf(step.ID),
			Status:         g.statusOf(step.ID),
		})
	}
	return out
}

func (g *Gate) statusOf(stepID int) models.StepStatus {
	enabled := g.IsEnabled(stepID)
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case stepID == g.current && enabled:
		return models.StepStatusCurrent
	case g.completed[stepID]:
		return models.StepStatusCompleted
	case enabled:
		return models.StepStatusAvailable
	default:
		return models.StepStatusLocked
	}
}
