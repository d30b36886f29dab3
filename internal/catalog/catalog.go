// Package catalog defines the static, phase-partitioned step catalog for the
// guided program.
//
// The catalog is hand-maintained: phase sub-lists are concatenated in a fixed
// order at construction time and validated once. Step ids are unique and
// monotonically assigned with gaps, so consumers must always look steps up by
// id, never by slice position.
package catalog

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
)

// PhaseOf derives the phase for a step id. Phase is a pure function of the
// id; no descriptor stores it explicitly.
func PhaseOf(id int) models.Phase {
	switch {
	case id < models.ChartingPathFirstID:
		return models.PhaseStartingPoint
	case id < models.ActiveChangeFirstID:
		return models.PhaseChartingPath
	default:
		return models.PhaseActiveChange
	}
}

// Phases lists the program phases in presentation order.
var Phases = []models.Phase{
	models.PhaseStartingPoint,
	models.PhaseChartingPath,
	models.PhaseActiveChange,
}

// PrecedingPhase returns the phase before p, or false for the first phase.
func PrecedingPhase(p models.Phase) (models.Phase, bool) {
	for i, phase := range Phases {
		if phase == p && i > 0 {
			return Phases[i-1], true
		}
	}
	return "", false
}

// Catalog is an ordered, validated collection of step descriptors.
type Catalog struct {
	steps []models.StepDescriptor
	byID  map[int]models.StepDescriptor
}

// New builds a catalog by concatenating phase sub-lists in the given order.
// Duplicate ids are an authoring error and are rejected outright rather than
// silently resolved at runtime.
func New(subLists ...[]models.StepDescriptor) (*Catalog, error) {
	c := &Catalog{byID: make(map[int]models.StepDescriptor)}
	for _, list := range subLists {
		for _, step := range list {
			if _, exists := c.byID[step.ID]; exists {
				slog.Error("Catalog.New: duplicate step id", "id", step.ID, "title", step.Title)
				return nil, fmt.Errorf("catalog validation failed for step %d (%s): %w", step.ID, step.Title, models.ErrDuplicateStepID)
			}
			c.steps = append(c.steps, step)
			c.byID[step.ID] = step
		}
	}
	slog.Debug("Catalog.New: catalog built", "steps", len(c.steps))
	return c, nil
}

// MustNew is New for the build-time default catalog, where a duplicate id is
// a programming error.
func MustNew(subLists ...[]models.StepDescriptor) *Catalog {
	c, err := New(subLists...)
	if err != nil {
		panic(err)
	}
	return c
}

// Steps returns the descriptors in catalog order.
func (c *Catalog) Steps() []models.StepDescriptor {
	return c.steps
}

// VisibleSteps returns the descriptors shown in navigation, in catalog order.
func (c *Catalog) VisibleSteps() []models.StepDescriptor {
	visible := make([]models.StepDescriptor, 0, len(c.steps))
	for _, step := range c.steps {
		if !step.HideFromNavigation {
			visible = append(visible, step)
		}
	}
	return visible
}

// ByID looks a step up by id. Hidden steps remain addressable.
func (c *Catalog) ByID(id int) (models.StepDescriptor, bool) {
	step, ok := c.byID[id]
	return step, ok
}

// NextAfter returns the smallest catalog id strictly greater than id. Ids
// absent from the catalog are skipped, so gaps in the numbering are tolerated.
func (c *Catalog) NextAfter(id int) (int, bool) {
	next := 0
	found := false
	for candidate := range c.byID {
		if candidate > id && (!found || candidate < next) {
			next = candidate
			found = true
		}
	}
	return next, found
}

// FirstID returns the smallest id in the catalog.
func (c *Catalog) FirstID() (int, bool) {
	ids := c.IDs()
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// IDs returns every catalog id in ascending order.
func (c *Catalog) IDs() []int {
	ids := make([]int, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of steps in the catalog.
func (c *Catalog) Len() int {
	return len(c.steps)
}
