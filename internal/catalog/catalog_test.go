package catalog

import (
	"errors"
	"testing"

	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
)

func TestPhaseOfBoundaries(t *testing.T) {
	cases := []struct {
		id   int
		want models.Phase
	}{
		{1, models.PhaseStartingPoint},
		{17, models.PhaseStartingPoint},
		{18, models.PhaseChartingPath},
		{61, models.PhaseChartingPath},
		{62, models.PhaseActiveChange},
		{200, models.PhaseActiveChange},
	}
	for _, c := range cases {
		if got := PhaseOf(c.id); got != c.want {
			t.Errorf("PhaseOf(%d) = %s, want %s", c.id, got, c.want)
		}
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New(
		[]models.StepDescriptor{{ID: 62, Title: "Habit Assessment"}},
		[]models.StepDescriptor{{ID: 62, Title: "Conflicting Entry"}},
	)
	if !errors.Is(err, models.ErrDuplicateStepID) {
		t.Fatalf("expected ErrDuplicateStepID, got %v", err)
	}
}

func TestNextAfterSkipsGaps(t *testing.T) {
	c := MustNew([]models.StepDescriptor{
		{ID: 1}, {ID: 2}, {ID: 3}, {ID: 5}, {ID: 8},
	})
	next, ok := c.NextAfter(3)
	if !ok || next != 5 {
		t.Errorf("NextAfter(3) = %d, %v; want 5, true", next, ok)
	}
	next, ok = c.NextAfter(5)
	if !ok || next != 8 {
		t.Errorf("NextAfter(5) = %d, %v; want 8, true", next, ok)
	}
	if _, ok := c.NextAfter(8); ok {
		t.Error("NextAfter(8) should report no successor")
	}
}

func TestByIDToleratesGaps(t *testing.T) {
	c := Default()
	if _, ok := c.ByID(6); ok {
		t.Error("id 6 is a retired gap and should not resolve")
	}
	step, ok := c.ByID(62)
	if !ok {
		t.Fatal("id 62 should resolve")
	}
	if step.Title != "Habit Assessment" {
		t.Errorf("unexpected title for id 62: %q", step.Title)
	}
}

func TestVisibleStepsExcludesHidden(t *testing.T) {
	c := Default()
	for _, step := range c.VisibleSteps() {
		if step.HideFromNavigation {
			t.Errorf("hidden step %d leaked into visible catalog", step.ID)
		}
	}
	// Hidden steps stay addressable.
	if _, ok := c.ByID(47); !ok {
		t.Error("hidden step 47 should still be addressable by id")
	}
}

func TestDefaultCatalogIsOrderedAndUnique(t *testing.T) {
	c := Default()
	if c.Len() == 0 {
		t.Fatal("default catalog is empty")
	}
	prev := 0
	for _, id := range c.IDs() {
		if id <= prev {
			t.Fatalf("catalog ids not strictly increasing: %d after %d", id, prev)
		}
		prev = id
	}
	for _, step := range c.Steps() {
		if step.Title == "" {
			t.Errorf("step %d has no title", step.ID)
		}
	}
}

func TestPrecedingPhase(t *testing.T) {
	if _, ok := PrecedingPhase(models.PhaseStartingPoint); ok {
		t.Error("first phase has no predecessor")
	}
	prev, ok := PrecedingPhase(models.PhaseActiveChange)
	if !ok || prev != models.PhaseChartingPath {
		t.Errorf("PrecedingPhase(active_change) = %s, %v", prev, ok)
	}
}
