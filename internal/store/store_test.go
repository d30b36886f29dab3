package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
)

func newSQLiteForTest(t *testing.T) *SQLiteStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "engine.db")
	s, err := NewSQLiteStore(WithDSN(dsn))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// stores under test share one behavioral contract; run every case against both.
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewInMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteForTest(t)) })
}

func TestStepProgressCompletionIsMonotonic(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		now := time.Now()
		done := models.StepProgress{
			UserID: "u1", StepNumber: 3, StepName: "Core Values",
			Completed: true, CompletedAt: &now, CreatedAt: now, UpdatedAt: now,
		}
		if err := s.UpsertStepProgress(done); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// A later write without the completed flag must not clear it.
		if err := s.UpsertStepProgress(models.StepProgress{
			UserID: "u1", StepNumber: 3, StepName: "Core Values",
			CreatedAt: now, UpdatedAt: now.Add(time.Second),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rows, err := s.ListStepProgress("u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected 1 progress row, got %d", len(rows))
		}
		if !rows[0].Completed {
			t.Error("completed flag was cleared by a later write")
		}
		if rows[0].CompletedAt == nil {
			t.Error("completed_at was cleared by a later write")
		}
	})
}

func TestMarkStepAvailablePreservesCompletion(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		now := time.Now()
		if err := s.UpsertStepProgress(models.StepProgress{
			UserID: "u1", StepNumber: 17, StepName: "Commitment Statement",
			Completed: true, CompletedAt: &now, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.MarkStepAvailable("u1", 17, "Commitment Statement"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.MarkStepAvailable("u1", 47, "Resource Deep Dive"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rows, err := s.ListStepProgress("u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 progress rows, got %d", len(rows))
		}
		if !rows[0].Completed || !rows[0].Available {
			t.Errorf("step 17 should stay completed and become available, got %+v", rows[0])
		}
		if rows[1].Completed || !rows[1].Available {
			t.Errorf("step 47 should be available but not completed, got %+v", rows[1])
		}
	})
}

func TestUpsertAnswerLeavesSingleRecord(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		base := time.Now()
		first := models.AnswerRecord{
			ID: "a1", UserID: "u1", FormKey: "goal_values",
			Payload: `{"text":"first"}`, CreatedAt: base, UpdatedAt: base,
		}
		second := first
		second.ID = "a2"
		second.Payload = `{"text":"second"}`
		second.UpdatedAt = base.Add(time.Second)

		if err := s.UpsertAnswer(first); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.UpsertAnswer(second); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		all, err := s.ListAnswers("u1", "goal_values")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("expected exactly one live record after double save, got %d", len(all))
		}
		if all[0].Payload != `{"text":"second"}` {
			t.Errorf("upsert did not replace payload: %q", all[0].Payload)
		}
	})
}

func TestLatestAnswerIsLatestWins(t *testing.T) {
	// Duplicate rows can only exist in stores without the conflict index;
	// the in-memory store models that permissive backend.
	s := NewInMemoryStore()
	base := time.Now()
	old := models.AnswerRecord{
		ID: "a1", UserID: "u1", FormKey: "habit_assessment", Discriminator: "sleep",
		Payload: `{"recommendation":"old"}`, CreatedAt: base, UpdatedAt: base,
	}
	fresh := old
	fresh.ID = "a2"
	fresh.Payload = `{"recommendation":"fresh"}`
	fresh.UpdatedAt = base.Add(2 * time.Second)
	if err := s.InsertAnswer(old); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.InsertAnswer(fresh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.LatestAnswer("u1", "habit_assessment", "sleep")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "a2" {
		t.Fatalf("expected most recently updated record a2, got %+v", got)
	}
}

func TestLatestAnswerAbsenceIsNotAnError(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		got, err := s.LatestAnswer("u1", "never_saved", "")
		if err != nil {
			t.Fatalf("absence must not be an error, got %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil record, got %+v", got)
		}
	})
}

func TestHabitWeekRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		now := time.Now()
		hw := models.HabitWeek{
			UserID: "u1", HabitID: "sleep", CurrentWeek: 1,
			Obstacles: "late screens", Strategies: "reading instead",
			IsActive: true, CreatedAt: now, UpdatedAt: now,
		}
		if err := s.SaveHabitWeek(hw); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		hw.CurrentWeek = 2
		hw.UpdatedAt = now.Add(time.Second)
		if err := s.SaveHabitWeek(hw); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := s.GetHabitWeek("u1", "sleep")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.CurrentWeek != 2 {
			t.Fatalf("expected current week 2, got %+v", got)
		}
	})
}

func TestDayPlanRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		now := time.Now()
		plan := models.DayPlan{
			ID: "p1", UserID: "u1", HabitID: "sleep", PlanType: models.PlanTypeWorstDay,
			Description: "travel day",
			Obstacles: []models.Obstacle{
				{Pitfall: "hotel wifi rabbit hole", Contingency: "leave phone charging across the room"},
			},
			CreatedAt: now, UpdatedAt: now,
		}
		if err := s.SaveDayPlan(plan); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := s.GetDayPlan("u1", "sleep", models.PlanTypeWorstDay)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil {
			t.Fatal("expected stored plan")
		}
		if got.Description != "travel day" || len(got.Obstacles) != 1 {
			t.Errorf("plan did not round-trip: %+v", got)
		}
		if got.Obstacles[0].Contingency != "leave phone charging across the room" {
			t.Errorf("obstacle did not round-trip: %+v", got.Obstacles[0])
		}
	})
}

func TestWeeklyStepRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		now := time.Now()
		ws := models.WeeklyStep{
			UserID: "u1", HabitID: "sleep", WeekNumber: 3,
			Note: "lights out by 10:30 every weeknight", CreatedAt: now, UpdatedAt: now,
		}
		if err := s.SaveWeeklyStep(ws); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := s.GetWeeklyStep("u1", "sleep", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.Note != ws.Note {
			t.Fatalf("weekly step did not round-trip: %+v", got)
		}
	})
}

func TestFocusedHabitsDedup(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		if err := s.AddFocusedHabit("u1", "sleep"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.AddFocusedHabit("u1", "sleep"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.AddFocusedHabit("u1", "protein"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		habits, err := s.ListFocusedHabits("u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(habits) != 2 {
			t.Fatalf("expected 2 focused habits, got %v", habits)
		}
	})
}

func TestPostgresStore(t *testing.T) {
	// Requires a running PostgreSQL instance; set DATABASE_URL to run.
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		t.Skip("env DATABASE_URL not set")
	}
	pg, err := NewPostgresStore(WithDSN(connStr))
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	defer pg.Close()
	pg.db.Exec("DELETE FROM step_progress WHERE user_id = 'pg-test'")
	now := time.Now()
	if err := pg.UpsertStepProgress(models.StepProgress{
		UserID: "pg-test", StepNumber: 1, StepName: "Welcome",
		Completed: true, CompletedAt: &now, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := pg.ListStepProgress("pg-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || !rows[0].Completed {
		t.Error("progress row not stored or retrieved correctly in Postgres")
	}
}
