// Package store provides storage backends for the guided-program engine.
//
// Each step family gets its own keyed namespace (table): step progress,
// generic form answers, habit focus, habit weeks, day plans and weekly steps.
// The package ships SQLite and PostgreSQL implementations plus an in-memory
// store used by unit tests.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
)

// Store is the record-store contract the engine is written against.
//
// Absence of a record is reported as (nil, nil), never as an error. Readers
// of answer records must treat the most recently updated row as
// authoritative; the store itself enforces only the uniqueness the caller
// requests through the upsert methods.
type Store interface {
	// Step progress (conflict key: user_id + step_number).
	ListStepProgress(userID string) ([]models.StepProgress, error)
	UpsertStepProgress(p models.StepProgress) error
	// MarkStepAvailable records an explicit out-of-sequence unlock without
	// touching the completion fields.
	MarkStepAvailable(userID string, stepNumber int, stepName string) error

	// Form answers (conflict key: user_id + form_key + discriminator).
	// LatestAnswer is the defensive latest-wins read: most recently updated
	// row first, limit one.
	LatestAnswer(userID, formKey, discriminator string) (*models.AnswerRecord, error)
	ListAnswers(userID, formKey string) ([]models.AnswerRecord, error)
	InsertAnswer(rec models.AnswerRecord) error
	UpdateAnswer(rec models.AnswerRecord) error
	UpsertAnswer(rec models.AnswerRecord) error

	// Habit focus set (at most models.MaxFocusedHabits entries per user;
	// the limit is enforced by the habit engine, not the store).
	ListFocusedHabits(userID string) ([]string, error)
	AddFocusedHabit(userID, habitID string) error

	// Habit weekly plan state (conflict key: user_id + habit_id).
	GetHabitWeek(userID, habitID string) (*models.HabitWeek, error)
	SaveHabitWeek(hw models.HabitWeek) error

	// Contingency day plans (conflict key: user_id + habit_id + plan_type).
	GetDayPlan(userID, habitID string, planType models.PlanType) (*models.DayPlan, error)
	SaveDayPlan(p models.DayPlan) error

	// Weekly implementation notes (conflict key: user_id + habit_id + week_number).
	GetWeeklyStep(userID, habitID string, weekNumber int) (*models.WeeklyStep, error)
	SaveWeeklyStep(ws models.WeeklyStep) error

	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string
}

// Option configures store construction.
type Option func(*Opts)

// WithDSN sets the database connection string (file path for SQLite,
// connection URL for Postgres).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// InMemoryStore is a mutex-guarded in-memory Store for tests.
type InMemoryStore struct {
	mu       sync.Mutex
	progress map[string]map[int]models.StepProgress
	answers  []models.AnswerRecord
	focus    map[string][]string
	weeks    map[string]models.HabitWeek
	plans    map[string]models.DayPlan
	steps    map[string]models.WeeklyStep
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		progress: make(map[string]map[int]models.StepProgress),
		focus:    make(map[string][]string),
		weeks:    make(map[string]models.HabitWeek),
		plans:    make(map[string]models.DayPlan),
		steps:    make(map[string]models.WeeklyStep),
	}
}

func (s *InMemoryStore) ListStepProgress(userID string) ([]models.StepProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]models.StepProgress, 0, len(s.progress[userID]))
	for _, p := range s.progress[userID] {
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StepNumber < rows[j].StepNumber })
	return rows, nil
}

func (s *InMemoryStore) UpsertStepProgress(p models.StepProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byStep := s.progress[p.UserID]
	if byStep == nil {
		byStep = make(map[int]models.StepProgress)
		s.progress[p.UserID] = byStep
	}
	if existing, ok := byStep[p.StepNumber]; ok {
		// Completed never transitions back to false; available never clears.
		p.Completed = p.Completed || existing.Completed
		p.Available = p.Available || existing.Available
		if p.CompletedAt == nil {
			p.CompletedAt = existing.CompletedAt
		}
		p.CreatedAt = existing.CreatedAt
	}
	byStep[p.StepNumber] = p
	return nil
}

func (s *InMemoryStore) MarkStepAvailable(userID string, stepNumber int, stepName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byStep := s.progress[userID]
	if byStep == nil {
		byStep = make(map[int]models.StepProgress)
		s.progress[userID] = byStep
	}
	now := time.Now()
	if existing, ok := byStep[stepNumber]; ok {
		existing.Available = true
		existing.UpdatedAt = now
		byStep[stepNumber] = existing
		return nil
	}
	byStep[stepNumber] = models.StepProgress{
		UserID:     userID,
		StepNumber: stepNumber,
		StepName:   stepName,
		Available:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return nil
}

func (s *InMemoryStore) LatestAnswer(userID, formKey, discriminator string) (*models.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.AnswerRecord
	for i := range s.answers {
		rec := s.answers[i]
		if rec.UserID != userID || rec.FormKey != formKey || rec.Discriminator != discriminator {
			continue
		}
		if latest == nil || rec.UpdatedAt.After(latest.UpdatedAt) {
			copied := rec
			latest = &copied
		}
	}
	return latest, nil
}

func (s *InMemoryStore) ListAnswers(userID, formKey string) ([]models.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AnswerRecord
	for _, rec := range s.answers {
		if rec.UserID == userID && rec.FormKey == formKey {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// InsertAnswer appends without any uniqueness check, mirroring a plain SQL
// insert on a table with no enforced conflict key. Tests rely on this to
// exercise the latest-wins read against duplicate rows.
func (s *InMemoryStore) InsertAnswer(rec models.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, rec)
	return nil
}

func (s *InMemoryStore) UpdateAnswer(rec models.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.answers {
		if s.answers[i].ID == rec.ID {
			rec.CreatedAt = s.answers[i].CreatedAt
			s.answers[i] = rec
			return nil
		}
	}
	return nil
}

func (s *InMemoryStore) UpsertAnswer(rec models.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.answers {
		existing := s.answers[i]
		if existing.UserID == rec.UserID && existing.FormKey == rec.FormKey && existing.Discriminator == rec.Discriminator {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
			s.answers[i] = rec
			return nil
		}
	}
	s.answers = append(s.answers, rec)
	return nil
}

func (s *InMemoryStore) ListFocusedHabits(userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.focus[userID]...), nil
}

func (s *InMemoryStore) AddFocusedHabit(userID, habitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.focus[userID] {
		if h == habitID {
			return nil
		}
	}
	s.focus[userID] = append(s.focus[userID], habitID)
	return nil
}

func habitKey(userID, habitID string) string {
	return userID + "\x00" + habitID
}

func (s *InMemoryStore) GetHabitWeek(userID, habitID string) (*models.HabitWeek, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hw, ok := s.weeks[habitKey(userID, habitID)]; ok {
		return &hw, nil
	}
	return nil, nil
}

func (s *InMemoryStore) SaveHabitWeek(hw models.HabitWeek) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := habitKey(hw.UserID, hw.HabitID)
	if existing, ok := s.weeks[key]; ok {
		hw.CreatedAt = existing.CreatedAt
	}
	s.weeks[key] = hw
	return nil
}

func (s *InMemoryStore) GetDayPlan(userID, habitID string, planType models.PlanType) (*models.DayPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.plans[habitKey(userID, habitID)+"\x00"+string(planType)]; ok {
		copied := p
		copied.Obstacles = append([]models.Obstacle(nil), p.Obstacles...)
		return &copied, nil
	}
	return nil, nil
}

func (s *InMemoryStore) SaveDayPlan(p models.DayPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := habitKey(p.UserID, p.HabitID) + "\x00" + string(p.PlanType)
	if existing, ok := s.plans[key]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	}
	s.plans[key] = p
	return nil
}

func (s *InMemoryStore) GetWeeklyStep(userID, habitID string, weekNumber int) (*models.WeeklyStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws, ok := s.steps[habitKey(userID, habitID)+"\x00"+string(rune('0'+weekNumber))]; ok {
		return &ws, nil
	}
	return nil, nil
}

func (s *InMemoryStore) SaveWeeklyStep(ws models.WeeklyStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := habitKey(ws.UserID, ws.HabitID) + "\x00" + string(rune('0'+ws.WeekNumber))
	if existing, ok := s.steps[key]; ok {
		ws.CreatedAt = existing.CreatedAt
	}
	s.steps[key] = ws
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// Compile-time check that all backends implement Store.
var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
