package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ramionh/thrive-well-guide-sub001/internal/forms"
	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
	"github.com/ramionh/thrive-well-guide-sub001/internal/session"
	"github.com/ramionh/thrive-well-guide-sub001/internal/store"
)

// AssessmentFormKey is the answer namespace shared by all five categories;
// the category itself is the discriminator.
const AssessmentFormKey = "habit_assessment"

// Assessor runs the habit assessment for one user: it classifies answers and
// persists one record per (user, category).
type Assessor struct {
	sess  *session.Session
	store store.Store
}

// NewAssessor creates an assessor bound to the user's session.
func NewAssessor(sess *session.Session, st store.Store) *Assessor {
	return &Assessor{sess: sess, store: st}
}

// Result is the outcome of one category submission.
type Result struct {
	Category       Category          `json:"category"`
	Recommendation string            `json:"recommendation"`
	Answers        map[string]string `json:"answers"`
}

// Progress describes how far through the five categories the user is. The
// terminal all-assessed state is recomputed from which records exist, never
// stored.
type Progress struct {
	Completed   []Category `json:"completed"`
	Current     Category   `json:"current,omitempty"`
	CurrentIdx  int        `json:"current_index"`
	AllAssessed bool       `json:"all_assessed"`
}

// Submit classifies the answers and persists the result plus raw answers as
// one record for (user, category). The category is a discriminator the store
// has no conflict key for at this call site, so the save uses the
// select-then-update-or-insert variant of the persistence contract.
func (a *Assessor) Submit(ctx context.Context, category Category, answers map[string]string) (*Result, error) {
	if !IsValidCategory(category) {
		slog.Warn("Assessor.Submit: unknown category", "category", category, "userID", a.sess.UserID)
		return nil, fmt.Errorf("cannot assess %q: %w", category, models.ErrUnknownCategory)
	}
	for _, key := range QuestionKeys(category) {
		answer, ok := answers[key]
		if !ok || answer == "" {
			return nil, fmt.Errorf("%s %s: %w", category, key, models.ErrMissingAnswer)
		}
		if answer != "a" && answer != "b" && answer != "c" {
			return nil, fmt.Errorf("%s %s=%q: %w", category, key, answer, models.ErrInvalidAnswer)
		}
	}

	recommendation := Classify(category, answers)

	form, err := forms.New(a.sess, a.store, forms.Config{
		Key:      AssessmentFormKey,
		Strategy: forms.StrategyFindThenBranch,
	})
	if err != nil {
		return nil, err
	}
	values := forms.Values{"recommendation": recommendation}
	for key, answer := range answers {
		values[key] = answer
	}
	if err := form.WithDiscriminator(string(category)).Save(ctx, values); err != nil {
		slog.Error("Assessor.Submit: save failed", "error", err, "category", category, "userID", a.sess.UserID)
		return nil, err
	}

	slog.Info("Assessor.Submit: category assessed", "category", category, "userID", a.sess.UserID)
	return &Result{Category: category, Recommendation: recommendation, Answers: answers}, nil
}

// ProgressFor reports which categories have been assessed and which is next
// in the fixed progression order.
func (a *Assessor) ProgressFor(ctx context.Context) (*Progress, error) {
	records, err := a.store.ListAnswers(a.sess.UserID, AssessmentFormKey)
	if err != nil {
		slog.Error("Assessor.ProgressFor: load failed", "error", err, "userID", a.sess.UserID)
		return nil, fmt.Errorf("failed to load assessment records: %w", err)
	}
	assessed := make(map[Category]bool, len(records))
	for _, rec := range records {
		assessed[Category(rec.Discriminator)] = true
	}

	p := &Progress{CurrentIdx: len(Categories)}
	for i, category := range Categories {
		if assessed[category] {
			p.Completed = append(p.Completed, category)
			continue
		}
		if p.CurrentIdx == len(Categories) {
			p.CurrentIdx = i
			p.Current = category
		}
	}
	p.AllAssessed = len(p.Completed) == len(Categories)
	return p, nil
}
