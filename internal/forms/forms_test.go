package forms

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
	"github.com/ramionh/thrive-well-guide-sub001/internal/session"
	"github.com/ramionh/thrive-well-guide-sub001/internal/store"
)

func testForm(t *testing.T, st store.Store, cfg Config) *Form {
	t.Helper()
	sess, err := session.New("u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := New(sess, st, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f
}

func TestLoadFirstVisitReturnsInitial(t *testing.T) {
	f := testForm(t, store.NewInMemoryStore(), Config{
		Key:     "goal_values",
		Initial: Values{"text": ""},
	})
	values, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values["text"] != "" || len(values) != 1 {
		t.Errorf("expected initial document, got %v", values)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := store.NewInMemoryStore()
	f := testForm(t, st, Config{Key: "goal_values"})
	ctx := context.Background()

	if err := f.Save(ctx, Values{"text": "health that lets me keep up with my kids"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	values, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values["text"] != "health that lets me keep up with my kids" {
		t.Errorf("round trip lost the text: %v", values)
	}
}

func TestIdempotentSaveLeavesOneRecord(t *testing.T) {
	st := store.NewInMemoryStore()
	f := testForm(t, st, Config{Key: "goal_values"})
	ctx := context.Background()

	doc := Values{"text": "same input"}
	if err := f.Save(ctx, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Save(ctx, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all, err := st.ListAnswers("u1", "goal_values")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one live record, got %d", len(all))
	}
}

func TestFindThenBranchUpdatesInPlace(t *testing.T) {
	st := store.NewInMemoryStore()
	f := testForm(t, st, Config{Key: "habit_assessment", Strategy: StrategyFindThenBranch}).WithDiscriminator("sleep")
	ctx := context.Background()

	if err := f.Save(ctx, Values{"recommendation": "first"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Save(ctx, Values{"recommendation": "second"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all, err := st.ListAnswers("u1", "habit_assessment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one record per (user, category), got %d", len(all))
	}
	values, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values["recommendation"] != "second" {
		t.Errorf("second save did not win: %v", values)
	}
}

func TestDiscriminatorsAreIndependent(t *testing.T) {
	st := store.NewInMemoryStore()
	base := testForm(t, st, Config{Key: "day_plan"})
	ctx := context.Background()

	if err := base.WithDiscriminator("best_day").Save(ctx, Values{"description": "sunny saturday"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := base.WithDiscriminator("worst_day").Save(ctx, Values{"description": "deadline crunch"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	best, err := base.WithDiscriminator("best_day").Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best["description"] != "sunny saturday" {
		t.Errorf("best-day record leaked: %v", best)
	}
}

func TestMalformedPayloadFallsBackToDefaults(t *testing.T) {
	st := store.NewInMemoryStore()
	now := time.Now()
	if err := st.InsertAnswer(models.AnswerRecord{
		ID: "bad", UserID: "u1", FormKey: "core_values",
		Payload: "{not json at all", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := testForm(t, st, Config{Key: "core_values", Initial: Values{"values": ""}})
	values, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("decode failure must not surface as an error, got %v", err)
	}
	if values["values"] != "" || len(values) != 1 {
		t.Errorf("expected fallback to initial document, got %v", values)
	}
}

func TestLegacyBase64PayloadDecodes(t *testing.T) {
	st := store.NewInMemoryStore()
	now := time.Now()
	encoded := base64.StdEncoding.EncodeToString([]byte(`{"text":"legacy entry"}`))
	if err := st.InsertAnswer(models.AnswerRecord{
		ID: "legacy", UserID: "u1", FormKey: "health_history",
		Payload: encoded, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := testForm(t, st, Config{Key: "health_history"})
	values, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values["text"] != "legacy entry" {
		t.Errorf("legacy payload did not decode: %v", values)
	}
}

func TestSaveReportsCompletion(t *testing.T) {
	completions := 0
	f := testForm(t, store.NewInMemoryStore(), Config{
		Key: "commitment_statement",
		OnComplete: func(ctx context.Context) error {
			completions++
			return nil
		},
	})
	if err := f.Save(context.Background(), Values{"text": "I commit"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completions != 1 {
		t.Errorf("expected one completion report, got %d", completions)
	}
}

func TestTransformsApplyOnSaveAndLoad(t *testing.T) {
	st := store.NewInMemoryStore()
	cfg := Config{
		Key: "readiness_ruler",
		TransformOut: func(v Values) Values {
			v["scale"] = "1-10"
			return v
		},
		TransformIn: func(v Values) Values {
			delete(v, "scale")
			return v
		},
	}
	f := testForm(t, st, cfg)
	ctx := context.Background()
	if err := f.Save(ctx, Values{"readiness": "7"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := st.LatestAnswer("u1", "readiness_ruler", "")
	if err != nil || rec == nil {
		t.Fatalf("expected stored record, err=%v", err)
	}
	if rec.Payload == "" || rec.Payload == `{"readiness":"7"}` {
		t.Errorf("transform-out not applied to stored payload: %q", rec.Payload)
	}
	values, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := values["scale"]; ok {
		t.Errorf("transform-in did not strip storage-only field: %v", values)
	}
}

func TestLookupFallsBackToPlainConfig(t *testing.T) {
	cfg := Lookup("never_registered")
	if cfg.Key != "never_registered" || cfg.Strategy != StrategyUpsert {
		t.Errorf("unexpected fallback config: %+v", cfg)
	}
}
