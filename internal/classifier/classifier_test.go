package classifier

import (
	"strings"
	"testing"
)

func TestClassifyIsDeterministic(t *testing.T) {
	answers := map[string]string{"q1": "a", "q2": "b", "q3": "a"}
	first := Classify(CategorySleep, answers)
	for i := 0; i < 10; i++ {
		if got := Classify(CategorySleep, answers); got != first {
			t.Fatalf("classification is not deterministic: %q vs %q", got, first)
		}
	}
}

func TestSleepBranchOrderIsRespected(t *testing.T) {
	// q2=b matches the first branch even though q1 and q3 look healthy; the
	// answers must not fall through to the solid-habits message.
	got := Classify(CategorySleep, map[string]string{"q1": "a", "q2": "b", "q3": "a"})
	if !strings.Contains(got, "pre-sleep routine") {
		t.Errorf("expected the first-branch recommendation, got %q", got)
	}
}

func TestSleepInconsistencyBranch(t *testing.T) {
	// Scenario: q3=c triggers the less-than-6-hours/consistency branch.
	got := Classify(CategorySleep, map[string]string{"q1": "a", "q2": "a", "q3": "c"})
	if !strings.Contains(got, "less than 6 hours") {
		t.Errorf("expected the consistency branch, got %q", got)
	}
}

func TestSleepSolidHabitsBranch(t *testing.T) {
	got := Classify(CategorySleep, map[string]string{"q1": "a", "q2": "a", "q3": "a"})
	if !strings.Contains(got, "solid") {
		t.Errorf("expected the solid-habits message, got %q", got)
	}
}

func TestClassifyOutputIsNeverEmpty(t *testing.T) {
	combos := []string{"a", "b", "c"}
	for _, category := range Categories {
		keys := QuestionKeys(category)
		// Walk every answer combination for the category.
		total := 1
		for range keys {
			total *= len(combos)
		}
		for n := 0; n < total; n++ {
			answers := make(map[string]string, len(keys))
			rem := n
			for _, key := range keys {
				answers[key] = combos[rem%len(combos)]
				rem /= len(combos)
			}
			if got := Classify(category, answers); got == "" {
				t.Fatalf("empty recommendation for %s %v", category, answers)
			}
		}
	}
}

func TestClassifyUnknownCategoryFallsBack(t *testing.T) {
	got := Classify(Category("hydration"), map[string]string{"q1": "a"})
	if got != FallbackRecommendation {
		t.Errorf("expected fallback recommendation, got %q", got)
	}
}

func TestQuestionKeysPerCategory(t *testing.T) {
	if n := len(QuestionKeys(CategorySleep)); n != 3 {
		t.Errorf("sleep should ask 3 questions, got %d", n)
	}
	if n := len(QuestionKeys(CategoryCalories)); n != 3 {
		t.Errorf("calories should ask 3 questions, got %d", n)
	}
	for _, c := range []Category{CategoryProtein, CategoryTraining, CategoryLifestyle} {
		if n := len(QuestionKeys(c)); n != 2 {
			t.Errorf("%s should ask 2 questions, got %d", c, n)
		}
	}
}
