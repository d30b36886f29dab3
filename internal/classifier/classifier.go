// Package classifier turns habit-assessment answers into a recommendation.
//
// Classification is a pure, deterministic decision procedure: each category
// carries a priority-ordered rule list and the first matching rule wins, so
// answers matching several conditions always reproduce the same output.
package classifier

import "log/slog"

// Category is one of the five fixed assessment categories.
type Category string

const (
	CategorySleep     Category = "sleep"
	CategoryCalories  Category = "calories"
	CategoryProtein   Category = "protein"
	CategoryTraining  Category = "training"
	CategoryLifestyle Category = "lifestyle"
)

// Categories lists the assessment categories in their fixed progression order.
var Categories = []Category{
	CategorySleep,
	CategoryCalories,
	CategoryProtein,
	CategoryTraining,
	CategoryLifestyle,
}

// IsValidCategory checks if the given category is part of the assessment.
func IsValidCategory(c Category) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// QuestionKeys returns the answer keys a category expects. Sleep and
// calories ask three questions; the rest ask two.
func QuestionKeys(c Category) []string {
	switch c {
	case CategorySleep, CategoryCalories:
		return []string{"q1", "q2", "q3"}
	case CategoryProtein, CategoryTraining, CategoryLifestyle:
		return []string{"q1", "q2"}
	default:
		return nil
	}
}

// FallbackRecommendation is returned for a category outside the closed set.
const FallbackRecommendation = "No specific habit identified. Revisit this assessment once you have completed the other categories."

// rule is one branch of a category's decision list.
type rule struct {
	match func(a map[string]string) bool
	text  string
}

// Branch order matters everywhere below: rules are checked top to bottom and
// the first match wins. Reordering changes outputs for answers that match
// more than one condition.
var rules = map[Category][]rule{
	CategorySleep: {
		{
			match: func(a map[string]string) bool { return a["q1"] == "c" || a["q2"] == "b" || a["q3"] == "c" },
			text:  "You're likely getting less than 6 hours of sleep or keeping an inconsistent schedule. Build a consistent pre-sleep routine: pick a fixed lights-out time, dim screens for the last 30 minutes, and keep your wake time steady even on weekends.",
		},
		{
			match: func(a map[string]string) bool { return a["q1"] == "b" || a["q2"] == "c" || a["q3"] == "b" },
			text:  "Your sleep foundation is close. Tighten the wind-down routine on the nights it slips and protect the last hour before bed.",
		},
		{
			match: func(a map[string]string) bool { return true },
			text:  "Your sleep habits are solid. Keep protecting your schedule the way you already do.",
		},
	},
	CategoryCalories: {
		{
			match: func(a map[string]string) bool { return a["q1"] == "c" || a["q2"] == "c" },
			text:  "Start with awareness before restriction: log everything you eat and drink for one week without changing anything, then review where the surprise calories live.",
		},
		{
			match: func(a map[string]string) bool { return a["q1"] == "b" || a["q3"] == "b" || a["q3"] == "c" },
			text:  "You have partial awareness of your intake. Anchor one consistent meal per day and pre-plan the situation that usually derails you.",
		},
		{
			match: func(a map[string]string) bool { return true },
			text:  "Your calorie awareness is in good shape. Keep the habits that got you here.",
		},
	},
	CategoryProtein: {
		{
			match: func(a map[string]string) bool { return a["q1"] == "c" || a["q2"] == "c" },
			text:  "Protein is your biggest lever. Build each meal around a palm-sized protein source first and let the rest of the plate follow.",
		},
		{
			match: func(a map[string]string) bool { return a["q1"] == "b" || a["q2"] == "b" },
			text:  "You're partway there on protein. Add one protein-forward snack on the days you fall short, usually the busiest ones.",
		},
		{
			match: func(a map[string]string) bool { return true },
			text:  "Your protein intake looks dialed in. No change needed.",
		},
	},
	CategoryTraining: {
		{
			match: func(a map[string]string) bool { return a["q1"] == "c" || a["q2"] == "c" },
			text:  "Consistency beats intensity. Schedule two short, fixed training sessions a week you can never miss, and grow from there.",
		},
		{
			match: func(a map[string]string) bool { return a["q1"] == "b" || a["q2"] == "b" },
			text:  "You train, but irregularly. Attach your sessions to an existing anchor in your week so they stop competing with everything else.",
		},
		{
			match: func(a map[string]string) bool { return true },
			text:  "Your training rhythm is strong. Focus on progression rather than frequency.",
		},
	},
	CategoryLifestyle: {
		{
			match: func(a map[string]string) bool { return a["q1"] == "c" || a["q2"] == "c" },
			text:  "Daily movement is the habit to build. Take one 10-minute walk at the same time every day; attach it to a meal you never skip.",
		},
		{
			match: func(a map[string]string) bool { return a["q1"] == "b" || a["q2"] == "b" },
			text:  "Your baseline activity is moderate. Break up your longest sitting block with a two-minute reset every hour.",
		},
		{
			match: func(a map[string]string) bool { return true },
			text:  "Your daily movement habits are healthy. Keep them non-negotiable.",
		},
	},
}

// Classify maps a category and its answers to a recommendation. It is a pure
// function: identical inputs always yield the identical string, and the
// output is never empty. An unknown category yields the generic fallback.
func Classify(category Category, answers map[string]string) string {
	list, ok := rules[category]
	if !ok {
		slog.Warn("Classify: unknown category", "category", category)
		return FallbackRecommendation
	}
	for _, r := range list {
		if r.match(answers) {
			return r.text
		}
	}
	// Unreachable: every list ends in a catch-all.
	return FallbackRecommendation
}
