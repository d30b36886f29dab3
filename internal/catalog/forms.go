package catalog

import "github.com/ramionh/thrive-well-guide-sub001/internal/forms"

// Form configs for steps that need more than the plain free-text default.
// Everything not registered here falls back to a bare upsert config under the
// step's form key.
func init() {
	forms.Register(forms.Config{
		Key:     "readiness_ruler",
		Initial: forms.Values{"ready": "5", "willing": "5", "able": "5"},
	})
	forms.Register(forms.Config{
		Key:     "confidence_ruler",
		Initial: forms.Values{"confidence": "5"},
	})
	forms.Register(forms.Config{
		Key:     "pros_cons",
		Initial: forms.Values{"pros_stay": "", "cons_stay": "", "pros_change": "", "cons_change": ""},
	})
	forms.Register(forms.Config{
		Key:     "obstacle_forecast",
		Initial: forms.Values{"obstacle_1": "", "obstacle_2": "", "obstacle_3": ""},
	})
	// Legacy clients stored the three if-then pairs under numbered keys;
	// fold them into the current shape on load.
	forms.Register(forms.Config{
		Key:         "if_then_planning",
		Initial:     forms.Values{"if_1": "", "then_1": "", "if_2": "", "then_2": "", "if_3": "", "then_3": ""},
		TransformIn: renameLegacyIfThenFields,
	})
	forms.Register(forms.Config{
		Key:      "resource_deep_dive",
		Strategy: forms.StrategyFindThenBranch,
	})
	forms.Register(forms.Config{
		Key:     "milestones",
		Initial: forms.Values{"month_1": "", "month_2": "", "month_3": "", "month_4": "", "month_5": "", "month_6": ""},
	})
}

func renameLegacyIfThenFields(values forms.Values) forms.Values {
	legacy := map[string]string{
		"situation_1": "if_1", "response_1": "then_1",
		"situation_2": "if_2", "response_2": "then_2",
		"situation_3": "if_3", "response_3": "then_3",
	}
	for old, current := range legacy {
		if v, ok := values[old]; ok && values[current] == "" {
			values[current] = v
			delete(values, old)
		}
	}
	return values
}
