package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		value        string
		defaultValue bool
		expected     bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"No", true, false},
		{"off", true, false},
		{"", true, true},
		{"", false, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, c := range cases {
		t.Setenv("THRIVEWELL_TEST_BOOL", c.value)
		if got := ParseBoolEnv("THRIVEWELL_TEST_BOOL", c.defaultValue); got != c.expected {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, expected %v", c.value, c.defaultValue, got, c.expected)
		}
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("THRIVEWELL_TEST_STR", "")
	if got := EnvOrDefault("THRIVEWELL_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback for empty variable, got %q", got)
	}
	t.Setenv("THRIVEWELL_TEST_STR", "set")
	if got := EnvOrDefault("THRIVEWELL_TEST_STR", "fallback"); got != "set" {
		t.Errorf("Expected set value, got %q", got)
	}
}
