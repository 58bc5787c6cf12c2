package config

import (
	"testing"
	"time"
)

func TestBoolEnvOrDefault(t *testing.T) {
	t.Setenv("BOOL_TEST", "")
	if got := boolEnvOrDefault("BOOL_TEST", true); !got {
		t.Fatalf("expected default true when unset")
	}

	cases := []struct {
		val      string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"FALSE", false},
		{"0", false},
		{"no", false},
		{"maybe", true}, // falls back to default on unknown
	}

	for _, tc := range cases {
		t.Setenv("BOOL_TEST", tc.val)
		if got := boolEnvOrDefault("BOOL_TEST", true); got != tc.expected {
			t.Fatalf("expected %v for %s, got %v", tc.expected, tc.val, got)
		}
	}
}

func TestListEnvOrDefault(t *testing.T) {
	def := []string{"*"}
	cases := map[string][]string{
		"":                  def,
		" , ":               def,
		"a":                 {"a"},
		" a ,b,, c ":        {"a", "b", "c"},
		"https://x.example": {"https://x.example"},
	}
	for raw, want := range cases {
		t.Setenv("LIST_TEST", raw)
		got := listEnvOrDefault("LIST_TEST", def)
		if len(got) != len(want) {
			t.Fatalf("listEnvOrDefault(%q) = %v, want %v", raw, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("listEnvOrDefault(%q) = %v, want %v", raw, got, want)
			}
		}
	}
}

func TestDurationEnvOrDefault(t *testing.T) {
	t.Setenv("DUR_TEST", "0s")
	if got := durationEnvOrDefault("DUR_TEST", time.Minute); got != time.Minute {
		t.Fatalf("expected zero duration to fall back, got %s", got)
	}
	t.Setenv("DUR_TEST", "90s")
	if got := durationEnvOrDefault("DUR_TEST", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}
