package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRulesMissingFileUsesDefaults(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if rules.TotalPromoSlots != 1000 || rules.ScoreThreshold != 50 {
		t.Errorf("defaults not applied: %+v", rules)
	}
}

func TestLoadRulesPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := []byte("total_promo_slots: 200\nevents_calendar:\n  Ramadan_2025: { start: \"2025-02-28\", end: \"2025-03-29\" }\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}

	if rules.TotalPromoSlots != 200 {
		t.Errorf("slots = %d, want override 200", rules.TotalPromoSlots)
	}
	// Untouched fields keep their defaults.
	if rules.ScoreThreshold != 50 {
		t.Errorf("threshold = %v, want default 50", rules.ScoreThreshold)
	}

	win, ok := rules.EventsCalendar["Ramadan_2025"]
	if !ok {
		t.Fatal("calendar override missing")
	}
	if win.Start.Format("2006-01-02") != "2025-02-28" {
		t.Errorf("window start = %v", win.Start)
	}
}

func TestLoadRulesRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("total_promo_slots: -5\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadRules(path); err == nil {
		t.Error("negative slot quota should be rejected")
	}
}

func TestEventTagFromKey(t *testing.T) {
	cases := map[string]string{
		"Ramadan_2025":    "Ramadan",
		"Tahun Baru_2024": "Tahun Baru",
		"Lebaran":         "Lebaran",
	}
	for key, want := range cases {
		if got := EventTagFromKey(key); got != want {
			t.Errorf("EventTagFromKey(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestCalendarEventNamesDeduplicated(t *testing.T) {
	names := DefaultRules().CalendarEventNames()

	want := []string{"Natal", "Ramadan", "Tahun Baru"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
