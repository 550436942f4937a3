package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Rules is the business-rule surface of the recommendation pipeline. A YAML
// file can override any field; DefaultRules supplies sane values so the
// pipeline also runs without one.
type Rules struct {
	TotalPromoSlots     int     `yaml:"total_promo_slots"`
	ScoreThreshold      float64 `yaml:"score_threshold"`
	MinTreatmentSamples int     `yaml:"min_treatment_samples"`
	MinUrgencySamples   int     `yaml:"min_urgency_samples"`
	EventLookaheadDays  int     `yaml:"event_lookahead_days"`
	EventLiftThreshold  float64 `yaml:"event_lift_threshold"`
	ExpiryFallbackDays  int     `yaml:"expiry_fallback_days"`
	TestFraction        float64 `yaml:"test_fraction"`
	RandomSeed          int64   `yaml:"random_seed"`

	UrgencyWeights UrgencyWeights `yaml:"urgency_weights"`

	BOGOCategories []string `yaml:"bogo_categories"`

	// Named calendar entries like "Ramadan_2025". The tag applied to a
	// transaction is the part before the underscore.
	EventsCalendar map[string]EventWindow `yaml:"events_calendar"`
}

// UrgencyWeights are the raw-score component weights. They are not required
// to sum to 1.
type UrgencyWeights struct {
	Expiry    float64 `yaml:"expiry"`
	Staleness float64 `yaml:"staleness"`
	Velocity  float64 `yaml:"velocity"`
}

type EventWindow struct {
	Start time.Time
	End   time.Time
}

type eventWindowYAML struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

func (w *EventWindow) UnmarshalYAML(value *yaml.Node) error {
	var raw eventWindowYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}

	start, err := time.Parse("2006-01-02", raw.Start)
	if err != nil {
		return fmt.Errorf("invalid event start date %q: %w", raw.Start, err)
	}
	end, err := time.Parse("2006-01-02", raw.End)
	if err != nil {
		return fmt.Errorf("invalid event end date %q: %w", raw.End, err)
	}

	w.Start = start
	w.End = end
	return nil
}

func DefaultRules() Rules {
	day := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}

	return Rules{
		TotalPromoSlots:     1000,
		ScoreThreshold:      50,
		MinTreatmentSamples: 100,
		MinUrgencySamples:   10,
		EventLookaheadDays:  90,
		EventLiftThreshold:  1.2,
		ExpiryFallbackDays:  45,
		TestFraction:        0.2,
		RandomSeed:          42,

		UrgencyWeights: UrgencyWeights{
			Expiry:    0.6,
			Staleness: 0.3,
			Velocity:  0.1,
		},

		BOGOCategories: []string{
			"Biskuit", "Soda", "Cokelat", "Sereal", "Mie Instan", "Jus Kemasan",
			"Teh", "Pasta", "Permen", "Makaroni", "Kuaci", "Yogurt", "Nugget",
			"Air Mineral", "Minuman Isotonik", "Keripik", "Susu Kemasan",
			"Kopi Kemasan", "Kacang", "Ice Cream", "Kentang Goreng",
			"Sarden Kaleng", "Kornet",
		},

		EventsCalendar: map[string]EventWindow{
			"Ramadan_2023":    {Start: day("2023-03-22"), End: day("2023-04-21")},
			"Natal_2023":      {Start: day("2023-12-15"), End: day("2023-12-25")},
			"Tahun Baru_2023": {Start: day("2023-12-26"), End: day("2024-01-02")},
			"Ramadan_2024":    {Start: day("2024-03-10"), End: day("2024-04-09")},
			"Natal_2024":      {Start: day("2024-12-15"), End: day("2024-12-25")},
			"Tahun Baru_2024": {Start: day("2024-12-26"), End: day("2025-01-02")},
			"Ramadan_2025":    {Start: day("2025-02-28"), End: day("2025-03-29")},
			"Natal_2025":      {Start: day("2025-12-15"), End: day("2025-12-25")},
			"Tahun Baru_2025": {Start: day("2025-12-26"), End: day("2026-01-02")},
		},
	}
}

// LoadRules reads the YAML rules file, starting from defaults so a partial
// file only overrides what it names. A missing file is not an error.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	if path == "" {
		return rules, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rules, nil
		}
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules file: %w", err)
	}

	if rules.TotalPromoSlots <= 0 {
		return Rules{}, fmt.Errorf("total_promo_slots must be positive, got %d", rules.TotalPromoSlots)
	}
	if rules.TestFraction <= 0 || rules.TestFraction >= 1 {
		return Rules{}, fmt.Errorf("test_fraction must be in (0,1), got %v", rules.TestFraction)
	}

	return rules, nil
}

// CalendarEventNames returns the distinct event tags (the part before the
// underscore) in a stable order.
func (r Rules) CalendarEventNames() []string {
	seen := map[string]struct{}{}
	names := []string{}
	for key := range r.EventsCalendar {
		name := EventTagFromKey(key)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EventTagFromKey strips the year qualifier from a calendar key, so
// "Ramadan_2025" becomes "Ramadan".
func EventTagFromKey(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '_' {
			return key[:i]
		}
	}
	return key
}
