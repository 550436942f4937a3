package engine

import (
	"time"

	"smartPromo/pkg/config"
)

// PromotionWindow assigns the start/end dates for a resolved strategy.
// Windows are anchored on Fridays of next month except for the Ramadan
// special case, which starts one week before the configured Ramadan start
// and runs two weeks.
func (e *Engine) PromotionWindow(s Strategy, ref time.Time, upcoming map[string]config.EventWindow) (time.Time, time.Time) {
	if s.Kind == KindEvent && s.Event == "Ramadan" {
		if window, ok := upcoming["Ramadan"]; ok {
			start := window.Start.AddDate(0, 0, -7)
			return start, start.AddDate(0, 0, 13)
		}
	}

	firstFriday := firstFridayOfNextMonth(ref)

	switch s.Kind {
	case KindExpiry:
		// First Friday through Sunday.
		return firstFriday, firstFriday.AddDate(0, 0, 2)
	case KindBOGO:
		// Second Friday through Sunday.
		start := firstFriday.AddDate(0, 0, 7)
		return start, start.AddDate(0, 0, 2)
	default:
		// Third Friday through Sunday.
		start := firstFriday.AddDate(0, 0, 14)
		return start, start.AddDate(0, 0, 2)
	}
}

// firstFridayOfNextMonth takes day 1 of the month 30 days ahead of ref and
// advances to the next Friday. When day 1 is itself a Friday the advance is a
// full 7 days, not 0 — the window intentionally skips that first Friday.
func firstFridayOfNextMonth(ref time.Time) time.Time {
	ahead := ref.AddDate(0, 0, 30)
	monthStart := time.Date(ahead.Year(), ahead.Month(), 1, 0, 0, 0, 0, ref.Location())

	daysToFriday := (int(time.Friday) - int(monthStart.Weekday()) + 7) % 7
	if daysToFriday == 0 {
		daysToFriday = 7
	}

	return monthStart.AddDate(0, 0, daysToFriday)
}
