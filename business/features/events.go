package features

import (
	"sort"
	"time"

	"smartPromo/pkg/config"
)

// Tags for dates that fall outside every calendar event.
const (
	EventWeekendPromo = "Promo Akhir Pekan"
	EventOrdinaryDay  = "Hari Biasa"
)

// Calendar resolves a date to the event tag active on it.
type Calendar struct {
	entries []calendarEntry
}

type calendarEntry struct {
	tag   string
	start time.Time
	end   time.Time
}

func NewCalendar(events map[string]config.EventWindow) Calendar {
	entries := make([]calendarEntry, 0, len(events))
	for key, window := range events {
		entries = append(entries, calendarEntry{
			tag:   config.EventTagFromKey(key),
			start: window.Start,
			end:   window.End,
		})
	}

	// Stable lookup order regardless of map iteration.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].start.Equal(entries[j].start) {
			return entries[i].tag < entries[j].tag
		}
		return entries[i].start.Before(entries[j].start)
	})

	return Calendar{entries: entries}
}

// EventFor returns the event tag for a date: a named calendar event when the
// date falls inside its window, otherwise the weekend-promo tag on
// Friday/Saturday/Sunday, otherwise the ordinary-day tag.
func (c Calendar) EventFor(date time.Time) string {
	for _, e := range c.entries {
		if !date.Before(e.start) && !date.After(e.end) {
			return e.tag
		}
	}

	switch date.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return EventWeekendPromo
	default:
		return EventOrdinaryDay
	}
}

// Upcoming returns the calendar windows that have not ended yet and start
// within lookahead days of now, keyed by event tag. When the same event tag
// has several qualifying windows the earliest one wins.
func (c Calendar) Upcoming(now time.Time, lookahead int) map[string]config.EventWindow {
	horizon := now.AddDate(0, 0, lookahead)

	out := map[string]config.EventWindow{}
	for _, e := range c.entries {
		if e.end.Before(now) || e.start.After(horizon) {
			continue
		}
		if _, ok := out[e.tag]; ok {
			continue
		}
		out[e.tag] = config.EventWindow{Start: e.start, End: e.end}
	}

	return out
}
