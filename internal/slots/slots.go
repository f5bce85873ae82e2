// Package slots turns the backend's list of active times of day into the
// concrete date-times a fluid balance may be recorded at.
package slots

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

type Slot struct {
	Time      time.Time
	TimeOfDay string
	Label     string
}

// Value is the form value a slot round-trips through.
func (s Slot) Value() string {
	return s.Time.Format(inputLayout)
}

const inputLayout = "2006-01-02T15:04"

// Build combines day's calendar date in loc with every valid "H:MM" or
// "HH:MM" entry of times. Malformed or out-of-range entries are dropped.
// The result is sorted ascending.
func Build(day time.Time, times []string, loc *time.Location, locale string) []Slot {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := day.In(loc).Date()

	out := make([]Slot, 0, len(times))
	for _, raw := range times {
		hour, minute, ok := parseTimeOfDay(raw)
		if !ok {
			continue
		}
		t := time.Date(y, m, d, hour, minute, 0, 0, loc)
		out = append(out, Slot{
			Time:      t,
			TimeOfDay: t.Format("15:04"),
			Label:     Label(t, locale),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// parseTimeOfDay accepts H, H:MM and H:MM:SS; seconds are ignored.
func parseTimeOfDay(raw string) (hour, minute int, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, 0, false
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	if len(parts) == 1 {
		return hour, 0, true
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// Find matches candidate against slots to the millisecond.
func Find(candidate string, slots []Slot, loc *time.Location) (Slot, bool) {
	t, ok := ParseCandidate(candidate, loc)
	if !ok {
		return Slot{}, false
	}
	return FindTime(t, slots)
}

func FindTime(t time.Time, slots []Slot) (Slot, bool) {
	if t.IsZero() {
		return Slot{}, false
	}
	ms := t.UnixMilli()
	for _, s := range slots {
		if s.Time.UnixMilli() == ms {
			return s, true
		}
	}
	return Slot{}, false
}

func IsAllowed(candidate string, slots []Slot, loc *time.Location) bool {
	_, ok := Find(candidate, slots, loc)
	return ok
}

func IsAllowedTime(t time.Time, slots []Slot) bool {
	_, ok := FindTime(t, slots)
	return ok
}

var zonelessLayouts = []string{
	inputLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
}

// ParseCandidate coerces a form or wire value to a time. Zoned values keep
// their offset, zoneless values are read in loc, bare integers are epoch
// milliseconds.
func ParseCandidate(candidate string, loc *time.Location) (time.Time, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, candidate); err == nil {
		return t, true
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, candidate, loc); err == nil {
			return t, true
		}
	}
	if ms, err := strconv.ParseInt(candidate, 10, 64); err == nil {
		return time.UnixMilli(ms).In(loc), true
	}
	return time.Time{}, false
}

// Midnight returns the start of t's calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
