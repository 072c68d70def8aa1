package domain

import (
	"fmt"
	"time"
)

// DateLayout is the format callers use for window bounds.
const DateLayout = "2006-01-02"

// TimeWindow bounds a collection run. A nil bound is open.
type TimeWindow struct {
	Start *time.Time
	End   *time.Time
}

// NewTimeWindow parses YYYY-MM-DD bounds as UTC midnight. Empty strings leave
// the bound unset.
func NewTimeWindow(start, end string) (TimeWindow, error) {
	var w TimeWindow

	s, err := parseDate(start)
	if err != nil {
		return TimeWindow{}, err
	}
	e, err := parseDate(end)
	if err != nil {
		return TimeWindow{}, err
	}
	if s != nil && e != nil && e.Before(*s) {
		return TimeWindow{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidDate, end, start)
	}

	w.Start = s
	w.End = e
	return w, nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return &t, nil
}

// Before reports whether t is strictly earlier than the start bound.
func (w TimeWindow) Before(t time.Time) bool {
	return w.Start != nil && t.Before(*w.Start)
}

// After reports whether t falls past the end bound. The end date is
// inclusive of its whole day.
func (w TimeWindow) After(t time.Time) bool {
	return w.End != nil && !t.Before(w.End.AddDate(0, 0, 1))
}

// Contains reports whether t lies inside both bounds.
func (w TimeWindow) Contains(t time.Time) bool {
	return !w.Before(t) && !w.After(t)
}

// Key renders the window for cache keys and file names.
func (w TimeWindow) Key() string {
	return formatBound(w.Start) + ".." + formatBound(w.End)
}

func formatBound(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
