package activity

import (
	"fmt"
	"strings"
	"time"
)

//nolint:gochecknoglobals // Fixed list of accepted layouts.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate parses an activity date. Dates without a zone are UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidDateFormat)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
}

// optionalDate parses s, returning the zero time when s is empty.
func optionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return ParseDate(s)
}

// Year returns the calendar year of an activity date, or zero when empty.
func Year(s string) (int, error) {
	t, err := optionalDate(s)
	if err != nil || t.IsZero() {
		return 0, err
	}
	return t.Year(), nil
}

// Period returns the parsed activity period. A missing from date is now;
// a missing thru date is the from date.
func (a Activity) Period(now time.Time) (time.Time, time.Time, error) {
	from, err := optionalDate(a.FromDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from_date: %w", err)
	}
	if from.IsZero() {
		from = now
	}
	thru, err := optionalDate(a.ThruDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("thru_date: %w", err)
	}
	if thru.IsZero() {
		thru = from
	}
	return from, thru, nil
}
