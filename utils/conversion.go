package utils

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseTimeBound parses an RFC3339 timestamp or a YYYY-MM-DD date in loc.
// Date-only values resolve to the start of that day, or to its last
// nanosecond when endOfDay is set, so they can serve as inclusive bounds.
func ParseTimeBound(value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected RFC3339 or YYYY-MM-DD", value)
	}
	if endOfDay {
		return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return d, nil
}
