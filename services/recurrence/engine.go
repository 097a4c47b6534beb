package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Frequency is the step of a recurrence pattern.
type Frequency int

const (
	FrequencyUnspecified Frequency = iota
	FrequencyDaily
	FrequencyWeekly
	FrequencyBiweekly
	FrequencyMonthly
)

var frequencyNames = map[string]Frequency{
	"daily":    FrequencyDaily,
	"weekly":   FrequencyWeekly,
	"biweekly": FrequencyBiweekly,
	"monthly":  FrequencyMonthly,
}

func (f Frequency) String() string {
	for name, v := range frequencyNames {
		if v == f {
			return name
		}
	}
	return "unspecified"
}

// ErrUnsupportedPattern indicates a pattern name the engine does not know.
var ErrUnsupportedPattern = errors.New("recurrence: unsupported pattern")

// ErrInvalidWeekday indicates a day name that could not be parsed.
var ErrInvalidWeekday = errors.New("recurrence: invalid weekday")

// ErrTooManyOccurrences indicates the series would exceed the engine's limit.
var ErrTooManyOccurrences = errors.New("recurrence: too many occurrences")

// Pattern is a parsed recurrence rule. Weekdays is only consulted for daily,
// weekly and biweekly patterns; an empty set means "same weekday as the start"
// for weekly kinds and "every day" for daily.
type Pattern struct {
	Frequency Frequency
	Weekdays  []time.Weekday
}

// ParsePattern builds a Pattern from its wire name and an optional list of day names.
// Day names may be full ("Monday") or abbreviated ("mon"), in any case.
func ParsePattern(name string, days []string) (Pattern, error) {
	freq, ok := frequencyNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Pattern{}, fmt.Errorf("%w: %q", ErrUnsupportedPattern, name)
	}
	p := Pattern{Frequency: freq}
	if freq == FrequencyMonthly {
		return p, nil
	}

	seen := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		wd, err := parseWeekday(d)
		if err != nil {
			return Pattern{}, err
		}
		if _, dup := seen[wd]; dup {
			continue
		}
		seen[wd] = struct{}{}
		p.Weekdays = append(p.Weekdays, wd)
	}
	sort.Slice(p.Weekdays, func(i, j int) bool { return p.Weekdays[i] < p.Weekdays[j] })
	return p, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if v == full || (len(v) == 3 && strings.HasPrefix(full, v)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// Engine expands patterns into concrete start times.
type Engine struct {
	location       *time.Location
	maxOccurrences int
}

// NewEngine returns an Engine evaluating calendar steps in loc (UTC if nil).
// maxOccurrences <= 0 disables the limit.
func NewEngine(loc *time.Location, maxOccurrences int) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc, maxOccurrences: maxOccurrences}
}

// Expand returns every occurrence strictly after start and not after end, in
// ascending order. All results carry start's time of day in the engine's location.
func (e *Engine) Expand(p Pattern, start, end time.Time) ([]time.Time, error) {
	start = start.In(e.location)
	end = end.In(e.location)
	occurrences := make([]time.Time, 0)
	if !end.After(start) {
		return occurrences, nil
	}

	emit := func(t time.Time) error {
		if e.maxOccurrences > 0 && len(occurrences) >= e.maxOccurrences {
			return fmt.Errorf("%w: more than %d", ErrTooManyOccurrences, e.maxOccurrences)
		}
		occurrences = append(occurrences, t)
		return nil
	}

	switch p.Frequency {
	case FrequencyMonthly:
		for i := 1; ; i++ {
			next := addMonthsClamped(start, i)
			if next.After(end) {
				break
			}
			if err := emit(next); err != nil {
				return nil, err
			}
		}
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly:
		if len(p.Weekdays) == 0 {
			step := map[Frequency]int{FrequencyDaily: 1, FrequencyWeekly: 7, FrequencyBiweekly: 14}[p.Frequency]
			for i := 1; ; i++ {
				next := start.AddDate(0, 0, i*step)
				if next.After(end) {
					break
				}
				if err := emit(next); err != nil {
					return nil, err
				}
			}
			break
		}

		days := make(map[time.Weekday]struct{}, len(p.Weekdays))
		for _, d := range p.Weekdays {
			days[d] = struct{}{}
		}
		anchor := weekStart(start)
		for i := 1; ; i++ {
			next := start.AddDate(0, 0, i)
			if next.After(end) {
				break
			}
			if _, ok := days[next.Weekday()]; !ok {
				continue
			}
			if p.Frequency == FrequencyBiweekly && weeksBetween(anchor, weekStart(next))%2 != 0 {
				continue
			}
			if err := emit(next); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPattern, p.Frequency)
	}
	return occurrences, nil
}

// addMonthsClamped moves t forward n months keeping its day of month, or the
// last day of the target month when that month is shorter.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// weekStart returns midnight of the Monday on or before t.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

func weeksBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours()/24) / 7
}
