package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDue = errors.New("invalid due date")

const defaultDueClock = 9 * time.Hour

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseDue understands:
//
//	none | ""                  clears the due date
//	now
//	in 20m | +1h30m            relative to now
//	15:04                      today, or tomorrow once that time has passed
//	today 17:30 | tomorrow     (tomorrow alone means 09:00)
//	2006-01-02 [15:04] | RFC3339
//
// Clock times are interpreted in loc.
func ParseDue(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.ToLower(strings.TrimSpace(raw))
	now = now.In(loc)

	switch {
	case s == "" || s == "none":
		return time.Time{}, nil
	case s == "now":
		return now, nil
	case strings.HasPrefix(s, "in "), strings.HasPrefix(s, "+"):
		expr := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, "in "), "+"))
		d, err := time.ParseDuration(strings.ReplaceAll(expr, " ", ""))
		if err != nil || d < 0 {
			return time.Time{}, fmt.Errorf("%w: %q: expected a duration like 20m or 1h30m", ErrInvalidDue, raw)
		}
		return now.Add(d), nil
	}

	if day, rest, ok := strings.Cut(s, " "); ok || s == "today" || s == "tomorrow" {
		if !ok {
			day, rest = s, ""
		}
		if day == "today" || day == "tomorrow" {
			base := midnight(now)
			if day == "tomorrow" {
				base = base.AddDate(0, 0, 1)
			}
			clock := defaultDueClock
			if rest != "" {
				c, err := parseClock(rest)
				if err != nil {
					return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDue, raw)
				}
				clock = c
			}
			return base.Add(clock), nil
		}
	}

	if clock, err := parseClock(s); err == nil {
		at := midnight(now).Add(clock)
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return at, nil
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, strings.ToUpper(s), loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t.Add(defaultDueClock), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDue, raw)
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
