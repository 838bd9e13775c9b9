package progression

import "time"

// DateLayout is the ISO calendar-day format used for log keys and streaks.
const DateLayout = "2006-01-02"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct{ T time.Time }

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.T }

// Day is a calendar date in YYYY-MM-DD form.
type Day string

// DayOf formats t as a Day in t's own location.
func DayOf(t time.Time) Day { return Day(t.Format(DateLayout)) }

// Today returns the current Day in loc (time.Local when nil).
func Today(c Clock, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return DayOf(c.Now().In(loc))
}

// ParseDay validates s. Malformed strings report false.
func ParseDay(s string) (Day, bool) {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", false
	}
	return Day(s), true
}

// Time returns midnight UTC of d.
func (d Day) Time() (time.Time, bool) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AddDays shifts d by n calendar days. Malformed days stay malformed ("").
func (d Day) AddDays(n int) Day {
	t, ok := d.Time()
	if !ok {
		return ""
	}
	return DayOf(t.AddDate(0, 0, n))
}

// Yesterday is d minus one calendar day.
func (d Day) Yesterday() Day { return d.AddDays(-1) }

// WeekStart returns the Monday of d's ISO week.
func (d Day) WeekStart() Day {
	t, ok := d.Time()
	if !ok {
		return ""
	}
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return DayOf(t.AddDate(0, 0, -offset))
}

func (d Day) String() string { return string(d) }
