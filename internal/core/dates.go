package core

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date. The wire form is "2006-01-02"; full timestamps
// are tolerated on input and truncated to the day.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the current calendar date in UTC.
func Today() Date {
	return DateOf(time.Now().UTC())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339, "2006-01-02T15:04:05.000Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = DateOf(t).Time
			return nil
		}
	}
	return fmt.Errorf("parse date %q", s)
}

// Format renders the date per the user's preference.
func (d Date) Format(f DateFormat) string {
	if d.IsZero() {
		return ""
	}
	switch f {
	case DateFormatEU:
		return d.Time.Format("02/01/2006")
	case DateFormatISO:
		return d.Time.Format(dateLayout)
	default:
		return d.Time.Format("01/02/2006")
	}
}

// StartOfDay truncates to 00:00:00.000.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay extends to 23:59:59.999.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// StartOfWeek returns the preceding (or current) Sunday at midnight.
func StartOfWeek(t time.Time) time.Time {
	return StartOfDay(t.AddDate(0, 0, -int(t.Weekday())))
}

// StartOfMonth returns the first of the month at midnight.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// StartOfYear returns January 1st at midnight.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// PeriodStart anchors a budget period to the moment it contains: the start
// of the current day, week, month or year.
func PeriodStart(p Period, now time.Time) time.Time {
	switch p {
	case Daily:
		return StartOfDay(now)
	case Weekly:
		return StartOfWeek(now)
	case Yearly:
		return StartOfYear(now)
	default:
		return StartOfMonth(now)
	}
}
