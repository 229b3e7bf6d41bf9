// Package timeutil handles the two time representations used across the
// service: ISO dates (YYYY-MM-DD strings) and times of day as minutes from
// midnight. Wall-clock timezones stay out of scheduling math on purpose; a
// league's dates are interpreted in its own local calendar.
package timeutil

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire and storage format for calendar dates.
	DateLayout = "2006-01-02"
	// MinutesPerDay bounds a time-of-day value.
	MinutesPerDay = 24 * 60
)

// ParseDate parses an ISO date string.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return d, nil
}

// FormatDate renders a time as an ISO date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Weekday returns 0=Sunday..6=Saturday for an ISO date string.
func Weekday(date string) (int, error) {
	d, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return int(d.Weekday()), nil
}

// WeekKey buckets a date into its ISO week, qualified by year so seasons that
// span new year do not fold week numbers together.
func WeekKey(date string) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	year, week := d.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week), nil
}

// EachDate calls fn for every date from (inclusive) to (inclusive) in order.
func EachDate(from, to string, fn func(date time.Time) error) error {
	start, err := ParseDate(from)
	if err != nil {
		return err
	}
	end, err := ParseDate(to)
	if err != nil {
		return err
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

// ValidMinutes reports whether a [start, end) pair is a well-formed
// time-of-day interval.
func ValidMinutes(startMin, endMin int) bool {
	return startMin >= 0 && endMin <= MinutesPerDay && startMin < endMin
}

// FormatClock renders minutes from midnight as 24-hour HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatClock12 renders minutes from midnight as 12-hour h:mm AM/PM.
func FormatClock12(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	suffix := "AM"
	switch {
	case h == 0:
		h = 12
	case h == 12:
		suffix = "PM"
	case h > 12:
		h -= 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix)
}

// FormatDateUS renders an ISO date as MM/DD/YYYY.
func FormatDateUS(date string) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return d.Format("01/02/2006"), nil
}
