package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shipq/sqltable/sqlerr"
)

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the date year-month-day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO 8601 calendar date of the exact form YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, sqlerr.Formatf("invalid date %q: expected YYYY-MM-DD", s)
	}
	d := DateOf(t)
	if !d.Valid() {
		return Date{}, sqlerr.Formatf("invalid date %q: year out of range", s)
	}
	return d, nil
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Valid reports whether d names a real day between years 1 and 9999.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Year > 9999 {
		return false
	}
	return DateOf(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)) == d
}

// TimeOfDay is a wall clock time with nanosecond precision.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// NewTimeOfDay returns hour:minute:second with no fractional part.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute, Second: second}
}

// TimeOfDayOf returns the clock reading of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),
	}
}

// ParseTimeOfDay parses HH:MM:SS with an optional fraction of one to nine
// digits.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	bad := sqlerr.Formatf("invalid time %q: expected HH:MM:SS[.fffffffff]", s)

	clock, frac, hasFrac := strings.Cut(s, ".")
	if len(clock) != 8 || clock[2] != ':' || clock[5] != ':' {
		return TimeOfDay{}, bad
	}
	var parts [3]int
	for i := range parts {
		n, ok := twoDigits(clock[i*3 : i*3+2])
		if !ok {
			return TimeOfDay{}, bad
		}
		parts[i] = n
	}

	var nanos int
	if hasFrac {
		if len(frac) == 0 || len(frac) > 9 {
			return TimeOfDay{}, bad
		}
		for _, c := range frac {
			if c < '0' || c > '9' {
				return TimeOfDay{}, bad
			}
		}
		n, err := strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
		if err != nil {
			return TimeOfDay{}, bad
		}
		nanos = n
	}

	t := TimeOfDay{Hour: parts[0], Minute: parts[1], Second: parts[2], Nanosecond: nanos}
	if !t.Valid() {
		return TimeOfDay{}, bad
	}
	return t, nil
}

func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// String returns HH:MM:SS, followed by the fraction with trailing zeros
// removed when it is non-zero.
func (t TimeOfDay) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond == 0 {
		return s
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond), "0")
	return s + "." + frac
}

// Valid reports whether every field is within its clock range.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 &&
		t.Minute >= 0 && t.Minute < 60 &&
		t.Second >= 0 && t.Second < 60 &&
		t.Nanosecond >= 0 && t.Nanosecond < 1_000_000_000
}
