package domain

import (
	"fmt"
	"strings"
	"time"
)

// Weekday identifies a day of the week in schedule configuration.
// Monday is 0 to match the order weekday names appear in config files.
type Weekday uint8

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [7]string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// String returns the lowercase weekday name.
func (w Weekday) String() string {
	if w > Sunday {
		return fmt.Sprintf("Weekday(%d)", uint8(w))
	}
	return weekdayNames[w]
}

// IsValid returns true if the weekday is within Monday..Sunday.
func (w Weekday) IsValid() bool {
	return w <= Sunday
}

// ParseWeekday converts a weekday name into a Weekday.
// Accepts full English day names, case-insensitive.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range weekdayNames {
		if n == name {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("invalid weekday: %q", s)
}

// WeekdayFromTime converts a time.Weekday (Sunday=0) into a Weekday (Monday=0).
func WeekdayFromTime(d time.Weekday) Weekday {
	if d == time.Sunday {
		return Sunday
	}
	return Weekday(d - time.Monday)
}

// Previous returns the calendar day before w, wrapping Sunday before Monday.
func (w Weekday) Previous() Weekday {
	if w == Monday {
		return Sunday
	}
	return w - 1
}
