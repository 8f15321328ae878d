package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinuteOfDay is a time of day with minute granularity, counted from midnight.
// Valid values are 0 (00:00) through 1439 (23:59).
type MinuteOfDay uint16

const minutesPerDay = 24 * 60

// ParseTimeOfDay parses an "HH:MM" 24-hour time string.
func ParseTimeOfDay(s string) (MinuteOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	return MinuteOfDay(hours*60 + minutes), nil
}

// MinuteOfDayFromTime extracts the minute-of-day from a wall-clock instant.
func MinuteOfDayFromTime(t time.Time) MinuteOfDay {
	return MinuteOfDay(t.Hour()*60 + t.Minute())
}

// String renders the time as "HH:MM".
func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// IsValid returns true if the value is within a single day.
func (m MinuteOfDay) IsValid() bool {
	return m < minutesPerDay
}

// TimeRange is an availability window within a day.
//
// Start <= End is a same-day interval, inclusive of both endpoints.
// Start > End crosses midnight: the evening segment [Start, 24:00) plus
// the morning segment [00:00, End). The morning end is exclusive so two
// consecutive overnight windows never double-count midnight.
type TimeRange struct {
	Start MinuteOfDay
	End   MinuteOfDay
}

// Crossing returns true if the range crosses midnight.
func (r TimeRange) Crossing() bool {
	return r.Start > r.End
}

// Contains reports whether cur falls inside the range, applying the
// same-day and overnight semantics described on TimeRange.
func (r TimeRange) Contains(cur MinuteOfDay) bool {
	if !r.Crossing() {
		return r.Start <= cur && cur <= r.End
	}
	return cur >= r.Start || cur < r.End
}

// InMorningSegment reports whether cur falls in the after-midnight part
// of an overnight range. Always false for same-day ranges.
func (r TimeRange) InMorningSegment(cur MinuteOfDay) bool {
	return r.Crossing() && cur < r.End
}

// Validate checks that both endpoints are within a single day.
func (r TimeRange) Validate() error {
	if !r.Start.IsValid() {
		return fmt.Errorf("time range start out of bounds: %d", r.Start)
	}
	if !r.End.IsValid() {
		return fmt.Errorf("time range end out of bounds: %d", r.End)
	}
	return nil
}

// AvailabilityBlock grants availability during the given time ranges on
// each of the listed days. A block with no days never applies; a block
// with no time ranges never grants availability.
type AvailabilityBlock struct {
	Days   []Weekday
	Ranges []TimeRange
}

// AppliesOn returns true if the block lists the given weekday.
func (b AvailabilityBlock) AppliesOn(day Weekday) bool {
	for _, d := range b.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Validate checks weekday and time range bounds.
func (b AvailabilityBlock) Validate() error {
	for _, d := range b.Days {
		if !d.IsValid() {
			return fmt.Errorf("invalid weekday value: %d", d)
		}
	}
	for _, r := range b.Ranges {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// WeeklySchedule is the set of availability blocks for one domain.
// A nil schedule, or one with no blocks, means "always blocked".
type WeeklySchedule struct {
	Blocks []AvailabilityBlock
}

// Validate checks every block in the schedule.
func (s *WeeklySchedule) Validate() error {
	if s == nil {
		return nil
	}
	for i, b := range s.Blocks {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("availability block #%d: %w", i, err)
		}
	}
	return nil
}
