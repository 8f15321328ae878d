package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustTime(t *testing.T, s string) MinuteOfDay {
	t.Helper()
	m, err := ParseTimeOfDay(s)
	assert.NoError(t, err)
	return m
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    MinuteOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"9:30", 570, false},
		{"23:59", 1439, false},
		{"12:00", 720, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"-1:00", 0, true},
		{"12", 0, true},
		{"12:00:00", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinuteOfDay_String(t *testing.T) {
	assert.Equal(t, "09:05", MinuteOfDay(545).String())
	assert.Equal(t, "00:00", MinuteOfDay(0).String())
	assert.Equal(t, "23:59", MinuteOfDay(1439).String())
}

func TestMinuteOfDayFromTime(t *testing.T) {
	instant := time.Date(2025, 8, 4, 13, 45, 59, 0, time.UTC)
	assert.Equal(t, MinuteOfDay(13*60+45), MinuteOfDayFromTime(instant))
}

func TestTimeRange_Contains_SameDay(t *testing.T) {
	r := TimeRange{Start: mustTime(t, "09:00"), End: mustTime(t, "17:00")}

	tests := []struct {
		cur  string
		want bool
	}{
		{"08:59", false},
		{"09:00", true}, // start inclusive
		{"12:30", true},
		{"17:00", true}, // end inclusive
		{"17:01", false},
		{"00:00", false},
		{"23:59", false},
	}
	for _, tt := range tests {
		t.Run(tt.cur, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(mustTime(t, tt.cur)))
		})
	}
	assert.False(t, r.Crossing())
}

func TestTimeRange_Contains_Overnight(t *testing.T) {
	r := TimeRange{Start: mustTime(t, "22:00"), End: mustTime(t, "02:00")}

	tests := []struct {
		cur  string
		want bool
	}{
		{"21:59", false},
		{"22:00", true}, // evening start inclusive
		{"23:59", true},
		{"00:00", true},
		{"01:59", true},
		{"02:00", false}, // morning end exclusive
		{"12:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.cur, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(mustTime(t, tt.cur)))
		})
	}
	assert.True(t, r.Crossing())
}

func TestTimeRange_InMorningSegment(t *testing.T) {
	overnight := TimeRange{Start: mustTime(t, "22:00"), End: mustTime(t, "02:00")}
	sameDay := TimeRange{Start: mustTime(t, "09:00"), End: mustTime(t, "17:00")}

	assert.True(t, overnight.InMorningSegment(mustTime(t, "01:00")))
	assert.False(t, overnight.InMorningSegment(mustTime(t, "02:00"))) // exclusive bound
	assert.False(t, overnight.InMorningSegment(mustTime(t, "23:00")))
	assert.False(t, sameDay.InMorningSegment(mustTime(t, "10:00")))
}

func TestTimeRange_SingleInstant(t *testing.T) {
	// start == end is a single-instant range, never empty
	r := TimeRange{Start: mustTime(t, "12:00"), End: mustTime(t, "12:00")}
	assert.True(t, r.Contains(mustTime(t, "12:00")))
	assert.False(t, r.Contains(mustTime(t, "12:01")))
	assert.False(t, r.Contains(mustTime(t, "11:59")))
}

func TestTimeRange_Validate(t *testing.T) {
	assert.NoError(t, TimeRange{Start: 0, End: 1439}.Validate())
	assert.Error(t, TimeRange{Start: 1440, End: 10}.Validate())
	assert.Error(t, TimeRange{Start: 10, End: 2000}.Validate())
}

func TestAvailabilityBlock_AppliesOn(t *testing.T) {
	b := AvailabilityBlock{Days: []Weekday{Monday, Wednesday}}
	assert.True(t, b.AppliesOn(Monday))
	assert.True(t, b.AppliesOn(Wednesday))
	assert.False(t, b.AppliesOn(Tuesday))

	empty := AvailabilityBlock{}
	assert.False(t, empty.AppliesOn(Monday), "a block with no days never applies")
}

func TestWeeklySchedule_Validate(t *testing.T) {
	var nilSchedule *WeeklySchedule
	assert.NoError(t, nilSchedule.Validate())

	valid := &WeeklySchedule{Blocks: []AvailabilityBlock{
		{Days: []Weekday{Monday}, Ranges: []TimeRange{{Start: 540, End: 1020}}},
	}}
	assert.NoError(t, valid.Validate())

	badDay := &WeeklySchedule{Blocks: []AvailabilityBlock{
		{Days: []Weekday{Weekday(9)}},
	}}
	assert.Error(t, badDay.Validate())

	badRange := &WeeklySchedule{Blocks: []AvailabilityBlock{
		{Days: []Weekday{Monday}, Ranges: []TimeRange{{Start: 5000, End: 10}}},
	}}
	assert.Error(t, badRange.Validate())
}
