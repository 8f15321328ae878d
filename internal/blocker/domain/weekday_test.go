package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		input   string
		want    Weekday
		wantErr bool
	}{
		{"monday", Monday, false},
		{"Monday", Monday, false},
		{"  FRIDAY  ", Friday, false},
		{"sunday", Sunday, false},
		{"tuesday", Tuesday, false},
		{"wednesday", Wednesday, false},
		{"thursday", Thursday, false},
		{"saturday", Saturday, false},
		{"mon", 0, true},
		{"funday", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeekday(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeekdayFromTime(t *testing.T) {
	tests := []struct {
		std  time.Weekday
		want Weekday
	}{
		{time.Monday, Monday},
		{time.Tuesday, Tuesday},
		{time.Wednesday, Wednesday},
		{time.Thursday, Thursday},
		{time.Friday, Friday},
		{time.Saturday, Saturday},
		{time.Sunday, Sunday},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekdayFromTime(tt.std), "std weekday %v", tt.std)
	}
}

func TestWeekday_Previous(t *testing.T) {
	assert.Equal(t, Sunday, Monday.Previous())
	assert.Equal(t, Monday, Tuesday.Previous())
	assert.Equal(t, Saturday, Sunday.Previous())
}

func TestWeekday_String(t *testing.T) {
	assert.Equal(t, "monday", Monday.String())
	assert.Equal(t, "sunday", Sunday.String())
	assert.Equal(t, "Weekday(9)", Weekday(9).String())
}

func TestWeekday_IsValid(t *testing.T) {
	assert.True(t, Monday.IsValid())
	assert.True(t, Sunday.IsValid())
	assert.False(t, Weekday(7).IsValid())
}
