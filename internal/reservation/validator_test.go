package reservation

import (
	"testing"
	"time"

	"stolik/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidatorOrder(t *testing.T) {
	table := models.Table{ID: "t1", Number: 1, Capacity: 4}
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	v := NewValidator(nil)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{
			"reversed_interval",
			Request{Date: date, Slot: models.Interval{Start: 20 * 60, End: 19 * 60}, Guests: 2},
			ErrInvalidTimeRange,
		},
		{
			// malformed interval wins over bad party size: checks run in order
			"interval_checked_first",
			Request{Date: date, Slot: models.Interval{Start: 20 * 60, End: 19 * 60}, Guests: 0},
			ErrInvalidTimeRange,
		},
		{
			"zero_guests",
			Request{Date: date, Slot: models.Interval{Start: 18 * 60, End: 19 * 60}, Guests: 0},
			ErrInvalidPartySize,
		},
		{
			"negative_guests",
			Request{Date: date, Slot: models.Interval{Start: 18 * 60, End: 19 * 60}, Guests: -1},
			ErrInvalidPartySize,
		},
		{
			"over_capacity",
			Request{Date: date, Slot: models.Interval{Start: 18 * 60, End: 19 * 60}, Guests: 5},
			ErrCapacityExceeded,
		},
		{
			"ok",
			Request{Date: date, Slot: models.Interval{Start: 18 * 60, End: 19 * 60}, Guests: 4},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req, table)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestValidatorOperatingHours(t *testing.T) {
	table := models.Table{ID: "t1", Number: 1, Capacity: 4}
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	hours := models.Interval{Start: 11 * 60, End: 23 * 60}

	v := NewValidator(&hours)

	err := v.Validate(Request{Date: date, Slot: models.Interval{Start: 9 * 60, End: 10 * 60}, Guests: 2}, table)
	assert.ErrorIs(t, err, ErrOutsideHours)

	err = v.Validate(Request{Date: date, Slot: models.Interval{Start: 22 * 60, End: 23*60 + 30}, Guests: 2}, table)
	assert.ErrorIs(t, err, ErrOutsideHours)

	err = v.Validate(Request{Date: date, Slot: models.Interval{Start: 11 * 60, End: 23 * 60}, Guests: 2}, table)
	assert.NoError(t, err, "window matching the full operating day is allowed")
}
