package leave_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// BUSINESS-DAY CALCULATOR TESTS
// =============================================================================

func TestBusinessDays_CountsWeekdaysOnly(t *testing.T) {
	tests := []struct {
		name  string
		start leave.Date
		end   leave.Date
		want  int
	}{
		{
			// 2024-01-01 is a Monday.
			name:  "full week Mon-Sun",
			start: leave.NewDate(2024, time.January, 1),
			end:   leave.NewDate(2024, time.January, 7),
			want:  5,
		},
		{
			name:  "weekend only Sat-Sun",
			start: leave.NewDate(2024, time.January, 6),
			end:   leave.NewDate(2024, time.January, 7),
			want:  0,
		},
		{
			name:  "same weekday counts as one",
			start: leave.NewDate(2024, time.January, 1),
			end:   leave.NewDate(2024, time.January, 1),
			want:  1,
		},
		{
			name:  "same saturday counts as zero",
			start: leave.NewDate(2024, time.January, 6),
			end:   leave.NewDate(2024, time.January, 6),
			want:  0,
		},
		{
			name:  "two full weeks",
			start: leave.NewDate(2024, time.January, 1),
			end:   leave.NewDate(2024, time.January, 14),
			want:  10,
		},
		{
			name:  "mid-week span Wed-Tue",
			start: leave.NewDate(2024, time.January, 3),
			end:   leave.NewDate(2024, time.January, 9),
			want:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := leave.BusinessDays(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBusinessDays_EndBeforeStart_Rejected(t *testing.T) {
	// GIVEN: a range whose end precedes its start
	// WHEN: computing the chargeable duration
	// THEN: InvalidRangeError, before anything else happens

	start := leave.NewDate(2024, time.January, 7)
	end := leave.NewDate(2024, time.January, 1)

	_, err := leave.BusinessDays(start, end)
	require.Error(t, err)
	assert.True(t, errors.Is(err, leave.ErrInvalidRange))

	var rangeErr *leave.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, start, rangeErr.Start)
	assert.Equal(t, end, rangeErr.End)
}

func TestParseDate(t *testing.T) {
	d, err := leave.ParseDate("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", d.String())
	assert.Equal(t, time.Monday, d.Weekday())

	_, err = leave.ParseDate("01/01/2024")
	assert.Error(t, err)

	_, err = leave.ParseDate("")
	assert.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	for _, c := range leave.Categories {
		parsed, err := leave.ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := leave.ParseCategory("sabbatical")
	require.Error(t, err)
	assert.True(t, errors.Is(err, leave.ErrUnknownCategory))

	// Categories are never silently defaulted, including the empty string.
	_, err = leave.ParseCategory("")
	assert.Error(t, err)
}
