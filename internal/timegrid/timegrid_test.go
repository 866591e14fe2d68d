package timegrid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	valid := map[string]int{
		"00:00":                     0,
		"09:30":                     570,
		"9:05":                      545,
		"23:59":                     1439,
		"14:00:00":                  840,
		"2025-03-04T10:15:00Z":      615,
		"2025-03-04T07:45:00+02:00": 465,
	}
	for in, want := range valid {
		got, err := ParseClock(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	for _, in := range []string{"", "24:00", "12", "12:5", "ab:cd", "12:60", "1:2:3:4", "2025-03-04Tbad", "123:00"} {
		_, err := ParseClock(in)
		assert.ErrorIs(t, err, ErrInvalidClock, "input %q", in)
	}
}

func TestFormatClockAndStartHour(t *testing.T) {
	assert.Equal(t, "06:00", FormatClock(360))
	assert.Equal(t, "22:45", FormatClock(1365))

	h, ok := StartHour("13:59")
	assert.True(t, ok)
	assert.Equal(t, 13, h)

	_, ok = StartHour("lunch")
	assert.False(t, ok)
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2025-03-04")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", FormatDay(d))

	_, err = ParseDay("03/04/2025")
	assert.ErrorContains(t, err, "expected YYYY-MM-DD")
}

func TestIntervalOverlaps(t *testing.T) {
	nineToTen := NewInterval(540, 60)

	assert.True(t, nineToTen.Overlaps(NewInterval(570, 30)), "09:30 inside 09:00-10:00")
	assert.False(t, nineToTen.Overlaps(NewInterval(600, 30)), "10:00 touches but does not overlap")
	assert.False(t, nineToTen.Overlaps(NewInterval(510, 30)), "08:30-09:00 touches the start")
	assert.True(t, NewInterval(500, 200).Overlaps(nineToTen), "enclosing interval overlaps")
	assert.Equal(t, 60, nineToTen.Duration())
	assert.Equal(t, "09:00-10:00", nineToTen.String())
}

func TestWindow(t *testing.T) {
	require.NoError(t, DefaultWindow.Validate())
	assert.Equal(t, Interval{Start: 360, End: 1320}, DefaultWindow.Bounds())
	assert.True(t, DefaultWindow.Contains(NewInterval(360, 30)))
	assert.True(t, DefaultWindow.Contains(NewInterval(1290, 30)))
	assert.False(t, DefaultWindow.Contains(NewInterval(1300, 30)))
	assert.False(t, DefaultWindow.Contains(NewInterval(330, 60)))

	assert.Error(t, Window{StartHour: 10, EndHour: 10}.Validate())
	assert.Error(t, Window{StartHour: -1, EndHour: 10}.Validate())
	assert.Error(t, Window{StartHour: 8, EndHour: 25}.Validate())
}

func TestResolveDuration(t *testing.T) {
	five, ninety := 5, 90

	assert.Equal(t, DefaultDuration, ResolveDuration(nil, nil))
	assert.Equal(t, 90, ResolveDuration(nil, &ninety))
	assert.Equal(t, MinDuration, ResolveDuration(&five, &ninety), "override wins and is clamped")
	assert.Equal(t, MinDuration, ResolveDuration(nil, &five))
	assert.Equal(t, MinDuration, ClampDuration(-10))
	assert.Equal(t, MinutesPerDay, ClampDuration(math.MaxInt))
	huge := math.MaxInt
	assert.Equal(t, MinutesPerDay, ResolveDuration(&huge, nil))
}
