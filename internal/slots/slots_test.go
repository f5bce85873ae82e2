package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mexicoCity(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)
	return loc
}

func TestBuild_DropsInvalidAndSorts(t *testing.T) {
	loc := mexicoCity(t)
	day := time.Date(2024, 1, 10, 17, 45, 12, 0, loc)

	got := Build(day, []string{"14:30", "23:75", "08:00"}, loc, "es-MX")
	require.Len(t, got, 2)

	assert.Equal(t, time.Date(2024, 1, 10, 8, 0, 0, 0, loc), got[0].Time)
	assert.Equal(t, "08:00", got[0].TimeOfDay)
	assert.Equal(t, time.Date(2024, 1, 10, 14, 30, 0, 0, loc), got[1].Time)
	assert.Equal(t, "14:30", got[1].TimeOfDay)
	assert.Equal(t, "10 ene 2024 · 08:00", got[0].Label)
}

func TestBuild_Normalises(t *testing.T) {
	loc := time.UTC
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, loc)

	got := Build(day, []string{"7:5", " 6:00 ", "9", "21:15:00", "", "24:00", "ab:10", "10:-1", "1:2:3:4", "12:"}, loc, "en-US")

	var times []string
	for _, s := range got {
		times = append(times, s.TimeOfDay)
	}
	assert.Equal(t, []string{"06:00", "07:05", "09:00", "21:15"}, times)
	assert.Equal(t, "Mar 05, 2024 · 06:00", got[0].Label)
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, Build(time.Now(), nil, time.UTC, "es-MX"))
}

func TestFind_RoundTrip(t *testing.T) {
	loc := mexicoCity(t)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, loc)
	built := Build(day, []string{"08:00", "14:30", "23:59"}, loc, "es-MX")
	require.Len(t, built, 3)

	for _, s := range built {
		assert.True(t, IsAllowedTime(s.Time, built), s.TimeOfDay)
		assert.True(t, IsAllowed(s.Value(), built, loc), s.Value())
		assert.True(t, IsAllowed(s.Time.Format(time.RFC3339), built, loc))
		assert.True(t, IsAllowed(s.Time.UTC().Format("2006-01-02T15:04:05.000Z"), built, loc))

		found, ok := FindTime(s.Time, built)
		require.True(t, ok)
		assert.Equal(t, s, found)

		assert.False(t, IsAllowedTime(s.Time.Add(time.Minute), built))
		assert.False(t, IsAllowedTime(s.Time.Add(-time.Minute), built))
		assert.False(t, IsAllowed(s.Time.Add(time.Minute).Format(inputLayout), built, loc))
	}
}

func TestFind_Unparsable(t *testing.T) {
	built := Build(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), []string{"08:00"}, time.UTC, "es-MX")

	for _, c := range []string{"", "tomorrow", "2024-13-40T08:00"} {
		_, ok := Find(c, built, time.UTC)
		assert.False(t, ok, c)
	}
	assert.False(t, IsAllowedTime(time.Time{}, built))
}

func TestFind_EpochMillis(t *testing.T) {
	built := Build(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), []string{"14:00"}, time.UTC, "es-MX")
	assert.True(t, IsAllowed("1704895200000", built, time.UTC))
}

func TestMidnight(t *testing.T) {
	loc := mexicoCity(t)
	now := time.Date(2024, 1, 10, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, loc), Midnight(now, loc))
}

func TestDateLabel(t *testing.T) {
	d := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "01 sept 2024", DateLabel(d, "es-MX"))
	assert.Equal(t, "Sep 01, 2024", DateLabel(d, "en"))
}
