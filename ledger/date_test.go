package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_AddMonths_ClampsAtMonthEnd(t *testing.T) {
	// GIVEN: Jan 31
	// WHEN: Advancing by one month
	// THEN: The result clamps to the last day of February, not March 2/3

	jan31 := NewDate(2025, time.January, 31)
	assert.Equal(t, NewDate(2025, time.February, 28), jan31.AddMonths(1))

	// Leap year keeps the 29th
	jan31leap := NewDate(2024, time.January, 31)
	assert.Equal(t, NewDate(2024, time.February, 29), jan31leap.AddMonths(1))

	// Days that exist in the target month pass through unclamped
	jan15 := NewDate(2025, time.January, 15)
	assert.Equal(t, NewDate(2025, time.February, 15), jan15.AddMonths(1))
}

func TestDate_AddMonths_CrossesYearBoundaries(t *testing.T) {
	dec := NewDate(2025, time.December, 31)
	assert.Equal(t, NewDate(2026, time.January, 31), dec.AddMonths(1))

	jan := NewDate(2025, time.January, 15)
	assert.Equal(t, NewDate(2024, time.December, 15), jan.AddMonths(-1))
}

func TestDate_AddYears_ClampsLeapDay(t *testing.T) {
	feb29 := NewDate(2024, time.February, 29)
	assert.Equal(t, NewDate(2025, time.February, 28), feb29.AddYears(1))
}

func TestDate_MonthBoundaries(t *testing.T) {
	d := NewDate(2025, time.February, 14)
	assert.Equal(t, NewDate(2025, time.February, 1), d.StartOfMonth())
	assert.Equal(t, NewDate(2025, time.February, 28), d.EndOfMonth())

	leap := NewDate(2024, time.February, 10)
	assert.Equal(t, NewDate(2024, time.February, 29), leap.EndOfMonth())
}

func TestDate_ParseRoundTrip(t *testing.T) {
	d, err := ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", d.String())

	_, err = ParseDate("10/03/2025")
	assert.Error(t, err)
}

func TestYearMonth_Boundaries(t *testing.T) {
	ym, err := ParseYearMonth("2025-02")
	require.NoError(t, err)
	assert.Equal(t, MustDate("2025-02-01"), ym.FirstDay())
	assert.Equal(t, MustDate("2025-02-28"), ym.LastDay())
	assert.Equal(t, "2025-02", ym.String())
}

func TestMonthOf(t *testing.T) {
	assert.Equal(t, YearMonth{Year: 2025, Month: time.March}, MonthOf(MustDate("2025-03-10")))
}
