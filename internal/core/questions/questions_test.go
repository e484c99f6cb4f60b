package questions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := Default()
	require.Greater(t, catalog.Size(), 0)

	for day := 1; day <= catalog.Size(); day++ {
		q := catalog.ForDay(day)
		assert.Len(t, q.Options, 3, "question %d must have exactly three options", q.ID)
		assert.Equal(t, "A", string(q.Options[0].ID))
		assert.Equal(t, "B", string(q.Options[1].ID))
		assert.Equal(t, "C", string(q.Options[2].ID))
		assert.NotEmpty(t, q.Text)
	}
}

func TestForDayIsPeriodic(t *testing.T) {
	catalog := Default()
	size := catalog.Size()

	for _, day := range []int{1, 2, size, size + 1, 100, 365} {
		base := catalog.ForDay(day)
		for k := 1; k <= 3; k++ {
			assert.Equal(t, base, catalog.ForDay(day+k*size))
		}
	}
}

func TestForDayWrapsWithinYear(t *testing.T) {
	catalog := Default()
	// Day 366 lands on the same question as day 366 mod size.
	assert.Equal(t, catalog.ForDay(366), catalog.ForDay((366-1)%catalog.Size()+1))
}

func TestDayNumber(t *testing.T) {
	assert.Equal(t, 1, DayNumber(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 32, DayNumber(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 365, DayNumber(time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)))
	// Leap year.
	assert.Equal(t, 366, DayNumber(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestGameDateRollsOverAtEight(t *testing.T) {
	beforeBoundary := time.Date(2026, 3, 10, 7, 59, 59, 0, time.UTC)
	afterBoundary := time.Date(2026, 3, 10, 8, 0, 1, 0, time.UTC)

	assert.Equal(t, "2026-03-09", GameDate(beforeBoundary))
	assert.Equal(t, "2026-03-10", GameDate(afterBoundary))
}

func TestGameDateCrossesMonthAndYear(t *testing.T) {
	newYearMorning := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-12-31", GameDate(newYearMorning))
}

func TestForDateDeterministic(t *testing.T) {
	catalog := Default()

	q1, day1, err := catalog.ForDate("2026-06-15")
	require.NoError(t, err)
	q2, day2, err := catalog.ForDate("2026-06-15")
	require.NoError(t, err)

	assert.Equal(t, q1, q2)
	assert.Equal(t, day1, day2)
	assert.Equal(t, 166, day1)
}

func TestForDateRejectsMalformedDates(t *testing.T) {
	catalog := Default()

	for _, date := range []string{"", "2026-13-01", "15-06-2026", "not-a-date"} {
		_, _, err := catalog.ForDate(date)
		assert.Error(t, err, "date %q should be rejected", date)
	}
}

func TestNewCatalogRejectsBadInput(t *testing.T) {
	_, err := NewCatalog([]byte(`{`))
	assert.Error(t, err)

	_, err = NewCatalog([]byte(`[]`))
	assert.Error(t, err)
}

func TestTodayUsesGameDate(t *testing.T) {
	catalog := Default()

	now := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	q, date := catalog.Today(now)
	assert.Equal(t, "2026-03-09", date)

	expected, _, err := catalog.ForDate(date)
	require.NoError(t, err)
	assert.Equal(t, expected, q)
}
