package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeek(t *testing.T) {
	// 2024-10-25 is a Friday.
	start, end := Week(date(2024, time.October, 25))
	require.Equal(t, date(2024, time.October, 21), start)
	require.Equal(t, date(2024, time.October, 27), end)

	// A Monday maps onto itself.
	start, end = Week(date(2024, time.October, 21))
	require.Equal(t, date(2024, time.October, 21), start)
	require.Equal(t, date(2024, time.October, 27), end)

	// A Sunday belongs to the week that started six days before.
	start, end = Week(date(2024, time.October, 27))
	require.Equal(t, date(2024, time.October, 21), start)
	require.Equal(t, date(2024, time.October, 27), end)
}

func TestWeekAcrossYearBoundary(t *testing.T) {
	// 2025-01-01 is a Wednesday; its week started on 2024-12-30.
	start, end := Week(date(2025, time.January, 1))
	require.Equal(t, date(2024, time.December, 30), start)
	require.Equal(t, date(2025, time.January, 5), end)
}

func TestMonth(t *testing.T) {
	start, end := Month(date(2024, time.February, 14))
	require.Equal(t, date(2024, time.February, 1), start)
	require.Equal(t, date(2024, time.February, 29), end) // leap year

	start, end = Month(date(2024, time.December, 31))
	require.Equal(t, date(2024, time.December, 1), start)
	require.Equal(t, date(2024, time.December, 31), end)
}

func TestYear(t *testing.T) {
	start, end := Year(date(2024, time.July, 4))
	require.Equal(t, date(2024, time.January, 1), start)
	require.Equal(t, date(2024, time.December, 31), end)
}

func TestClockIsDropped(t *testing.T) {
	at := time.Date(2024, time.October, 25, 15, 42, 9, 0, time.UTC)
	start, _ := Week(at)
	require.Equal(t, date(2024, time.October, 21), start)
	_, end := Month(at)
	require.Equal(t, date(2024, time.October, 31), end)
}
