package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodayUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 23:30 UTC on the 14th is already the 15th in Tokyo
	now := time.Date(2024, 3, 14, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, Date(2024, 3, 14), Today(now, time.UTC))
	assert.Equal(t, Date(2024, 3, 15), Today(now, tokyo))
	assert.Equal(t, Date(2024, 3, 14), Today(now, nil))
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2024, time.December)
	assert.Equal(t, Date(2024, 12, 1), start)
	assert.Equal(t, Date(2025, 1, 1), end)

	start, end = MonthRange(2024, time.February)
	assert.Equal(t, Date(2024, 2, 1), start)
	assert.Equal(t, Date(2024, 3, 1), end)
}

func TestNewsletterMonth(t *testing.T) {
	assert.Equal(t, "2024-03", NewsletterMonth(2024, time.March))
	assert.Equal(t, "2024-11", NewsletterMonth(2024, time.November))
}

func TestAddDays(t *testing.T) {
	assert.Equal(t, Date(2024, 3, 1), AddDays(Date(2024, 2, 28), 2))
	assert.Equal(t, Date(2024, 4, 14), AddDays(Date(2024, 3, 15), 30))
}

func TestParseAndFormat(t *testing.T) {
	d, err := Parse("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, 3, 15), d)
	assert.Equal(t, "2024-03-15", Format(d))

	_, err = Parse("2024-3-15")
	assert.Error(t, err)
}

func TestFixedClock(t *testing.T) {
	clock := Fixed(time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC))
	assert.Equal(t, Date(2024, 3, 15), clock())
}

func TestParseYearMonth(t *testing.T) {
	y, m, err := ParseYearMonth("2024", "3")
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.March, m)

	for _, tc := range [][2]string{{"2024", "13"}, {"2024", "0"}, {"abc", "3"}, {"2024", ""}} {
		_, _, err := ParseYearMonth(tc[0], tc[1])
		assert.Error(t, err, "year=%q month=%q", tc[0], tc[1])
	}
}

func TestParseMonthTag(t *testing.T) {
	y, m, err := ParseMonthTag("2024-03")
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.March, m)

	for _, tag := range []string{"2024-3", "2024-03-01", "2024", "24-03"} {
		_, _, err := ParseMonthTag(tag)
		assert.Error(t, err, tag)
	}
}
