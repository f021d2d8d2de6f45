package cartellino

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartellino/internal/domain"
)

func TestParseDays_MatchesDayLine(t *testing.T) {
	year, month := 2023, 3
	line := "15 LU 7.30 8.00 7.30 extra text"

	days := New().ParseDays([]string{line}, &year, &month)

	require.Len(t, days, 1)
	d := days[0]
	assert.Equal(t, 15, d.Day)
	assert.Equal(t, domain.Monday, d.DOW)
	assert.Equal(t, 7.5, d.HoursPresent)
	assert.Equal(t, 8.0, d.HoursTotal)
	assert.Equal(t, 7.5, d.HoursWorked)
	assert.Equal(t, line, d.RawLine)
	require.NotNil(t, d.Year)
	require.NotNil(t, d.Month)
	assert.Equal(t, 2023, *d.Year)
	assert.Equal(t, 3, *d.Month)
}

func TestParseDays_UsesLastThreeNumbers(t *testing.T) {
	days := New().ParseDays([]string{"02 MA 1 2.00 E 08:00 U 16:00 8.00 8.00 8.00 nota"}, nil, nil)

	require.Len(t, days, 1)
	assert.Equal(t, 8.0, days[0].HoursPresent)
	assert.Equal(t, 8.0, days[0].HoursTotal)
	assert.Equal(t, 8.0, days[0].HoursWorked)
	assert.Nil(t, days[0].Year)
	assert.Nil(t, days[0].Month)
}

func TestParseDays_RejectsInvalidLines(t *testing.T) {
	lines := []string{
		"32 LU 1 2 3",
		"15 LU 7.30 8.00",
		"ORE LAVORATE 160.00",
		"",
	}
	assert.Empty(t, New().ParseDays(lines, nil, nil))
}

func TestParseDays_LogsShortDayLine(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithDebugLog(log.New(&buf, "", 0)))

	days := p.ParseDays([]string{"20 VE 7.30 8.00"}, nil, nil)

	assert.Empty(t, days)
	assert.Contains(t, buf.String(), "fewer than 3 numeric tokens")
	assert.Contains(t, buf.String(), "20 VE 7.30 8.00")
}

func TestParseDays_KeepsDocumentOrder(t *testing.T) {
	lines := []string{
		"02 MA 8.00 8.00 8.00",
		"header noise",
		"01 LU 0.00 0.00 0.00",
		"03 ME 4.30 8.00 4.30",
	}
	days := New().ParseDays(lines, nil, nil)

	require.Len(t, days, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{days[0].Day, days[1].Day, days[2].Day})
	assert.Equal(t, 4.5, days[2].HoursWorked)
}
