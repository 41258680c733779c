package main

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunar-ledger/internal/lunar"
)

func TestMonthStarts(t *testing.T) {
	starts := monthStarts(2023)
	require.Len(t, starts, 13)

	assert.Equal(t, "윤2월", starts[2].label)
	assert.Equal(t, lunar.SolarDate{Year: 2023, Month: 3, Day: 22}, starts[2].solar)
	assert.Equal(t, 29, starts[2].days)

	total := 0
	for _, m := range starts {
		total += m.days
	}
	assert.Equal(t, 384, total)
}

func TestMonthStarts_NoLeap(t *testing.T) {
	assert.Len(t, monthStarts(2024), 12)
}

func readCSV(t *testing.T, year int) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, year))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSV(t *testing.T) {
	rows := readCSV(t, 2023)
	require.Len(t, rows, 1+384)

	assert.Equal(t, []string{"2023-01-22", "2023", "1", "1", "false"}, rows[1])
	assert.Contains(t, rows, []string{"2023-03-22", "2023", "2", "1", "true"})
}

func TestWriteCSV_LastTableYear(t *testing.T) {
	rows := readCSV(t, 2100)
	require.Len(t, rows, 1+lunar.YearTotalDays(2100))

	last := rows[len(rows)-1]
	assert.Equal(t, "12", last[2])
	assert.Equal(t, "2101", last[0][:4], "the year ends after solar 2100")
}
