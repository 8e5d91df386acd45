package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalendarIsContinuous(t *testing.T) {
	dates := Calendar(day("2024-01-30"), day("2024-02-02"))
	require.Len(t, dates, 4)
	assert.Equal(t, day("2024-01-30"), dates[0])
	assert.Equal(t, day("2024-02-02"), dates[3])

	assert.Nil(t, Calendar(day("2024-01-02"), day("2024-01-01")))
	assert.Len(t, Calendar(day("2024-01-01"), day("2024-01-01")), 1)
}

func TestDayNormalizesToUTCMidnight(t *testing.T) {
	zone := time.FixedZone("CET", 3600)
	late := time.Date(2024, 1, 1, 23, 45, 0, 0, zone) // 22:45 UTC
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Day(late))
	assert.Equal(t, time.UTC, Day(late).Location())
}

func TestSeriesForwardFill(t *testing.T) {
	s := NewSeries(Calendar(day("2024-01-01"), day("2024-01-05")))
	s.Values[1] = 10
	s.Values[3] = 20

	s.ForwardFill()

	assert.True(t, math.IsNaN(s.Values[0]), "leading gaps stay missing")
	assert.Equal(t, 10.0, s.Values[1])
	assert.Equal(t, 10.0, s.Values[2])
	assert.Equal(t, 20.0, s.Values[4])

	s.FillNaN(0)
	assert.Equal(t, 0.0, s.Values[0])
}

func TestSeriesAt(t *testing.T) {
	s := NewSeries(Calendar(day("2024-01-01"), day("2024-01-03")))
	s.Values[2] = 7

	assert.Equal(t, 7.0, s.At(day("2024-01-03")))
	assert.True(t, math.IsNaN(s.At(day("2023-12-31"))), "out-of-calendar dates read as missing")
	assert.True(t, math.IsNaN(s.At(day("2024-02-01"))))
}

func TestSeriesRound(t *testing.T) {
	s := NewSeries(Calendar(day("2024-01-01"), day("2024-01-02")))
	s.Values[0] = 1.014999
	s.Values[1] = 2.345001

	s.Round(2)
	assert.InDelta(t, 1.01, s.Values[0], 1e-12)
	assert.InDelta(t, 2.35, s.Values[1], 1e-12)
}

func TestLastOfMonth(t *testing.T) {
	s := NewSeries(Calendar(day("2024-01-30"), day("2024-03-02")))
	for i := range s.Values {
		s.Values[i] = float64(i)
	}

	monthly := s.LastOfMonth()
	require.Len(t, monthly.Dates, 3)
	assert.Equal(t, day("2024-01-31"), monthly.Dates[0])
	assert.Equal(t, day("2024-02-29"), monthly.Dates[1])
	assert.Equal(t, day("2024-03-02"), monthly.Dates[2], "a partial month samples its last available day")
}

func TestPctChange(t *testing.T) {
	s := &Series{
		Dates:  []time.Time{day("2024-01-31"), day("2024-02-29"), day("2024-03-31")},
		Values: []float64{100, 110, 99},
	}

	change := s.PctChange()
	assert.True(t, math.IsNaN(change.Values[0]))
	assert.InDelta(t, 0.10, change.Values[1], 1e-9)
	assert.InDelta(t, -0.10, change.Values[2], 1e-9)
}
