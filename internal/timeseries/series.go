// Package timeseries provides continuous daily series and matrix primitives
// for balance and valuation computations.
package timeseries

import (
	"math"
	"time"
)

// Day normalizes a timestamp to UTC midnight. All calendars in this package
// are built from normalized days.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Calendar returns the continuous daily date range [start, end], normalized.
func Calendar(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil
	}
	n := int(end.Sub(start).Hours()/24) + 1
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

// Series is a continuous daily series. Missing values are NaN.
type Series struct {
	Dates  []time.Time
	Values []float64
}

// NewSeries returns a NaN-filled series over the given calendar.
func NewSeries(dates []time.Time) *Series {
	values := make([]float64, len(dates))
	for i := range values {
		values[i] = math.NaN()
	}
	return &Series{Dates: dates, Values: values}
}

// At returns the value at a date, or NaN when the date is outside the calendar.
func (s *Series) At(date time.Time) float64 {
	idx := dateIndex(s.Dates, date)
	if idx < 0 {
		return math.NaN()
	}
	return s.Values[idx]
}

// ForwardFill replaces each NaN with the last preceding non-NaN value.
// Leading NaNs are left in place.
func (s *Series) ForwardFill() *Series {
	last := math.NaN()
	for i, v := range s.Values {
		if math.IsNaN(v) {
			s.Values[i] = last
		} else {
			last = v
		}
	}
	return s
}

// FillNaN replaces remaining NaNs with v.
func (s *Series) FillNaN(v float64) *Series {
	for i, x := range s.Values {
		if math.IsNaN(x) {
			s.Values[i] = v
		}
	}
	return s
}

// Round rounds every value to the given number of decimal places.
func (s *Series) Round(places int) *Series {
	for i, v := range s.Values {
		s.Values[i] = roundTo(v, places)
	}
	return s
}

// LastOfMonth samples the series at the last date of each calendar month
// present in the calendar.
func (s *Series) LastOfMonth() *Series {
	var dates []time.Time
	var values []float64
	for i, d := range s.Dates {
		next := i + 1
		if next == len(s.Dates) || s.Dates[next].Month() != d.Month() || s.Dates[next].Year() != d.Year() {
			dates = append(dates, d)
			values = append(values, s.Values[i])
		}
	}
	return &Series{Dates: dates, Values: values}
}

// PctChange returns the period-over-period fractional change. The first entry
// is NaN.
func (s *Series) PctChange() *Series {
	out := &Series{Dates: s.Dates, Values: make([]float64, len(s.Values))}
	for i := range s.Values {
		if i == 0 || s.Values[i-1] == 0 {
			out.Values[i] = math.NaN()
			continue
		}
		out.Values[i] = s.Values[i]/s.Values[i-1] - 1
	}
	return out
}

// dateIndex exploits the continuous daily calendar: the index of a date is
// its day offset from the calendar start.
func dateIndex(dates []time.Time, date time.Time) int {
	if len(dates) == 0 {
		return -1
	}
	idx := int(Day(date).Sub(dates[0]).Hours() / 24)
	if idx < 0 || idx >= len(dates) {
		return -1
	}
	return idx
}

func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) {
		return v
	}
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
