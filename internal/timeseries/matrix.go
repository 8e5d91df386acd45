package timeseries

import (
	"math"
	"sort"
	"time"
)

// Matrix is a dense table of daily values: one row per calendar date, one
// column per label. Missing values are NaN. Column labels need not be unique
// until a grouping reduces them.
type Matrix struct {
	Dates   []time.Time
	Columns []string
	Values  [][]float64 // [dateIdx][colIdx]
}

// NewMatrix returns a NaN-filled matrix over the given calendar and columns.
func NewMatrix(dates []time.Time, columns []string) *Matrix {
	values := make([][]float64, len(dates))
	for i := range values {
		row := make([]float64, len(columns))
		for j := range row {
			row[j] = math.NaN()
		}
		values[i] = row
	}
	return &Matrix{Dates: dates, Columns: columns, Values: values}
}

// Set assigns a value at (date, column index). Dates outside the calendar are
// ignored.
func (m *Matrix) Set(date time.Time, col int, v float64) {
	idx := dateIndex(m.Dates, date)
	if idx < 0 {
		return
	}
	m.Values[idx][col] = v
}

// At returns the value at (date, column index), NaN when out of range.
func (m *Matrix) At(date time.Time, col int) float64 {
	idx := dateIndex(m.Dates, date)
	if idx < 0 {
		return math.NaN()
	}
	return m.Values[idx][col]
}

// ColIndex returns the index of the first column with the given label, or -1.
func (m *Matrix) ColIndex(label string) int {
	for i, c := range m.Columns {
		if c == label {
			return i
		}
	}
	return -1
}

// ForwardFill fills NaN gaps per column with the last known value.
func (m *Matrix) ForwardFill() *Matrix {
	for j := range m.Columns {
		last := math.NaN()
		for i := range m.Values {
			if math.IsNaN(m.Values[i][j]) {
				m.Values[i][j] = last
			} else {
				last = m.Values[i][j]
			}
		}
	}
	return m
}

// FillNaN replaces remaining NaNs with v.
func (m *Matrix) FillNaN(v float64) *Matrix {
	for i := range m.Values {
		for j := range m.Values[i] {
			if math.IsNaN(m.Values[i][j]) {
				m.Values[i][j] = v
			}
		}
	}
	return m
}

// Round rounds every value to the given number of decimal places.
func (m *Matrix) Round(places int) *Matrix {
	for i := range m.Values {
		for j := range m.Values[i] {
			m.Values[i][j] = roundTo(m.Values[i][j], places)
		}
	}
	return m
}

// Mul multiplies element-wise with a matrix of identical shape. NaN
// propagates, so a missing factor leaves a gap to forward-fill afterwards.
func (m *Matrix) Mul(other *Matrix) *Matrix {
	for i := range m.Values {
		for j := range m.Values[i] {
			m.Values[i][j] *= other.Values[i][j]
		}
	}
	return m
}

// Reindex copies the matrix onto a new calendar. Dates present in both keep
// their values; new dates start as NaN.
func (m *Matrix) Reindex(dates []time.Time) *Matrix {
	out := NewMatrix(dates, m.Columns)
	for i, d := range m.Dates {
		idx := dateIndex(dates, d)
		if idx < 0 {
			continue
		}
		copy(out.Values[idx], m.Values[i])
	}
	return out
}

// GroupSum reduces columns through an explicit label mapping: every column is
// renamed to key(label) and columns sharing a key are summed (never averaged).
// NaN entries contribute nothing to their group. Result columns are sorted.
func (m *Matrix) GroupSum(key func(label string) string) *Matrix {
	keys := make([]string, len(m.Columns))
	seen := make(map[string]bool)
	var grouped []string
	for j, c := range m.Columns {
		k := key(c)
		keys[j] = k
		if !seen[k] {
			seen[k] = true
			grouped = append(grouped, k)
		}
	}
	sort.Strings(grouped)

	target := make(map[string]int, len(grouped))
	for i, k := range grouped {
		target[k] = i
	}

	out := NewMatrix(m.Dates, grouped)
	for i := range out.Values {
		for j := range out.Values[i] {
			out.Values[i][j] = 0
		}
	}
	for i := range m.Values {
		for j, k := range keys {
			v := m.Values[i][j]
			if math.IsNaN(v) {
				continue
			}
			out.Values[i][target[k]] += v
		}
	}
	return out
}

// SumRows collapses the matrix to a single series by summing each row,
// treating NaN as zero.
func (m *Matrix) SumRows() *Series {
	out := &Series{Dates: m.Dates, Values: make([]float64, len(m.Dates))}
	for i := range m.Values {
		total := 0.0
		for _, v := range m.Values[i] {
			if math.IsNaN(v) {
				continue
			}
			total += v
		}
		out.Values[i] = total
	}
	return out
}

// Project builds a factor matrix over the given calendar and target columns
// by broadcasting columns of src: target column c takes the values of src
// column srcFor(c). A missing source column or date yields NaN.
func Project(src *Matrix, dates []time.Time, columns []string, srcFor func(string) string) *Matrix {
	out := NewMatrix(dates, columns)
	for j, c := range columns {
		sj := src.ColIndex(srcFor(c))
		if sj < 0 {
			continue
		}
		for i, d := range dates {
			out.Values[i][j] = src.At(d, sj)
		}
	}
	return out
}

// Combine outer-aligns matrices on both axes and sums them: the result spans
// the union calendar (continuous) and the union of column labels, missing
// values counted as zero.
func Combine(mats ...*Matrix) *Matrix {
	var start, end time.Time
	cols := make(map[string]bool)
	for _, m := range mats {
		if m == nil || len(m.Dates) == 0 {
			continue
		}
		if start.IsZero() || m.Dates[0].Before(start) {
			start = m.Dates[0]
		}
		last := m.Dates[len(m.Dates)-1]
		if end.IsZero() || last.After(end) {
			end = last
		}
		for _, c := range m.Columns {
			cols[c] = true
		}
	}
	if start.IsZero() {
		return NewMatrix(nil, nil)
	}

	labels := make([]string, 0, len(cols))
	for c := range cols {
		labels = append(labels, c)
	}
	sort.Strings(labels)

	out := NewMatrix(Calendar(start, end), labels)
	for i := range out.Values {
		for j := range out.Values[i] {
			out.Values[i][j] = 0
		}
	}
	for _, m := range mats {
		if m == nil {
			continue
		}
		for j, c := range m.Columns {
			oj := out.ColIndex(c)
			for i, d := range m.Dates {
				v := m.Values[i][j]
				if math.IsNaN(v) {
					continue
				}
				out.Values[dateIndex(out.Dates, d)][oj] += v
			}
		}
	}
	return out
}
