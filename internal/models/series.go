package models

import (
	"time"
)

// Market data collections. FXCollection maps currency -> reference-currency
// rate per day; PriceCollection maps instrument -> quote-currency price per day.
const (
	FXCollection    = "fx_matrix"
	PriceCollection = "market_prices"
)

// SeriesRow is one daily row of a stored FX or price matrix. Rates are keyed
// by currency code or instrument ticker. Rows are keyed in the document store
// by their date, so re-upserting a date merges new instruments into the
// existing row instead of duplicating it.
type SeriesRow struct {
	Date  time.Time          `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// DayKey renders the row's document id.
func (r *SeriesRow) DayKey() string {
	return r.Date.UTC().Format("2006-01-02")
}

// LedgerMeta summarizes what a set of ledgers requires from market data:
// the date span of all records and the distinct units referenced.
type LedgerMeta struct {
	MinDate time.Time
	MaxDate time.Time
	Units   []string
}

// Empty reports whether the scan found no records at all.
func (m *LedgerMeta) Empty() bool {
	return m.MinDate.IsZero()
}
