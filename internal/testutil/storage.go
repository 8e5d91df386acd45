// Package testutil provides in-memory doubles for the storage and provider
// interfaces, used by service unit tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
)

// MemoryStorage is an in-memory StorageManager with the same upsert
// semantics as the document store: ledger records replace by id, series rows
// merge columns by date.
type MemoryStorage struct {
	mu      sync.Mutex
	ledgers map[string]map[string]*models.LedgerRecord // collection -> id -> record
	series  map[string]map[string]*models.SeriesRow    // collection -> day key -> row
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		ledgers: make(map[string]map[string]*models.LedgerRecord),
		series:  make(map[string]map[string]*models.SeriesRow),
	}
}

func (m *MemoryStorage) LedgerStore() interfaces.LedgerStore { return (*memoryLedgerStore)(m) }
func (m *MemoryStorage) SeriesStore() interfaces.SeriesStore { return (*memorySeriesStore)(m) }
func (m *MemoryStorage) Close() error                        { return nil }

type memoryLedgerStore MemoryStorage

func (s *memoryLedgerStore) Write(_ context.Context, collection string, records []*models.LedgerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledgers[collection] == nil {
		s.ledgers[collection] = make(map[string]*models.LedgerRecord)
	}
	for _, r := range records {
		clone := *r
		s.ledgers[collection][r.ID] = &clone
	}
	return nil
}

func (s *memoryLedgerStore) Query(_ context.Context, collection string, filter interfaces.RecordFilter) ([]*models.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.LedgerRecord
	for _, r := range s.ledgers[collection] {
		if filter.Platform != "" && r.Platform != filter.Platform {
			continue
		}
		if filter.Unit != "" && r.Unit != filter.Unit {
			continue
		}
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		clone := *r
		out = append(out, &clone)
	}
	return out, nil
}

type memorySeriesStore MemoryStorage

func (s *memorySeriesStore) Rows(_ context.Context, collection string) ([]*models.SeriesRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.SeriesRow
	for _, row := range s.series[collection] {
		rates := make(map[string]float64, len(row.Rates))
		for k, v := range row.Rates {
			rates[k] = v
		}
		out = append(out, &models.SeriesRow{Date: row.Date, Rates: rates})
	}
	return out, nil
}

func (s *memorySeriesStore) UpsertRows(_ context.Context, collection string, rows []*models.SeriesRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.series[collection] == nil {
		s.series[collection] = make(map[string]*models.SeriesRow)
	}
	for _, row := range rows {
		existing, ok := s.series[collection][row.DayKey()]
		if !ok {
			existing = &models.SeriesRow{Date: row.Date, Rates: make(map[string]float64)}
			s.series[collection][row.DayKey()] = existing
		}
		for k, v := range row.Rates {
			existing.Rates[k] = v
		}
	}
	return nil
}

// ProviderCall records one FetchPrices invocation.
type ProviderCall struct {
	Instruments []string
	Start, End  time.Time
}

// StubProvider returns canned daily rows and records every call. Rows is
// keyed by instrument symbol; only symbols that were asked for are returned,
// clipped to the requested range.
type StubProvider struct {
	mu    sync.Mutex
	Rows  map[string][]*models.SeriesRow
	Err   error
	Calls []ProviderCall
}

func (p *StubProvider) FetchPrices(_ context.Context, instruments []string, start, end time.Time) ([]*models.SeriesRow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, ProviderCall{Instruments: instruments, Start: start, End: end})
	if p.Err != nil {
		return nil, p.Err
	}

	byDay := make(map[string]*models.SeriesRow)
	var out []*models.SeriesRow
	for _, symbol := range instruments {
		for _, row := range p.Rows[symbol] {
			if row.Date.Before(start) || row.Date.After(end) {
				continue
			}
			merged, ok := byDay[row.DayKey()]
			if !ok {
				merged = &models.SeriesRow{Date: row.Date, Rates: make(map[string]float64)}
				byDay[row.DayKey()] = merged
				out = append(out, merged)
			}
			merged.Rates[symbol] = row.Rates[symbol]
		}
	}
	return out, nil
}

var (
	_ interfaces.StorageManager = (*MemoryStorage)(nil)
	_ interfaces.PriceProvider  = (*StubProvider)(nil)
)
