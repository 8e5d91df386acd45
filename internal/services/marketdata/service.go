// Package marketdata maintains the FX and instrument price matrices,
// refreshing them incrementally against the price provider.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
	"github.com/bobmcallan/capvault/internal/timeseries"
)

// Service implements MarketDataService
type Service struct {
	storage  interfaces.StorageManager
	provider interfaces.PriceProvider
	config   *common.Config
	logger   *common.Logger
}

// NewService creates a new market data service
func NewService(storage interfaces.StorageManager, provider interfaces.PriceProvider, config *common.Config, logger *common.Logger) *Service {
	return &Service{
		storage:  storage,
		provider: provider,
		config:   config,
		logger:   logger,
	}
}

// RefreshFX brings the FX matrix up to date with what the ledgers require.
// Missing trailing dates are fetched first for all tracked currencies; only
// then are newly-referenced currencies back-filled, restricted to the date
// axis the first pass established.
func (s *Service) RefreshFX(ctx context.Context) error {
	meta, err := s.requiredFX(ctx)
	if err != nil {
		return err
	}
	if meta.Empty() {
		s.logger.Debug().Msg("No ledger records yet, skipping FX refresh")
		return nil
	}

	ref := s.config.ReferenceCurrency
	symbolFor := func(ccy string) string { return ccy + ref + "=X" }
	unitFor := func(symbol string) string {
		return strings.TrimSuffix(strings.TrimSuffix(symbol, "=X"), ref)
	}

	return s.refresh(ctx, models.FXCollection, meta, symbolFor, unitFor, ref)
}

// RefreshPrices brings the instrument price matrix up to date. Deny-listed
// instruments are treated as permanently unobtainable and skipped.
func (s *Service) RefreshPrices(ctx context.Context) error {
	meta, err := s.requiredPrices(ctx)
	if err != nil {
		return err
	}
	if meta.Empty() {
		s.logger.Debug().Msg("No ledger records yet, skipping price refresh")
		return nil
	}

	identity := func(u string) string { return u }
	return s.refresh(ctx, models.PriceCollection, meta, identity, identity, "")
}

// refresh runs the two gap-fill passes for one stored series. The reference
// unit, when set, is pinned at 1.0 and never fetched.
func (s *Service) refresh(
	ctx context.Context,
	collection string,
	meta *models.LedgerMeta,
	symbolFor func(string) string,
	unitFor func(string) string,
	refUnit string,
) error {
	rows, err := s.storage.SeriesStore().Rows(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", collection, err)
	}

	// Pass 1: missing trailing dates, all tracked units.
	fetchStart := meta.MinDate
	if len(rows) > 0 {
		fetchStart = latestDate(rows).AddDate(0, 0, 1)
	}
	if !fetchStart.After(meta.MaxDate) {
		symbols := s.fetchableSymbols(meta.Units, refUnit, symbolFor)
		fetched, err := s.provider.FetchPrices(ctx, symbols, fetchStart, meta.MaxDate)
		if err != nil {
			return fmt.Errorf("price provider failed for %s: %w", collection, err)
		}
		merged := remapRows(fetched, unitFor, refUnit)
		if len(merged) > 0 {
			if err := s.storage.SeriesStore().UpsertRows(ctx, collection, merged); err != nil {
				return fmt.Errorf("failed to upsert %s rows: %w", collection, err)
			}
			s.logger.Info().
				Str("collection", collection).
				Int("rows", len(merged)).
				Str("from", fetchStart.Format("2006-01-02")).
				Str("to", meta.MaxDate.Format("2006-01-02")).
				Msg("Filled missing series dates")
		}
		rows, err = s.storage.SeriesStore().Rows(ctx, collection)
		if err != nil {
			return fmt.Errorf("failed to re-read %s: %w", collection, err)
		}
	}

	// Pass 2: newly-referenced units, back-filled only across dates the
	// series already covers so this path never grows the date axis.
	if len(rows) == 0 {
		return nil
	}
	tracked := trackedUnits(rows)
	var missing []string
	for _, u := range meta.Units {
		if u != refUnit && !tracked[u] {
			missing = append(missing, u)
		}
	}
	missing = s.fetchableSymbols(missing, refUnit, func(u string) string { return u })
	if len(missing) == 0 {
		return nil
	}

	symbols := make([]string, len(missing))
	for i, u := range missing {
		symbols[i] = symbolFor(u)
	}
	fetched, err := s.provider.FetchPrices(ctx, symbols, earliestDate(rows), latestDate(rows))
	if err != nil {
		return fmt.Errorf("price provider failed for %s backfill: %w", collection, err)
	}

	stored := make(map[string]bool, len(rows))
	for _, r := range rows {
		stored[r.DayKey()] = true
	}
	var merged []*models.SeriesRow
	for _, row := range remapRows(fetched, unitFor, "") {
		if stored[row.DayKey()] {
			merged = append(merged, row)
		}
	}
	if len(merged) == 0 {
		s.logger.Warn().
			Str("collection", collection).
			Strs("units", missing).
			Msg("Provider returned no usable history for new units")
		return nil
	}
	if err := s.storage.SeriesStore().UpsertRows(ctx, collection, merged); err != nil {
		return fmt.Errorf("failed to merge new %s columns: %w", collection, err)
	}
	s.logger.Info().
		Str("collection", collection).
		Strs("units", missing).
		Int("rows", len(merged)).
		Msg("Back-filled newly-referenced units")
	return nil
}

// fetchableSymbols maps units to provider symbols, dropping the reference
// unit and anything on the deny-list.
func (s *Service) fetchableSymbols(units []string, refUnit string, symbolFor func(string) string) []string {
	var symbols []string
	for _, u := range units {
		if u == refUnit || u == "" {
			continue
		}
		if s.config.IsDenied(u) {
			s.logger.Debug().Str("unit", u).Msg("Skipping deny-listed instrument")
			continue
		}
		symbols = append(symbols, symbolFor(u))
	}
	return symbols
}

// FXMatrix returns the stored FX series as a continuous daily matrix from its
// first stored date through today, forward-filled, with the reference
// currency pinned at 1.0.
func (s *Service) FXMatrix(ctx context.Context) (*timeseries.Matrix, error) {
	m, err := s.matrix(ctx, models.FXCollection, s.config.ReferenceCurrency)
	if err != nil {
		return nil, err
	}
	ref := m.ColIndex(s.config.ReferenceCurrency)
	for i := range m.Values {
		m.Values[i][ref] = 1.0
	}
	return m.ForwardFill(), nil
}

// PriceMatrix returns the stored price series as a continuous daily matrix
// from its first stored date through today, forward-filled.
func (s *Service) PriceMatrix(ctx context.Context) (*timeseries.Matrix, error) {
	m, err := s.matrix(ctx, models.PriceCollection, "")
	if err != nil {
		return nil, err
	}
	return m.ForwardFill(), nil
}

func (s *Service) matrix(ctx context.Context, collection, extraColumn string) (*timeseries.Matrix, error) {
	rows, err := s.storage.SeriesStore().Rows(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	if len(rows) == 0 {
		// Nothing to forward-fill from; valuation cannot proceed.
		return nil, fmt.Errorf("series %s is empty", collection)
	}

	cols := make(map[string]bool)
	for _, r := range rows {
		for u := range r.Rates {
			cols[u] = true
		}
	}
	if extraColumn != "" {
		cols[extraColumn] = true
	}
	labels := make([]string, 0, len(cols))
	for u := range cols {
		labels = append(labels, u)
	}
	sort.Strings(labels)

	calendar := timeseries.Calendar(earliestDate(rows), time.Now().UTC())
	m := timeseries.NewMatrix(calendar, labels)
	for _, r := range rows {
		for u, v := range r.Rates {
			m.Set(r.Date, m.ColIndex(u), v)
		}
	}
	return m, nil
}

func latestDate(rows []*models.SeriesRow) time.Time {
	var latest time.Time
	for _, r := range rows {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return timeseries.Day(latest)
}

func earliestDate(rows []*models.SeriesRow) time.Time {
	var earliest time.Time
	for _, r := range rows {
		if earliest.IsZero() || r.Date.Before(earliest) {
			earliest = r.Date
		}
	}
	return timeseries.Day(earliest)
}

func trackedUnits(rows []*models.SeriesRow) map[string]bool {
	units := make(map[string]bool)
	for _, r := range rows {
		for u := range r.Rates {
			units[u] = true
		}
	}
	return units
}

// remapRows renames provider symbols back to unit codes and, when a
// reference unit is given, pins it at 1.0 on every row.
func remapRows(rows []*models.SeriesRow, unitFor func(string) string, refUnit string) []*models.SeriesRow {
	out := make([]*models.SeriesRow, 0, len(rows))
	for _, row := range rows {
		rates := make(map[string]float64, len(row.Rates)+1)
		for symbol, v := range row.Rates {
			rates[unitFor(symbol)] = v
		}
		if refUnit != "" {
			rates[refUnit] = 1.0
		}
		out = append(out, &models.SeriesRow{Date: timeseries.Day(row.Date), Rates: rates})
	}
	return out
}

// Compile-time check
var _ interfaces.MarketDataService = (*Service)(nil)
