package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
	"github.com/bobmcallan/capvault/internal/timeseries"
)

// UnknownCurrency labels holdings whose settlement currency could not be
// resolved. They stay in every view rather than being dropped.
const UnknownCurrency = "Unknown"

// Service implements LedgerService for one asset class
type Service struct {
	spec    ClassSpec
	storage interfaces.StorageManager
	market  interfaces.MarketDataService
	config  *common.Config
	logger  *common.Logger
}

// NewService creates a ledger service for the given class spec
func NewService(spec ClassSpec, storage interfaces.StorageManager, market interfaces.MarketDataService, config *common.Config, logger *common.Logger) *Service {
	return &Service{
		spec:    spec,
		storage: storage,
		market:  market,
		config:  config,
		logger:  logger,
	}
}

// GlobalRange returns the min and max record date across all four ledgers.
// Every balance table is reindexed onto this shared calendar so the class
// views align without further work.
func GlobalRange(ctx context.Context, storage interfaces.StorageManager) (time.Time, time.Time, error) {
	var start, end time.Time
	for _, class := range models.AssetClasses() {
		records, err := storage.LedgerStore().Query(ctx, class.Collection(), interfaces.RecordFilter{})
		if err != nil {
			return start, end, fmt.Errorf("failed to scan %s: %w", class.Collection(), err)
		}
		for _, r := range records {
			d := timeseries.Day(r.Date)
			if start.IsZero() || d.Before(start) {
				start = d
			}
			if d.After(end) {
				end = d
			}
		}
	}
	return start, end, nil
}

// accountInfo carries the valuation metadata resolved per account column.
type accountInfo struct {
	account  models.Account
	currency string // settlement currency, empty when unresolvable
	ticker   string // price matrix column for quoted holdings
}

// balanceUnits builds the per-account balance table in native units: one
// column per (platform, unit) account, cumulative quantities carried forward
// over the global calendar, zero before first activity.
func (s *Service) balanceUnits(ctx context.Context) (*timeseries.Matrix, map[string]accountInfo, error) {
	records, err := s.storage.LedgerStore().Query(ctx, s.spec.Class.Collection(), interfaces.RecordFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", s.spec.Class.Collection(), err)
	}
	if len(records) == 0 {
		s.logger.Debug().Str("collection", s.spec.Class.Collection()).Msg("Ledger is empty")
		return timeseries.NewMatrix(nil, nil), map[string]accountInfo{}, nil
	}

	start, end, err := GlobalRange(ctx, s.storage)
	if err != nil {
		return nil, nil, err
	}
	calendar := timeseries.Calendar(start, end)

	grouped := make(map[string][]*models.LedgerRecord)
	info := make(map[string]accountInfo)
	for _, r := range records {
		account := models.AccountOf(r)
		label := account.Label()
		grouped[label] = append(grouped[label], r)

		ai := info[label]
		ai.account = account
		ai.ticker = models.NormalizeTicker(r.Unit)
		switch s.spec.CurrencyMode {
		case CurrencyUnit:
			ai.currency = models.NormalizeCurrency(r.Unit)
		case CurrencyMetadata:
			if r.QuoteCurrency != "" {
				ai.currency = models.NormalizeCurrency(r.QuoteCurrency)
			}
		case CurrencyUSD:
			ai.currency = "USD"
		}
		info[label] = ai
	}

	labels := make([]string, 0, len(grouped))
	for label := range grouped {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	m := timeseries.NewMatrix(calendar, labels)
	for col, label := range labels {
		rs := grouped[label]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Date.Before(rs[j].Date) })
		running := 0.0
		for _, r := range rs {
			running += r.Quantity
			// Same-day records overwrite, leaving the day's closing balance.
			m.Set(r.Date, col, running)
		}
	}
	m.ForwardFill().FillNaN(0)
	return m, info, nil
}

// valued converts the unit balance table into reference-currency values:
// units times price (where the class is quoted) times FX, forward-filled and
// rounded to reporting precision. A holding with no obtainable price or rate
// values at zero instead of disappearing.
func (s *Service) valued(ctx context.Context) (*timeseries.Matrix, map[string]accountInfo, error) {
	units, info, err := s.balanceUnits(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(units.Dates) == 0 {
		return units, info, nil
	}

	if s.spec.PriceMode == PriceQuoted {
		prices, err := s.market.PriceMatrix(ctx)
		if err != nil {
			return nil, nil, err
		}
		factor := timeseries.Project(prices, units.Dates, units.Columns, func(label string) string {
			return info[label].ticker
		})
		units.Mul(factor)
	}

	fx, err := s.market.FXMatrix(ctx)
	if err != nil {
		return nil, nil, err
	}
	factor := timeseries.Project(fx, units.Dates, units.Columns, func(label string) string {
		return info[label].currency
	})
	units.Mul(factor)

	units.ForwardFill().FillNaN(0).Round(2)
	return units, info, nil
}

// BalanceByPlatformAndAsset returns one column per account. With unitsOutput
// the values stay in native units, otherwise they are valued in the reference
// currency.
func (s *Service) BalanceByPlatformAndAsset(ctx context.Context, unitsOutput bool) (*timeseries.Matrix, error) {
	if unitsOutput {
		m, _, err := s.balanceUnits(ctx)
		return m, err
	}
	m, _, err := s.valued(ctx)
	return m, err
}

// BalanceByCurrency regroups the valued accounts by settlement currency.
// Unresolvable currencies group under "Unknown".
func (s *Service) BalanceByCurrency(ctx context.Context) (*timeseries.Matrix, error) {
	m, info, err := s.valued(ctx)
	if err != nil {
		return nil, err
	}
	return m.GroupSum(func(label string) string {
		if c := info[label].currency; c != "" {
			return c
		}
		return UnknownCurrency
	}), nil
}

// BalanceByPlatform regroups the valued accounts by platform.
func (s *Service) BalanceByPlatform(ctx context.Context) (*timeseries.Matrix, error) {
	m, info, err := s.valued(ctx)
	if err != nil {
		return nil, err
	}
	return m.GroupSum(func(label string) string {
		return info[label].account.Platform
	}), nil
}

// BalanceByAsset regroups the valued accounts by held unit, merging the same
// asset held on several platforms.
func (s *Service) BalanceByAsset(ctx context.Context) (*timeseries.Matrix, error) {
	m, info, err := s.valued(ctx)
	if err != nil {
		return nil, err
	}
	return m.GroupSum(func(label string) string {
		return info[label].account.Unit
	}), nil
}

// BalanceAggregated collapses the ledger to one total value series.
func (s *Service) BalanceAggregated(ctx context.Context) (*timeseries.Series, error) {
	m, _, err := s.valued(ctx)
	if err != nil {
		return nil, err
	}
	return m.SumRows().Round(2), nil
}

// Compile-time check
var _ interfaces.LedgerService = (*Service)(nil)
