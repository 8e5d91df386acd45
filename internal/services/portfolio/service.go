// Package portfolio rolls the four asset-class ledgers up into consolidated
// portfolio views.
package portfolio

import (
	"context"
	"fmt"

	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
	"github.com/bobmcallan/capvault/internal/timeseries"
)

// Service implements PortfolioService
type Service struct {
	ledgers map[models.AssetClass]interfaces.LedgerService
	logger  *common.Logger
}

// NewService creates a portfolio service over one ledger service per asset class
func NewService(ledgers map[models.AssetClass]interfaces.LedgerService, logger *common.Logger) *Service {
	return &Service{
		ledgers: ledgers,
		logger:  logger,
	}
}

// BalanceByAssetClass returns one valued column per asset class, outer-aligned
// on dates with gaps counted as zero.
func (s *Service) BalanceByAssetClass(ctx context.Context) (*timeseries.Matrix, error) {
	var parts []*timeseries.Matrix
	for _, class := range models.AssetClasses() {
		svc, ok := s.ledgers[class]
		if !ok {
			continue
		}
		total, err := svc.BalanceAggregated(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate %s: %w", class, err)
		}
		parts = append(parts, seriesColumn(total, class.DisplayName()))
	}
	return timeseries.Combine(parts...), nil
}

// BalanceByPlatform returns one valued column per platform, summed across all
// asset classes a platform holds.
func (s *Service) BalanceByPlatform(ctx context.Context) (*timeseries.Matrix, error) {
	return s.combine(ctx, models.AssetClasses(), func(svc interfaces.LedgerService) (*timeseries.Matrix, error) {
		return svc.BalanceByPlatform(ctx)
	})
}

// BalanceByCurrency returns one valued column per settlement currency.
// Crypto holdings are excluded: their dollar quote is a pricing vehicle, not
// an exposure.
func (s *Service) BalanceByCurrency(ctx context.Context) (*timeseries.Matrix, error) {
	classes := []models.AssetClass{models.AssetCash, models.AssetSecurity, models.AssetFixedIncome}
	return s.combine(ctx, classes, func(svc interfaces.LedgerService) (*timeseries.Matrix, error) {
		return svc.BalanceByCurrency(ctx)
	})
}

// BalanceTotal collapses the whole portfolio to a single value series.
func (s *Service) BalanceTotal(ctx context.Context) (*timeseries.Series, error) {
	byClass, err := s.BalanceByAssetClass(ctx)
	if err != nil {
		return nil, err
	}
	return byClass.SumRows().Round(2), nil
}

// MonthlyChange samples the portfolio total at each month end and returns
// the month-over-month fractional change. The first sampled month is NaN.
func (s *Service) MonthlyChange(ctx context.Context) (*timeseries.Series, error) {
	total, err := s.BalanceTotal(ctx)
	if err != nil {
		return nil, err
	}
	return total.LastOfMonth().PctChange(), nil
}

func (s *Service) combine(
	ctx context.Context,
	classes []models.AssetClass,
	view func(interfaces.LedgerService) (*timeseries.Matrix, error),
) (*timeseries.Matrix, error) {
	var parts []*timeseries.Matrix
	for _, class := range classes {
		svc, ok := s.ledgers[class]
		if !ok {
			continue
		}
		m, err := view(svc)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s view: %w", class, err)
		}
		parts = append(parts, m)
	}
	return timeseries.Combine(parts...), nil
}

func seriesColumn(s *timeseries.Series, label string) *timeseries.Matrix {
	m := timeseries.NewMatrix(s.Dates, []string{label})
	for i, v := range s.Values {
		m.Values[i][0] = v
	}
	return m
}

// Compile-time check
var _ interfaces.PortfolioService = (*Service)(nil)
