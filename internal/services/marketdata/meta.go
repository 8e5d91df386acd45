package marketdata

import (
	"context"
	"fmt"
	"sort"

	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
	"github.com/bobmcallan/capvault/internal/timeseries"
)

// requiredFX scans the ledgers that drive FX demand: cash flow currencies
// and the quote currencies of securities and fixed income positions.
// Denomination variants fold onto their parent currency.
func (s *Service) requiredFX(ctx context.Context) (*models.LedgerMeta, error) {
	return s.scan(ctx, []metaSource{
		{models.AssetCash.Collection(), func(r *models.LedgerRecord) string {
			return models.NormalizeCurrency(r.Unit)
		}},
		{models.AssetSecurity.Collection(), func(r *models.LedgerRecord) string {
			return models.NormalizeCurrency(r.QuoteCurrency)
		}},
		{models.AssetFixedIncome.Collection(), func(r *models.LedgerRecord) string {
			return models.NormalizeCurrency(r.QuoteCurrency)
		}},
	})
}

// requiredPrices scans the priced ledgers: securities and crypto tickers.
func (s *Service) requiredPrices(ctx context.Context) (*models.LedgerMeta, error) {
	return s.scan(ctx, []metaSource{
		{models.AssetSecurity.Collection(), func(r *models.LedgerRecord) string {
			return models.NormalizeTicker(r.Unit)
		}},
		{models.AssetCrypto.Collection(), func(r *models.LedgerRecord) string {
			return r.Unit
		}},
	})
}

type metaSource struct {
	collection string
	unitOf     func(*models.LedgerRecord) string
}

func (s *Service) scan(ctx context.Context, sources []metaSource) (*models.LedgerMeta, error) {
	meta := &models.LedgerMeta{}
	seen := make(map[string]bool)

	for _, src := range sources {
		records, err := s.storage.LedgerStore().Query(ctx, src.collection, interfaces.RecordFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", src.collection, err)
		}
		for _, r := range records {
			d := timeseries.Day(r.Date)
			if meta.MinDate.IsZero() || d.Before(meta.MinDate) {
				meta.MinDate = d
			}
			if d.After(meta.MaxDate) {
				meta.MaxDate = d
			}
			if u := src.unitOf(r); u != "" && !seen[u] {
				seen[u] = true
				meta.Units = append(meta.Units, u)
			}
		}
	}

	sort.Strings(meta.Units)
	return meta, nil
}
