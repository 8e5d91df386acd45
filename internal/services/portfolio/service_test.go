package portfolio

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
	"github.com/bobmcallan/capvault/internal/timeseries"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// stubLedger returns fixed views for one asset class.
type stubLedger struct {
	byPlatform *timeseries.Matrix
	byCurrency *timeseries.Matrix
	total      *timeseries.Series
}

func (l *stubLedger) BalanceByPlatformAndAsset(context.Context, bool) (*timeseries.Matrix, error) {
	return l.byPlatform, nil
}
func (l *stubLedger) BalanceByCurrency(context.Context) (*timeseries.Matrix, error) {
	return l.byCurrency, nil
}
func (l *stubLedger) BalanceByPlatform(context.Context) (*timeseries.Matrix, error) {
	return l.byPlatform, nil
}
func (l *stubLedger) BalanceByAsset(context.Context) (*timeseries.Matrix, error) {
	return l.byPlatform, nil
}
func (l *stubLedger) BalanceAggregated(context.Context) (*timeseries.Series, error) {
	return l.total, nil
}

var _ interfaces.LedgerService = (*stubLedger)(nil)

// table builds a matrix over [start, end] with constant column values.
func table(start, end string, values map[string]float64) *timeseries.Matrix {
	var cols []string
	for c := range values {
		cols = append(cols, c)
	}
	m := timeseries.NewMatrix(timeseries.Calendar(day(start), day(end)), cols)
	for i := range m.Values {
		for j, c := range m.Columns {
			m.Values[i][j] = values[c]
		}
	}
	return m
}

func flatSeries(start, end string, v float64) *timeseries.Series {
	s := timeseries.NewSeries(timeseries.Calendar(day(start), day(end)))
	for i := range s.Values {
		s.Values[i] = v
	}
	return s
}

func newPortfolio(ledgers map[models.AssetClass]interfaces.LedgerService) *Service {
	return NewService(ledgers, common.NewSilentLogger())
}

func TestBalanceByAssetClassAlignsDates(t *testing.T) {
	svc := newPortfolio(map[models.AssetClass]interfaces.LedgerService{
		models.AssetCash: &stubLedger{
			total: flatSeries("2024-01-01", "2024-01-04", 100),
		},
		models.AssetSecurity: &stubLedger{
			total: flatSeries("2024-01-03", "2024-01-05", 50),
		},
	})

	m, err := svc.BalanceByAssetClass(context.Background())
	require.NoError(t, err)

	require.Len(t, m.Dates, 5, "union calendar spans both ledgers")
	cash := m.ColIndex("Cash")
	secs := m.ColIndex("Securities")
	assert.Equal(t, 100.0, m.At(day("2024-01-01"), cash))
	assert.Equal(t, 0.0, m.At(day("2024-01-01"), secs), "absent dates count as zero")
	assert.Equal(t, 50.0, m.At(day("2024-01-03"), secs))
	assert.Equal(t, 0.0, m.At(day("2024-01-05"), cash))
}

func TestBalanceByPlatformSumsAcrossClasses(t *testing.T) {
	svc := newPortfolio(map[models.AssetClass]interfaces.LedgerService{
		models.AssetCash: &stubLedger{
			byPlatform: table("2024-01-01", "2024-01-02", map[string]float64{"Swissquote": 100, "BCGE": 40}),
		},
		models.AssetSecurity: &stubLedger{
			byPlatform: table("2024-01-01", "2024-01-02", map[string]float64{"Swissquote": 300}),
		},
	})

	m, err := svc.BalanceByPlatform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 400.0, m.At(day("2024-01-01"), m.ColIndex("Swissquote")), "one column per platform across classes")
	assert.Equal(t, 40.0, m.At(day("2024-01-01"), m.ColIndex("BCGE")))
}

func TestBalanceByCurrencyExcludesCrypto(t *testing.T) {
	svc := newPortfolio(map[models.AssetClass]interfaces.LedgerService{
		models.AssetCash: &stubLedger{
			byCurrency: table("2024-01-01", "2024-01-02", map[string]float64{"CHF": 100}),
		},
		models.AssetCrypto: &stubLedger{
			byCurrency: table("2024-01-01", "2024-01-02", map[string]float64{"USD": 70000}),
		},
	})

	m, err := svc.BalanceByCurrency(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, m.At(day("2024-01-01"), m.ColIndex("CHF")))
	assert.Equal(t, -1, m.ColIndex("USD"), "crypto dollar quotes are not a currency exposure")
}

func TestTotalsConserveAcrossViews(t *testing.T) {
	ledgers := map[models.AssetClass]interfaces.LedgerService{
		models.AssetCash: &stubLedger{
			byPlatform: table("2024-01-01", "2024-01-03", map[string]float64{"Swissquote": 100.10, "BCGE": 49.95}),
			total:      flatSeries("2024-01-01", "2024-01-03", 150.05),
		},
		models.AssetSecurity: &stubLedger{
			byPlatform: table("2024-01-01", "2024-01-03", map[string]float64{"Swissquote": 300.20}),
			total:      flatSeries("2024-01-01", "2024-01-03", 300.20),
		},
	}
	svc := newPortfolio(ledgers)

	byClass, err := svc.BalanceByAssetClass(context.Background())
	require.NoError(t, err)
	byPlatform, err := svc.BalanceByPlatform(context.Background())
	require.NoError(t, err)
	total, err := svc.BalanceTotal(context.Background())
	require.NoError(t, err)

	classTotal := byClass.SumRows()
	platformTotal := byPlatform.SumRows()
	for _, d := range byClass.Dates {
		assert.InDelta(t, classTotal.At(d), platformTotal.At(d), 0.01, "views must agree on the portfolio value")
		assert.InDelta(t, classTotal.At(d), total.At(d), 0.01)
	}
	assert.Equal(t, 450.25, total.At(day("2024-01-02")))
}

func TestMonthlyChange(t *testing.T) {
	total := timeseries.NewSeries(timeseries.Calendar(day("2024-01-30"), day("2024-03-02")))
	for i, d := range total.Dates {
		switch d.Month() {
		case time.January:
			total.Values[i] = 100
		case time.February:
			total.Values[i] = 110
		default:
			total.Values[i] = 99
		}
	}
	svc := newPortfolio(map[models.AssetClass]interfaces.LedgerService{
		models.AssetCash: &stubLedger{total: total},
	})

	monthly, err := svc.MonthlyChange(context.Background())
	require.NoError(t, err)

	require.Len(t, monthly.Values, 3)
	assert.True(t, math.IsNaN(monthly.Values[0]), "no change for the first sampled month")
	assert.InDelta(t, 0.10, monthly.Values[1], 1e-9)
	assert.InDelta(t, -0.10, monthly.Values[2], 1e-9)
}

func TestMissingLedgerIsSkipped(t *testing.T) {
	svc := newPortfolio(map[models.AssetClass]interfaces.LedgerService{
		models.AssetCash: &stubLedger{
			total: flatSeries("2024-01-01", "2024-01-02", 100),
		},
	})

	m, err := svc.BalanceByAssetClass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cash"}, m.Columns)
}

func TestEmptyPortfolio(t *testing.T) {
	svc := newPortfolio(map[models.AssetClass]interfaces.LedgerService{})

	m, err := svc.BalanceByAssetClass(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m.Dates)

	total, err := svc.BalanceTotal(context.Background())
	require.NoError(t, err)
	assert.Empty(t, total.Values)
}
