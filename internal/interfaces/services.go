package interfaces

import (
	"context"

	"github.com/bobmcallan/capvault/internal/timeseries"
)

// IngestOptions configures an ingest run.
type IngestOptions struct {
	// Incremental restricts ingestion to records dated on or after January 1
	// of the current year. A full run processes everything the adapters emit.
	Incremental bool
}

// IngestResult reports what an ingest run wrote.
type IngestResult struct {
	RunID    string         `json:"run_id"`
	Written  int            `json:"written"`
	Batches  int            `json:"batches"`
	Rejected int            `json:"rejected"`
	ByLedger map[string]int `json:"by_ledger"`
}

// IngestService pulls batches from registered platform adapters, assigns
// deterministic identities, and upserts them into the ledger collections.
type IngestService interface {
	Run(ctx context.Context, opts IngestOptions) (*IngestResult, error)
}

// MarketDataService maintains the FX and price matrices incrementally and
// serves them as continuous, forward-filled daily tables.
type MarketDataService interface {
	RefreshFX(ctx context.Context) error
	RefreshPrices(ctx context.Context) error
	FXMatrix(ctx context.Context) (*timeseries.Matrix, error)
	PriceMatrix(ctx context.Context) (*timeseries.Matrix, error)
}

// LedgerService materializes balances for one asset-class ledger and values
// them in the reference currency.
type LedgerService interface {
	// BalanceByPlatformAndAsset returns one column per account. With
	// unitsOutput the values stay in native units; otherwise they are valued
	// in the reference currency and rounded to 2 decimal places.
	BalanceByPlatformAndAsset(ctx context.Context, unitsOutput bool) (*timeseries.Matrix, error)
	BalanceByCurrency(ctx context.Context) (*timeseries.Matrix, error)
	BalanceByPlatform(ctx context.Context) (*timeseries.Matrix, error)
	BalanceByAsset(ctx context.Context) (*timeseries.Matrix, error)
	BalanceAggregated(ctx context.Context) (*timeseries.Series, error)
}

// PortfolioService rolls the four asset-class ledgers up into consolidated
// views.
type PortfolioService interface {
	BalanceByAssetClass(ctx context.Context) (*timeseries.Matrix, error)
	BalanceByPlatform(ctx context.Context) (*timeseries.Matrix, error)
	BalanceByCurrency(ctx context.Context) (*timeseries.Matrix, error)
	BalanceTotal(ctx context.Context) (*timeseries.Series, error)
	// MonthlyChange samples the total at month ends and returns the
	// month-over-month fractional change.
	MonthlyChange(ctx context.Context) (*timeseries.Series, error)
}
