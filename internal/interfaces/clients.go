package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/capvault/internal/models"
)

// PriceProvider fetches daily market quotes for a set of instruments. The
// returned rows may cover only part of the requested instruments or dates;
// the caller treats anything unreturned as still-missing and proceeds with
// what it got.
type PriceProvider interface {
	FetchPrices(ctx context.Context, instruments []string, start, end time.Time) ([]*models.SeriesRow, error)
}

// PlatformAdapter produces normalized record batches for one external
// platform (bank, brokerage, exchange, neobank). Parsing of raw statements
// lives entirely behind this boundary; the core only consumes the output.
type PlatformAdapter interface {
	Name() string
	Extract(ctx context.Context) ([]*models.RecordBatch, error)
}
