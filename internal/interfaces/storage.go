// Package interfaces defines service contracts for CapVault
package interfaces

import (
	"context"

	"github.com/bobmcallan/capvault/internal/models"
)

// StorageManager coordinates access to the document store collections.
type StorageManager interface {
	LedgerStore() LedgerStore
	SeriesStore() SeriesStore

	// Lifecycle
	Close() error
}

// RecordFilter selects ledger records by field equality. Zero-valued fields
// are not applied; an empty filter matches the whole collection.
type RecordFilter struct {
	Platform string
	Unit     string
	Category string
}

// LedgerStore persists normalized ledger records, keyed by their
// deterministic fingerprint. Write is insert-or-replace: re-ingesting an
// unchanged batch leaves the collection unchanged, re-ingesting corrected
// data replaces the previous field set.
type LedgerStore interface {
	Write(ctx context.Context, collection string, records []*models.LedgerRecord) error
	Query(ctx context.Context, collection string, filter RecordFilter) ([]*models.LedgerRecord, error)
}

// SeriesStore persists daily FX and price rows, keyed by date. Upserting a
// date that already exists merges the new instrument columns into the stored
// row rather than replacing it.
type SeriesStore interface {
	Rows(ctx context.Context, collection string) ([]*models.SeriesRow, error)
	UpsertRows(ctx context.Context, collection string, rows []*models.SeriesRow) error
}
