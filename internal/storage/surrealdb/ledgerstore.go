package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
)

// LedgerStore persists ledger records keyed by their identity fingerprint.
type LedgerStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewLedgerStore(db *surrealdb.DB, logger *common.Logger) *LedgerStore {
	return &LedgerStore{
		db:     db,
		logger: logger,
	}
}

// Write upserts records into the collection. The fingerprint is the record
// id, so an unchanged batch is a no-op and corrected source data replaces
// the stored field set.
func (s *LedgerStore) Write(ctx context.Context, collection string, records []*models.LedgerRecord) error {
	sql := "UPSERT $rid CONTENT $data"
	for _, r := range records {
		vars := map[string]any{
			"rid":  surrealmodels.NewRecordID(collection, r.ID),
			"data": r,
		}

		var lastErr error
		saved := false
		for attempt := 1; attempt <= 3; attempt++ {
			_, err := surrealdb.Query[[]models.LedgerRecord](ctx, s.db, sql, vars)
			if err == nil {
				saved = true
				break
			}
			lastErr = err
		}
		if !saved {
			return fmt.Errorf("failed to write ledger record after retries: %w", lastErr)
		}
	}

	s.logger.Debug().
		Str("collection", collection).
		Int("records", len(records)).
		Msg("Ledger records written")
	return nil
}

// Query returns records matching the filter; an empty filter returns the
// whole collection.
func (s *LedgerStore) Query(ctx context.Context, collection string, filter interfaces.RecordFilter) ([]*models.LedgerRecord, error) {
	var conditions []string
	vars := map[string]any{}
	if filter.Platform != "" {
		conditions = append(conditions, "platform = $platform")
		vars["platform"] = filter.Platform
	}
	if filter.Unit != "" {
		conditions = append(conditions, "unit = $unit")
		vars["unit"] = filter.Unit
	}
	if filter.Category != "" {
		conditions = append(conditions, "type = $category")
		vars["category"] = filter.Category
	}

	sql := "SELECT * FROM " + collection
	if len(conditions) > 0 {
		sql += " WHERE " + strings.Join(conditions, " AND ")
	}

	results, err := surrealdb.Query[[]models.LedgerRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	var records []*models.LedgerRecord
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			records = append(records, &(*results)[0].Result[i])
		}
	}
	return records, nil
}

// Compile-time check
var _ interfaces.LedgerStore = (*LedgerStore)(nil)
