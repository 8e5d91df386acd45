package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
)

// SeriesStore persists daily FX and price rows keyed by date.
type SeriesStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewSeriesStore(db *surrealdb.DB, logger *common.Logger) *SeriesStore {
	return &SeriesStore{
		db:     db,
		logger: logger,
	}
}

// Rows returns every stored row of the collection.
func (s *SeriesStore) Rows(ctx context.Context, collection string) ([]*models.SeriesRow, error) {
	sql := "SELECT * FROM " + collection

	results, err := surrealdb.Query[[]models.SeriesRow](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	var rows []*models.SeriesRow
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			rows = append(rows, &(*results)[0].Result[i])
		}
	}
	return rows, nil
}

// UpsertRows writes rows keyed by their day. MERGE folds new instrument
// columns into an existing day's rates instead of replacing them, which is
// what lets back-fill passes add columns without touching the date axis.
func (s *SeriesStore) UpsertRows(ctx context.Context, collection string, rows []*models.SeriesRow) error {
	sql := "UPSERT $rid MERGE $data"
	for _, row := range rows {
		vars := map[string]any{
			"rid":  surrealmodels.NewRecordID(collection, row.DayKey()),
			"data": row,
		}

		var lastErr error
		saved := false
		for attempt := 1; attempt <= 3; attempt++ {
			_, err := surrealdb.Query[[]models.SeriesRow](ctx, s.db, sql, vars)
			if err == nil {
				saved = true
				break
			}
			lastErr = err
		}
		if !saved {
			return fmt.Errorf("failed to upsert series row after retries: %w", lastErr)
		}
	}

	s.logger.Debug().
		Str("collection", collection).
		Int("rows", len(rows)).
		Msg("Series rows upserted")
	return nil
}

// Compile-time check
var _ interfaces.SeriesStore = (*SeriesStore)(nil)
