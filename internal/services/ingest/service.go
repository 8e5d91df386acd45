package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
)

// Service implements IngestService
type Service struct {
	storage  interfaces.StorageManager
	adapters []interfaces.PlatformAdapter
	logger   *common.Logger
}

// NewService creates a new ingest service
func NewService(storage interfaces.StorageManager, adapters []interfaces.PlatformAdapter, logger *common.Logger) *Service {
	return &Service{
		storage:  storage,
		adapters: adapters,
		logger:   logger,
	}
}

// Run pulls record batches from every registered platform adapter, validates
// them, assigns deterministic identities, and upserts them into their
// destination ledger collections. Re-running over an unchanged source is a
// no-op on the stored set; corrected source data replaces the old field sets.
func (s *Service) Run(ctx context.Context, opts interfaces.IngestOptions) (*interfaces.IngestResult, error) {
	result := &interfaces.IngestResult{
		RunID:    uuid.NewString(),
		ByLedger: make(map[string]int),
	}

	var since time.Time
	if opts.Incremental {
		since = time.Date(time.Now().UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	s.logger.Info().
		Str("run_id", result.RunID).
		Bool("incremental", opts.Incremental).
		Int("adapters", len(s.adapters)).
		Msg("Starting ledger ingest")

	for _, adapter := range s.adapters {
		batches, err := adapter.Extract(ctx)
		if err != nil {
			return nil, fmt.Errorf("adapter %s failed: %w", adapter.Name(), err)
		}

		for _, batch := range batches {
			written, rejected, err := s.writeBatch(ctx, batch, since)
			if err != nil {
				return nil, fmt.Errorf("failed to write %s batch from %s: %w", batch.Destination, adapter.Name(), err)
			}
			if written == 0 {
				continue
			}
			result.Batches++
			result.Written += written
			result.Rejected += rejected
			result.ByLedger[batch.Destination] += written
		}
	}

	s.logger.Info().
		Str("run_id", result.RunID).
		Int("written", result.Written).
		Int("rejected", result.Rejected).
		Int("batches", result.Batches).
		Msg("Ledger ingest complete")

	return result, nil
}

// writeBatch filters, validates, and upserts one adapter batch.
func (s *Service) writeBatch(ctx context.Context, batch *models.RecordBatch, since time.Time) (int, int, error) {
	valid := make([]*models.LedgerRecord, 0, len(batch.Records))
	rejected := 0
	for _, r := range batch.Records {
		if err := r.Validate(); err != nil {
			rejected++
			s.logger.Warn().
				Str("platform", batch.Platform).
				Str("destination", batch.Destination).
				Err(err).
				Msg("Rejected malformed ledger record")
			continue
		}
		valid = append(valid, r)
	}

	// The statement balances cover the whole export, so the check runs
	// before any incremental cutoff is applied.
	if batch.OpeningBalance != nil && batch.ClosingBalance != nil {
		flows := make([]float64, len(valid))
		for i, r := range valid {
			flows[i] = r.Quantity
		}
		CheckReconciliation(s.logger, batch.Platform, *batch.OpeningBalance, flows, *batch.ClosingBalance)
	}

	records := valid
	if !since.IsZero() {
		records = make([]*models.LedgerRecord, 0, len(valid))
		for _, r := range valid {
			if r.Date.Before(since) {
				continue
			}
			records = append(records, r)
		}
	}

	if len(records) == 0 {
		return 0, rejected, nil
	}

	AssignIdentities(records)

	if err := s.storage.LedgerStore().Write(ctx, batch.Destination, records); err != nil {
		return 0, rejected, err
	}
	return len(records), rejected, nil
}

// Compile-time check
var _ interfaces.IngestService = (*Service)(nil)
