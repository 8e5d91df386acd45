package ingest

import (
	"math"

	"github.com/bobmcallan/capvault/internal/common"
)

// Mismatch compares a statement's reported closing balance against the
// balance implied by its opening balance and flows, rounded to reporting
// precision. A non-zero result means the statement does not reconcile.
func Mismatch(opening float64, flows []float64, reportedClosing float64) float64 {
	expected := opening
	for _, f := range flows {
		expected += f
	}
	return math.Round((reportedClosing-expected)*100) / 100
}

// CheckReconciliation verifies a statement batch and logs a warning on
// mismatch. Ingestion always proceeds: a complete ledger with a known
// discrepancy beats an aborted batch.
func CheckReconciliation(logger *common.Logger, platform string, opening float64, flows []float64, reportedClosing float64) bool {
	diff := Mismatch(opening, flows, reportedClosing)
	if diff == 0 {
		return true
	}
	logger.Warn().
		Str("platform", platform).
		Float64("opening", opening).
		Float64("reported_closing", reportedClosing).
		Float64("mismatch", diff).
		Msg("Statement does not reconcile, ingesting anyway")
	return false
}
