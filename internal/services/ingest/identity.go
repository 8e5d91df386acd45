// Package ingest implements the identity and upsert protocol that makes
// repeated ingestion of platform data safe.
package ingest

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/capvault/internal/models"
)

// Fingerprint builds the deterministic identity string for a ledger record:
// the Unix timestamp followed by the ordered string forms of the
// discriminating fields.
func Fingerprint(ts time.Time, parts ...any) string {
	formatted := make([]string, len(parts))
	for i, p := range parts {
		switch v := p.(type) {
		case float64:
			formatted[i] = strconv.FormatFloat(v, 'g', -1, 64)
		default:
			formatted[i] = fmt.Sprint(v)
		}
	}
	return fmt.Sprintf("%d - %s", ts.Unix(), strings.Join(formatted, " - "))
}

// AssignIdentities computes the balance-by-category running sums and assigns
// each record its fingerprint, in place.
//
// Identity depends on a running balance, so the sort order must be stable and
// reproducible: records are ordered by timestamp ascending, then quantity
// ascending, and ties beyond that keep their input order. Two runs over an
// unchanged source therefore produce byte-identical fingerprints.
func AssignIdentities(records []*models.LedgerRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].Quantity < records[j].Quantity
	})

	type categoryKey struct {
		unit, platform, category string
	}
	running := make(map[categoryKey]float64)

	for _, r := range records {
		k := categoryKey{unit: r.Unit, platform: r.Platform, category: r.Category}
		running[k] += math.Abs(r.Quantity)
		r.BalanceByCategory = running[k]
		r.ID = Fingerprint(r.Date, r.Category, r.Quantity, r.Unit, r.Platform, r.BalanceByCategory)
	}
}
