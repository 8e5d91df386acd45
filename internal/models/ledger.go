// Package models defines data structures for CapVault
package models

import (
	"fmt"
	"strings"
	"time"
)

// AssetClass identifies which ledger a record belongs to. Each class carries
// a slightly different field set, validated at the adapter boundary.
type AssetClass string

const (
	AssetCash        AssetClass = "cash"
	AssetSecurity    AssetClass = "security"
	AssetCrypto      AssetClass = "crypto"
	AssetFixedIncome AssetClass = "fixed_income"
)

// Collection returns the document-store collection backing this asset class.
func (a AssetClass) Collection() string {
	switch a {
	case AssetCash:
		return "cash_flows"
	case AssetSecurity:
		return "securities_ledger"
	case AssetCrypto:
		return "cryptos_ledger"
	case AssetFixedIncome:
		return "fixed_income_ledger"
	}
	return ""
}

// DisplayName returns the column label used in consolidated views.
func (a AssetClass) DisplayName() string {
	switch a {
	case AssetCash:
		return "Cash"
	case AssetSecurity:
		return "Securities"
	case AssetCrypto:
		return "Cryptos"
	case AssetFixedIncome:
		return "Fixed Income"
	}
	return string(a)
}

// AssetClasses lists all tracked ledgers in a stable order.
func AssetClasses() []AssetClass {
	return []AssetClass{AssetCash, AssetSecurity, AssetCrypto, AssetFixedIncome}
}

// LedgerRecord is a single normalized financial event. Quantity sign encodes
// direction: inflows and sells positive, outflows and buys negative.
type LedgerRecord struct {
	ID          string     `json:"fingerprint,omitempty"` // deterministic identity, assigned at ingest; doubles as the document key
	Date        time.Time  `json:"date"`
	Category    string     `json:"type"`              // Deposit, Withdrawal, Expense, Buy, Sell, Transfer...
	Subcategory string     `json:"subtype,omitempty"` // fixed / variable classification
	Quantity    float64    `json:"quantity"`          // signed amount in native unit
	Unit        string     `json:"unit"`              // currency code, ticker, or ISIN depending on asset class
	Platform    string     `json:"platform"`
	AssetClass  AssetClass `json:"asset_class"`
	Description string     `json:"description,omitempty"`

	// QuoteCurrency is the currency a security's price is quoted in, or the
	// denomination currency of a fixed income position. Empty for cash (the
	// unit is the currency) and crypto (always USD-quoted).
	QuoteCurrency string `json:"quote_currency,omitempty"`

	// BalanceByCategory is the running sum of absolute quantities within the
	// record's (unit, platform, category) grouping. It participates in the
	// identity fingerprint and is assigned at ingest.
	BalanceByCategory float64 `json:"balance_by_category,omitempty"`
}

// Account is the grouping key for cumulative balance computation.
type Account struct {
	Platform string `json:"platform"`
	Unit     string `json:"unit"`
}

// Label renders the account as "platform - unit", the column label used in
// balance tables.
func (a Account) Label() string {
	return a.Platform + " - " + a.Unit
}

// AccountOf returns the account a record belongs to.
func AccountOf(r *LedgerRecord) Account {
	return Account{Platform: r.Platform, Unit: r.Unit}
}

// Validate checks the class-dependent field set of a record before it enters
// the core. Adapters must only emit records that pass this.
func (r *LedgerRecord) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("ledger record has no date")
	}
	if r.Platform == "" {
		return fmt.Errorf("ledger record has no platform")
	}
	if r.Category == "" {
		return fmt.Errorf("ledger record has no type")
	}
	if r.Unit == "" {
		return fmt.Errorf("ledger record has no unit")
	}

	switch r.AssetClass {
	case AssetCash:
		if len(r.Unit) != 3 {
			return fmt.Errorf("cash record unit %q is not a currency code", r.Unit)
		}
	case AssetSecurity:
		if r.QuoteCurrency == "" {
			return fmt.Errorf("security record %s has no quote currency", r.Unit)
		}
	case AssetCrypto:
		// Crypto tickers are USD-quoted pairs; no extra metadata required.
	case AssetFixedIncome:
		if r.QuoteCurrency == "" {
			return fmt.Errorf("fixed income record %s has no denomination currency", r.Unit)
		}
	default:
		return fmt.Errorf("unknown asset class %q", r.AssetClass)
	}
	return nil
}

// RecordBatch is the platform adapter output contract: a set of normalized
// records plus the collection they are destined for.
type RecordBatch struct {
	Platform    string          `json:"platform"`
	Destination string          `json:"destination"` // ledger collection name
	Records     []*LedgerRecord `json:"records"`

	// OpeningBalance and ClosingBalance echo the statement the batch was
	// extracted from. When both are present, ingest cross-checks them
	// against the flows and logs any discrepancy.
	OpeningBalance *float64 `json:"opening_balance,omitempty"`
	ClosingBalance *float64 `json:"closing_balance,omitempty"`
}

// NormalizeCurrency folds denomination variants onto their parent code so a
// variant and its parent always aggregate together (GBX is pence sterling).
func NormalizeCurrency(code string) string {
	if strings.ToUpper(code) == "GBX" {
		return "GBP"
	}
	return code
}

// NormalizeTicker drops the US listing suffix some platforms attach to
// tickers. The price provider knows plain US symbols only.
func NormalizeTicker(ticker string) string {
	return strings.TrimSuffix(ticker, ".US")
}
