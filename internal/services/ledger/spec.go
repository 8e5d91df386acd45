// Package ledger materializes per-account balances for one asset-class
// ledger and values them in the reference currency.
package ledger

import (
	"github.com/bobmcallan/capvault/internal/models"
)

// PriceMode selects how a holding converts from units to quote-currency value.
type PriceMode int

const (
	// PriceNone: the unit amount already is the value (cash).
	PriceNone PriceMode = iota
	// PriceUnity: par-valued at 1 in the denomination currency (fixed income).
	PriceUnity
	// PriceQuoted: valued through the market price matrix.
	PriceQuoted
)

// CurrencyMode selects where a holding's currency comes from.
type CurrencyMode int

const (
	// CurrencyUnit: the record's unit is itself a currency code (cash).
	CurrencyUnit CurrencyMode = iota
	// CurrencyMetadata: the record carries its quote or denomination currency.
	CurrencyMetadata
	// CurrencyUSD: always quoted in US dollars (crypto pairs).
	CurrencyUSD
)

// ClassSpec describes how one asset-class ledger is balanced and valued.
// The tags replace field-name sniffing: every class states explicitly how
// its units price and which currency they settle in.
type ClassSpec struct {
	Class        models.AssetClass
	PriceMode    PriceMode
	CurrencyMode CurrencyMode
}

// SpecFor returns the valuation spec of an asset class.
func SpecFor(class models.AssetClass) ClassSpec {
	switch class {
	case models.AssetCash:
		return ClassSpec{Class: class, PriceMode: PriceNone, CurrencyMode: CurrencyUnit}
	case models.AssetSecurity:
		return ClassSpec{Class: class, PriceMode: PriceQuoted, CurrencyMode: CurrencyMetadata}
	case models.AssetCrypto:
		return ClassSpec{Class: class, PriceMode: PriceQuoted, CurrencyMode: CurrencyUSD}
	case models.AssetFixedIncome:
		return ClassSpec{Class: class, PriceMode: PriceUnity, CurrencyMode: CurrencyMetadata}
	}
	return ClassSpec{Class: class}
}
