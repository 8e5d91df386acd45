package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/capvault/internal/models"
)

func TestFingerprintFormat(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := Fingerprint(ts, "Deposit", 100.5, "CHF", "BankA", 100.5)
	assert.Equal(t, "1704067200 - Deposit - 100.5 - CHF - BankA - 100.5", got)
}

func TestFingerprintFloatRendering(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "1704067200 - 100", Fingerprint(ts, 100.0), "whole floats render without a decimal point")
	assert.Equal(t, "1704067200 - -0.25", Fingerprint(ts, -0.25))
}

func record(date time.Time, category string, quantity float64, unit, platform string) *models.LedgerRecord {
	return &models.LedgerRecord{
		Date:       date,
		Category:   category,
		Quantity:   quantity,
		Unit:       unit,
		Platform:   platform,
		AssetClass: models.AssetCash,
	}
}

func TestAssignIdentitiesRunningBalance(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	records := []*models.LedgerRecord{
		record(d2, "Expense", -30, "CHF", "BankA"),
		record(d1, "Expense", -20, "CHF", "BankA"),
		record(d1, "Deposit", 100, "CHF", "BankA"),
	}

	AssignIdentities(records)

	// Sorted by date then quantity: (d1,-20), (d1,100), (d2,-30).
	assert.Equal(t, 20.0, records[0].BalanceByCategory)
	assert.Equal(t, 100.0, records[1].BalanceByCategory, "categories accumulate independently")
	assert.Equal(t, 50.0, records[2].BalanceByCategory, "absolute quantities accumulate within a category")

	for _, r := range records {
		assert.NotEmpty(t, r.ID)
	}
}

func TestAssignIdentitiesIsDeterministic(t *testing.T) {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	build := func() []*models.LedgerRecord {
		return []*models.LedgerRecord{
			record(d, "Deposit", 100, "CHF", "BankA"),
			record(d, "Expense", -20, "EUR", "BankB"),
			record(d.AddDate(0, 0, 5), "Deposit", 40, "CHF", "BankA"),
		}
	}

	first := build()
	second := build()
	AssignIdentities(first)
	AssignIdentities(second)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID, "identities must be byte-identical across runs")
	}
}

func TestAssignIdentitiesTiesKeepInputOrder(t *testing.T) {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := record(d, "Expense", -15, "CHF", "BankA")
	a.Description = "coffee"
	b := record(d, "Expense", -15, "CHF", "BankA")
	b.Description = "lunch"

	records := []*models.LedgerRecord{a, b}
	AssignIdentities(records)

	assert.Equal(t, "coffee", records[0].Description)
	assert.Equal(t, "lunch", records[1].Description)
	assert.Equal(t, 15.0, records[0].BalanceByCategory)
	assert.Equal(t, 30.0, records[1].BalanceByCategory)
	assert.NotEqual(t, records[0].ID, records[1].ID, "equal-amount same-day records stay distinct")
}
