package filebatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/capvault/internal/common"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestExtractReadsBatchFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bcge.json", `[{
		"platform": "BCGE",
		"destination": "cash_flows",
		"records": [
			{"date": "2024-01-01T00:00:00Z", "type": "Deposit", "quantity": 100, "unit": "CHF", "asset_class": "cash"},
			{"date": "2024-01-02T00:00:00Z", "type": "Expense", "quantity": -20, "unit": "CHF", "asset_class": "cash"}
		]
	}]`)

	adapter := New(dir, nil, common.NewSilentLogger())
	batches, err := adapter.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, batches, 1)
	assert.Equal(t, "BCGE", batches[0].Platform)
	assert.Equal(t, "cash_flows", batches[0].Destination)
	require.Len(t, batches[0].Records, 2)
	assert.Equal(t, "BCGE", batches[0].Records[0].Platform, "records inherit the batch platform")
}

func TestExtractAcceptsSingleBatchFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "kraken.json", `{
		"platform": "Kraken",
		"destination": "cryptos_ledger",
		"records": [{"date": "2024-01-01T00:00:00Z", "type": "Buy", "quantity": 0.5, "unit": "BTC", "asset_class": "crypto"}]
	}`)

	adapter := New(dir, nil, common.NewSilentLogger())
	batches, err := adapter.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "cryptos_ledger", batches[0].Destination)
}

func TestExtractFillsDefaultCurrency(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "revolut.json", `[{
		"platform": "Revolut",
		"destination": "cash_flows",
		"records": [{"date": "2024-01-01T00:00:00Z", "type": "Deposit", "quantity": 100, "asset_class": "cash"}]
	}]`)

	adapter := New(dir, map[string]string{"Revolut": "CHF"}, common.NewSilentLogger())
	batches, err := adapter.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "CHF", batches[0].Records[0].Unit)
}

func TestExtractMissingDirectoryIsEmpty(t *testing.T) {
	adapter := New(filepath.Join(t.TempDir(), "nope"), nil, common.NewSilentLogger())
	batches, err := adapter.Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestExtractIgnoresNonJSONFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "not a batch")
	writeFile(t, dir, "bank.json", `[{"platform": "BankA", "destination": "cash_flows", "records": []}]`)

	adapter := New(dir, nil, common.NewSilentLogger())
	batches, err := adapter.Extract(context.Background())
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestExtractRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", `{"platform": `)

	adapter := New(dir, nil, common.NewSilentLogger())
	_, err := adapter.Extract(context.Background())
	assert.Error(t, err)
}
