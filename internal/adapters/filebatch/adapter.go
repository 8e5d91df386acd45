// Package filebatch implements a platform adapter that picks up normalized
// record batches from a directory of JSON files. Platform export tooling
// writes one file per export; parsing raw statements stays outside this
// service.
package filebatch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
)

// Adapter reads *.json batch files from a directory.
type Adapter struct {
	dir              string
	platformCurrency map[string]string
	logger           *common.Logger
}

// New creates a file batch adapter. platformCurrency supplies the default
// unit for cash records whose export omitted it.
func New(dir string, platformCurrency map[string]string, logger *common.Logger) *Adapter {
	return &Adapter{
		dir:              dir,
		platformCurrency: platformCurrency,
		logger:           logger,
	}
}

func (a *Adapter) Name() string {
	return "filebatch"
}

// Extract loads every batch file in the directory, in name order. A missing
// directory means no exports have been dropped yet and is not an error.
func (a *Adapter) Extract(ctx context.Context) ([]*models.RecordBatch, error) {
	entries, err := os.ReadDir(a.dir)
	if os.IsNotExist(err) {
		a.logger.Debug().Str("dir", a.dir).Msg("Batch directory does not exist, nothing to ingest")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read batch directory %s: %w", a.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var batches []*models.RecordBatch
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := a.loadFile(filepath.Join(a.dir, name))
		if err != nil {
			return nil, err
		}
		batches = append(batches, loaded...)
	}

	a.logger.Info().
		Str("dir", a.dir).
		Int("files", len(names)).
		Int("batches", len(batches)).
		Msg("Loaded record batches")
	return batches, nil
}

func (a *Adapter) loadFile(path string) ([]*models.RecordBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file %s: %w", path, err)
	}

	var batches []*models.RecordBatch
	if err := json.Unmarshal(data, &batches); err != nil {
		// Single-batch files are also accepted.
		var single models.RecordBatch
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, fmt.Errorf("failed to parse batch file %s: %w", path, err)
		}
		batches = []*models.RecordBatch{&single}
	}

	for _, batch := range batches {
		for _, r := range batch.Records {
			if r.Platform == "" {
				r.Platform = batch.Platform
			}
			if r.Unit == "" && r.AssetClass == models.AssetCash {
				r.Unit = a.platformCurrency[batch.Platform]
			}
		}
	}
	return batches, nil
}

// Compile-time check
var _ interfaces.PlatformAdapter = (*Adapter)(nil)
