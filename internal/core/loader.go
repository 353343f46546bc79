package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultMinPopulation is the 2022 population threshold for the working set.
const DefaultMinPopulation = 2000

// ErrSourceUnavailable is returned when the row source cannot be read or decoded.
// A load that fails with it exposes no partial dataset.
var ErrSourceUnavailable = errors.New("source unavailable")

// LoadOptions configures a load.
type LoadOptions struct {
	// MinPopulation is the minimum Total2022 for a record to be retained.
	// Zero means DefaultMinPopulation.
	MinPopulation float64
}

func (o LoadOptions) threshold() float64 {
	if o.MinPopulation <= 0 {
		return DefaultMinPopulation
	}
	return o.MinPopulation
}

// Load reads all rows from src and builds a Dataset from them.
// Only source failures are returned; normalization never fails a load.
func Load(ctx context.Context, src RowSource, opts LoadOptions) (*Dataset, error) {
	start := time.Now()

	rows, err := src.Rows(ctx)
	if err != nil {
		if errors.Is(err, ErrSourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, src.Describe(), err)
	}

	ds := Build(rows, opts)
	ds.Source = src.Describe()

	slog.Info("dataset loaded",
		"source", ds.Source,
		"generation", ds.Generation,
		"rows_read", ds.Stats.RowsRead,
		"retained", ds.Stats.Retained,
		"below_threshold", ds.Stats.BelowThreshold,
		"unusable_ids", ds.Stats.UnusableIDs,
		"duplicate_ids", ds.Stats.DuplicateIDs,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return ds, nil
}

// Build normalizes rows in input order, applies the population threshold and
// indexes the retained records by id. Later rows overwrite earlier ones that
// share an id; records with an empty id stay in Records but are never indexed.
func Build(rows []RawRow, opts LoadOptions) *Dataset {
	minPop := opts.threshold()

	ds := &Dataset{
		Generation: uuid.NewString(),
		LoadedAt:   time.Now(),
		Records:    make([]LocalityRecord, 0, len(rows)),
		Stats:      LoadStats{RowsRead: len(rows)},
	}

	for _, row := range rows {
		rec := Normalize(row)
		if rec.Total2022 < minPop {
			ds.Stats.BelowThreshold++
			continue
		}
		ds.Records = append(ds.Records, rec)
	}
	ds.Stats.Retained = len(ds.Records)

	// Index after thresholding so it never points at a dropped record.
	ds.index = make(map[string]*LocalityRecord, len(ds.Records))
	for i := range ds.Records {
		rec := &ds.Records[i]
		if rec.ID == "" {
			ds.Stats.UnusableIDs++
			continue
		}
		if _, exists := ds.index[rec.ID]; exists {
			ds.Stats.DuplicateIDs++
		}
		ds.index[rec.ID] = rec
	}

	return ds
}
