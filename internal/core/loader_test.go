package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// memSource is an in-memory RowSource for tests.
type memSource struct {
	mu    sync.Mutex
	rows  []RawRow
	err   error
	calls int
}

func (m *memSource) Rows(ctx context.Context) ([]RawRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func (m *memSource) Describe() string { return "memory" }

func (m *memSource) set(rows []RawRow, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows, m.err = rows, err
}

func row(id, prov, name string, total2022 float64) RawRow {
	return RawRow{
		"clc":        id,
		"provincia":  prov,
		"localidad":  name,
		"total_2022": total2022,
	}
}

func TestBuild_Threshold(t *testing.T) {
	rows := []RawRow{
		row("1", "A", "small", 1999),
		row("2", "A", "exact", 2000),
		row("3", "A", "large", 50000),
	}

	tests := []struct {
		name       string
		opts       LoadOptions
		wantIDs    []string
		wantBelow  int
		wantRetain int
	}{
		{"default threshold is inclusive", LoadOptions{}, []string{"00000002", "00000003"}, 1, 2},
		{"custom threshold", LoadOptions{MinPopulation: 10000}, []string{"00000003"}, 2, 1},
		{"negative means default", LoadOptions{MinPopulation: -1}, []string{"00000002", "00000003"}, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := Build(rows, tt.opts)

			if ds.Stats.RowsRead != 3 {
				t.Errorf("RowsRead = %d, want 3", ds.Stats.RowsRead)
			}
			if ds.Stats.BelowThreshold != tt.wantBelow {
				t.Errorf("BelowThreshold = %d, want %d", ds.Stats.BelowThreshold, tt.wantBelow)
			}
			if ds.Stats.Retained != tt.wantRetain {
				t.Errorf("Retained = %d, want %d", ds.Stats.Retained, tt.wantRetain)
			}
			if len(ds.Records) != len(tt.wantIDs) {
				t.Fatalf("len(Records) = %d, want %d", len(ds.Records), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if ds.Records[i].ID != id {
					t.Errorf("Records[%d].ID = %q, want %q", i, ds.Records[i].ID, id)
				}
			}
		})
	}
}

func TestBuild_Index(t *testing.T) {
	ds := Build([]RawRow{
		row("1", "A", "first", 3000),
		row("", "A", "no id", 3000),
		row("1.0", "A", "second", 4000),
		row("2", "B", "other", 5000),
		row("3", "B", "dropped", 100),
	}, LoadOptions{})

	if ds.Len() != 4 {
		t.Errorf("Len() = %d, want 4", ds.Len())
	}
	if ds.IndexLen() != 2 {
		t.Errorf("IndexLen() = %d, want 2", ds.IndexLen())
	}
	if ds.Stats.UnusableIDs != 1 {
		t.Errorf("UnusableIDs = %d, want 1", ds.Stats.UnusableIDs)
	}
	if ds.Stats.DuplicateIDs != 1 {
		t.Errorf("DuplicateIDs = %d, want 1", ds.Stats.DuplicateIDs)
	}

	r, ok := ds.Lookup("00000001")
	if !ok {
		t.Fatal("Lookup(00000001) not found")
	}
	if r.Name != "second" {
		t.Errorf("Lookup(00000001).Name = %q, want %q (last write wins)", r.Name, "second")
	}

	if _, ok := ds.Lookup("00000003"); ok {
		t.Error("Lookup(00000003) found a record below threshold")
	}
	if _, ok := ds.Lookup(""); ok {
		t.Error("Lookup(\"\") should never match")
	}
	if _, ok := ds.Lookup("1"); ok {
		t.Error("Lookup(\"1\") matched an unpadded id; lookups are literal")
	}
	if ds.Generation == "" {
		t.Error("Generation is empty")
	}
}

func TestBuild_Empty(t *testing.T) {
	ds := Build(nil, LoadOptions{})
	if ds.Len() != 0 || ds.IndexLen() != 0 {
		t.Errorf("Build(nil) = %d records, %d indexed, want 0, 0", ds.Len(), ds.IndexLen())
	}
}

func TestDataset_NilSafe(t *testing.T) {
	var ds *Dataset
	if ds.Len() != 0 || ds.IndexLen() != 0 {
		t.Error("nil Dataset should report zero lengths")
	}
	if _, ok := ds.Lookup("00000001"); ok {
		t.Error("nil Dataset Lookup should miss")
	}
}

func TestLoad(t *testing.T) {
	src := &memSource{rows: []RawRow{row("1", "A", "a", 3000)}}

	ds, err := Load(context.Background(), src, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Source != "memory" {
		t.Errorf("Source = %q, want %q", ds.Source, "memory")
	}
	if ds.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ds.Len())
	}
}

func TestLoad_LogsSummaryOnce(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s := NewSession(&memSource{rows: []RawRow{row("1", "A", "a", 3000)}}, SessionConfig{})
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	out := buf.String()
	if n := strings.Count(out, `"msg":"dataset loaded"`); n != 1 {
		t.Errorf("dataset loaded logged %d times, want 1:\n%s", n, out)
	}
	if !strings.Contains(out, `"retained":1`) {
		t.Errorf("summary missing retained count:\n%s", out)
	}
}

func TestLoad_SourceFailure(t *testing.T) {
	cause := errors.New("connection refused")
	src := &memSource{err: cause}

	ds, err := Load(context.Background(), src, LoadOptions{})
	if ds != nil {
		t.Errorf("Load() dataset = %v, want nil on failure", ds)
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Load() error = %v, want ErrSourceUnavailable", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Load() error = %v, want wrapped cause", err)
	}
}

func TestLoad_AlreadyWrapped(t *testing.T) {
	src := &memSource{err: ErrSourceUnavailable}

	_, err := Load(context.Background(), src, LoadOptions{})
	if err != ErrSourceUnavailable {
		t.Errorf("Load() error = %v, want ErrSourceUnavailable unchanged", err)
	}
}
