package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func sessionRows() []RawRow {
	return []RawRow{
		{"clc": "1", "provincia": "Córdoba", "localidad": "Villa María", "total_2022": 80000, "p60_2022": 12000, "pct60_2022": 15},
		{"clc": "2", "provincia": "Córdoba", "localidad": "Bell Ville", "total_2022": 35000, "p60_2022": 6000, "pct60_2022": 17},
		{"clc": "3", "provincia": "Santa Fe", "localidad": "Rafaela", "total_2022": 100000, "p60_2022": 14000, "pct60_2022": 14},
	}
}

func TestSession_BeforeLoad(t *testing.T) {
	s := NewSession(&memSource{}, SessionConfig{})

	if s.Loaded() {
		t.Error("Loaded() = true before any reload")
	}
	if ds := s.Dataset(); ds == nil || ds.Len() != 0 {
		t.Errorf("Dataset() = %v, want empty dataset", ds)
	}
	if got := s.Filter(FilterSpec{Jurisdiction: "Córdoba"}); len(got) != 0 {
		t.Errorf("Filter() = %d records, want 0", len(got))
	}
	if st := s.Aggregate(FilterSpec{}); st.Count != 0 || st.Pct2022 != nil {
		t.Errorf("Aggregate() = %+v, want zero stats", st)
	}
}

func TestSession_Reload(t *testing.T) {
	src := &memSource{rows: sessionRows()}
	s := NewSession(src, SessionConfig{})

	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if !s.Loaded() {
		t.Error("Loaded() = false after reload")
	}
	if s.Dataset().Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Dataset().Len())
	}

	got := ids(s.Filter(FilterSpec{Jurisdiction: "Córdoba"}))
	if !equalIDs(got, []string{"00000001", "00000002"}) {
		t.Errorf("Filter() = %v, want [00000001 00000002]", got)
	}

	st := s.Aggregate(FilterSpec{Jurisdiction: "Córdoba"})
	if st.Count != 2 || st.TotalPop2022 != 115000 {
		t.Errorf("Aggregate() = %+v, want 2 records totalling 115000", st)
	}
}

func TestSession_FailedReloadKeepsDataset(t *testing.T) {
	src := &memSource{rows: sessionRows()}
	s := NewSession(src, SessionConfig{})

	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	gen := s.Dataset().Generation

	src.set(nil, errors.New("disk gone"))
	err := s.Reload(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Reload() error = %v, want ErrSourceUnavailable", err)
	}

	if s.Dataset().Generation != gen {
		t.Errorf("Generation = %q, want %q (previous dataset kept)", s.Dataset().Generation, gen)
	}
	if s.Dataset().Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Dataset().Len())
	}

	st := s.Status()
	if st.LastError == "" {
		t.Error("Status().LastError is empty after a failed reload")
	}
	if st.Records != 3 || st.Source != "memory" {
		t.Errorf("Status() = %+v, want 3 records from memory", st)
	}
}

func TestSession_ReloadPublishesNewGeneration(t *testing.T) {
	src := &memSource{rows: sessionRows()}
	s := NewSession(src, SessionConfig{})
	ctx := context.Background()

	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	spec := FilterSpec{Jurisdiction: "Santa Fe"}
	if got := s.Filter(spec); len(got) != 1 {
		t.Fatalf("Filter() = %d records, want 1", len(got))
	}
	first := s.Dataset().Generation

	rows := append(sessionRows(), RawRow{"clc": "4", "provincia": "Santa Fe", "localidad": "Sunchales", "total_2022": 25000})
	src.set(rows, nil)
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if s.Dataset().Generation == first {
		t.Error("Generation unchanged after successful reload")
	}
	if got := s.Filter(spec); len(got) != 2 {
		t.Errorf("Filter() after reload = %d records, want 2 (stale memo)", len(got))
	}
	if st := s.Status(); st.LastError != "" {
		t.Errorf("Status().LastError = %q, want empty after success", st.LastError)
	}
}

func TestSession_FilterMemo(t *testing.T) {
	s := NewSession(&memSource{rows: sessionRows()}, SessionConfig{CacheTTL: time.Minute})
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	spec := FilterSpec{Pct60: &Range{Min: 15, Max: 20}}
	first := s.Filter(spec)
	second := s.Filter(FilterSpec{Pct60: &Range{Min: 15, Max: 20}})

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Filter() = (%d, %d) records, want (2, 2)", len(first), len(second))
	}
	if &first[0] != &second[0] {
		t.Error("equal specs did not share the memoized result")
	}
	if s.memo.ItemCount() != 1 {
		t.Errorf("memo.ItemCount() = %d, want 1", s.memo.ItemCount())
	}
}

func TestSession_View(t *testing.T) {
	s := NewSession(&memSource{rows: sessionRows()}, SessionConfig{})
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	v, filtered := s.View(FilterSpec{Jurisdiction: "Córdoba"}, "00000002")
	if len(filtered) != 2 {
		t.Errorf("filtered = %d records, want 2", len(filtered))
	}
	if v.Selected == nil || v.Selected.Name != "Bell Ville" {
		t.Errorf("View().Selected = %v, want Bell Ville", v.Selected)
	}
}

func TestSession_ReloadCancelled(t *testing.T) {
	s := NewSession(&memSource{rows: sessionRows()}, SessionConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Reload(ctx); err == nil {
		t.Error("Reload() with cancelled context succeeded")
	}
	if s.Loaded() {
		t.Error("Loaded() = true after cancelled reload")
	}
}

func TestSession_TryReloadBusy(t *testing.T) {
	src := &memSource{rows: sessionRows()}
	s := NewSession(src, SessionConfig{})

	if err := s.limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := s.TryReload(context.Background()); !errors.Is(err, ErrReloadInProgress) {
		t.Errorf("TryReload() while busy = %v, want ErrReloadInProgress", err)
	}
	if src.calls != 0 {
		t.Errorf("source read %d times while busy, want 0", src.calls)
	}
	s.limiter.Release()

	if err := s.TryReload(context.Background()); err != nil {
		t.Fatalf("TryReload() error = %v", err)
	}
	if !s.Loaded() {
		t.Error("Loaded() = false after TryReload")
	}
}

func TestSession_MinPopulation(t *testing.T) {
	s := NewSession(&memSource{}, SessionConfig{Load: LoadOptions{MinPopulation: 5000}})
	if got := s.MinPopulation(); got != 5000 {
		t.Errorf("MinPopulation() = %v, want 5000", got)
	}
	s = NewSession(&memSource{}, SessionConfig{})
	if got := s.MinPopulation(); got != DefaultMinPopulation {
		t.Errorf("MinPopulation() = %v, want %v", got, DefaultMinPopulation)
	}
}

func TestSpecKey(t *testing.T) {
	a := SpecKey(FilterSpec{Jurisdiction: "A", Pct60: &Range{Min: 1, Max: 2}})
	b := SpecKey(FilterSpec{Jurisdiction: "A", Pct60: &Range{Min: 1, Max: 2}})
	c := SpecKey(FilterSpec{Jurisdiction: "A", GrowthPP: &Range{Min: 1, Max: 2}})
	d := SpecKey(FilterSpec{Jurisdiction: "A|", LocalityID: ""})
	e := SpecKey(FilterSpec{Jurisdiction: "A", LocalityID: "|"})

	if a != b {
		t.Errorf("SpecKey differs for equal specs: %q vs %q", a, b)
	}
	if a == c {
		t.Error("SpecKey equal for different ranges")
	}
	if d == e {
		t.Error("SpecKey collides on separator characters")
	}
}

func TestSession_Scheduler(t *testing.T) {
	src := &memSource{rows: sessionRows()}
	s := NewSession(src, SessionConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.StartReloadScheduler(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for !s.Loaded() {
		select {
		case <-deadline:
			cancel()
			t.Fatal("scheduler did not reload within 2s")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestSession_SchedulerDisabled(t *testing.T) {
	s := NewSession(&memSource{}, SessionConfig{})

	done := make(chan struct{})
	go func() {
		s.StartReloadScheduler(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled scheduler did not return")
	}
}
