package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/agingmap/internal/metrics"
	"github.com/patrickmn/go-cache"
)

// SessionConfig holds Session settings. Zero values fall back to defaults.
type SessionConfig struct {
	Load         LoadOptions
	ReloadWait   time.Duration // how long Reload waits for a running reload
	CacheTTL     time.Duration // lifetime of memoized filter results (default: 10m)
	CacheCleanup time.Duration // expired-entry sweep interval (default: 20m)
}

// SessionStatus is a snapshot of the session for health checks.
type SessionStatus struct {
	Generation  string    `json:"generation,omitempty"`
	Source      string    `json:"source"`
	Records     int       `json:"records"`
	Indexed     int       `json:"indexed"`
	LoadedAt    time.Time `json:"loaded_at,omitzero"`
	Stats       LoadStats `json:"load_stats"`
	LastError   string    `json:"last_error,omitempty"`
	LastAttempt time.Time `json:"last_attempt,omitzero"`
}

// Session owns the current dataset and serves filter and aggregate requests
// over it. FilterEngine and Aggregator stay pure; the session only decides
// which dataset they run over.
//
// The dataset is published through an atomic pointer and replaced wholesale
// on reload, so readers never see a partially built record set. Before the
// first successful load the session serves an empty dataset.
type Session struct {
	source  RowSource
	cfg     SessionConfig
	limiter *ReloadLimiter

	current atomic.Pointer[Dataset]

	// Memoized filter results, keyed by dataset generation and spec.
	memo *cache.Cache

	mu          sync.Mutex
	lastErr     error
	lastAttempt time.Time
}

// NewSession creates a session over src. It does not load; call Reload.
func NewSession(src RowSource, cfg SessionConfig) *Session {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.CacheCleanup <= 0 {
		cfg.CacheCleanup = 2 * cfg.CacheTTL
	}

	s := &Session{
		source:  src,
		cfg:     cfg,
		limiter: NewReloadLimiter(DefaultMaxConcurrentReloads, cfg.ReloadWait),
		memo:    cache.New(cfg.CacheTTL, cfg.CacheCleanup),
	}
	s.current.Store(emptyDataset())
	return s
}

// Reload loads the source and publishes the result. On failure the previously
// published dataset stays in place and the error is returned.
func (s *Session) Reload(ctx context.Context) error {
	if err := s.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer s.limiter.Release()
	return s.reload(ctx)
}

// TryReload is Reload without waiting: if another reload holds the slot it
// returns ErrReloadInProgress immediately.
func (s *Session) TryReload(ctx context.Context) error {
	if !s.limiter.TryAcquire() {
		return ErrReloadInProgress
	}
	defer s.limiter.Release()
	return s.reload(ctx)
}

func (s *Session) reload(ctx context.Context) error {
	start := time.Now()
	ds, err := Load(ctx, s.source, s.cfg.Load)

	s.mu.Lock()
	s.lastAttempt = start
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		metrics.RecordLoad(time.Since(start), metrics.LoadCounts{}, err)
		return err
	}

	s.current.Store(ds)
	s.memo.Flush()

	metrics.RecordLoad(time.Since(start), metrics.LoadCounts{
		Read:           ds.Stats.RowsRead,
		Retained:       ds.Stats.Retained,
		BelowThreshold: ds.Stats.BelowThreshold,
		UnusableIDs:    ds.Stats.UnusableIDs,
		DuplicateIDs:   ds.Stats.DuplicateIDs,
	}, nil)
	return nil
}

// Dataset returns the currently published dataset. Never nil.
func (s *Session) Dataset() *Dataset {
	return s.current.Load()
}

// MinPopulation returns the threshold the session loads with.
func (s *Session) MinPopulation() float64 {
	return s.cfg.Load.threshold()
}

// Filter applies spec to the current dataset. The returned slice may be shared
// with other callers and must not be modified.
func (s *Session) Filter(spec FilterSpec) []LocalityRecord {
	return s.filter(s.Dataset(), spec)
}

// Aggregate returns stats for the subset of the current dataset matching spec.
func (s *Session) Aggregate(spec FilterSpec) AggregateStats {
	return Aggregate(s.Filter(spec))
}

// View resolves the panel contents for spec and an optional selected id.
// The filtered subset is returned alongside so callers can render it.
func (s *Session) View(spec FilterSpec, selectedID string) (View, []LocalityRecord) {
	ds := s.Dataset()
	filtered := s.filter(ds, spec)
	return BuildView(ds, filtered, spec, selectedID), filtered
}

// Status returns a snapshot for health checks.
func (s *Session) Status() SessionStatus {
	ds := s.Dataset()

	s.mu.Lock()
	lastErr, lastAttempt := s.lastErr, s.lastAttempt
	s.mu.Unlock()

	st := SessionStatus{
		Generation:  ds.Generation,
		Source:      s.source.Describe(),
		Records:     ds.Len(),
		Indexed:     ds.IndexLen(),
		LoadedAt:    ds.LoadedAt,
		Stats:       ds.Stats,
		LastAttempt: lastAttempt,
	}
	if lastErr != nil {
		st.LastError = lastErr.Error()
	}
	return st
}

// Loaded reports whether at least one load has succeeded.
func (s *Session) Loaded() bool {
	return s.Dataset().Generation != ""
}

// WaitForReloads blocks until running reloads finish, for graceful shutdown.
func (s *Session) WaitForReloads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Session) filter(ds *Dataset, spec FilterSpec) []LocalityRecord {
	if spec.IsZero() {
		return ds.Records
	}

	key := ds.Generation + "|" + SpecKey(spec)
	if v, ok := s.memo.Get(key); ok {
		metrics.RecordFilter(true, 0)
		return v.([]LocalityRecord)
	}

	start := time.Now()
	out := Apply(ds.Records, spec)
	metrics.RecordFilter(false, time.Since(start))

	s.memo.Set(key, out, cache.DefaultExpiration)
	return out
}

// SpecKey returns a canonical string for spec, equal for equal specs.
func SpecKey(spec FilterSpec) string {
	var b strings.Builder
	b.WriteString(strconv.Quote(spec.Jurisdiction))
	b.WriteByte('|')
	b.WriteString(strconv.Quote(spec.LocalityID))
	for _, r := range []*Range{spec.Population, spec.Pct60, spec.GrowthPP} {
		b.WriteByte('|')
		if r == nil {
			b.WriteByte('*')
			continue
		}
		fmt.Fprintf(&b, "%g,%g", r.Min, r.Max)
	}
	return b.String()
}
