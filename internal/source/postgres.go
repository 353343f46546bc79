package source

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/agingmap/internal/config"
	"github.com/JonMunkholm/agingmap/internal/core"
)

// Postgres reads every row of one table as row_to_json, so numeric, text and
// json columns all arrive in the shapes the normalizer expects.
type Postgres struct {
	uri   string
	table string
	query string
	opts  Options

	once sync.Once
	pool *pgxpool.Pool
	err  error
}

// NewPostgres returns a source for a postgres:// URI. The pool is created
// lazily on the first read.
func NewPostgres(uri string, opts Options) (*Postgres, error) {
	table := opts.table()
	if !identifierRegex.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", core.ErrSourceUnavailable, table)
	}
	return &Postgres{
		uri:   uri,
		table: table,
		query: "SELECT row_to_json(t) FROM " + quoteIdentifier(table, '"') + " t",
		opts:  opts,
	}, nil
}

// Describe implements core.RowSource. Credentials are masked.
func (p *Postgres) Describe() string {
	return "postgres:" + config.MaskURI(p.uri) + "#" + p.table
}

// Rows implements core.RowSource.
func (p *Postgres) Rows(ctx context.Context) ([]core.RawRow, error) {
	pool, err := p.connect(ctx)
	if err != nil {
		return nil, unavailable(p.Describe(), err)
	}

	if p.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.FetchTimeout)
		defer cancel()
	}

	rows, err := pool.Query(ctx, p.query)
	if err != nil {
		return nil, unavailable(p.Describe(), fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	var out []core.RawRow
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, unavailable(p.Describe(), fmt.Errorf("decode rows: scan: %w", err))
		}
		row, err := decodeJSONObject(raw)
		if err != nil {
			return nil, unavailable(p.Describe(), err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(p.Describe(), fmt.Errorf("decode rows: %w", err))
	}
	return out, nil
}

// Close closes the pool, if open.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) connect(ctx context.Context) (*pgxpool.Pool, error) {
	p.once.Do(func() {
		cfg, err := pgxpool.ParseConfig(p.uri)
		if err != nil {
			p.err = fmt.Errorf("parse database URL: %w", err)
			return
		}

		po := p.opts.Pool
		if po.MaxConns > 0 {
			cfg.MaxConns = po.MaxConns
		}
		if po.MinConns > 0 {
			cfg.MinConns = po.MinConns
		}
		if po.MaxConnLifetime > 0 {
			cfg.MaxConnLifetime = po.MaxConnLifetime
		}
		if po.MaxConnIdleTime > 0 {
			cfg.MaxConnIdleTime = po.MaxConnIdleTime
		}

		p.pool, p.err = pgxpool.NewWithConfig(ctx, cfg)
	})
	return p.pool, p.err
}

// decodeJSONObject decodes one row_to_json value, keeping numbers exact.
func decodeJSONObject(raw []byte) (core.RawRow, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var row core.RawRow
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if row == nil {
		row = core.RawRow{}
	}
	return row, nil
}
