package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/agingmap/internal/config"
	"github.com/JonMunkholm/agingmap/internal/core"
)

// identifierRegex restricts table names to plain (optionally schema-qualified)
// identifiers, since they are interpolated into the query.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQL reads every row of one table through database/sql. Column names become
// row keys; NULLs are left out; byte values become strings.
type SQL struct {
	driver string // "sqlite" or "mysql"
	dsn    string
	uri    string
	table  string
	query  string
	wait   time.Duration

	once sync.Once
	db   *sql.DB
	err  error
}

// NewSQL returns a source for a sqlite:// or mysql:// URI. The connection is
// opened lazily on the first read.
func NewSQL(format, uri string, opts Options) (*SQL, error) {
	table := opts.table()
	if !identifierRegex.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", core.ErrSourceUnavailable, table)
	}

	s := &SQL{uri: uri, table: table, wait: opts.FetchTimeout}
	switch format {
	case FormatSQLite:
		s.driver = "sqlite"
		s.dsn = trimScheme(uri, "sqlite://", "sqlite3://")
		s.query = "SELECT * FROM " + quoteIdentifier(table, '"')
	case FormatMySQL:
		s.driver = "mysql"
		s.dsn = trimScheme(uri, "mysql://")
		s.query = "SELECT * FROM " + quoteIdentifier(table, '`')
	default:
		return nil, fmt.Errorf("%w: unsupported source format %q", core.ErrSourceUnavailable, format)
	}
	return s, nil
}

// Describe implements core.RowSource. Credentials are masked.
func (s *SQL) Describe() string {
	return s.driver + ":" + config.MaskURI(s.uri) + "#" + s.table
}

// Rows implements core.RowSource.
func (s *SQL) Rows(ctx context.Context) ([]core.RawRow, error) {
	db, err := s.conn()
	if err != nil {
		return nil, unavailable(s.Describe(), err)
	}

	if s.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.wait)
		defer cancel()
	}

	rows, err := db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, unavailable(s.Describe(), fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, unavailable(s.Describe(), err)
	}
	return out, nil
}

// Close closes the underlying connection pool, if open.
func (s *SQL) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQL) conn() (*sql.DB, error) {
	s.once.Do(func() {
		s.db, s.err = sql.Open(s.driver, s.dsn)
		if s.err == nil && s.driver == "sqlite" {
			s.db.SetMaxOpenConns(1)
		}
	})
	return s.db, s.err
}

// scanRows converts every result row to a RawRow keyed by column name.
func scanRows(rows *sql.Rows) ([]core.RawRow, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("decode rows: columns: %w", err)
	}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	var out []core.RawRow
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("decode rows: scan: %w", err)
		}
		row := make(core.RawRow, len(cols))
		for i, c := range cols {
			switch v := vals[i].(type) {
			case nil:
			case []byte:
				row[c] = string(v)
			case time.Time:
				row[c] = v.Format(time.RFC3339)
			default:
				row[c] = v
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return out, nil
}

// quoteIdentifier quotes each dot-separated part of name with q.
func quoteIdentifier(name string, q byte) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = string(q) + p + string(q)
	}
	return strings.Join(parts, ".")
}

func trimScheme(uri string, schemes ...string) string {
	lower := strings.ToLower(uri)
	for _, s := range schemes {
		if strings.HasPrefix(lower, s) {
			return uri[len(s):]
		}
	}
	return uri
}
