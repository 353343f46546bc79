package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/agingmap/internal/core"
)

// candidateDelimiters are tried in order when sniffing the header line.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// CSV reads a delimited text file with a header row. The delimiter is sniffed
// from the header unless Delimiter is set. Values stay strings; empty cells
// are left out of the row so they read as absent.
type CSV struct {
	Encoding  string
	Delimiter rune

	open opener
	uri  string
}

// Describe implements core.RowSource.
func (c *CSV) Describe() string { return "csv:" + c.uri }

// Rows implements core.RowSource.
func (c *CSV) Rows(ctx context.Context) ([]core.RawRow, error) {
	rc, err := c.open(ctx)
	if err != nil {
		return nil, unavailable(c.Describe(), err)
	}
	defer rc.Close()

	rows, err := c.parse(rc)
	if err != nil {
		return nil, unavailable(c.Describe(), err)
	}
	return rows, nil
}

func (c *CSV) parse(r io.Reader) ([]core.RawRow, error) {
	text, err := decodeText(r, c.Encoding)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(text)
	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if strings.TrimSpace(first) == "" {
		return nil, errors.New("decode rows: missing header row")
	}

	delim := c.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(first)
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(first), br))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("decode rows: header: %w", err)
	}
	columns := makeHeader(header)

	var rows []core.RawRow
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}

		row := make(core.RawRow, len(columns))
		for i, cell := range record {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			if strings.TrimSpace(cell) == "" {
				continue
			}
			if _, dup := row[columns[i]]; dup {
				continue
			}
			row[columns[i]] = cell
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// makeHeader trims header cells. Blank headers become "" and are skipped.
func makeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.Trim(h, `"`))
	}
	return out
}

// sniffDelimiter picks the candidate that occurs most often outside quotes in
// the header line. Ties go to the earlier candidate; no candidate means ','.
func sniffDelimiter(line string) rune {
	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}
