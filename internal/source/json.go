package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/JonMunkholm/agingmap/internal/core"
)

// JSON reads a JSON array of objects. An object wrapping the array under
// "records", "data" or "features" is accepted too; GeoJSON features
// contribute their properties.
//
// Numbers are decoded as json.Number so large codes keep every digit.
type JSON struct {
	open opener
	uri  string
}

// Describe implements core.RowSource.
func (j *JSON) Describe() string { return "json:" + j.uri }

// Rows implements core.RowSource.
func (j *JSON) Rows(ctx context.Context) ([]core.RawRow, error) {
	rc, err := j.open(ctx)
	if err != nil {
		return nil, unavailable(j.Describe(), err)
	}
	defer rc.Close()

	rows, err := decodeJSONRows(newUTF8Sanitizer(skipBOM(rc)))
	if err != nil {
		return nil, unavailable(j.Describe(), err)
	}
	return rows, nil
}

func decodeJSONRows(r io.Reader) ([]core.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("decode rows: empty document")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if data[0] == '[' {
		var items []map[string]any
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		return toRows(items), nil
	}

	var wrapper struct {
		Records  []map[string]any `json:"records"`
		Data     []map[string]any `json:"data"`
		Features []struct {
			Properties map[string]any `json:"properties"`
			BBox       []any          `json:"bbox"`
		} `json:"features"`
	}
	if err := dec.Decode(&wrapper); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	switch {
	case wrapper.Records != nil:
		return toRows(wrapper.Records), nil
	case wrapper.Data != nil:
		return toRows(wrapper.Data), nil
	case wrapper.Features != nil:
		rows := make([]core.RawRow, 0, len(wrapper.Features))
		for _, f := range wrapper.Features {
			row := core.RawRow(f.Properties)
			if row == nil {
				row = core.RawRow{}
			}
			if _, ok := row["bbox"]; !ok && len(f.BBox) == 4 {
				row["bbox"] = f.BBox
			}
			rows = append(rows, row)
		}
		return rows, nil
	default:
		return nil, errors.New("decode rows: expected an array of objects")
	}
}

func toRows(items []map[string]any) []core.RawRow {
	rows := make([]core.RawRow, len(items))
	for i, m := range items {
		if m == nil {
			m = map[string]any{}
		}
		rows[i] = core.RawRow(m)
	}
	return rows
}
