// Package csv reads delimited text into frames.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"footballdw/internal/config"
	"footballdw/internal/frame"
	"footballdw/internal/transformer/builtin"
)

// ErrNoHeader is returned when the input has no header record.
var ErrNoHeader = errors.New("csv: missing header row")

// Read parses src into a frame named name. The first record is the header.
// All cell values are strings; empty cells become nil.
//
// Options:
//   - comma (rune, default ','): field delimiter.
//   - lazy_quotes (bool, default false): tolerate bare quotes.
//   - trim_space (bool, default false): trim cell values. Off by default so
//     cells stay raw; the transformer trims the columns it types.
//   - header_map (map): rename source headers before use.
//
// Header names are kept as written apart from a leading BOM; the transformer
// owns whitespace normalization of names. Rows shorter than the header are
// padded with nil, longer rows are an error.
func Read(ctx context.Context, src io.Reader, name string, opt config.Options) (*frame.Frame, error) {
	comma := opt.Rune("comma", ',')
	trim := opt.Bool("trim_space", false)
	lazy := opt.Bool("lazy_quotes", false)
	hm := opt.StringMap("header_map")

	cr := csv.NewReader(src)
	cr.Comma = comma
	cr.LazyQuotes = lazy
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", name, ErrNoHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	columns := make([]string, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		key := h
		if builtin.HasEdgeSpace(key) {
			key = strings.TrimSpace(key)
		}
		if mapped, ok := hm[key]; ok {
			h = mapped
		}
		columns[i] = h
	}

	f := frame.New(name, columns)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			return f, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: csv read: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) > len(columns) {
			return nil, fmt.Errorf("%s: line %d: %d fields for %d columns", name, line, len(rec), len(columns))
		}

		vals := make([]any, len(columns))
		for i, v := range rec {
			if trim && builtin.HasEdgeSpace(v) {
				v = strings.TrimSpace(v)
			}
			if v != "" {
				vals[i] = v
			}
		}
		if err := f.Append(line, vals...); err != nil {
			return nil, err
		}
	}
}
