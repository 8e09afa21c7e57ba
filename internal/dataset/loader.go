// Package dataset loads a dataset version file into ordered string-keyed
// records plus headers, the row representation the profiler and execution
// engine consume.
package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/fetcher"
)

// Record is one parsed row keyed by header name. Values are raw strings;
// semantic typing happens once, in the profiler.
type Record map[string]string

// Table is a fully loaded dataset snapshot.
type Table struct {
	Headers []string
	Rows    []Record
}

// LoadOptions configures dataset loading.
type LoadOptions struct {
	Delimiter rune   // CSV only; default ','
	Charset   string // CSV only; IANA name, "" = UTF-8
	SheetName string // XLSX only; "" = first sheet
}

// Load reads a CSV or XLSX dataset file (by extension) into a Table. The
// first row is treated as the header. Rows shorter than the header are padded
// with empty strings; extra cells are dropped.
func Load(ctx context.Context, path string, opts LoadOptions) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadXLSX(ctx, path, opts)
	case ".csv", ".tsv", ".txt":
		return loadCSV(ctx, path, opts)
	default:
		return nil, eris.Errorf("dataset: unsupported file extension %q", filepath.Ext(path))
	}
}

func loadCSV(ctx context.Context, path string, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	delim := opts.Delimiter
	if delim == 0 && strings.EqualFold(filepath.Ext(path), ".tsv") {
		delim = '\t'
	}

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{
		Delimiter: delim,
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
		Charset:   opts.Charset,
	})

	var raw [][]string
	for row := range rowCh {
		raw = append(raw, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	var headers []string
	select {
	case headers = <-headerCh:
	default:
		return nil, eris.Errorf("dataset: %s has no header row", path)
	}

	return buildTable(path, headers, raw)
}

func loadXLSX(ctx context.Context, path string, opts LoadOptions) (*Table, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamXLSX(ctx, path, fetcher.XLSXOptions{
		SheetName: opts.SheetName,
		SkipRows:  1,
		HeaderCh:  headerCh,
	})

	var raw [][]string
	for row := range rowCh {
		raw = append(raw, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	var headers []string
	select {
	case headers = <-headerCh:
	default:
		return nil, eris.Errorf("dataset: %s has no header row", path)
	}

	return buildTable(path, headers, raw)
}

// buildTable normalizes rows to the header width. Short rows pad with empty
// strings; a row carrying data beyond the header is rejected, because
// dropping cells would silently corrupt whichever column they belonged to.
func buildTable(path string, headers []string, raw [][]string) (*Table, error) {
	rows := make([]Record, 0, len(raw))
	var padded int
	for n, cells := range raw {
		if len(cells) > len(headers) {
			for _, extra := range cells[len(headers):] {
				if strings.TrimSpace(extra) != "" {
					return nil, eris.Errorf("dataset: %s data row %d has %d cells but the header has %d columns",
						path, n+1, len(cells), len(headers))
				}
			}
		}
		rec := make(Record, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				rec[h] = cells[i]
			} else {
				rec[h] = ""
			}
		}
		if len(cells) < len(headers) {
			padded++
		}
		rows = append(rows, rec)
	}

	if padded > 0 {
		zap.L().Warn("dataset: short rows padded to header width",
			zap.String("path", path),
			zap.Int("padded_rows", padded),
			zap.Int("total_rows", len(rows)),
		)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}
