// Package export serializes extracted records into downloadable files.
package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/core/record"
)

// Sheet is the worksheet the rows are written to.
const Sheet = "Sheet1"

const maxColWidth = 60

// Service produces XLSX or JSON bytes for a set of records of one schema.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Write serializes records in the given format (common.FormatXLSX or common.FormatJSON).
func (s *Service) Write(ctx context.Context, format string, schema record.Schema, recs []record.Record) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch format {
	case common.FormatXLSX:
		return s.XLSX(schema, recs)
	case common.FormatJSON:
		return s.JSON(schema, recs)
	default:
		return nil, fmt.Errorf("%w: export format %q", common.ErrInvalidInput, format)
	}
}

// XLSX writes a workbook with a header row in schema order and one row per record.
func (s *Service) XLSX(schema record.Schema, recs []record.Record) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	cols := schema.Columns()
	widths := make([]int, len(cols))
	for i, h := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(Sheet, cell, h); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
		widths[i] = len(h)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(cols), 1)
		_ = f.SetCellStyle(Sheet, "A1", last, bold)
	}

	for r, rec := range recs {
		if rec.Schema().Name() != schema.Name() {
			return nil, fmt.Errorf("%w: record %d has schema %q, want %q", common.ErrInvalidInput, r, rec.Schema().Name(), schema.Name())
		}
		for c, v := range rec.Values() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			// Written as strings so identifiers and amounts keep their printed form.
			if err := f.SetCellStr(Sheet, cell, v); err != nil {
				return nil, fmt.Errorf("xlsx cell %s: %w", cell, err)
			}
			widths[c] = max(widths[c], len(v))
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(Sheet, col, col, float64(min(w+2, maxColWidth)))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"schema", schema.Name(),
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// Filename is the download name for an export made at t, e.g.
// amazon_invoice_20240105_141500.xlsx or meesho_labels_20240105_141500.json.
func Filename(p constants.Platform, t time.Time, format string) string {
	kind := "labels"
	if p == constants.Amazon {
		kind = "invoice"
	}
	return fmt.Sprintf("%s_%s_%s.%s", p.Slug(), kind, t.Format("20060102_150405"), format)
}

// Save writes records to dir under Filename(p, t, format) and returns the path written.
// An existing file is never overwritten; a numeric suffix is added instead.
func (s *Service) Save(ctx context.Context, dir, format string, p constants.Platform, schema record.Schema, recs []record.Record, t time.Time) (string, error) {
	content, err := s.Write(ctx, format, schema, recs)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := Filename(p, t, format)
	base := strings.TrimSuffix(name, "."+format)
	for i := 0; ; i++ {
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			name = fmt.Sprintf("%s_%d.%s", base, i+1, format)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := f.Write(content); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", path, err)
		}
		s.logger.Info("export.saved", "path", path, "rows", len(recs))
		return path, nil
	}
}
