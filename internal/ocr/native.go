package ocr

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// NativeSource reads the text layer of a PDF without external tools. Text is rebuilt row
// by row, so reading order follows the page's visual rows.
type NativeSource struct {
	logger *slog.Logger
}

func NewNativeSource(logger *slog.Logger) *NativeSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeSource{logger: logger}
}

// Pages returns one normalized string per page. Pages without content are kept as "".
func (s *NativeSource) Pages(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			s.logger.Warn("render.native.page_failed", "path", path, "page", i, "error", err)
			pages = append(pages, "")
			continue
		}
		var b strings.Builder
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, w := range row.Content {
				words = append(words, w.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteByte('\n')
		}
		pages = append(pages, Normalize(b.String()))
	}
	return pages, nil
}
