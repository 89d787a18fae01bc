package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
)

type stubRunner struct {
	stdout []byte
	stderr []byte
	err    error

	name string
	args []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name = name
	s.args = args
	return s.stdout, s.stderr, s.err
}

func fixedPages(n int) PageCounter {
	return func(string) (int, error) { return n, nil }
}

func TestExtractPDF_Pdftotext(t *testing.T) {
	r := &stubRunner{stdout: []byte("Customer Address\r\nAsha  \n\f\nCustomer Address\nRavi\n\n\n\nPune\f")}
	e := NewExtractor(Config{Pdftotext: "/usr/bin/pdftotext"}, nil, WithRunner(r), WithPageCounter(fixedPages(2)))

	res, err := e.Extract(context.Background(), "labels.PDF")
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/pdftotext", r.name)
	assert.Equal(t, []string{"-enc", "UTF-8", "-eol", "unix", "labels.PDF", "-"}, r.args)
	assert.Equal(t, constants.PDF, res.SourceType)
	assert.Equal(t, MethodPdftotext, res.Method)
	assert.Equal(t, []string{"Customer Address\nAsha", "Customer Address\nRavi\n\nPune"}, res.Pages)
	assert.Empty(t, res.Warnings)

	doc := res.Document("labels.PDF")
	assert.Equal(t, "labels.PDF", doc.Name)
	assert.Len(t, doc.Pages, 2)
}

func TestExtractPDF_LayoutAndLimits(t *testing.T) {
	r := &stubRunner{stdout: []byte("one\ftwo\fthree")}
	e := NewExtractor(Config{Layout: true, MaxPages: 2}, nil, WithRunner(r), WithPageCounter(fixedPages(4)))

	res, err := e.Extract(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdftotext", r.name)
	assert.Contains(t, r.args, "-layout")
	assert.Equal(t, []string{"one", "two"}, res.Pages)
	assert.Len(t, res.Warnings, 2)
}

func TestExtractPDF_Unreadable(t *testing.T) {
	t.Run("probe fails", func(t *testing.T) {
		r := &stubRunner{}
		probe := func(string) (int, error) { return 0, errors.New("not a pdf") }
		e := NewExtractor(Config{}, nil, WithRunner(r), WithPageCounter(probe))

		_, err := e.Extract(context.Background(), "broken.pdf")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrUnreadableSource)
		assert.Empty(t, r.name, "renderer must not run after a failed probe")
	})

	t.Run("renderer fails", func(t *testing.T) {
		r := &stubRunner{stderr: []byte("Syntax Error"), err: errors.New("exit status 1")}
		e := NewExtractor(Config{}, nil, WithRunner(r), WithPageCounter(fixedPages(1)))

		_, err := e.Extract(context.Background(), "broken.pdf")
		assert.ErrorIs(t, err, common.ErrUnreadableSource)
	})

	t.Run("pdfcpu rejects garbage", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "garbage.pdf")
		require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o600))

		e := NewExtractor(Config{}, nil, WithRunner(&stubRunner{}))
		_, err := e.Extract(context.Background(), path)
		assert.ErrorIs(t, err, common.ErrUnreadableSource)
	})
}

func TestExtractPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("page one\fpage two\n"), 0o600))

	e := NewExtractor(Config{}, nil)
	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.TXT, res.SourceType)
	assert.Equal(t, MethodPlainText, res.Method)
	assert.Equal(t, []string{"page one", "page two"}, res.Pages)

	_, err = e.Extract(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, common.ErrUnreadableSource)
}

func TestExtractUnsupported(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	_, err := e.Extract(context.Background(), "scan.png")
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
	assert.NotErrorIs(t, err, common.ErrUnreadableSource)
}

func TestNormalize(t *testing.T) {
	in := "SKU ID | ABC |  Desc  \r\nQTY 1 pc\n\n\n\nHBD: 01 - 02   \n"
	assert.Equal(t, "SKU ID | ABC |  Desc\nQTY 1 pc\n\nHBD: 01 - 02", Normalize(in))
	assert.Equal(t, "", Normalize(""))
}

func writePDF(t *testing.T, pages ...string) string {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 9)
	for _, text := range pages {
		pdf.AddPage()
		pdf.Cell(40, 10, text)
	}
	path := filepath.Join(t.TempDir(), "labels.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

func TestPDFPageCount(t *testing.T) {
	path := writePDF(t, "Customer Address", "Customer Address")
	n, err := PDFPageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestExtractPDF_ProbesRealFile(t *testing.T) {
	path := writePDF(t, "one", "two")
	runner := &stubRunner{stdout: []byte("one\ftwo\f")}
	e := NewExtractor(Config{}, nil, WithRunner(runner))

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, res.Pages)
	assert.Empty(t, res.Warnings)

	runner.stdout = []byte("only one page")
	res, err = e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
}

func TestExecRunner(t *testing.T) {
	r := execRunner{logger: slog.Default()}
	ctx := context.Background()

	out, _, err := r.Run(ctx, "sh", "-c", "printf 'page one\\fpage two'")
	require.NoError(t, err)
	assert.Equal(t, []string{"page one", "page two"}, SplitPages(string(out)))

	_, _, err = r.Run(ctx, "sh", "-c", "echo 'Syntax Error: no trailer' >&2; exit 3")
	var cerr *CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 3, cerr.ExitCode)
	assert.Equal(t, "Syntax Error: no trailer", cerr.Stderr)

	_, _, err = r.Run(ctx, "labels-extractor-no-such-binary")
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, -1, cerr.ExitCode)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}
