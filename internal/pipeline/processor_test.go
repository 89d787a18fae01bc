package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/core"
	"github.com/joseph-ayodele/labels-extractor/internal/ocr"
	"github.com/joseph-ayodele/labels-extractor/internal/platform/meesho"
	"github.com/joseph-ayodele/labels-extractor/internal/repository"
)

// mapSource serves page texts keyed by path; paths it does not know are unreadable.
type mapSource struct {
	mu    sync.Mutex
	pages map[string][]string
	calls []string
}

func (s *mapSource) Extract(_ context.Context, path string) (ocr.ExtractionResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, path)
	s.mu.Unlock()
	pages, ok := s.pages[path]
	if !ok {
		return ocr.ExtractionResult{}, common.Unreadable(path, errors.New("corrupt"))
	}
	return ocr.ExtractionResult{Pages: pages, SourceType: constants.PDF}, nil
}

func label(sku, order string) string {
	return "Customer Address\nAsha Rao\nPune 411001\nIf undelivered, return to:\nShop\n" +
		"SKU Size Qty Color Order No.\n" + sku + " Free Size 1 Red " + order + "\n\n" +
		"Delhivery\nAWB Number: 1490810673698592\n"
}

func newSource() *mapSource {
	return &mapSource{pages: map[string][]string{
		"one.pdf":   {label("A-1", "111")},
		"two.pdf":   {label("B-1", "221") + label("B-2", "222")},
		"blank.pdf": {"TAX INVOICE\nnothing here"},
	}}
}

func TestProcessFile(t *testing.T) {
	p := NewProcessor(newSource(), meesho.New(nil), nil)

	t.Run("ok", func(t *testing.T) {
		out, err := p.ProcessFile(context.Background(), "two.pdf")
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusOK, out.Status)
		assert.Equal(t, 2, out.Rows())
		assert.Equal(t, 2, out.Blocks)
		assert.Equal(t, "2 rows extracted", out.Message)
		assert.Equal(t, "B-1", out.Records[0].Get(meesho.ColSKU))
		assert.Equal(t, "B-2", out.Records[1].Get(meesho.ColSKU))
		assert.Equal(t, "two.pdf: OK, 2 rows extracted", out.Summary())
	})

	t.Run("empty", func(t *testing.T) {
		out, err := p.ProcessFile(context.Background(), "blank.pdf")
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusEmpty, out.Status)
		assert.Equal(t, MsgNoData, out.Message)
		assert.Zero(t, out.Rows())
	})

	t.Run("unreadable", func(t *testing.T) {
		out, err := p.ProcessFile(context.Background(), "corrupt.pdf")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrUnreadableSource)
		assert.Equal(t, constants.RunStatusFailed, out.Status)
		assert.ErrorIs(t, out.Err, common.ErrUnreadableSource)
		assert.True(t, strings.HasPrefix(out.Summary(), "corrupt.pdf: FAILED"))
	})
}

func TestProcessDocument(t *testing.T) {
	p := NewProcessor(newSource(), meesho.New(nil), nil)
	out := p.ProcessDocument(context.Background(), core.Document{Name: "pasted", Pages: []string{label("C-1", "9")}})
	assert.Equal(t, constants.RunStatusOK, out.Status)
	assert.Equal(t, 1, out.Rows())
	assert.Equal(t, "C-1", out.Records[0].Get(meesho.ColSKU))
}

func TestRunBatch_OrderAndIsolation(t *testing.T) {
	src := newSource()
	p := NewProcessor(src, meesho.New(nil), nil, WithParallelism(3))

	paths := []string{"two.pdf", "corrupt.pdf", "blank.pdf", "one.pdf"}
	batch, err := p.RunBatch(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, batch.Outcomes, 4)

	for i, o := range batch.Outcomes {
		assert.Equal(t, paths[i], o.Source)
	}
	assert.Equal(t, constants.RunStatusFailed, batch.Outcomes[1].Status)
	assert.Len(t, batch.Failed(), 1)

	var skus []string
	for _, r := range batch.Records() {
		skus = append(skus, r.Get(meesho.ColSKU))
	}
	assert.Equal(t, []string{"B-1", "B-2", "A-1"}, skus)
	assert.Equal(t, constants.RunStatusOK, batch.Status())
	assert.ElementsMatch(t, paths, src.calls)
}

func TestRunBatch_Status(t *testing.T) {
	p := NewProcessor(newSource(), meesho.New(nil), nil)

	b, err := p.RunBatch(context.Background(), []string{"blank.pdf", "corrupt.pdf"})
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusEmpty, b.Status())

	b, err = p.RunBatch(context.Background(), []string{"x.pdf", "y.pdf"})
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusFailed, b.Status())

	assert.Equal(t, constants.RunStatusEmpty, Batch{}.Status())
}

func TestRunBatch_Cancelled(t *testing.T) {
	src := newSource()
	p := NewProcessor(src, meesho.New(nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.RunBatch(ctx, []string{"one.pdf", "two.pdf"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, src.calls)
}

func TestProcessFile_RecordsHistory(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	defer db.Close()
	runs := repository.NewRunRepository(db, nil)

	p := NewProcessor(newSource(), meesho.New(nil), nil, WithRunStore(runs))
	ok, _ := p.ProcessFile(ctx, "two.pdf")
	failed, _ := p.ProcessFile(ctx, "corrupt.pdf")

	got, err := runs.Get(ctx, ok.RunID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusOK, got.Status)
	assert.Equal(t, 2, got.RowCount)
	assert.Equal(t, constants.Meesho, got.Platform)
	assert.Equal(t, constants.PDF, got.Format)

	got, err = runs.Get(ctx, failed.RunID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusFailed, got.Status)
	assert.Contains(t, got.Message, "corrupt")

	recent, err := runs.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
