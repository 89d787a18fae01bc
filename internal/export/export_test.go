package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/core/record"
)

var labels = record.NewSchema("labels", "SKU", "Qty", "AWB Number", "Customer Address")

func sampleRecords() []record.Record {
	return []record.Record{
		labels.New(record.Fields{"SKU": "ABC-RED", "Qty": "2", "AWB Number": "1490810673698592"}),
		labels.New(record.Fields{"SKU": "XYZ", "Customer Address": "Asha, Pune"}),
	}
}

func TestXLSX(t *testing.T) {
	svc := NewService(nil)
	data, err := svc.XLSX(labels, sampleRecords())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	cell := func(ref string) string {
		v, err := f.GetCellValue(Sheet, ref)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "SKU", cell("A1"))
	assert.Equal(t, "Qty", cell("B1"))
	assert.Equal(t, "AWB Number", cell("C1"))
	assert.Equal(t, "Customer Address", cell("D1"))

	assert.Equal(t, "ABC-RED", cell("A2"))
	assert.Equal(t, "2", cell("B2"))
	assert.Equal(t, "1490810673698592", cell("C2"))
	assert.Equal(t, "", cell("D2"))
	assert.Equal(t, "XYZ", cell("A3"))
	assert.Equal(t, "Asha, Pune", cell("D3"))

	rows, err := f.GetRows(Sheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestXLSX_HeaderOnly(t *testing.T) {
	data, err := NewService(nil).XLSX(labels, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(Sheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, labels.Columns(), rows[0])
}

func TestXLSX_MixedSchemas(t *testing.T) {
	other := record.NewSchema("other", "SKU")
	recs := append(sampleRecords(), other.New())
	_, err := NewService(nil).XLSX(labels, recs)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestJSON(t *testing.T) {
	data, err := NewService(nil).JSON(labels, sampleRecords())
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "labels", doc.Schema)
	assert.Equal(t, labels.Columns(), doc.Columns)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, map[string]string{
		"SKU":              "ABC-RED",
		"Qty":              "2",
		"AWB Number":       "1490810673698592",
		"Customer Address": "",
	}, doc.Rows[0])
}

func TestValidateJSON(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		data := []byte(`{"schema":"labels","columns":[],"rows":[{"SKU":"A","Qty":"1","AWB Number":""}]}`)
		assert.Error(t, ValidateJSON(labels, data))
	})
	t.Run("unknown column", func(t *testing.T) {
		data := []byte(`{"schema":"labels","columns":[],"rows":[{"SKU":"A","Qty":"1","AWB Number":"","Customer Address":"","Extra":""}]}`)
		assert.Error(t, ValidateJSON(labels, data))
	})
	t.Run("wrong schema name", func(t *testing.T) {
		data := []byte(`{"schema":"amazon","columns":[],"rows":[]}`)
		assert.Error(t, ValidateJSON(labels, data))
	})
	t.Run("valid", func(t *testing.T) {
		data := []byte(`{"schema":"labels","columns":["SKU"],"rows":[{"SKU":"A","Qty":"1","AWB Number":"","Customer Address":""}]}`)
		assert.NoError(t, ValidateJSON(labels, data))
	})
}

func TestWrite(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	x, err := svc.Write(ctx, common.FormatXLSX, labels, sampleRecords())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(x, []byte("PK")), "xlsx is a zip archive")

	j, err := svc.Write(ctx, common.FormatJSON, labels, sampleRecords())
	require.NoError(t, err)
	assert.True(t, json.Valid(j))

	_, err = svc.Write(ctx, "csv", labels, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.Write(cancelled, common.FormatXLSX, labels, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 1, 5, 14, 15, 0, 0, time.UTC)
	assert.Equal(t, "amazon_invoice_20240105_141500.xlsx", Filename(constants.Amazon, at, common.FormatXLSX))
	assert.Equal(t, "flipkart_labels_20240105_141500.xlsx", Filename(constants.Flipkart, at, common.FormatXLSX))
	assert.Equal(t, "meesho_labels_20240105_141500.json", Filename(constants.Meesho, at, common.FormatJSON))
	assert.Equal(t, "myntra_labels_20240105_141500.xlsx", Filename(constants.Myntra, at, common.FormatXLSX))
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	svc := NewService(nil)
	at := time.Date(2024, 1, 5, 14, 15, 0, 0, time.UTC)

	first, err := svc.Save(context.Background(), dir, common.FormatJSON, constants.Meesho, labels, sampleRecords(), at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "meesho_labels_20240105_141500.json"), first)

	second, err := svc.Save(context.Background(), dir, common.FormatJSON, constants.Meesho, labels, sampleRecords(), at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "meesho_labels_20240105_141500_1.json"), second)

	raw, err := os.ReadFile(first)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Len(t, doc.Rows, 2)

	_, err = svc.Save(context.Background(), dir, "csv", constants.Meesho, labels, sampleRecords(), at)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
