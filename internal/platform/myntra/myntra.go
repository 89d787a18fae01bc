// Package myntra extracts shipping label rows from Myntra label sheets. The layout follows
// Meesho's: one label per "Customer Address" marker, one product per label.
package myntra

import (
	"log/slog"
	"regexp"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/core"
	"github.com/joseph-ayodele/labels-extractor/internal/core/fields"
	"github.com/joseph-ayodele/labels-extractor/internal/core/lineitems"
	"github.com/joseph-ayodele/labels-extractor/internal/core/record"
	"github.com/joseph-ayodele/labels-extractor/internal/core/segment"
	"github.com/joseph-ayodele/labels-extractor/internal/platform/meesho"
)

// Schema has the same columns as Meesho's.
var Schema = record.NewSchema("myntra", meesho.Schema.Columns()...)

// Couriers is the pickup partner whitelist, in priority order.
var Couriers = []string{"Delhivery", "XpressBees", "Ekart", "Ecom Express", "Shadowfax", "DTDC", "Blue Dart"}

var (
	orderDate = fields.Date(
		regexp.MustCompile(`(?i)Order\s*Date\s*[:\-]?\s*(\d{2}/\d{2}/\d{4})`),
		regexp.MustCompile(`(?i)Dispatch\s*on\s*(\d{2}-\d{2}-\d{4})`),
	)
	invoiceDate = fields.Date(regexp.MustCompile(`(?i)Invoice\s*Date\s*[:\-]?\s*(\d{2}/\d{2}/\d{4})`))
	gstin       = fields.Capture(regexp.MustCompile(`GSTIN\s*[:\-]?\s*([0-9A-Z]{15})`))
	awb         = fields.Capture(regexp.MustCompile(`(?i)(?:AWB|Tracking)\s*(?:No\.?|Number)?[:\-]?\s*([A-Z0-9]{8,20})`))
	pickup      = fields.Courier(Couriers...)
	address     = fields.AddressFrom(regexp.MustCompile(
		`(?is)Customer Address\s*\n(.+?)(?:If undelivered|Prepaid|Invoice|Order|SKU)`))
)

type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

func (e *Extractor) Platform() constants.Platform { return constants.Myntra }

func (e *Extractor) Schema() record.Schema { return Schema }

func (e *Extractor) Extract(doc core.Document) core.Result {
	var res core.Result
	for b := range segment.SplitOnMarker(doc.Text(), meesho.Marker) {
		res.Blocks++
		f := Fields(b.Text)
		e.logger.Debug("extract.block.ok", "platform", constants.Myntra, "document", doc.Name, "block", b.Index)
		res.Records = append(res.Records, record.Single(Schema, f))
	}
	return res
}

// Fields extracts one label.
func Fields(text string) record.Fields {
	p := lineitems.ProductFromBlock(text)
	f := record.Fields{
		meesho.ColSKU:         p.SKU,
		meesho.ColSize:        p.Size,
		meesho.ColQty:         p.Qty,
		meesho.ColColor:       p.Color,
		meesho.ColOrderNo:     p.OrderNo,
		meesho.ColOrderDate:   fields.Value(text, orderDate),
		meesho.ColInvoiceDate: fields.Value(text, invoiceDate),
		meesho.ColGSTIN:       fields.Value(text, gstin),
		meesho.ColAWB:         fields.Value(text, awb),
		meesho.ColPickup:      fields.Value(text, pickup),
	}
	if addr, ok := address(text); ok {
		f[meesho.ColCustomerAddress] = addr.Full()
	}
	return f
}
