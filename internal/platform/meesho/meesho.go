// Package meesho extracts shipping label rows from Meesho label sheets.
//
// A sheet holds one label per "Customer Address" marker and every label describes a single
// product, so each label becomes exactly one record.
package meesho

import (
	"log/slog"
	"regexp"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/core"
	"github.com/joseph-ayodele/labels-extractor/internal/core/fields"
	"github.com/joseph-ayodele/labels-extractor/internal/core/lineitems"
	"github.com/joseph-ayodele/labels-extractor/internal/core/record"
	"github.com/joseph-ayodele/labels-extractor/internal/core/segment"
)

const (
	ColSKU             = "SKU"
	ColSize            = "Size"
	ColQty             = "Qty"
	ColColor           = "Color"
	ColOrderNo         = "Order No."
	ColOrderDate       = "Order Date"
	ColInvoiceDate     = "Invoice Date"
	ColGSTIN           = "GSTIN"
	ColAWB             = "AWB Number"
	ColPickup          = "Pickup"
	ColCustomerAddress = "Customer Address"
)

// Marker opens every label.
const Marker = "Customer Address"

// Schema is the label column order shared by Meesho and Myntra.
var Schema = record.NewSchema("meesho",
	ColSKU, ColSize, ColQty, ColColor, ColOrderNo, ColOrderDate, ColInvoiceDate,
	ColGSTIN, ColAWB, ColPickup, ColCustomerAddress,
)

// Couriers is the pickup partner whitelist, in priority order.
var Couriers = []string{
	"Delhivery", "XpressBees", "Xpress Bees", "Ecom Express", "Shadowfax",
	"BlueDart", "Blue Dart", "Ekart", "Valmo", "DTDC", "Amazon Transportation",
	"Wow Express", "FedEx", "DHL", "Shiprocket", "Pickrr", "Aramex", "Gati",
	"Professional Couriers", "DTDC Express", "India Post", "Speed Post",
}

const dateToken = `(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`

var (
	orderDate = fields.Chain(
		fields.Date(
			regexp.MustCompile(`(?i)Order\s*Date\s*[:\-]?\s*`+dateToken),
			regexp.MustCompile(`(?i)Order\s*Dt\.?\s*[:\-]?\s*`+dateToken),
			regexp.MustCompile(`(?i)Order\s*Placed\s*On\s*[:\-]?\s*`+dateToken),
			regexp.MustCompile(`(?i)Ordered\s*[:\-]?\s*`+dateToken),
		),
		fields.Date(regexp.MustCompile(`(?i)Dispatch\s+on\s+[:\-]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)),
	)
	invoiceDate = fields.Date(
		regexp.MustCompile(`(?i)Invoice\s*Date\s*[:\-]?\s*`+dateToken),
		regexp.MustCompile(`(?i)Invoice\s*Dt\.?\s*[:\-]?\s*`+dateToken),
		regexp.MustCompile(`(?i)Invoice\s*Generated\s*On\s*[:\-]?\s*`+dateToken),
		regexp.MustCompile(`(?i)Inv\.\s*Date\s*[:\-]?\s*`+dateToken),
	)
	gstin   = fields.Capture(regexp.MustCompile(`(?i)GSTIN\s*[:\-]?\s*([0-9A-Z]{15})`))
	awb     = fields.Chain(awbCandidates()...)
	pickup  = fields.Courier(Couriers...)
	address = fields.AddressFrom(regexp.MustCompile(
		`(?is)Customer Address\s*\n(.+?)(?:If undelivered, return to:|Prepaid|Invoice|TAX INVOICE|Order No\.|SKU|GSTIN)`))
)

// awbCandidates lists the labelled AWB forms from most to least specific, then the
// label-free search.
func awbCandidates() []fields.Matcher {
	var out []fields.Matcher
	for _, label := range []string{
		`AWB\s*(?:No\.?|Number)?`,
		`Tracking\s*(?:No\.?|ID)?`,
		`(?:AWB|Tracking|Waybill|Docket|LR)\s*(?:No\.?|Number|ID)?`,
	} {
		out = append(out, fields.LabeledAWB(label)...)
	}
	return append(out, fields.StandaloneAWB())
}

type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

func (e *Extractor) Platform() constants.Platform { return constants.Meesho }

func (e *Extractor) Schema() record.Schema { return Schema }

// Extract yields one record per label, even when nothing but the marker was found.
func (e *Extractor) Extract(doc core.Document) core.Result {
	var res core.Result
	for b := range segment.SplitOnMarker(doc.Text(), Marker) {
		res.Blocks++
		f := Fields(b.Text)
		e.logger.Debug("extract.block.ok",
			"platform", constants.Meesho,
			"document", doc.Name,
			"block", b.Index,
			"sku", f[ColSKU],
			"awb", f[ColAWB])
		res.Records = append(res.Records, record.Single(Schema, f))
	}
	return res
}

// Fields extracts one label.
func Fields(text string) record.Fields {
	p := lineitems.ProductFromBlock(text)
	f := record.Fields{
		ColSKU:         p.SKU,
		ColSize:        p.Size,
		ColQty:         p.Qty,
		ColColor:       p.Color,
		ColOrderNo:     p.OrderNo,
		ColOrderDate:   fields.Value(text, orderDate),
		ColInvoiceDate: fields.Value(text, invoiceDate),
		ColGSTIN:       fields.Value(text, gstin),
		ColAWB:         fields.Value(text, awb),
		ColPickup:      fields.Value(text, pickup),
	}
	if addr, ok := address(text); ok {
		f[ColCustomerAddress] = addr.Full()
	}
	return f
}
