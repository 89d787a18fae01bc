// Package amazon extracts tax invoice rows from Amazon seller invoices. Every page is an
// invoice of its own and yields one record per item row.
package amazon

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
	ColOrderID       = "Order ID"
	ColOrderDate     = "Order Date"
	ColInvoiceNo     = "Invoice No"
	ColInvoiceDate   = "Invoice Date"
	ColBuyerName     = "Buyer Name"
	ColAddress       = "Address"
	ColPincode       = "Pincode"
	ColGSTIN         = "GSTIN"
	ColAWB           = "AWB Number"
	ColPickupPartner = "Pickup Partner"
	ColWeight        = "Weight"
	ColSINo          = "SI No"
	ColDescription   = "Description"
	ColUnitPrice     = "Unit Price"
	ColDiscount      = "Discount"
	ColQty           = "Qty"
	ColNetAmount     = "Net Amount"
	ColTaxRate       = "Tax Rate"
	ColTaxType       = "Tax Type"
	ColTaxAmount     = "Tax Amount"
	ColTotalAmount   = "Total Amount"
)

// PickupPartner is fixed: Amazon ships its own orders.
const PickupPartner = "Amazon Transportation"

// Schema is the Amazon invoice column order.
var Schema = record.NewSchema("amazon",
	ColOrderID, ColOrderDate, ColInvoiceNo, ColInvoiceDate, ColBuyerName, ColAddress,
	ColPincode, ColGSTIN, ColAWB, ColPickupPartner, ColWeight, ColSINo, ColDescription,
	ColUnitPrice, ColDiscount, ColQty, ColNetAmount, ColTaxRate, ColTaxType, ColTaxAmount,
	ColTotalAmount,
)

var (
	reOrderID     = regexp.MustCompile(`Order Number:\s*(\d{3}-\d{7}-\d{7})`)
	reInvoiceNo   = regexp.MustCompile(`Invoice Number\s*:\s*([A-Z0-9\-]+)`)
	reOrderDate   = regexp.MustCompile(`Order Date:\s*(\d{2}\.\d{2}\.\d{4})`)
	reInvoiceDate = regexp.MustCompile(`Invoice Date\s*:\s*(\d{2}\.\d{2}\.\d{4})`)
	reGSTIN       = regexp.MustCompile(`GST Registration No:\s*([A-Z0-9]+)`)
	reAWB         = regexp.MustCompile(`\bAWB\s+([A-Z0-9]{10,})`)
	reWeight      = regexp.MustCompile(`(?i)\b(?:Weight|Wt\.?)\s*[:\-]?\s*(\d+\.?\d*)\s*(?:kg|kgs)`)
	reShipping    = regexp.MustCompile(`(?s)Shipping Address\s*:\s*(.*?)(?:Place of supply:|State/UT Code:|\z)`)
)

var (
	orderID     = fields.Capture(reOrderID)
	invoiceNo   = fields.Capture(reInvoiceNo)
	orderDate   = fields.Date(reOrderDate)
	invoiceDate = fields.Date(reInvoiceDate)
	gstin       = fields.Capture(reGSTIN)
	awb         = fields.Capture(reAWB)
	weight      = fields.Capture(reWeight)
	shipping    = fields.AddressFrom(reShipping)
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

func (e *Extractor) Platform() constants.Platform { return constants.Amazon }

func (e *Extractor) Schema() record.Schema { return Schema }

// Extract reads every page as one invoice. A page without item rows contributes nothing.
func (e *Extractor) Extract(doc core.Document) core.Result {
	var res core.Result
	for b := range segment.Pages(doc.Pages) {
		res.Blocks++
		items := Items(b.Text)
		recs := record.Assemble(Schema, Scalars(b.Text), items)
		e.logger.Debug("extract.block.ok",
			"platform", constants.Amazon,
			"document", doc.Name,
			"block", b.Index,
			"rows", len(recs))
		res.Records = append(res.Records, recs...)
	}
	return res
}

// Scalars extracts the invoice-level fields of one page.
func Scalars(text string) record.Fields {
	f := record.Fields{
		ColOrderID:       fields.Value(text, orderID),
		ColOrderDate:     fields.Value(text, orderDate),
		ColInvoiceNo:     fields.Value(text, invoiceNo),
		ColInvoiceDate:   fields.Value(text, invoiceDate),
		ColGSTIN:         fields.Value(text, gstin),
		ColAWB:           fields.Value(text, awb),
		ColWeight:        fields.Value(text, weight),
		ColPickupPartner: PickupPartner,
	}
	if addr, ok := fields.FirstAddress(text, shipping); ok {
		split := fields.SplitPincode(addr.Raw())
		f[ColBuyerName] = addr.Name
		f[ColAddress] = split.Address
		f[ColPincode] = split.Pincode
	}
	return f
}

// Items extracts the item table rows of one page.
func Items(text string) []record.Fields {
	rows := lineitems.InvoiceRows(text)
	out := make([]record.Fields, 0, len(rows))
	for _, r := range rows {
		out = append(out, record.Fields{
			ColSINo:        r.SINo,
			ColDescription: r.Description,
			ColUnitPrice:   r.UnitPrice,
			ColDiscount:    r.Discount,
			ColQty:         r.Qty,
			ColNetAmount:   r.NetAmount,
			ColTaxRate:     r.TaxRate,
			ColTaxType:     r.TaxType,
			ColTaxAmount:   r.TaxAmount,
			ColTotalAmount: r.TotalAmount,
		})
	}
	return out
}
