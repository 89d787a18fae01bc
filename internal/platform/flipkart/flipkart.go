// Package flipkart extracts shipping label rows from Flipkart label sheets. Labels are
// delimited by their order id and carry a single product each.
package flipkart

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/core"
	"github.com/joseph-ayodele/labels-extractor/internal/core/fields"
	"github.com/joseph-ayodele/labels-extractor/internal/core/record"
	"github.com/joseph-ayodele/labels-extractor/internal/core/segment"
)

const (
	ColOrderID       = "Order ID"
	ColSKU           = "SKU ID"
	ColDescription   = "Description"
	ColQty           = "QTY"
	ColPrintData     = "Print Data"
	ColPickupPartner = "Pickup Partner"
	ColHBD           = "HBD"
	ColCPD           = "CPD"
	ColAWB           = "AWB No."
	ColGSTIN         = "GSTIN"
	ColAddress       = "Shipping/Customer address"
	ColPincode       = "Pincode"
)

// PickupPartner is fixed: Flipkart labels are handed to its own courier.
const PickupPartner = "Ekart Logistics"

// Schema is the Flipkart label column order.
var Schema = record.NewSchema("flipkart",
	ColOrderID, ColSKU, ColDescription, ColQty, ColPrintData, ColPickupPartner,
	ColHBD, ColCPD, ColAWB, ColGSTIN, ColAddress, ColPincode,
)

// OrderIDPattern delimits labels on a sheet.
var OrderIDPattern = regexp.MustCompile(`OD\d{17,20}`)

var (
	reSKUDesc  = regexp.MustCompile(`(?is)SKU ID\s*\|\s*(.+?)\s*\|\s*(.+?)(?:\n|$|\s{2,})`)
	reSKULabel = regexp.MustCompile(`(?i)SKU ID\s*[:=]\s*(.+?)(?:\||\n|\r|\s{2,})`)
	reDescOnly = regexp.MustCompile(`(?is)(?:Description\s*[:=]?\s*|SKU ID\s*\|\s*.+?\|\s*)(.+?)` +
		`(?:\n\s*QTY|\n\s*FMPC|\n\s*FMPP|\n\s*Tax|\n\s*Order\s*Id:|\n\s*AWB\s*No\.?|\n\s*HBD:|\n\s*CPD:|$)`)
	reSKUNoise  = regexp.MustCompile(`(?i)(?:description\s*)?QTY\s*\d+\s*`)
	reQty       = regexp.MustCompile(`(?i)QTY\s*(\d+)`)
	reHBD       = regexp.MustCompile(`(?i)HBD:\s*(\d{2}\s*-\s*\d{2})`)
	reCPD       = regexp.MustCompile(`(?i)CPD:\s*(\d{2}\s*-\s*\d{2})`)
	reAWB       = regexp.MustCompile(`(?i)AWB\s*No\.?\s*([A-Z0-9]+)`)
	reGSTIN     = regexp.MustCompile(`(?i)GSTIN:\s*([A-Z0-9]+)`)
	rePrintedAt = regexp.MustCompile(`(?i)Printed at\s+\d{3,4}\s*hrs,\s*(\d{2}/\d{2}/\d{2})`)
	reAddress   = regexp.MustCompile(`(?is)Shipping/Customer address:\s*Name:\s*(.+?)\n(.*?)(?:HBD:|Sold By:|GSTIN:)`)
	reAddrShort = regexp.MustCompile(`(?is)Shipping/Customer address:\s*Name:\s*(.+?)(?:\n\n|\n\s*HBD:|\n\s*Sold By:|\n\s*GSTIN:)`)
)

var (
	qty       = fields.Capture(reQty)
	hbd       = fields.Map(fields.Capture(reHBD), stripSpaces)
	cpd       = fields.Map(fields.Capture(reCPD), stripSpaces)
	awb       = fields.Capture(reAWB)
	gstin     = fields.Capture(reGSTIN)
	printedAt = fields.Capture(rePrintedAt)
	address   = []fields.AddressMatcher{fields.AddressFrom(reAddress), fields.AddressFrom(reAddrShort)}
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

func (e *Extractor) Platform() constants.Platform { return constants.Flipkart }

func (e *Extractor) Schema() record.Schema { return Schema }

// Extract splits the sheet on order ids and keeps labels that name an order or a SKU.
func (e *Extractor) Extract(doc core.Document) core.Result {
	var res core.Result
	for b := range segment.SplitOnPattern(doc.Text(), OrderIDPattern) {
		res.Blocks++
		f := Fields(b.ID, b.Text)
		if f[ColOrderID] == "" && f[ColSKU] == "" {
			e.logger.Debug("extract.block.skipped", "platform", constants.Flipkart, "document", doc.Name, "block", b.Index)
			continue
		}
		e.logger.Debug("extract.block.ok", "platform", constants.Flipkart, "document", doc.Name, "block", b.Index, "order_id", b.ID)
		res.Records = append(res.Records, record.Single(Schema, f))
	}
	return res
}

// Fields extracts one label. orderID is the identifier the block was split on.
func Fields(orderID, text string) record.Fields {
	sku, desc := skuAndDescription(text)
	f := record.Fields{
		ColOrderID:       orderID,
		ColSKU:           sku,
		ColDescription:   desc,
		ColQty:           fields.Value(text, qty),
		ColPrintData:     fields.Value(text, printedAt),
		ColPickupPartner: PickupPartner,
		ColHBD:           fields.Value(text, hbd),
		ColCPD:           fields.Value(text, cpd),
		ColAWB:           fields.Value(text, awb),
		ColGSTIN:         fields.Value(text, gstin),
	}
	if addr, ok := fields.FirstAddress(text, address...); ok {
		split := fields.SplitPincode(addr.Full())
		f[ColAddress] = split.Address
		f[ColPincode] = split.Pincode
	}
	return f
}

// skuAndDescription reads the "SKU ID | sku | description" row, falling back to separately
// labelled SKU and description lines.
func skuAndDescription(text string) (sku, desc string) {
	if m := reSKUDesc.FindStringSubmatch(text); m != nil {
		return cleanSKU(m[1]), fields.Fold(m[2])
	}
	if m := reSKULabel.FindStringSubmatch(text); m != nil {
		sku = cleanSKU(m[1])
	}
	if m := reDescOnly.FindStringSubmatch(text); m != nil {
		desc = fields.Fold(m[1])
		if sku != "" && strings.HasPrefix(desc, sku) {
			desc = strings.TrimSpace(strings.TrimPrefix(desc, sku))
			desc = strings.TrimSpace(strings.TrimPrefix(desc, "|"))
		}
	}
	return sku, desc
}

func cleanSKU(s string) string {
	return strings.TrimSpace(reSKUNoise.ReplaceAllString(strings.TrimSpace(s), ""))
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
