// Package lineitems recovers product rows from block text that has no explicit column
// delimiters.
package lineitems

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/labels-extractor/internal/core/fields"
)

// ZeroAmount stands in for a discount the invoice does not print. Amounts are kept in the
// invoice's own digit format, without the currency sign.
const ZeroAmount = "0.00"

// InvoiceRow is one row of a tax invoice item table.
type InvoiceRow struct {
	SINo        string
	Description string
	UnitPrice   string
	Discount    string
	Qty         string
	NetAmount   string
	TaxRate     string
	TaxType     string
	TaxAmount   string
	TotalAmount string
}

// The fixed part of a row: catalog id "| B0XXXXXXXX ( sku )", "HSN:nnnn", then the amount
// columns in print order.
var reRowTail = regexp.MustCompile(
	`\|\s*B0\w+\s*\([^)]+\)\s*` +
		`HSN:\d+\s*` +
		`₹([\d,]+\.\d{2})\s*` + // unit price
		`(?:-₹([\d,]+\.\d{2})\s*)?` + // discount
		`(\d+)\s*` + // qty
		`₹([\d,]+\.\d{2})\s*` + // net amount
		`(\d+(?:\.\d+)?%)\s*` + // tax rate
		`(IGST|CGST|SGST)\s*` +
		`₹([\d,]+\.\d{2})\s*` + // tax amount
		`₹([\d,]+\.\d{2})`, // total amount
)

// A serial number opening a line; the description follows it.
var reRowHead = regexp.MustCompile(`(?m)^[ \t]*(\d{1,3})\s+`)

// A serial number anywhere in running text, for rows printed inline after other text.
var reInlineHead = regexp.MustCompile(`(?:^|\s)(\d{1,3})\s+`)

// InvoiceRows returns every well-formed item row in text, in text order.
//
// Each row is anchored on its fixed tail. The serial number is searched for between the
// previous row and that tail: the last line opened by the expected next serial number wins,
// else the last line opened by any serial number. When no line opens with a serial the
// same preference is applied to whitespace-bounded numbers. Everything from there to the
// tail is the description.
func InvoiceRows(text string) []InvoiceRow {
	var rows []InvoiceRow
	prev, want := 0, 1
	for _, m := range reRowTail.FindAllStringSubmatchIndex(text, -1) {
		seg := text[prev:m[0]]
		prev = m[1]
		head := rowHead(seg, want)
		if head == nil {
			continue
		}
		group := func(i int) string {
			if m[2*i] < 0 {
				return ""
			}
			return text[m[2*i]:m[2*i+1]]
		}
		discount := group(2)
		if discount == "" {
			discount = ZeroAmount
		}
		si := seg[head[2]:head[3]]
		rows = append(rows, InvoiceRow{
			SINo:        si,
			Description: fields.Fold(seg[head[1]:]),
			UnitPrice:   group(1),
			Discount:    discount,
			Qty:         group(3),
			NetAmount:   group(4),
			TaxRate:     group(5),
			TaxType:     group(6),
			TaxAmount:   group(7),
			TotalAmount: group(8),
		})
		if n, err := strconv.Atoi(si); err == nil {
			want = n + 1
		}
	}
	return rows
}

func rowHead(seg string, want int) []int {
	heads := reRowHead.FindAllStringSubmatchIndex(seg, -1)
	if len(heads) == 0 {
		heads = reInlineHead.FindAllStringSubmatchIndex(seg, -1)
	}
	if len(heads) == 0 {
		return nil
	}
	wantStr := strconv.Itoa(want)
	for i := len(heads) - 1; i >= 0; i-- {
		h := heads[i]
		if strings.TrimLeft(seg[h[2]:h[3]], "0") == wantStr {
			return h
		}
	}
	return heads[len(heads)-1]
}
