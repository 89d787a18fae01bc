package lineitems

import (
	"strings"
)

// Product is the single product descriptor printed on a label.
type Product struct {
	SKU     string
	Size    string
	Qty     string
	Color   string
	OrderNo string
}

// MinTokens is the smallest token stream worth decomposing.
const MinTokens = 5

var columnHeaders = map[string]struct{}{
	"SKU":       {},
	"Size":      {},
	"Qty":       {},
	"Color":     {},
	"Order No.": {},
	"Order No":  {},
}

// ProductLines returns the lines below the first line mentioning "SKU", up to a blank line
// or a line carrying the address or GSTIN marker. Bare column-header lines are skipped.
func ProductLines(block string) []string {
	var out []string
	found := false
	for _, line := range strings.Split(block, "\n") {
		clean := strings.TrimSpace(line)
		if !found {
			found = strings.Contains(clean, "SKU")
			continue
		}
		if clean == "" || strings.Contains(clean, "Customer Address") || strings.Contains(clean, "GSTIN") {
			break
		}
		if _, ok := columnHeaders[clean]; ok {
			continue
		}
		out = append(out, clean)
	}
	return out
}

// Tokens flattens lines into one whitespace-separated token stream.
func Tokens(lines []string) []string {
	var out []string
	for _, l := range lines {
		out = append(out, strings.Fields(l)...)
	}
	return out
}

// Strategy decomposes a token stream by position. It reports false when its shape is not
// present; a decomposition without a SKU counts as not present.
type Strategy func(tokens []string) (Product, bool)

// Strategies returns the decompositions in the order they are tried.
func Strategies() []Strategy {
	return []Strategy{FreeSize, NumericQty, LastFive}
}

// ParseProduct applies the strategies in order and keeps the first result. Streams shorter
// than MinTokens, or that no strategy recognizes, give an empty Product.
func ParseProduct(tokens []string) Product {
	if len(tokens) < MinTokens {
		return Product{}
	}
	for _, s := range Strategies() {
		if p, ok := s(tokens); ok {
			return p
		}
	}
	return Product{}
}

// ProductFromBlock runs ProductLines, Tokens and ParseProduct over a label block.
func ProductFromBlock(block string) Product {
	return ParseProduct(Tokens(ProductLines(block)))
}

// FreeSize handles the two-token size "Free Size": everything before it is the SKU and the
// three tokens after it are qty, color and order number.
func FreeSize(tokens []string) (Product, bool) {
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i] != "Free" || tokens[i+1] != "Size" {
			continue
		}
		p := Product{
			SKU:  strings.Join(tokens[:i], " "),
			Size: "Free Size",
		}
		if rest := tokens[i+2:]; len(rest) >= 3 {
			p.Qty, p.Color, p.OrderNo = rest[0], rest[1], rest[2]
		}
		return p, p.SKU != ""
	}
	return Product{}, false
}

// NumericQty anchors on the first 1–3 digit token that has two tokens before it and two
// after it. The token before the quantity is the size, the two after are color and order
// number, and the tokens ahead of the two preceding the quantity are the SKU. A quantity in
// third position therefore leaves the SKU empty and the stream falls through.
func NumericQty(tokens []string) (Product, bool) {
	for i, tok := range tokens {
		if len(tok) > 3 || !isDigits(tok) {
			continue
		}
		if i < 2 || i+2 >= len(tokens) {
			continue
		}
		p := Product{
			SKU:     strings.Join(tokens[:i-2], " "),
			Size:    tokens[i-1],
			Qty:     tok,
			Color:   tokens[i+1],
			OrderNo: tokens[i+2],
		}
		return p, p.SKU != ""
	}
	return Product{}, false
}

// LastFive reads the tail of a stream of six or more tokens as size, qty, color and an
// order number split over two tokens. The rest is the SKU.
func LastFive(tokens []string) (Product, bool) {
	n := len(tokens)
	if n < 6 {
		return Product{}, false
	}
	return Product{
		SKU:     strings.Join(tokens[:n-5], " "),
		Size:    tokens[n-5],
		Qty:     tokens[n-4],
		Color:   tokens[n-3],
		OrderNo: tokens[n-2] + tokens[n-1],
	}, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
