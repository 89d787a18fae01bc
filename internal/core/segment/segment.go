// Package segment splits the raw text of a rendered document into per-shipment blocks.
//
// The splitters return lazy iter.Seq values in document order. They may be ranged over
// more than once; each pass splits the text again.
package segment

import (
	"iter"
	"regexp"
	"strings"
)

// Block is the text of one shipment, label or invoice unit.
type Block struct {
	// Index is the zero-based position of the block in the document.
	Index int
	// ID is the identifier the block was split on (pattern-delimited splits only).
	ID   string
	Text string
}

// SplitOnMarker yields one block per occurrence of marker. Each block starts with the marker
// and runs up to the next occurrence. Text before the first marker is discarded.
func SplitOnMarker(text, marker string) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		if marker == "" {
			return
		}
		parts := strings.Split(text, marker)
		for i, part := range parts[1:] {
			if !yield(Block{Index: i, Text: marker + part}) {
				return
			}
		}
	}
}

// SplitOnPattern yields one block per match of re. The block text is the matched identifier,
// a newline, then the trimmed text up to the next match.
func SplitOnPattern(text string, re *regexp.Regexp) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		locs := re.FindAllStringIndex(text, -1)
		for i, loc := range locs {
			end := len(text)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			id := strings.TrimSpace(text[loc[0]:loc[1]])
			body := strings.TrimSpace(text[loc[1]:end])
			if !yield(Block{Index: i, ID: id, Text: id + "\n" + body}) {
				return
			}
		}
	}
}

// Pages yields each page as its own block.
func Pages(pages []string) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		for i, p := range pages {
			if !yield(Block{Index: i, Text: p}) {
				return
			}
		}
	}
}
