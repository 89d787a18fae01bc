// Package core defines the document and extractor contracts shared by the platform drivers
// and the surfaces that run them.
package core

import (
	"strings"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/core/record"
)

// Document is the rendered text of one source file, one string per page.
type Document struct {
	Name  string
	Pages []string
}

// Text joins the pages with a newline.
func (d Document) Text() string {
	return strings.Join(d.Pages, "\n")
}

// Result is what an extractor produced for one document.
type Result struct {
	Records []record.Record
	Blocks  int
}

// Empty reports the "no data extracted" condition.
func (r Result) Empty() bool { return len(r.Records) == 0 }

// Extractor turns document text into records of one platform's schema. Implementations
// hold only compiled patterns and are safe for concurrent use.
type Extractor interface {
	Platform() constants.Platform
	Schema() record.Schema
	Extract(doc Document) Result
}
