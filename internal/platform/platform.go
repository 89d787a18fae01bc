// Package platform maps platform names to their extractors.
package platform

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/core"
	"github.com/joseph-ayodele/labels-extractor/internal/platform/amazon"
	"github.com/joseph-ayodele/labels-extractor/internal/platform/flipkart"
	"github.com/joseph-ayodele/labels-extractor/internal/platform/meesho"
	"github.com/joseph-ayodele/labels-extractor/internal/platform/myntra"
)

// New returns the extractor for p.
func New(p constants.Platform, logger *slog.Logger) (core.Extractor, error) {
	switch p {
	case constants.Amazon:
		return amazon.New(logger), nil
	case constants.Flipkart:
		return flipkart.New(logger), nil
	case constants.Meesho:
		return meesho.New(logger), nil
	case constants.Myntra:
		return myntra.New(logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedPlatform, p)
	}
}

// Lookup resolves user input such as "meesho" or "FK" to an extractor.
func Lookup(name string, logger *slog.Logger) (core.Extractor, error) {
	p, ok := constants.Canonicalize(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedPlatform, name)
	}
	return New(p, logger)
}

// All returns one extractor per supported platform, in constants.Platforms order.
func All(logger *slog.Logger) []core.Extractor {
	out := make([]core.Extractor, 0, len(constants.Platforms()))
	for _, p := range constants.Platforms() {
		ex, _ := New(p, logger)
		out = append(out, ex)
	}
	return out
}
