package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/ocr"
	"github.com/joseph-ayodele/labels-extractor/internal/platform"
)

// Set holds one Processor per supported platform, all sharing a renderer and run store.
type Set struct {
	procs map[constants.Platform]*Processor
}

func NewSet(source ocr.TextSource, logger *slog.Logger, opts ...Option) *Set {
	s := &Set{procs: make(map[constants.Platform]*Processor)}
	for _, ex := range platform.All(logger) {
		s.procs[ex.Platform()] = NewProcessor(source, ex, logger, opts...)
	}
	return s
}

// For returns the processor of p.
func (s *Set) For(p constants.Platform) (*Processor, error) {
	proc, ok := s.procs[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedPlatform, p)
	}
	return proc, nil
}

// Lookup resolves user input such as "meesho" or "fk" to a processor.
func (s *Set) Lookup(name string) (*Processor, error) {
	p, ok := constants.Canonicalize(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedPlatform, name)
	}
	return s.For(p)
}
