package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/core/record"
)

// Batch is the result of processing several files with one extractor.
type Batch struct {
	Outcomes []Outcome
}

// Records concatenates the records of every document in input order.
func (b Batch) Records() []record.Record {
	var out []record.Record
	for _, o := range b.Outcomes {
		out = append(out, o.Records...)
	}
	return out
}

// Status is RunStatusOK when any record was produced, RunStatusFailed when every document
// failed, and RunStatusEmpty otherwise.
func (b Batch) Status() constants.RunStatus {
	failed := 0
	for _, o := range b.Outcomes {
		if len(o.Records) > 0 {
			return constants.RunStatusOK
		}
		if o.Status == constants.RunStatusFailed {
			failed++
		}
	}
	if len(b.Outcomes) > 0 && failed == len(b.Outcomes) {
		return constants.RunStatusFailed
	}
	return constants.RunStatusEmpty
}

// Failed lists the outcomes that ended in an error.
func (b Batch) Failed() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// RunBatch processes paths concurrently and returns their outcomes in input order. A
// document failure is kept in its outcome; only cancellation of ctx stops the batch, and it
// is only observed between documents.
func (p *Processor) RunBatch(ctx context.Context, paths []string) (Batch, error) {
	outcomes := make([]Outcome, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallel)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i], _ = p.ProcessFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}
	p.logger.Info("processor.batch.done", "platform", p.extractor.Platform(), "documents", len(paths))
	return Batch{Outcomes: outcomes}, nil
}
