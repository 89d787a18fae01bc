package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/labels-extractor/constants"
)

// ErrClosed is returned by Enqueue once Shutdown has started.
var ErrClosed = errors.New("queue is shutting down")

// Job asks for one file to be extracted with one platform's rules.
type Job struct {
	Path        string
	Platform    constants.Platform
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
