package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labels-extractor/constants"
)

// Run is one processed source document, as kept in the run history.
type Run struct {
	ID         uuid.UUID           `json:"id"`
	Platform   constants.Platform  `json:"platform"`
	Source     string              `json:"source"`
	Format     string              `json:"format"`
	Status     constants.RunStatus `json:"status"`
	RowCount   int                 `json:"row_count"`
	Message    string              `json:"message,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// Done reports whether the run reached a terminal status.
func (r Run) Done() bool {
	return r.Status != constants.RunStatusRunning && r.Status != ""
}
