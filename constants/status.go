package constants

// RunStatus is the canonical status for rows in extract_run.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning RunStatus = "RUNNING" // text acquired, extraction in progress
	RunStatusOK      RunStatus = "OK"      // one or more records produced
	RunStatusEmpty   RunStatus = "EMPTY"   // document processed, nothing extractable
	RunStatusFailed  RunStatus = "FAILED"  // source unreadable or export failed
)
