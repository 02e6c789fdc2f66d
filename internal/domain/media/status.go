package media

import "fmt"

// Status is the media processing state.
type Status string

const (
	// StatusPending is the initial state after submission.
	StatusPending Status = "pending"
	// StatusProcessing means the indexer is working on the item.
	StatusProcessing Status = "processing"
	// StatusDone means chunks are committed.
	StatusDone Status = "done"
	// StatusFailed means ingestion failed; errorMessage carries the reason.
	StatusFailed Status = "failed"
)

// IsValid checks if the status is a known state.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDone, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status is done or failed.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// canTransition encodes the state machine:
// pending -> processing -> {done, failed}; done/failed -> processing (re-ingestion).
// No transition skips processing.
func (s Status) canTransition(to Status) bool {
	switch to {
	case StatusProcessing:
		return s == StatusPending || s.IsTerminal()
	case StatusDone, StatusFailed:
		return s == StatusProcessing
	case StatusPending:
		return false
	}
	return false
}

func transitionError(from, to Status) error {
	return fmt.Errorf("illegal status transition %s -> %s", from, to)
}
