package export

import "github.com/pkg/errors"

var (
	// ErrSourceNotFound means the source file was missing at submission
	// time. Nothing is persisted or queued.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrStoreUnavailable means the transfer store could not be reached.
	ErrStoreUnavailable = errors.New("transfer store unavailable")

	// ErrQueueUnavailable means the task could not be published after the
	// transfer record was created. The record stays pending and shows up in
	// the stale-pending query until an operator resubmits.
	ErrQueueUnavailable = errors.New("task queue unavailable")
)
