package session

import (
	"fmt"

	"github.com/srg/blekeep/internal/device"
)

// OutcomeKind classifies how an attempt ended.
type OutcomeKind int

const (
	// Completed: the callback ended the loop. The supervisor returns nil.
	Completed OutcomeKind = iota + 1
	// RetryableFailure: connect failure, disconnect, data timeout or an
	// internal connect-timeout abort. The supervisor backs off and retries.
	RetryableFailure
	// Aborted: the caller cancelled. The supervisor returns the error.
	Aborted
	// Fatal: an error outside the session taxonomy, usually raised by the
	// application callback. The supervisor returns it unchanged.
	Fatal
)

func (k OutcomeKind) String() string {
	switch k {
	case Completed:
		return "completed"
	case RetryableFailure:
		return "retry"
	case Aborted:
		return "aborted"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of one attempt.
type Outcome struct {
	Kind OutcomeKind
	// Failure is the taxonomy kind behind a RetryableFailure or Aborted outcome.
	Failure device.FailureKind
	Err     error
	// ResetBackoff is set when the attempt proved the link healthy enough to
	// restart the backoff sequence.
	ResetBackoff bool
}

// classify maps the error returned by Connection.Run to an Outcome.
// callerAborted tells whether the caller's own cancellation fired.
func classify(err error, callerAborted bool) Outcome {
	if err == nil {
		return Outcome{Kind: Completed}
	}

	kind := device.KindOf(err)
	switch {
	case kind == device.Aborted && callerAborted:
		return Outcome{Kind: Aborted, Failure: kind, Err: err}
	case kind != "":
		return Outcome{Kind: RetryableFailure, Failure: kind, Err: err}
	default:
		return Outcome{Kind: Fatal, Err: err}
	}
}
