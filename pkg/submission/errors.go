package submission

import (
	"errors"
	"fmt"
)

// ErrSubmissionFailed matches every failed prediction request regardless of
// cause. Presenters only ever need this; the wrapped cause is for logs.
var ErrSubmissionFailed = errors.New("submission: prediction request failed")

// Stage names where a submission failed.
type Stage string

const (
	StageEncode    Stage = "encode"
	StageTransport Stage = "transport"
	StageStatus    Stage = "status"
	StageDecode    Stage = "decode"
	StageContract  Stage = "contract"
)

// Error carries the cause of a failed submission.
type Error struct {
	Stage      Stage
	StatusCode int
	RequestID  string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("submission: %s failed (status %d): %v", e.Stage, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submission: %s failed: %v", e.Stage, e.Err)
}

// Unwrap exposes the cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports true for ErrSubmissionFailed.
func (e *Error) Is(target error) bool { return target == ErrSubmissionFailed }
