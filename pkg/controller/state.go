package controller

import (
	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/validation"
)

// Status is the phase of the single-request workflow.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends a submission cycle.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// State is everything a presenter needs: the raw values, inline errors, the
// workflow status and, depending on it, the result or the failure.
type State struct {
	Values  model.FormValues
	Errors  validation.Errors
	Status  Status
	Result  *model.SubmissionResult
	Failure error
}

// Clone copies the maps so the snapshot can leave the controller's lock.
func (s State) Clone() State {
	out := s
	out.Values = s.Values.Clone()
	out.Errors = s.Errors.Clone()
	if s.Result != nil {
		result := *s.Result
		out.Result = &result
	}
	return out
}

// Event is something that happened to the form.
type Event interface {
	event()
}

// FieldChanged records a new raw value for one field.
type FieldChanged struct {
	Name  string
	Value any
}

// SubmitRequested asks for validation and, when it passes, submission.
type SubmitRequested struct{}

// SubmissionSucceeded carries the prediction for the in-flight request.
type SubmissionSucceeded struct {
	Result model.SubmissionResult
}

// SubmissionFailed carries the opaque cause of a failed request.
type SubmissionFailed struct {
	Err error
}

// Reset returns a finished form to editing, keeping the values.
type Reset struct{}

func (FieldChanged) event()        {}
func (SubmitRequested) event()     {}
func (SubmissionSucceeded) event() {}
func (SubmissionFailed) event()    {}
func (Reset) event()               {}

// Command is the side effect a transition asks for. The only one is sending
// the validated record.
type Command struct {
	Record *validation.Record
}

// Reduce applies ev to state. It is pure: the returned State shares nothing
// mutable with the input, and a non-nil Command is returned exactly when the
// transition enters Pending.
func Reduce(schema *model.Schema, state State, ev Event) (State, *Command) {
	next := state.Clone()
	if next.Values == nil {
		next.Values = model.FormValues{}
	}

	switch e := ev.(type) {
	case FieldChanged:
		if next.Status != StatusIdle {
			return next, nil
		}
		next.Values[e.Name] = e.Value
		next.Errors = next.Errors.Without(e.Name)
		return next, nil

	case SubmitRequested:
		if next.Status != StatusIdle {
			return next, nil
		}
		record, errs := validation.Validate(schema, next.Values)
		if len(errs) > 0 {
			next.Errors = errs
			return next, nil
		}
		next.Errors = nil
		next.Status = StatusPending
		return next, &Command{Record: record}

	case SubmissionSucceeded:
		if next.Status != StatusPending {
			return next, nil
		}
		result := e.Result
		next.Status = StatusSuccess
		next.Result = &result
		next.Failure = nil
		return next, nil

	case SubmissionFailed:
		if next.Status != StatusPending {
			return next, nil
		}
		next.Status = StatusError
		next.Result = nil
		next.Failure = e.Err
		return next, nil

	case Reset:
		if !next.Status.Terminal() {
			return next, nil
		}
		next.Status = StatusIdle
		next.Errors = nil
		next.Result = nil
		next.Failure = nil
		return next, nil
	}

	return next, nil
}
