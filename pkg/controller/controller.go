// Package controller owns the form workflow: the current values, their
// validation errors and the submission status. All changes go through Reduce;
// the Controller adds locking, runs the submission side effect and fans
// transitions out to observers.
package controller

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/validation"
)

// Submitter performs the network call for a validated record.
type Submitter interface {
	Submit(ctx context.Context, record *validation.Record) (model.SubmissionResult, error)
}

// Observer is called after every transition with the old and new state.
// Observers run in transition order and may read the controller, but must not
// block for long.
type Observer func(prev, next State)

// Metrics receives workflow counters.
type Metrics interface {
	ValidationFailed(field string)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a transition observer.
func WithObserver(observer Observer) Option {
	return func(c *Controller) {
		if observer != nil {
			c.observers = append(c.observers, observer)
		}
	}
}

// WithMetrics records validation failures.
func WithMetrics(metrics Metrics) Option {
	return func(c *Controller) {
		c.metrics = metrics
	}
}

// WithValues seeds the form before the first event.
func WithValues(values model.FormValues) Option {
	return func(c *Controller) {
		c.state.Values = values.Clone()
	}
}

// Controller is the single owner of one form's State.
type Controller struct {
	schema    *model.Schema
	submitter Submitter
	logger    *zap.Logger
	metrics   Metrics
	observers []Observer

	mu    sync.Mutex
	state State
	done  chan struct{}

	// notifyMu is taken before mu is released so observers see transitions
	// in the order they were applied.
	notifyMu sync.Mutex
}

// New builds a Controller in the Idle state.
func New(schema *model.Schema, submitter Submitter, options ...Option) *Controller {
	c := &Controller{
		schema:    schema,
		submitter: submitter,
		logger:    zap.NewNop(),
		state:     State{Values: model.FormValues{}, Status: StatusIdle},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Schema returns the schema the controller validates against.
func (c *Controller) Schema() *model.Schema { return c.schema }

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Set records one raw field value. It has no effect outside Idle.
func (c *Controller) Set(name string, value any) State {
	next, _ := c.dispatch(FieldChanged{Name: name, Value: value})
	return next
}

// SetValues records several raw values in field-name order.
func (c *Controller) SetValues(values model.FormValues) State {
	var next State
	for _, name := range values.Keys() {
		next = c.Set(name, values[name])
	}
	if len(values) == 0 {
		return c.State()
	}
	return next
}

// Submit validates the current values. On failure the state stays Idle with
// errors. On success it moves to Pending and starts exactly one submission in
// the background using ctx; the call returns without waiting. Calling Submit
// while Pending (or after the cycle ended) does nothing.
func (c *Controller) Submit(ctx context.Context) State {
	next, cmd := c.dispatch(SubmitRequested{})
	if cmd == nil {
		return next
	}
	go c.run(ctx, cmd)
	return next
}

// Wait blocks until the current cycle leaves Pending or ctx ends. It returns
// immediately when nothing is in flight.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	c.mu.Lock()
	done := c.done
	pending := c.state.Status == StatusPending
	c.mu.Unlock()

	if !pending || done == nil {
		return c.State(), nil
	}
	select {
	case <-done:
		return c.State(), nil
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}

// Reset moves a finished form back to Idle keeping its values.
func (c *Controller) Reset() State {
	next, _ := c.dispatch(Reset{})
	return next
}

func (c *Controller) run(ctx context.Context, cmd *Command) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	var ev Event
	func() {
		defer func() {
			if r := recover(); r != nil {
				ev = SubmissionFailed{Err: fmt.Errorf("controller: submitter panicked: %v", r)}
			}
		}()
		result, err := c.submitter.Submit(ctx, cmd.Record)
		if err != nil {
			ev = SubmissionFailed{Err: err}
			return
		}
		ev = SubmissionSucceeded{Result: result}
	}()

	c.dispatch(ev)
	if done != nil {
		close(done)
	}
}

func (c *Controller) dispatch(ev Event) (State, *Command) {
	c.mu.Lock()
	prev := c.state
	next, cmd := Reduce(c.schema, prev, ev)
	if cmd != nil && c.submitter == nil {
		next.Status = StatusError
		next.Failure = fmt.Errorf("controller: no submitter configured")
		cmd = nil
	}
	c.state = next
	if cmd != nil {
		c.done = make(chan struct{})
	}
	snapshotPrev, snapshotNext := prev.Clone(), next.Clone()

	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	c.record(ev, snapshotPrev, snapshotNext)
	for _, observer := range c.observers {
		observer(snapshotPrev, snapshotNext)
	}
	return snapshotNext, cmd
}

func (c *Controller) record(ev Event, prev, next State) {
	if _, ok := ev.(SubmitRequested); ok && len(next.Errors) > 0 && c.metrics != nil {
		for _, field := range next.Errors.Fields() {
			c.metrics.ValidationFailed(field)
		}
	}
	if prev.Status == next.Status {
		return
	}
	fields := []zap.Field{
		zap.Stringer("from", prev.Status),
		zap.Stringer("to", next.Status),
	}
	if next.Status == StatusError && next.Failure != nil {
		fields = append(fields, zap.Error(next.Failure))
	}
	c.logger.Debug("form transition", fields...)
}
