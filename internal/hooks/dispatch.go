package hooks

import (
	"context"
	"fmt"
	"time"

	"github.com/HendryAvila/hoofy-hooks/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Outcome is how one hook invocation settled. Err is nil on success.
type Outcome struct {
	Name     string
	Result   Result
	Err      error
	Duration time.Duration
}

// PanicError wraps a value a hook panicked with.
type PanicError struct {
	Hook  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("hook %s panicked: %v", e.Hook, e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Settle invokes every hook in reg exactly once, each in its own
// goroutine, and waits until all of them have settled. Outcomes are in
// registration order. A failing hook never cancels its siblings.
func Settle(ctx context.Context, in *Input, reg *Registry) []Outcome {
	entries := reg.snapshot()
	outcomes := make([]Outcome, len(entries))

	var g errgroup.Group
	for i, e := range entries {
		g.Go(func() error {
			outcomes[i] = invoke(ctx, e, in)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func invoke(ctx context.Context, e entry, in *Input) (out Outcome) {
	out.Name = e.name
	start := time.Now()
	defer func() {
		if v := recover(); v != nil {
			out.Result = Result{}
			out.Err = &PanicError{Hook: e.name, Value: v}
		}
		out.Duration = time.Since(start)
	}()

	res, err := e.fn(ctx, in)
	out.Result = res
	if err != nil {
		out.Err = fmt.Errorf("hook %s: %w", e.name, err)
	}
	return out
}

// Dispatcher runs one lifecycle event's hooks.
type Dispatcher struct {
	event    string
	registry *Registry
	log      logging.Sink
}

// NewDispatcher creates a Dispatcher for event over reg.
func NewDispatcher(event string, reg *Registry, sink logging.Sink) *Dispatcher {
	if sink == nil {
		sink = logging.Nop()
	}
	return &Dispatcher{event: event, registry: reg, log: sink}
}

// Event is the lifecycle event name.
func (d *Dispatcher) Event() string { return d.event }

// Registry is the hook set this Dispatcher runs.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch runs every registered hook concurrently and returns
// SilentSuccess once all of them have settled. Individual results are
// discarded; failures are logged at warn.
//
// If ctx ends first Dispatch returns without waiting. Hooks still running
// keep going in the background and their outcomes are not logged.
func (d *Dispatcher) Dispatch(ctx context.Context, in *Input) Result {
	done := make(chan []Outcome, 1)
	go func() { done <- Settle(ctx, in, d.registry) }()

	select {
	case outcomes := <-done:
		failed := 0
		for _, o := range outcomes {
			if o.Err == nil {
				continue
			}
			failed++
			d.log.Log(o.Name, "hook failed", logging.LevelWarn,
				zap.String("event", d.event), zap.Error(o.Err), zap.Duration("duration", o.Duration))
		}
		d.log.Log("dispatcher", "event settled", logging.LevelDebug,
			zap.String("event", d.event), zap.Int("hooks", len(outcomes)), zap.Int("failed", failed))
	case <-ctx.Done():
		d.log.Log("dispatcher", "event timed out before all hooks settled", logging.LevelWarn,
			zap.String("event", d.event), zap.Error(ctx.Err()))
	}
	return SilentSuccess()
}

// RunOne runs a single hook with the same isolation as Dispatch and
// returns that hook's own result, normalized. A failed hook yields
// SilentSuccess together with the failure; an unknown name yields
// ErrUnknownHook.
func (d *Dispatcher) RunOne(ctx context.Context, in *Input, name string) (Result, error) {
	fn, ok := d.registry.Lookup(name)
	if !ok {
		return SilentSuccess(), fmt.Errorf("%w: %s", ErrUnknownHook, name)
	}
	out := invoke(ctx, entry{name: name, fn: fn}, in)
	if out.Err != nil {
		d.log.Log(name, "hook failed", logging.LevelWarn,
			zap.String("event", d.event), zap.Error(out.Err), zap.Duration("duration", out.Duration))
		return SilentSuccess(), out.Err
	}
	return out.Result.Normalize(), nil
}
