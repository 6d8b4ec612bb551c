package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scanorch/pkg/domain"
	"scanorch/pkg/logger"
	"scanorch/pkg/scantool"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options configure a Dispatcher.
type Options struct {
	// PoolSize is the number of units that may run at once across every
	// concurrent dispatch.
	PoolSize int
	// Deadline bounds one whole dispatch, from the first submission until
	// every unit has resolved.
	Deadline time.Duration
}

// Unit is one (protocol, URL) pair of a task. Seq is its submission index.
type Unit struct {
	Seq      int
	Protocol domain.Protocol
	URL      string
}

// UnitOutcome is what running a Unit produced. Err is a
// *scantool.ExecutionError when the unit failed; Output may still carry the
// logs gathered before the failure.
type UnitOutcome struct {
	Unit
	Output scantool.Output
	Err    error
}

// BuildUnits expands task into units: protocols in declared order, then URLs
// in declared order, keeping only URLs that match the protocol.
func BuildUnits(task *domain.ScanTask) []Unit {
	var units []Unit
	for _, p := range task.Protocols {
		for _, u := range task.TargetURLs {
			if p.Matches(u) {
				units = append(units, Unit{Seq: len(units), Protocol: p, URL: u})
			}
		}
	}

	return units
}

// Dispatcher validates, authorizes and fans a task out over the shared pool,
// then aggregates the unit outcomes into one result.
type Dispatcher struct {
	validator  *Validator
	gate       *Gate
	adapters   *scantool.Registry
	aggregator *Aggregator
	pool       *Pool
	deadline   time.Duration
	inst       *instruments
}

// NewDispatcher creates a Dispatcher and its process-wide pool.
func NewDispatcher(
	opts Options,
	validator *Validator,
	gate *Gate,
	adapters *scantool.Registry,
	aggregator *Aggregator,
) (*Dispatcher, error) {
	if opts.Deadline <= 0 {
		return nil, errors.New("dispatch deadline must be positive")
	}

	inst, err := newInstruments()
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		validator:  validator,
		gate:       gate,
		adapters:   adapters,
		aggregator: aggregator,
		pool:       NewPool(opts.PoolSize),
		deadline:   opts.Deadline,
		inst:       inst,
	}, nil
}

// Dispatch runs every unit of task and returns the aggregated result.
//
// Validation and authorization failures are returned before any unit is
// submitted. A unit failure is recorded in the result logs and never aborts
// its siblings. When the deadline elapses first a *ScanTimeoutError is
// returned and units still running are abandoned.
func (d *Dispatcher) Dispatch(ctx context.Context, task *domain.ScanTask) (*domain.ScanResult, error) {
	started := time.Now()
	ctx, span := d.inst.tracer.Start(ctx, "orchestrator.Dispatch")
	defer span.End()

	result, outcome, err := d.dispatch(ctx, task)
	d.inst.dispatched(ctx, outcome, time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}

	return result, err
}

func (d *Dispatcher) dispatch(ctx context.Context, task *domain.ScanTask) (*domain.ScanResult, string, error) {
	if verr := d.validator.Validate(task); verr != nil {
		return nil, "invalid", verr
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("task.id", string(task.ID)))
	ctx = logger.WithFields(ctx, zap.String("taskID", string(task.ID)))

	if err := d.gate.Authorize(ctx, task); err != nil {
		return nil, "unauthorized", err
	}

	units := BuildUnits(task)
	logger.Info(ctx, "dispatching scan units", zap.Int("units", len(units)), zap.Int("poolSize", d.pool.Size()))

	outcomes, err := d.collect(ctx, task, units)
	if err != nil {
		return nil, "timeout", err
	}

	return d.aggregator.Aggregate(task.ID, outcomes), "completed", nil
}

// collect submits units in order and gathers their outcomes until all have
// resolved or the deadline elapses. The outcome channel is buffered for
// every unit so abandoned units never block.
func (d *Dispatcher) collect(ctx context.Context, task *domain.ScanTask, units []Unit) ([]UnitOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, d.deadline)
	defer cancel()

	cfg := domain.ScanConfigFor(task)
	results := make(chan UnitOutcome, len(units))

	go func() {
		for _, u := range units {
			err := d.pool.Submit(ctx, func() {
				results <- d.execute(ctx, u, cfg)
			})
			if err != nil {
				return
			}
		}
	}()

	outcomes := make([]UnitOutcome, 0, len(units))
	for len(outcomes) < len(units) {
		select {
		case o := <-results:
			outcomes = append(outcomes, o)
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, fmt.Errorf("dispatch of task %s cancelled: %w", task.ID, ctx.Err())
			}
			logger.Warn(ctx, "scan deadline elapsed",
				zap.Duration("deadline", d.deadline),
				zap.Int("completed", len(outcomes)),
				zap.Int("total", len(units)))

			return nil, &ScanTimeoutError{
				TaskID:    task.ID,
				Deadline:  d.deadline,
				Completed: len(outcomes),
				Total:     len(units),
			}
		}
	}

	return outcomes, nil
}

// execute runs one unit. It never panics and always returns an outcome.
func (d *Dispatcher) execute(ctx context.Context, u Unit, cfg domain.ScanConfig) (out UnitOutcome) {
	out.Unit = u

	ctx, span := d.inst.tracer.Start(ctx, "orchestrator.Unit", trace.WithAttributes(
		attribute.Int("unit.seq", u.Seq),
		attribute.String("unit.protocol", string(u.Protocol)),
		attribute.String("unit.url", u.URL)))
	defer func() {
		if out.Err != nil {
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, "unit failed")
			logger.Warn(ctx, "scan unit failed",
				zap.String("protocol", string(u.Protocol)),
				zap.String("url", u.URL),
				zap.Error(out.Err))
		}
		d.inst.unitDone(ctx, u, out.Err)
		span.End()
	}()

	adapter, ok := d.adapters.Lookup(u.Protocol)
	if !ok {
		out.Err = scantool.Fail(string(u.Protocol), scantool.PhaseLookup,
			fmt.Errorf("no scanner registered for protocol %s", u.Protocol))

		return out
	}

	defer func() {
		if r := recover(); r != nil {
			out.Err = scantool.Fail(adapter.Name(), scantool.PhaseRun, fmt.Errorf("panic: %v", r))
		}
	}()

	output, err := adapter.Scan(ctx, u.URL, cfg)
	out.Output = output
	if err != nil {
		var execErr *scantool.ExecutionError
		if !errors.As(err, &execErr) {
			err = scantool.Fail(adapter.Name(), scantool.PhaseRun, err)
		}
		out.Err = err
	}

	return out
}
