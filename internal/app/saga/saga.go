package saga

import (
	"context"
	"fmt"
	"log/slog"
)

// Step is one stage of a multi-store write sequence. Compensate undoes an
// already-executed step when a later stage fails.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// FuncStep adapts plain functions into a Step; a nil Undo means the step
// needs no compensation.
type FuncStep struct {
	StepName string
	Run      func(ctx context.Context) error
	Undo     func(ctx context.Context) error
}

func (s FuncStep) Name() string { return s.StepName }

func (s FuncStep) Execute(ctx context.Context) error {
	if s.Run == nil {
		return nil
	}
	return s.Run(ctx)
}

func (s FuncStep) Compensate(ctx context.Context) error {
	if s.Undo == nil {
		return nil
	}
	return s.Undo(ctx)
}

// Runner executes steps in order; on failure it compensates the completed
// steps in reverse order and returns the original error annotated with the
// failing stage.
type Runner struct {
	Logger *slog.Logger
}

func (r Runner) Run(ctx context.Context, name string, steps ...Step) error {
	for i, step := range steps {
		if err := step.Execute(ctx); err != nil {
			r.compensate(ctx, name, steps[:i])
			return fmt.Errorf("saga %s: step %s: %w", name, step.Name(), err)
		}
	}
	return nil
}

func (r Runner) compensate(ctx context.Context, name string, done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		if err := done[i].Compensate(ctx); err != nil && r.Logger != nil {
			r.Logger.Error("saga compensation failed", "saga", name, "step", done[i].Name(), "error", err)
		}
	}
}
